package portman

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/ringlink/internal/errkind"
)

const (
	DefaultHost = "localhost"
	DefaultPort = uint16(30000)

	// RegistrarService is the name the ring master advertises under.
	RegistrarService = "RingMaster"
)

var (
	ErrServiceNameRequired = errors.New("portman: service name required")
	ErrMalformedReply      = errors.New("portman: malformed reply")
	ErrRequestFailed       = errors.New("portman: request failed")
)

// Config locates the port manager. There is no process-wide default: callers
// pass the port they were configured with.
type Config struct {
	Host        string
	Port        uint16
	DialTimeout time.Duration
	IOTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Host:        DefaultHost,
		Port:        DefaultPort,
		DialTimeout: 3 * time.Second,
		IOTimeout:   5 * time.Second,
	}
}

// WithDefaults fills zero values from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.Host) == "" {
		c.Host = def.Host
	}
	if c.Port == 0 {
		c.Port = def.Port
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.IOTimeout <= 0 {
		c.IOTimeout = def.IOTimeout
	}
	return c
}

func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

// Service is one allocation held by the port manager.
type Service struct {
	Port uint16
	Name string
	User string
}

// Endpoint is a resolved network location.
type Endpoint struct {
	Host string
	Port uint16
}

func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

func (e Endpoint) String() string {
	return e.Address()
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg.WithDefaults()}
}

func (c *Client) Config() Config {
	return c.cfg
}

// List asks the port manager for every allocation it holds.
func (c *Client) List(ctx context.Context) ([]Service, error) {
	dialer := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Address())
	if err != nil {
		return nil, errkind.New(errkind.Discovery, "portman.List", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.cfg.IOTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString("LIST\n"); err != nil {
		return nil, errkind.New(errkind.Discovery, "portman.List", err)
	}
	if err := w.Flush(); err != nil {
		return nil, errkind.New(errkind.Discovery, "portman.List", err)
	}

	services, err := readListReply(bufio.NewReader(conn))
	if err != nil {
		return nil, errkind.New(errkind.Discovery, "portman.List", err)
	}
	return services, nil
}

// FindByService returns allocations registered under name, in port manager
// order. An empty result is not an error.
func (c *Client) FindByService(ctx context.Context, name string) ([]Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errkind.New(errkind.Discovery, "portman.FindByService", ErrServiceNameRequired)
	}
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Service, 0, len(all))
	for _, svc := range all {
		if svc.Name == name {
			out = append(out, svc)
		}
	}
	return out, nil
}

// Endpoints resolves name to endpoints on the port manager's host.
func (c *Client) Endpoints(ctx context.Context, name string) ([]Endpoint, error) {
	services, err := c.FindByService(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]Endpoint, 0, len(services))
	for _, svc := range services {
		out = append(out, Endpoint{Host: c.cfg.Host, Port: svc.Port})
	}
	return out, nil
}

func readListReply(r *bufio.Reader) ([]Service, error) {
	status, err := readLine(r)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(status)
	if len(fields) == 0 || fields[0] != "OK" {
		return nil, fmt.Errorf("%w: %q", ErrRequestFailed, status)
	}
	if len(fields) != 2 {
		return nil, fmt.Errorf("%w: status line %q", ErrMalformedReply, status)
	}
	count, err := strconv.Atoi(fields[1])
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%w: entry count %q", ErrMalformedReply, fields[1])
	}

	out := make([]Service, 0, count)
	for i := 0; i < count; i++ {
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}
		svc, err := parseServiceLine(line)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, nil
}

// parseServiceLine decodes "<port> <service> <user>".
func parseServiceLine(line string) (Service, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Service{}, fmt.Errorf("%w: entry %q", ErrMalformedReply, line)
	}
	port, err := strconv.ParseUint(fields[0], 10, 16)
	if err != nil {
		return Service{}, fmt.Errorf("%w: port in %q", ErrMalformedReply, line)
	}
	svc := Service{Port: uint16(port), Name: fields[1]}
	if len(fields) > 2 {
		svc.User = strings.Join(fields[2:], " ")
	}
	return svc, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
