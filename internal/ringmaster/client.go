package ringmaster

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/ringlink/internal/errkind"
)

var ErrAddressRequired = errors.New("ringmaster: registrar address required")

// Config defines registration handshake behavior.
type Config struct {
	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	// AcceptReplies lists the reply tokens treated as success.
	AcceptReplies []string
	// PID identifies the client to the registrar; zero means os.Getpid().
	PID int
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout:   5 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		AcceptReplies:    []string{DefaultAcceptReply},
	}
}

// WithDefaults fills zero values from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	accept := make([]string, 0, len(c.AcceptReplies))
	for _, tok := range c.AcceptReplies {
		if tok = strings.TrimSpace(tok); tok != "" {
			accept = append(accept, tok)
		}
	}
	if len(accept) == 0 {
		accept = def.AcceptReplies
	}
	c.AcceptReplies = accept
	if c.PID <= 0 {
		c.PID = os.Getpid()
	}
	return c
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg.WithDefaults()}
}

// Register claims role on ring with the registrar at addr. The returned lease
// holds the registration for as long as it stays open; registration is never
// retried.
func (c *Client) Register(ctx context.Context, addr, ring string, role Role) (*Lease, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errkind.New(errkind.RegistrarUnreachable, "ringmaster.Register", ErrAddressRequired)
	}
	req, err := FormatRequest(ring, role, c.cfg.PID)
	if err != nil {
		return nil, errkind.New(errkind.RegistrationRejected, "ringmaster.Register", err)
	}

	dialer := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errkind.New(errkind.RegistrarUnreachable, "ringmaster.Register", err)
	}

	if err := c.handshake(ctx, conn, req); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Lease{conn: conn, ring: ring, role: role}, nil
}

func (c *Client) handshake(ctx context.Context, conn net.Conn, req string) error {
	deadline := time.Now().Add(c.cfg.HandshakeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(req); err != nil {
		return errkind.New(errkind.Transport, "ringmaster.Register", err)
	}
	if err := w.Flush(); err != nil {
		return errkind.New(errkind.Transport, "ringmaster.Register", err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return errkind.New(errkind.Transport, "ringmaster.Register", err)
	}
	if err := ParseReply(line, c.cfg.AcceptReplies...); err != nil {
		return err
	}
	_ = conn.SetDeadline(time.Time{})
	return nil
}

// Lease is an open registrar connection whose existence is the registration.
// Nothing is read or written on it after the handshake; closing it tells the
// registrar the client has left.
type Lease struct {
	conn      net.Conn
	ring      string
	role      Role
	closeOnce sync.Once
	closeErr  error
}

func (l *Lease) Ring() string { return l.ring }
func (l *Lease) Role() Role   { return l.role }

func (l *Lease) RemoteAddr() net.Addr {
	return l.conn.RemoteAddr()
}

// Close releases the registration. Safe to call more than once.
func (l *Lease) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.conn.Close()
	})
	return l.closeErr
}
