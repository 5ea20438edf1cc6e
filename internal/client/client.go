// Package client attaches a process to a ring as a registered producer or
// consumer: it resolves the ring master through the port manager, claims a
// position on the ring, registers that position and holds the lease.
package client

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danmuck/ringlink/internal/errkind"
	"github.com/danmuck/ringlink/internal/forward"
	"github.com/danmuck/ringlink/internal/observability"
	"github.com/danmuck/ringlink/internal/portman"
	"github.com/danmuck/ringlink/internal/ring"
	"github.com/danmuck/ringlink/internal/ringmaster"
	"github.com/rs/zerolog/log"
)

const DefaultDirectory = "/dev/shm"

var ErrRingRequired = errors.New("client: ring name required")

type Config struct {
	Directory string
	Ring      string
	// Comment is display-only and never sent to the ring master.
	Comment   string
	Portman   portman.Config
	Registrar ringmaster.Config
	Forward   forward.Config
}

func DefaultConfig() Config {
	return Config{
		Directory: DefaultDirectory,
		Portman:   portman.DefaultConfig(),
		Registrar: ringmaster.DefaultConfig(),
		Forward:   forward.DefaultConfig(),
	}
}

// WithDefaults fills zero values from DefaultConfig.
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.Directory) == "" {
		c.Directory = DefaultDirectory
	}
	c.Portman = c.Portman.WithDefaults()
	c.Registrar = c.Registrar.WithDefaults()
	c.Forward = c.Forward.WithDefaults()
	return c
}

// RingPath is the ring's backing file.
func (c Config) RingPath() string {
	return filepath.Join(c.Directory, c.Ring)
}

// validate runs before any stage so a bad ring name never claims a slot.
func (c Config) validate() error {
	if strings.TrimSpace(c.Ring) == "" {
		return errkind.New(errkind.RingAttach, "client.validate", ErrRingRequired)
	}
	if strings.ContainsAny(c.Ring, "/\\") {
		return errkind.New(errkind.RingAttach, "client.validate", fmt.Errorf("ring must be a file name, got %q", c.Ring))
	}
	if err := ringmaster.CheckRingName(c.Ring); err != nil {
		return errkind.New(errkind.RingAttach, "client.validate", err)
	}
	return nil
}

// attachment is the state shared by both roles. Close releases it in reverse
// order: lease, ring position, mapping.
type attachment struct {
	cfg    Config
	name   string
	ring   *ring.Ring
	lease  *ringmaster.Lease
	detach func() error
}

func (a *attachment) RingName() string             { return a.name }
func (a *attachment) Lease() *ringmaster.Lease     { return a.lease }
func (a *attachment) Registrar() string            { return a.lease.RemoteAddr().String() }
func (a *attachment) Status() (ring.Status, error) { return a.ring.Status() }

func (a *attachment) Close() error {
	errLease := a.lease.Close()
	observability.SetLeaseOpen(a.name, a.lease.Role().Token(), false)
	errDetach := a.detach()
	errRing := a.ring.Close()
	return errors.Join(errLease, errDetach, errRing)
}

// resolveRegistrar finds the ring master. Nothing else is touched when it
// fails.
func resolveRegistrar(ctx context.Context, cfg Config) (portman.Endpoint, error) {
	pm := portman.NewClient(cfg.Portman)
	ep, err := portman.Resolve(ctx, pm, portman.RegistrarService)
	if err != nil {
		return portman.Endpoint{}, err
	}
	log.Debug().Str("registrar", ep.String()).Str("portman", cfg.Portman.Address()).Msg("client.resolveRegistrar")
	return ep, nil
}

func openRing(cfg Config) (*ring.Ring, error) {
	r, err := ring.Open(cfg.RingPath())
	if err != nil {
		return nil, errkind.New(errkind.RingAttach, "client.openRing", err)
	}
	return r, nil
}

func register(ctx context.Context, cfg Config, ep portman.Endpoint, name string, role ringmaster.Role) (*ringmaster.Lease, error) {
	lease, err := ringmaster.NewClient(cfg.Registrar).Register(ctx, ep.Address(), name, role)
	result := "ok"
	if err != nil {
		result = errkind.KindOf(err).String()
	}
	observability.RecordRegistration(name, role.Token(), result)
	if err != nil {
		return nil, err
	}
	observability.SetLeaseOpen(name, role.Token(), true)
	log.Debug().Str("ring", name).Str("role", role.Token()).Msg("client.register")
	return lease, nil
}
