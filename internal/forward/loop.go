// Package forward drains a ring consumer into a byte sink.
package forward

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/danmuck/ringlink/internal/errkind"
	"github.com/danmuck/ringlink/internal/observability"
)

const (
	DefaultChunkSize   = 1024 * 1024
	DefaultPollTimeout = time.Millisecond
)

var (
	ErrSourceRequired = errors.New("forward: source required")
	ErrSinkRequired   = errors.New("forward: sink required")
)

// Source is a ring consumer. TimedGet returns an error satisfying
// interface{ Timeout() bool } when nothing arrived within timeout.
type Source interface {
	TimedGet(buf []byte, timeout time.Duration) (int, error)
}

type Config struct {
	ChunkSize   int
	PollTimeout time.Duration
	// Label tags metrics, normally the ring name.
	Label string
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:   DefaultChunkSize,
		PollTimeout: DefaultPollTimeout,
	}
}

// WithDefaults fills zero values from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = def.ChunkSize
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = def.PollTimeout
	}
	return c
}

type Loop struct {
	src Source
	dst io.Writer
	cfg Config
	buf []byte
}

func New(src Source, dst io.Writer, cfg Config) (*Loop, error) {
	if src == nil {
		return nil, ErrSourceRequired
	}
	if dst == nil {
		return nil, ErrSinkRequired
	}
	cfg = cfg.WithDefaults()
	return &Loop{
		src: src,
		dst: dst,
		cfg: cfg,
		buf: make([]byte, cfg.ChunkSize),
	}, nil
}

// Run forwards until the source or sink fails, returning a ForwardingFatal
// error, or until ctx is cancelled, returning ctx.Err(). Timeouts are idle
// polls and never end the loop.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := l.src.TimedGet(l.buf, l.cfg.PollTimeout)
		if err != nil {
			if IsTimeout(err) {
				observability.RecordPoll(l.cfg.Label, observability.PollTimeout, 0)
				continue
			}
			observability.RecordPoll(l.cfg.Label, observability.PollFatal, 0)
			return errkind.New(errkind.ForwardingFatal, "forward.poll", err)
		}
		if n == 0 {
			observability.RecordPoll(l.cfg.Label, observability.PollEmpty, 0)
			continue
		}
		if n > len(l.buf) {
			return errkind.New(errkind.ForwardingFatal, "forward.poll", fmt.Errorf("source returned %d bytes into %d byte buffer", n, len(l.buf)))
		}
		if err := writeAll(l.dst, l.buf[:n]); err != nil {
			observability.RecordPoll(l.cfg.Label, observability.PollFatal, 0)
			return errkind.New(errkind.ForwardingFatal, "forward.write", err)
		}
		observability.RecordPoll(l.cfg.Label, observability.PollData, n)
	}
}

// writeAll requires the sink to take the whole chunk in one call.
func writeAll(w io.Writer, p []byte) error {
	n, err := w.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return io.ErrShortWrite
	}
	return nil
}

// IsTimeout reports whether err is a poll timeout.
func IsTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
