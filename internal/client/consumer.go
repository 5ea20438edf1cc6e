package client

import (
	"context"
	"io"

	"github.com/danmuck/ringlink/internal/errkind"
	"github.com/danmuck/ringlink/internal/forward"
	"github.com/danmuck/ringlink/internal/ring"
	"github.com/danmuck/ringlink/internal/ringmaster"
)

// Consumer is a registered consumer attachment.
type Consumer struct {
	attachment
	consumer *ring.Consumer
}

// AttachConsumer resolves the ring master, takes a consumer slot on the ring
// and registers it. On failure every earlier step is undone.
func AttachConsumer(ctx context.Context, cfg Config) (*Consumer, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	ep, err := resolveRegistrar(ctx, cfg)
	if err != nil {
		return nil, err
	}

	r, err := openRing(cfg)
	if err != nil {
		return nil, err
	}
	rc, err := r.AttachConsumer()
	if err != nil {
		_ = r.Close()
		return nil, errkind.New(errkind.RingAttach, "client.AttachConsumer", err)
	}

	name := ringmaster.RingName(cfg.RingPath())
	lease, err := register(ctx, cfg, ep, name, ringmaster.Consumer(rc.Slot()))
	if err != nil {
		_ = rc.Detach()
		_ = r.Close()
		return nil, err
	}

	return &Consumer{
		attachment: attachment{
			cfg:    cfg,
			name:   name,
			ring:   r,
			lease:  lease,
			detach: rc.Detach,
		},
		consumer: rc,
	}, nil
}

func (c *Consumer) Slot() uint32 { return c.consumer.Slot() }

// Source exposes the ring consumer for callers driving their own loop.
func (c *Consumer) Source() forward.Source { return c.consumer }

// Stream forwards ring data to sink until the ring fails or ctx ends.
func (c *Consumer) Stream(ctx context.Context, sink io.Writer) error {
	cfg := c.cfg.Forward
	if cfg.Label == "" {
		cfg.Label = c.name
	}
	loop, err := forward.New(c.consumer, sink, cfg)
	if err != nil {
		return err
	}
	return loop.Run(ctx)
}
