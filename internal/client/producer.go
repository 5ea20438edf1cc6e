package client

import (
	"context"

	"github.com/danmuck/ringlink/internal/errkind"
	"github.com/danmuck/ringlink/internal/ring"
	"github.com/danmuck/ringlink/internal/ringmaster"
)

// Producer is a registered producer attachment.
type Producer struct {
	attachment
	producer *ring.Producer
}

// AttachProducer resolves the ring master, takes the ring's producer position
// and registers it. On failure every earlier step is undone.
func AttachProducer(ctx context.Context, cfg Config) (*Producer, error) {
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
	rp, err := r.AttachProducer()
	if err != nil {
		_ = r.Close()
		return nil, errkind.New(errkind.RingAttach, "client.AttachProducer", err)
	}

	name := ringmaster.RingName(cfg.RingPath())
	lease, err := register(ctx, cfg, ep, name, ringmaster.Producer())
	if err != nil {
		_ = rp.Detach()
		_ = r.Close()
		return nil, err
	}

	return &Producer{
		attachment: attachment{
			cfg:    cfg,
			name:   name,
			ring:   r,
			lease:  lease,
			detach: rp.Detach,
		},
		producer: rp,
	}, nil
}

// Put writes data into the ring, waiting for consumers to make room.
func (p *Producer) Put(ctx context.Context, data []byte) (int, error) {
	return p.producer.Put(ctx, data)
}

// Write implements io.Writer.
func (p *Producer) Write(b []byte) (int, error) {
	return p.producer.Write(b)
}
