package ring

import (
	"context"
	"sync/atomic"
	"time"
)

// Producer writes into a ring. Writes never overtake the slowest attached
// consumer; data larger than the ring is fed through in pieces.
type Producer struct {
	r        *Ring
	pid      uint64
	detached atomic.Bool
}

// Free reports how many bytes can be written without waiting.
func (p *Producer) Free() (uint64, error) {
	if err := p.check(); err != nil {
		return 0, err
	}
	return p.free(atomic.LoadUint64(&p.r.hdr.put)), nil
}

func (p *Producer) free(put uint64) uint64 {
	oldest := put
	for i := range p.r.slots {
		s := &p.r.slots[i]
		if atomic.LoadUint64(&s.pid) == 0 {
			continue
		}
		if get := atomic.LoadUint64(&s.get); get < oldest {
			oldest = get
		}
	}
	used := put - oldest
	if used >= p.r.size {
		return 0
	}
	return p.r.size - used
}

// Put writes all of data, waiting for consumers to make room. It returns the
// number of bytes committed, which is short only when err is non-nil.
func (p *Producer) Put(ctx context.Context, data []byte) (int, error) {
	written := 0
	for len(data) > 0 {
		if err := p.check(); err != nil {
			return written, err
		}
		put := atomic.LoadUint64(&p.r.hdr.put)
		free := p.free(put)
		if free == 0 {
			timer := time.NewTimer(p.r.pollInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return written, ctx.Err()
			case <-timer.C:
			}
			continue
		}
		n := uint64(len(data))
		if n > free {
			n = free
		}
		p.r.copyIn(data[:n], put)
		atomic.StoreUint64(&p.r.hdr.put, put+n)
		data = data[n:]
		written += int(n)
	}
	return written, nil
}

// Write implements io.Writer on top of Put.
func (p *Producer) Write(b []byte) (int, error) {
	return p.Put(context.Background(), b)
}

// Detach releases the producer position.
func (p *Producer) Detach() error {
	if !p.detached.CompareAndSwap(false, true) {
		return nil
	}
	if p.r.closed.Load() {
		return ErrClosed
	}
	if !atomic.CompareAndSwapUint64(&p.r.hdr.producerPID, p.pid, 0) {
		return ErrSlotLost
	}
	return nil
}

func (p *Producer) check() error {
	if p.detached.Load() || p.r.closed.Load() {
		return ErrClosed
	}
	if atomic.LoadUint64(&p.r.hdr.producerPID) != p.pid {
		return ErrSlotLost
	}
	return nil
}
