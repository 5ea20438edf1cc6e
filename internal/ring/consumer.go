package ring

import (
	"sync/atomic"
	"time"
)

// Consumer reads from one slot of a ring.
type Consumer struct {
	r        *Ring
	s        *slot
	index    uint32
	pid      uint64
	detached atomic.Bool
}

// Slot is the index the ring master is told about at registration.
func (c *Consumer) Slot() uint32 { return c.index }

// Available reports how many bytes are waiting for this consumer.
func (c *Consumer) Available() (uint64, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	return atomic.LoadUint64(&c.r.hdr.put) - atomic.LoadUint64(&c.s.get), nil
}

// TimedGet copies up to len(buf) available bytes into buf, waiting at most
// timeout for data to appear. It returns ErrTimeout when none did; any other
// error means the consumer can no longer read.
func (c *Consumer) TimedGet(buf []byte, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	for {
		if err := c.check(); err != nil {
			return 0, err
		}
		put := atomic.LoadUint64(&c.r.hdr.put)
		get := atomic.LoadUint64(&c.s.get)
		avail := put - get
		if avail > c.r.size {
			return 0, ErrOverrun
		}
		if avail > 0 && len(buf) > 0 {
			n := avail
			if n > uint64(len(buf)) {
				n = uint64(len(buf))
			}
			c.r.copyOut(buf[:n], get)
			atomic.StoreUint64(&c.s.get, get+n)
			return int(n), nil
		}
		if len(buf) == 0 {
			return 0, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, ErrTimeout
		}
		time.Sleep(min(remaining, c.r.pollInterval))
	}
}

// Detach frees the slot for another consumer.
func (c *Consumer) Detach() error {
	if !c.detached.CompareAndSwap(false, true) {
		return nil
	}
	if c.r.closed.Load() {
		return ErrClosed
	}
	if !atomic.CompareAndSwapUint64(&c.s.pid, c.pid, 0) {
		return ErrSlotLost
	}
	return nil
}

func (c *Consumer) check() error {
	if c.detached.Load() || c.r.closed.Load() {
		return ErrClosed
	}
	if atomic.LoadUint64(&c.s.pid) != c.pid {
		return ErrSlotLost
	}
	return nil
}
