package ring

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"
	"unsafe"
)

const defaultPollInterval = 50 * time.Microsecond

var (
	ErrClosed        = errors.New("ring: closed")
	ErrNoFreeSlot    = errors.New("ring: no free consumer slot")
	ErrProducerInUse = errors.New("ring: producer already attached")
	ErrSlotLost      = errors.New("ring: slot no longer owned")
	ErrOverrun       = errors.New("ring: consumer overrun by producer")
)

type timeoutError struct{}

func (timeoutError) Error() string { return "ring: timed out waiting for data" }
func (timeoutError) Timeout() bool { return true }

// ErrTimeout is returned by timed operations that saw no progress before
// their deadline. It satisfies interface{ Timeout() bool }.
var ErrTimeout error = timeoutError{}

// Ring is a mapped ring buffer file. One producer and up to MaxConsumers
// consumers, possibly in different processes, share it.
type Ring struct {
	path   string
	file   *os.File
	mem    []byte
	hdr    *header
	slots  []slot
	data   []byte
	size   uint64
	closed atomic.Bool

	pollInterval time.Duration
}

// Create makes a new ring file at path. It fails if the file exists.
func Create(path string, dataBytes uint64, maxConsumers uint32) (*Ring, error) {
	dataOffset, total, err := layout(dataBytes, maxConsumers)
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o660)
	if err != nil {
		return nil, fmt.Errorf("ring: create %s: %w", path, err)
	}
	cleanup := func() {
		_ = file.Close()
		_ = os.Remove(path)
	}
	if err := file.Truncate(int64(total)); err != nil {
		cleanup()
		return nil, fmt.Errorf("ring: size %s: %w", path, err)
	}
	mem, err := mapFile(file, int(total))
	if err != nil {
		cleanup()
		return nil, err
	}

	hdr := (*header)(unsafe.Pointer(&mem[0]))
	hdr.version = Version
	hdr.maxConsumers = maxConsumers
	hdr.dataBytes = dataBytes
	hdr.dataOffset = dataOffset
	atomic.StoreUint64(&hdr.producerPID, 0)
	atomic.StoreUint64(&hdr.put, 0)
	copy(hdr.magic[:], Magic)

	return newRing(path, file, mem), nil
}

// Open maps an existing ring file and validates its header.
func Open(path string) (*Ring, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("ring: open %s: %w", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("ring: stat %s: %w", path, err)
	}
	if info.Size() < headerSize {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, info.Size())
	}
	mem, err := mapFile(file, int(info.Size()))
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if err := validateHeader((*header)(unsafe.Pointer(&mem[0])), info.Size()); err != nil {
		_ = unmapFile(mem)
		_ = file.Close()
		return nil, fmt.Errorf("ring: %s: %w", path, err)
	}
	return newRing(path, file, mem), nil
}

func newRing(path string, file *os.File, mem []byte) *Ring {
	hdr := (*header)(unsafe.Pointer(&mem[0]))
	slots := unsafe.Slice((*slot)(unsafe.Pointer(&mem[headerSize])), int(hdr.maxConsumers))
	return &Ring{
		path:         path,
		file:         file,
		mem:          mem,
		hdr:          hdr,
		slots:        slots,
		data:         mem[hdr.dataOffset : hdr.dataOffset+hdr.dataBytes],
		size:         hdr.dataBytes,
		pollInterval: defaultPollInterval,
	}
}

func (r *Ring) Path() string         { return r.path }
func (r *Ring) DataBytes() uint64    { return r.size }
func (r *Ring) MaxConsumers() uint32 { return uint32(len(r.slots)) }

// SetPollInterval bounds how long blocked operations sleep between checks.
func (r *Ring) SetPollInterval(d time.Duration) {
	if d > 0 {
		r.pollInterval = d
	}
}

// Close unmaps the ring. Producers and consumers attached through r must be
// detached first; their later calls fail with ErrClosed.
func (r *Ring) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	errUnmap := unmapFile(r.mem)
	errClose := r.file.Close()
	return errors.Join(errUnmap, errClose)
}

// AttachConsumer claims the first free slot. The consumer starts at the
// current put position and sees only data written after it attached.
func (r *Ring) AttachConsumer() (*Consumer, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	pid := uint64(os.Getpid())
	for i := range r.slots {
		s := &r.slots[i]
		if atomic.CompareAndSwapUint64(&s.pid, 0, pid) {
			atomic.StoreUint64(&s.get, atomic.LoadUint64(&r.hdr.put))
			return &Consumer{r: r, s: s, index: uint32(i), pid: pid}, nil
		}
	}
	return nil, ErrNoFreeSlot
}

// AttachProducer claims the ring's single producer position.
func (r *Ring) AttachProducer() (*Producer, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	pid := uint64(os.Getpid())
	if !atomic.CompareAndSwapUint64(&r.hdr.producerPID, 0, pid) {
		return nil, fmt.Errorf("%w: pid %d", ErrProducerInUse, atomic.LoadUint64(&r.hdr.producerPID))
	}
	return &Producer{r: r, pid: pid}, nil
}

// copyOut reads len(dst) bytes starting at monotonic index idx.
func (r *Ring) copyOut(dst []byte, idx uint64) {
	pos := idx % r.size
	first := r.size - pos
	if uint64(len(dst)) <= first {
		copy(dst, r.data[pos:pos+uint64(len(dst))])
		return
	}
	n := copy(dst, r.data[pos:])
	copy(dst[n:], r.data[:uint64(len(dst))-first])
}

// copyIn writes src starting at monotonic index idx.
func (r *Ring) copyIn(src []byte, idx uint64) {
	pos := idx % r.size
	first := r.size - pos
	if uint64(len(src)) <= first {
		copy(r.data[pos:], src)
		return
	}
	n := copy(r.data[pos:], src[:first])
	copy(r.data, src[n:])
}

// SlotStatus describes one occupied consumer slot.
type SlotStatus struct {
	Index   uint32
	PID     uint64
	Get     uint64
	Backlog uint64
}

// Status is a point-in-time view of the ring's bookkeeping.
type Status struct {
	Path         string
	DataBytes    uint64
	MaxConsumers uint32
	ProducerPID  uint64
	Put          uint64
	Consumers    []SlotStatus
}

func (r *Ring) Status() (Status, error) {
	if r.closed.Load() {
		return Status{}, ErrClosed
	}
	put := atomic.LoadUint64(&r.hdr.put)
	st := Status{
		Path:         r.path,
		DataBytes:    r.size,
		MaxConsumers: uint32(len(r.slots)),
		ProducerPID:  atomic.LoadUint64(&r.hdr.producerPID),
		Put:          put,
	}
	for i := range r.slots {
		s := &r.slots[i]
		pid := atomic.LoadUint64(&s.pid)
		if pid == 0 {
			continue
		}
		get := atomic.LoadUint64(&s.get)
		var backlog uint64
		if put > get {
			backlog = put - get
		}
		st.Consumers = append(st.Consumers, SlotStatus{Index: uint32(i), PID: pid, Get: get, Backlog: backlog})
	}
	return st, nil
}
