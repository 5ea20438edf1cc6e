package ring

import (
	"errors"
	"fmt"
)

const (
	Magic   = "RINGLNK\x00"
	Version = uint32(1)

	headerSize = 64
	slotSize   = 16
	dataAlign  = 64

	DefaultDataBytes    = 8 * 1024 * 1024
	DefaultMaxConsumers = 100
)

var (
	ErrInvalidSize        = errors.New("ring: invalid size")
	ErrBadMagic           = errors.New("ring: bad magic")
	ErrUnsupportedVersion = errors.New("ring: unsupported version")
	ErrTruncated          = errors.New("ring: backing file truncated")
)

// header sits at offset 0 of the mapping. Fields written after creation are
// only touched through sync/atomic.
type header struct {
	magic        [8]byte  // 0x00
	version      uint32   // 0x08
	maxConsumers uint32   // 0x0C
	dataBytes    uint64   // 0x10
	dataOffset   uint64   // 0x18
	producerPID  uint64   // 0x20: 0 when no producer is attached
	put          uint64   // 0x28: total bytes ever written
	reserved     [16]byte // 0x30-0x3F
}

// slot follows the header, one per consumer.
type slot struct {
	pid uint64 // 0 when free
	get uint64 // total bytes consumed by this slot
}

// layout returns the data offset and total file size for a ring.
func layout(dataBytes uint64, maxConsumers uint32) (dataOffset, total uint64, err error) {
	if dataBytes == 0 {
		return 0, 0, fmt.Errorf("%w: data bytes must be positive", ErrInvalidSize)
	}
	if maxConsumers == 0 {
		return 0, 0, fmt.Errorf("%w: at least one consumer slot required", ErrInvalidSize)
	}
	slots := uint64(maxConsumers) * slotSize
	dataOffset = (headerSize + slots + dataAlign - 1) &^ (dataAlign - 1)
	total = dataOffset + dataBytes
	if total < dataBytes {
		return 0, 0, fmt.Errorf("%w: size overflow", ErrInvalidSize)
	}
	return dataOffset, total, nil
}

func validateHeader(h *header, fileSize int64) error {
	if string(h.magic[:]) != Magic {
		return ErrBadMagic
	}
	if h.version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.version)
	}
	dataOffset, total, err := layout(h.dataBytes, h.maxConsumers)
	if err != nil {
		return err
	}
	if dataOffset != h.dataOffset {
		return fmt.Errorf("%w: data offset %d, expected %d", ErrTruncated, h.dataOffset, dataOffset)
	}
	if uint64(fileSize) < total {
		return fmt.Errorf("%w: %d bytes, need %d", ErrTruncated, fileSize, total)
	}
	return nil
}
