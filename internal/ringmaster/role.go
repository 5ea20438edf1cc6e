package ringmaster

import (
	"fmt"
	"path/filepath"
	"strconv"
)

type roleKind uint8

const (
	roleProducer roleKind = iota + 1
	roleConsumer
)

// Role is the part a client plays on a ring: the producer, or a consumer at a
// slot assigned when it attached.
type Role struct {
	kind roleKind
	slot uint32
}

func Producer() Role {
	return Role{kind: roleProducer}
}

func Consumer(slot uint32) Role {
	return Role{kind: roleConsumer, slot: slot}
}

func (r Role) IsProducer() bool { return r.kind == roleProducer }
func (r Role) IsConsumer() bool { return r.kind == roleConsumer }

// Slot returns the consumer slot; ok is false for the producer.
func (r Role) Slot() (slot uint32, ok bool) {
	if r.kind != roleConsumer {
		return 0, false
	}
	return r.slot, true
}

// Token renders the role as it appears on the wire.
func (r Role) Token() string {
	switch r.kind {
	case roleProducer:
		return "producer"
	case roleConsumer:
		return "consumer." + strconv.FormatUint(uint64(r.slot), 10)
	default:
		return ""
	}
}

func (r Role) String() string {
	if t := r.Token(); t != "" {
		return t
	}
	return "invalid"
}

func (r Role) validate() error {
	if r.kind != roleProducer && r.kind != roleConsumer {
		return fmt.Errorf("%w: zero role", ErrInvalidRequest)
	}
	return nil
}

// RingName is the name the ring master knows a ring by: the file name of its
// backing store, without directories.
func RingName(path string) string {
	return filepath.Base(path)
}
