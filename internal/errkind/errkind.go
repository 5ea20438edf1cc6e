// Package errkind classifies client failures by the stage that produced them.
//
// Each stage of the client pipeline (discovery, ring attach, registration,
// forwarding) reports its own kind. Callers branch on the kind with errors.Is
// against the package sentinels, or map it to a process exit status with
// ExitCode.
package errkind

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	Unknown Kind = iota
	Discovery
	NoRegistrar
	RingAttach
	RegistrarUnreachable
	Transport
	RegistrationRejected
	ForwardingFatal
)

var (
	ErrDiscovery            = errors.New("discovery error")
	ErrNoRegistrar          = errors.New("no registrar")
	ErrRingAttach           = errors.New("ring attach error")
	ErrRegistrarUnreachable = errors.New("registrar unreachable")
	ErrTransport            = errors.New("transport error")
	ErrRegistrationRejected = errors.New("registration rejected")
	ErrForwardingFatal      = errors.New("forwarding fatal error")
)

func (k Kind) String() string {
	switch k {
	case Discovery:
		return "discovery"
	case NoRegistrar:
		return "no_registrar"
	case RingAttach:
		return "ring_attach"
	case RegistrarUnreachable:
		return "registrar_unreachable"
	case Transport:
		return "transport"
	case RegistrationRejected:
		return "registration_rejected"
	case ForwardingFatal:
		return "forwarding_fatal"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case Discovery:
		return ErrDiscovery
	case NoRegistrar:
		return ErrNoRegistrar
	case RingAttach:
		return ErrRingAttach
	case RegistrarUnreachable:
		return ErrRegistrarUnreachable
	case Transport:
		return ErrTransport
	case RegistrationRejected:
		return ErrRegistrationRejected
	case ForwardingFatal:
		return ErrForwardingFatal
	default:
		return nil
	}
}

// Error is a classified failure. Detail holds protocol text worth surfacing
// verbatim, such as a rejected registrar reply.
type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Err    error
}

// New returns a classified error wrapping err.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithDetail returns a classified error carrying detail and no cause.
func WithDetail(kind Kind, op, detail string) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if s := e.Kind.sentinel(); s != nil {
		msg = s.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Detail)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

var kinds = []Kind{Discovery, NoRegistrar, RingAttach, RegistrarUnreachable, Transport, RegistrationRejected, ForwardingFatal}

// KindOf reports the kind of the first classified error in err's chain. A
// bare kind sentinel classifies as its kind.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return Unknown
}

// DetailOf returns the detail of the first classified error in err's chain.
func DetailOf(err error) string {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Detail
	}
	return ""
}

// ExitCode maps a failure to a process exit status. Streaming runs until it
// fails, so every outcome, including a nil error, is non-zero.
func ExitCode(err error) int {
	switch KindOf(err) {
	case Discovery:
		return 2
	case NoRegistrar:
		return 3
	case RingAttach:
		return 4
	case RegistrarUnreachable:
		return 5
	case Transport:
		return 6
	case RegistrationRejected:
		return 7
	case ForwardingFatal:
		return 8
	default:
		return 1
	}
}
