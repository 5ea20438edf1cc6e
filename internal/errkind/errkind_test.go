package errkind

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestErrorMatchesKindSentinel(t *testing.T) {
	err := fmt.Errorf("attach consumer: %w", New(Transport, "ringmaster.Register", io.ErrUnexpectedEOF))

	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport match, got %v", err)
	}
	if errors.Is(err, ErrRegistrationRejected) {
		t.Fatalf("unexpected ErrRegistrationRejected match")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected wrapped cause to remain reachable")
	}
	if KindOf(err) != Transport {
		t.Fatalf("unexpected kind: %v", KindOf(err))
	}
}

func TestWithDetailKeepsRejectedLine(t *testing.T) {
	err := WithDetail(RegistrationRejected, "ringmaster.Register", "ERROR ring busy")

	if DetailOf(err) != "ERROR ring busy" {
		t.Fatalf("unexpected detail: %q", DetailOf(err))
	}
	if !strings.Contains(err.Error(), `"ERROR ring busy"`) {
		t.Fatalf("detail missing from message: %q", err.Error())
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if KindOf(errors.New("plain")) != Unknown {
		t.Fatalf("expected Unknown for plain error")
	}
	if KindOf(nil) != Unknown {
		t.Fatalf("expected Unknown for nil")
	}
}

func TestExitCodeAlwaysNonZero(t *testing.T) {
	kinds := []Kind{Unknown, Discovery, NoRegistrar, RingAttach, RegistrarUnreachable, Transport, RegistrationRejected, ForwardingFatal}
	seen := map[int]Kind{}
	for _, k := range kinds {
		var err error
		if k != Unknown {
			err = New(k, "op", nil)
		}
		code := ExitCode(err)
		if code == 0 {
			t.Fatalf("kind=%s mapped to zero exit code", k)
		}
		if prev, ok := seen[code]; ok {
			t.Fatalf("kind=%s shares exit code %d with %s", k, code, prev)
		}
		seen[code] = k
	}
}

func TestKindOfBareSentinel(t *testing.T) {
	err := fmt.Errorf("attach: %w", ErrNoRegistrar)
	if KindOf(err) != NoRegistrar {
		t.Fatalf("unexpected kind: %v", KindOf(err))
	}
	if code := ExitCode(ErrNoRegistrar); code != 3 {
		t.Fatalf("unexpected exit code for sentinel: %d", code)
	}
	if code := ExitCode(ErrForwardingFatal); code != 8 {
		t.Fatalf("unexpected exit code for sentinel: %d", code)
	}
}
