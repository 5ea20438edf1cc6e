//go:build linux

package proctitle

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/sys/unix"
)

func TestSetRenamesCallingThread(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tid := strconv.Itoa(unix.Gettid())
	path := "/proc/self/task/" + tid + "/comm"
	before, err := os.ReadFile(path)
	if err != nil {
		t.Skipf("thread comm unavailable: %v", err)
	}
	defer func() { _ = Set(strings.TrimSpace(string(before))) }()

	want := Name("ringtostdout", "sock to host spdaq42")
	if err := Set(want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read comm: %v", err)
	}
	if strings.TrimSpace(string(got)) != want {
		t.Fatalf("thread name = %q, want %q", strings.TrimSpace(string(got)), want)
	}
}
