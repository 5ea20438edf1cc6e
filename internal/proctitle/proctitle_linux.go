//go:build linux

package proctitle

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Set renames the calling thread. ps and top report the main thread's name,
// so callers must run on it: lock the main goroutine with runtime.LockOSThread
// from an init function.
func Set(name string) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	buf, err := unix.BytePtrFromString(truncate(name))
	if err != nil {
		return fmt.Errorf("proctitle: %w", err)
	}
	if err := unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(buf)), 0, 0, 0); err != nil {
		return fmt.Errorf("proctitle: prctl: %w", err)
	}
	return nil
}
