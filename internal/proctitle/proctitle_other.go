//go:build !linux

package proctitle

// Set is a no-op where the platform offers no process rename.
func Set(string) error {
	return nil
}
