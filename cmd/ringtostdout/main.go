package main

import (
	"os"
	"runtime"
)

// The process name is set on the main thread; keep main on it.
func init() { runtime.LockOSThread() }

func main() {
	os.Exit(execute(os.Args[1:]))
}
