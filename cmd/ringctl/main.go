package main

import (
	"os"

	"github.com/danmuck/ringlink/internal/cli"
)

func main() {
	os.Exit(cli.Execute(newRootCmd(), os.Args[1:]))
}
