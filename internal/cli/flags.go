// Package cli holds the flag surface shared by the ring client commands.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/ringlink/internal/client"
	"github.com/danmuck/ringlink/internal/config"
	"github.com/danmuck/ringlink/internal/portman"
	"github.com/spf13/pflag"
)

var (
	ErrRingFlagRequired = errors.New("cli: --ring is required")
	ErrNotDirectory     = errors.New("cli: ring directory is not a readable directory")
)

// ClientFlags binds --directory, --ring, --port, --config and --metrics-addr,
// plus --comment when the command displays one.
type ClientFlags struct {
	Directory   string
	Ring        string
	Port        uint16
	Comment     string
	ConfigPath  string
	MetricsAddr string
}

func BindClientFlags(fs *pflag.FlagSet, withComment bool) *ClientFlags {
	f := &ClientFlags{}
	fs.StringVarP(&f.Directory, "directory", "d", client.DefaultDirectory, "directory holding ring files")
	fs.StringVarP(&f.Ring, "ring", "r", "", "ring name (file name inside --directory)")
	fs.Uint16VarP(&f.Port, "port", "p", portman.DefaultPort, "port manager port")
	fs.StringVar(&f.ConfigPath, "config", "", "TOML config file; flags override its values")
	fs.StringVar(&f.MetricsAddr, "metrics-addr", "", "serve /health and /metrics on this address")
	if withComment {
		fs.StringVarP(&f.Comment, "comment", "c", "", "comment shown in the process name")
	}
	return f
}

// Resolve merges the config file (if any) with the flags the user set and
// checks the result is attachable.
func (f *ClientFlags) Resolve(fs *pflag.FlagSet) (config.File, error) {
	out := config.File{Client: client.DefaultConfig()}
	if path := strings.TrimSpace(f.ConfigPath); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.File{}, err
		}
		out = loaded
	}

	if fs.Changed("directory") || f.ConfigPath == "" {
		out.Client.Directory = f.Directory
	}
	if fs.Changed("ring") {
		out.Client.Ring = strings.TrimSpace(f.Ring)
	}
	if fs.Changed("port") {
		out.Client.Portman.Port = f.Port
	}
	if fs.Changed("comment") {
		out.Client.Comment = f.Comment
	}
	if fs.Changed("metrics-addr") {
		out.MetricsAddr = strings.TrimSpace(f.MetricsAddr)
	}

	if out.Client.Ring == "" {
		return config.File{}, ErrRingFlagRequired
	}
	if err := config.Validate(out); err != nil {
		return config.File{}, err
	}
	if err := readableDir(out.Client.Directory); err != nil {
		return config.File{}, err
	}
	return out, nil
}

func readableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotDirectory, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}
	d, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotDirectory, path, err)
	}
	return d.Close()
}
