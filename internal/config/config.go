package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/ringlink/internal/client"
	"github.com/danmuck/ringlink/internal/ringmaster"
)

// File is a parsed client config file.
type File struct {
	Client             client.Config
	MetricsAddr        string
	MetricsCORSOrigins []string
}

// fileConfig is the on-disk layout. Durations are Go duration strings.
type fileConfig struct {
	Directory   string           `toml:"directory"`
	Ring        string           `toml:"ring"`
	Comment     string           `toml:"comment"`
	MetricsAddr string           `toml:"metrics_addr"`
	MetricsCORS []string         `toml:"metrics_cors_origins"`
	Portman     portmanSection   `toml:"portman"`
	Registrar   registrarSection `toml:"registrar"`
	Forward     forwardSection   `toml:"forward"`
}

type portmanSection struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	DialTimeout string `toml:"dial_timeout"`
	IOTimeout   string `toml:"io_timeout"`
}

type registrarSection struct {
	ConnectTimeout   string   `toml:"connect_timeout"`
	HandshakeTimeout string   `toml:"handshake_timeout"`
	AcceptReplies    []string `toml:"accept_replies"`
}

type forwardSection struct {
	ChunkSize   int    `toml:"chunk_size"`
	PollTimeout string `toml:"poll_timeout"`
}

// Load reads path and applies every key it defines on top of
// client.DefaultConfig. Unknown keys are rejected.
func Load(path string) (File, error) {
	out := File{Client: client.DefaultConfig()}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return File{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return File{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	cfg := &out.Client
	if meta.IsDefined("directory") {
		cfg.Directory = strings.TrimSpace(raw.Directory)
	}
	if meta.IsDefined("ring") {
		cfg.Ring = strings.TrimSpace(raw.Ring)
	}
	if meta.IsDefined("comment") {
		cfg.Comment = raw.Comment
	}
	if meta.IsDefined("metrics_addr") {
		out.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("metrics_cors_origins") {
		out.MetricsCORSOrigins = normalizeTokens(raw.MetricsCORS)
	}

	if meta.IsDefined("portman", "host") {
		cfg.Portman.Host = strings.TrimSpace(raw.Portman.Host)
	}
	if meta.IsDefined("portman", "port") {
		if raw.Portman.Port <= 0 || raw.Portman.Port > 65535 {
			return File{}, fmt.Errorf("portman.port out of range: %d", raw.Portman.Port)
		}
		cfg.Portman.Port = uint16(raw.Portman.Port)
	}
	if err := setDuration(meta, &cfg.Portman.DialTimeout, raw.Portman.DialTimeout, "portman", "dial_timeout"); err != nil {
		return File{}, err
	}
	if err := setDuration(meta, &cfg.Portman.IOTimeout, raw.Portman.IOTimeout, "portman", "io_timeout"); err != nil {
		return File{}, err
	}

	if err := setDuration(meta, &cfg.Registrar.ConnectTimeout, raw.Registrar.ConnectTimeout, "registrar", "connect_timeout"); err != nil {
		return File{}, err
	}
	if err := setDuration(meta, &cfg.Registrar.HandshakeTimeout, raw.Registrar.HandshakeTimeout, "registrar", "handshake_timeout"); err != nil {
		return File{}, err
	}
	if meta.IsDefined("registrar", "accept_replies") {
		cfg.Registrar.AcceptReplies = normalizeTokens(raw.Registrar.AcceptReplies)
	}

	if meta.IsDefined("forward", "chunk_size") {
		cfg.Forward.ChunkSize = raw.Forward.ChunkSize
	}
	if err := setDuration(meta, &cfg.Forward.PollTimeout, raw.Forward.PollTimeout, "forward", "poll_timeout"); err != nil {
		return File{}, err
	}

	if err := Validate(out); err != nil {
		return File{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return out, nil
}

func setDuration(meta toml.MetaData, dst *time.Duration, raw string, key ...string) error {
	if !meta.IsDefined(key...) {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse %s: %w", strings.Join(key, "."), err)
	}
	*dst = d
	return nil
}

// Validate checks a config that may still lack a ring name; the ring can be
// supplied later on the command line.
func Validate(f File) error {
	cfg := f.Client
	if strings.TrimSpace(cfg.Directory) == "" {
		return fmt.Errorf("directory is required")
	}
	if strings.ContainsAny(cfg.Ring, "/\\") {
		return fmt.Errorf("ring must be a file name, got %q", cfg.Ring)
	}
	if cfg.Ring != "" {
		if err := ringmaster.CheckRingName(cfg.Ring); err != nil {
			return err
		}
	}
	if cfg.Portman.Port == 0 {
		return fmt.Errorf("portman.port is required")
	}
	if cfg.Forward.ChunkSize <= 0 {
		return fmt.Errorf("forward.chunk_size must be positive")
	}
	if cfg.Forward.PollTimeout <= 0 {
		return fmt.Errorf("forward.poll_timeout must be positive")
	}
	if len(cfg.Registrar.AcceptReplies) == 0 {
		return fmt.Errorf("registrar.accept_replies must not be empty")
	}
	return nil
}

func normalizeTokens(in []string) []string {
	out := make([]string, 0, len(in))
	for _, tok := range in {
		if v := strings.TrimSpace(tok); v != "" {
			out = append(out, v)
		}
	}
	return out
}
