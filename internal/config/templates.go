package config

import (
	"fmt"
	"os"

	"github.com/danmuck/ringlink/internal/client"
	"github.com/pelletier/go-toml/v2"
)

// Template renders the defaults as a config file.
func Template() (string, error) {
	def := client.DefaultConfig()
	raw := fileConfig{
		Directory: def.Directory,
		Portman: portmanSection{
			Host:        def.Portman.Host,
			Port:        int(def.Portman.Port),
			DialTimeout: def.Portman.DialTimeout.String(),
			IOTimeout:   def.Portman.IOTimeout.String(),
		},
		Registrar: registrarSection{
			ConnectTimeout:   def.Registrar.ConnectTimeout.String(),
			HandshakeTimeout: def.Registrar.HandshakeTimeout.String(),
			AcceptReplies:    def.Registrar.AcceptReplies,
		},
		Forward: forwardSection{
			ChunkSize:   def.Forward.ChunkSize,
			PollTimeout: def.Forward.PollTimeout.String(),
		},
	}
	out, err := toml.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("render config template: %w", err)
	}
	return string(out), nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
