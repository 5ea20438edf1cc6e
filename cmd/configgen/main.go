package main

import (
	"os"

	"github.com/danmuck/ringlink/internal/cli"
	"github.com/danmuck/ringlink/internal/config"
	"github.com/danmuck/ringlink/internal/logging"
	"github.com/spf13/cobra"
)

const defaultPath = "cmd/ringtostdout/config.toml"

func main() {
	os.Exit(cli.Execute(newRootCmd(), os.Args[1:]))
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "configgen",
		Short:             "Write or validate a ring client config file",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
	}
	output := cmd.Flags().String("output", defaultPath, "output path for config template")
	validate := cmd.Flags().Bool("validate", false, "validate an existing config file")
	input := cmd.Flags().String("input", defaultPath, "config path for validation")
	force := cmd.Flags().Bool("force", false, "overwrite existing config file")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		logger := logging.Named("configgen")
		if *validate {
			if _, err := config.Load(*input); err != nil {
				return err
			}
			logger.Info().Str("path", *input).Msg("validated client config")
			return nil
		}
		if err := config.WriteTemplate(*output, *force); err != nil {
			return err
		}
		logger.Info().Str("path", *output).Msg("wrote client config template")
		return nil
	}
	return cmd
}
