package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danmuck/ringlink/internal/client"
	"github.com/danmuck/ringlink/internal/portman"
	"github.com/danmuck/ringlink/internal/ring"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "ringctl",
		Short:             "Create and inspect shared-memory rings",
		DisableAutoGenTag: true,
	}
	root.PersistentFlags().StringP("directory", "d", client.DefaultDirectory, "directory holding ring files")
	root.AddCommand(newCreateCmd(), newStatusCmd(), newServicesCmd())
	return root
}

func ringPath(cmd *cobra.Command, name string) (string, error) {
	dir, err := cmd.Flags().GetString("directory")
	if err != nil {
		return "", fmt.Errorf("getting directory flag failed: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("ring must be a file name, got %q", name)
	}
	return filepath.Join(dir, name), nil
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create RING",
		Short: "Create an empty ring file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ringPath(cmd, args[0])
			if err != nil {
				return err
			}
			size, err := cmd.Flags().GetUint64("size")
			if err != nil {
				return fmt.Errorf("getting size flag failed: %w", err)
			}
			consumers, err := cmd.Flags().GetUint32("consumers")
			if err != nil {
				return fmt.Errorf("getting consumers flag failed: %w", err)
			}
			r, err := ring.Create(path, size, consumers)
			if err != nil {
				return err
			}
			defer r.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%d data bytes, %d consumer slots)\n", path, r.DataBytes(), r.MaxConsumers())
			return nil
		},
	}
	cmd.Flags().Uint64("size", ring.DefaultDataBytes, "data area size in bytes")
	cmd.Flags().Uint32("consumers", ring.DefaultMaxConsumers, "number of consumer slots")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status RING",
		Short: "Show producer position and consumer slots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ringPath(cmd, args[0])
			if err != nil {
				return err
			}
			r, err := ring.Open(path)
			if err != nil {
				return err
			}
			defer r.Close()
			st, err := r.Status()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(renderStatus(st))
			return err
		},
	}
}

func newServicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "List port manager allocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := portman.DefaultConfig()
			var err error
			if cfg.Host, err = cmd.Flags().GetString("host"); err != nil {
				return fmt.Errorf("getting host flag failed: %w", err)
			}
			if cfg.Port, err = cmd.Flags().GetUint16("port"); err != nil {
				return fmt.Errorf("getting port flag failed: %w", err)
			}
			services, err := portman.NewClient(cfg).List(cmd.Context())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(renderServices(services))
			return err
		},
	}
	cmd.Flags().String("host", portman.DefaultHost, "port manager host")
	cmd.Flags().Uint16P("port", "p", portman.DefaultPort, "port manager port")
	return cmd
}
