package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/ringlink/internal/cli"
	"github.com/danmuck/ringlink/internal/client"
	"github.com/danmuck/ringlink/internal/config"
	"github.com/danmuck/ringlink/internal/logging"
	"github.com/spf13/cobra"
)

const (
	appName    = "stdintoring"
	readBuffer = 64 * 1024
)

func execute(args []string) int {
	return cli.Execute(newRootCmd(os.Stdin), args)
}

func newRootCmd(stdin io.Reader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName + " --ring NAME",
		Short: "Copy stdin into a shared-memory ring",
		Long: `Attach to a ring as its producer, register with the ring master found through
the port manager, and write stdin into the ring until end of input.`,
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
	}
	flags := cli.BindClientFlags(cmd.Flags(), false)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		file, err := flags.Resolve(cmd.Flags())
		if err != nil {
			return err
		}
		return run(cmd.Context(), file, stdin)
	}
	return cmd
}

func run(ctx context.Context, file config.File, stdin io.Reader) error {
	logger := logging.Named(appName)

	p, err := client.AttachProducer(ctx, file.Client)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warn().Err(err).Msg("release attachment")
		}
	}()
	logger.Info().Str("ring", p.RingName()).Str("registrar", p.Registrar()).Msg("attached")

	total, err := copyInto(ctx, p, stdin)
	logger.Debug().Int64("bytes", total).Msg("input finished")
	return err
}

type putter interface {
	Put(ctx context.Context, data []byte) (int, error)
}

func copyInto(ctx context.Context, dst putter, src io.Reader) (int64, error) {
	buf := make([]byte, readBuffer)
	var total int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			written, err := dst.Put(ctx, buf[:n])
			total += int64(written)
			if err != nil {
				return total, fmt.Errorf("ring put: %w", err)
			}
		}
		if errors.Is(rerr, io.EOF) {
			return total, nil
		}
		if rerr != nil {
			return total, fmt.Errorf("read stdin: %w", rerr)
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
}
