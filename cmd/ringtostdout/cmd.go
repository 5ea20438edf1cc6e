package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/danmuck/ringlink/internal/cli"
	"github.com/danmuck/ringlink/internal/client"
	"github.com/danmuck/ringlink/internal/config"
	"github.com/danmuck/ringlink/internal/logging"
	"github.com/danmuck/ringlink/internal/observability"
	"github.com/danmuck/ringlink/internal/proctitle"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const appName = "ringtostdout"

func execute(args []string) int {
	return cli.Execute(newRootCmd(os.Stdout), args)
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName + " --ring NAME",
		Short: "Stream a shared-memory ring to stdout",
		Long: `Attach to a ring as a consumer, register the slot with the ring master found
through the port manager, and copy everything the producer writes to stdout.

The command runs until the ring fails, stdout closes or it is signalled.`,
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
	}
	flags := cli.BindClientFlags(cmd.Flags(), true)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		file, err := flags.Resolve(cmd.Flags())
		if err != nil {
			return err
		}
		return run(cmd.Context(), file, stdout)
	}
	return cmd
}

func run(ctx context.Context, file config.File, stdout io.Writer) error {
	logger := logging.Named(appName)
	if err := proctitle.Set(proctitle.Name(appName, file.Client.Comment)); err != nil {
		logger.Debug().Err(err).Msg("set process name")
	}

	c, err := client.AttachConsumer(ctx, file.Client)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn().Err(err).Msg("release attachment")
		}
	}()
	logger.Info().
		Str("ring", c.RingName()).
		Uint32("slot", c.Slot()).
		Str("registrar", c.Registrar()).
		Msg("attached")

	var metricsLn net.Listener
	if file.MetricsAddr != "" {
		metricsLn, err = net.Listen("tcp", file.MetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listen %s: %w", file.MetricsAddr, err)
		}
		logger.Info().Str("addr", metricsLn.Addr().String()).Msg("metrics listening")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Stream(gctx, stdout) })
	if metricsLn != nil {
		router := observability.NewRouter(observability.RouterConfig{
			App:    appName,
			Logger: logger,
			Status: func() gin.H {
				return gin.H{"ring": c.RingName(), "slot": c.Slot(), "registrar": c.Registrar()}
			},
			CORSOrigins: file.MetricsCORSOrigins,
		})
		g.Go(func() error { return observability.Serve(gctx, metricsLn, router) })
	}
	return g.Wait()
}
