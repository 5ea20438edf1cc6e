package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/ringlink/internal/errkind"
	"github.com/danmuck/ringlink/internal/logging"
	"github.com/spf13/cobra"
)

// Execute runs root with args under a signal-aware context and maps the
// outcome to a process exit status.
func Execute(root *cobra.Command, args []string) int {
	logging.ConfigureRuntime()
	logger := logging.Named(root.Name())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.Info().Msg("interrupted")
	} else {
		ev := logger.Error().Err(err).Str("kind", errkind.KindOf(err).String())
		if detail := errkind.DetailOf(err); detail != "" {
			ev = ev.Str("reply", detail)
		}
		ev.Msg("exiting")
	}
	return errkind.ExitCode(err)
}
