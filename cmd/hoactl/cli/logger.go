package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func newQuietLogger(cmd *cobra.Command) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
}
