package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/gh-profile-dashboard/internal/server"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	srv, err := prepareServe(cmd, opts)
	if err != nil {
		return err
	}
	return srv.Start()
}

// prepareServe loads configuration and builds the server without listening.
// Logs go to the command's output stream.
func prepareServe(cmd *cobra.Command, opts *rootOptions) (*server.Server, error) {
	cfg, logger, err := opts.loadConfig(cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("addr", cfg.Addr()))

	return server.New(cfg, logger), nil
}
