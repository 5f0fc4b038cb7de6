// Package cli holds the command tree for the dashboard binary.
//
//	gh-dashboard [serve]          start the HTTP server (default)
//	gh-dashboard fetch octocat    aggregate one profile and print it
//
// Both commands load the same layered configuration and build the same
// service graph, so `fetch` is a faithful way to reproduce what the server
// would return for a username.
package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/gh-profile-dashboard/internal/config"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions are the flags every subcommand sees.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "gh-dashboard",
		Short:        "Caching proxy in front of the GitHub and contributions APIs",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv(config.EnvConfigFile),
		"YAML config file (optional; env vars override it)")

	cmd.AddCommand(serveCmd(opts))
	cmd.AddCommand(fetchCmd(opts))
	return cmd
}

// loadConfig loads the configuration and builds the logger it describes.
func (o *rootOptions) loadConfig(logOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg, logOut)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newLogger builds a slog.Logger from the log section: a text handler by
// default, JSON when log.format is "json".
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), nil
}
