package cli

import (
	"encoding/json"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sakif/gh-profile-dashboard/internal/metrics"
	"github.com/sakif/gh-profile-dashboard/internal/server"
)

func fetchCmd(opts *rootOptions) *cobra.Command {
	var summary bool

	c := &cobra.Command{
		Use:   "fetch <username>",
		Short: "Aggregate one GitHub profile and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Logs go to stderr so stdout stays pipeable into jq.
			cfg, logger, err := opts.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			// Collectors are required by the service graph but never scraped here.
			svcs := server.NewServices(cfg, logger, metrics.New(prometheus.NewRegistry()))

			var out any
			if summary {
				out, err = svcs.Profiles.GetSummary(cmd.Context(), args[0])
			} else {
				out, err = svcs.Profiles.GetProfile(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	c.Flags().BoolVar(&summary, "summary", false, "Print the derived dashboard view instead of the raw documents")
	return c
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
