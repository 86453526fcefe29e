package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/filesentry/internal/app"
	"go.trai.ch/filesentry/internal/core/domain"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Watch directories and print settled changes",
		Long: "Watch directories and print settled changes.\n\n" +
			"Without paths the roots are read from " + domain.DefaultConfigFile + " or the file given by --config.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			noRecurse, _ := cmd.Flags().GetBool("no-recurse")
			settle, _ := cmd.Flags().GetDuration("settle")
			maxDelay, _ := cmd.Flags().GetDuration("max-delay")
			asJSON, _ := cmd.Flags().GetBool("json")
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
			verbose, _ := cmd.Flags().GetBool("verbose")

			return c.app.Watch(cmd.Context(), app.WatchOptions{
				Paths:       args,
				ConfigPath:  configPath,
				NoRecurse:   noRecurse,
				Ignore:      ignoreOptions(cmd),
				Settle:      settle,
				MaxDelay:    maxDelay,
				JSON:        asJSON,
				MetricsAddr: metricsAddr,
				Trace:       verbose,
			})
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to a watch configuration file")
	cmd.Flags().Bool("no-recurse", false, "Only watch the direct children of each path")
	cmd.Flags().Duration("settle", 0, "Quiet period before changes are reported (default 200ms)")
	cmd.Flags().Duration("max-delay", 0, "Upper bound on how long changes may be held back")
	cmd.Flags().Bool("json", false, "Print one JSON object per event")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
	addIgnoreFlags(cmd)
	return cmd
}

func addIgnoreFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("hidden", "H", false, "Include hidden files and directories")
	cmd.Flags().Bool("no-ignore", false, "Do not read .gitignore and .ignore files")
	cmd.Flags().StringArrayP("ignore", "i", nil, "Additional gitignore-style pattern to exclude (repeatable)")
}

func ignoreOptions(cmd *cobra.Command) domain.IgnoreOptions {
	hidden, _ := cmd.Flags().GetBool("hidden")
	noIgnore, _ := cmd.Flags().GetBool("no-ignore")
	patterns, _ := cmd.Flags().GetStringArray("ignore")
	if len(patterns) == 0 {
		patterns = nil
	}
	return domain.IgnoreOptions{
		Hidden:   hidden,
		NoIgnore: noIgnore,
		Patterns: patterns,
	}
}
