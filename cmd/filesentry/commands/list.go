package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/filesentry/internal/app"
)

func (c *CLI) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [path]",
		Short: "List the files a watch of path would track",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			noRecurse, _ := cmd.Flags().GetBool("no-recurse")

			return c.app.List(cmd.Context(), app.ListOptions{
				Path:      path,
				NoRecurse: noRecurse,
				Ignore:    ignoreOptions(cmd),
			})
		},
	}
	cmd.Flags().Bool("no-recurse", false, "Only list the direct children of path")
	addIgnoreFlags(cmd)
	return cmd
}
