// Package commands implements the CLI commands for filesentry.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/filesentry/internal/app"
	"go.trai.ch/filesentry/internal/build"
	"go.trai.ch/filesentry/internal/core/domain"
)

// CLI represents the command line interface for filesentry.
type CLI struct {
	app      Application
	rootCmd  *cobra.Command
	closeLog func() error
}

// Application represents the application logic interface.
type Application interface {
	Watch(ctx context.Context, opts app.WatchOptions) error
	List(ctx context.Context, opts app.ListOptions) error
	ConfigureLogging(opts app.LogOptions) func() error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "filesentry",
		Short:         "A reliable file change observer",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log at debug level and trace engine operations")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to a rotated file instead of stderr")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		c.configureLogging(cmd)
	}

	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

func (c *CLI) configureLogging(cmd *cobra.Command) {
	levelName, _ := cmd.Flags().GetString("log-level")
	verbose, _ := cmd.Flags().GetBool("verbose")
	asJSON, _ := cmd.Flags().GetBool("log-json")
	file, _ := cmd.Flags().GetString("log-file")

	level := domain.ParseLogLevel(levelName)
	if verbose {
		level = domain.LogLevelDebug
	}

	c.closeLog = c.app.ConfigureLogging(app.LogOptions{
		Level: level,
		JSON:  asJSON,
		File:  file,
	})
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	err := c.rootCmd.Execute()
	if c.closeLog != nil {
		_ = c.closeLog()
	}
	return err
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
