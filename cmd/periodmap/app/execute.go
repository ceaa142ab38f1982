package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/periodmap/internal/config"
	"github.com/agentstation/periodmap/pkg/errors"
	"github.com/agentstation/periodmap/pkg/logging"
)

// globalFlags are the persistent flags of the root command.
type globalFlags struct {
	configFile string
	verbose    bool
	quiet      bool
	noColor    bool
	format     string
	logLevel   string
}

// Execute runs the periodmap CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "periodmap",
		Short:   "Period document discovery CLI",
		Version: a.version,
		Long: `Periodmap discovers the monthly documents published on a listing page,
reconciles them with pre-captured static snapshots and tracks which
periods are already known.

The commands are a debugging surface over the library: they print what a
discovery pass found, which periods are new, and which are still missing.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupCommand(cmd, flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "discovery",
		Title: "Discovery Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "reconcile",
		Title: "Reconciliation Commands:",
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default is ./periodmap.yaml)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	pf.StringVarP(&flags.format, "format", "o", "", "output format: table, json, yaml, wide")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.SetVersionTemplate("periodmap {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, flags *globalFlags) error {
	// An explicit config file replaces the configuration loaded at startup
	if flags.configFile != "" {
		cfg, err := config.Load(flags.configFile)
		if err != nil {
			return errors.WrapResource("load", "config", flags.configFile, err)
		}
		a.config = cfg
	}

	a.config.UpdateFromFlags(flags.verbose, flags.quiet, flags.noColor, flags.format, flags.logLevel)

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))

	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Discovery commands
	rootCmd.AddCommand(a.NewDiscoverCommand())
	rootCmd.AddCommand(a.NewNewCommand())
	rootCmd.AddCommand(a.NewKnownCommand())

	// Reconciliation commands
	rootCmd.AddCommand(a.NewLinksCommand())
	rootCmd.AddCommand(a.NewCoverageCommand())
	rootCmd.AddCommand(a.NewGapsCommand())
	rootCmd.AddCommand(a.NewExportCommand())

	// Utility commands
	rootCmd.AddCommand(a.NewVersionCommand())
}

// ExitOnError is a helper that prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
