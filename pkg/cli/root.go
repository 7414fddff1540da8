package cli

import (
	"log/slog"
	"os"

	phuslog "github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/sqlbridge/sqlbridge"
	"github.com/sqlbridge/sqlbridge/pkg/config"
)

func version() string {
	return "v0.1.0"
}

// newLogger builds the CLI logger: phuslu's JSON handler at debug
// level when verbose, otherwise info.
func newLogger(verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	return slog.New(phuslog.SlogNewJSONHandler(os.Stderr, opts))
}

// openDataSource loads the config named by the persistent --config
// flag and initializes a data source from it.
func openDataSource(cmd *cobra.Command) (*sqlbridge.DataSource, *slog.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(verbose)
	ds := sqlbridge.New(logger)
	if err := ds.Init(*cfg); err != nil {
		return nil, nil, err
	}
	return ds, logger, nil
}

// NewVersionCmd builds the `version` command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version())
		},
	}
}

// NewRootCmd builds the top–level `sqlbridge` command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sqlbridge",
		Short:        "sqlbridge — sessions, queries and migrations over a connection pool",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "sqlbridge.toml", "Config file path")
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	root.AddCommand(NewQueryCmd())
	root.AddCommand(NewExecCmd())
	root.AddCommand(NewPingCmd())
	root.AddCommand(NewMigrateCmd())
	root.AddCommand(NewVersionCmd())
	return root
}
