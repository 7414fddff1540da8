package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqlbridge/sqlbridge/pkg/migrate"
)

func NewMigrateCmd() *cobra.Command {
	var migrations string

	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Run database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := args[0]
			ds, logger, err := openDataSource(cmd)
			if err != nil {
				return err
			}
			defer ds.Close()

			mgr, err := migrate.NewManager(ds, migrations, logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			switch action {
			case "up":
				return mgr.Up(ctx)
			case "down":
				return mgr.Down(ctx)
			case "status":
				version, err := mgr.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "current version: %d (%d migrations loaded)\n",
					version, len(mgr.Migrations()))
				return nil
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&migrations, "dir", "migrations", "Migrations directory")
	return cmd
}
