package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqlbridge/sqlbridge"
)

// parseParams turns repeated key=value flags into query parameters.
func parseParams(pairs []string) (sqlbridge.Params, error) {
	params := sqlbridge.Params{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}

// NewQueryCmd builds the `query` command: run a SELECT and print the
// mapped rows as JSON lines.
func NewQueryCmd() *cobra.Command {
	var paramFlags []string

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Execute a query and print mapped rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(paramFlags)
			if err != nil {
				return err
			}
			ds, _, err := openDataSource(cmd)
			if err != nil {
				return err
			}
			defer ds.Close()

			return ds.WithSession(cmd.Context(), func(s *sqlbridge.Session) error {
				result, err := s.Select(cmd.Context(), args[0], params)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				for _, row := range result.Map() {
					if err := enc.Encode(row); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&paramFlags, "param", nil, "Named parameter as key=value (repeatable)")
	return cmd
}

// NewExecCmd builds the `exec` command: run a statement and commit.
func NewExecCmd() *cobra.Command {
	var paramFlags []string

	cmd := &cobra.Command{
		Use:   "exec <sql>",
		Short: "Execute a statement and commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(paramFlags)
			if err != nil {
				return err
			}
			ds, _, err := openDataSource(cmd)
			if err != nil {
				return err
			}
			defer ds.Close()

			return ds.WithSession(cmd.Context(), func(s *sqlbridge.Session) error {
				return s.Execute(cmd.Context(), args[0], params)
			})
		},
	}

	cmd.Flags().StringArrayVar(&paramFlags, "param", nil, "Named parameter as key=value (repeatable)")
	return cmd
}

// NewPingCmd builds the `ping` command.
func NewPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Verify the database is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := openDataSource(cmd)
			if err != nil {
				return err
			}
			defer ds.Close()

			if err := ds.Ping(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("ok")
			return nil
		},
	}
}
