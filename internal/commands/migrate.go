package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// Migrator applies and inspects schema migrations.
type Migrator interface {
	RunMigrations() error
	RollbackMigrations(steps int) error
	MigrationVersion() (uint, bool, error)
}

// MigratorOpener connects a Migrator. The returned func releases it.
type MigratorOpener func() (Migrator, func(), error)

func newMigrateCommand(open MigratorOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withMigrator(open, func(m Migrator) error { return m.RunMigrations() })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [N]",
		Short: "Revert the last N migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				steps = n
			}
			return withMigrator(open, func(m Migrator) error { return m.RollbackMigrations(steps) })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return withMigrator(open, func(m Migrator) error {
				version, dirty, err := m.MigrationVersion()
				if err != nil {
					return err
				}
				return printJSON(c.OutOrStdout(), map[string]any{"version": version, "dirty": dirty})
			})
		},
	})

	return cmd
}

func withMigrator(open MigratorOpener, fn func(Migrator) error) error {
	m, release, err := open()
	if err != nil {
		return err
	}
	defer release()
	return fn(m)
}
