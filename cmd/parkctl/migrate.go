package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/soulparking/dashboard/internal/db"
)

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run the database migrations by hand",
		Long: `Every command opens the database with pending migrations applied.
migrate runs them explicitly against --db, which also works for the
server's database file.`,
	}

	run := func(use, short string, step func(*db.Migrator) (bool, error), done string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := db.OpenMigrator(e.dbPath)
				if err != nil {
					return err
				}
				defer m.Close()

				changed, err := step(m)
				if err != nil {
					return fmt.Errorf("migrate %s: %w", use, err)
				}
				out := cmd.OutOrStdout()
				if !changed {
					fmt.Fprintln(out, "No change")
					return nil
				}
				color.New(color.FgGreen).Fprintln(out, done)
				return nil
			},
		}
	}

	cmd.AddCommand(
		run("up", "Apply every pending migration", (*db.Migrator).Up, "Migrated up"),
		run("down", "Roll back the latest migration", (*db.Migrator).Down, "Rolled back one migration"),
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := db.OpenMigrator(e.dbPath)
				if err != nil {
					return err
				}
				defer m.Close()

				version, dirty, err := m.Version()
				if err != nil {
					return fmt.Errorf("migrate version: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Current version: %d, dirty: %v\n", version, dirty)
				return nil
			},
		},
	)
	return cmd
}
