package commands

import (
	"github.com/spf13/cobra"

	"github.com/spec-kit/backoffice/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply SQL migrations",
	Long: `Apply every .sql file in the migrations directory in lexical order.
Statements are idempotent, so the command can be rerun safely.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()
		if err := persistence.RunMigrations(cmd.Context(), b.pg.PoolHandle(), b.cfg.Postgres.MigrationsDir, b.logger); err != nil {
			return err
		}
		cmd.Println("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
