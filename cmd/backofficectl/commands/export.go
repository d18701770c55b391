package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/spec-kit/backoffice/internal/service"
)

var (
	exportAs              string
	exportOut             string
	exportIncludeArchived bool
)

var exportDealsCmd = &cobra.Command{
	Use:   "export-deals",
	Short: "Write the deal pipeline as CSV",
	Long: `Export deals as CSV on behalf of an existing account. The account's role
must allow viewing deals and the export is recorded in the audit log.

Examples:
  backofficectl export-deals --as ana@example.com --out deals.csv
  backofficectl export-deals --as ana@example.com --include-archived > all.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		user, err := b.repos.Users.GetByEmail(cmd.Context(), exportAs)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("no account with email %s", exportAs)
		}
		if err != nil {
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			file, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer file.Close()
			out = file
		}

		count, err := b.services.Deals.Export(cmd.Context(), service.Actor{User: user}, out, exportIncludeArchived)
		if err != nil {
			return err
		}
		cmd.PrintErrf("exported %d deals\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportDealsCmd)

	exportDealsCmd.Flags().StringVar(&exportAs, "as", "", "Email of the account performing the export")
	exportDealsCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (stdout when empty)")
	exportDealsCmd.Flags().BoolVar(&exportIncludeArchived, "include-archived", false, "Include archived deals")
	_ = exportDealsCmd.MarkFlagRequired("as")
}
