package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	ownerEmail    string
	ownerName     string
	ownerPassword string
)

var createOwnerCmd = &cobra.Command{
	Use:   "create-owner",
	Short: "Bootstrap the first owner account",
	Long: `Create the initial owner account. Fails once an active owner exists;
further accounts are managed through the API.

Examples:
  backofficectl create-owner --email ana@example.com --name "Ana" --password s3cret-pass`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()
		user, err := b.services.Users.BootstrapOwner(cmd.Context(), ownerEmail, ownerName, ownerPassword)
		if err != nil {
			return err
		}
		cmd.Printf("owner %s created (%s)\n", user.Email, user.ID)
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()
		users, err := b.repos.Users.List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "EMAIL\tNAME\tROLE\tACTIVE\tLAST LOGIN")
		for _, user := range users {
			lastLogin := "-"
			if user.LastLoginAt != nil {
				lastLogin = user.LastLoginAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", user.Email, user.Name, user.Role, user.Active, lastLogin)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(createOwnerCmd, usersCmd)

	createOwnerCmd.Flags().StringVar(&ownerEmail, "email", "", "Owner email")
	createOwnerCmd.Flags().StringVar(&ownerName, "name", "", "Owner display name")
	createOwnerCmd.Flags().StringVar(&ownerPassword, "password", "", "Owner password")
	_ = createOwnerCmd.MarkFlagRequired("email")
	_ = createOwnerCmd.MarkFlagRequired("password")
}
