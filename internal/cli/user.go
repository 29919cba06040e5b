package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/transdesk/backend/internal/auth"
	"github.com/transdesk/backend/internal/db"
)

func newUserCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage console users",
	}

	var password string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(password) < 6 {
				return errors.New("password must be at least 6 characters")
			}
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			id, err := database.CreateUser(args[0], hash)
			if errors.Is(err, db.ErrConflict) {
				return fmt.Errorf("user %s already exists", args[0])
			}
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", args[0], id)
			return nil
		},
	}
	add.Flags().StringVar(&password, "password", "", "password (at least 6 characters)")
	add.MarkFlagRequired("password")

	cmd.AddCommand(add)
	return cmd
}
