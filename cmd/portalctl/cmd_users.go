package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/internal/services"
	"github.com/naccer/portal/backend/internal/store"
	"github.com/spf13/cobra"
)

var usersRole string

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List accounts and toggle activation",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts, optionally by role",
	RunE:  runUsersList,
}

var usersActivateCmd = &cobra.Command{
	Use:   "activate <email>",
	Short: "Reactivate an account",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setActive(cmd, args[0], true) },
}

var usersDeactivateCmd = &cobra.Command{
	Use:   "deactivate <email>",
	Short: "Deactivate an account and revoke its sessions",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setActive(cmd, args[0], false) },
}

func init() {
	usersListCmd.Flags().StringVar(&usersRole, "role", "", "Filter by role (user, reviewer, staff)")
	usersCmd.AddCommand(usersListCmd, usersActivateCmd, usersDeactivateCmd)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	_, db, err := openEnv()
	if err != nil {
		return err
	}
	users := store.NewUserStore(db)

	var list []models.User
	if usersRole != "" {
		role := models.Role(usersRole)
		if !role.Valid() {
			return fmt.Errorf("invalid role %q", usersRole)
		}
		list, err = users.ListByRole(cmd.Context(), role)
	} else {
		list, err = users.List(cmd.Context())
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tACTIVE")
	for _, u := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", u.ID, u.Name, u.Email, u.Role, u.IsActive)
	}
	return w.Flush()
}

func setActive(cmd *cobra.Command, email string, active bool) error {
	cfg, db, err := openEnv()
	if err != nil {
		return err
	}
	auth := services.NewAuthService(db, &cfg.JWT, nil)

	user, err := auth.SetActive(cmd.Context(), email, active)
	if err != nil {
		return err
	}
	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", user.Email, state)
	return nil
}
