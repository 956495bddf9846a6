package main

import (
	"fmt"

	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/internal/services"
	"github.com/spf13/cobra"
)

type seedAccount struct {
	Name       string
	Email      string
	Password   string
	Role       models.Role
	Department string
	Expertise  []string
}

// demoAccounts are the well-known test logins used by the web client.
var demoAccounts = []seedAccount{
	{"John Researcher", "user@test.com", "password123", models.RoleUser, "Computer Science", []string{"AI", "Machine Learning", "Data Science"}},
	{"Dr. Sarah Reviewer", "reviewer@test.com", "password123", models.RoleReviewer, "Research Administration", []string{"AI Review", "Healthcare Tech", "Innovation Management"}},
	{"Alex Research Staff", "staff@test.com", "password123", models.RoleStaff, "Research Support", []string{"Technical Analysis", "Research Methodology", "Data Analysis"}},
	{"Dr. Senior Reviewer", "admin@test.com", "admin123", models.RoleReviewer, "Administration", []string{"Policy Review", "Budget Analysis", "Strategic Planning"}},
	{"Jane User", "jane@test.com", "password123", models.RoleUser, "Biomedical Engineering", []string{"Healthcare", "Medical Devices", "Biotechnology"}},
	{"Bob Staff Member", "bob@test.com", "password123", models.RoleStaff, "Technical Research", []string{"Software Development", "System Architecture", "Cloud Computing"}},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo accounts that do not exist yet",
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, db, err := openEnv()
	if err != nil {
		return err
	}
	auth := services.NewAuthService(db, &cfg.JWT, nil)
	out := cmd.OutOrStdout()

	created := 0
	for _, a := range demoAccounts {
		ok, err := auth.SeedUser(cmd.Context(), a.Name, a.Email, a.Password, a.Role, a.Department, a.Expertise)
		if err != nil {
			return fmt.Errorf("seed %s: %w", a.Email, err)
		}
		state := "exists"
		if ok {
			state = "created"
			created++
		}
		fmt.Fprintf(out, "%-8s %-9s %s\n", state, a.Role, a.Email)
	}
	fmt.Fprintf(out, "%d of %d accounts created\n", created, len(demoAccounts))
	return nil
}
