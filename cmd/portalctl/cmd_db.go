package main

import (
	"fmt"

	"github.com/naccer/portal/backend/internal/models"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Connect, migrate and print table counts",
	RunE:  runDBCheck,
}

func init() {
	dbCmd.AddCommand(dbCheckCmd)
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	cfg, db, err := openEnv()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(cmd.Context()); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Driver: %s\n", cfg.Database.Driver)
	tables := []struct {
		name  string
		model interface{}
	}{
		{"users", &models.User{}},
		{"proposals", &models.Proposal{}},
		{"proposal_staff_assignments", &models.StaffAssignment{}},
		{"proposal_feedback", &models.FeedbackEntry{}},
		{"collaboration_invitations", &models.Invitation{}},
		{"system_logs", &models.SystemLog{}},
	}
	for _, t := range tables {
		var n int64
		if err := db.WithContext(cmd.Context()).Model(t.model).Count(&n).Error; err != nil {
			return fmt.Errorf("count %s: %w", t.name, err)
		}
		fmt.Fprintf(out, "%-28s %d\n", t.name, n)
	}
	return nil
}
