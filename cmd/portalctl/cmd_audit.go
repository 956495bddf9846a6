package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/naccer/portal/backend/internal/services"
	"github.com/spf13/cobra"
)

var (
	auditModule string
	auditLevel  string
	auditLimit  int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Read or prune the audit log",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent audit records",
	RunE:  runAuditList,
}

var auditCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete records older than audit.retention_days",
	RunE:  runAuditCleanup,
}

func init() {
	auditListCmd.Flags().StringVar(&auditModule, "module", "", "Filter by module")
	auditListCmd.Flags().StringVar(&auditLevel, "level", "", "Filter by level")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 20, "Maximum rows to show (max 100)")
	auditCmd.AddCommand(auditListCmd, auditCleanupCmd)
}

func runAuditList(cmd *cobra.Command, args []string) error {
	_, db, err := openEnv()
	if err != nil {
		return err
	}

	res, err := services.NewSystemLogService(db).List(cmd.Context(), &services.SystemLogListRequest{
		Page:     1,
		PageSize: auditLimit,
		Module:   auditModule,
		Level:    auditLevel,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tLEVEL\tMODULE\tACTION\tMESSAGE")
	for _, l := range res.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.CreatedAt.Format("2006-01-02 15:04:05"), l.Level, l.Module, l.Action, l.Message)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d records\n", len(res.Items), res.Total)
	return nil
}

func runAuditCleanup(cmd *cobra.Command, args []string) error {
	cfg, db, err := openEnv()
	if err != nil {
		return err
	}
	deleted, err := services.NewSystemLogService(db).CleanupOldLogs(cmd.Context(), cfg.Audit.RetentionDays)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d records older than %d days\n", deleted, cfg.Audit.RetentionDays)
	return nil
}
