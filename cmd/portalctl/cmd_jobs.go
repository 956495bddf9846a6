package main

import (
	"fmt"

	"github.com/naccer/portal/backend/internal/services"
	"github.com/spf13/cobra"
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Staff assignment reminders",
}

var remindersRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Send due assignment reminders now",
	Long: `Runs one reminder pass immediately. The pass honours the holiday
calendar and the daily lock, so it is safe to run next to a server.`,
	RunE: runReminders,
}

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Email transport tools",
}

var emailTestCmd = &cobra.Command{
	Use:   "test <to>",
	Short: "Send a welcome email through the configured transport",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmailTest,
}

func init() {
	remindersCmd.AddCommand(remindersRunCmd)
	emailCmd.AddCommand(emailTestCmd)
}

func runReminders(cmd *cobra.Command, args []string) error {
	cfg, db, err := openEnv()
	if err != nil {
		return err
	}
	notifier := services.NewNotificationService(services.NewMailTransport(&cfg.Email), cfg.Server.ClientURL, nil)
	scheduler := services.NewScheduler(db, cfg, notifier, services.NewSystemLogService(db), nil)

	run, err := scheduler.SendReminders(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if run.Skipped {
		fmt.Fprintf(out, "Skipped (%s)\n", run.Reason)
		return nil
	}
	fmt.Fprintf(out, "Due: %d, sent: %d, failed: %d\n", run.Due, run.Sent, run.Failed)
	return nil
}

func runEmailTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	notifier := services.NewNotificationService(services.NewMailTransport(&cfg.Email), cfg.Server.ClientURL, nil)

	res := notifier.Deliver(cmd.Context(), &services.Notification{
		Template: services.TemplateWelcome,
		To:       args[0],
		Data:     map[string]string{"Name": "Portal Operator", "Role": "user"},
	})
	if !res.Success {
		return fmt.Errorf("delivery failed (%s): %s", res.Mode, res.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent to %s via %s (id %s)\n", args[0], res.Mode, res.MessageID)
	return nil
}
