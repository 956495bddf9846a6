package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/internal/store"
	"github.com/spf13/cobra"
)

var (
	proposalsStatus string
	proposalsLimit  int
)

var proposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "Inspect proposals",
}

var proposalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List proposals, drafts included, newest first",
	RunE:  runProposalsList,
}

func init() {
	proposalsListCmd.Flags().StringVar(&proposalsStatus, "status", "", "Filter by status")
	proposalsListCmd.Flags().IntVar(&proposalsLimit, "limit", 50, "Maximum rows to show")
	proposalsCmd.AddCommand(proposalsListCmd)
}

func runProposalsList(cmd *cobra.Command, args []string) error {
	status := models.ProposalStatus(proposalsStatus)
	if status != "" && !status.Valid() {
		return fmt.Errorf("invalid status %q", proposalsStatus)
	}
	_, db, err := openEnv()
	if err != nil {
		return err
	}

	list, total, err := store.NewProposalStore(db).ListAll(cmd.Context(), store.ProposalFilter{
		Status:   status,
		Page:     1,
		PageSize: proposalsLimit,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tAUTHOR\tSTAFF\tCREATED")
	for _, p := range list {
		author := "-"
		if p.Author != nil {
			author = p.Author.Email
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", p.ID, p.Title, p.Status, author, len(p.AssignedStaff), p.CreatedAt.Format("2006-01-02"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d proposals\n", len(list), total)
	return nil
}
