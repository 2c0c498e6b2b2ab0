package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show archived completions",
	RunE:  runHistory,
}

var (
	historyOwner string
	historyLimit int
)

func init() {
	historyCmd.Flags().StringVar(&historyOwner, "owner", "", "Only this member (admins only for others)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum entries (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}

	entries, err := newClient().History(context.Background(), user, historyOwner, historyLimit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No archived work found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTASK\tOWNER\tSLOT\tKIND")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.ArchivedAt.Local().Format("2006-01-02 15:04"),
			truncate(e.Name, 30),
			e.Owner,
			e.Timeslot,
			e.Kind)
	}
	w.Flush()
	return nil
}
