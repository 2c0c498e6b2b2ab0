package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fentz26/hogar/internal/controlplane"
)

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Daily reset of the board",
}

var dayResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Archive finished work and start a new day (admin)",
	RunE:  runDayReset,
}

var dayPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show what a reset would do without saving",
	RunE:  runDayPreview,
}

func init() {
	dayCmd.AddCommand(dayResetCmd, dayPreviewCmd)
}

func printReset(res controlplane.ResetResult) {
	fmt.Printf("Kept:        %d\n", res.Kept)
	fmt.Printf("Dropped:     %d\n", res.Pruned)
	fmt.Printf("Completed:   %d\n", len(res.Completed))
	if res.Replenished > 0 {
		fmt.Printf("Replenished: %d\n", res.Replenished)
	}
}

func runDayReset(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}

	res, err := newClient().ResetDay(context.Background(), user)
	if err != nil {
		return err
	}

	fmt.Printf("%s New day started\n", color.GreenString("✓"))
	printReset(res)
	fmt.Printf("Archived:    %d\n", res.Archived)
	if res.Warning != "" {
		color.Yellow("Warning: %s", res.Warning)
	}
	return nil
}

func runDayPreview(cmd *cobra.Command, args []string) error {
	res, err := newClient().PreviewReset(context.Background())
	if err != nil {
		return err
	}

	fmt.Println("Reset preview (nothing saved)")
	printReset(res)
	for _, t := range res.Completed {
		fmt.Printf("  would archive #%d %s (%s, %s)\n", t.ID, t.Name, t.Owner, t.Timeslot)
	}
	return nil
}
