package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fentz26/hogar/internal/board"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show your progress for today",
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}

	s, err := newClient().Summary(context.Background(), user)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", s.User, s.Audience)
	fmt.Printf("Free to take: %d (%d tasks + %d units)\n", s.FreeTotal, s.FreeSimple, s.FreeUnits)
	fmt.Printf("Yours:        %d pending, %d done\n", s.MinePending, s.MineDone)
	fmt.Printf("Your group:   %d of %d pending\n", s.GroupPending, s.GroupTotal)

	if text := celebration(s); text != "" {
		fmt.Println()
		color.New(color.FgGreen, color.Bold).Println(text)
	}
	return nil
}

func celebration(s board.Summary) string {
	switch s.Message {
	case board.MessageTeamAllDone:
		return "Your whole group is done for today. Great teamwork!"
	case board.MessageUserAllDone:
		return fmt.Sprintf("All done, %s. Enjoy the rest of the day!", s.User)
	case board.MessageNoneFree:
		return "Nothing left to take. Finish what you have."
	}
	return ""
}
