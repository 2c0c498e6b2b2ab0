package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fentz26/hogar/internal/client"
	"github.com/fentz26/hogar/internal/controlplane"
	"github.com/fentz26/hogar/internal/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Work with the chore board",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var taskFreeCmd = &cobra.Command{
	Use:   "free",
	Short: "List tasks you can take",
	RunE: func(cmd *cobra.Command, args []string) error {
		taskView = string(controlplane.ViewFree)
		return runTaskList(cmd, args)
	},
}

var taskMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		taskView = string(controlplane.ViewMine)
		return runTaskList(cmd, args)
	},
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a task template (admin)",
	RunE:  runTaskAdd,
}

var taskAssignCmd = &cobra.Command{
	Use:   "assign [task-id] [timeslot]",
	Short: "Take a task for a timeslot",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskAssign,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task done",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskUndoCmd = &cobra.Command{
	Use:   "undo [task-id]",
	Short: "Mark a done task pending again",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskUndo,
}

var taskReleaseCmd = &cobra.Command{
	Use:   "release [task-id]",
	Short: "Hand a task back to the board",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRelease,
}

var taskStockCmd = &cobra.Command{
	Use:   "stock [task-id]",
	Short: "Adjust or set the stock of a template (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskStock,
}

var taskBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Check stock plus live instances against capacity",
	RunE:  runTaskBalance,
}

var (
	taskView     string
	taskStatus   string
	taskName     string
	taskKind     string
	taskAudience string
	taskStock    int
	taskOnce     bool
	stockDelta   int
	stockSet     int
)

func init() {
	taskCmd.AddCommand(taskListCmd, taskFreeCmd, taskMineCmd, taskAddCmd, taskAssignCmd,
		taskDoneCmd, taskUndoCmd, taskReleaseCmd, taskStockCmd, taskBalanceCmd)

	taskListCmd.Flags().StringVar(&taskView, "view", "all", "Which tasks: all, free or mine")
	taskListCmd.Flags().StringVar(&taskStatus, "status", "", "Filter by status (pending, done)")
	taskMineCmd.Flags().StringVar(&taskStatus, "status", "", "Filter by status (pending, done)")

	taskAddCmd.Flags().StringVar(&taskName, "name", "", "Task name (required)")
	taskAddCmd.Flags().StringVar(&taskKind, "kind", string(models.KindSimple), "simple, counter or multi-slot")
	taskAddCmd.Flags().StringVar(&taskAudience, "audience", string(models.AudienceEveryone), "group-a, group-b or everyone")
	taskAddCmd.Flags().IntVar(&taskStock, "stock", 1, "Units available (counter and multi-slot)")
	taskAddCmd.Flags().BoolVar(&taskOnce, "once", false, "Drop the task at the next reset")
	taskAddCmd.MarkFlagRequired("name")

	taskStockCmd.Flags().IntVar(&stockDelta, "delta", 0, "Add (or remove, when negative) units")
	taskStockCmd.Flags().IntVar(&stockSet, "set", 0, "Set the stock to an absolute value")
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	user := userName
	view := controlplane.View(taskView)
	if view != controlplane.ViewAll {
		var err error
		if user, err = requireUser(); err != nil {
			return err
		}
	}

	tasks, err := newClient().Tasks(context.Background(), user, view, models.TaskStatus(taskStatus))
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tAUDIENCE\tOWNER\tSLOT\tSTATUS\tSTOCK")
	for _, t := range tasks {
		stock := ""
		if t.Kind.Stocked() {
			stock = strconv.Itoa(t.Stock)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, truncate(t.Name, 30), t.Kind, t.Audience, t.Owner, t.Timeslot, t.Status, stock)
	}
	w.Flush()
	return nil
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	recurrence := models.RecurrencePersistent
	if taskOnce {
		recurrence = models.RecurrenceOneOff
	}

	t, err := newClient().AddTemplate(context.Background(), client.TemplateRequest{
		User:       user,
		Name:       taskName,
		Recurrence: string(recurrence),
		Kind:       taskKind,
		Audience:   taskAudience,
		Stock:      taskStock,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created task %d: %s\n", t.ID, t.Name)
	return nil
}

func runTaskAssign(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	res, err := newClient().Assign(context.Background(), user, id, args[1])
	if err != nil {
		return err
	}

	fmt.Printf("%s Task %d is yours for %s\n", color.GreenString("✓"), res.TaskID, args[1])
	if res.Spawned {
		fmt.Printf("  %d left on template %d\n", res.StockLeft, res.TemplateID)
	}
	if res.Closed {
		fmt.Printf("  Template %d is now closed\n", res.TemplateID)
	}
	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	return statusCommand(args[0], (*client.Client).Complete, "Done")
}

func runTaskUndo(cmd *cobra.Command, args []string) error {
	return statusCommand(args[0], (*client.Client).Undo, "Pending again")
}

func statusCommand(arg string, fn func(*client.Client, context.Context, string, int) (models.Task, error), verb string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	id, err := parseID(arg)
	if err != nil {
		return err
	}

	t, err := fn(newClient(), context.Background(), user, id)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s: %s\n", color.GreenString("✓"), verb, t.Name)
	return nil
}

func runTaskRelease(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	res, err := newClient().Release(context.Background(), user, id)
	if err != nil {
		return err
	}

	switch {
	case res.Deleted && res.RefundedTo != 0:
		fmt.Printf("Released task %d, unit returned to template %d\n", id, res.RefundedTo)
	case res.Deleted:
		fmt.Printf("Released task %d\n", id)
	default:
		fmt.Printf("Task %d is free again\n", id)
	}
	if res.Reopened {
		fmt.Printf("  Template %d reopened\n", res.RefundedTo)
	}
	return nil
}

func runTaskStock(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	setGiven := cmd.Flags().Changed("set")
	if setGiven == cmd.Flags().Changed("delta") {
		return fmt.Errorf("pass exactly one of --delta or --set")
	}

	c := newClient()
	var t models.Task
	if setGiven {
		t, err = c.SetStock(context.Background(), user, id, stockSet)
	} else {
		t, err = c.AdjustStock(context.Background(), user, id, stockDelta)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s %s: stock %d (capacity %d)\n", color.GreenString("✓"), t.Name, t.Stock, t.Capacity)
	return nil
}

func runTaskBalance(cmd *cobra.Command, args []string) error {
	balances, err := newClient().Balances(context.Background())
	if err != nil {
		return err
	}
	if len(balances) == 0 {
		fmt.Println("No stocked templates")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTOCK\tLIVE\tCAPACITY\tOK")
	for _, b := range balances {
		ok := color.GreenString("✓")
		if !b.Conserved() {
			ok = color.RedString("✗")
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%s\n", b.TemplateID, truncate(b.Name, 30), b.Stock, b.Live, b.Capacity, ok)
	}
	w.Flush()
	return nil
}

// --- Helpers ---

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
