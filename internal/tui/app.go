// Package tui provides the interactive terminal board.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/hogar/internal/board"
	"github.com/fentz26/hogar/internal/client"
	"github.com/fentz26/hogar/internal/controlplane"
	"github.com/fentz26/hogar/internal/models"
	"github.com/fentz26/hogar/internal/roster"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")
	cyanColor      = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	taskItemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	bannerStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	onlineStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	offlineStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

type panel int

const (
	panelFree panel = iota
	panelMine
	panelHouse
)

var panelNames = []string{"FREE", "MINE", "HOUSE"}

// App is the main TUI application model.
type App struct {
	client       *client.Client
	user         roster.Member
	members      []roster.Member
	timeslots    []string
	picking      bool // choosing who is at the keyboard
	pickIdx      int
	panel        panel
	tasks        []models.Task
	selectedIdx  int
	summary      board.Summary
	history      []models.ArchiveEntry
	showHistory  bool
	input        textinput.Model
	width        int
	height       int
	message      string
	loading      bool
	daemonOnline bool
	suggestions  *Suggestions
	initialUser  string
}

// New creates a new TUI application. When user is empty the board opens
// with the member picker.
func New(apiAddr, user string) *App {
	ti := textinput.New()
	ti.Placeholder = "1-4: take | d: done | u: undo | x: release | /command | @member | #slot"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 80

	return &App{
		client:      client.New(apiAddr),
		input:       ti,
		picking:     true,
		suggestions: NewSuggestions(),
		initialUser: user,
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.fetchSetup(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.picking {
			return a, a.updatePicker(msg)
		}
		if cmd, handled := a.handleKey(msg); handled {
			return a, cmd
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4

	case setupLoadedMsg:
		a.daemonOnline = true
		a.members = msg.members
		a.timeslots = msg.timeslots
		if a.initialUser != "" {
			if m, ok := a.findMember(a.initialUser); ok {
				return a, a.selectUser(m)
			}
			a.message = fmt.Sprintf("Error: %q is not on the roster", a.initialUser)
		}

	case boardLoadedMsg:
		a.loading = false
		a.tasks = msg.tasks
		a.summary = msg.summary
		if a.selectedIdx >= len(a.tasks) {
			a.selectedIdx = max(0, len(a.tasks)-1)
		}

	case historyLoadedMsg:
		a.history = msg.entries
		a.showHistory = true

	case commandResultMsg:
		a.message = msg.message
		return a, a.fetchBoard()

	case errMsg:
		a.loading = false
		a.message = "Error: " + msg.err.Error()
		if _, ok := msg.err.(*client.APIError); !ok {
			a.daemonOnline = false
		}
	}

	// Update input
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	// Update suggestions based on input
	a.suggestions.Update(a.input.Value())
	switch {
	case strings.HasPrefix(a.input.Value(), "@"):
		var names []string
		for _, m := range a.members {
			names = append(names, m.Name)
		}
		a.suggestions.SetUsers(names)
	case strings.HasPrefix(a.input.Value(), "#"):
		a.suggestions.SetSlots(a.timeslots)
	}

	return a, tea.Batch(cmds...)
}

// handleKey runs board shortcuts. Shortcuts only fire while the command
// bar is empty so that typing is never hijacked.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()
	switch key {
	case "ctrl+c":
		return tea.Quit, true

	case "esc":
		a.showHistory = false
		a.input.SetValue("")
		a.suggestions.Update("")
		return nil, true

	case "up":
		if a.suggestions.IsVisible() {
			a.suggestions.Prev()
		} else if a.selectedIdx > 0 {
			a.selectedIdx--
		}
		return nil, true

	case "down":
		if a.suggestions.IsVisible() {
			a.suggestions.Next()
		} else if a.selectedIdx < len(a.tasks)-1 {
			a.selectedIdx++
		}
		return nil, true

	case "tab":
		if a.suggestions.IsVisible() {
			if selected := a.suggestions.Selected(); selected != nil {
				a.input.SetValue(a.suggestions.prefix + selected.Text + " ")
				a.input.CursorEnd()
				a.suggestions.Update("")
			}
			return nil, true
		}
		a.panel = (a.panel + 1) % panel(len(panelNames))
		a.selectedIdx = 0
		a.showHistory = false
		return a.fetchBoard(), true

	case "enter":
		if a.suggestions.IsVisible() {
			if selected := a.suggestions.Selected(); selected != nil {
				a.input.SetValue(a.suggestions.prefix + selected.Text)
				a.suggestions.Update("")
			}
		}
		line := strings.TrimSpace(a.input.Value())
		a.input.SetValue("")
		if line == "" {
			return nil, true
		}
		return a.executeCommand(line), true
	}

	if a.input.Value() != "" {
		return nil, false
	}

	switch key {
	case "k":
		if a.selectedIdx > 0 {
			a.selectedIdx--
		}
		return nil, true
	case "j":
		if a.selectedIdx < len(a.tasks)-1 {
			a.selectedIdx++
		}
		return nil, true
	case "r":
		a.message = "Reloaded"
		return a.fetchBoard(), true
	case "d":
		return a.onSelected("done", a.client.Complete, "Done"), true
	case "u":
		return a.onSelected("undo", a.client.Undo, "Back to pending"), true
	case "x":
		return a.release(), true
	case "p":
		a.picking = true
		return nil, true
	case "h":
		return a.fetchHistory(), true
	}

	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(a.timeslots) {
		return a.take(a.timeslots[n-1]), true
	}
	return nil, false
}

func (a *App) updatePicker(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "q":
		return tea.Quit
	case "up", "k":
		if a.pickIdx > 0 {
			a.pickIdx--
		}
	case "down", "j":
		if a.pickIdx < len(a.members)-1 {
			a.pickIdx++
		}
	case "enter":
		if len(a.members) > 0 {
			return a.selectUser(a.members[a.pickIdx])
		}
	case "r":
		return a.fetchSetup()
	}
	return nil
}

func (a *App) findMember(name string) (roster.Member, bool) {
	for _, m := range a.members {
		if strings.EqualFold(m.Name, strings.TrimSpace(name)) {
			return m, true
		}
	}
	return roster.Member{}, false
}

func (a *App) selectUser(m roster.Member) tea.Cmd {
	a.user = m
	a.picking = false
	a.panel = panelFree
	a.selectedIdx = 0
	a.showHistory = false
	a.message = fmt.Sprintf("Hola, %s", m.Name)
	return a.fetchBoard()
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	daemonStatus := onlineStyle.Render("● DAEMON")
	if !a.daemonOnline {
		daemonStatus = offlineStyle.Render("○ DAEMON")
	}

	header := titleStyle.Render("HOGAR") + "  " + daemonStatus
	if a.user.Name != "" {
		who := a.user.Name
		if a.user.Admin {
			who += " (admin)"
		}
		header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(who)
	}
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", a.width) + "\n")

	contentHeight := a.height - 10
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch {
	case a.picking:
		b.WriteString(a.renderPicker())
	case a.showHistory:
		b.WriteString(a.renderHistory(contentHeight))
	default:
		b.WriteString(a.renderSummary() + "\n")
		b.WriteString(a.renderPanels() + "\n")
		b.WriteString(a.renderTaskList(contentHeight - 2))
	}

	// Message bar
	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	if !a.picking {
		b.WriteString("\n")
		b.WriteString(inputBoxStyle.Render(a.input.View()))
		if a.suggestions.IsVisible() {
			b.WriteString("\n")
			b.WriteString(a.suggestions.Render(a.width))
		}
	}
	b.WriteString("\n")

	var status string
	switch {
	case a.picking:
		status = " ↑↓:choose | Enter:select | r:retry | q:quit"
	case a.showHistory:
		status = fmt.Sprintf(" History: %d | Esc:back | Ctrl+C:quit", len(a.history))
	default:
		status = fmt.Sprintf(" %s: %d | %s | d/u/x | Tab:panel | h:history | p:member | r:reload | Ctrl+C:quit",
			panelNames[a.panel], len(a.tasks), a.slotKeys())
	}
	b.WriteString(statusBarStyle.Width(a.width).Render(status))

	return b.String()
}

func (a *App) slotKeys() string {
	var parts []string
	for i, s := range a.timeslots {
		parts = append(parts, fmt.Sprintf("%d:%s", i+1, s))
	}
	return strings.Join(parts, " ")
}

func (a *App) renderPicker() string {
	var b strings.Builder
	b.WriteString("\n  Who is at the board?\n\n")
	if len(a.members) == 0 {
		b.WriteString("  Waiting for the daemon...\n")
		return b.String()
	}
	for i, m := range a.members {
		label := fmt.Sprintf("%s  %s", m.Name, helpStyle.Render(string(m.Audience)))
		if i == a.pickIdx {
			b.WriteString(selectedStyle.Render("▶ "+m.Name) + "\n")
		} else {
			b.WriteString(taskItemStyle.Render("  "+label) + "\n")
		}
	}
	return b.String()
}

func (a *App) renderSummary() string {
	s := a.summary
	line := fmt.Sprintf(" Free: %d (%d tasks + %d units)  Mine: %d pending, %d done",
		s.FreeTotal, s.FreeSimple, s.FreeUnits, s.MinePending, s.MineDone)
	out := lipgloss.NewStyle().Foreground(mutedColor).Render(line)
	if text := bannerText(s); text != "" {
		out += "\n " + bannerStyle.Render(text)
	}
	return out
}

// bannerText turns the summary banner into a sentence.
func bannerText(s board.Summary) string {
	switch s.Message {
	case board.MessageTeamAllDone:
		return "Everybody in your group is done. Great teamwork!"
	case board.MessageUserAllDone:
		return fmt.Sprintf("All done for today, %s!", s.User)
	case board.MessageNoneFree:
		return "Nothing left to take. Finish what you have."
	}
	return ""
}

func (a *App) renderPanels() string {
	var parts []string
	for i, name := range panelNames {
		style := lipgloss.NewStyle().Foreground(mutedColor).Padding(0, 1)
		if panel(i) == a.panel {
			style = lipgloss.NewStyle().Foreground(fgColor).Background(secondaryColor).Bold(true).Padding(0, 1)
		}
		parts = append(parts, style.Render(name))
	}
	return strings.Join(parts, " ")
}

func (a *App) renderTaskList(height int) string {
	if a.loading {
		return "\n  Loading tasks...\n"
	}
	if len(a.tasks) == 0 {
		switch a.panel {
		case panelFree:
			return "\n  Nothing free right now.\n"
		case panelMine:
			return "\n  You have no tasks. Tab to FREE and take one.\n"
		}
		return "\n  The board is empty.\n"
	}

	var lines []string
	for i, t := range a.tasks {
		text := a.formatTask(t)
		if i == a.selectedIdx {
			lines = append(lines, selectedStyle.Render("▶ "+text))
		} else {
			lines = append(lines, taskItemStyle.Render("  "+text))
		}
	}

	// Limit visible lines
	if len(lines) > height {
		start := a.selectedIdx - height/2
		if start < 0 {
			start = 0
		}
		end := start + height
		if end > len(lines) {
			end = len(lines)
			start = max(0, end-height)
		}
		lines = lines[start:end]
	}

	return strings.Join(lines, "\n")
}

func (a *App) formatTask(t models.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%-3d %s %s", t.ID, formatStatus(t), t.Name)
	if t.Kind.Stocked() && (t.Owner.IsUnowned() || t.Owner.IsClosed()) {
		fmt.Fprintf(&b, " [%d left]", t.Stock)
	}
	if !t.Timeslot.IsNone() {
		fmt.Fprintf(&b, " @ %s", t.Timeslot)
	}
	if a.panel == panelHouse {
		fmt.Fprintf(&b, "  %s", t.Owner)
	}
	return b.String()
}

func formatStatus(t models.Task) string {
	switch {
	case t.Owner.IsClosed():
		return lipgloss.NewStyle().Foreground(mutedColor).Render("✗")
	case t.Owner.IsUnowned():
		return lipgloss.NewStyle().Foreground(cyanColor).Render("○")
	case t.Status == models.TaskStatusDone:
		return lipgloss.NewStyle().Foreground(successColor).Render("●")
	default:
		return lipgloss.NewStyle().Foreground(warningColor).Render("◐")
	}
}

func (a *App) renderHistory(height int) string {
	var b strings.Builder
	b.WriteString("\n  Completed work\n")
	b.WriteString("  " + strings.Repeat("─", 50) + "\n")
	if len(a.history) == 0 {
		b.WriteString("  Nothing archived yet.\n")
		return b.String()
	}
	for i, e := range a.history {
		if i >= height {
			break
		}
		fmt.Fprintf(&b, "  %s  %-20s %-10s %s\n", e.ArchivedAt.Local().Format("2006-01-02"), e.Name, e.Owner, e.Timeslot)
	}
	return b.String()
}

// --- Commands ---

func (a *App) selected() (models.Task, bool) {
	if len(a.tasks) == 0 || a.selectedIdx >= len(a.tasks) {
		return models.Task{}, false
	}
	return a.tasks[a.selectedIdx], true
}

func (a *App) fetchSetup() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		members, err := a.client.Roster(ctx)
		if err != nil {
			return errMsg{err}
		}
		slots, err := a.client.Timeslots(ctx)
		if err != nil {
			return errMsg{err}
		}
		return setupLoadedMsg{members: members, timeslots: slots}
	}
}

func (a *App) fetchBoard() tea.Cmd {
	if a.user.Name == "" {
		return nil
	}
	a.loading = true
	user, p := a.user.Name, a.panel
	return func() tea.Msg {
		ctx := context.Background()
		view := controlplane.ViewAll
		switch p {
		case panelFree:
			view = controlplane.ViewFree
		case panelMine:
			view = controlplane.ViewMine
		}
		tasks, err := a.client.Tasks(ctx, user, view, "")
		if err != nil {
			return errMsg{err}
		}
		sum, err := a.client.Summary(ctx, user)
		if err != nil {
			return errMsg{err}
		}
		return boardLoadedMsg{tasks: tasks, summary: sum}
	}
}

func (a *App) fetchHistory() tea.Cmd {
	user := a.user.Name
	return func() tea.Msg {
		entries, err := a.client.History(context.Background(), user, "", 50)
		if err != nil {
			return errMsg{err}
		}
		return historyLoadedMsg{entries}
	}
}

func (a *App) take(slot string) tea.Cmd {
	t, ok := a.selected()
	if !ok || a.panel != panelFree {
		a.message = "Select a task in FREE first"
		return nil
	}
	user := a.user.Name
	return func() tea.Msg {
		res, err := a.client.Assign(context.Background(), user, t.ID, slot)
		if err != nil {
			return commandResultMsg{"Error: " + err.Error()}
		}
		if res.Spawned {
			return commandResultMsg{fmt.Sprintf("✓ %s @ %s (%d left)", t.Name, slot, res.StockLeft)}
		}
		return commandResultMsg{fmt.Sprintf("✓ %s @ %s", t.Name, slot)}
	}
}

func (a *App) onSelected(verb string, fn func(context.Context, string, int) (models.Task, error), okText string) tea.Cmd {
	t, ok := a.selected()
	if !ok {
		a.message = "No task selected"
		return nil
	}
	user := a.user.Name
	return func() tea.Msg {
		if _, err := fn(context.Background(), user, t.ID); err != nil {
			return commandResultMsg{fmt.Sprintf("Error: %s: %v", verb, err)}
		}
		return commandResultMsg{fmt.Sprintf("✓ %s: %s", okText, t.Name)}
	}
}

func (a *App) release() tea.Cmd {
	t, ok := a.selected()
	if !ok {
		a.message = "No task selected"
		return nil
	}
	user := a.user.Name
	return func() tea.Msg {
		res, err := a.client.Release(context.Background(), user, t.ID)
		if err != nil {
			return commandResultMsg{"Error: " + err.Error()}
		}
		if res.Deleted {
			return commandResultMsg{fmt.Sprintf("✓ Gave back %s", t.Name)}
		}
		return commandResultMsg{fmt.Sprintf("✓ %s is free again", t.Name)}
	}
}

func (a *App) executeCommand(line string) tea.Cmd {
	switch line[0] {
	case '@':
		m, ok := a.findMember(line[1:])
		if !ok {
			a.message = fmt.Sprintf("Error: %q is not on the roster", strings.TrimSpace(line[1:]))
			return nil
		}
		return a.selectUser(m)
	case '#':
		return a.take(strings.TrimSpace(line[1:]))
	}

	parts := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(parts) == 0 {
		return nil
	}
	cmd, args := parts[0], parts[1:]
	user := a.user.Name
	ctx := context.Background()

	switch cmd {
	case "q", "quit", "exit":
		return tea.Quit
	case "user":
		if len(args) < 1 {
			a.picking = true
			return nil
		}
		return a.executeCommand("@" + strings.Join(args, " "))
	case "take":
		if len(args) < 1 {
			a.message = "Usage: take <slot>"
			return nil
		}
		return a.take(strings.Join(args, " "))
	case "done":
		return a.onSelected("done", a.client.Complete, "Done")
	case "undo":
		return a.onSelected("undo", a.client.Undo, "Back to pending")
	case "release":
		return a.release()
	case "history":
		return a.fetchHistory()
	}

	return func() tea.Msg {
		switch cmd {
		case "add":
			req, err := parseAdd(user, args)
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			t, err := a.client.AddTemplate(ctx, req)
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("✓ Added #%d %s", t.ID, t.Name)}

		case "stock":
			t, ok := a.selected()
			if !ok || len(args) != 1 {
				return commandResultMsg{"Usage: stock +n | -n | =n (on the selected template)"}
			}
			set, n, err := parseStockArg(args[0])
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			var got models.Task
			if set {
				got, err = a.client.SetStock(ctx, user, t.ID, n)
			} else {
				got, err = a.client.AdjustStock(ctx, user, t.ID, n)
			}
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("✓ %s now has %d", got.Name, got.Stock)}

		case "preview":
			res, err := a.client.PreviewReset(ctx)
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("Reset would keep %d, drop %d, archive %d", res.Kept, res.Pruned, len(res.Completed))}

		case "reset":
			res, err := a.client.ResetDay(ctx, user)
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			msg := fmt.Sprintf("✓ New day: kept %d, dropped %d, archived %d", res.Kept, res.Pruned, res.Archived)
			if res.Warning != "" {
				msg += " (" + res.Warning + ")"
			}
			return commandResultMsg{msg}

		default:
			return commandResultMsg{fmt.Sprintf("Unknown: %s (try: take, done, add, stock, reset)", cmd)}
		}
	}
}

// parseAdd reads "add <kind> <audience> <stock> <name...>". Persistent is
// the default recurrence; a trailing "!once" makes it one-off.
func parseAdd(user string, args []string) (client.TemplateRequest, error) {
	if len(args) < 4 {
		return client.TemplateRequest{}, fmt.Errorf("usage: add <kind> <audience> <stock> <name>")
	}
	stock, err := strconv.Atoi(args[2])
	if err != nil {
		return client.TemplateRequest{}, fmt.Errorf("stock must be a number: %q", args[2])
	}
	name := args[3:]
	recurrence := string(models.RecurrencePersistent)
	if last := name[len(name)-1]; last == "!once" {
		recurrence = string(models.RecurrenceOneOff)
		name = name[:len(name)-1]
	}
	return client.TemplateRequest{
		User:       user,
		Name:       strings.Join(name, " "),
		Recurrence: recurrence,
		Kind:       args[0],
		Audience:   args[1],
		Stock:      stock,
	}, nil
}

// parseStockArg reads "+n", "-n" (adjust) or "=n" (set).
func parseStockArg(s string) (set bool, n int, err error) {
	if strings.HasPrefix(s, "=") {
		n, err = strconv.Atoi(s[1:])
		return true, n, err
	}
	n, err = strconv.Atoi(s)
	return false, n, err
}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}

type setupLoadedMsg struct {
	members   []roster.Member
	timeslots []string
}

type boardLoadedMsg struct {
	tasks   []models.Task
	summary board.Summary
}

type historyLoadedMsg struct {
	entries []models.ArchiveEntry
}
