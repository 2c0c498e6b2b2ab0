package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Suggestions provides autocomplete for commands
type Suggestions struct {
	items        []SuggestionItem
	filtered     []SuggestionItem
	selectedIdx  int
	visible      bool
	prefix       string // "/", "@", or "#"
	currentInput string
}

// SuggestionItem represents a single autocomplete suggestion
type SuggestionItem struct {
	Text        string
	Description string
	Type        string // "command", "user", "slot"
}

var commandSuggestions = []SuggestionItem{
	{Text: "user", Description: "Switch to another household member", Type: "command"},
	{Text: "take", Description: "Take the selected task: take <slot>", Type: "command"},
	{Text: "done", Description: "Mark the selected task done", Type: "command"},
	{Text: "undo", Description: "Mark the selected task pending again", Type: "command"},
	{Text: "release", Description: "Hand the selected task back", Type: "command"},
	{Text: "add", Description: "Admin: add <kind> <audience> <stock> <name>", Type: "command"},
	{Text: "stock", Description: "Admin: stock +n | -n | =n on the selected template", Type: "command"},
	{Text: "preview", Description: "Show what the daily reset would do", Type: "command"},
	{Text: "reset", Description: "Admin: run the daily reset", Type: "command"},
	{Text: "history", Description: "Show archived completions", Type: "command"},
	{Text: "quit", Description: "Leave the board", Type: "command"},
}

// NewSuggestions creates a new suggestions handler
func NewSuggestions() *Suggestions {
	return &Suggestions{
		items:   commandSuggestions,
		visible: false,
	}
}

// Update updates suggestions based on current input
func (s *Suggestions) Update(input string) {
	if input == "" {
		s.visible = false
		s.filtered = nil
		s.prefix = ""
		return
	}

	// Check for trigger characters
	switch input[0] {
	case '/':
		s.prefix = "/"
		s.items = commandSuggestions
	case '@', '#':
		s.prefix = string(input[0])
		if len(s.items) > 0 && s.items[0].Type == "command" {
			s.items = []SuggestionItem{}
		}
	default:
		s.visible = false
		s.filtered = nil
		s.prefix = ""
		s.currentInput = input
		return
	}
	s.visible = true
	s.currentInput = input
	s.filter(strings.ToLower(strings.TrimPrefix(input, s.prefix)))
}

// SetUsers offers roster names after "@".
func (s *Suggestions) SetUsers(names []string) {
	s.setDynamic("@", names, "user", "Switch to this member")
}

// SetSlots offers timeslots after "#".
func (s *Suggestions) SetSlots(slots []string) {
	s.setDynamic("#", slots, "slot", "Take the selected task in this slot")
}

func (s *Suggestions) setDynamic(prefix string, values []string, kind, desc string) {
	if s.prefix != prefix {
		return
	}
	s.items = make([]SuggestionItem, len(values))
	for i, v := range values {
		s.items[i] = SuggestionItem{Text: v, Description: desc, Type: kind}
	}
	s.filter(strings.ToLower(strings.TrimPrefix(s.currentInput, prefix)))
}

func (s *Suggestions) filter(query string) {
	if query == "" {
		s.filtered = s.items
		s.selectedIdx = 0
		return
	}

	s.filtered = []SuggestionItem{}
	for _, item := range s.items {
		if strings.Contains(strings.ToLower(item.Text), query) {
			s.filtered = append(s.filtered, item)
		}
	}
	s.selectedIdx = 0
}

// Next moves to the next suggestion
func (s *Suggestions) Next() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx = (s.selectedIdx + 1) % len(s.filtered)
}

// Prev moves to the previous suggestion
func (s *Suggestions) Prev() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx--
	if s.selectedIdx < 0 {
		s.selectedIdx = len(s.filtered) - 1
	}
}

// Selected returns the currently selected suggestion
func (s *Suggestions) Selected() *SuggestionItem {
	if !s.visible || len(s.filtered) == 0 || s.selectedIdx >= len(s.filtered) {
		return nil
	}
	return &s.filtered[s.selectedIdx]
}

// IsVisible returns whether suggestions are currently visible
func (s *Suggestions) IsVisible() bool {
	return s.visible && len(s.filtered) > 0
}

var suggestionHeaders = map[string]string{
	"/": "Commands",
	"@": "Members",
	"#": "Timeslots",
}

const maxVisibleSuggestions = 5

// Render draws the dropdown. The window scrolls so the selected item stays
// on screen.
func (s *Suggestions) Render(width int) string {
	if !s.IsVisible() {
		return ""
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(secondaryColor).
		Padding(0, 1).
		Width(width - 4)
	descStyle := helpStyle

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render(suggestionHeaders[s.prefix]))
	b.WriteString("\n")

	start := 0
	if s.selectedIdx >= maxVisibleSuggestions {
		start = s.selectedIdx - maxVisibleSuggestions + 1
	}
	end := min(start+maxVisibleSuggestions, len(s.filtered))

	for i := start; i < end; i++ {
		item := s.filtered[i]
		if i == s.selectedIdx {
			b.WriteString(selectedStyle.Render(fmt.Sprintf("▶ %s  %s", item.Text, item.Description)))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(fgColor).Render("  " + item.Text))
			b.WriteString("  " + descStyle.Render(item.Description))
		}
		b.WriteString("\n")
	}
	if rest := len(s.filtered) - end; rest > 0 {
		b.WriteString(descStyle.Render(fmt.Sprintf("  ... and %d more", rest)))
	}

	return box.Render(strings.TrimRight(b.String(), "\n"))
}
