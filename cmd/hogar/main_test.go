package main

import (
	"testing"

	"github.com/fentz26/hogar/internal/board"
)

func TestParseID(t *testing.T) {
	if id, err := parseID("12"); err != nil || id != 12 {
		t.Errorf("parseID(12) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "0", "-3", "abc"} {
		if _, err := parseID(bad); err == nil {
			t.Errorf("parseID(%q): expected error", bad)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Lavar los platos", 40); got != "Lavar los platos" {
		t.Errorf("unexpected %q", got)
	}
	if got := truncate("Mañana mañana mañana", 10); got != "Mañana ..." {
		t.Errorf("unexpected %q", got)
	}
}

func TestCelebration(t *testing.T) {
	if celebration(board.Summary{}) != "" {
		t.Error("expected no message")
	}
	if celebration(board.Summary{Message: board.MessageTeamAllDone}) == "" {
		t.Error("expected team message")
	}
}

func TestRequireUser(t *testing.T) {
	old := userName
	t.Cleanup(func() { userName = old })

	userName = ""
	if _, err := requireUser(); err == nil {
		t.Error("expected error without a user")
	}
	userName = "Cris"
	if u, err := requireUser(); err != nil || u != "Cris" {
		t.Errorf("requireUser = %q, %v", u, err)
	}
}
