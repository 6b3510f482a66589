package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModelRendersOutcome(t *testing.T) {
	m := model{title: "migrate up", started: time.Now()}

	next, _ := m.Update(tickMsg(m.started.Add(3 * time.Second)))
	m = next.(model)
	if !strings.Contains(m.View(), "running 3s") {
		t.Fatalf("expected elapsed time, got %q", m.View())
	}

	next, cmd := m.Update(finishedMsg{details: []string{"applied=2"}})
	m = next.(model)
	if cmd == nil || !m.done {
		t.Fatal("expected quit after action finished")
	}
	if view := m.View(); !strings.Contains(view, "OK") || !strings.Contains(view, "- applied=2") {
		t.Fatalf("unexpected view: %q", view)
	}

	failed, _ := model{title: "seed apply"}.Update(finishedMsg{err: errors.New("db down")})
	if view := failed.(model).View(); !strings.Contains(view, "FAILED") || !strings.Contains(view, "db down") {
		t.Fatalf("unexpected failure view: %q", view)
	}
}

func TestModelCtrlCCancels(t *testing.T) {
	next, cmd := model{title: "loadgen run"}.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m := next.(model)
	if cmd == nil || !errors.Is(m.err, context.Canceled) {
		t.Fatalf("expected canceled quit, got err=%v", m.err)
	}
}
