package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/tripguide/internal/core"
)

// viewState represents the currently active view.
type viewState int

const (
	viewSession viewState = iota
	viewIntentions
	viewHistory
	viewReports
	viewSitters
)

var viewNames = []string{"Session", "Intentions", "History", "Reports", "Sitters"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// tripEndedMsg tells the history view a new entry exists.
type tripEndedMsg struct {
	tripID string
}

// --- Helpers ---

// resultCmd reports the outcome of a mutation. A failed write still leaves
// the change in memory, so it is shown as a warning rather than a failure.
func resultCmd(done string, err error) tea.Cmd {
	return func() tea.Msg {
		switch {
		case err == nil:
			return statusMsg{text: done}
		case core.IsPersistence(err):
			return statusMsg{text: done + " (changes may not be saved)", isError: true}
		}
		return statusMsg{text: "Error: " + err.Error(), isError: true}
	}
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatAverage(avg float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f", avg)
}

func ratingOptionLabel(v int) string {
	if v == 0 {
		return "skip"
	}
	return fmt.Sprintf("%d %s", v, stars(v))
}

func stars(v int) string {
	s := ""
	for i := 0; i < core.MaxRatingValue; i++ {
		if i < v {
			s += "★"
		} else {
			s += "☆"
		}
	}
	return s
}

// ratingValue turns a form selection into a rating value; 0 means unrated.
func ratingValue(v int) *int {
	if v == 0 {
		return nil
	}
	return core.IntPtr(v)
}

func clampCursor(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}
