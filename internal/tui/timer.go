package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/sadopc/tripguide/internal/trip"
)

// timerModel mirrors the active trip's derived progress. It never writes:
// phase changes go through the session, the tick only re-reads.
type timerModel struct {
	session *trip.Session

	active   bool
	progress trip.Progress
	now      time.Time

	bar progress.Model
}

func newTimerModel(s *trip.Session) timerModel {
	t := timerModel{
		session: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	t.tick()
	return t
}

func (t *timerModel) tick() {
	t.progress, t.active = t.session.Progress()
	t.now = t.session.Now()
}

func (t timerModel) running() bool { return t.active }

func (t timerModel) elapsed() time.Duration {
	if !t.active {
		return 0
	}
	return t.now.Sub(t.progress.StartTime)
}

// fraction is the share of the nominal trip that has passed, clamped for
// display.
func (t timerModel) fraction() float64 {
	f := t.progress.Percent / 100
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func (t *timerModel) setWidth(w int) {
	if w < 10 {
		w = 10
	}
	t.bar.Width = w
}

func (t timerModel) barView() string {
	return t.bar.ViewAs(t.fraction())
}
