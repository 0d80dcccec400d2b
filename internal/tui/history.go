package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tripguide/internal/core"
	"github.com/sadopc/tripguide/internal/guide"
	"github.com/sadopc/tripguide/internal/history"
	"github.com/sadopc/tripguide/internal/intention"
)

type historyModel struct {
	guide  *guide.Guide
	width  int
	height int

	entries []history.Entry
	pending []guide.PendingFollowUp
	cursor  int

	detail       bool
	followUps    []guide.IntentionFollowUps
	detailCursor int

	formActive bool
	form       *huh.Form
	formType   string // "rate", "followup"

	// Form field pointers (survive value copies)
	rateIDs     []string
	rateValues  []*int
	fuIntention string
	fuType      *core.RatingType
	fuValue     *int
	fuNote      *string
}

func newHistoryModel(g *guide.Guide) historyModel {
	var kind core.RatingType
	var value int
	var note string
	return historyModel{
		guide:   g,
		fuType:  &kind,
		fuValue: &value,
		fuNote:  &note,
	}
}

func (m *historyModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type historyDataMsg struct {
	entries   []history.Entry
	pending   []guide.PendingFollowUp
	followUps []guide.IntentionFollowUps
}

func (m historyModel) refresh() tea.Cmd {
	var tripID string
	if m.detail {
		tripID = m.selectedID()
	}
	return func() tea.Msg {
		msg := historyDataMsg{
			entries: m.guide.History().List(),
			pending: m.guide.Pending(),
		}
		if tripID != "" {
			msg.followUps, _ = m.guide.FollowUps(tripID)
		}
		return msg
	}
}

func (m historyModel) selectedID() string {
	if m.cursor < len(m.entries) {
		return m.entries[m.cursor].ID
	}
	return ""
}

func (m historyModel) selected() (history.Entry, bool) {
	if m.cursor < len(m.entries) {
		return m.entries[m.cursor], true
	}
	return history.Entry{}, false
}

func (m historyModel) capturing() bool { return m.formActive }

func (m historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case historyDataMsg:
		m.entries = msg.entries
		m.pending = msg.pending
		m.cursor = clampCursor(m.cursor, len(m.entries))
		if m.detail {
			m.followUps = msg.followUps
			m.detailCursor = clampCursor(m.detailCursor, len(m.followUps))
		}
		return m, nil

	case tripEndedMsg:
		m.detail = false
		m.cursor = 0
		return m, m.refresh()

	case tea.KeyMsg:
		if m.detail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m historyModel) updateList(msg tea.KeyMsg) (historyModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(m.entries) > 0 {
			m.detail = true
			m.detailCursor = 0
			return m, m.refresh()
		}
	case key.Matches(msg, keys.Rate):
		if len(m.entries) > 0 {
			return m.showRateForm()
		}
	}
	return m, nil
}

func (m historyModel) updateDetail(msg tea.KeyMsg) (historyModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.detail = false
		m.followUps = nil
	case key.Matches(msg, keys.Up):
		if m.detailCursor > 0 {
			m.detailCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.detailCursor < len(m.followUps)-1 {
			m.detailCursor++
		}
	case key.Matches(msg, keys.Rate):
		return m.showRateForm()
	case key.Matches(msg, keys.FollowUp):
		return m.showFollowUpForm()
	}
	return m, nil
}

func ratingOptions(withSkip bool) []huh.Option[int] {
	var opts []huh.Option[int]
	if withSkip {
		opts = append(opts, huh.NewOption(ratingOptionLabel(0), 0))
	}
	for v := core.MinRatingValue; v <= core.MaxRatingValue; v++ {
		opts = append(opts, huh.NewOption(ratingOptionLabel(v), v))
	}
	return opts
}

func (m historyModel) showRateForm() (historyModel, tea.Cmd) {
	e, ok := m.selected()
	if !ok {
		return m, nil
	}
	if len(e.Intentions) == 0 {
		return m, resultCmd("", &core.ValidationError{Field: "intentions", Reason: "this trip had none to rate"})
	}

	m.rateIDs = make([]string, len(e.Intentions))
	m.rateValues = make([]*int, len(e.Intentions))
	fields := make([]huh.Field, len(e.Intentions))
	for i, rec := range e.Intentions {
		v, _ := rec.Ratings.Value(core.RatingPostTrip)
		m.rateIDs[i] = rec.ID
		m.rateValues[i] = &v
		fields[i] = huh.NewSelect[int]().
			Title(strings.TrimSpace(rec.Emoji + " " + rec.Text)).
			Description("How well did the trip serve this intention?").
			Options(ratingOptions(true)...).
			Value(m.rateValues[i])
	}

	m.formType = "rate"
	m.form = huh.NewForm(huh.NewGroup(fields...).Title("Post-trip ratings")).WithShowHelp(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m historyModel) showFollowUpForm() (historyModel, tea.Cmd) {
	if m.detailCursor >= len(m.followUps) {
		return m, nil
	}
	fu := m.followUps[m.detailCursor]

	var opts []huh.Option[core.RatingType]
	var nextLocked *intention.FollowUpStatus
	for i, s := range fu.Statuses {
		switch {
		case !s.Locked():
			label := string(s.Type)
			if s.AlreadyRated {
				label += " (re-rate)"
			}
			opts = append(opts, huh.NewOption(label, s.Type))
		case nextLocked == nil:
			nextLocked = &fu.Statuses[i]
		}
	}
	if len(opts) == 0 {
		text := "No follow-up open yet"
		if nextLocked != nil {
			text = fmt.Sprintf("%s follow-up opens in %d days", nextLocked.Type, nextLocked.DaysRemaining)
		}
		return m, func() tea.Msg { return statusMsg{text: text} }
	}

	m.fuIntention = fu.IntentionID
	*m.fuType = opts[len(opts)-1].Value
	*m.fuValue = 0
	*m.fuNote = ""

	m.formType = "followup"
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[core.RatingType]().Title("Follow-up").Options(opts...).Value(m.fuType),
			huh.NewSelect[int]().Title(strings.TrimSpace(fu.Emoji+" "+fu.Text)).Options(ratingOptions(true)...).Value(m.fuValue),
			huh.NewText().Title("Reflection").Placeholder("What has changed since the trip?").Value(m.fuNote),
		),
	).WithShowHelp(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m historyModel) updateForm(msg tea.Msg) (historyModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.formActive = false
		return m, m.submit()
	case huh.StateAborted:
		m.formActive = false
		m.form = nil
	}
	return m, cmd
}

func (m historyModel) submit() tea.Cmd {
	ctx := context.Background()
	tripID := m.selectedID()
	switch m.formType {
	case "rate":
		values := make(map[string]*int, len(m.rateIDs))
		for i, id := range m.rateIDs {
			values[id] = ratingValue(*m.rateValues[i])
		}
		err := m.guide.RatePostTrip(ctx, tripID, values)
		return tea.Batch(m.refresh(), resultCmd("Post-trip ratings saved", err))
	case "followup":
		err := m.guide.RecordFollowUp(ctx, tripID, m.fuIntention, *m.fuType, ratingValue(*m.fuValue), *m.fuNote)
		return tea.Batch(m.refresh(), resultCmd(fmt.Sprintf("%s follow-up saved", *m.fuType), err))
	}
	return nil
}

// --- View ---

func (m historyModel) view() string {
	w := m.width - 4
	if m.formActive && m.form != nil {
		title := "Post-trip Ratings"
		if m.formType == "followup" {
			title = "Follow-up"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", m.form.View())
		return activePanelStyle.Width(w).Render(content)
	}
	if m.detail {
		if e, ok := m.selected(); ok {
			return m.renderDetail(w, e)
		}
	}
	return m.renderList(w)
}

func (m historyModel) renderList(w int) string {
	title := titleStyle.Render("Trip History")
	if len(m.entries) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No trips recorded yet."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title}
	if n := len(m.pending); n > 0 {
		rows = append(rows, warningStyle.Render(fmt.Sprintf("%d follow-up rating(s) waiting", n)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-30s %-10s %-10s %s", "Date", "Title", "Duration", "Rated", "Intentions")))

	for i, e := range m.entries {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rated := "no"
		if e.PostTripRated {
			rated = "yes"
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-12s %-30s %-10s %-10s %d",
			cursor, e.StartTime.Local().Format("2006-01-02"), e.Title,
			formatDuration(e.Duration()), rated, len(e.Intentions))))
	}

	rows = append(rows, "", mutedStyle.Render("  enter: details  r: rate"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m historyModel) renderDetail(w int, e history.Entry) string {
	rows := []string{titleStyle.Render(e.Title)}
	rows = append(rows, subtitleStyle.Render(fmt.Sprintf("%s to %s  (%s)",
		e.StartTime.Local().Format("Jan 2 15:04"), e.EndTime.Local().Format("Jan 2 15:04"), formatDuration(e.Duration()))))
	if e.Dose.Substance != "" {
		rows = append(rows, fmt.Sprintf("Dose: %s %g %s", e.Dose.Substance, e.Dose.Amount, e.Dose.Unit))
	}
	if e.TripSitter != nil {
		rows = append(rows, fmt.Sprintf("Sitter: %s (%s)", e.TripSitter.Name, e.TripSitter.Phone))
	}
	if n := len(e.GeneralNotes); n > 0 {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("%d note(s) taken during the trip", n)))
	}
	rows = append(rows, "")

	if len(m.followUps) == 0 {
		rows = append(rows, mutedStyle.Render("No intentions were set for this trip."))
	}
	for i, fu := range m.followUps {
		cursor := "  "
		style := normalItemStyle
		if i == m.detailCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		post := "-"
		if rec, err := e.Intention(fu.IntentionID); err == nil {
			if v, ok := rec.Ratings.Value(core.RatingPostTrip); ok {
				post = fmt.Sprintf("%d", v)
			}
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, fu.Emoji, fu.Text)))

		slots := []string{"post-trip " + post}
		for _, s := range fu.Statuses {
			slots = append(slots, followUpLabel(e, fu.IntentionID, s))
		}
		rows = append(rows, "    "+strings.Join(slots, "  "))
	}

	rows = append(rows, "", mutedStyle.Render("  r: post-trip ratings  f: follow-up  esc: back"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func followUpLabel(e history.Entry, intentionID string, s intention.FollowUpStatus) string {
	switch {
	case s.AlreadyRated:
		v := "-"
		if rec, err := e.Intention(intentionID); err == nil {
			if n, ok := rec.Ratings.Value(s.Type); ok {
				v = fmt.Sprintf("%d", n)
			}
		}
		return successStyle.Render(fmt.Sprintf("%s %s", s.Type, v))
	case s.Available:
		return warningStyle.Render(fmt.Sprintf("%s due", s.Type))
	}
	return mutedStyle.Render(fmt.Sprintf("%s in %dd", s.Type, s.DaysRemaining))
}
