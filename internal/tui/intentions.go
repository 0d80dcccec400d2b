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
	"github.com/sadopc/tripguide/internal/intention"
)

var intentionEmojis = []string{"", "🎨", "🌱", "💛", "🧘", "🔍", "🌊", "🔥", "🌙"}

type intentionsModel struct {
	engine *intention.Engine
	width  int
	height int

	intentions   []intention.Intention
	cursor       int
	viewingTrips bool // true = viewing trips of selected intention

	formActive bool
	form       *huh.Form
	formType   string // "new", "edit", "delete"

	// Form field pointers (survive value copies)
	formText        *string
	formDescription *string
	formEmoji       *string
	formConfirm     *bool

	editingID string
}

func newIntentionsModel(e *intention.Engine) intentionsModel {
	text, desc, emoji := "", "", ""
	confirm := false
	return intentionsModel{
		engine:          e,
		formText:        &text,
		formDescription: &desc,
		formEmoji:       &emoji,
		formConfirm:     &confirm,
	}
}

func (m *intentionsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type intentionsDataMsg struct {
	intentions []intention.Intention
}

func (m intentionsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return intentionsDataMsg{intentions: m.engine.List()}
	}
}

func (m intentionsModel) update(msg tea.Msg) (intentionsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case intentionsDataMsg:
		m.intentions = msg.intentions
		m.cursor = clampCursor(m.cursor, len(m.intentions))
		return m, nil

	case tea.KeyMsg:
		if m.viewingTrips {
			if key.Matches(msg, keys.Back) {
				m.viewingTrips = false
			}
			return m, nil
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m intentionsModel) updateList(msg tea.KeyMsg) (intentionsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.intentions)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(m.intentions) > 0 {
			m.viewingTrips = true
		}
	case key.Matches(msg, keys.New):
		return m.showForm("new", intention.Intention{})
	case key.Matches(msg, keys.Edit):
		if len(m.intentions) > 0 {
			return m.showForm("edit", m.intentions[m.cursor])
		}
	case key.Matches(msg, keys.Delete):
		if len(m.intentions) > 0 {
			return m.showDeleteForm()
		}
	}
	return m, nil
}

func (m intentionsModel) showForm(formType string, in intention.Intention) (intentionsModel, tea.Cmd) {
	*m.formText = in.Text
	*m.formDescription = in.Description
	*m.formEmoji = in.Emoji
	m.formType = formType
	m.editingID = in.ID

	emojiOptions := make([]huh.Option[string], len(intentionEmojis))
	for i, e := range intentionEmojis {
		label := e
		if e == "" {
			label = "none"
		}
		emojiOptions[i] = huh.NewOption(label, e)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Intention").Value(m.formText).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("an intention needs some words")
				}
				return nil
			}),
			huh.NewText().Title("Description").Value(m.formDescription),
			huh.NewSelect[string]().Title("Emoji").Options(emojiOptions...).Value(m.formEmoji),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m intentionsModel) showDeleteForm() (intentionsModel, tea.Cmd) {
	in := m.intentions[m.cursor]
	*m.formConfirm = false
	m.formType = "delete"
	m.editingID = in.ID
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", in.Text)).
				Description("Its ratings are removed too. Trip history keeps its own copy.").
				Value(m.formConfirm),
		),
	).WithShowHelp(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m intentionsModel) updateForm(msg tea.Msg) (intentionsModel, tea.Cmd) {
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

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		return m, tea.Batch(m.refresh(), m.submit())
	}
	return m, cmd
}

func (m intentionsModel) submit() tea.Cmd {
	ctx := context.Background()
	switch m.formType {
	case "new":
		_, err := m.engine.Add(ctx, *m.formText, *m.formDescription, *m.formEmoji)
		return resultCmd("Intention added", err)
	case "edit":
		err := m.engine.Edit(ctx, m.editingID, *m.formText, *m.formDescription, *m.formEmoji)
		return resultCmd("Intention updated", err)
	case "delete":
		if !*m.formConfirm {
			return nil
		}
		return resultCmd("Intention deleted", m.engine.Delete(ctx, m.editingID))
	}
	return nil
}

func (m intentionsModel) view() string {
	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Intention")
		switch m.formType {
		case "edit":
			title = titleStyle.Render("Edit Intention")
		case "delete":
			title = titleStyle.Render("Delete Intention")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(m.width - 4).Render(content)
	}

	if m.viewingTrips && m.cursor < len(m.intentions) {
		return m.renderTrips()
	}
	return m.renderList()
}

func (m intentionsModel) renderList() string {
	w := m.width - 4
	title := titleStyle.Render("Intentions")

	if len(m.intentions) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No intentions yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-30s %-6s %-9s %-6s", "", "Intention", "Used", "Post-trip", "30-day")))

	for i, in := range m.intentions {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		post := formatAverage(in.Average(core.RatingPostTrip))
		month := formatAverage(in.Average(core.Rating30Day))
		usage := fmt.Sprintf("%d/%d", in.UsageCount(), intention.UsageCap)
		row := style.Render(fmt.Sprintf("%s%-3s %-30s %-6s %-9s %-6s", cursor, in.Emoji, in.Text, usage, post, month))
		if !in.Available() {
			row += accentStyle.Render(" full")
		}
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: delete  enter: trips"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m intentionsModel) renderTrips() string {
	w := m.width - 4
	in := m.intentions[m.cursor]
	title := titleStyle.Render(fmt.Sprintf("%s %s: Trips", in.Emoji, in.Text))

	var rows []string
	rows = append(rows, title)
	if in.Description != "" {
		rows = append(rows, subtitleStyle.Render(in.Description))
	}
	if len(in.Tags) > 0 {
		rows = append(rows, mutedStyle.Render("tags: "+strings.Join(in.Tags, ", ")))
	}
	rows = append(rows, "")

	if len(in.Trips) == 0 {
		rows = append(rows, mutedStyle.Render("Not used on a trip yet."))
	}
	for _, l := range in.Trips {
		name := l.TripTitle
		if name == "" {
			name = "(trip in preparation)"
		}
		var ratings []string
		for _, r := range l.Ratings.List() {
			if r.Value != nil {
				ratings = append(ratings, fmt.Sprintf("%s %d", r.Type, *r.Value))
			}
		}
		rows = append(rows, fmt.Sprintf("  %s  %-28s %s", l.TripDate.Local().Format("2006-01-02"), name, mutedStyle.Render(strings.Join(ratings, "  "))))
	}

	rows = append(rows, "", mutedStyle.Render("  esc: back"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
