package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tripguide/internal/sitter"
)

type sittersModel struct {
	registry *sitter.Registry
	width    int
	height   int

	contacts []sitter.Contact
	cursor   int

	formActive bool
	form       *huh.Form
	editingID  string // empty for a new contact

	// Form values as pointers (survive value copies)
	name         *string
	phone        *string
	relationship *string
	notes        *string
}

func newSittersModel(r *sitter.Registry) sittersModel {
	n, p, rel, notes := "", "", "", ""
	return sittersModel{
		registry:     r,
		name:         &n,
		phone:        &p,
		relationship: &rel,
		notes:        &notes,
	}
}

func (s *sittersModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type sittersDataMsg struct {
	contacts []sitter.Contact
}

func (s sittersModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return sittersDataMsg{contacts: s.registry.List()}
	}
}

func (s sittersModel) update(msg tea.Msg) (sittersModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case sittersDataMsg:
		s.contacts = msg.contacts
		s.cursor = clampCursor(s.cursor, len(s.contacts))
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < len(s.contacts)-1 {
				s.cursor++
			}
		case key.Matches(msg, keys.New):
			return s.showForm(sitter.Contact{})
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
			if len(s.contacts) > 0 {
				return s.showForm(s.contacts[s.cursor])
			}
		case key.Matches(msg, keys.Delete):
			if len(s.contacts) > 0 {
				c := s.contacts[s.cursor]
				err := s.registry.Remove(context.Background(), c.ID)
				return s, tea.Batch(s.refresh(), resultCmd("Removed "+c.Name, err))
			}
		}
	}
	return s, nil
}

func required(field string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func (s sittersModel) showForm(c sitter.Contact) (sittersModel, tea.Cmd) {
	*s.name = c.Name
	*s.phone = c.Phone
	*s.relationship = c.Relationship
	*s.notes = c.Notes
	s.editingID = c.ID

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(s.name).Validate(required("name")),
			huh.NewInput().Title("Phone").Value(s.phone).Validate(required("phone")),
			huh.NewInput().Title("Relationship").Placeholder("friend, partner, guide").Value(s.relationship),
			huh.NewText().Title("Notes").Value(s.notes),
		).Title("Trip Sitter"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s sittersModel) updateForm(msg tea.Msg) (sittersModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, tea.Batch(s.refresh(), s.save())
	}
	return s, cmd
}

func (s sittersModel) save() tea.Cmd {
	c := sitter.Contact{
		ID:           s.editingID,
		Name:         *s.name,
		Phone:        *s.phone,
		Relationship: strings.TrimSpace(*s.relationship),
		Notes:        strings.TrimSpace(*s.notes),
	}
	ctx := context.Background()
	if c.ID == "" {
		_, err := s.registry.Add(ctx, c)
		return resultCmd("Added "+strings.TrimSpace(c.Name), err)
	}
	return resultCmd("Saved "+strings.TrimSpace(c.Name), s.registry.Update(ctx, c))
}

func (s sittersModel) view() string {
	w := s.width - 4
	if s.formActive && s.form != nil {
		title := "New Trip Sitter"
		if s.editingID != "" {
			title = "Edit Trip Sitter"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", s.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Trip Sitters")
	if len(s.contacts) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("Nobody yet. Press n to add someone you trust."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-24s %-18s %s", "Name", "Phone", "Relationship")))
	for i, c := range s.contacts {
		cursor := "  "
		style := normalItemStyle
		if i == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-24s %-18s %s", cursor, c.Name, c.Phone, c.Relationship)))
	}
	rows = append(rows, "", mutedStyle.Render("  n: new  e: edit  d: remove"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
