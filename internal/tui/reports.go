package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tripguide/internal/core"
	"github.com/sadopc/tripguide/internal/intention"
)

var barColors = []lipgloss.Color{colorPrimary, colorSecondary, colorAccent, colorSuccess, colorWarning, colorHighlight}

type reportsModel struct {
	engine *intention.Engine
	width  int
	height int

	kind      int // index into core.RatingTypes
	summaries []intention.Summary

	chart barchart.Model
}

func newReportsModel(e *intention.Engine) reportsModel {
	return reportsModel{
		engine: e,
		chart:  barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r reportsModel) ratingType() core.RatingType { return core.RatingTypes[r.kind] }

type reportsDataMsg struct {
	summaries []intention.Summary
}

func (r reportsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return reportsDataMsg{summaries: r.engine.Summaries()}
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.summaries = msg.summaries
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		n := len(core.RatingTypes)
		switch {
		case key.Matches(msg, keys.Left):
			r.kind = (r.kind + n - 1) % n
			r.buildChart()
		case key.Matches(msg, keys.Right):
			r.kind = (r.kind + 1) % n
			r.buildChart()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	kind := r.ratingType()
	var bars []barchart.BarData
	for i, s := range r.summaries {
		avg, ok := s.Averages[kind]
		if !ok {
			continue
		}
		style := lipgloss.NewStyle().Foreground(barColors[i%len(barColors)])
		bars = append(bars, barchart.BarData{
			Label: chartLabel(s),
			Values: []barchart.BarValue{{
				Name:  s.Text,
				Value: avg,
				Style: style,
			}},
		})
	}
	if len(bars) == 0 {
		return
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

// chartLabel keeps bar labels short enough to sit under a bar.
func chartLabel(s intention.Summary) string {
	label := s.Text
	if s.Emoji != "" {
		label = s.Emoji
	}
	if r := []rune(label); len(r) > 8 {
		label = string(r[:8])
	}
	return label
}

func (r reportsModel) view() string {
	w := r.width - 4

	var tabs []string
	for i, t := range core.RatingTypes {
		if i == r.kind {
			tabs = append(tabs, activeTabStyle.Render(string(t)))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(string(t)))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Intention Reports"), "  ", lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...),
	)

	chartView := mutedStyle.Render(fmt.Sprintf("  No %s ratings yet", r.ratingType()))
	if r.hasData() {
		chartView = r.chart.View()
	}

	nav := mutedStyle.Render("  ←/→: rating type")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r reportsModel) hasData() bool {
	kind := r.ratingType()
	for _, s := range r.summaries {
		if _, ok := s.Averages[kind]; ok {
			return true
		}
	}
	return false
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.summaries) == 0 {
		return mutedStyle.Render("  No intentions yet")
	}

	var rows []string
	head := fmt.Sprintf("  %-28s %5s", "Intention", "Used")
	for _, t := range core.RatingTypes {
		head += fmt.Sprintf(" %9s", t)
	}
	rows = append(rows, mutedStyle.Render(head))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 74))))

	for i, s := range r.summaries {
		dot := lipgloss.NewStyle().Foreground(barColors[i%len(barColors)]).Render("●")
		row := fmt.Sprintf("  %s %-26s %5s", dot, strings.TrimSpace(s.Emoji+" "+s.Text),
			fmt.Sprintf("%d/%d", s.UsageCount, intention.UsageCap))
		for _, t := range core.RatingTypes {
			avg, ok := s.Averages[t]
			row += fmt.Sprintf(" %9s", formatAverage(avg, ok))
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}
