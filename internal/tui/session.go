package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tripguide/internal/guide"
	"github.com/sadopc/tripguide/internal/intention"
	"github.com/sadopc/tripguide/internal/sitter"
	"github.com/sadopc/tripguide/internal/trip"
)

type pickerKind int

const (
	pickNone pickerKind = iota
	pickIntentions
	pickSitter
)

var safetyLabels = map[string]string{
	trip.SafetyMedicationsReviewed: "Medications reviewed",
	trip.SafetyEmergencyPlan:       "Emergency plan in place",
	trip.SafetyTestedSubstance:     "Substance tested",
	trip.SafetyHydrationReady:      "Water and snacks ready",
}

type sessionModel struct {
	guide  *guide.Guide
	timer  timerModel
	width  int
	height int

	draft      trip.Draft
	intentions []intention.Intention
	sitters    []sitter.Contact

	picking      pickerKind
	pickerCursor int

	formActive bool
	form       *huh.Form
	formType   string // "setup", "note", "end", "discard"

	// Form field pointers (survive value copies)
	substance    *string
	amount       *string
	unit         *string
	setOK        *bool
	setNotes     *string
	settingOK    *bool
	settingNotes *string
	safety       *[]string
	note         *string
	title        *string
	confirm      *bool
}

func newSessionModel(g *guide.Guide) sessionModel {
	var substance, amount, unit, setNotes, settingNotes, note, title string
	var setOK, settingOK, confirm bool
	var safety []string
	m := sessionModel{
		guide:        g,
		timer:        newTimerModel(g.Session()),
		substance:    &substance,
		amount:       &amount,
		unit:         &unit,
		setOK:        &setOK,
		setNotes:     &setNotes,
		settingOK:    &settingOK,
		settingNotes: &settingNotes,
		safety:       &safety,
		note:         &note,
		title:        &title,
		confirm:      &confirm,
	}
	m.draft = g.Session().Draft()
	return m
}

func (s *sessionModel) setSize(w, h int) {
	s.width = w
	s.height = h
	s.timer.setWidth(w - 10)
}

func (s sessionModel) isRunning() bool { return s.timer.running() }

type sessionDataMsg struct {
	draft      trip.Draft
	intentions []intention.Intention
	sitters    []sitter.Contact
}

func (s sessionModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return sessionDataMsg{
			draft:      s.guide.Session().Draft(),
			intentions: s.guide.Intentions().List(),
			sitters:    s.guide.Sitters().List(),
		}
	}
}

func (s sessionModel) capturing() bool {
	return s.formActive || s.picking != pickNone
}

func (s sessionModel) update(msg tea.Msg) (sessionModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case sessionDataMsg:
		s.draft = msg.draft
		s.intentions = msg.intentions
		s.sitters = msg.sitters
		s.timer.tick()
		return s, nil

	case tickMsg:
		s.timer.tick()
		return s, nil

	case tea.KeyMsg:
		if s.picking != pickNone {
			return s.updatePicker(msg)
		}
		if s.timer.running() {
			return s.updateActive(msg)
		}
		return s.updateSetup(msg)
	}
	return s, nil
}

func (s sessionModel) updateSetup(msg tea.KeyMsg) (sessionModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Setup):
		return s.showSetupForm()
	case key.Matches(msg, keys.Pick):
		s.picking = pickIntentions
		s.pickerCursor = 0
		return s, s.refresh()
	case key.Matches(msg, keys.Sitter):
		s.picking = pickSitter
		s.pickerCursor = 0
		return s, s.refresh()
	case key.Matches(msg, keys.Start):
		return s.startTrip()
	case key.Matches(msg, keys.Stop):
		return s.showConfirmForm("discard", "Discard this trip setup?")
	}
	return s, nil
}

func (s sessionModel) updateActive(msg tea.KeyMsg) (sessionModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Phase):
		next, err := s.guide.Session().AdvancePhase(context.Background())
		s.timer.tick()
		return s, tea.Batch(s.refresh(), resultCmd("Now in "+next.Label(), err))
	case key.Matches(msg, keys.Note):
		return s.showNoteForm()
	case key.Matches(msg, keys.Stop):
		return s.showEndForm()
	}
	return s, nil
}

func (s sessionModel) startTrip() (sessionModel, tea.Cmd) {
	err := s.guide.StartTrip(context.Background())
	s.timer.tick()
	return s, tea.Batch(s.refresh(), resultCmd("Trip started. Come-up phase.", err))
}

// --- Pickers ---

func (s sessionModel) pickerLen() int {
	if s.picking == pickSitter {
		return len(s.sitters) + 1 // "no sitter" row
	}
	return len(s.intentions)
}

func (s sessionModel) updatePicker(msg tea.KeyMsg) (sessionModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if s.pickerCursor > 0 {
			s.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if s.pickerCursor < s.pickerLen()-1 {
			s.pickerCursor++
		}
	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Select):
		if s.picking == pickSitter {
			return s.chooseSitter()
		}
		return s.toggleIntention()
	case key.Matches(msg, keys.Back):
		s.picking = pickNone
	}
	return s, nil
}

func (s sessionModel) toggleIntention() (sessionModel, tea.Cmd) {
	if s.pickerCursor >= len(s.intentions) {
		return s, nil
	}
	in := s.intentions[s.pickerCursor]
	ctx := context.Background()
	if s.draft.HasIntention(in.ID) {
		err := s.guide.DeselectIntention(ctx, in.ID)
		return s, tea.Batch(s.refresh(), resultCmd("Removed "+in.Text, err))
	}
	err := s.guide.SelectIntention(ctx, in.ID)
	return s, tea.Batch(s.refresh(), resultCmd("Added "+in.Text, err))
}

func (s sessionModel) chooseSitter() (sessionModel, tea.Cmd) {
	s.picking = pickNone
	if s.pickerCursor == 0 {
		err := s.guide.SetTripSitter(context.Background(), "")
		return s, tea.Batch(s.refresh(), resultCmd("No trip sitter", err))
	}
	c := s.sitters[s.pickerCursor-1]
	err := s.guide.SetTripSitter(context.Background(), c.ID)
	return s, tea.Batch(s.refresh(), resultCmd("Trip sitter: "+c.Name, err))
}

// --- Forms ---

func (s sessionModel) showSetupForm() (sessionModel, tea.Cmd) {
	d := s.draft
	*s.substance = d.Dose.Substance
	*s.amount = ""
	if d.Dose.Amount > 0 {
		*s.amount = strconv.FormatFloat(d.Dose.Amount, 'f', -1, 64)
	}
	*s.unit = d.Dose.Unit
	*s.setOK = d.Set.Confirmed
	*s.setNotes = d.Set.Notes
	*s.settingOK = d.Setting.Confirmed
	*s.settingNotes = d.Setting.Notes
	*s.safety = (*s.safety)[:0]
	for _, k := range trip.SafetyChecks {
		if d.Safety[k] {
			*s.safety = append(*s.safety, k)
		}
	}

	safetyOptions := make([]huh.Option[string], len(trip.SafetyChecks))
	for i, k := range trip.SafetyChecks {
		safetyOptions[i] = huh.NewOption(safetyLabels[k], k)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Substance").Value(s.substance),
			huh.NewInput().Title("Amount").Value(s.amount).Validate(validateAmount),
			huh.NewInput().Title("Unit").Placeholder("g, mg, µg").Value(s.unit),
		).Title("Dose"),
		huh.NewGroup(
			huh.NewConfirm().Title("Is your mindset ready?").Value(s.setOK),
			huh.NewText().Title("Set notes").Value(s.setNotes),
			huh.NewConfirm().Title("Is the space safe and comfortable?").Value(s.settingOK),
			huh.NewText().Title("Setting notes").Value(s.settingNotes),
		).Title("Set and setting"),
		huh.NewGroup(
			huh.NewMultiSelect[string]().Title("Safety checklist").Options(safetyOptions...).Value(s.safety),
		).Title("Safety"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formType = "setup"
	s.formActive = true
	return s, s.form.Init()
}

func validateAmount(v string) error {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f < 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}

func (s sessionModel) showNoteForm() (sessionModel, tea.Cmd) {
	*s.note = ""
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().Title("Note").Value(s.note),
		),
	).WithShowHelp(true).WithShowErrors(true)
	s.formType = "note"
	s.formActive = true
	return s, s.form.Init()
}

func (s sessionModel) showEndForm() (sessionModel, tea.Cmd) {
	*s.title = ""
	*s.confirm = false
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Placeholder("optional").Value(s.title),
			huh.NewConfirm().Title("End this trip now?").Affirmative("End trip").Negative("Keep going").Value(s.confirm),
		),
	).WithShowHelp(true).WithShowErrors(true)
	s.formType = "end"
	s.formActive = true
	return s, s.form.Init()
}

func (s sessionModel) showConfirmForm(formType, question string) (sessionModel, tea.Cmd) {
	*s.confirm = false
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title(question).Value(s.confirm),
		),
	).WithShowHelp(true).WithShowErrors(true)
	s.formType = formType
	s.formActive = true
	return s, s.form.Init()
}

func (s sessionModel) updateForm(msg tea.Msg) (sessionModel, tea.Cmd) {
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

	switch s.form.State {
	case huh.StateCompleted:
		s.formActive = false
		return s.submitForm()
	case huh.StateAborted:
		s.formActive = false
		s.form = nil
		return s, nil
	}
	return s, cmd
}

func (s sessionModel) submitForm() (sessionModel, tea.Cmd) {
	switch s.formType {
	case "setup":
		return s, tea.Batch(s.refresh(), s.applySetup())
	case "note":
		return s, s.applyNote()
	case "end":
		if !*s.confirm {
			return s, nil
		}
		return s.applyEnd()
	case "discard":
		if !*s.confirm {
			return s, nil
		}
		err := s.guide.DiscardDraft(context.Background())
		return s, tea.Batch(s.refresh(), resultCmd("Setup discarded", err))
	}
	return s, nil
}

// applySetup writes the setup form into the draft.
func (s sessionModel) applySetup() tea.Cmd {
	ctx := context.Background()
	sess := s.guide.Session()
	amount, _ := strconv.ParseFloat(strings.TrimSpace(*s.amount), 64)

	safety := make(trip.Safety, len(trip.SafetyChecks))
	for _, k := range trip.SafetyChecks {
		safety[k] = false
	}
	for _, k := range *s.safety {
		safety[k] = true
	}

	errs := []error{
		sess.UpdateDose(ctx, trip.Dose{
			Substance: strings.TrimSpace(*s.substance),
			Amount:    amount,
			Unit:      strings.TrimSpace(*s.unit),
		}),
		sess.UpdateSet(ctx, trip.Confirmation{Confirmed: *s.setOK, Notes: strings.TrimSpace(*s.setNotes)}),
		sess.UpdateSetting(ctx, trip.Confirmation{Confirmed: *s.settingOK, Notes: strings.TrimSpace(*s.settingNotes)}),
		sess.UpdateSafety(ctx, safety),
	}
	return resultCmd("Setup saved", firstErr(errs))
}

func (s sessionModel) applyNote() tea.Cmd {
	if strings.TrimSpace(*s.note) == "" {
		return nil
	}
	_, err := s.guide.AddTripNote(context.Background(), *s.note)
	return tea.Batch(s.refresh(), resultCmd("Note added", err))
}

func (s sessionModel) applyEnd() (sessionModel, tea.Cmd) {
	entry, err := s.guide.EndTrip(context.Background(), *s.title)
	s.timer.tick()
	if entry.ID == "" {
		return s, resultCmd("", err)
	}
	ended := func() tea.Msg { return tripEndedMsg{tripID: entry.ID} }
	return s, tea.Batch(s.refresh(), ended, resultCmd("Trip recorded. Rate it in History (3).", err))
}

func firstErr(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// --- View ---

func (s sessionModel) view() string {
	if s.width < 20 {
		return "Terminal too small"
	}
	w := s.width - 4

	if s.formActive && s.form != nil {
		titles := map[string]string{
			"setup":   "Trip Setup",
			"note":    "Add Note",
			"end":     "End Trip",
			"discard": "Discard Setup",
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(titles[s.formType]), "", s.form.View())
		return panelStyle.Width(w).Render(content)
	}

	if s.timer.running() {
		return lipgloss.JoinVertical(lipgloss.Left, s.renderClock(w), s.renderTripIntentions(w))
	}

	bottom := s.renderTripIntentions(w)
	switch s.picking {
	case pickIntentions:
		bottom = s.renderIntentionPicker(w)
	case pickSitter:
		bottom = s.renderSitterPicker(w)
	}
	return lipgloss.JoinVertical(lipgloss.Left, s.renderSetup(w), bottom)
}

func (s sessionModel) renderClock(w int) string {
	p := s.timer.progress
	clock := clockActiveStyle.Width(w - 6).Render(formatDuration(s.timer.elapsed()))
	phase := phaseStyle(p.CurrentPhase).Render("● " + p.CurrentPhase.Label())

	lines := []string{
		clock,
		phase,
		"",
		s.timer.barView(),
		mutedStyle.Render(fmt.Sprintf("%.0f%% of the trip, %s left", p.Percent, p.RemainingText())),
	}
	if p.HasNextPhase {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%s left in %s", p.PhaseRemainingText(), strings.ToLower(p.CurrentPhase.Label()))))
	}
	if p.PhaseBehindSchedule() {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("By the clock this is the %s. Press p when you feel the shift.",
			strings.ToLower(p.ScheduledPhase.Label()))))
	}
	if d := s.draft; d.TripSitter != nil {
		lines = append(lines, "", highlightStyle.Render(fmt.Sprintf("Trip sitter: %s  %s", d.TripSitter.Name, d.TripSitter.Phone)))
	}
	lines = append(lines, "", mutedStyle.Render("p: next phase  a: add note  x: end trip"))

	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (s sessionModel) renderSetup(w int) string {
	d := s.draft
	check := func(ok bool) string {
		if ok {
			return successStyle.Render("✓")
		}
		return mutedStyle.Render("○")
	}

	dose := mutedStyle.Render("not set")
	if d.Dose.Substance != "" {
		dose = d.Dose.Substance
		if d.Dose.Amount > 0 {
			dose += fmt.Sprintf(" %s %s", strconv.FormatFloat(d.Dose.Amount, 'f', -1, 64), d.Dose.Unit)
		}
	}
	sitterName := mutedStyle.Render("none")
	if d.TripSitter != nil {
		sitterName = d.TripSitter.Name
	}

	rows := []string{
		titleStyle.Render("Prepare your trip"),
		clockStyle.Width(w - 6).Render(formatDuration(0)),
		"",
		fmt.Sprintf("  %s Dose      %s", check(d.Dose.Substance != ""), dose),
		fmt.Sprintf("  %s Set", check(d.Set.Confirmed)),
		fmt.Sprintf("  %s Setting", check(d.Setting.Confirmed)),
		fmt.Sprintf("  %s Safety", check(d.Safety.RequiredMet())),
		fmt.Sprintf("  %s Sitter    %s", check(d.TripSitter != nil), sitterName),
	}
	if missing := d.Missing(); len(missing) > 0 {
		rows = append(rows, "", warningStyle.Render("  Still open: "+strings.Join(missing, ", ")))
	} else {
		rows = append(rows, "", successStyle.Render("  Ready when you are."))
	}
	rows = append(rows, "", mutedStyle.Render("  u: setup  i: intentions  t: sitter  s: start  x: discard"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (s sessionModel) renderTripIntentions(w int) string {
	title := titleStyle.Render("Intentions for this trip")
	if len(s.draft.Intentions) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("None selected")))
	}
	rows := []string{title}
	for _, in := range s.draft.Intentions {
		rows = append(rows, fmt.Sprintf("  %s %s", in.Emoji, in.Text))
	}
	if n := len(s.draft.GeneralNotes); n > 0 {
		rows = append(rows, "", mutedStyle.Render(fmt.Sprintf("  %d notes", n)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (s sessionModel) renderIntentionPicker(w int) string {
	rows := []string{titleStyle.Render("Select Intentions")}
	if len(s.intentions) == 0 {
		rows = append(rows, mutedStyle.Render("No intentions yet. Press 2 to create some."))
	}
	for i, in := range s.intentions {
		cursor := "  "
		style := normalItemStyle
		if i == s.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		mark := "[ ]"
		if s.draft.HasIntention(in.ID) {
			mark = "[x]"
		} else if !in.Available() {
			style = mutedStyle
			mark = " - "
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s %-28s %d/%d", cursor, mark, in.Emoji, in.Text, in.UsageCount(), intention.UsageCap)))
	}
	rows = append(rows, "", mutedStyle.Render("  space: toggle  esc: done"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (s sessionModel) renderSitterPicker(w int) string {
	rows := []string{titleStyle.Render("Select Trip Sitter")}
	names := []string{"No sitter"}
	for _, c := range s.sitters {
		names = append(names, fmt.Sprintf("%s  %s", c.Name, c.Phone))
	}
	for i, n := range names {
		cursor := "  "
		style := normalItemStyle
		if i == s.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+n))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: select  esc: cancel"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
