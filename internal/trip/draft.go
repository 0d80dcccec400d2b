package trip

import (
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/tripguide/internal/core"
	"github.com/sadopc/tripguide/internal/sitter"
)

type Dose struct {
	Substance string  `json:"substance"`
	Amount    float64 `json:"amount"`
	Unit      string  `json:"unit"`
}

// Confirmation records that the user went through the set or setting
// questions, plus anything they wrote down.
type Confirmation struct {
	Confirmed bool   `json:"confirmed"`
	Notes     string `json:"notes,omitempty"`
}

// Safety is the checklist of named boolean flags.
type Safety map[string]bool

const (
	SafetyMedicationsReviewed = "medications-reviewed"
	SafetyEmergencyPlan       = "emergency-plan"
	SafetyTestedSubstance     = "tested-substance"
	SafetyHydrationReady      = "hydration-ready"
)

// RequiredSafetyChecks must all be true before the setup counts as complete.
var RequiredSafetyChecks = []string{SafetyMedicationsReviewed, SafetyEmergencyPlan}

// SafetyChecks lists every known check, required first.
var SafetyChecks = []string{SafetyMedicationsReviewed, SafetyEmergencyPlan, SafetyTestedSubstance, SafetyHydrationReady}

func (s Safety) RequiredMet() bool {
	for _, k := range RequiredSafetyChecks {
		if !s[k] {
			return false
		}
	}
	return true
}

func (s Safety) Clone() Safety {
	if s == nil {
		return nil
	}
	c := make(Safety, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// DraftIntention is an intention selected for the trip being prepared.
type DraftIntention struct {
	ID          string      `json:"id"`
	Emoji       string      `json:"emoji,omitempty"`
	Text        string      `json:"text"`
	Description string      `json:"description,omitempty"`
	Notes       []core.Note `json:"notes,omitempty"`
}

// Draft is the trip being prepared or currently under way.
type Draft struct {
	// ID is allocated up front so intentions can be linked during setup.
	ID           string           `json:"id"`
	Dose         Dose             `json:"dose"`
	Set          Confirmation     `json:"set"`
	Setting      Confirmation     `json:"setting"`
	Safety       Safety           `json:"safety,omitempty"`
	TripSitter   *sitter.Contact  `json:"tripSitter,omitempty"`
	Intentions   []DraftIntention `json:"intentions,omitempty"`
	GeneralNotes []core.Note      `json:"generalNotes,omitempty"`
	StartTime    *time.Time       `json:"startTime"`
	CurrentPhase Phase            `json:"currentPhase"`
}

// NewDraft returns an empty draft with a fresh trip id.
func NewDraft() Draft {
	return Draft{ID: uuid.NewString()}
}

func (d Draft) Active() bool { return d.StartTime != nil }

// Missing lists the setup steps that are still open. It is advisory; starting
// a trip does not require an empty list.
func (d Draft) Missing() []string {
	var missing []string
	if d.Dose.Substance == "" {
		missing = append(missing, "dose")
	}
	if !d.Set.Confirmed {
		missing = append(missing, "set")
	}
	if !d.Setting.Confirmed {
		missing = append(missing, "setting")
	}
	if !d.Safety.RequiredMet() {
		missing = append(missing, "safety")
	}
	return missing
}

// HasIntention reports whether the intention is selected for this trip.
func (d Draft) HasIntention(id string) bool {
	for _, in := range d.Intentions {
		if in.ID == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (d Draft) Clone() Draft {
	c := d
	c.Safety = d.Safety.Clone()
	if d.TripSitter != nil {
		ts := *d.TripSitter
		c.TripSitter = &ts
	}
	if d.StartTime != nil {
		st := *d.StartTime
		c.StartTime = &st
	}
	c.Intentions = cloneIntentions(d.Intentions)
	c.GeneralNotes = cloneNotes(d.GeneralNotes)
	return c
}

func cloneIntentions(in []DraftIntention) []DraftIntention {
	if in == nil {
		return nil
	}
	out := make([]DraftIntention, len(in))
	for i, di := range in {
		di.Notes = cloneNotes(di.Notes)
		out[i] = di
	}
	return out
}

func cloneNotes(in []core.Note) []core.Note {
	if in == nil {
		return nil
	}
	out := make([]core.Note, len(in))
	copy(out, in)
	return out
}
