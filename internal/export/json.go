package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/tripguide/internal/history"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Trips      []jsonTrip `json:"trips"`
}

type jsonTrip struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	StartTime       string          `json:"start_time"`
	EndTime         string          `json:"end_time"`
	DurationSeconds int64           `json:"duration_seconds"`
	Duration        string          `json:"duration"`
	Substance       string          `json:"substance,omitempty"`
	Dose            string          `json:"dose,omitempty"`
	Sitter          string          `json:"sitter,omitempty"`
	PostTripRated   bool            `json:"post_trip_rated"`
	Intentions      []jsonIntention `json:"intentions"`
	Notes           []string        `json:"notes,omitempty"`
}

type jsonIntention struct {
	ID      string         `json:"id"`
	Text    string         `json:"text"`
	Ratings map[string]int `json:"ratings,omitempty"`
	Notes   []string       `json:"notes,omitempty"`
}

func ToJSON(entries []history.Entry, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
	}

	for _, e := range entries {
		t := jsonTrip{
			ID:              e.ID,
			Title:           e.Title,
			StartTime:       e.StartTime.Local().Format(time.RFC3339),
			EndTime:         e.EndTime.Local().Format(time.RFC3339),
			DurationSeconds: int64(e.Duration() / time.Second),
			Duration:        formatDuration(e.Duration()),
			Substance:       e.Dose.Substance,
			Dose:            formatDose(e),
			PostTripRated:   e.PostTripRated,
			Intentions:      []jsonIntention{},
		}
		if e.TripSitter != nil {
			t.Sitter = e.TripSitter.Name
		}
		for _, n := range e.GeneralNotes {
			t.Notes = append(t.Notes, n.Content)
		}
		for _, rec := range e.Intentions {
			in := jsonIntention{ID: rec.ID, Text: rec.Text}
			for _, r := range rec.Ratings.List() {
				if r.Value == nil {
					continue
				}
				if in.Ratings == nil {
					in.Ratings = make(map[string]int)
				}
				in.Ratings[string(r.Type)] = *r.Value
			}
			for _, n := range rec.Notes {
				in.Notes = append(in.Notes, n.Content)
			}
			t.Intentions = append(t.Intentions, in)
		}
		export.Trips = append(export.Trips, t)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
