package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/tripguide/internal/core"
	"github.com/sadopc/tripguide/internal/history"
)

var csvHeader = []string{"Trip ID", "Title", "Start", "End", "Duration", "Substance", "Dose",
	"Intention", "Post-trip", "7-day", "14-day", "30-day"}

// ToCSV writes one row per trip and intention. A trip without intentions
// still gets a row with the intention columns left empty.
func ToCSV(entries []history.Entry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range entries {
		base := []string{
			e.ID,
			e.Title,
			e.StartTime.Local().Format(time.RFC3339),
			e.EndTime.Local().Format(time.RFC3339),
			formatDuration(e.Duration()),
			e.Dose.Substance,
			formatDose(e),
		}
		if len(e.Intentions) == 0 {
			if err := w.Write(append(base, "", "", "", "", "")); err != nil {
				return err
			}
			continue
		}
		for _, rec := range e.Intentions {
			row := append(append([]string(nil), base...), rec.Text)
			for _, kind := range core.RatingTypes {
				row = append(row, ratingCell(rec.Ratings, kind))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	return w.Error()
}

func ratingCell(s core.RatingSet, kind core.RatingType) string {
	if v, ok := s.Value(kind); ok {
		return strconv.Itoa(v)
	}
	return ""
}

func formatDose(e history.Entry) string {
	if e.Dose.Amount == 0 {
		return ""
	}
	return fmt.Sprintf("%s %s", strconv.FormatFloat(e.Dose.Amount, 'f', -1, 64), e.Dose.Unit)
}

func formatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
