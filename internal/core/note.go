package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type NoteType string

const (
	NoteDuring   NoteType = "during"
	NotePost     NoteType = "post"
	NoteFollowup NoteType = "followup"
)

type Note struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Type        NoteType  `json:"type"`
	FollowupDay *int      `json:"followupDay,omitempty"`
}

// NewNote builds a validated note with a fresh id.
func NewNote(kind NoteType, content string, at time.Time) (Note, error) {
	n := Note{
		ID:        uuid.NewString(),
		Content:   strings.TrimSpace(content),
		Timestamp: at,
		Type:      kind,
	}
	return n, n.Validate()
}

// NewFollowupNote builds a followup note tagged with the follow-up day (7, 14 or 30).
func NewFollowupNote(day int, content string, at time.Time) (Note, error) {
	n, err := NewNote(NoteFollowup, content, at)
	if err != nil {
		return n, err
	}
	n.FollowupDay = &day
	return n, n.Validate()
}

func (n Note) Validate() error {
	if n.ID == "" {
		return invalid("note id", "empty")
	}
	if strings.TrimSpace(n.Content) == "" {
		return invalid("note content", "empty")
	}
	switch n.Type {
	case NoteDuring, NotePost:
		if n.FollowupDay != nil {
			return invalid("note followup day", "only allowed on followup notes")
		}
	case NoteFollowup:
		if n.FollowupDay != nil {
			if _, ok := RatingForFollowupDay(*n.FollowupDay); !ok {
				return invalid("note followup day", "%d is not a follow-up day", *n.FollowupDay)
			}
		}
	default:
		return invalid("note type", "unknown type %q", n.Type)
	}
	return nil
}
