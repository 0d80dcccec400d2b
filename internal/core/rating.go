package core

import (
	"encoding/json"
	"time"
)

type RatingType string

const (
	RatingPostTrip RatingType = "post-trip"
	Rating7Day     RatingType = "7-day"
	Rating14Day    RatingType = "14-day"
	Rating30Day    RatingType = "30-day"
)

// RatingTypes lists every rating type in canonical order.
var RatingTypes = []RatingType{RatingPostTrip, Rating7Day, Rating14Day, Rating30Day}

// FollowupTypes lists the time-gated rating types.
var FollowupTypes = []RatingType{Rating7Day, Rating14Day, Rating30Day}

const (
	MinRatingValue = 1
	MaxRatingValue = 5
)

func (t RatingType) Valid() bool {
	for _, rt := range RatingTypes {
		if t == rt {
			return true
		}
	}
	return false
}

// FollowupDays returns the number of days after a trip's end at which the
// rating opens. It is false for post-trip ratings.
func (t RatingType) FollowupDays() (int, bool) {
	switch t {
	case Rating7Day:
		return 7, true
	case Rating14Day:
		return 14, true
	case Rating30Day:
		return 30, true
	}
	return 0, false
}

// RatingForFollowupDay maps 7, 14 and 30 to their rating type.
func RatingForFollowupDay(day int) (RatingType, bool) {
	for _, t := range FollowupTypes {
		if d, _ := t.FollowupDays(); d == day {
			return t, true
		}
	}
	return "", false
}

// Rating is a single score. A nil Value means "not yet rated" and is ignored
// by averages.
type Rating struct {
	Type      RatingType `json:"type"`
	Value     *int       `json:"value"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewRating validates and builds a rating.
func NewRating(kind RatingType, value *int, at time.Time) (Rating, error) {
	r := Rating{Type: kind, Timestamp: at}
	if value != nil {
		v := *value
		r.Value = &v
	}
	return r, r.Validate()
}

func (r Rating) Validate() error {
	if !r.Type.Valid() {
		return invalid("rating type", "unknown type %q", r.Type)
	}
	if r.Value != nil && (*r.Value < MinRatingValue || *r.Value > MaxRatingValue) {
		return invalid("rating value", "%d is outside %d..%d", *r.Value, MinRatingValue, MaxRatingValue)
	}
	return nil
}

// Rated reports whether the rating carries a value.
func (r Rating) Rated() bool { return r.Value != nil }

// RatingSet holds at most one Rating per type. It serialises as a JSON list
// in canonical type order.
type RatingSet struct {
	byType map[RatingType]Rating
}

// Put stores r, replacing any rating of the same type.
func (s *RatingSet) Put(r Rating) {
	if s.byType == nil {
		s.byType = make(map[RatingType]Rating, len(RatingTypes))
	}
	if r.Value != nil {
		v := *r.Value
		r.Value = &v
	}
	s.byType[r.Type] = r
}

func (s RatingSet) Get(t RatingType) (Rating, bool) {
	r, ok := s.byType[t]
	return r, ok
}

// Value returns the rated value of type t, if any.
func (s RatingSet) Value(t RatingType) (int, bool) {
	r, ok := s.byType[t]
	if !ok || r.Value == nil {
		return 0, false
	}
	return *r.Value, true
}

func (s RatingSet) Len() int { return len(s.byType) }

// List returns the ratings in canonical type order.
func (s RatingSet) List() []Rating {
	out := make([]Rating, 0, len(s.byType))
	for _, t := range RatingTypes {
		if r, ok := s.byType[t]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (s RatingSet) Clone() RatingSet {
	var c RatingSet
	for _, r := range s.byType {
		c.Put(r)
	}
	return c
}

func (s RatingSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON accepts a list; a later rating of a repeated type replaces
// the earlier one.
func (s *RatingSet) UnmarshalJSON(data []byte) error {
	var list []Rating
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	s.byType = nil
	for _, r := range list {
		if !r.Type.Valid() {
			continue
		}
		s.Put(r)
	}
	return nil
}

// RatingSetOf builds a set from ratings, later entries winning.
func RatingSetOf(ratings ...Rating) RatingSet {
	var s RatingSet
	for _, r := range ratings {
		s.Put(r)
	}
	return s
}

// IntPtr is a small helper for building rating values.
func IntPtr(v int) *int { return &v }
