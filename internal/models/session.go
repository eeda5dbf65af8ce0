package models

import "time"

// StudySession is a bounded, shuffled subset of a flashcard set with tracked
// progress. Questions are copied at creation; later edits to the source set
// do not affect a running session.
//
// Invariants: 0 <= Cursor <= Total and 0 <= Score <= Cursor. Cursor and
// Score only ever grow; the session is complete once Cursor == Total.
type StudySession struct {
	ID        string      `json:"id"`
	SourceSet string      `json:"source_set"`
	Questions []Flashcard `json:"questions"`
	Cursor    int         `json:"cursor"`
	Score     int         `json:"score"`
	Total     int         `json:"total"`
	CreatedAt time.Time   `json:"created_at"`
}

// Complete reports whether every question has been answered.
func (s *StudySession) Complete() bool {
	return s.Cursor >= s.Total
}

// Current returns the flashcard at the cursor. Callers must check Complete
// first; Current on a finished session returns the zero Flashcard.
func (s *StudySession) Current() (Flashcard, bool) {
	if s.Complete() {
		return Flashcard{}, false
	}
	return s.Questions[s.Cursor], true
}

// Percentage is the final score as a percentage of Total. Sessions are
// rejected at creation when empty, so Total is always positive here.
func (s *StudySession) Percentage() float64 {
	return float64(s.Score) / float64(s.Total) * 100
}
