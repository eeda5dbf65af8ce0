package services

import (
	"context"
	"testing"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"

	"github.com/GoldenRodger5/Quizium/internal/models"
	"github.com/GoldenRodger5/Quizium/internal/store"
)

func TestOutcomeRating(t *testing.T) {
	if got := outcomeRating(true, false); got != fsrs.Good {
		t.Errorf("correct = %v, want Good", got)
	}
	if got := outcomeRating(false, false); got != fsrs.Again {
		t.Errorf("incorrect = %v, want Again", got)
	}
	if got := outcomeRating(false, true); got != fsrs.Hard {
		t.Errorf("skip = %v, want Hard", got)
	}
}

func TestRecordOutcomeSchedulesCard(t *testing.T) {
	st := store.NewMemoryStore()
	review := NewReview(st)

	card := models.Flashcard{Type: models.CardFact, Prompt: "p", Content: "c"}
	review.RecordOutcome(context.Background(), "set1", card, fsrs.Again)

	// A card rated Again is due immediately (short relearning interval).
	review.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	due, err := review.DueCards(context.Background(), "set1")
	if err != nil {
		t.Fatalf("due cards: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("got %d due cards, want 1", len(due))
	}
	if due[0].Question != "p" || due[0].Answer != "c" {
		t.Errorf("due card = %+v", due[0])
	}
	if due[0].Reps != 1 {
		t.Errorf("reps = %d, want 1", due[0].Reps)
	}
	if due[0].LastRating != int(fsrs.Again) {
		t.Errorf("last rating = %d, want %d", due[0].LastRating, int(fsrs.Again))
	}
}

func TestRepeatedOutcomesPushDueForward(t *testing.T) {
	st := store.NewMemoryStore()
	review := NewReview(st)

	card := models.Flashcard{Type: models.CardQuestionAnswer, Question: "q", Answer: "a"}
	base := time.Now().UTC()
	review.now = func() time.Time { return base }

	review.RecordOutcome(context.Background(), "set1", card, fsrs.Good)
	state, err := review.loadState(context.Background(), "set1")
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	var firstDue time.Time
	for _, entry := range state {
		firstDue = entry.Card.Due
	}

	// Review again later; the next due date must move further out.
	base = firstDue.Add(time.Hour)
	review.RecordOutcome(context.Background(), "set1", card, fsrs.Good)
	state, err = review.loadState(context.Background(), "set1")
	if err != nil {
		t.Fatalf("reload state: %v", err)
	}
	if len(state) != 1 {
		t.Fatalf("same card produced %d entries, want 1", len(state))
	}
	for _, entry := range state {
		if !entry.Card.Due.After(firstDue) {
			t.Errorf("second due %v not after first %v", entry.Card.Due, firstDue)
		}
		if entry.Reps != 2 {
			t.Errorf("reps = %d, want 2", entry.Reps)
		}
	}
}

func TestDueCardsEmptyForUnknownSet(t *testing.T) {
	review := NewReview(store.NewMemoryStore())
	due, err := review.DueCards(context.Background(), "never-studied")
	if err != nil {
		t.Fatalf("due cards: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("got %d due cards, want 0", len(due))
	}
}
