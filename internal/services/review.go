package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"sort"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"

	"github.com/GoldenRodger5/Quizium/internal/models"
	"github.com/GoldenRodger5/Quizium/internal/store"
)

// CardReview tracks FSRS scheduling state for one card of a set.
type CardReview struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Card       fsrs.Card `json:"card"`
	Reps       int       `json:"reps"`
	LastRating int       `json:"last_rating"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// DueCard is a card scheduled for re-study.
type DueCard struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Due        time.Time `json:"due"`
	Reps       int       `json:"reps"`
	LastRating int       `json:"last_rating"`
}

// Review schedules cards for re-study with FSRS, fed by session outcomes:
// a correct answer rates Good, a wrong one Again, a skip Hard.
type Review struct {
	store  store.Store
	params fsrs.Parameters
	now    func() time.Time
}

func NewReview(st store.Store) *Review {
	return &Review{
		store:  st,
		params: fsrs.DefaultParam(),
		now:    time.Now,
	}
}

func outcomeRating(correct, skipped bool) fsrs.Rating {
	switch {
	case skipped:
		return fsrs.Hard
	case correct:
		return fsrs.Good
	default:
		return fsrs.Again
	}
}

// RecordOutcome advances the FSRS state of card within set. Review
// bookkeeping is best effort and never fails the submit that triggered it.
func (r *Review) RecordOutcome(ctx context.Context, setID string, card models.Flashcard, rating fsrs.Rating) {
	if err := r.record(ctx, setID, card, rating); err != nil {
		fmt.Fprintf(os.Stderr, "record review outcome for set %s: %v\n", setID, err)
	}
}

func (r *Review) record(ctx context.Context, setID string, card models.Flashcard, rating fsrs.Rating) error {
	state, err := r.loadState(ctx, setID)
	if err != nil {
		return err
	}

	question, answer := card.Normalize()
	key := cardKey(question, answer)

	entry, ok := state[key]
	if !ok {
		entry = CardReview{
			Question: question,
			Answer:   answer,
			Card:     fsrs.Card{State: fsrs.New},
		}
	}

	now := r.now().UTC()
	scheduling := r.params.Repeat(entry.Card, now)
	info, ok := scheduling[rating]
	if !ok {
		return fmt.Errorf("rating %d not supported", rating)
	}

	entry.Card = info.Card
	entry.Reps++
	entry.LastRating = int(rating)
	entry.ReviewedAt = now
	state[key] = entry

	return r.saveState(ctx, setID, state)
}

// DueCards lists the cards of a set due for re-study, soonest first. Cards
// last rated Again stay in the queue regardless of their scheduled due date.
func (r *Review) DueCards(ctx context.Context, setID string) ([]DueCard, error) {
	state, err := r.loadState(ctx, setID)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	var due []DueCard
	for _, entry := range state {
		if entry.LastRating != int(fsrs.Again) && entry.Card.Due.After(now) {
			continue
		}
		due = append(due, DueCard{
			Question:   entry.Question,
			Answer:     entry.Answer,
			Due:        entry.Card.Due,
			Reps:       entry.Reps,
			LastRating: entry.LastRating,
		})
	}
	sort.Slice(due, func(i, j int) bool { return due[i].Due.Before(due[j].Due) })
	return due, nil
}

func (r *Review) loadState(ctx context.Context, setID string) (map[string]CardReview, error) {
	data, err := r.store.Get(ctx, store.NamespaceReviews, setID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return make(map[string]CardReview), nil
		}
		return nil, fmt.Errorf("load review state: %w", err)
	}

	var state map[string]CardReview
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode review state: %w", err)
	}
	return state, nil
}

func (r *Review) saveState(ctx context.Context, setID string, state map[string]CardReview) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode review state: %w", err)
	}
	if err := r.store.Put(ctx, store.NamespaceReviews, setID, data, 0); err != nil {
		return fmt.Errorf("store review state: %w", err)
	}
	return nil
}

func cardKey(question, answer string) string {
	h := fnv.New64a()
	h.Write([]byte(question))
	h.Write([]byte{0})
	h.Write([]byte(answer))
	return fmt.Sprintf("%016x", h.Sum64())
}
