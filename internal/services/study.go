package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoldenRodger5/Quizium/internal/models"
	"github.com/GoldenRodger5/Quizium/internal/store"
)

var (
	// ErrInvalidSource indicates an unknown or empty flashcard set.
	ErrInvalidSource = errors.New("invalid flashcard source")
	// ErrInvalidSession indicates an unknown study session id.
	ErrInvalidSession = errors.New("invalid study session")
	// ErrSessionComplete indicates an operation past the terminal cursor.
	ErrSessionComplete = errors.New("study session already complete")
)

// QuestionView is the presentable form of the current question.
type QuestionView struct {
	QuestionNumber int    `json:"question_number"`
	TotalQuestions int    `json:"total_questions"`
	Question       string `json:"question"`
	Category       string `json:"category"`
	Difficulty     string `json:"difficulty"`
	CurrentScore   int    `json:"current_score"`
}

// Completion summarizes a finished session.
type Completion struct {
	FinalScore     int     `json:"final_score"`
	TotalQuestions int     `json:"total_questions"`
	Percentage     float64 `json:"percentage"`
	Feedback       string  `json:"feedback"`
}

// SubmitResult reports one graded answer. CorrectAnswer is always revealed.
type SubmitResult struct {
	Correct       bool   `json:"correct"`
	Skipped       bool   `json:"skipped,omitempty"`
	CorrectAnswer string `json:"correct_answer"`
	NewScore      int    `json:"new_score"`
}

// Study owns the session lifecycle: sampling, sequencing, scoring,
// completion. Sessions and flashcard sets live behind the injected store.
type Study struct {
	store      store.Store
	evaluator  *Evaluator
	hints      *Hints
	review     *Review
	sessionTTL time.Duration
	defaultN   int

	// Conservative net against concurrent mutation of one session id;
	// callers are still expected not to do that.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStudy(st store.Store, evaluator *Evaluator, hints *Hints, review *Review, sessionTTL time.Duration, defaultQuestions int) *Study {
	if defaultQuestions <= 0 {
		defaultQuestions = 10
	}
	return &Study{
		store:      st,
		evaluator:  evaluator,
		hints:      hints,
		review:     review,
		sessionTTL: sessionTTL,
		defaultN:   defaultQuestions,
		locks:      make(map[string]*sync.Mutex),
	}
}

// SaveSet stores a flashcard set under a fresh id and returns the id.
func (s *Study) SaveSet(ctx context.Context, cards []models.Flashcard) (string, error) {
	if len(cards) == 0 {
		return "", ErrInvalidSource
	}

	data, err := json.Marshal(models.FlashcardSet{Flashcards: cards})
	if err != nil {
		return "", fmt.Errorf("encode flashcard set: %w", err)
	}

	id := uuid.NewString()
	if err := s.store.Put(ctx, store.NamespaceSets, id, data, 0); err != nil {
		return "", fmt.Errorf("store flashcard set: %w", err)
	}
	return id, nil
}

// GetSet loads a stored flashcard set.
func (s *Study) GetSet(ctx context.Context, setID string) (*models.FlashcardSet, error) {
	data, err := s.store.Get(ctx, store.NamespaceSets, setID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidSource
		}
		return nil, fmt.Errorf("load flashcard set: %w", err)
	}
	return models.ParseFlashcardSet(data)
}

// Start samples a shuffled subset of the source set and opens a session.
// The whole source is shuffled before truncation so repeated sessions
// against one set draw different subsets in different orders.
func (s *Study) Start(ctx context.Context, setID string, requested int) (*models.StudySession, error) {
	set, err := s.GetSet(ctx, setID)
	if err != nil {
		return nil, err
	}
	if len(set.Flashcards) == 0 {
		return nil, ErrInvalidSource
	}

	if requested <= 0 {
		requested = s.defaultN
	}

	questions := append([]models.Flashcard(nil), set.Flashcards...)
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	if requested < len(questions) {
		questions = questions[:requested]
	}

	session := &models.StudySession{
		ID:        uuid.NewString(),
		SourceSet: setID,
		Questions: questions,
		Total:     len(questions),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// CurrentQuestion returns the question at the cursor, or the completion
// summary once the session is finished. Never advances the cursor.
func (s *Study) CurrentQuestion(ctx context.Context, sessionID string) (*QuestionView, *Completion, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	if session.Complete() {
		return nil, s.completion(session), nil
	}

	card, _ := session.Current()
	question, _ := card.Normalize()
	return &QuestionView{
		QuestionNumber: session.Cursor + 1,
		TotalQuestions: session.Total,
		Question:       question,
		Category:       card.CategoryOrDefault(),
		Difficulty:     string(card.DifficultyOrDefault()),
		CurrentScore:   session.Score,
	}, nil, nil
}

// Submit grades the current answer, advances the cursor, and always reveals
// the correct answer. With skip set the answer is not graded or scored.
func (s *Study) Submit(ctx context.Context, sessionID, userAnswer string, skip bool) (*SubmitResult, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Complete() {
		return nil, ErrSessionComplete
	}

	card, _ := session.Current()
	question, correctAnswer := card.Normalize()

	correct := false
	if !skip {
		correct = s.evaluator.Evaluate(ctx, question, correctAnswer, userAnswer)
	}

	if correct {
		session.Score++
	}
	session.Cursor++

	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}

	if s.review != nil {
		s.review.RecordOutcome(ctx, session.SourceSet, card, outcomeRating(correct, skip))
	}

	return &SubmitResult{
		Correct:       correct,
		Skipped:       skip,
		CorrectAnswer: correctAnswer,
		NewScore:      session.Score,
	}, nil
}

// Hint produces a hint for the current question without mutating state.
func (s *Study) Hint(ctx context.Context, sessionID string) (string, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session.Complete() {
		return "", ErrSessionComplete
	}

	card, _ := session.Current()
	question, correctAnswer := card.Normalize()
	return s.hints.Hint(ctx, question, correctAnswer), nil
}

func (s *Study) completion(session *models.StudySession) *Completion {
	pct := session.Percentage()
	return &Completion{
		FinalScore:     session.Score,
		TotalQuestions: session.Total,
		Percentage:     pct,
		Feedback:       feedbackFor(pct),
	}
}

func feedbackFor(pct float64) string {
	switch {
	case pct >= 90:
		return "Excellent work! You've mastered this material!"
	case pct >= 80:
		return "Great job! You have a strong understanding!"
	case pct >= 70:
		return "Good work! Keep studying to improve!"
	case pct >= 60:
		return "You're getting there! Review the material and try again!"
	default:
		return "Keep studying! Practice makes perfect!"
	}
}

func (s *Study) loadSession(ctx context.Context, sessionID string) (*models.StudySession, error) {
	data, err := s.store.Get(ctx, store.NamespaceSessions, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session models.StudySession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (s *Study) saveSession(ctx context.Context, session *models.StudySession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.store.Put(ctx, store.NamespaceSessions, session.ID, data, s.sessionTTL); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *Study) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}
