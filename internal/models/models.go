package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CardType tags the three flashcard variants plus anything unrecognized.
type CardType string

const (
	CardQuestionAnswer CardType = "question_answer"
	CardVocabulary     CardType = "vocabulary"
	CardFact           CardType = "fact"
)

type Difficulty string

const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyUnknown Difficulty = "unknown"
)

const (
	DefaultCategory = "General"

	// Sentinel pair for records whose type tag is not recognized.
	UnknownQuestion = "Unknown question type"
	UnknownAnswer   = "Unknown answer"
)

// Flashcard is one unit of study material. Exactly one variant's fields are
// populated, selected by Type. Unknown fields from imported JSON survive a
// round trip via Extra.
type Flashcard struct {
	Type       CardType   `json:"type"`
	Category   string     `json:"category,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`

	// question_answer
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`

	// vocabulary
	Term       string `json:"term,omitempty"`
	Definition string `json:"definition,omitempty"`

	// fact
	Prompt  string `json:"prompt,omitempty"`
	Content string `json:"content,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// FlashcardSet is the persisted/interchange shape: {"flashcards": [...]}.
type FlashcardSet struct {
	Flashcards []Flashcard `json:"flashcards"`
}

// Normalize maps any flashcard variant to the canonical (question, answer)
// pair. Total: an unrecognized type yields the sentinel pair. Display,
// grading, and hinting must all derive the pair through this one method.
func (c Flashcard) Normalize() (question, answer string) {
	switch c.Type {
	case CardQuestionAnswer:
		return c.Question, c.Answer
	case CardVocabulary:
		return fmt.Sprintf("What is the definition of: %s?", c.Term), c.Definition
	case CardFact:
		return c.Prompt, c.Content
	default:
		return UnknownQuestion, UnknownAnswer
	}
}

// CategoryOrDefault returns the category, defaulting to "General".
func (c Flashcard) CategoryOrDefault() string {
	if strings.TrimSpace(c.Category) == "" {
		return DefaultCategory
	}
	return c.Category
}

// DifficultyOrDefault returns the difficulty, defaulting to "unknown".
// Anything outside the known levels also maps to "unknown".
func (c Flashcard) DifficultyOrDefault() Difficulty {
	switch Difficulty(strings.ToLower(string(c.Difficulty))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyMedium:
		return DifficultyMedium
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyUnknown
	}
}

// knownCardFields are the keys consumed by the typed Flashcard shape; every
// other key found in imported JSON is preserved in Extra.
var knownCardFields = map[string]bool{
	"type":       true,
	"category":   true,
	"difficulty": true,
	"question":   true,
	"answer":     true,
	"term":       true,
	"definition": true,
	"prompt":     true,
	"content":    true,
}

func (c *Flashcard) UnmarshalJSON(data []byte) error {
	type alias Flashcard
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range raw {
		if knownCardFields[key] {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]json.RawMessage)
		}
		a.Extra[key] = raw[key]
	}

	*c = Flashcard(a)
	return nil
}

func (c Flashcard) MarshalJSON() ([]byte, error) {
	type alias Flashcard
	data, err := json.Marshal(alias(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, val := range c.Extra {
		if _, taken := merged[key]; taken {
			continue
		}
		merged[key] = val
	}
	return json.Marshal(merged)
}

// ParseFlashcardSet decodes the interchange shape.
func ParseFlashcardSet(data []byte) (*FlashcardSet, error) {
	var set FlashcardSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode flashcard set: %w", err)
	}
	return &set, nil
}
