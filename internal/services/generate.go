package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/GoldenRodger5/Quizium/internal/models"
)

// ErrGenerationFailed indicates the reasoning service produced no
// recoverable structured output.
var ErrGenerationFailed = errors.New("flashcard generation failed")

const generationPrompt = `Analyze the following text and create comprehensive flashcards for studying.
Generate Question-Answer pairs for key concepts, vocabulary terms with definitions, and important facts.

'category' organizes flashcards by content and should be specific to each flashcard.
'difficulty' is one of 'easy', 'medium', or 'hard'.

Flashcards should be concise and to the point; full sentences are not required.

Respond with ONLY a JSON object of this structure:
{
    "flashcards": [
        {"category": "...", "difficulty": "easy", "type": "question_answer", "question": "...", "answer": "..."},
        {"category": "...", "difficulty": "medium", "type": "vocabulary", "term": "...", "definition": "..."},
        {"category": "...", "difficulty": "hard", "type": "fact", "prompt": "...", "content": "..."}
    ]
}

Text to analyze:
`

// Generator turns a raw text blob into validated flashcard records,
// repairing malformed structured output from the reasoning service.
type Generator struct {
	ai            ReasoningClient
	maxInputChars int
}

func NewGenerator(ai ReasoningClient, maxInputChars int) *Generator {
	if maxInputChars <= 0 {
		maxInputChars = 100000
	}
	return &Generator{ai: ai, maxInputChars: maxInputChars}
}

// Generate produces flashcards for text. Oversized input is truncated to the
// configured character budget before submission.
func (g *Generator) Generate(ctx context.Context, text string) ([]models.Flashcard, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty input text", ErrGenerationFailed)
	}

	if runes := []rune(text); len(runes) > g.maxInputChars {
		fmt.Fprintf(os.Stderr, "truncating generation input from %d to %d characters\n", len(runes), g.maxInputChars)
		text = string(runes[:g.maxInputChars])
	}

	raw, err := g.ai.CompleteGeneration(ctx, generationPrompt+text)
	if err != nil {
		return nil, fmt.Errorf("%w: reasoning call: %v", ErrGenerationFailed, err)
	}

	set, err := ParseFlashcardResponse(raw)
	if err != nil {
		return nil, err
	}
	return set, nil
}

// ParseFlashcardResponse decodes a raw model response into flashcards,
// walking the repair ladder on parse failure.
func ParseFlashcardResponse(raw string) ([]models.Flashcard, error) {
	candidate := stripFences(raw)

	if cards, ok := tryParseSet(candidate); ok {
		return validCards(cards)
	}

	// Each repair transform builds on the previous one's output, tried in
	// order until something parses.
	for _, step := range repairSteps {
		candidate = step.apply(candidate)
		if cards, ok := tryParseSet(candidate); ok {
			fmt.Fprintf(os.Stderr, "recovered flashcard response via %s repair\n", step.name)
			return validCards(cards)
		}
	}

	if cards := salvageObjects(raw); len(cards) > 0 {
		fmt.Fprintf(os.Stderr, "salvaged %d flashcards from malformed response\n", len(cards))
		return cards, nil
	}

	return nil, fmt.Errorf("%w: unparseable response", ErrGenerationFailed)
}

type repairStep struct {
	name  string
	apply func(string) string
}

var repairSteps = []repairStep{
	{"object-extract", extractObject},
	{"newline-strip", stripNewlines},
	{"trailing-comma", stripTrailingCommas},
	{"bracket-balance", balanceBrackets},
}

func tryParseSet(candidate string) ([]models.Flashcard, bool) {
	var set models.FlashcardSet
	if err := json.Unmarshal([]byte(candidate), &set); err != nil {
		return nil, false
	}
	return set.Flashcards, true
}

func validCards(cards []models.Flashcard) ([]models.Flashcard, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: response contained no flashcards", ErrGenerationFailed)
	}
	return cards, nil
}

// stripFences removes markdown code block formatting if present.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	start := 3
	// Skip the language identifier line, e.g. "json".
	if newlineIdx := strings.Index(content[start:], "\n"); newlineIdx != -1 {
		start += newlineIdx + 1
	}
	if endIdx := strings.Index(content[start:], "```"); endIdx != -1 {
		content = content[start : start+endIdx]
	} else {
		content = content[start:]
	}
	return strings.TrimSpace(content)
}

// extractObject cuts the substring between the first '{' and the last '}',
// dropping any surrounding prose.
func extractObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return content
	}
	return content[start : end+1]
}

func stripNewlines(content string) string {
	content = strings.ReplaceAll(content, "\n", " ")
	return strings.ReplaceAll(content, "\r", " ")
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

func stripTrailingCommas(content string) string {
	return trailingCommaRe.ReplaceAllString(content, "$1")
}

// balanceBrackets appends the closing braces/brackets a truncated response
// is missing, in the reverse order they were opened. String literals are
// skipped so braces inside values do not miscount.
func balanceBrackets(content string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(content); i++ {
		ch := content[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{' || ch == '[':
			stack = append(stack, ch)
		case ch == '}' || ch == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var builder strings.Builder
	builder.WriteString(content)
	if inString {
		builder.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			builder.WriteByte('}')
		} else {
			builder.WriteByte(']')
		}
	}
	return builder.String()
}

const maxSalvagedCards = 10

var salvageObjectRe = regexp.MustCompile(`\{[^{}]*"type"[^{}]*\}`)

// salvageObjects is the last resort: scan for individual brace-delimited
// objects carrying a "type" key, parse each independently, and keep whatever
// survives, capped at maxSalvagedCards.
func salvageObjects(raw string) []models.Flashcard {
	matches := salvageObjectRe.FindAllString(raw, -1)
	var cards []models.Flashcard
	for _, match := range matches {
		if len(cards) >= maxSalvagedCards {
			break
		}
		var card models.Flashcard
		if err := json.Unmarshal([]byte(match), &card); err != nil {
			continue
		}
		if card.Type == "" {
			continue
		}
		cards = append(cards, card)
	}
	return cards
}
