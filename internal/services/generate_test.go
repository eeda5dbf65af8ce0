package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/GoldenRodger5/Quizium/internal/models"
)

const wellFormedResponse = `{"flashcards":[
	{"type":"question_answer","question":"What is Go?","answer":"A language","category":"cs","difficulty":"easy"},
	{"type":"vocabulary","term":"goroutine","definition":"lightweight thread"}
]}`

func TestParseWellFormedResponse(t *testing.T) {
	cards, err := ParseFlashcardResponse(wellFormedResponse)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}
	if cards[0].Type != models.CardQuestionAnswer {
		t.Errorf("card 0 type = %q", cards[0].Type)
	}
}

func TestParseMarkdownFencedResponse(t *testing.T) {
	raw := "```json\n" + wellFormedResponse + "\n```"
	cards, err := ParseFlashcardResponse(raw)
	if err != nil {
		t.Fatalf("parse fenced: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}
}

func TestParseProseWrappedResponse(t *testing.T) {
	raw := "Here are your flashcards:\n" + wellFormedResponse + "\nLet me know if you need more!"
	cards, err := ParseFlashcardResponse(raw)
	if err != nil {
		t.Fatalf("parse prose-wrapped: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}
}

func TestParseTrailingCommas(t *testing.T) {
	raw := `{"flashcards":[{"type":"fact","prompt":"p","content":"c",},]}`
	cards, err := ParseFlashcardResponse(raw)
	if err != nil {
		t.Fatalf("parse trailing commas: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("got %d cards, want 1", len(cards))
	}
}

func TestParseTruncatedResponse(t *testing.T) {
	// Missing the final closing brace, as an output-length cap produces.
	raw := `{"flashcards":[{"type":"fact","prompt":"p","content":"c"}]`
	cards, err := ParseFlashcardResponse(raw)
	if err != nil {
		t.Fatalf("parse truncated: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("got %d cards, want 1", len(cards))
	}

	// Truncated deeper, mid-array.
	raw = `{"flashcards":[{"type":"fact","prompt":"p","content":"c"}`
	cards, err = ParseFlashcardResponse(raw)
	if err != nil {
		t.Fatalf("parse mid-array truncation: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("got %d cards, want 1", len(cards))
	}
}

func TestParseSalvagesIndividualObjects(t *testing.T) {
	// Outer structure beyond repair, but individual typed objects survive.
	raw := `flashcards follow: {"type":"fact","prompt":"p1","content":"c1"} garbage ]] {"type":"vocabulary","term":"t","definition":"d"} {"not":"a card"}`
	cards, err := ParseFlashcardResponse(raw)
	if err != nil {
		t.Fatalf("salvage: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("salvaged %d cards, want 2", len(cards))
	}
}

func TestParseSalvageCap(t *testing.T) {
	var builder strings.Builder
	for i := 0; i < 25; i++ {
		builder.WriteString(`{"type":"fact","prompt":"p","content":"c"} [broken`)
	}
	cards, err := ParseFlashcardResponse(builder.String())
	if err != nil {
		t.Fatalf("salvage: %v", err)
	}
	if len(cards) != maxSalvagedCards {
		t.Fatalf("salvaged %d cards, want cap of %d", len(cards), maxSalvagedCards)
	}
}

func TestParseNoJSONFails(t *testing.T) {
	_, err := ParseFlashcardResponse("I could not produce flashcards for this text.")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
}

func TestParseEmptyListFails(t *testing.T) {
	_, err := ParseFlashcardResponse(`{"flashcards":[]}`)
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
}

func TestGenerateTruncatesInput(t *testing.T) {
	fake := &fakeReasoning{generation: wellFormedResponse}
	g := NewGenerator(fake, 100)

	long := strings.Repeat("a", 500)
	if _, err := g.Generate(context.Background(), long); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasSuffix(fake.lastGenerationPrompt, strings.Repeat("a", 100)) {
		t.Error("prompt does not end with the truncated input")
	}
	if strings.Contains(fake.lastGenerationPrompt, strings.Repeat("a", 101)) {
		t.Error("input was not truncated to the character budget")
	}
}

func TestGenerateServiceFailure(t *testing.T) {
	g := NewGenerator(&fakeReasoning{generationErr: errServiceDown}, 0)
	_, err := g.Generate(context.Background(), "some study text")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
}

func TestGenerateEmptyInput(t *testing.T) {
	g := NewGenerator(&fakeReasoning{generation: wellFormedResponse}, 0)
	_, err := g.Generate(context.Background(), "   ")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
}

func TestRepairStepsInIsolation(t *testing.T) {
	if got := extractObject("prose {\"a\":1} more prose"); got != `{"a":1}` {
		t.Errorf("extractObject = %q", got)
	}
	if got := stripTrailingCommas(`{"a":[1,2,],}`); got != `{"a":[1,2]}` {
		t.Errorf("stripTrailingCommas = %q", got)
	}
	if got := balanceBrackets(`{"a":[{"b":1}`); got != `{"a":[{"b":1}]}` {
		t.Errorf("balanceBrackets = %q", got)
	}
	if got := balanceBrackets(`{"a":"brace } in string"`); got != `{"a":"brace } in string"}` {
		t.Errorf("balanceBrackets ignored string content: %q", got)
	}
}
