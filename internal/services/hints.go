package services

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// FallbackHint is served whenever the reasoning service cannot produce one.
const FallbackHint = "Think about the key concepts from your study material."

const hintPrompt = `Generate a helpful hint for this study question without giving away the complete answer.

Question: %s
Correct Answer: %s

Provide a brief hint that guides the student toward the answer without revealing it completely.`

// Hints produces short nudges for the current question. Never fails past
// this boundary.
type Hints struct {
	ai ReasoningClient
}

func NewHints(ai ReasoningClient) *Hints {
	return &Hints{ai: ai}
}

func (h *Hints) Hint(ctx context.Context, question, correctAnswer string) string {
	raw, err := h.ai.CompleteHint(ctx, fmt.Sprintf(hintPrompt, question, correctAnswer))
	if err != nil {
		fmt.Fprintf(os.Stderr, "hint call failed, using fallback: %v\n", err)
		return FallbackHint
	}

	hint := strings.TrimSpace(raw)
	if hint == "" {
		return FallbackHint
	}
	return hint
}
