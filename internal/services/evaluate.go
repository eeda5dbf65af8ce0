package services

import (
	"context"
	"fmt"
	"os"
	"strings"
)

const gradingPrompt = `You are evaluating a student's answer to a study question. Be fair and flexible in your assessment.

Question: %s
Expected Answer: %s
Student's Answer: %s

Consider the student's answer CORRECT if:
- It demonstrates understanding of the core concept
- Contains the essential information, even if worded differently
- Is factually accurate in relation to the question
- Shows the student grasped the main point

Consider INCORRECT only if:
- The answer is factually wrong
- Shows fundamental misunderstanding
- Completely misses the point of the question
- Contains significant errors

Different correct explanations or phrasings should be accepted.

Respond with ONLY: "CORRECT" or "INCORRECT"`

// stopWords are dropped before word-overlap comparison: articles,
// conjunctions, and common copulas/auxiliaries carry no meaning.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true,
}

// Evaluator judges free-text answers: semantic comparison via the reasoning
// service first, a deterministic lexical heuristic when that call fails or
// is indeterminate. The system stays gradeable with the service unreachable.
type Evaluator struct {
	ai ReasoningClient

	// Share of the correct answer's meaningful words the student must hit.
	overlapThreshold float64
	// Minimum answer length before substring containment counts.
	substringFloor int
}

func NewEvaluator(ai ReasoningClient, overlapThreshold float64, substringFloor int) *Evaluator {
	if overlapThreshold <= 0 || overlapThreshold > 1 {
		overlapThreshold = 0.7
	}
	if substringFloor <= 0 {
		substringFloor = 5
	}
	return &Evaluator{
		ai:               ai,
		overlapThreshold: overlapThreshold,
		substringFloor:   substringFloor,
	}
}

// Evaluate reports whether userAnswer is an acceptable answer to question.
func (e *Evaluator) Evaluate(ctx context.Context, question, correctAnswer, userAnswer string) bool {
	prompt := fmt.Sprintf(gradingPrompt, question, correctAnswer, userAnswer)

	raw, err := e.ai.CompleteGrading(ctx, prompt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "grading call failed, using lexical fallback: %v\n", err)
		return e.lexicalMatch(correctAnswer, userAnswer)
	}

	verdict := strings.ToUpper(strings.TrimSpace(raw))
	// "INCORRECT" contains "CORRECT", so the correct token only counts
	// when the incorrect token is absent.
	if strings.Contains(verdict, "CORRECT") {
		return !strings.Contains(verdict, "INCORRECT")
	}

	// Neither token: treat like a transport failure.
	return e.lexicalMatch(correctAnswer, userAnswer)
}

// lexicalMatch is the deterministic fallback: exact match, then meaningful
// word overlap, then substring containment. First match wins.
func (e *Evaluator) lexicalMatch(correctAnswer, userAnswer string) bool {
	user := strings.ToLower(strings.TrimSpace(userAnswer))
	correct := strings.ToLower(strings.TrimSpace(correctAnswer))

	if user == correct {
		return true
	}

	meaningfulCorrect := meaningfulWords(correct)
	meaningfulUser := meaningfulWords(user)
	if len(meaningfulCorrect) > 0 {
		overlap := 0
		for word := range meaningfulUser {
			if meaningfulCorrect[word] {
				overlap++
			}
		}
		if float64(overlap) >= float64(len(meaningfulCorrect))*e.overlapThreshold {
			return true
		}
	}

	if len(user) > e.substringFloor &&
		(strings.Contains(correct, user) || strings.Contains(user, correct)) {
		return true
	}

	return false
}

func meaningfulWords(s string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.Fields(s) {
		if !stopWords[word] {
			words[word] = true
		}
	}
	return words
}
