package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"document-quiz/internal/models"
)

var codeFence = regexp.MustCompile(models.CodeFence)

type rawItem struct {
	Question *string         `json:"question"`
	Choices  []*string       `json:"choices"`
	Answer   *string         `json:"answer"`
	Points   json.RawMessage `json:"points"`
}

type rawWrapper struct {
	Questions []rawItem `json:"questions"`
}

// ParseQuiz decodes an LLM reply into a quiz. The reply may be wrapped in a
// code fence or surrounded by prose, and may be either a bare array or an
// object with a "questions" array. Every item must have a question, exactly
// choices non-empty choices, an answer equal to one of them and integer
// points.
func ParseQuiz(raw string, choices int) (models.Quiz, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, fmt.Errorf("%w: no json found in reply", models.ErrMalformedOutput)
	}

	var items []rawItem
	dec := json.NewDecoder(strings.NewReader(payload))
	if strings.HasPrefix(payload, "{") {
		var w rawWrapper
		if err := dec.Decode(&w); err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrMalformedOutput, err)
		}
		items = w.Questions
	} else if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrMalformedOutput, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after quiz json", models.ErrMalformedOutput)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: quiz has no questions", models.ErrMalformedOutput)
	}

	quiz := make(models.Quiz, 0, len(items))
	for i, it := range items {
		item, err := validate(it, choices)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %s", models.ErrMalformedOutput, i+1, err)
		}
		quiz = append(quiz, item)
	}
	return quiz, nil
}

func validate(it rawItem, choices int) (models.MCQItem, error) {
	var item models.MCQItem
	if it.Question == nil || strings.TrimSpace(*it.Question) == "" {
		return item, fmt.Errorf("missing question text")
	}
	item.Question = strings.TrimSpace(*it.Question)

	if len(it.Choices) != choices {
		return item, fmt.Errorf("has %d choices, want %d", len(it.Choices), choices)
	}
	for j, c := range it.Choices {
		if c == nil || strings.TrimSpace(*c) == "" {
			return item, fmt.Errorf("choice %d is empty", j+1)
		}
		item.Choices = append(item.Choices, strings.TrimSpace(*c))
	}

	if it.Answer == nil || strings.TrimSpace(*it.Answer) == "" {
		return item, fmt.Errorf("missing answer")
	}
	item.Answer = strings.TrimSpace(*it.Answer)
	if !item.HasChoice(item.Answer) {
		return item, fmt.Errorf("answer %q is not one of the choices", item.Answer)
	}

	points := bytes.TrimSpace(it.Points)
	if len(points) == 0 || string(points) == "null" {
		return item, fmt.Errorf("missing points")
	}
	if err := json.Unmarshal(points, &item.Points); err != nil {
		return item, fmt.Errorf("points must be an integer, got %s", points)
	}
	return item, nil
}

// extractJSON strips a code fence, then cuts from the first opening bracket
// to the matching last closing one.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		return s
	}
	open := strings.IndexAny(s, "[{")
	if open < 0 {
		return ""
	}
	closer := "]"
	if s[open] == '{' {
		closer = "}"
	}
	end := strings.LastIndex(s, closer)
	if end < open {
		return ""
	}
	return s[open : end+1]
}
