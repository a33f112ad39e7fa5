package models

// MCQItem is a single multiple-choice question. Answer is the full text of the
// correct choice and must appear verbatim in Choices.
type MCQItem struct {
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Answer   string   `json:"answer"`
	Points   int      `json:"points"`
}

// HasChoice reports whether choice is one of the item's choices
func (m MCQItem) HasChoice(choice string) bool {
	for _, c := range m.Choices {
		if c == choice {
			return true
		}
	}
	return false
}

// Quiz is an ordered list of MCQ items.
type Quiz []MCQItem

// AnswerSheet maps a question index to the selected choice text.
// A missing key means the question is unanswered.
type AnswerSheet map[int]string

// Selected returns the choice picked for question i.
func (a AnswerSheet) Selected(i int) (string, bool) {
	choice, ok := a[i]
	if !ok || choice == "" {
		return "", false
	}
	return choice, true
}

// Clone returns an independent copy of the sheet
func (a AnswerSheet) Clone() AnswerSheet {
	out := make(AnswerSheet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Grade is a letter grade derived from the score percentage.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// ItemResult is the per-question feedback shown after submission.
type ItemResult struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
	Selected string `json:"selected,omitempty"`
	Correct  string `json:"correct"`
	Answered bool   `json:"answered"`
	IsRight  bool   `json:"is_right"`
	Awarded  int    `json:"awarded"`
}

// ScoreResult is the outcome of scoring an answer sheet against a quiz.
type ScoreResult struct {
	Earned     int          `json:"earned"`
	Total      int          `json:"total"`
	Percentage float64      `json:"percentage"`
	Grade      Grade        `json:"grade"`
	Message    string       `json:"message"`
	Items      []ItemResult `json:"items"`
}
