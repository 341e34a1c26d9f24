package domain

// Option represents a possible answer for a question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ (or true/false) question from the quiz bank.
type Question struct {
	ID         string   `json:"id"`
	Prompt     string   `json:"prompt"`
	Options    []Option `json:"options"`
	Points     int      `json:"points"` // defaults to 1 if zero
	Difficulty string   `json:"difficulty,omitempty"`
	Type       string   `json:"type,omitempty"` // "multiple_choice" or "true_false"
	Hint       string   `json:"hint,omitempty"`
}

// Quiz is a collection of questions that weekly event nodes can draw from.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

// CorrectOption returns the ID of the first option flagged correct.
func (q Question) CorrectOption() string {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt.ID
		}
	}
	return ""
}
