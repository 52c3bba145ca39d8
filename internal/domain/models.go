package domain

import "time"

// AnySetting is the sentinel for "no constraint" on category or difficulty.
const AnySetting = "any"

// QuestionsPerQuiz is the fixed batch size requested from the trivia API.
const QuestionsPerQuiz = 10

// OptionsPerQuestion is the number of candidates shown for each question.
const OptionsPerQuestion = 4

// Player is the cumulative record kept by the player store.
type Player struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Score        int       `json:"score"`
	TotalAnswers int       `json:"total_answers"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RawQuestion mirrors the Open Trivia DB question payload. Text fields are
// HTML-entity encoded.
type RawQuestion struct {
	Type             string   `json:"type"`
	Category         string   `json:"category"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// ProcessedQuestion is a display-ready question with decoded text and
// shuffled options. ID is the position within the current batch only.
type ProcessedQuestion struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
}

// HasOption reports whether choice is one of the question's options.
func (q ProcessedQuestion) HasOption(choice string) bool {
	for _, option := range q.Options {
		if option == choice {
			return true
		}
	}
	return false
}

// QuizSettings selects the category and difficulty of a quiz.
type QuizSettings struct {
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

// DefaultQuizSettings returns {any, any}.
func DefaultQuizSettings() QuizSettings {
	return QuizSettings{Category: AnySetting, Difficulty: AnySetting}
}

// Normalized fills blank fields with the "any" sentinel.
func (s QuizSettings) Normalized() QuizSettings {
	if s.Category == "" {
		s.Category = AnySetting
	}
	if s.Difficulty == "" {
		s.Difficulty = AnySetting
	}
	return s
}

// HasCategory reports whether a specific category was requested.
func (s QuizSettings) HasCategory() bool {
	return s.Category != "" && s.Category != AnySetting
}

// HasDifficulty reports whether a specific difficulty was requested.
func (s QuizSettings) HasDifficulty() bool {
	return s.Difficulty != "" && s.Difficulty != AnySetting
}

// CategoryOption is a selectable quiz category.
type CategoryOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DifficultyOption is a selectable difficulty level.
type DifficultyOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
