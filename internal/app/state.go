package app

import (
	"knowledge-quiz/internal/domain"
)

// Phase is the screen a quiz session is on.
type Phase string

const (
	PhasePlayerSetup  Phase = "player-setup"
	PhaseQuizSettings Phase = "quiz-settings"
	PhaseQuizActive   Phase = "quiz-active"
	PhaseQuizComplete Phase = "quiz-complete"
	PhaseLeaderboard  Phase = "leaderboard"
)

// StatsSync tracks the one-shot push of a finished attempt to the player
// store: none -> pending -> done (or failed).
type StatsSync string

const (
	StatsSyncNone    StatsSync = "none"
	StatsSyncPending StatsSync = "pending"
	StatsSyncDone    StatsSync = "done"
	StatsSyncFailed  StatsSync = "failed"
)

// State is the full in-memory state of one quiz session. Values are treated
// as immutable: Reduce always returns a new State and never writes through
// the slices or pointers of its input.
type State struct {
	Questions            []domain.ProcessedQuestion `json:"questions"`
	CurrentQuestionIndex int                        `json:"currentQuestionIndex"`
	Score                int                        `json:"score"`
	Answers              []*string                  `json:"answers"`
	IsQuizComplete       bool                       `json:"isQuizComplete"`
	IsLoading            bool                       `json:"isLoading"`
	Error                string                     `json:"error,omitempty"`
	Settings             domain.QuizSettings        `json:"settings"`
	Player               *domain.Player             `json:"player"`
	Phase                Phase                      `json:"gamePhase"`
	StatsSync            StatsSync                  `json:"statsSync"`
	// Attempt changes whenever a quiz attempt starts, is cancelled or is
	// reset. Network completions tagged with an older value are dropped.
	Attempt int `json:"attempt"`
}

// InitialState is the state of a fresh session.
func InitialState() State {
	return State{
		Questions: []domain.ProcessedQuestion{},
		Answers:   []*string{},
		Settings:  domain.DefaultQuizSettings(),
		Phase:     PhasePlayerSetup,
		StatsSync: StatsSyncNone,
	}
}

// CurrentQuestion returns the question at the current index, if any.
func (s State) CurrentQuestion() (domain.ProcessedQuestion, bool) {
	if len(s.Questions) == 0 || s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Questions) {
		return domain.ProcessedQuestion{}, false
	}
	return s.Questions[s.CurrentQuestionIndex], true
}

// CurrentAnswer returns the choice recorded for the current question.
func (s State) CurrentAnswer() (string, bool) {
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Answers) {
		return "", false
	}
	if answer := s.Answers[s.CurrentQuestionIndex]; answer != nil {
		return *answer, true
	}
	return "", false
}

// IsAnswered reports whether the current question has a recorded choice.
func (s State) IsAnswered() bool {
	_, ok := s.CurrentAnswer()
	return ok
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s State) Clone() State {
	out := s
	out.Questions = make([]domain.ProcessedQuestion, len(s.Questions))
	for i, q := range s.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	out.Answers = make([]*string, len(s.Answers))
	for i, a := range s.Answers {
		if a != nil {
			v := *a
			out.Answers[i] = &v
		}
	}
	if s.Player != nil {
		p := *s.Player
		out.Player = &p
	}
	return out
}

// clearQuiz drops everything that belongs to a single attempt.
func (s State) clearQuiz() State {
	s.Questions = []domain.ProcessedQuestion{}
	s.Answers = []*string{}
	s.CurrentQuestionIndex = 0
	s.Score = 0
	s.IsQuizComplete = false
	s.IsLoading = false
	s.Error = ""
	s.StatsSync = StatsSyncNone
	return s
}
