package app

import (
	"knowledge-quiz/internal/domain"
)

// Event is an input to Reduce.
type Event interface {
	event()
}

type (
	// PlayerSetupStarted marks the player lookup as in flight.
	PlayerSetupStarted struct{}
	// PlayerSetupSucceeded carries the player returned by the store.
	PlayerSetupSucceeded struct{ Player domain.Player }
	// PlayerSetupFailed carries a message for the player setup screen.
	PlayerSetupFailed struct{ Err string }

	// QuizRequested starts a new attempt and moves to quiz-active.
	QuizRequested struct{ Settings domain.QuizSettings }
	// QuestionsLoaded delivers the batch fetched for Attempt.
	QuestionsLoaded struct {
		Attempt   int
		Settings  domain.QuizSettings
		Questions []domain.ProcessedQuestion
	}
	// QuestionsFailed reports a failed fetch for Attempt.
	QuestionsFailed struct {
		Attempt int
		Err     string
	}

	AnswerSubmitted struct{ Choice string }
	NextRequested   struct{}
	QuizCancelled   struct{}
	QuizReset       struct{}
	SettingsUpdated struct{ Settings domain.QuizSettings }

	PlayerSetupRequested  struct{}
	LeaderboardRequested  struct{}
	QuizSettingsRequested struct{}

	// StatsSynced carries the player record after the completion flush.
	StatsSynced struct {
		Attempt int
		Player  domain.Player
	}
	// StatsFlushFailed records that the completion flush did not go through.
	StatsFlushFailed struct{ Attempt int }
)

func (PlayerSetupStarted) event()    {}
func (PlayerSetupSucceeded) event()  {}
func (PlayerSetupFailed) event()     {}
func (QuizRequested) event()         {}
func (QuestionsLoaded) event()       {}
func (QuestionsFailed) event()       {}
func (AnswerSubmitted) event()       {}
func (NextRequested) event()         {}
func (QuizCancelled) event()         {}
func (QuizReset) event()             {}
func (SettingsUpdated) event()       {}
func (PlayerSetupRequested) event()  {}
func (LeaderboardRequested) event()  {}
func (QuizSettingsRequested) event() {}
func (StatsSynced) event()           {}
func (StatsFlushFailed) event()      {}

// Reduce returns the state that follows s after ev. Events that are not
// valid in the current state leave it unchanged; the *Allowed helpers report
// why.
func Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case PlayerSetupStarted:
		if s.Phase != PhasePlayerSetup {
			return s
		}
		s.IsLoading = true
		s.Error = ""
		return s

	case PlayerSetupSucceeded:
		if s.Phase != PhasePlayerSetup {
			return s
		}
		player := ev.Player
		s.Player = &player
		s.Phase = PhaseQuizSettings
		s.IsLoading = false
		s.Error = ""
		return s

	case PlayerSetupFailed:
		if s.Phase != PhasePlayerSetup {
			return s
		}
		s.IsLoading = false
		s.Error = ev.Err
		return s

	case QuizRequested:
		if StartAllowed(s) != nil {
			return s
		}
		s = s.clearQuiz()
		s.Attempt++
		s.IsLoading = true
		s.Phase = PhaseQuizActive
		s.Settings = ev.Settings.Normalized()
		return s

	case QuestionsLoaded:
		if ev.Attempt != s.Attempt || s.Phase != PhaseQuizActive {
			return s
		}
		s.Questions = append([]domain.ProcessedQuestion(nil), ev.Questions...)
		s.Answers = make([]*string, len(ev.Questions))
		s.CurrentQuestionIndex = 0
		s.Score = 0
		s.IsQuizComplete = false
		s.IsLoading = false
		s.Error = ""
		s.Settings = ev.Settings.Normalized()
		return s

	case QuestionsFailed:
		if ev.Attempt != s.Attempt || s.Phase != PhaseQuizActive {
			return s
		}
		s = s.clearQuiz()
		s.Error = ev.Err
		s.Phase = PhaseQuizSettings
		return s

	case AnswerSubmitted:
		if AnswerAllowed(s, ev.Choice) != nil {
			return s
		}
		question, _ := s.CurrentQuestion()
		answers := make([]*string, len(s.Answers))
		copy(answers, s.Answers)
		choice := ev.Choice
		answers[s.CurrentQuestionIndex] = &choice
		s.Answers = answers
		if choice == question.CorrectAnswer {
			s.Score++
		}
		return s

	case NextRequested:
		if NextAllowed(s) != nil {
			return s
		}
		next := s.CurrentQuestionIndex + 1
		if next < len(s.Questions) {
			s.CurrentQuestionIndex = next
			return s
		}
		s.IsQuizComplete = true
		s.Phase = PhaseQuizComplete
		if s.Player != nil && s.StatsSync == StatsSyncNone {
			s.StatsSync = StatsSyncPending
		}
		return s

	case QuizCancelled:
		if s.Phase != PhaseQuizActive {
			return s
		}
		s = s.clearQuiz()
		s.Attempt++
		s.Phase = PhaseQuizSettings
		return s

	case QuizReset:
		if s.Player == nil {
			return s
		}
		s = s.clearQuiz()
		s.Attempt++
		s.Phase = PhaseQuizSettings
		return s

	case SettingsUpdated:
		s.Settings = ev.Settings.Normalized()
		s.Error = ""
		return s

	case PlayerSetupRequested:
		s = s.clearQuiz()
		s.Attempt++
		s.Player = nil
		s.Phase = PhasePlayerSetup
		return s

	case LeaderboardRequested:
		if LeaderboardAllowed(s) != nil {
			return s
		}
		s.Error = ""
		s.Phase = PhaseLeaderboard
		return s

	case QuizSettingsRequested:
		if QuizSettingsAllowed(s) != nil {
			return s
		}
		if s.Phase == PhaseQuizComplete {
			s = s.clearQuiz()
			s.Attempt++
		}
		s.Error = ""
		s.Phase = PhaseQuizSettings
		return s

	case StatsSynced:
		if s.Player != nil && s.Player.ID == ev.Player.ID {
			player := ev.Player
			s.Player = &player
		}
		if ev.Attempt == s.Attempt && s.StatsSync == StatsSyncPending {
			s.StatsSync = StatsSyncDone
		}
		return s

	case StatsFlushFailed:
		if ev.Attempt == s.Attempt && s.StatsSync == StatsSyncPending {
			s.StatsSync = StatsSyncFailed
		}
		return s
	}
	return s
}

// StartAllowed reports whether a quiz attempt may start from s.
func StartAllowed(s State) error {
	if s.Phase != PhaseQuizSettings && s.Phase != PhaseQuizActive {
		return domain.ErrInvalidPhase
	}
	return nil
}

// AnswerAllowed reports whether choice may be recorded for the current
// question. A question can only be answered once.
func AnswerAllowed(s State, choice string) error {
	if s.Phase != PhaseQuizActive || s.IsLoading {
		return domain.ErrNoActiveQuestion
	}
	question, ok := s.CurrentQuestion()
	if !ok || s.CurrentQuestionIndex >= len(s.Answers) {
		return domain.ErrNoActiveQuestion
	}
	if s.IsAnswered() {
		return domain.ErrAlreadyAnswered
	}
	if !question.HasOption(choice) {
		return domain.ErrOptionNotFound
	}
	return nil
}

// NextAllowed reports whether the session can advance.
func NextAllowed(s State) error {
	if s.Phase != PhaseQuizActive || s.IsLoading || len(s.Questions) == 0 {
		return domain.ErrNoActiveQuestion
	}
	return nil
}

// LeaderboardAllowed reports whether the leaderboard can be opened from s.
func LeaderboardAllowed(s State) error {
	if s.Phase != PhasePlayerSetup && s.Phase != PhaseQuizSettings && s.Phase != PhaseLeaderboard {
		return domain.ErrInvalidPhase
	}
	return nil
}

// QuizSettingsAllowed reports whether the settings screen can be opened from
// s. An active attempt has to be cancelled first, and a player has to be set
// up; without one the leaderboard leads back to player setup.
func QuizSettingsAllowed(s State) error {
	if s.Phase == PhaseQuizActive || s.Player == nil {
		return domain.ErrInvalidPhase
	}
	return nil
}
