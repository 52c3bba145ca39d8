package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-quiz/internal/domain"
)

func fixtureQuestions() []domain.ProcessedQuestion {
	return []domain.ProcessedQuestion{
		{ID: 0, Question: "2+2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: "4", Category: "Math", Difficulty: "easy"},
		{ID: 1, Question: "Capital of France?", Options: []string{"Paris", "Rome", "Oslo", "Bern"}, CorrectAnswer: "Paris", Category: "Geography", Difficulty: "easy"},
	}
}

// activeState returns a state with a loaded two-question quiz and a player.
func activeState(t *testing.T) State {
	t.Helper()
	s := InitialState()
	s = Reduce(s, PlayerSetupStarted{})
	s = Reduce(s, PlayerSetupSucceeded{Player: domain.Player{ID: "p1", Name: "Ann"}})
	s = Reduce(s, QuizRequested{Settings: domain.DefaultQuizSettings()})
	s = Reduce(s, QuestionsLoaded{Attempt: s.Attempt, Settings: domain.DefaultQuizSettings(), Questions: fixtureQuestions()})
	require.Equal(t, PhaseQuizActive, s.Phase)
	require.Len(t, s.Questions, 2)
	return s
}

func TestReducePlayerSetup(t *testing.T) {
	s := Reduce(InitialState(), PlayerSetupStarted{})
	assert.True(t, s.IsLoading)

	failed := Reduce(s, PlayerSetupFailed{Err: "boom"})
	assert.Equal(t, PhasePlayerSetup, failed.Phase)
	assert.False(t, failed.IsLoading)
	assert.Equal(t, "boom", failed.Error)

	ok := Reduce(failed, PlayerSetupSucceeded{Player: domain.Player{ID: "p1", Name: "Ann"}})
	assert.Equal(t, PhaseQuizSettings, ok.Phase)
	assert.False(t, ok.IsLoading)
	assert.Empty(t, ok.Error)
	require.NotNil(t, ok.Player)
	assert.Equal(t, "Ann", ok.Player.Name)
}

func TestReduceQuizRequestedOnlyFromSettingsOrActive(t *testing.T) {
	s := InitialState()
	assert.Equal(t, s, Reduce(s, QuizRequested{Settings: domain.DefaultQuizSettings()}))
	assert.ErrorIs(t, StartAllowed(s), domain.ErrInvalidPhase)

	s.Phase = PhaseQuizSettings
	next := Reduce(s, QuizRequested{Settings: domain.QuizSettings{Category: "24"}})
	assert.Equal(t, PhaseQuizActive, next.Phase)
	assert.True(t, next.IsLoading)
	assert.Equal(t, s.Attempt+1, next.Attempt)
	assert.Equal(t, domain.QuizSettings{Category: "24", Difficulty: "any"}, next.Settings)
}

func TestReduceLoadInitialisesAnswers(t *testing.T) {
	s := activeState(t)
	assert.Equal(t, 0, s.CurrentQuestionIndex)
	assert.Equal(t, 0, s.Score)
	assert.False(t, s.IsLoading)
	require.Len(t, s.Answers, 2)
	for _, a := range s.Answers {
		assert.Nil(t, a)
	}
}

func TestReduceDropsStaleCompletions(t *testing.T) {
	s := InitialState()
	s.Phase = PhaseQuizSettings
	s = Reduce(s, QuizRequested{Settings: domain.DefaultQuizSettings()})
	stale := s.Attempt
	s = Reduce(s, QuizRequested{Settings: domain.DefaultQuizSettings()})

	after := Reduce(s, QuestionsLoaded{Attempt: stale, Questions: fixtureQuestions()})
	assert.Empty(t, after.Questions)
	assert.True(t, after.IsLoading)

	after = Reduce(s, QuestionsFailed{Attempt: stale, Err: "late"})
	assert.Equal(t, PhaseQuizActive, after.Phase)
	assert.Empty(t, after.Error)

	cancelled := Reduce(s, QuizCancelled{})
	after = Reduce(cancelled, QuestionsLoaded{Attempt: s.Attempt, Questions: fixtureQuestions()})
	assert.Equal(t, PhaseQuizSettings, after.Phase)
	assert.Empty(t, after.Questions)
}

func TestReduceQuestionsFailedReturnsToSettings(t *testing.T) {
	s := InitialState()
	s.Phase = PhaseQuizSettings
	s = Reduce(s, QuizRequested{Settings: domain.DefaultQuizSettings()})
	s = Reduce(s, QuestionsFailed{Attempt: s.Attempt, Err: "HTTP error! status: 500"})

	assert.Equal(t, PhaseQuizSettings, s.Phase)
	assert.False(t, s.IsLoading)
	assert.Equal(t, "HTTP error! status: 500", s.Error)
}

func TestReduceAnswerDoesNotMutateInput(t *testing.T) {
	s := activeState(t)
	before := s.Clone()

	next := Reduce(s, AnswerSubmitted{Choice: "4"})

	assert.Equal(t, before, s, "input state must not change")
	assert.Equal(t, 1, next.Score)
	require.NotNil(t, next.Answers[0])
	assert.Equal(t, "4", *next.Answers[0])
}

func TestAnswerAllowed(t *testing.T) {
	s := activeState(t)
	assert.NoError(t, AnswerAllowed(s, "4"))
	assert.ErrorIs(t, AnswerAllowed(s, "42"), domain.ErrOptionNotFound)

	answered := Reduce(s, AnswerSubmitted{Choice: "3"})
	assert.Equal(t, 0, answered.Score)
	assert.ErrorIs(t, AnswerAllowed(answered, "4"), domain.ErrAlreadyAnswered)
	assert.Equal(t, answered, Reduce(answered, AnswerSubmitted{Choice: "4"}), "re-answering is a no-op")

	assert.ErrorIs(t, AnswerAllowed(InitialState(), "4"), domain.ErrNoActiveQuestion)
}

func TestReduceNextCompletesOnLastQuestion(t *testing.T) {
	s := activeState(t)
	s = Reduce(s, NextRequested{})
	assert.Equal(t, 1, s.CurrentQuestionIndex)
	assert.Equal(t, StatsSyncNone, s.StatsSync)

	s = Reduce(s, NextRequested{})
	assert.Equal(t, 1, s.CurrentQuestionIndex, "index stays on the last question")
	assert.True(t, s.IsQuizComplete)
	assert.Equal(t, PhaseQuizComplete, s.Phase)
	assert.Equal(t, StatsSyncPending, s.StatsSync)

	again := Reduce(s, NextRequested{})
	assert.Equal(t, s, again)
}

func TestReduceCompletionWithoutPlayerSkipsSync(t *testing.T) {
	s := activeState(t)
	s.Player = nil
	s = Reduce(s, NextRequested{})
	s = Reduce(s, NextRequested{})
	assert.Equal(t, PhaseQuizComplete, s.Phase)
	assert.Equal(t, StatsSyncNone, s.StatsSync)
}

func TestReduceStatsSync(t *testing.T) {
	s := activeState(t)
	s = Reduce(s, NextRequested{})
	s = Reduce(s, NextRequested{})
	attempt := s.Attempt

	stale := Reduce(s, StatsSynced{Attempt: attempt - 1, Player: domain.Player{ID: "p1", Name: "Ann", Score: 9}})
	assert.Equal(t, StatsSyncPending, stale.StatsSync)
	assert.Equal(t, 9, stale.Player.Score, "player record is refreshed regardless of attempt")

	done := Reduce(s, StatsSynced{Attempt: attempt, Player: domain.Player{ID: "p1", Name: "Ann", Score: 1, TotalAnswers: 2}})
	assert.Equal(t, StatsSyncDone, done.StatsSync)
	assert.Equal(t, 2, done.Player.TotalAnswers)

	failed := Reduce(s, StatsFlushFailed{Attempt: attempt})
	assert.Equal(t, StatsSyncFailed, failed.StatsSync)
	assert.Equal(t, PhaseQuizComplete, failed.Phase)

	other := Reduce(s, StatsSynced{Attempt: attempt, Player: domain.Player{ID: "p2", Name: "Bob"}})
	assert.Equal(t, "p1", other.Player.ID)
}

func TestReduceCancelAndReset(t *testing.T) {
	s := Reduce(activeState(t), AnswerSubmitted{Choice: "4"})

	cancelled := Reduce(s, QuizCancelled{})
	assert.Equal(t, PhaseQuizSettings, cancelled.Phase)
	assert.Empty(t, cancelled.Questions)
	assert.Empty(t, cancelled.Answers)
	assert.Zero(t, cancelled.Score)
	assert.Zero(t, cancelled.CurrentQuestionIndex)
	assert.Equal(t, StatsSyncNone, cancelled.StatsSync)
	assert.NotNil(t, cancelled.Player)

	assert.Equal(t, cancelled, Reduce(cancelled, QuizCancelled{}), "cancel outside an active quiz is ignored")

	done := Reduce(Reduce(s, NextRequested{}), NextRequested{})
	reset := Reduce(done, QuizReset{})
	assert.Equal(t, PhaseQuizSettings, reset.Phase)
	assert.False(t, reset.IsQuizComplete)
	assert.Empty(t, reset.Questions)
	require.NotNil(t, reset.Player)
	assert.Equal(t, "Ann", reset.Player.Name)
}

func TestReduceNavigation(t *testing.T) {
	s := activeState(t)

	assert.Equal(t, s, Reduce(s, LeaderboardRequested{}))
	assert.Equal(t, s, Reduce(s, QuizSettingsRequested{}))

	setup := Reduce(s, PlayerSetupRequested{})
	assert.Equal(t, PhasePlayerSetup, setup.Phase)
	assert.Nil(t, setup.Player)
	assert.Empty(t, setup.Questions)

	board := Reduce(setup, LeaderboardRequested{})
	assert.Equal(t, PhaseLeaderboard, board.Phase)

	back := Reduce(board, PlayerSetupRequested{})
	assert.Equal(t, PhasePlayerSetup, back.Phase)

	complete := Reduce(Reduce(s, NextRequested{}), NextRequested{})
	settings := Reduce(complete, QuizSettingsRequested{})
	assert.Equal(t, PhaseQuizSettings, settings.Phase)
	assert.Empty(t, settings.Questions)
	assert.NotNil(t, settings.Player)
}

func TestReduceSettingsNeedAPlayer(t *testing.T) {
	board := Reduce(InitialState(), LeaderboardRequested{})
	require.Equal(t, PhaseLeaderboard, board.Phase)

	assert.ErrorIs(t, QuizSettingsAllowed(board), domain.ErrInvalidPhase)
	assert.Equal(t, board, Reduce(board, QuizSettingsRequested{}))
	assert.Equal(t, PhasePlayerSetup, Reduce(board, PlayerSetupRequested{}).Phase)

	setup := InitialState()
	assert.Equal(t, setup, Reduce(setup, QuizReset{}))
	assert.Equal(t, board, Reduce(board, QuizReset{}))
}

func TestReduceSettingsUpdatedClearsError(t *testing.T) {
	s := InitialState()
	s.Error = "Not enough questions"
	s = Reduce(s, SettingsUpdated{Settings: domain.QuizSettings{Category: "9", Difficulty: "hard"}})
	assert.Empty(t, s.Error)
	assert.Equal(t, "9", s.Settings.Category)
	assert.Equal(t, "hard", s.Settings.Difficulty)
}
