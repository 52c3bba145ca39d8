package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"knowledge-quiz/internal/domain"
)

// QuestionSource loads a batch of display-ready questions.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, settings domain.QuizSettings) ([]domain.ProcessedQuestion, error)
}

// PlayerStore abstracts where cumulative player stats live (memory, sqlite,
// postgres, optionally behind a cache).
type PlayerStore interface {
	CreateOrUpdatePlayer(ctx context.Context, name string) (domain.Player, error)
	UpdatePlayerStats(ctx context.Context, playerID string, scoreDelta, totalAnswersDelta int) (domain.Player, error)
	GetLeaderboard(ctx context.Context, limit int) ([]domain.Player, error)
	GetPlayerRank(ctx context.Context, playerID string) (int, bool, error)
}

// ErrEmptyQuiz is stored when the question source returns no questions.
var ErrEmptyQuiz = errors.New("no questions were returned for the selected settings")

// ErrSetupInProgress is returned when a player setup is already in flight.
var ErrSetupInProgress = errors.New("player setup already in progress")

const playerSetupFailedMessage = "Failed to create or update player"

// SessionOption customises a QuizSession.
type SessionOption func(*QuizSession)

// WithNameGenerator replaces the generator used for blank player names.
func WithNameGenerator(g *NameGenerator) SessionOption {
	return func(s *QuizSession) { s.names = g }
}

// QuizSession drives one player's quiz. Every change goes through Reduce
// against the latest state under mu; network calls run without the lock.
type QuizSession struct {
	questions QuestionSource
	players   PlayerStore
	logger    *zap.Logger
	names     *NameGenerator

	mu          sync.Mutex
	state       State
	subscribers map[chan State]struct{}

	flushes sync.WaitGroup
}

func NewQuizSession(questions QuestionSource, players PlayerStore, logger *zap.Logger, opts ...SessionOption) *QuizSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &QuizSession{
		questions:   questions,
		players:     players,
		logger:      logger,
		state:       InitialState(),
		subscribers: make(map[chan State]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.names == nil {
		s.names = NewNameGenerator()
	}
	return s
}

// State returns a deep copy of the current state.
func (s *QuizSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *QuizSession) CurrentQuestion() (domain.ProcessedQuestion, bool) {
	st := s.State()
	return st.CurrentQuestion()
}

func (s *QuizSession) IsAnswered() bool {
	return s.State().IsAnswered()
}

func (s *QuizSession) CurrentAnswer() (string, bool) {
	return s.State().CurrentAnswer()
}

// SetupPlayer creates or loads the player called name. A blank name gets an
// "Anonymous <Animal>" name.
func (s *QuizSession) SetupPlayer(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.names.Anonymous()
	}

	s.mu.Lock()
	if s.state.Phase != PhasePlayerSetup {
		s.mu.Unlock()
		return domain.ErrInvalidPhase
	}
	if s.state.IsLoading {
		s.mu.Unlock()
		return ErrSetupInProgress
	}
	s.applyLocked(PlayerSetupStarted{})
	s.mu.Unlock()

	player, err := s.players.CreateOrUpdatePlayer(ctx, name)
	if err != nil {
		s.logger.Warn("player setup failed", zap.String("name", name), zap.Error(err))
		msg := playerSetupFailedMessage
		if errors.Is(err, domain.ErrInvalidPlayerName) {
			msg = err.Error()
		}
		s.apply(PlayerSetupFailed{Err: msg})
		return err
	}

	s.logger.Debug("player ready", zap.String("player_id", player.ID), zap.String("name", player.Name))
	s.apply(PlayerSetupSucceeded{Player: player})
	return nil
}

// StartQuiz begins a new attempt with settings. Zero settings mean the
// current ones. A fetch that completes after the attempt was cancelled or
// replaced is discarded.
func (s *QuizSession) StartQuiz(ctx context.Context, settings domain.QuizSettings) error {
	s.mu.Lock()
	if err := StartAllowed(s.state); err != nil {
		s.mu.Unlock()
		return err
	}
	if settings == (domain.QuizSettings{}) {
		settings = s.state.Settings
	}
	s.applyLocked(QuizRequested{Settings: settings})
	attempt := s.state.Attempt
	settings = s.state.Settings
	s.mu.Unlock()

	questions, err := s.questions.FetchQuestions(ctx, settings)
	if err == nil && len(questions) == 0 {
		err = ErrEmptyQuiz
	}
	if err != nil {
		s.logger.Warn("fetch questions failed",
			zap.String("category", settings.Category),
			zap.String("difficulty", settings.Difficulty),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		s.apply(QuestionsFailed{Attempt: attempt, Err: err.Error()})
		return err
	}

	if st := s.apply(QuestionsLoaded{Attempt: attempt, Settings: settings, Questions: questions}); st.Attempt != attempt {
		s.logger.Debug("dropping questions for superseded attempt", zap.Int("attempt", attempt), zap.Int("current", st.Attempt))
	}
	return nil
}

// AnswerQuestion records choice for the current question. Re-answering is
// rejected with domain.ErrAlreadyAnswered.
func (s *QuizSession) AnswerQuestion(choice string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := AnswerAllowed(s.state, choice); err != nil {
		return err
	}
	s.applyLocked(AnswerSubmitted{Choice: choice})
	return nil
}

// NextQuestion advances to the next question or completes the quiz. On
// completion with a player set, the score is pushed to the player store
// exactly once, in the background; ctx only contributes its values to that
// call, not its cancellation.
func (s *QuizSession) NextQuestion(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := NextAllowed(s.state); err != nil {
		return err
	}
	before := s.state.StatsSync
	st := s.applyLocked(NextRequested{})
	if before != StatsSyncPending && st.StatsSync == StatsSyncPending && st.Player != nil {
		s.flushes.Add(1)
		go s.flushStats(context.WithoutCancel(ctx), st.Attempt, st.Player.ID, st.Score, len(st.Questions))
	}
	return nil
}

func (s *QuizSession) flushStats(ctx context.Context, attempt int, playerID string, score, total int) {
	defer s.flushes.Done()

	player, err := s.players.UpdatePlayerStats(ctx, playerID, score, total)
	if err != nil {
		s.logger.Error("update player stats failed",
			zap.String("player_id", playerID),
			zap.Int("score", score),
			zap.Int("total_answers", total),
			zap.Error(err),
		)
		s.apply(StatsFlushFailed{Attempt: attempt})
		return
	}
	s.logger.Info("player stats updated",
		zap.String("player_id", player.ID),
		zap.Int("score", player.Score),
		zap.Int("total_answers", player.TotalAnswers),
	)
	s.apply(StatsSynced{Attempt: attempt, Player: player})
}

// Wait blocks until background stats updates have finished.
func (s *QuizSession) Wait() {
	s.flushes.Wait()
}

// CancelQuiz abandons the active attempt without touching player stats.
func (s *QuizSession) CancelQuiz() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != PhaseQuizActive {
		return domain.ErrInvalidPhase
	}
	s.applyLocked(QuizCancelled{})
	return nil
}

// ResetQuiz clears the attempt and returns to quiz settings, keeping the
// player.
func (s *QuizSession) ResetQuiz() {
	s.apply(QuizReset{})
}

func (s *QuizSession) UpdateSettings(settings domain.QuizSettings) {
	s.apply(SettingsUpdated{Settings: settings})
}

// GoToPlayerSetup forgets the player so the next quiz needs a new identity.
func (s *QuizSession) GoToPlayerSetup() {
	s.apply(PlayerSetupRequested{})
}

func (s *QuizSession) GoToLeaderboard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := LeaderboardAllowed(s.state); err != nil {
		return err
	}
	s.applyLocked(LeaderboardRequested{})
	return nil
}

func (s *QuizSession) GoToQuizSettings() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := QuizSettingsAllowed(s.state); err != nil {
		return err
	}
	s.applyLocked(QuizSettingsRequested{})
	return nil
}

// Leaderboard returns the top players from the store.
func (s *QuizSession) Leaderboard(ctx context.Context, limit int) ([]domain.Player, error) {
	return s.players.GetLeaderboard(ctx, limit)
}

// PlayerRank returns the rank of the current player. ok is false when no
// player is set or the store does not know it.
func (s *QuizSession) PlayerRank(ctx context.Context) (int, bool, error) {
	s.mu.Lock()
	player := s.state.Player
	s.mu.Unlock()
	if player == nil {
		return 0, false, nil
	}
	return s.players.GetPlayerRank(ctx, player.ID)
}

// Subscribe returns a channel of state snapshots, starting with the current
// one. The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizSession) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.state.Clone()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *QuizSession) apply(ev Event) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(ev)
}

func (s *QuizSession) applyLocked(ev Event) State {
	s.state = Reduce(s.state, ev)
	s.broadcastLocked()
	return s.state
}

func (s *QuizSession) broadcastLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snapshot := s.state.Clone()
	for ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Slow subscriber: replace its oldest snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
