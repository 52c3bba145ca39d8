package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"knowledge-quiz/internal/domain"
)

// DefaultLeaderboardLimit is used when a caller asks for a non-positive limit.
const DefaultLeaderboardLimit = 10

// PlayerStore keeps players in a map. Useful for tests, demos and `play`
// without a database.
type PlayerStore struct {
	now func() time.Time

	mu      sync.RWMutex
	players map[string]*domain.Player
	byName  map[string]string
}

func NewPlayerStore() *PlayerStore {
	return NewPlayerStoreWithClock(time.Now)
}

// NewPlayerStoreWithClock is test-only for deterministic timestamps.
func NewPlayerStoreWithClock(now func() time.Time) *PlayerStore {
	return &PlayerStore{
		now:     now,
		players: make(map[string]*domain.Player),
		byName:  make(map[string]string),
	}
}

// CreateOrUpdatePlayer returns the player called name, creating it with zero
// stats on first use.
func (s *PlayerStore) CreateOrUpdatePlayer(_ context.Context, name string) (domain.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Player{}, domain.ErrInvalidPlayerName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byName[name]; ok {
		return *s.players[id], nil
	}
	player := &domain.Player{
		ID:        ulid.Make().String(),
		Name:      name,
		UpdatedAt: s.now(),
	}
	s.players[player.ID] = player
	s.byName[name] = player.ID
	return *player, nil
}

func (s *PlayerStore) UpdatePlayerStats(_ context.Context, playerID string, scoreDelta, totalAnswersDelta int) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.players[playerID]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	player.Score += scoreDelta
	player.TotalAnswers += totalAnswersDelta
	player.UpdatedAt = s.now()
	return *player, nil
}

// GetLeaderboard orders by score, most recently updated first on ties.
func (s *PlayerStore) GetLeaderboard(_ context.Context, limit int) ([]domain.Player, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	s.mu.RLock()
	players := make([]domain.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, *p)
	}
	s.mu.RUnlock()

	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		if !players[i].UpdatedAt.Equal(players[j].UpdatedAt) {
			return players[i].UpdatedAt.After(players[j].UpdatedAt)
		}
		return players[i].ID > players[j].ID
	})
	if len(players) > limit {
		players = players[:limit]
	}
	return players, nil
}

// GetPlayerRank is one plus the number of players with a strictly higher
// score.
func (s *PlayerStore) GetPlayerRank(_ context.Context, playerID string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, ok := s.players[playerID]
	if !ok {
		return 0, false, nil
	}
	rank := 1
	for _, other := range s.players {
		if other.Score > player.Score {
			rank++
		}
	}
	return rank, true, nil
}
