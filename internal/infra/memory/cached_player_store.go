package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"knowledge-quiz/internal/domain"
)

// Store is the player store being cached.
type Store interface {
	CreateOrUpdatePlayer(ctx context.Context, name string) (domain.Player, error)
	UpdatePlayerStats(ctx context.Context, playerID string, scoreDelta, totalAnswersDelta int) (domain.Player, error)
	GetLeaderboard(ctx context.Context, limit int) ([]domain.Player, error)
	GetPlayerRank(ctx context.Context, playerID string) (int, bool, error)
}

// CachedPlayerStore caches leaderboards with TTL to avoid repeated DB hits.
// Any write drops every cached leaderboard.
type CachedPlayerStore struct {
	Store

	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu         sync.RWMutex
	generation uint64
	cache      map[int]cachedLeaderboard
}

type cachedLeaderboard struct {
	players   []domain.Player
	expiresAt time.Time
}

func NewCachedPlayerStore(store Store, ttl time.Duration) *CachedPlayerStore {
	return &CachedPlayerStore{
		Store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[int]cachedLeaderboard),
	}
}

func (r *CachedPlayerStore) CreateOrUpdatePlayer(ctx context.Context, name string) (domain.Player, error) {
	player, err := r.Store.CreateOrUpdatePlayer(ctx, name)
	if err == nil {
		r.invalidate()
	}
	return player, err
}

func (r *CachedPlayerStore) UpdatePlayerStats(ctx context.Context, playerID string, scoreDelta, totalAnswersDelta int) (domain.Player, error) {
	player, err := r.Store.UpdatePlayerStats(ctx, playerID, scoreDelta, totalAnswersDelta)
	if err == nil {
		r.invalidate()
	}
	return player, err
}

func (r *CachedPlayerStore) GetLeaderboard(ctx context.Context, limit int) ([]domain.Player, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[limit]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return clonePlayers(entry.players), nil
	}
	generation := r.generation
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(strconv.Itoa(limit), func() (interface{}, error) {
		players, err := r.Store.GetLeaderboard(ctx, limit)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		// A write since the read above makes this result stale.
		if r.generation == generation {
			r.cache[limit] = cachedLeaderboard{
				players:   players,
				expiresAt: r.clock().Add(r.ttlWithJitter()),
			}
		}
		r.mu.Unlock()
		return players, nil
	})
	if err != nil {
		return nil, err
	}
	return clonePlayers(result.([]domain.Player)), nil
}

func (r *CachedPlayerStore) invalidate() {
	r.mu.Lock()
	r.generation++
	r.cache = make(map[int]cachedLeaderboard)
	r.mu.Unlock()
}

// ttlWithJitter is called with mu held.
func (r *CachedPlayerStore) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func clonePlayers(players []domain.Player) []domain.Player {
	out := make([]domain.Player, len(players))
	copy(out, players)
	return out
}
