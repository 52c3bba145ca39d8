package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"knowledge-quiz/internal/domain"
)

const defaultLeaderboardLimit = 10

// Store is the player store being cached.
type Store interface {
	CreateOrUpdatePlayer(ctx context.Context, name string) (domain.Player, error)
	UpdatePlayerStats(ctx context.Context, playerID string, scoreDelta, totalAnswersDelta int) (domain.Player, error)
	GetLeaderboard(ctx context.Context, limit int) ([]domain.Player, error)
	GetPlayerRank(ctx context.Context, playerID string) (int, bool, error)
}

// CachedPlayerStore caches leaderboards in Redis and falls back to the
// wrapped store on a miss.
// Leaderboards are stored as JSON: SET quiz:leaderboard:v{version}:{limit}
// Writes bump the version: INCR quiz:leaderboard:version
// so every cached limit goes stale at once and expires on its TTL.
type CachedPlayerStore struct {
	Store

	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCachedPlayerStore(client *redis.Client, store Store, ttl time.Duration, logger *zap.Logger) *CachedPlayerStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedPlayerStore{
		Store:  store,
		client: client,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CachedPlayerStore) CreateOrUpdatePlayer(ctx context.Context, name string) (domain.Player, error) {
	player, err := r.Store.CreateOrUpdatePlayer(ctx, name)
	if err == nil {
		r.invalidate(ctx)
	}
	return player, err
}

func (r *CachedPlayerStore) UpdatePlayerStats(ctx context.Context, playerID string, scoreDelta, totalAnswersDelta int) (domain.Player, error) {
	player, err := r.Store.UpdatePlayerStats(ctx, playerID, scoreDelta, totalAnswersDelta)
	if err == nil {
		r.invalidate(ctx)
	}
	return player, err
}

func (r *CachedPlayerStore) GetLeaderboard(ctx context.Context, limit int) ([]domain.Player, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	version, err := r.version(ctx)
	if err != nil {
		r.logger.Warn("leaderboard cache unavailable", zap.Error(err))
		return r.Store.GetLeaderboard(ctx, limit)
	}
	key := r.leaderboardKey(version, limit)

	if players, ok := r.cached(ctx, key); ok {
		return players, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if players, ok := r.cached(ctx, key); ok {
			return players, nil
		}

		players, err := r.Store.GetLeaderboard(ctx, limit)
		if err != nil {
			return nil, err
		}

		payload, err := json.Marshal(players)
		if err != nil {
			return nil, err
		}
		if err := r.client.Set(ctx, key, payload, r.ttlWithJitter()).Err(); err != nil {
			r.logger.Warn("leaderboard cache fill failed", zap.String("key", key), zap.Error(err))
		}
		return players, nil
	})
	if err != nil {
		return nil, err
	}
	players := result.([]domain.Player)
	out := make([]domain.Player, len(players))
	copy(out, players)
	return out, nil
}

func (r *CachedPlayerStore) cached(ctx context.Context, key string) ([]domain.Player, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("leaderboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var players []domain.Player
	if err := json.Unmarshal(raw, &players); err != nil {
		r.logger.Warn("leaderboard cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return players, true
}

func (r *CachedPlayerStore) version(ctx context.Context) (int64, error) {
	v, err := r.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (r *CachedPlayerStore) invalidate(ctx context.Context) {
	if err := r.client.Incr(ctx, versionKey).Err(); err != nil {
		r.logger.Warn("leaderboard cache invalidation failed", zap.Error(err))
	}
}

const versionKey = "quiz:leaderboard:version"

func (r *CachedPlayerStore) leaderboardKey(version int64, limit int) string {
	return "quiz:leaderboard:v" + strconv.FormatInt(version, 10) + ":" + strconv.Itoa(limit)
}

func (r *CachedPlayerStore) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
