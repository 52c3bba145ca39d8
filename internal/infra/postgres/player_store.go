package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"knowledge-quiz/internal/domain"
)

const defaultLeaderboardLimit = 10

const playerColumns = `id, name, score, total_answers, updated_at`

// PlayerStore is the hosted player store. The schema is owned by the bun
// migrations in the migrations package.
type PlayerStore struct {
	pool *pgxpool.Pool
}

func NewPlayerStore(pool *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{pool: pool}
}

func scanPlayer(row pgx.Row) (domain.Player, error) {
	var p domain.Player
	err := row.Scan(&p.ID, &p.Name, &p.Score, &p.TotalAnswers, &p.UpdatedAt)
	return p, err
}

func (s *PlayerStore) CreateOrUpdatePlayer(ctx context.Context, name string) (domain.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Player{}, domain.ErrInvalidPlayerName
	}

	// The no-op update makes RETURNING yield the existing row on conflict.
	row := s.pool.QueryRow(ctx,
		`INSERT INTO players (id, name, score, total_answers, updated_at)
		 VALUES ($1, $2, 0, 0, $3)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING `+playerColumns,
		ulid.Make().String(), name, time.Now().UTC(),
	)
	player, err := scanPlayer(row)
	if err != nil {
		return domain.Player{}, fmt.Errorf("upsert player: %w", err)
	}
	return player, nil
}

func (s *PlayerStore) UpdatePlayerStats(ctx context.Context, playerID string, scoreDelta, totalAnswersDelta int) (domain.Player, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE players
		 SET score = score + $1, total_answers = total_answers + $2, updated_at = now()
		 WHERE id = $3
		 RETURNING `+playerColumns,
		scoreDelta, totalAnswersDelta, playerID,
	)
	player, err := scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("update player stats: %w", err)
	}
	return player, nil
}

func (s *PlayerStore) GetLeaderboard(ctx context.Context, limit int) ([]domain.Player, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+playerColumns+`
		 FROM players
		 ORDER BY score DESC, updated_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	defer rows.Close()

	players := make([]domain.Player, 0, limit)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *PlayerStore) GetPlayerRank(ctx context.Context, playerID string) (int, bool, error) {
	var rank int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(o.id) + 1
		 FROM players p
		 LEFT JOIN players o ON o.score > p.score
		 WHERE p.id = $1
		 GROUP BY p.id`, playerID).Scan(&rank)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("player rank: %w", err)
	}
	return rank, true, nil
}
