package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"knowledge-quiz/internal/domain"
)

const defaultLeaderboardLimit = 10

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL UNIQUE,
	score         INTEGER NOT NULL DEFAULT 0,
	total_answers INTEGER NOT NULL DEFAULT 0,
	updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_players_name ON players(name);
CREATE INDEX IF NOT EXISTS idx_players_updated_at ON players(updated_at DESC);
`

// playerRow stores updated_at as unix nanoseconds so ordering is numeric.
type playerRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Score        int    `db:"score"`
	TotalAnswers int    `db:"total_answers"`
	UpdatedAt    int64  `db:"updated_at"`
}

func (r playerRow) toDomain() domain.Player {
	return domain.Player{
		ID:           r.ID,
		Name:         r.Name,
		Score:        r.Score,
		TotalAnswers: r.TotalAnswers,
		UpdatedAt:    time.Unix(0, r.UpdatedAt).UTC(),
	}
}

// PlayerStore is the embedded file-backed player store.
type PlayerStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPlayerStore opens (creating if needed) the database at path and
// applies the schema.
func NewPlayerStore(path string) (*PlayerStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "quiz.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &PlayerStore{db: db, now: time.Now}, nil
}

func (s *PlayerStore) Close() error {
	return s.db.Close()
}

func (s *PlayerStore) CreateOrUpdatePlayer(ctx context.Context, name string) (domain.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Player{}, domain.ErrInvalidPlayerName
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, name, score, total_answers, updated_at)
		 VALUES (?, ?, 0, 0, ?)
		 ON CONFLICT(name) DO NOTHING`,
		ulid.Make().String(), name, s.now().UnixNano(),
	)
	if err != nil {
		return domain.Player{}, fmt.Errorf("insert player: %w", err)
	}

	var row playerRow
	if err := s.db.GetContext(ctx, &row,
		`SELECT id, name, score, total_answers, updated_at FROM players WHERE name = ?`, name); err != nil {
		return domain.Player{}, fmt.Errorf("load player: %w", err)
	}
	return row.toDomain(), nil
}

func (s *PlayerStore) UpdatePlayerStats(ctx context.Context, playerID string, scoreDelta, totalAnswersDelta int) (domain.Player, error) {
	var row playerRow
	err := s.db.GetContext(ctx, &row,
		`UPDATE players
		 SET score = score + ?, total_answers = total_answers + ?, updated_at = ?
		 WHERE id = ?
		 RETURNING id, name, score, total_answers, updated_at`,
		scoreDelta, totalAnswersDelta, s.now().UnixNano(), playerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("update player stats: %w", err)
	}
	return row.toDomain(), nil
}

func (s *PlayerStore) GetLeaderboard(ctx context.Context, limit int) ([]domain.Player, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	var rows []playerRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, name, score, total_answers, updated_at
		 FROM players
		 ORDER BY score DESC, updated_at DESC
		 LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	players := make([]domain.Player, 0, len(rows))
	for _, r := range rows {
		players = append(players, r.toDomain())
	}
	return players, nil
}

func (s *PlayerStore) GetPlayerRank(ctx context.Context, playerID string) (int, bool, error) {
	var score int
	err := s.db.GetContext(ctx, &score, `SELECT score FROM players WHERE id = ?`, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load player score: %w", err)
	}

	var higher int
	if err := s.db.GetContext(ctx, &higher, `SELECT COUNT(*) FROM players WHERE score > ?`, score); err != nil {
		return 0, false, fmt.Errorf("count higher scores: %w", err)
	}
	return higher + 1, true, nil
}
