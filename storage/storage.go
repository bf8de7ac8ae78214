package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coda-server/game"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS game_history (
	id UUID PRIMARY KEY,
	played_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	player0_name TEXT NOT NULL,
	player1_name TEXT NOT NULL,
	winner_index SMALLINT,
	end_reason TEXT NOT NULL,
	rounds INT NOT NULL,
	player0_correct INT NOT NULL,
	player1_correct INT NOT NULL,
	player0_wrong INT NOT NULL,
	player1_wrong INT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_history_played_at ON game_history(played_at DESC);
CREATE INDEX IF NOT EXISTS idx_game_history_player0 ON game_history(player0_name);
CREATE INDEX IF NOT EXISTS idx_game_history_player1 ON game_history(player1_name);
`

const selectColumns = `
	SELECT id, played_at, player0_name, player1_name, winner_index, end_reason, rounds,
		player0_correct, player1_correct, player0_wrong, player1_wrong
	FROM game_history`

// Store persists and retrieves finished rounds.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the game_history table exists.
// If databaseURL is empty, NewStore returns (nil, nil) and no persistence occurs.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// RecordResult inserts one finished round. The session id doubles as the row id
// when it is a UUID; otherwise a fresh one is generated.
func (s *Store) RecordResult(ctx context.Context, r game.Result) error {
	if s == nil || s.pool == nil {
		return nil
	}
	id, err := uuid.Parse(r.SessionID)
	if err != nil {
		id = uuid.New()
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO game_history (id, player0_name, player1_name, winner_index, end_reason, rounds,
			player0_correct, player1_correct, player0_wrong, player1_wrong)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id.String(), r.Names[0], r.Names[1], winnerIndex(r.Winner), r.Reason, r.Rounds,
		r.CorrectGuesses[0], r.CorrectGuesses[1], r.WrongGuesses[0], r.WrongGuesses[1])
	if err != nil {
		return fmt.Errorf("insert result %s: %w", id, err)
	}
	slog.Debug("result recorded", "tag", "storage", "id", id, "reason", r.Reason)
	return nil
}

// GameRecord is a single row returned for the history API.
type GameRecord struct {
	ID             string `json:"id"`
	PlayedAt       string `json:"played_at"` // ISO8601
	Player0Name    string `json:"player0_name"`
	Player1Name    string `json:"player1_name"`
	WinnerIndex    *int   `json:"winner_index"` // 0 or 1, null when nobody won
	WinnerName     string `json:"winner_name,omitempty"`
	EndReason      string `json:"end_reason"`
	Rounds         int    `json:"rounds"`
	Player0Correct int    `json:"player0_correct"`
	Player1Correct int    `json:"player1_correct"`
	Player0Wrong   int    `json:"player0_wrong"`
	Player1Wrong   int    `json:"player1_wrong"`
}

// ListRecent returns the latest rounds, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]GameRecord, error) {
	if s == nil || s.pool == nil {
		return []GameRecord{}, nil
	}
	rows, err := s.pool.Query(ctx, selectColumns+`
		ORDER BY played_at DESC
		LIMIT $1`, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// ListByPlayerName returns rounds in which name sat at either seat, newest first.
func (s *Store) ListByPlayerName(ctx context.Context, name string, limit int) ([]GameRecord, error) {
	if s == nil || s.pool == nil {
		return []GameRecord{}, nil
	}
	rows, err := s.pool.Query(ctx, selectColumns+`
		WHERE player0_name = $1 OR player1_name = $1
		ORDER BY played_at DESC
		LIMIT $2`, name, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]GameRecord, error) {
	defer rows.Close()
	out := []GameRecord{}
	for rows.Next() {
		var r GameRecord
		var playedAt time.Time
		var winner *int
		if err := rows.Scan(&r.ID, &playedAt, &r.Player0Name, &r.Player1Name, &winner, &r.EndReason, &r.Rounds,
			&r.Player0Correct, &r.Player1Correct, &r.Player0Wrong, &r.Player1Wrong); err != nil {
			return nil, err
		}
		r.PlayedAt = playedAt.UTC().Format(time.RFC3339)
		r.WinnerIndex = winner
		r.WinnerName = r.winnerName()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (r GameRecord) winnerName() string {
	if r.WinnerIndex == nil {
		return ""
	}
	switch *r.WinnerIndex {
	case 0:
		return r.Player0Name
	case 1:
		return r.Player1Name
	}
	return ""
}

// winnerIndex maps a seat to its column value; anything but 0 or 1 is stored as NULL.
func winnerIndex(seat int) *int {
	if seat != 0 && seat != 1 {
		return nil
	}
	return &seat
}

// ClampLimit bounds a requested page size to [1, MaxListLimit], using
// DefaultListLimit when none was given.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}
