package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"coda-server/game"
)

const createSQLiteTableSQL = `
CREATE TABLE IF NOT EXISTS game_history (
	id TEXT PRIMARY KEY,
	played_at INTEGER NOT NULL,
	player0_name TEXT NOT NULL,
	player1_name TEXT NOT NULL,
	winner_index INTEGER,
	end_reason TEXT NOT NULL,
	rounds INTEGER NOT NULL,
	player0_correct INTEGER NOT NULL,
	player1_correct INTEGER NOT NULL,
	player0_wrong INTEGER NOT NULL,
	player1_wrong INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_history_played_at ON game_history(played_at DESC);
CREATE INDEX IF NOT EXISTS idx_game_history_player0 ON game_history(player0_name);
CREATE INDEX IF NOT EXISTS idx_game_history_player1 ON game_history(player1_name);
`

// SQLiteStore keeps round history in a local SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ HistoryStore = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(createSQLiteTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	slog.Info("opened SQLite history", "tag", "storage", "path", path)
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() {
	if s == nil || s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		slog.Warn("closing sqlite", "tag", "storage", "err", err)
	}
}

// RecordResult inserts one finished round.
func (s *SQLiteStore) RecordResult(ctx context.Context, r game.Result) error {
	if s == nil || s.db == nil {
		return nil
	}
	id := r.SessionID
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_history (id, played_at, player0_name, player1_name, winner_index, end_reason, rounds,
			player0_correct, player1_correct, player0_wrong, player1_wrong)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.now().UTC().UnixMilli(), r.Names[0], r.Names[1], winnerIndex(r.Winner), r.Reason, r.Rounds,
		r.CorrectGuesses[0], r.CorrectGuesses[1], r.WrongGuesses[0], r.WrongGuesses[1])
	if err != nil {
		return fmt.Errorf("insert result %s: %w", id, err)
	}
	return nil
}

const sqliteSelectColumns = `
	SELECT id, played_at, player0_name, player1_name, winner_index, end_reason, rounds,
		player0_correct, player1_correct, player0_wrong, player1_wrong
	FROM game_history`

// ListRecent returns the latest rounds, newest first.
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]GameRecord, error) {
	if s == nil || s.db == nil {
		return []GameRecord{}, nil
	}
	rows, err := s.db.QueryContext(ctx, sqliteSelectColumns+`
		ORDER BY played_at DESC, rowid DESC
		LIMIT ?`, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanSQLiteRecords(rows)
}

// ListByPlayerName returns rounds in which name sat at either seat, newest first.
func (s *SQLiteStore) ListByPlayerName(ctx context.Context, name string, limit int) ([]GameRecord, error) {
	if s == nil || s.db == nil {
		return []GameRecord{}, nil
	}
	rows, err := s.db.QueryContext(ctx, sqliteSelectColumns+`
		WHERE player0_name = ? OR player1_name = ?
		ORDER BY played_at DESC, rowid DESC
		LIMIT ?`, name, name, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanSQLiteRecords(rows)
}

func scanSQLiteRecords(rows *sql.Rows) ([]GameRecord, error) {
	defer rows.Close()
	out := []GameRecord{}
	for rows.Next() {
		var r GameRecord
		var playedAt int64
		var winner sql.NullInt64
		if err := rows.Scan(&r.ID, &playedAt, &r.Player0Name, &r.Player1Name, &winner, &r.EndReason, &r.Rounds,
			&r.Player0Correct, &r.Player1Correct, &r.Player0Wrong, &r.Player1Wrong); err != nil {
			return nil, err
		}
		r.PlayedAt = time.UnixMilli(playedAt).UTC().Format(time.RFC3339)
		if winner.Valid {
			w := int(winner.Int64)
			r.WinnerIndex = &w
		}
		r.WinnerName = r.winnerName()
		out = append(out, r)
	}
	return out, rows.Err()
}
