package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"coda-server/game"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(s.Close)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return s
}

func result(p0, p1 string, winner int, reason string) game.Result {
	return game.Result{
		SessionID:      uuid.NewString(),
		Names:          [2]string{p0, p1},
		Winner:         winner,
		Reason:         reason,
		Rounds:         7,
		CorrectGuesses: [2]int{4, 2},
		WrongGuesses:   [2]int{1, 3},
	}
}

func TestSQLiteRecordAndListRecent(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	first := result("Alice", "Bob", 0, game.EndCompleted)
	second := result("Carol", "Bob", -1, game.EndDisconnected)
	for _, r := range []game.Result{first, second} {
		if err := s.RecordResult(ctx, r); err != nil {
			t.Fatalf("RecordResult: %v", err)
		}
	}

	list, err := s.ListRecent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	if list[0].ID != second.SessionID {
		t.Errorf("expected newest first, got %s", list[0].ID)
	}
	if list[0].WinnerIndex != nil || list[0].WinnerName != "" {
		t.Errorf("expected no winner, got %+v", list[0])
	}
	got := list[1]
	if got.WinnerName != "Alice" || got.EndReason != game.EndCompleted || got.Rounds != 7 {
		t.Errorf("unexpected record %+v", got)
	}
	if got.Player0Correct != 4 || got.Player1Wrong != 3 {
		t.Errorf("guess counts not stored: %+v", got)
	}
	if _, err := time.Parse(time.RFC3339, got.PlayedAt); err != nil {
		t.Errorf("played_at %q: %v", got.PlayedAt, err)
	}
}

func TestSQLiteListByPlayerName(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	s.RecordResult(ctx, result("Alice", "Bob", 0, game.EndCompleted))
	s.RecordResult(ctx, result("Carol", "Dave", 1, game.EndResigned))
	s.RecordResult(ctx, result("Eve", "Alice", 1, game.EndCompleted))

	list, err := s.ListByPlayerName(ctx, "Alice", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 rounds for Alice, got %d", len(list))
	}
	for _, r := range list {
		if r.Player0Name != "Alice" && r.Player1Name != "Alice" {
			t.Errorf("record without Alice: %+v", r)
		}
	}

	list, err = s.ListByPlayerName(ctx, "Alice", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Player0Name != "Eve" {
		t.Errorf("expected only the latest round, got %+v", list)
	}
}

func TestSQLiteNonUUIDSessionID(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	r := result("Alice", "Bob", 0, game.EndCompleted)
	r.SessionID = "session-1"
	if err := s.RecordResult(ctx, r); err != nil {
		t.Fatal(err)
	}
	list, _ := s.ListRecent(ctx, 1)
	if len(list) != 1 {
		t.Fatalf("expected 1 record, got %d", len(list))
	}
	if _, err := uuid.Parse(list[0].ID); err != nil {
		t.Errorf("expected a generated UUID, got %q", list[0].ID)
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite("  "); err == nil {
		t.Error("expected error for empty path")
	}
}
