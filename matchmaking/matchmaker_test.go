package matchmaking

import (
	"encoding/json"
	"testing"

	"coda-server/config"
)

// lastAction drains ch and returns the last message's action and string data.
func lastAction(t *testing.T, ch chan []byte) (action, data string) {
	t.Helper()
	for {
		select {
		case raw := <-ch:
			var m struct {
				Action string `json:"action"`
				Data   string `json:"data"`
			}
			if err := json.Unmarshal(raw, &m); err != nil {
				t.Fatal(err)
			}
			action, data = m.Action, m.Data
		default:
			return action, data
		}
	}
}

func TestTryMatch_PairsFirstWaiting(t *testing.T) {
	r := NewRegistry()
	alice := newTestParticipant("alice", Matching)
	busy := newTestParticipant("busy", Playing)
	bob := newTestParticipant("bob", Matching)
	carol := newTestParticipant("carol", Matching)
	alice.Name, bob.Name = "Alice", "Bob"
	for _, p := range []*Participant{alice, busy, bob, carol} {
		r.Add(p)
	}
	m := NewMatchmaker(r, config.Defaults())

	s := m.TryMatch(carol)
	if s == nil {
		t.Fatal("expected a session")
	}
	if carol.State != Matched || alice.State != Matched {
		t.Errorf("both should be Matched, got %v and %v", carol.State, alice.State)
	}
	if bob.State != Matching {
		t.Errorf("bob should still be waiting, got %v", bob.State)
	}
	if carol.Session != s || alice.Session != s {
		t.Error("both should reference the session")
	}
	if carol.Seat != 0 || alice.Seat != 1 {
		t.Errorf("unexpected seats %d %d", carol.Seat, alice.Seat)
	}
	if s.Players[1].Name != "Alice" {
		t.Errorf("seat 1 should be Alice, got %q", s.Players[1].Name)
	}

	if action, data := lastAction(t, carol.Send); action != "new_game" || data != "Alice" {
		t.Errorf("carol got %s %q", action, data)
	}
	if action, data := lastAction(t, alice.Send); action != "new_game" || data != "carol" {
		t.Errorf("alice got %s %q", action, data)
	}
}

func TestTryMatch_NobodyWaiting(t *testing.T) {
	r := NewRegistry()
	alice := newTestParticipant("alice", Matching)
	r.Add(alice)
	r.Add(newTestParticipant("bob", Ready))
	m := NewMatchmaker(r, config.Defaults())

	if s := m.TryMatch(alice); s != nil {
		t.Fatal("expected no match")
	}
	if alice.State != Matching || alice.Session != nil {
		t.Error("alice should keep waiting unpaired")
	}
	if len(alice.Send) != 0 {
		t.Error("no message should be sent without a match")
	}
}

func TestTryMatch_RequiresMatchingState(t *testing.T) {
	r := NewRegistry()
	alice := newTestParticipant("alice", Uninitialized)
	r.Add(alice)
	r.Add(newTestParticipant("bob", Matching))
	m := NewMatchmaker(r, config.Defaults())

	if s := m.TryMatch(alice); s != nil {
		t.Fatal("uninitialized participant must not be matched")
	}
}

func TestTryMatch_UniqueSessionIDs(t *testing.T) {
	r := NewRegistry()
	m := NewMatchmaker(r, config.Defaults())
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		a := newTestParticipant(string(rune('a'+2*i)), Matching)
		b := newTestParticipant(string(rune('b'+2*i)), Matching)
		r.Add(a)
		r.Add(b)
		s := m.TryMatch(a)
		if s == nil {
			t.Fatal("expected match")
		}
		if seen[s.ID] {
			t.Fatalf("duplicate session id %s", s.ID)
		}
		seen[s.ID] = true
	}
}
