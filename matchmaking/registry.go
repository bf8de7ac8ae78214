package matchmaking

import (
	"fmt"
	"sync"

	"coda-server/game"
	"coda-server/matcherrors"
)

// State is a participant's lifecycle state.
type State int

const (
	Uninitialized State = iota
	Matching
	Matched
	Ready
	Playing
)

// String returns a readable name for a State.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Matching:
		return "matching"
	case Matched:
		return "matched"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// Participant is one connected player and its transient state.
type Participant struct {
	ID    string
	Name  string
	Send  chan []byte
	State State

	// Session is the pairing this participant belongs to, nil when unpaired.
	Session *game.Session
	// Seat is the participant's index within Session.
	Seat int
}

// NewParticipant creates an uninitialized, unpaired participant.
func NewParticipant(id string, send chan []byte) *Participant {
	return &Participant{ID: id, Send: send, State: Uninitialized, Seat: -1}
}

// Detach drops the participant's session reference.
func (p *Participant) Detach() {
	p.Session = nil
	p.Seat = -1
}

// Registry is the insertion-ordered set of connected participants.
type Registry struct {
	mu    sync.RWMutex
	order []*Participant
	byID  map[string]*Participant
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Participant)}
}

// Add appends p. Ids are unique; adding a known id fails.
func (r *Registry) Add(p *Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; ok {
		return fmt.Errorf("add %s: %w", p.ID, matcherrors.ErrDuplicateParticipant)
	}
	r.order = append(r.order, p)
	r.byID[p.ID] = p
	return nil
}

// Remove deletes the participant with the given id and returns it.
func (r *Registry) Remove(id string) (*Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	delete(r.byID, id)
	for i, q := range r.order {
		if q == p {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p, true
}

// Find returns the participant with the given id.
func (r *Registry) Find(id string) (*Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

// AllMatching returns the participants in state s, in registry order.
func (r *Registry) AllMatching(s State) []*Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Participant
	for _, p := range r.order {
		if p.State == s {
			out = append(out, p)
		}
	}
	return out
}

// All returns a snapshot of every participant in registry order.
func (r *Registry) All() []*Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Participant, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of connected participants.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Opponent resolves p's opponent through its session. It returns nil when p is
// unpaired or the opponent is no longer registered.
func (r *Registry) Opponent(p *Participant) *Participant {
	if p.Session == nil || p.Seat < 0 {
		return nil
	}
	other := p.Session.Opponent(p.Seat)
	if other == nil {
		return nil
	}
	opp, ok := r.Find(other.ID)
	if !ok || opp.Session != p.Session {
		return nil
	}
	return opp
}
