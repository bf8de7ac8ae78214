package matchmaking

import (
	"log/slog"

	"github.com/google/uuid"

	"coda-server/config"
	"coda-server/game"
)

// Matchmaker pairs participants that are waiting in the Matching state.
type Matchmaker struct {
	registry *Registry
	config   *config.Config
	newID    func() string
}

// NewMatchmaker creates a Matchmaker over the given registry.
func NewMatchmaker(reg *Registry, cfg *config.Config) *Matchmaker {
	return &Matchmaker{
		registry: reg,
		config:   cfg,
		newID:    uuid.NewString,
	}
}

// TryMatch pairs p with the first other Matching participant in registry order.
// On success both become Matched, share a new session (p at seat 0) and receive
// new_game with the opponent's name. It returns nil when p is not Matching or
// nobody else is waiting.
func (m *Matchmaker) TryMatch(p *Participant) *game.Session {
	if p.State != Matching {
		return nil
	}

	var opponent *Participant
	for _, q := range m.registry.AllMatching(Matching) {
		if q.ID != p.ID {
			opponent = q
			break
		}
	}
	if opponent == nil {
		return nil
	}

	s := game.NewSession(m.newID(), m.config,
		game.NewPlayer(p.ID, p.Name, p.Send),
		game.NewPlayer(opponent.ID, opponent.Name, opponent.Send))

	p.State, opponent.State = Matched, Matched
	p.Session, p.Seat = s, 0
	opponent.Session, opponent.Seat = s, 1

	game.Send(p.Send, game.MsgNewGame, opponent.Name)
	game.Send(opponent.Send, game.MsgNewGame, p.Name)

	slog.Info("match created", "tag", "matchmaking", "session", s.ID, "p0", p.Name, "p1", opponent.Name)
	return s
}
