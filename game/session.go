package game

import (
	"encoding/json"
	"math/rand"

	"coda-server/config"
)

// Phase is the lifecycle phase of a session.
type Phase int

const (
	PhaseMatched Phase = iota
	PhaseReorder
	PhasePlaying
	PhaseOver
)

// String returns a readable name for a Phase.
func (p Phase) String() string {
	switch p {
	case PhaseMatched:
		return "matched"
	case PhaseReorder:
		return "reorder"
	case PhasePlaying:
		return "playing"
	case PhaseOver:
		return "over"
	default:
		return "unknown"
	}
}

// End reasons reported in Result.
const (
	EndCompleted    = "completed"
	EndResigned     = "resigned"
	EndDisconnected = "disconnected"
)

// Player is one seat of a session.
type Player struct {
	ID   string
	Name string
	Send chan []byte // reference to the participant's send channel
	Hand Hand

	CorrectGuesses int
	WrongGuesses   int
}

// NewPlayer creates a Player with an empty hand.
func NewPlayer(id, name string, send chan []byte) *Player {
	return &Player{ID: id, Name: name, Send: send}
}

// Result summarizes a finished or abandoned session. Winner is a seat index, or -1.
type Result struct {
	SessionID      string
	Names          [2]string
	Winner         int
	Reason         string
	Rounds         int
	CorrectGuesses [2]int
	WrongGuesses   [2]int
}

// Session is the paired relationship between exactly two players. It holds the
// turn holder, the reorder countdown and the phase for both seats.
// Session is not safe for concurrent use; the lobby serializes all calls.
type Session struct {
	ID      string
	Players [2]*Player
	Phase   Phase
	Config  *config.Config

	// Turn is the seat index of the turn holder while playing.
	Turn int
	// Countdown is the number of reorder ticks left.
	Countdown int
	// PunishOwed is set after a wrong guess until the mover reveals one of their own cards.
	PunishOwed bool
	// CanSkip is set after a correct guess until the turn changes.
	CanSkip bool
	// Round counts turn switches.
	Round int
	// Winner is the winning seat once the session is over, -1 otherwise.
	Winner int

	// OnGameEnd is called once when the session ends with a result worth recording.
	OnGameEnd func(Result)

	intn func(n int) int
}

// NewSession creates a session between two players. p0 sits at seat 0.
func NewSession(id string, cfg *config.Config, p0, p1 *Player) *Session {
	return &Session{
		ID:      id,
		Players: [2]*Player{p0, p1},
		Phase:   PhaseMatched,
		Config:  cfg,
		Winner:  -1,
		intn:    rand.Intn,
	}
}

// Seat returns the seat index of the player with the given id.
func (s *Session) Seat(playerID string) (int, bool) {
	for i, p := range s.Players {
		if p != nil && p.ID == playerID {
			return i, true
		}
	}
	return -1, false
}

// Opponent returns the player sitting opposite seat.
func (s *Session) Opponent(seat int) *Player {
	return s.Players[1-seat]
}

// Finished reports whether the session has ended.
func (s *Session) Finished() bool {
	return s.Phase == PhaseOver
}

// Result builds the summary for the given end reason and winning seat.
func (s *Session) Result(reason string, winner int) Result {
	r := Result{SessionID: s.ID, Winner: winner, Reason: reason, Rounds: s.Round}
	for i, p := range s.Players {
		r.Names[i] = p.Name
		r.CorrectGuesses[i] = p.CorrectGuesses
		r.WrongGuesses[i] = p.WrongGuesses
	}
	return r
}

// Abandon ends the session because the player at seat left. A session that was
// already dealt is reported with the other seat as winner.
func (s *Session) Abandon(seat int, reason string) {
	if s.Phase == PhaseOver {
		return
	}
	dealt := s.Phase == PhaseReorder || s.Phase == PhasePlaying
	s.Phase = PhaseOver
	if !dealt {
		return
	}
	s.Winner = 1 - seat
	if s.OnGameEnd != nil {
		s.OnGameEnd(s.Result(reason, s.Winner))
	}
}

// SelectCard relays a highlighted card index to the opponent as a UI cue.
func (s *Session) SelectCard(seat int, data json.RawMessage) {
	Send(s.Opponent(seat).Send, MsgSelectCard, data)
}

func (s *Session) sendBoth(action string, data any) {
	for _, p := range s.Players {
		Send(p.Send, action, data)
	}
}

// updateCards sends each player their own hand and the opponent's hand. The
// opponent's hand is empty unless showOpponent is set; even then hidden values are withheld.
func (s *Session) updateCards(showOpponent bool) {
	for i, p := range s.Players {
		view := OpponentHand{}
		if showOpponent {
			view = OpponentHand(s.Opponent(i).Hand)
		}
		Send(p.Send, MsgCardsUpdate, CardsUpdate{MyCard: p.Hand, OpponentsCard: view})
	}
}
