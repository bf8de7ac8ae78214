package lobby

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"coda-server/game"
	"coda-server/matcherrors"
	"coda-server/matchmaking"
)

// Inbound action names.
const (
	ActionJoin       = "join"
	ActionReady      = "ready"
	ActionOnReorder  = "on_reorder"
	ActionResign     = "resign"
	ActionPlay       = "play"
	ActionSelectCard = "select_card"
	ActionPunish     = "punish"
	ActionSkip       = "skip"
)

const hintOpponentLeft = "The opponent left the game!"

func (l *Lobby) handleMessage(id, action string, data json.RawMessage) {
	p, ok := l.Registry.Find(id)
	if !ok {
		return
	}
	if p.State == matchmaking.Uninitialized && action != ActionJoin {
		return
	}

	var err error
	switch action {
	case ActionJoin:
		err = l.handleJoin(p, data)
	case ActionReady:
		l.handleReady(p)
	case ActionOnReorder:
		err = l.handleReorder(p, data)
	case ActionResign:
		l.handleResign(p)
	case ActionPlay:
		err = l.handlePlay(p, data)
	case ActionSelectCard:
		l.handleSelectCard(p, data)
	case ActionPunish:
		err = l.handlePunish(p, data)
	case ActionSkip:
		err = l.handleSkip(p)
	default:
		slog.Debug("unknown action ignored", "tag", "lobby", "id", id, "action", action)
		return
	}
	if err != nil {
		l.reject(p, action, err)
	}
}

// reject logs a refused action and tells the sender why when that helps.
func (l *Lobby) reject(p *matchmaking.Participant, action string, err error) {
	if errors.Is(err, matcherrors.ErrMalformedPayload) {
		slog.Warn("dropping malformed message", "tag", "lobby", "id", p.ID, "action", action, "err", err)
		return
	}
	slog.Debug("action rejected", "tag", "lobby", "id", p.ID, "action", action, "err", err)
	if hint := hintFor(err, l.Config.MaxNameLength); hint != "" {
		game.Send(p.Send, game.MsgHintUpdate, hint)
	}
}

func hintFor(err error, maxName int) string {
	switch {
	case errors.Is(err, matcherrors.ErrNoOpponent):
		return hintOpponentLeft
	case errors.Is(err, matcherrors.ErrNotYourTurn):
		return "It is not your turn."
	case errors.Is(err, matcherrors.ErrIndexOutOfRange):
		return "Invalid card."
	case errors.Is(err, matcherrors.ErrGuessOutOfRange):
		return fmt.Sprintf("Guess a number between %d and %d.", game.MinValue, game.MaxValue)
	case errors.Is(err, matcherrors.ErrAlreadyRevealed):
		return "That card is already revealed."
	case errors.Is(err, matcherrors.ErrPunishmentOwed):
		return "Turn over one of your cards first."
	case errors.Is(err, matcherrors.ErrCannotSkip):
		return "You can only skip after a correct guess."
	case errors.Is(err, matcherrors.ErrInvalidReorder):
		return "You can only move your cards, not change them."
	case errors.Is(err, matcherrors.ErrInvalidName):
		return fmt.Sprintf("Name must be between 1 and %d characters.", maxName)
	default:
		return ""
	}
}

func (l *Lobby) handleJoin(p *matchmaking.Participant, data json.RawMessage) error {
	if p.Name == "" {
		name, err := decodeString(data)
		if err != nil {
			return fmt.Errorf("join: %w", err)
		}
		name = strings.TrimSpace(name)
		if n := utf8.RuneCountInString(name); n < 1 || n > l.Config.MaxNameLength {
			return fmt.Errorf("join %q: %w", name, matcherrors.ErrInvalidName)
		}
		p.Name = name
	}

	// A stale pairing is dropped without telling the old opponent.
	if p.Session != nil {
		if opp := l.Registry.Opponent(p); opp != nil {
			opp.Detach()
		}
		l.endSession(p, game.EndResigned)
	}

	p.State = matchmaking.Matching
	game.Send(p.Send, game.MsgMatchingPlayer, nil)
	if s := l.matchmaker.TryMatch(p); s != nil {
		l.addSession(s)
	}
	return nil
}

func (l *Lobby) handleReady(p *matchmaking.Participant) {
	opp := l.Registry.Opponent(p)
	if opp == nil {
		game.Send(p.Send, game.MsgHintUpdate, hintOpponentLeft)
		return
	}
	if p.State != matchmaking.Matched {
		return
	}
	p.State = matchmaking.Ready
	game.Send(p.Send, game.MsgHintUpdate, "Ready!")
	game.Send(opp.Send, game.MsgHintUpdate, p.Name+" is ready.")

	if opp.State != matchmaking.Ready {
		return
	}
	s := p.Session
	if err := s.Deal(); err != nil {
		slog.Error("dealing", "tag", "lobby", "session", s.ID, "err", err)
		return
	}
	if !l.tick(s) {
		l.startReorderTimer(s.ID)
	}
}

func (l *Lobby) handleReorder(p *matchmaking.Participant, data json.RawMessage) error {
	if p.Session == nil {
		return nil
	}
	hand, err := game.ParseHand(data)
	if err != nil {
		return fmt.Errorf("on_reorder: %v: %w", err, matcherrors.ErrMalformedPayload)
	}
	return p.Session.Reorder(p.Seat, hand)
}

func (l *Lobby) handleResign(p *matchmaking.Participant) {
	opp := l.Registry.Opponent(p)
	l.endSession(p, game.EndResigned)
	p.State = matchmaking.Uninitialized
	if opp != nil {
		game.Send(opp.Send, game.MsgResigned, nil)
		opp.Detach()
	}
	slog.Info("player resigned", "tag", "lobby", "id", p.ID, "name", p.Name)
}

// activeSession returns p's session when the opponent is still there.
func (l *Lobby) activeSession(p *matchmaking.Participant) (*game.Session, error) {
	if p.Session == nil || l.Registry.Opponent(p) == nil {
		return nil, matcherrors.ErrNoOpponent
	}
	return p.Session, nil
}

func (l *Lobby) handlePlay(p *matchmaking.Participant, data json.RawMessage) error {
	s, err := l.activeSession(p)
	if err != nil {
		return err
	}
	raw, err := decodeString(data)
	if err != nil {
		return fmt.Errorf("play: %w", err)
	}
	index, value, err := game.ParseGuess(raw)
	if err != nil {
		return err
	}
	return s.Play(p.Seat, index, value)
}

func (l *Lobby) handlePunish(p *matchmaking.Participant, data json.RawMessage) error {
	s, err := l.activeSession(p)
	if err != nil {
		return err
	}
	index, err := decodeIndex(data)
	if err != nil {
		return fmt.Errorf("punish: %w", err)
	}
	return s.Punish(p.Seat, index)
}

func (l *Lobby) handleSkip(p *matchmaking.Participant) error {
	s, err := l.activeSession(p)
	if err != nil {
		return err
	}
	return s.Skip(p.Seat)
}

func (l *Lobby) handleSelectCard(p *matchmaking.Participant, data json.RawMessage) {
	s, err := l.activeSession(p)
	if err != nil {
		return
	}
	s.SelectCard(p.Seat, data)
}

// decodeString accepts a JSON string or a bare JSON number and returns its text.
func decodeString(data json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("expected string, got %s: %w", data, matcherrors.ErrMalformedPayload)
}

func decodeIndex(data json.RawMessage) (int, error) {
	s, err := decodeString(data)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("index %q: %w", s, matcherrors.ErrMalformedPayload)
	}
	return n, nil
}
