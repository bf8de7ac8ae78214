package game

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"coda-server/matcherrors"
)

const (
	hintYourTurn     = "Your turn! Click opponent's card and guess the number."
	hintCorrectGuess = "Correct! Continue guessing or skip this round."
)

// ParseGuess decodes a play payload of the form "<index>,<value>".
func ParseGuess(data string) (index, value int, err error) {
	idx, val, ok := strings.Cut(data, ",")
	if !ok {
		return 0, 0, fmt.Errorf("guess %q: %w", data, matcherrors.ErrMalformedPayload)
	}
	index, err = strconv.Atoi(strings.TrimSpace(idx))
	if err != nil {
		return 0, 0, fmt.Errorf("guess index %q: %w", idx, matcherrors.ErrMalformedPayload)
	}
	value, err = strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0, 0, fmt.Errorf("guess value %q: %w", val, matcherrors.ErrMalformedPayload)
	}
	return index, value, nil
}

// checkActive verifies the session is playing and seat holds the turn.
func (s *Session) checkActive(seat int) error {
	if s.Phase != PhasePlaying {
		return matcherrors.ErrNotPlaying
	}
	if seat != s.Turn {
		return matcherrors.ErrNotYourTurn
	}
	return nil
}

// Play evaluates a guess by the turn holder against the opponent's card at index.
// A correct guess reveals the card and keeps the turn; a wrong one leaves a
// punishment owed.
func (s *Session) Play(seat, index, value int) error {
	if err := s.checkActive(seat); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	if s.PunishOwed {
		return fmt.Errorf("play: %w", matcherrors.ErrPunishmentOwed)
	}
	if value < MinValue || value > MaxValue {
		return fmt.Errorf("play value %d: %w", value, matcherrors.ErrGuessOutOfRange)
	}
	player, opponent := s.Players[seat], s.Opponent(seat)
	if !opponent.Hand.InRange(index) {
		return fmt.Errorf("play index %d: %w", index, matcherrors.ErrIndexOutOfRange)
	}
	if opponent.Hand[index].Revealed {
		return fmt.Errorf("play index %d: %w", index, matcherrors.ErrAlreadyRevealed)
	}

	if opponent.Hand[index].Value == value {
		opponent.Hand[index].Revealed = true
		player.CorrectGuesses++
		s.CanSkip = true
		s.updateCards(true)
		Send(player.Send, MsgHintUpdate, hintCorrectGuess)
		Send(player.Send, MsgShowSkip, true)
		Send(opponent.Send, MsgHintUpdate, player.Name+" correctly guessed this card.")
	} else {
		player.WrongGuesses++
		s.PunishOwed = true
		s.CanSkip = false
		Send(player.Send, MsgHintUpdate, fmt.Sprintf(
			"Guessed wrong! That is not a %s. Turn over one of your cards.", DisplayString(value)))
		Send(player.Send, MsgPunish, nil)
		Send(player.Send, MsgShowSkip, false)
		Send(opponent.Send, MsgHintUpdate, fmt.Sprintf("%s guessed this is a %s. :)", player.Name, DisplayString(value)))
	}

	s.checkGameOver(seat)
	return nil
}

// Punish reveals the turn holder's own card at index after a wrong guess and
// passes the turn. Naming an already revealed card changes nothing.
func (s *Session) Punish(seat, index int) error {
	if err := s.checkActive(seat); err != nil {
		return fmt.Errorf("punish: %w", err)
	}
	if !s.PunishOwed {
		return fmt.Errorf("punish: %w", matcherrors.ErrNoPunishmentOwed)
	}
	player := s.Players[seat]
	if !player.Hand.InRange(index) {
		return fmt.Errorf("punish index %d: %w", index, matcherrors.ErrIndexOutOfRange)
	}
	if player.Hand[index].Revealed {
		return fmt.Errorf("punish index %d: %w", index, matcherrors.ErrAlreadyRevealed)
	}

	player.Hand[index].Revealed = true
	s.updateCards(true)
	s.switchTurn(1 - seat)
	s.checkGameOver(seat)
	return nil
}

// Skip ends the turn holder's streak after a correct guess.
func (s *Session) Skip(seat int) error {
	if err := s.checkActive(seat); err != nil {
		return fmt.Errorf("skip: %w", err)
	}
	if !s.CanSkip {
		return fmt.Errorf("skip: %w", matcherrors.ErrCannotSkip)
	}
	s.switchTurn(1 - seat)
	return nil
}

// switchTurn hands the turn to seat and tells both players who holds it.
func (s *Session) switchTurn(to int) {
	s.Turn = to
	s.PunishOwed = false
	s.CanSkip = false
	s.Round++

	holder := s.Players[to]
	for i, p := range s.Players {
		mine := i == to
		Send(p.Send, MsgSwitchTurn, mine)
		if mine {
			Send(p.Send, MsgHintUpdate, hintYourTurn)
		} else {
			Send(p.Send, MsgHintUpdate, holder.Name+"'s turn.")
		}
		Send(p.Send, MsgSelectCard, NoSelection)
	}
	slog.Debug("turn switched", "tag", "game", "session", s.ID, "holder", holder.Name, "round", s.Round)
}
