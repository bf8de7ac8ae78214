package game

import (
	"fmt"
	"log/slog"

	"coda-server/matcherrors"
)

// Deal hands out fresh cards to both seats, shows each player only their own
// hand, clears any selection and opens the reorder window. The caller drives
// the countdown by calling Tick, the first time right away.
func (s *Session) Deal() error {
	if s.Phase != PhaseMatched {
		return fmt.Errorf("deal %s: %w", s.ID, matcherrors.ErrAlreadyDealt)
	}
	h0, h1 := Deal()
	s.Players[0].Hand = h0
	s.Players[1].Hand = h1

	s.updateCards(false)
	s.sendBoth(MsgSelectCard, NoSelection)

	s.Phase = PhaseReorder
	s.Countdown = s.Config.ReorderCountdownSec
	s.sendBoth(MsgAllowReorder, true)

	slog.Info("new game dealt", "tag", "game", "session", s.ID,
		"p0", s.Players[0].Name, "p1", s.Players[1].Name)
	return nil
}

// Tick advances the reorder countdown by one step. It reports true on the tick
// that closes the window; the turn is then assigned and the session is playing.
func (s *Session) Tick() bool {
	if s.Phase != PhaseReorder {
		return false
	}
	s.sendBoth(MsgHintUpdate, reorderHint(s.Countdown))
	s.Countdown--
	if s.Countdown > 0 {
		return false
	}

	s.sendBoth(MsgAllowReorder, false)
	s.Phase = PhasePlaying
	s.updateCards(true)
	s.switchTurn(s.intn(2))
	return true
}

// Reorder replaces the hand at seat with a rearrangement of the same cards.
func (s *Session) Reorder(seat int, hand Hand) error {
	if s.Phase != PhaseReorder {
		return fmt.Errorf("reorder: %w", matcherrors.ErrNotReordering)
	}
	if !s.Players[seat].Hand.IsPermutationOf(hand) {
		return fmt.Errorf("reorder: %w", matcherrors.ErrInvalidReorder)
	}
	s.Players[seat].Hand = hand.Clone()
	return nil
}

func reorderHint(remaining int) string {
	return fmt.Sprintf("Long press your special card \"%s\" to move it (if you have one); "+
		"you can place it in any position.\nGame will start in %d seconds.",
		DisplayString(SpecialValue), remaining)
}
