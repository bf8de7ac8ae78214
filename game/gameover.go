package game

import "log/slog"

// checkGameOver runs after every accepted play and punish by the player at
// seat. If the mover's own hand is fully revealed the opponent wins; otherwise,
// if the opponent's hand is fully revealed, the mover wins. Only one outcome is
// ever declared. It reports whether the session is over.
func (s *Session) checkGameOver(seat int) bool {
	if s.Phase == PhaseOver {
		return true
	}
	opp := 1 - seat
	winner := -1
	switch {
	case s.Players[seat].Hand.AllRevealed():
		winner = opp
	case s.Players[opp].Hand.AllRevealed():
		winner = seat
	default:
		return false
	}

	s.Phase = PhaseOver
	s.Winner = winner
	Send(s.Players[winner].Send, MsgHintUpdate, "You win!")
	Send(s.Players[1-winner].Send, MsgHintUpdate, "You lost!")
	s.sendBoth(MsgGameOver, nil)

	slog.Info("game over", "tag", "game", "session", s.ID, "winner", s.Players[winner].Name, "rounds", s.Round)
	if s.OnGameEnd != nil {
		s.OnGameEnd(s.Result(EndCompleted, winner))
	}
	return true
}
