package lobby

import (
	"log/slog"
	"time"

	"coda-server/game"
	"coda-server/matchmaking"
)

// startReorderTimer posts an EventReorderTick for the session every tick
// interval until cancelled or the lobby stops.
func (l *Lobby) startReorderTimer(sessionID string) {
	l.cancelReorderTimer(sessionID)
	cancel := make(chan struct{})
	l.reorderTimers[sessionID] = cancel
	interval := l.Config.ReorderTick()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case l.Events <- Event{Type: EventReorderTick, SessionID: sessionID}:
				case <-cancel:
					return
				case <-l.Done:
					return
				}
			case <-cancel:
				return
			case <-l.Done:
				return
			}
		}
	}()
}

// cancelReorderTimer stops the session's ticker. Safe if none is running.
func (l *Lobby) cancelReorderTimer(sessionID string) {
	if cancel, ok := l.reorderTimers[sessionID]; ok {
		close(cancel)
		delete(l.reorderTimers, sessionID)
	}
}

func (l *Lobby) handleReorderTick(sessionID string) {
	// A tick queued before cancellation is stale.
	if _, ok := l.reorderTimers[sessionID]; !ok {
		return
	}
	s, ok := l.sessions[sessionID]
	if !ok {
		l.cancelReorderTimer(sessionID)
		return
	}
	l.tick(s)
}

// tick advances the reorder countdown and, when it closes, moves both
// participants to Playing. It reports whether the window closed.
func (l *Lobby) tick(s *game.Session) bool {
	if !s.Tick() {
		return false
	}
	l.cancelReorderTimer(s.ID)
	for _, pl := range s.Players {
		if p, ok := l.Registry.Find(pl.ID); ok && p.Session == s {
			p.State = matchmaking.Playing
		}
	}
	slog.Info("reorder window closed", "tag", "lobby", "session", s.ID, "first", s.Players[s.Turn].Name)
	return true
}

// schedulePresence (re)starts the debounce timer for the online-count
// broadcast. Every call pushes the broadcast back by the full window.
func (l *Lobby) schedulePresence() {
	if l.presenceTimer != nil {
		l.presenceTimer.Stop()
	}
	l.presenceGen++
	gen := l.presenceGen
	l.presenceTimer = time.AfterFunc(l.Config.PresenceDebounce(), func() {
		select {
		case l.Events <- Event{Type: EventPresence, Generation: gen}:
		case <-l.Done:
		}
	})
}

// broadcastPresence sends the current online count to everyone. Firings from a
// timer that was superseded after it had already fired are dropped.
func (l *Lobby) broadcastPresence(gen uint64) {
	if gen != l.presenceGen {
		return
	}
	n := l.Registry.Count()
	for _, p := range l.Registry.All() {
		game.Send(p.Send, game.MsgPlayersList, n)
	}
	slog.Debug("presence broadcast", "tag", "lobby", "online", n)
}
