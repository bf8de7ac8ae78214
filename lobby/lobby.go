package lobby

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"coda-server/config"
	"coda-server/game"
	"coda-server/matchmaking"
)

// EventType enumerates the kinds of events the lobby processes.
type EventType int

const (
	EventConnect EventType = iota
	EventMessage
	EventClose
	EventReorderTick // internal: fired by a session's reorder ticker
	EventPresence    // internal: fired when the presence debounce settles
)

// Event is one unit of work for the lobby loop. Inbound messages and timer
// firings share the same channel so they never interleave.
type Event struct {
	Type   EventType
	ConnID string
	Send   chan []byte // for EventConnect

	Action string          // for EventMessage
	Data   json.RawMessage // for EventMessage

	SessionID  string // for EventReorderTick
	Generation uint64 // for EventPresence
}

// ResultRecorder persists the outcome of a session. Optional; may be nil.
type ResultRecorder interface {
	RecordResult(ctx context.Context, r game.Result) error
}

// recordTimeout bounds a single result write.
const recordTimeout = 5 * time.Second

// Lobby owns the registry and every session. All state is touched only from Run.
type Lobby struct {
	Config   *config.Config
	Registry *matchmaking.Registry

	matchmaker    *matchmaking.Matchmaker
	sessions      map[string]*game.Session
	reorderTimers map[string]chan struct{}
	presenceTimer *time.Timer
	presenceGen   uint64
	recorder      ResultRecorder

	Events chan Event
	Done   chan struct{}
}

// New creates a Lobby. recorder may be nil.
func New(cfg *config.Config, recorder ResultRecorder) *Lobby {
	reg := matchmaking.NewRegistry()
	return &Lobby{
		Config:        cfg,
		Registry:      reg,
		matchmaker:    matchmaking.NewMatchmaker(reg, cfg),
		sessions:      make(map[string]*game.Session),
		reorderTimers: make(map[string]chan struct{}),
		recorder:      recorder,
		Events:        make(chan Event, 256),
		Done:          make(chan struct{}),
	}
}

// Run is the lobby's main loop. It processes events one at a time until ctx is cancelled.
// It should be run as a goroutine.
func (l *Lobby) Run(ctx context.Context) {
	defer close(l.Done)
	defer l.stopTimers()

	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, stopping", "tag", "lobby")
			return
		case ev := <-l.Events:
			l.handle(ev)
		}
	}
}

func (l *Lobby) post(ev Event) {
	select {
	case l.Events <- ev:
	case <-l.Done:
	}
}

// Connect registers a new connection with its outbound channel.
func (l *Lobby) Connect(id string, send chan []byte) {
	l.post(Event{Type: EventConnect, ConnID: id, Send: send})
}

// Deliver hands an inbound action from connection id to the lobby.
func (l *Lobby) Deliver(id, action string, data json.RawMessage) {
	l.post(Event{Type: EventMessage, ConnID: id, Action: action, Data: data})
}

// Disconnect reports that connection id is gone.
func (l *Lobby) Disconnect(id string) {
	l.post(Event{Type: EventClose, ConnID: id})
}

// Online returns the number of connected participants.
func (l *Lobby) Online() int {
	return l.Registry.Count()
}

func (l *Lobby) handle(ev Event) {
	switch ev.Type {
	case EventConnect:
		l.handleConnect(ev.ConnID, ev.Send)
	case EventMessage:
		l.handleMessage(ev.ConnID, ev.Action, ev.Data)
	case EventClose:
		l.handleClose(ev.ConnID)
	case EventReorderTick:
		l.handleReorderTick(ev.SessionID)
	case EventPresence:
		l.broadcastPresence(ev.Generation)
	}
}

func (l *Lobby) handleConnect(id string, send chan []byte) {
	p := matchmaking.NewParticipant(id, send)
	if err := l.Registry.Add(p); err != nil {
		slog.Error("registering connection", "tag", "lobby", "err", err)
		close(send)
		return
	}
	game.Send(send, game.MsgConnect, id)
	slog.Info("player joined", "tag", "lobby", "id", id, "online", l.Registry.Count())
	l.schedulePresence()
}

func (l *Lobby) handleClose(id string) {
	p, ok := l.Registry.Find(id)
	if !ok {
		return
	}
	if opp := l.Registry.Opponent(p); opp != nil {
		game.Send(opp.Send, game.MsgResigned, nil)
		opp.Detach()
	}
	l.endSession(p, game.EndDisconnected)
	l.Registry.Remove(id)
	close(p.Send)
	slog.Info("player left", "tag", "lobby", "id", id, "name", p.Name, "online", l.Registry.Count())
	l.schedulePresence()
}

// addSession indexes a freshly matched session.
func (l *Lobby) addSession(s *game.Session) {
	s.OnGameEnd = l.recordResult
	l.sessions[s.ID] = s
}

// endSession tears down p's session, if any, cancelling its reorder ticker and
// reporting the abandonment, then unpairs p. The opponent is left to the caller.
func (l *Lobby) endSession(p *matchmaking.Participant, reason string) {
	s := p.Session
	if s == nil {
		return
	}
	l.cancelReorderTimer(s.ID)
	s.Abandon(p.Seat, reason)
	delete(l.sessions, s.ID)
	p.Detach()
}

func (l *Lobby) recordResult(r game.Result) {
	if l.recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := l.recorder.RecordResult(ctx, r); err != nil {
			slog.Error("recording result", "tag", "lobby", "session", r.SessionID, "err", err)
		}
	}()
}

// stopTimers cancels every pending timer on shutdown.
func (l *Lobby) stopTimers() {
	for id := range l.reorderTimers {
		l.cancelReorderTimer(id)
	}
	if l.presenceTimer != nil {
		l.presenceTimer.Stop()
	}
}
