package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Lobby is what the Hub needs from the game lobby.
type Lobby interface {
	Connect(id string, send chan []byte)
	Deliver(id, action string, data json.RawMessage)
	Disconnect(id string)
}

// Hub upgrades HTTP requests and hands each connection to the lobby.
type Hub struct {
	Lobby Lobby
	newID func() string
}

// NewHub creates a new Hub.
func NewHub(l Lobby) *Hub {
	return &Hub{Lobby: l, newID: uuid.NewString}
}

// ServeWS handles WebSocket upgrade requests and creates a new Client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "tag", "ws", "err", err)
		return
	}

	client := &Client{
		ID:    h.newID(),
		Conn:  conn,
		Send:  make(chan []byte, 256),
		Lobby: h.Lobby,
	}
	slog.Debug("connection accepted", "tag", "ws", "id", client.ID, "remote", r.RemoteAddr)

	h.Lobby.Connect(client.ID, client.Send)

	go client.WritePump()
	go client.ReadPump()
}
