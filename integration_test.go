package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"coda-server/api"
	"coda-server/config"
	"coda-server/lobby"
)

// setupTestServer creates a test HTTP server with the full game server stack.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Defaults()
	cfg.ReorderCountdownSec = 2
	cfg.ReorderTickMS = 20
	cfg.PresenceDebounceMS = 30

	ctx, cancel := context.WithCancel(context.Background())
	l := lobby.New(cfg, nil)
	go l.Run(ctx)

	server := httptest.NewServer(newMux(l, api.NewHandler(cfg, nil, l.Online, nil)))
	t.Cleanup(func() {
		server.Close()
		cancel()
		<-l.Done
	})
	return server
}

// connectWS creates a WebSocket connection to the test server.
func connectWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type envelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// readMsg reads one envelope from the WebSocket.
func readMsg(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var msg envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal: %v\ndata: %s", err, string(data))
	}
	return msg
}

// readUntil skips messages until one with the given action arrives.
func readUntil(t *testing.T, conn *websocket.Conn, action string) envelope {
	t.Helper()
	for {
		if msg := readMsg(t, conn); msg.Action == action {
			return msg
		}
	}
}

// sendMsg sends an {action, data} envelope over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, action string, data any) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"action": action, "data": data})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
}

func decode[T any](t *testing.T, msg envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(msg.Data, &v); err != nil {
		t.Fatalf("%s: bad data %s: %v", msg.Action, msg.Data, err)
	}
	return v
}

type wireCard struct {
	Show       int    `json:"show"`
	Value      int    `json:"value"`
	Color      string `json:"color"`
	DisplayStr string `json:"display_str"`
}

type wireCards struct {
	MyCard        []wireCard `json:"myCard"`
	OpponentsCard []wireCard `json:"opponentsCard"`
}

// joinPair connects two players and matches them.
func joinPair(t *testing.T, server *httptest.Server) (alice, bob *websocket.Conn) {
	t.Helper()
	alice = connectWS(t, server)
	bob = connectWS(t, server)

	if id := decode[string](t, readUntil(t, alice, "connect")); id == "" {
		t.Fatal("expected a connection id")
	}
	readUntil(t, bob, "connect")

	sendMsg(t, alice, "join", "Alice")
	readUntil(t, alice, "matching_player")
	sendMsg(t, bob, "join", "Bob")

	if name := decode[string](t, readUntil(t, alice, "new_game")); name != "Bob" {
		t.Errorf("expected opponent Bob, got %q", name)
	}
	if name := decode[string](t, readUntil(t, bob, "new_game")); name != "Alice" {
		t.Errorf("expected opponent Alice, got %q", name)
	}
	return alice, bob
}

func TestIntegration_FullRound(t *testing.T) {
	server := setupTestServer(t)
	alice, bob := joinPair(t, server)

	sendMsg(t, alice, "ready", nil)
	sendMsg(t, bob, "ready", nil)

	conns := []*websocket.Conn{alice, bob}
	var hands [2][]wireCard
	var turns [2]bool
	for i, c := range conns {
		dealt := decode[wireCards](t, readUntil(t, c, "cards_update"))
		if len(dealt.MyCard) != 10 || len(dealt.OpponentsCard) != 0 {
			t.Fatalf("deal should show only the own hand, got %d/%d", len(dealt.MyCard), len(dealt.OpponentsCard))
		}
		if !decode[bool](t, readUntil(t, c, "allow_reorder")) {
			t.Fatal("expected reorder window to open")
		}
		if decode[bool](t, readUntil(t, c, "allow_reorder")) {
			t.Fatal("expected reorder window to close")
		}
		full := decode[wireCards](t, readUntil(t, c, "cards_update"))
		if len(full.OpponentsCard) != 10 {
			t.Fatalf("expected opponent hand after countdown, got %d", len(full.OpponentsCard))
		}
		for _, oc := range full.OpponentsCard {
			if oc.Show == 0 && oc.Value != 0 {
				t.Fatalf("hidden opponent card leaked its value: %+v", oc)
			}
		}
		hands[i] = full.MyCard
		turns[i] = decode[bool](t, readUntil(t, c, "switch_turn"))
	}
	if turns[0] == turns[1] {
		t.Fatalf("exactly one player should hold the turn, got %v", turns)
	}

	holder, other, target := alice, bob, hands[1]
	if turns[1] {
		holder, other, target = bob, alice, hands[0]
	}

	sendMsg(t, holder, "play", "0,"+strconv.Itoa(target[0].Value))
	if !decode[bool](t, readUntil(t, holder, "show_skip")) {
		t.Error("expected skip to be offered after a correct guess")
	}
	revealed := decode[wireCards](t, readUntil(t, other, "cards_update"))
	if revealed.MyCard[0].Show != 1 {
		t.Error("guessed card should be revealed")
	}

	sendMsg(t, holder, "skip", nil)
	if decode[bool](t, readUntil(t, holder, "switch_turn")) {
		t.Error("holder should pass the turn on skip")
	}
	if !decode[bool](t, readUntil(t, other, "switch_turn")) {
		t.Error("opponent should receive the turn on skip")
	}
}

func TestIntegration_DisconnectNotifiesOpponent(t *testing.T) {
	server := setupTestServer(t)
	alice, bob := joinPair(t, server)

	alice.Close()
	readUntil(t, bob, "resigned")
	// A broadcast for two players may still be queued ahead of the update.
	for i := 0; ; i++ {
		n := decode[int](t, readUntil(t, bob, "players_list"))
		if n == 1 {
			break
		}
		if i == 2 {
			t.Fatalf("expected 1 online, got %d", n)
		}
	}
}

func TestIntegration_InvalidNameGetsHint(t *testing.T) {
	server := setupTestServer(t)
	conn := connectWS(t, server)

	sendMsg(t, conn, "join", strings.Repeat("a", 25))
	hint := decode[string](t, readUntil(t, conn, "hint_update"))
	if !strings.Contains(hint, "between 1 and 24") {
		t.Errorf("unexpected hint %q", hint)
	}
}

func TestIntegration_MalformedFrameIsIgnored(t *testing.T) {
	server := setupTestServer(t)
	conn := connectWS(t, server)
	readUntil(t, conn, "connect")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	sendMsg(t, conn, "join", "Carol")
	readUntil(t, conn, "matching_player")
}

func TestIntegration_Health(t *testing.T) {
	server := setupTestServer(t)
	connectWS(t, server)

	// Connect is processed asynchronously by the lobby.
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(server.URL + "/health")
		if err != nil {
			t.Fatal(err)
		}
		var body struct {
			Status string `json:"status"`
			Online int    `json:"online"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if body.Status != "ok" {
			t.Fatalf("unexpected status %q", body.Status)
		}
		if body.Online == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 1 online, got %d", body.Online)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestIntegration_RecentWithoutDatabase(t *testing.T) {
	server := setupTestServer(t)
	resp, err := http.Get(server.URL + "/api/recent")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var list []any
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || len(list) != 0 {
		t.Errorf("expected empty 200 list, got %d %v", resp.StatusCode, list)
	}
}
