package game

import (
	"encoding/json"
	"log/slog"

	"coda-server/wsutil"
)

// Outbound action names.
const (
	MsgConnect        = "connect"
	MsgMatchingPlayer = "matching_player"
	MsgPlayersList    = "players_list"
	MsgNewGame        = "new_game"
	MsgAllowReorder   = "allow_reorder"
	MsgHintUpdate     = "hint_update"
	MsgSelectCard     = "select_card"
	MsgCardsUpdate    = "cards_update"
	MsgSwitchTurn     = "switch_turn"
	MsgShowSkip       = "show_skip"
	MsgPunish         = "punish"
	MsgResigned       = "resigned"
	MsgGameOver       = "gameover"
)

// NoSelection is the select_card payload that clears any highlighted card.
const NoSelection = "-1"

// Message is the envelope for every server-to-client message.
type Message struct {
	Action string `json:"action"`
	Data   any    `json:"data,omitempty"`
}

// CardsUpdate is the cards_update payload. OpponentsCard is empty while the
// opponent's hand is hidden.
type CardsUpdate struct {
	MyCard        Hand         `json:"myCard"`
	OpponentsCard OpponentHand `json:"opponentsCard"`
}

// OpponentHand is a hand seen from the other seat: the color of every card is
// visible but the value of a hidden card is withheld.
type OpponentHand Hand

// MarshalJSON implements json.Marshaler.
func (h OpponentHand) MarshalJSON() ([]byte, error) {
	out := make([]cardJSON, len(h))
	for i, c := range h {
		if c.Revealed {
			out[i] = c.wire()
			continue
		}
		out[i] = cardJSON{Color: c.Color.String()}
	}
	return json.Marshal(out)
}

// Send marshals a message and delivers it to ch without blocking.
func Send(ch chan []byte, action string, data any) {
	if ch == nil {
		return
	}
	payload, err := json.Marshal(Message{Action: action, Data: data})
	if err != nil {
		slog.Error("marshaling message", "tag", "game", "action", action, "err", err)
		return
	}
	if !wsutil.SafeSend(ch, payload) {
		slog.Debug("message not delivered", "tag", "game", "action", action)
	}
}
