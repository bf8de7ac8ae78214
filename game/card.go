package game

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Color is one of the two symmetric card colors.
type Color int

const (
	Black Color = iota
	White
)

// String returns the protocol string for a Color.
func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "unknown"
	}
}

// ParseColor maps the protocol string back to a Color.
func ParseColor(s string) (Color, error) {
	switch s {
	case "black":
		return Black, nil
	case "white":
		return White, nil
	default:
		return 0, fmt.Errorf("unknown color %q", s)
	}
}

const (
	// MinValue and MaxValue bound card values.
	MinValue = 1
	MaxValue = 12

	// SpecialValue marks cards that are placed randomly instead of sorted.
	SpecialValue = 1
)

// Card is a value/color pair plus its reveal flag. Cards have no identity
// beyond their slot in a hand.
type Card struct {
	Value    int
	Color    Color
	Revealed bool
}

// IsSpecial reports whether the card is exempt from ordinary sort placement.
func (c Card) IsSpecial() bool {
	return c.Value == SpecialValue
}

// DisplayString is the face label shown to players: "A" for 1, the number otherwise.
func DisplayString(value int) string {
	if value == SpecialValue {
		return "A"
	}
	return strconv.Itoa(value)
}

// cardJSON is the wire form of a card.
type cardJSON struct {
	Show       int    `json:"show"`
	Value      int    `json:"value"`
	Color      string `json:"color"`
	DisplayStr string `json:"display_str"`
}

func (c Card) wire() cardJSON {
	show := 0
	if c.Revealed {
		show = 1
	}
	return cardJSON{
		Show:       show,
		Value:      c.Value,
		Color:      c.Color.String(),
		DisplayStr: DisplayString(c.Value),
	}
}

// MarshalJSON implements json.Marshaler.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.wire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Card) UnmarshalJSON(data []byte) error {
	var raw cardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Value < MinValue || raw.Value > MaxValue {
		return fmt.Errorf("card value %d out of range", raw.Value)
	}
	color, err := ParseColor(raw.Color)
	if err != nil {
		return err
	}
	c.Value = raw.Value
	c.Color = color
	c.Revealed = raw.Show != 0
	return nil
}

// Hand is an ordered sequence of cards owned by one player.
// Order is both the display order and the index used by guesses.
type Hand []Card

// HandSize is the number of cards dealt to each player.
const HandSize = 10

// InRange reports whether idx addresses a card in the hand.
func (h Hand) InRange(idx int) bool {
	return idx >= 0 && idx < len(h)
}

// AllRevealed reports whether every card in a non-empty hand is revealed.
func (h Hand) AllRevealed() bool {
	if len(h) == 0 {
		return false
	}
	for _, c := range h {
		if !c.Revealed {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no storage with h.
func (h Hand) Clone() Hand {
	out := make(Hand, len(h))
	copy(out, h)
	return out
}

// IsPermutationOf reports whether other holds exactly the same cards as h,
// compared by value, color and reveal flag, in any order.
func (h Hand) IsPermutationOf(other Hand) bool {
	if len(h) != len(other) {
		return false
	}
	counts := make(map[Card]int, len(h))
	for _, c := range h {
		counts[c]++
	}
	for _, c := range other {
		counts[c]--
		if counts[c] < 0 {
			return false
		}
	}
	return true
}

// ParseHand decodes a full hand sent by a client. The payload is either a JSON
// array of cards or a JSON string containing that array.
func ParseHand(data []byte) (Hand, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		data = []byte(s)
	}
	var h Hand
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	return h, nil
}
