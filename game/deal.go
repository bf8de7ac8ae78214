package game

import (
	"math/rand"
	"sort"
)

// DeckSize is the number of cards in a full deck: every value once per color.
const DeckSize = (MaxValue - MinValue + 1) * 2

// NewDeck builds an unshuffled deck, black cards first.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, color := range []Color{Black, White} {
		for v := MinValue; v <= MaxValue; v++ {
			deck = append(deck, Card{Value: v, Color: color})
		}
	}
	return deck
}

// Deal shuffles a fresh deck and draws two disjoint hands of HandSize cards.
// The remaining cards are discarded. Each hand is arranged with SortHand.
func Deal() (Hand, Hand) {
	deck := NewDeck()
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	first := SortHand(Hand(deck[:HandSize]).Clone())
	second := SortHand(Hand(deck[HandSize : 2*HandSize]).Clone())
	return first, second
}

// SortHand orders the non-special cards ascending by value, white before black
// on equal value, then inserts each special card at a uniformly random slot of
// the sequence built so far.
func SortHand(cards Hand) Hand {
	var specials, normal Hand
	for _, c := range cards {
		if c.IsSpecial() {
			specials = append(specials, c)
		} else {
			normal = append(normal, c)
		}
	}

	sort.SliceStable(normal, func(i, j int) bool {
		return lessCard(normal[i], normal[j])
	})

	out := normal
	for _, s := range specials {
		out = insertAt(out, rand.Intn(len(out)+1), s)
	}
	return out
}

func lessCard(a, b Card) bool {
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	return a.Color == White && b.Color == Black
}

func insertAt(h Hand, pos int, c Card) Hand {
	h = append(h, Card{})
	copy(h[pos+1:], h[pos:])
	h[pos] = c
	return h
}
