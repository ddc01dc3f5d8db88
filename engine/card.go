package engine

import (
	"fmt"
	"strings"
)

type Suit string
type Rank string

const (
	Spades   Suit = "spades"
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
)

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "T"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

var suits = []Suit{Spades, Hearts, Diamonds, Clubs}
var ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// String renders the wire form "<Rank><SuitInitial>", e.g. "AS", "TD", "JH".
func (c Card) String() string {
	return string(c.Rank) + strings.ToUpper(string(c.Suit[0]))
}

// ParseCard is the inverse of String.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("invalid card string %q", s)
	}

	var rank Rank
	found := false
	for _, r := range ranks {
		if string(r) == s[:1] {
			rank = r
			found = true
			break
		}
	}
	if !found {
		return Card{}, fmt.Errorf("invalid rank in card string %q", s)
	}

	var suit Suit
	switch s[1] {
	case 'S':
		suit = Spades
	case 'H':
		suit = Hearts
	case 'D':
		suit = Diamonds
	case 'C':
		suit = Clubs
	default:
		return Card{}, fmt.Errorf("invalid suit in card string %q", s)
	}

	return Card{Rank: rank, Suit: suit}, nil
}

// IsTwoEyedJack reports whether the card is a wild Jack (diamonds or clubs):
// playable on any empty non-corner cell.
func (c Card) IsTwoEyedJack() bool {
	return c.Rank == Jack && (c.Suit == Diamonds || c.Suit == Clubs)
}

// IsOneEyedJack reports whether the card is a removal Jack (spades or hearts):
// its play removes an opponent chip not yet part of a sequence.
func (c Card) IsOneEyedJack() bool {
	return c.Rank == Jack && (c.Suit == Spades || c.Suit == Hearts)
}

func (c Card) IsJack() bool {
	return c.Rank == Jack
}
