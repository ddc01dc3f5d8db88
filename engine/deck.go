package engine

import "math/rand"

// DeckSize is two full 52-card decks.
const DeckSize = 104

// mulberry32 is a tiny deterministic PRNG. Clients rebuild the deck from
// (seed, cursor) on reconnect, so the recipe must match them bit for bit:
// do not change the constants or the operation order.
type mulberry32 struct {
	state uint32
}

func newMulberry32(seed uint32) *mulberry32 {
	return &mulberry32{state: seed}
}

// Next yields a float in [0, 1).
func (m *mulberry32) Next() float64 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// ShuffleDeck builds the 104-card double deck (suit-major, spades first) and
// Fisher-Yates shuffles it with the seeded PRNG.
func ShuffleDeck(seed int64) []Card {
	deck := make([]Card, 0, DeckSize)
	for copies := 0; copies < 2; copies++ {
		for _, suit := range suits {
			for _, rank := range ranks {
				deck = append(deck, Card{Rank: rank, Suit: suit})
			}
		}
	}

	rng := newMulberry32(uint32(seed))
	for i := len(deck) - 1; i >= 1; i-- {
		j := int(rng.Next() * float64(i+1))
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// HandSize is 7 for a 2-player game and 6 otherwise.
func HandSize(playerCount int) int {
	if playerCount == 2 {
		return 7
	}
	return 6
}

// GenerateSeed returns a uniformly random positive 31-bit deck seed.
func GenerateSeed() int64 {
	return int64(rand.Int31())
}
