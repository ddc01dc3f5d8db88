package engine

import (
	"math/rand"
	"sort"
)

// Difficulty selects an AI policy. All three are greedy single-ply policies;
// none perform lookahead.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Move is a resolved AI decision: play hand[CardIndex] at (Row, Col).
type Move struct {
	CardIndex int
	Row       int
	Col       int
}

// SelectMove picks a legal move for the AI's hand on the given board, or
// returns ok=false when no legal move exists. With a double deck and Jacks
// always playable that should never happen; callers treat it as an internal
// error.
func SelectMove(hand []Card, b *Board, aiColor, opponentColor ChipColor, turnNumber int, difficulty Difficulty) (Move, bool) {
	switch difficulty {
	case DifficultyEasy:
		return selectEasy(hand, b, aiColor, opponentColor, turnNumber)
	case DifficultyHard:
		return selectHard(hand, b, aiColor, opponentColor)
	default:
		return selectMedium(hand, b, aiColor, opponentColor)
	}
}

// window is a 5-cell line segment with no blocking opponent chip: every cell
// is empty, a corner, or the line owner's color.
type window struct {
	cells    []Coord
	ownChips int
}

// potentialWindows enumerates every open 5-cell window for the color, sorted
// by descending own-chip count.
func potentialWindows(b *Board, color ChipColor) []window {
	var windows []window
	for _, dir := range directions {
		dR, dC := dir[0], dir[1]
		for r := 0; r < BoardSize; r++ {
			for c := 0; c < BoardSize; c++ {
				endR, endC := r+4*dR, c+4*dC
				if endR < 0 || endR >= BoardSize || endC < 0 || endC >= BoardSize {
					continue
				}
				w := window{}
				open := true
				for i := 0; i < 5; i++ {
					rr, cc := r+i*dR, c+i*dC
					cell := b.Cell(rr, cc)
					if cell.Chip != nil && cell.Chip.Color != color {
						open = false
						break
					}
					if cell.IsCorner || cell.Chip != nil {
						w.ownChips++
					}
					w.cells = append(w.cells, Coord{Row: rr, Col: cc})
				}
				if open {
					windows = append(windows, w)
				}
			}
		}
	}
	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].ownChips > windows[j].ownChips
	})
	return windows
}

// playableCardFor finds a hand card that can be placed on the empty non-corner
// cell: an exact rank+suit match is preferred, any two-eyed Jack is the
// fallback. Returns -1 when nothing in the hand fits.
func playableCardFor(hand []Card, cell *Cell) int {
	if cell == nil || cell.IsCorner || cell.Chip != nil {
		return -1
	}
	jackIdx := -1
	for i, card := range hand {
		if card.IsTwoEyedJack() {
			if jackIdx < 0 {
				jackIdx = i
			}
			continue
		}
		if cell.Card != nil && card.Rank == cell.Card.Rank && card.Suit == cell.Card.Suit {
			return i
		}
	}
	return jackIdx
}

// extendWindow looks for an empty cell in the window the AI can cover with a
// card from its hand.
func extendWindow(hand []Card, b *Board, w window) (Move, bool) {
	for _, pos := range w.cells {
		cell := b.Cell(pos.Row, pos.Col)
		if cell.IsCorner || cell.Chip != nil {
			continue
		}
		if idx := playableCardFor(hand, cell); idx >= 0 {
			return Move{CardIndex: idx, Row: pos.Row, Col: pos.Col}, true
		}
	}
	return Move{}, false
}

// legalMoves enumerates every legal play for the hand: exact placements,
// two-eyed Jack wilds, and one-eyed Jack removals.
func legalMoves(hand []Card, b *Board, opponentColor ChipColor) []Move {
	var moves []Move
	for i, card := range hand {
		for r := 0; r < BoardSize; r++ {
			for c := 0; c < BoardSize; c++ {
				cell := b[r][c]
				switch {
				case card.IsOneEyedJack():
					if cell.Chip != nil && cell.Chip.Color == opponentColor && !cell.Chip.PartOfSequence {
						moves = append(moves, Move{CardIndex: i, Row: r, Col: c})
					}
				case card.IsTwoEyedJack():
					if !cell.IsCorner && cell.Chip == nil {
						moves = append(moves, Move{CardIndex: i, Row: r, Col: c})
					}
				default:
					if !cell.IsCorner && cell.Chip == nil && cell.Card != nil &&
						cell.Card.Rank == card.Rank && cell.Card.Suit == card.Suit {
						moves = append(moves, Move{CardIndex: i, Row: r, Col: c})
					}
				}
			}
		}
	}
	return moves
}

func randomLegalMove(hand []Card, b *Board, opponentColor ChipColor) (Move, bool) {
	moves := legalMoves(hand, b, opponentColor)
	if len(moves) == 0 {
		return Move{}, false
	}
	return moves[rand.Intn(len(moves))], true
}

// removableOpponentChips lists every opponent chip a one-eyed Jack may take.
func removableOpponentChips(b *Board, opponentColor ChipColor) []Coord {
	var chips []Coord
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			cell := b[r][c]
			if cell.Chip != nil && cell.Chip.Color == opponentColor && !cell.Chip.PartOfSequence {
				chips = append(chips, Coord{Row: r, Col: c})
			}
		}
	}
	return chips
}

func oneEyedJackIndex(hand []Card) int {
	for i, card := range hand {
		if card.IsOneEyedJack() {
			return i
		}
	}
	return -1
}

// selectEasy removes an opponent chip the moment it holds a one-eyed Jack,
// extends a line on even turns, and plays randomly otherwise. The eager Jack
// use is intentional.
func selectEasy(hand []Card, b *Board, aiColor, opponentColor ChipColor, turnNumber int) (Move, bool) {
	if jackIdx := oneEyedJackIndex(hand); jackIdx >= 0 {
		if chips := removableOpponentChips(b, opponentColor); len(chips) > 0 {
			target := chips[rand.Intn(len(chips))]
			return Move{CardIndex: jackIdx, Row: target.Row, Col: target.Col}, true
		}
	}

	if turnNumber%2 == 0 {
		for _, w := range potentialWindows(b, aiColor) {
			if move, ok := extendWindow(hand, b, w); ok {
				return move, true
			}
		}
	}

	return randomLegalMove(hand, b, opponentColor)
}

// selectMedium grows existing lines first, then the strongest open window.
func selectMedium(hand []Card, b *Board, aiColor, opponentColor ChipColor) (Move, bool) {
	if move, ok := extendExistingLine(hand, b, aiColor); ok {
		return move, true
	}

	windows := potentialWindows(b, aiColor)
	for _, w := range windows {
		if w.ownChips < 3 {
			break
		}
		if move, ok := extendWindow(hand, b, w); ok {
			return move, true
		}
	}
	for _, w := range windows {
		if move, ok := extendWindow(hand, b, w); ok {
			return move, true
		}
	}

	return randomLegalMove(hand, b, opponentColor)
}

// selectHard pushes a line toward 10, completes fives, cuts the opponent's
// strongest threats with one-eyed Jacks and blocks, then falls back.
func selectHard(hand []Card, b *Board, aiColor, opponentColor ChipColor) (Move, bool) {
	if move, ok := extendExistingLine(hand, b, aiColor); ok {
		return move, true
	}

	ownWindows := potentialWindows(b, aiColor)
	for _, w := range ownWindows {
		if w.ownChips != 4 {
			continue
		}
		if move, ok := extendWindow(hand, b, w); ok {
			return move, true
		}
	}

	opponentWindows := potentialWindows(b, opponentColor)
	if jackIdx := oneEyedJackIndex(hand); jackIdx >= 0 {
		for _, w := range opponentWindows {
			if w.ownChips < 4 {
				break
			}
			for _, pos := range w.cells {
				cell := b.Cell(pos.Row, pos.Col)
				if cell.Chip != nil && cell.Chip.Color == opponentColor && !cell.Chip.PartOfSequence {
					return Move{CardIndex: jackIdx, Row: pos.Row, Col: pos.Col}, true
				}
			}
		}
	}

	for _, w := range opponentWindows {
		if w.ownChips < 3 {
			break
		}
		for _, pos := range w.cells {
			cell := b.Cell(pos.Row, pos.Col)
			if cell == nil || cell.IsCorner || cell.Chip != nil {
				continue
			}
			// Blocking uses an exact-match card only; Jacks are kept back.
			for i, card := range hand {
				if !card.IsJack() && cell.Card != nil &&
					card.Rank == cell.Card.Rank && card.Suit == cell.Card.Suit {
					return Move{CardIndex: i, Row: pos.Row, Col: pos.Col}, true
				}
			}
		}
	}

	for _, w := range ownWindows {
		if move, ok := extendWindow(hand, b, w); ok {
			return move, true
		}
	}

	return randomLegalMove(hand, b, opponentColor)
}

// extendExistingLine finds an own line of length 5-9 with an empty cell just
// beyond either end and a card to cover it, pushing the line toward 10.
func extendExistingLine(hand []Card, b *Board, color ChipColor) (Move, bool) {
	for _, r := range maximalRuns(b, color) {
		if len(r.cells) >= BoardSize {
			continue
		}
		first := r.cells[0]
		last := r.cells[len(r.cells)-1]
		ends := []Coord{
			{Row: first.Row - r.dRow, Col: first.Col - r.dCol},
			{Row: last.Row + r.dRow, Col: last.Col + r.dCol},
		}
		for _, pos := range ends {
			cell := b.Cell(pos.Row, pos.Col)
			if idx := playableCardFor(hand, cell); idx >= 0 {
				return Move{CardIndex: idx, Row: pos.Row, Col: pos.Col}, true
			}
		}
	}
	return Move{}, false
}
