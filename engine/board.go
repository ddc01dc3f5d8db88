package engine

import "fmt"

const BoardSize = 10

type BoardType string

const (
	BoardClassic     BoardType = "classic"
	BoardAlternative BoardType = "alternative"
	BoardAdvanced    BoardType = "advanced"
)

// ChipColor is a team's chip color. The server assigns green to team 1 and
// blue to team 2; red exists for client-local play and is never assigned here.
type ChipColor string

const (
	ChipGreen ChipColor = "green"
	ChipBlue  ChipColor = "blue"
	ChipRed   ChipColor = "red"
)

type Chip struct {
	Color          ChipColor `json:"color"`
	PartOfSequence bool      `json:"partOfSequence"`
}

// Cell is one board space. Corners carry no card and never hold a chip, but
// count as wild for every team's sequences.
type Cell struct {
	Card     *Card `json:"card,omitempty"`
	IsCorner bool  `json:"isCorner,omitempty"`
	Chip     *Chip `json:"chip,omitempty"`
	Row      int   `json:"row"`
	Col      int   `json:"col"`
}

type Board [BoardSize][BoardSize]*Cell

const corner = "--"

// classicLayout is the standard Sequence board. Each of the 48 non-Jack cards
// appears exactly twice; the four corners are wild. Jacks are never printed
// on the board.
var classicLayout = [BoardSize][BoardSize]string{
	{corner, "2S", "3S", "4S", "5S", "6S", "7S", "8S", "9S", corner},
	{"6C", "5C", "4C", "3C", "2C", "AH", "KH", "QH", "TH", "TS"},
	{"7C", "AS", "2D", "3D", "4D", "5D", "6D", "7D", "9H", "QS"},
	{"8C", "KS", "6C", "5C", "4C", "3C", "2C", "8D", "8H", "KS"},
	{"9C", "QS", "7C", "6H", "5H", "4H", "AH", "9D", "7H", "AS"},
	{"TC", "TS", "8C", "7H", "2H", "3H", "KH", "TD", "6H", "2D"},
	{"QC", "9S", "9C", "8H", "9H", "TH", "QH", "QD", "5H", "3D"},
	{"KC", "8S", "TC", "QC", "KC", "AC", "AD", "KD", "4H", "4D"},
	{"AC", "7S", "6S", "5S", "4S", "3S", "2S", "2H", "3H", "5D"},
	{corner, "AD", "KD", "QD", "TD", "9D", "8D", "7D", "6D", corner},
}

// layoutFor returns the card grid for a board type. The alternative and
// advanced boards are fixed rearrangements of the classic grid; rotation and
// transposition keep the two-copies-per-card and corner invariants intact.
func layoutFor(boardType BoardType) ([BoardSize][BoardSize]string, error) {
	switch boardType {
	case BoardClassic:
		return classicLayout, nil
	case BoardAlternative:
		return rotate180(classicLayout), nil
	case BoardAdvanced:
		return transpose(classicLayout), nil
	default:
		return [BoardSize][BoardSize]string{}, fmt.Errorf("unknown board type %q", boardType)
	}
}

func rotate180(layout [BoardSize][BoardSize]string) [BoardSize][BoardSize]string {
	var out [BoardSize][BoardSize]string
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			out[r][c] = layout[BoardSize-1-r][BoardSize-1-c]
		}
	}
	return out
}

func transpose(layout [BoardSize][BoardSize]string) [BoardSize][BoardSize]string {
	var out [BoardSize][BoardSize]string
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			out[r][c] = layout[c][r]
		}
	}
	return out
}

// NewBoard builds an empty board for the given layout.
func NewBoard(boardType BoardType) (*Board, error) {
	layout, err := layoutFor(boardType)
	if err != nil {
		return nil, err
	}

	board := &Board{}
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			cell := &Cell{Row: r, Col: c}
			if layout[r][c] == corner {
				cell.IsCorner = true
			} else {
				card, err := ParseCard(layout[r][c])
				if err != nil {
					return nil, fmt.Errorf("bad layout cell (%d,%d): %w", r, c, err)
				}
				cell.Card = &card
			}
			board[r][c] = cell
		}
	}
	return board, nil
}

// Cell returns the cell at (row, col), or nil when out of bounds.
func (b *Board) Cell(row, col int) *Cell {
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return nil
	}
	return b[row][col]
}
