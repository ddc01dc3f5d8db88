package engine

// Coord addresses one board cell inside a sequence.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Sequence is 5+ chips of one team in an unbroken line. A 10-long line counts
// as two sequences for the win condition.
type Sequence struct {
	TeamColor ChipColor `json:"teamColor"`
	Cells     []Coord   `json:"cells"`
}

// SequencesToWin is the number of recorded sequences a team needs.
const SequencesToWin = 2

var directions = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal down-right
	{1, -1}, // diagonal down-left
}

// ownsCell reports whether a cell counts toward the team's line: either the
// team's chip sits on it, or it is a wild corner.
func ownsCell(b *Board, row, col int, color ChipColor) bool {
	cell := b.Cell(row, col)
	if cell == nil {
		return false
	}
	if cell.IsCorner {
		return true
	}
	return cell.Chip != nil && cell.Chip.Color == color
}

type run struct {
	cells []Coord
	dRow  int
	dCol  int
}

// maximalRuns enumerates every maximal contiguous line of the team's color
// (corners wild) with length >= 5, one entry per (start, direction) identity.
func maximalRuns(b *Board, color ChipColor) []run {
	var runs []run
	for _, dir := range directions {
		dR, dC := dir[0], dir[1]
		for r := 0; r < BoardSize; r++ {
			for c := 0; c < BoardSize; c++ {
				if !ownsCell(b, r, c, color) {
					continue
				}
				// Only scan from the earliest cell of the line.
				if ownsCell(b, r-dR, c-dC, color) {
					continue
				}
				var cells []Coord
				for rr, cc := r, c; ownsCell(b, rr, cc, color); rr, cc = rr+dR, cc+dC {
					cells = append(cells, Coord{Row: rr, Col: cc})
				}
				if len(cells) >= 5 {
					runs = append(runs, run{cells: cells, dRow: dR, dCol: dC})
				}
			}
		}
	}
	return runs
}

// CountSequences scans the whole board and returns how many sequences the
// team currently has: each line of 5-9 counts once, a line of 10 counts twice.
func CountSequences(b *Board, color ChipColor) int {
	total := 0
	for _, r := range maximalRuns(b, color) {
		if len(r.cells) >= BoardSize {
			total += 2
		} else {
			total++
		}
	}
	return total
}

// DetectNewSequences compares the board's total sequence count for the team
// against the count already recorded, and emits one Sequence record per
// increment. Newly discovered lines are located by the presence of a fresh
// chip (placed but not yet part of any sequence). All emitted sequences have
// their chips marked, including the full maximal line through the line's
// first cell in every direction, so a 10-line locks all ten chips.
func DetectNewSequences(b *Board, color ChipColor, recordedCount int) []Sequence {
	delta := CountSequences(b, color) - recordedCount
	if delta <= 0 {
		return nil
	}

	var found []Sequence
	for _, r := range maximalRuns(b, color) {
		if !containsFreshChip(b, r.cells) {
			continue
		}
		contribution := 1
		if len(r.cells) >= BoardSize {
			contribution = 2
		}
		if contribution > delta {
			contribution = delta
		}
		for i := 0; i < contribution; i++ {
			found = append(found, Sequence{TeamColor: color, Cells: r.cells})
		}
		markSequence(b, r, color)
		delta -= contribution
		if delta == 0 {
			break
		}
	}
	return found
}

func containsFreshChip(b *Board, cells []Coord) bool {
	for _, pos := range cells {
		cell := b.Cell(pos.Row, pos.Col)
		if cell != nil && cell.Chip != nil && !cell.Chip.PartOfSequence {
			return true
		}
	}
	return false
}

// markSequence locks every chip of the run, then traces the maximal line in
// each of the four directions through the run's first cell and locks those
// chips too.
func markSequence(b *Board, r run, color ChipColor) {
	for _, pos := range r.cells {
		markChip(b, pos.Row, pos.Col)
	}

	first := r.cells[0]
	for _, dir := range directions {
		dR, dC := dir[0], dir[1]
		// Walk back to the earliest owned cell of this line.
		sr, sc := first.Row, first.Col
		for ownsCell(b, sr-dR, sc-dC, color) {
			sr -= dR
			sc -= dC
		}
		for rr, cc := sr, sc; ownsCell(b, rr, cc, color); rr, cc = rr+dR, cc+dC {
			markChip(b, rr, cc)
		}
	}
}

func markChip(b *Board, row, col int) {
	cell := b.Cell(row, col)
	if cell != nil && cell.Chip != nil {
		cell.Chip.PartOfSequence = true
	}
}
