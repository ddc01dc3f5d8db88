package engine

import "testing"

func testBoard(t *testing.T) *Board {
	t.Helper()
	board, err := NewBoard(BoardClassic)
	if err != nil {
		t.Fatal(err)
	}
	return board
}

func placeChip(b *Board, row, col int, color ChipColor) {
	b[row][col].Chip = &Chip{Color: color}
}

func TestDetectNewSequences_HorizontalFive(t *testing.T) {
	board := testBoard(t)
	for c := 1; c <= 5; c++ {
		placeChip(board, 4, c, ChipGreen)
	}

	seqs := DetectNewSequences(board, ChipGreen, 0)
	if len(seqs) != 1 {
		t.Fatalf("expected 1 sequence, got %d", len(seqs))
	}
	if seqs[0].TeamColor != ChipGreen {
		t.Errorf("sequence color = %s, want green", seqs[0].TeamColor)
	}
	if len(seqs[0].Cells) != 5 {
		t.Errorf("sequence has %d cells, want 5", len(seqs[0].Cells))
	}

	for c := 1; c <= 5; c++ {
		if !board[4][c].Chip.PartOfSequence {
			t.Errorf("chip at (4,%d) not marked", c)
		}
	}
}

func TestDetectNewSequences_Idempotent(t *testing.T) {
	board := testBoard(t)
	for c := 1; c <= 5; c++ {
		placeChip(board, 4, c, ChipGreen)
	}

	first := DetectNewSequences(board, ChipGreen, 0)
	if len(first) != 1 {
		t.Fatalf("expected 1 sequence, got %d", len(first))
	}

	second := DetectNewSequences(board, ChipGreen, 1)
	if len(second) != 0 {
		t.Errorf("second detection found %d sequences, want 0", len(second))
	}
}

func TestDetectNewSequences_TenInARowCountsTwo(t *testing.T) {
	board := testBoard(t)
	// Row 4 has no corners; fill it entirely.
	for c := 0; c < BoardSize; c++ {
		placeChip(board, 4, c, ChipBlue)
	}

	seqs := DetectNewSequences(board, ChipBlue, 0)
	if len(seqs) != 2 {
		t.Fatalf("10-in-a-row should yield 2 sequences, got %d", len(seqs))
	}
	for c := 0; c < BoardSize; c++ {
		if !board[4][c].Chip.PartOfSequence {
			t.Errorf("chip at (4,%d) not locked", c)
		}
	}

	if got := CountSequences(board, ChipBlue); got != 2 {
		t.Errorf("CountSequences = %d, want 2", got)
	}
	if extra := DetectNewSequences(board, ChipBlue, 2); len(extra) != 0 {
		t.Errorf("count inflated beyond 2: found %d more", len(extra))
	}
}

func TestDetectNewSequences_CornerCountsAsWild(t *testing.T) {
	board := testBoard(t)
	// Corner (0,0) plus four green chips completes a line of five.
	for c := 1; c <= 4; c++ {
		placeChip(board, 0, c, ChipGreen)
	}

	seqs := DetectNewSequences(board, ChipGreen, 0)
	if len(seqs) != 1 {
		t.Fatalf("corner line should score, got %d sequences", len(seqs))
	}
	if board[0][0].Chip != nil {
		t.Error("corner must never hold a chip")
	}
}

func TestDetectNewSequences_OpponentChipBreaksLine(t *testing.T) {
	board := testBoard(t)
	for c := 1; c <= 5; c++ {
		placeChip(board, 4, c, ChipGreen)
	}
	board[4][3].Chip = &Chip{Color: ChipBlue}

	if seqs := DetectNewSequences(board, ChipGreen, 0); len(seqs) != 0 {
		t.Errorf("broken line should not score, got %d", len(seqs))
	}
}

func TestDetectNewSequences_NoDoubleCountAcrossMoves(t *testing.T) {
	board := testBoard(t)
	// First sequence on row 2.
	for c := 1; c <= 5; c++ {
		placeChip(board, 2, c, ChipGreen)
	}
	first := DetectNewSequences(board, ChipGreen, 0)
	if len(first) != 1 {
		t.Fatalf("expected 1 sequence, got %d", len(first))
	}

	// Disjoint second sequence on column 6, rows 3-7.
	for r := 3; r <= 7; r++ {
		placeChip(board, r, 6, ChipGreen)
	}
	second := DetectNewSequences(board, ChipGreen, 1)
	if len(second) != 1 {
		t.Fatalf("expected 1 new sequence, got %d", len(second))
	}
	if CountSequences(board, ChipGreen) < SequencesToWin {
		t.Error("team with two sequences should satisfy the win condition")
	}
}

func TestCountSequences_EmptyBoard(t *testing.T) {
	board := testBoard(t)
	if got := CountSequences(board, ChipGreen); got != 0 {
		t.Errorf("empty board CountSequences = %d, want 0", got)
	}
}
