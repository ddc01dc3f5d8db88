package engine

import "testing"

func cardAt(t *testing.T, b *Board, row, col int) Card {
	t.Helper()
	cell := b.Cell(row, col)
	if cell == nil || cell.Card == nil {
		t.Fatalf("no card at (%d,%d)", row, col)
	}
	return *cell.Card
}

func assertLegal(t *testing.T, b *Board, hand []Card, move Move, opponentColor ChipColor) {
	t.Helper()
	if move.CardIndex < 0 || move.CardIndex >= len(hand) {
		t.Fatalf("move card index %d out of hand range", move.CardIndex)
	}
	card := hand[move.CardIndex]
	cell := b.Cell(move.Row, move.Col)
	if cell == nil {
		t.Fatalf("move targets missing cell (%d,%d)", move.Row, move.Col)
	}
	switch {
	case card.IsOneEyedJack():
		if cell.Chip == nil || cell.Chip.Color != opponentColor || cell.Chip.PartOfSequence {
			t.Fatalf("one-eyed jack move on invalid cell (%d,%d)", move.Row, move.Col)
		}
	case card.IsTwoEyedJack():
		if cell.IsCorner || cell.Chip != nil {
			t.Fatalf("two-eyed jack move on invalid cell (%d,%d)", move.Row, move.Col)
		}
	default:
		if cell.IsCorner || cell.Chip != nil || cell.Card == nil ||
			cell.Card.Rank != card.Rank || cell.Card.Suit != card.Suit {
			t.Fatalf("ordinary move %s on invalid cell (%d,%d)", card, move.Row, move.Col)
		}
	}
}

func TestSelectMove_AllDifficultiesProduceLegalMoves(t *testing.T) {
	for _, difficulty := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		board := testBoard(t)
		placeChip(board, 2, 2, ChipBlue)
		placeChip(board, 5, 5, ChipGreen)

		hand := []Card{
			cardAt(t, board, 3, 3),
			cardAt(t, board, 6, 6),
			{Rank: Jack, Suit: Diamonds},
			{Rank: Jack, Suit: Spades},
			cardAt(t, board, 1, 1),
			cardAt(t, board, 8, 8),
		}

		for turn := 0; turn < 4; turn++ {
			move, ok := SelectMove(hand, board, ChipGreen, ChipBlue, turn, difficulty)
			if !ok {
				t.Fatalf("%s: no move found on open board", difficulty)
			}
			assertLegal(t, board, hand, move, ChipBlue)
		}
	}
}

func TestSelectMove_EasyUsesOneEyedJackWhenAvailable(t *testing.T) {
	board := testBoard(t)
	placeChip(board, 3, 7, ChipBlue)

	hand := []Card{{Rank: Jack, Suit: Hearts}, cardAt(t, board, 5, 5)}
	move, ok := SelectMove(hand, board, ChipGreen, ChipBlue, 0, DifficultyEasy)
	if !ok {
		t.Fatal("expected a move")
	}
	if move.CardIndex != 0 || move.Row != 3 || move.Col != 7 {
		t.Errorf("easy AI should remove the opponent chip at (3,7), got %+v", move)
	}
}

func TestSelectMove_EasyIgnoresLockedOpponentChip(t *testing.T) {
	board := testBoard(t)
	board[3][7].Chip = &Chip{Color: ChipBlue, PartOfSequence: true}

	hand := []Card{{Rank: Jack, Suit: Hearts}, cardAt(t, board, 5, 5)}
	move, ok := SelectMove(hand, board, ChipGreen, ChipBlue, 1, DifficultyEasy)
	if !ok {
		t.Fatal("expected a move")
	}
	if move.CardIndex == 0 {
		t.Error("one-eyed jack has no removable target; easy AI must play another card")
	}
}

func TestSelectMove_MediumExtendsExistingLine(t *testing.T) {
	board := testBoard(t)
	// Green line on row 4, cols 1-5; col 6 is open for extension.
	for c := 1; c <= 5; c++ {
		placeChip(board, 4, c, ChipGreen)
	}

	hand := []Card{cardAt(t, board, 4, 6), cardAt(t, board, 8, 8)}
	move, ok := SelectMove(hand, board, ChipGreen, ChipBlue, 0, DifficultyMedium)
	if !ok {
		t.Fatal("expected a move")
	}
	if move.Row != 4 || (move.Col != 6 && move.Col != 0) {
		t.Errorf("medium AI should extend the row-4 line, got %+v", move)
	}
}

func TestSelectMove_HardCompletesFourInWindow(t *testing.T) {
	board := testBoard(t)
	// Four green chips in row 6, cols 2-5; (6,6) completes a five.
	for c := 2; c <= 5; c++ {
		placeChip(board, 6, c, ChipGreen)
	}

	hand := []Card{cardAt(t, board, 6, 6), cardAt(t, board, 1, 1)}
	move, ok := SelectMove(hand, board, ChipGreen, ChipBlue, 0, DifficultyHard)
	if !ok {
		t.Fatal("expected a move")
	}
	if move.Row != 6 || (move.Col != 6 && move.Col != 1) {
		t.Errorf("hard AI should complete the row-6 window, got %+v", move)
	}
}

func TestSelectMove_HardBlocksOpponentWindow(t *testing.T) {
	board := testBoard(t)
	// Opponent threat: four blue chips on row 2, cols 2-5.
	for c := 2; c <= 5; c++ {
		placeChip(board, 2, c, ChipBlue)
	}

	// Hand: a one-eyed jack plus filler that cannot extend anything green.
	hand := []Card{{Rank: Jack, Suit: Spades}, {Rank: Jack, Suit: Clubs}}
	move, ok := SelectMove(hand, board, ChipGreen, ChipBlue, 0, DifficultyHard)
	if !ok {
		t.Fatal("expected a move")
	}
	if hand[move.CardIndex].IsOneEyedJack() {
		// Removal must target one of the threat chips.
		if move.Row != 2 || move.Col < 2 || move.Col > 5 {
			t.Errorf("hard AI jack removal should hit the row-2 threat, got %+v", move)
		}
	}
}

func TestSelectMove_NoLegalMove(t *testing.T) {
	board := testBoard(t)
	// Fill every non-corner cell with locked green chips; a one-eyed jack then
	// has no removable target and nothing can be placed.
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if !board[r][c].IsCorner {
				board[r][c].Chip = &Chip{Color: ChipGreen, PartOfSequence: true}
			}
		}
	}

	hand := []Card{{Rank: Jack, Suit: Spades}}
	if _, ok := SelectMove(hand, board, ChipBlue, ChipGreen, 0, DifficultyMedium); ok {
		t.Error("expected no legal move on a fully locked board")
	}
}
