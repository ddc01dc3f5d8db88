package game

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"sequence-platform/backend/engine"
	"sequence-platform/backend/internal/apperrors"
	"sequence-platform/backend/internal/events"
	"sequence-platform/backend/internal/models"
	"sequence-platform/backend/internal/store"
)

// Notifier pushes events to attached duplex channels. Satisfied by ws.Hub.
type Notifier interface {
	SendEvent(playerID, eventType string, payload interface{})
	Broadcast(playerIDs []string, eventType string, payload interface{})
}

const (
	aiLatencyMin    = 800 * time.Millisecond
	aiLatencyJitter = 400 * time.Millisecond

	rematchWindow = 30 * time.Second
)

// Service is the game controller: it builds games from rooms, validates and
// executes turns, drives AI seats, and runs rematch polls. All state changes
// happen under the registry lock; events go out after it is released.
type Service struct {
	registry *store.Registry
	notifier Notifier
}

func NewService(registry *store.Registry, notifier Notifier) *Service {
	return &Service{registry: registry, notifier: notifier}
}

// StartResult is the response to a successful start-game request.
type StartResult struct {
	GameID                     string `json:"gameId"`
	MissingPlayersFilledWithAI bool   `json:"missingPlayersFilledWithAI"`
	AICount                    int    `json:"aiCount"`
}

// StartGame converts a waiting room into an active game. Empty seats are
// filled with AI players balancing the teams.
func (s *Service) StartGame(sess *models.Session, roomID string) (*StartResult, error) {
	s.registry.Mu.Lock()

	room, ok := s.registry.Rooms[roomID]
	if !ok {
		s.registry.Mu.Unlock()
		return nil, fmt.Errorf("%w: room %s", apperrors.ErrNotFound, roomID)
	}
	if room.HostID != sess.PlayerID {
		s.registry.Mu.Unlock()
		return nil, fmt.Errorf("%w: only the host can start the game", apperrors.ErrForbidden)
	}
	if room.Status != models.RoomWaiting {
		s.registry.Mu.Unlock()
		return nil, fmt.Errorf("%w: room is not waiting", apperrors.ErrConflict)
	}
	if room.HumanCount() == 0 {
		s.registry.Mu.Unlock()
		return nil, fmt.Errorf("%w: no human players in room", apperrors.ErrConflict)
	}

	aiCount := room.MaxPlayers - len(room.Players)
	for i := 0; i < aiCount; i++ {
		team := 1
		if room.TeamCount(2) < room.TeamCount(1) {
			team = 2
		}
		room.Players = append(room.Players, &models.RoomPlayer{
			PlayerID:    "ai-" + uuid.New().String(),
			DisplayName: fmt.Sprintf("AI %d", i+1),
			IsReady:     true,
			IsAI:        true,
			Team:        team,
			JoinedAt:    time.Now(),
		})
	}

	game := buildGame(room)
	s.registry.PutGameLocked(game)
	room.GameID = game.ID
	room.Status = models.RoomPlaying
	s.registry.PutRoomLocked(room)

	for _, p := range game.Players {
		if p.IsAI {
			continue
		}
		if ps, ok := s.registry.SessionsByPlayer[p.PlayerID]; ok {
			ps.CurrentGameID = game.ID
		}
	}

	starts := s.buildGameStartedLocked(game)
	updated := events.RoomUpdated{Room: room.Sanitize()}
	recipients := humanIDs(game)
	s.registry.Mu.Unlock()

	log.Printf("[GAME] game %s started from room %s (%d AI)", game.ID, roomID, aiCount)
	s.notifier.Broadcast(recipients, events.TypeRoomUpdated, updated)
	for playerID, payload := range starts {
		s.notifier.SendEvent(playerID, events.TypeGameStarted, payload)
	}
	s.scheduleAITurn(game.ID)

	return &StartResult{
		GameID:                     game.ID,
		MissingPlayersFilledWithAI: aiCount > 0,
		AICount:                    aiCount,
	}, nil
}

// buildGame materializes a fresh game from a room's current seating.
func buildGame(room *models.Room) *models.Game {
	seed := engine.GenerateSeed()
	deck := engine.ShuffleDeck(seed)
	board, _ := engine.NewBoard(room.BoardType)

	players := make([]*models.GamePlayer, 0, len(room.Players))
	teams := []*models.Team{
		{Color: engine.ChipGreen},
		{Color: engine.ChipBlue},
	}
	for _, rp := range room.Players {
		color := engine.ChipGreen
		teamIdx := 0
		if rp.Team == 2 {
			color = engine.ChipBlue
			teamIdx = 1
		}
		players = append(players, &models.GamePlayer{
			PlayerID:    rp.PlayerID,
			DisplayName: rp.DisplayName,
			TeamColor:   color,
			IsAI:        rp.IsAI,
		})
		teams[teamIdx].PlayerIDs = append(teams[teamIdx].PlayerIDs, rp.PlayerID)
	}

	handSize := engine.HandSize(len(players))
	cursor := 0
	for _, p := range players {
		p.Hand = append([]engine.Card(nil), deck[cursor:cursor+handSize]...)
		cursor += handSize
	}

	now := time.Now()
	return &models.Game{
		ID:                  uuid.New().String(),
		RoomID:              room.ID,
		DeckSeed:            seed,
		BoardType:           room.BoardType,
		Status:              models.GameActive,
		Players:             players,
		Teams:               teams,
		Board:               board,
		CurrentTurnPlayerID: players[0].PlayerID,
		DeckCursor:          cursor,
		ShuffledDeck:        deck,
		CreatedAt:           now,
		LastActivityAt:      now,
	}
}

func humanIDs(game *models.Game) []string {
	ids := make([]string, 0, len(game.Players))
	for _, p := range game.Players {
		if !p.IsAI {
			ids = append(ids, p.PlayerID)
		}
	}
	return ids
}

func cardStrings(cards []engine.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

// buildGameStartedLocked builds one game_started payload per human player;
// each carries only the recipient's own hand.
func (s *Service) buildGameStartedLocked(game *models.Game) map[string]events.GameStarted {
	seats := make([]events.GameSeat, 0, len(game.Players))
	for _, p := range game.Players {
		seats = append(seats, events.GameSeat{
			PlayerID:    p.PlayerID,
			DisplayName: p.DisplayName,
			TeamColor:   p.TeamColor,
			IsAI:        p.IsAI,
			HandSize:    len(p.Hand),
		})
	}

	out := make(map[string]events.GameStarted)
	for _, p := range game.Players {
		if p.IsAI {
			continue
		}
		out[p.PlayerID] = events.GameStarted{
			GameID:        game.ID,
			RoomID:        game.RoomID,
			DeckSeed:      game.DeckSeed,
			BoardType:     game.BoardType,
			Players:       seats,
			Teams:         game.Teams,
			Hand:          cardStrings(p.Hand),
			FirstPlayerID: game.CurrentTurnPlayerID,
			CardsLeft:     engine.DeckSize - game.DeckCursor,
		}
	}
	return out
}

// turnOutcome collects everything a resolved turn needs to emit after the
// registry lock is released.
type turnOutcome struct {
	gameID     string
	recipients []string
	moverID    string
	moverIsAI  bool
	turnMade   events.TurnMade
	drawn      string
	finished   *events.GameFinished
}

// Turn validates and executes a human move.
func (s *Service) Turn(sess *models.Session, gameID string, cardIndex, row, col int) error {
	s.registry.Mu.Lock()

	game, ok := s.registry.Games[gameID]
	if !ok {
		s.registry.Mu.Unlock()
		return fmt.Errorf("%w: game %s", apperrors.ErrNotFound, gameID)
	}
	if game.Player(sess.PlayerID) == nil {
		s.registry.Mu.Unlock()
		return fmt.Errorf("%w: not a player in this game", apperrors.ErrForbidden)
	}

	outcome, err := s.executeTurnLocked(game, sess.PlayerID, cardIndex, row, col)
	s.registry.Mu.Unlock()
	if err != nil {
		return err
	}

	s.emitTurn(outcome)
	s.scheduleAITurn(gameID)
	return nil
}

// executeTurnLocked is the single authoritative move path, shared by human
// requests and the AI driver. Caller holds the registry lock.
func (s *Service) executeTurnLocked(game *models.Game, playerID string, cardIndex, row, col int) (*turnOutcome, error) {
	if game.Status != models.GameActive {
		return nil, fmt.Errorf("%w: game is not active", apperrors.ErrConflict)
	}
	if game.CurrentTurnPlayerID != playerID {
		return nil, fmt.Errorf("%w: not your turn", apperrors.ErrConflict)
	}
	player := game.Player(playerID)
	if cardIndex < 0 || cardIndex >= len(player.Hand) {
		return nil, fmt.Errorf("%w: card index %d out of range", apperrors.ErrInvalidArg, cardIndex)
	}
	card := player.Hand[cardIndex]
	cell := game.Board.Cell(row, col)
	if cell == nil {
		return nil, fmt.Errorf("%w: cell (%d,%d) out of range", apperrors.ErrInvalidArg, row, col)
	}

	opponentColor := engine.ChipBlue
	if player.TeamColor == engine.ChipBlue {
		opponentColor = engine.ChipGreen
	}

	switch {
	case card.IsOneEyedJack():
		if cell.Chip == nil || cell.Chip.Color != opponentColor {
			return nil, fmt.Errorf("%w: one-eyed jack needs an opponent chip", apperrors.ErrIllegalMove)
		}
		if cell.Chip.PartOfSequence {
			return nil, fmt.Errorf("%w: chip is locked in a sequence", apperrors.ErrIllegalMove)
		}
	case card.IsTwoEyedJack():
		if cell.IsCorner || cell.Chip != nil {
			return nil, fmt.Errorf("%w: two-eyed jack needs an empty non-corner cell", apperrors.ErrIllegalMove)
		}
	default:
		if cell.IsCorner || cell.Chip != nil {
			return nil, fmt.Errorf("%w: cell is not open", apperrors.ErrIllegalMove)
		}
		if cell.Card == nil || cell.Card.Rank != card.Rank || cell.Card.Suit != card.Suit {
			return nil, fmt.Errorf("%w: card %s does not match cell (%d,%d)", apperrors.ErrIllegalMove, card, row, col)
		}
	}

	// Mutate the board.
	var placed *events.ChipPlacement
	if card.IsOneEyedJack() {
		cell.Chip = nil
	} else {
		cell.Chip = &engine.Chip{Color: player.TeamColor}
		placed = &events.ChipPlacement{Color: player.TeamColor}
	}

	newSeqs := engine.DetectNewSequences(game.Board, player.TeamColor, game.TeamSequenceCount(player.TeamColor))
	game.Sequences = append(game.Sequences, newSeqs...)
	if placed != nil && cell.Chip != nil {
		placed.PartOfSequence = cell.Chip.PartOfSequence
	}

	now := time.Now()
	if game.TeamSequenceCount(player.TeamColor) >= engine.SequencesToWin {
		game.Status = models.GameFinished
		game.WinnerID = playerID
		game.FinishedAt = &now
	}

	// Replace the played card with a draw while the deck lasts.
	player.Hand = append(player.Hand[:cardIndex], player.Hand[cardIndex+1:]...)
	drawn := ""
	if game.DeckCursor < engine.DeckSize {
		next := game.ShuffledDeck[game.DeckCursor]
		player.Hand = append(player.Hand, next)
		game.DeckCursor++
		drawn = next.String()
	}

	game.TurnHistory = append(game.TurnHistory, models.Turn{
		PlayerID:   playerID,
		CardIndex:  cardIndex,
		Row:        row,
		Col:        col,
		CardPlayed: card.String(),
		Timestamp:  now,
	})

	if game.Status == models.GameActive {
		next := (game.SeatIndex(playerID) + 1) % len(game.Players)
		game.CurrentTurnPlayerID = game.Players[next].PlayerID
		if s.allHandsEmptyLocked(game) {
			// Deck and hands exhausted with no winner.
			game.Status = models.GameFinished
			game.FinishedAt = &now
		}
	}
	game.LastActivityAt = now
	s.registry.PutGameLocked(game)

	outcome := &turnOutcome{
		gameID:     game.ID,
		recipients: humanIDs(game),
		moverID:    playerID,
		moverIsAI:  player.IsAI,
		drawn:      drawn,
		turnMade: events.TurnMade{
			GameID:       game.ID,
			PlayerID:     playerID,
			CardPlayed:   card.String(),
			Row:          row,
			Col:          col,
			ChipPlaced:   placed,
			NewSequences: newSeqs,
			NextPlayerID: game.CurrentTurnPlayerID,
			CardsLeft:    engine.DeckSize - game.DeckCursor,
		},
	}
	if game.Status == models.GameFinished {
		finished := &events.GameFinished{
			GameID:         game.ID,
			FinalSequences: game.Sequences,
			IsDraw:         game.WinnerID == "",
		}
		if game.WinnerID != "" {
			finished.WinnerID = game.WinnerID
			finished.WinnerName = player.DisplayName
			finished.WinningTeamColor = player.TeamColor
		}
		outcome.finished = finished
	}
	return outcome, nil
}

func (s *Service) allHandsEmptyLocked(game *models.Game) bool {
	if game.DeckCursor < engine.DeckSize {
		return false
	}
	for _, p := range game.Players {
		if len(p.Hand) > 0 {
			return false
		}
	}
	return true
}

// emitTurn fans out turn_made (the mover's copy carries the drawn card) and
// game_finished if the game ended.
func (s *Service) emitTurn(outcome *turnOutcome) {
	for _, id := range outcome.recipients {
		payload := outcome.turnMade
		if id == outcome.moverID {
			payload.DrawnCard = outcome.drawn
		}
		s.notifier.SendEvent(id, events.TypeTurnMade, payload)
	}
	if outcome.finished != nil {
		log.Printf("[GAME] game %s finished, winner %q", outcome.gameID, outcome.finished.WinnerID)
		s.notifier.Broadcast(outcome.recipients, events.TypeGameFinished, *outcome.finished)
	}
}
