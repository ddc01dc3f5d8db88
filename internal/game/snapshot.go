package game

import (
	"fmt"

	"sequence-platform/backend/engine"
	"sequence-platform/backend/internal/apperrors"
	"sequence-platform/backend/internal/events"
	"sequence-platform/backend/internal/models"
)

// Snapshot is the full reconnection view of a game for one recipient: the
// whole public state plus only that recipient's hand.
type Snapshot struct {
	GameID              string            `json:"gameId"`
	RoomID              string            `json:"roomId"`
	DeckSeed            int64             `json:"deckSeed"`
	BoardType           engine.BoardType  `json:"boardType"`
	Status              models.GameStatus `json:"status"`
	Players             []events.GameSeat `json:"players"`
	Teams               []*models.Team    `json:"teams"`
	Board               *engine.Board     `json:"board"`
	Sequences           []engine.Sequence `json:"sequences"`
	CurrentTurnPlayerID string            `json:"currentTurnPlayerId"`
	DeckCursor          int               `json:"deckCursor"`
	CardsLeft           int               `json:"cardsLeft"`
	Hand                []string          `json:"hand"`
	TurnCount           int               `json:"turnCount"`
	WinnerID            string            `json:"winnerId,omitempty"`
}

// Snapshot builds the recipient-scoped view of a game.
func (s *Service) Snapshot(sess *models.Session, gameID string) (*Snapshot, error) {
	s.registry.Mu.Lock()
	defer s.registry.Mu.Unlock()

	game, ok := s.registry.Games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: game %s", apperrors.ErrNotFound, gameID)
	}
	player := game.Player(sess.PlayerID)
	if player == nil {
		return nil, fmt.Errorf("%w: not a player in this game", apperrors.ErrForbidden)
	}

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

	return &Snapshot{
		GameID:              game.ID,
		RoomID:              game.RoomID,
		DeckSeed:            game.DeckSeed,
		BoardType:           game.BoardType,
		Status:              game.Status,
		Players:             seats,
		Teams:               game.Teams,
		Board:               game.Board,
		Sequences:           game.Sequences,
		CurrentTurnPlayerID: game.CurrentTurnPlayerID,
		DeckCursor:          game.DeckCursor,
		CardsLeft:           engine.DeckSize - game.DeckCursor,
		Hand:                cardStrings(player.Hand),
		TurnCount:           len(game.TurnHistory),
		WinnerID:            game.WinnerID,
	}, nil
}
