package events

import (
	"encoding/json"
	"log"
	"time"

	"sequence-platform/backend/engine"
	"sequence-platform/backend/internal/models"
)

// Event types pushed over the duplex channel.
const (
	TypeConnected        = "connected"
	TypeRoomUpdated      = "room_updated"
	TypePlayerJoined     = "player_joined"
	TypePlayerLeft       = "player_left"
	TypeGameStarted      = "game_started"
	TypeTurnMade         = "turn_made"
	TypeGameFinished     = "game_finished"
	TypeRematchVote      = "rematch_vote"
	TypeRematchStarted   = "rematch_started"
	TypeRematchCancelled = "rematch_cancelled"
	TypeError            = "error"
	TypePong             = "pong"
)

// Envelope is the wire form of every pushed event.
type Envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Marshal wraps a payload in an envelope and serializes it.
func Marshal(eventType string, data interface{}) []byte {
	raw, err := json.Marshal(Envelope{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Printf("[EVENTS] marshal %s: %v", eventType, err)
		return nil
	}
	return raw
}

// Connected greets a freshly attached channel.
type Connected struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
}

// PlayerJoined announces a new room seat.
type PlayerJoined struct {
	RoomID string                 `json:"roomId"`
	Player models.SanitizedPlayer `json:"player"`
}

// PlayerLeft announces a vacated room seat. Reason is one of
// "leave", "disconnect" or "kick".
type PlayerLeft struct {
	RoomID    string `json:"roomId"`
	PlayerID  string `json:"playerId"`
	Reason    string `json:"reason"`
	NewHostID string `json:"newHostId,omitempty"`
}

// RoomUpdated carries a full room snapshot after any lobby mutation.
type RoomUpdated struct {
	Room models.SanitizedRoom `json:"room"`
}

// GameStarted is built per recipient: Hand holds only that player's cards,
// encoded as card strings.
type GameStarted struct {
	GameID        string           `json:"gameId"`
	RoomID        string           `json:"roomId"`
	DeckSeed      int64            `json:"deckSeed"`
	BoardType     engine.BoardType `json:"boardType"`
	Players       []GameSeat       `json:"players"`
	Teams         []*models.Team   `json:"teams"`
	Hand          []string         `json:"hand"`
	FirstPlayerID string           `json:"firstPlayerId"`
	CardsLeft     int              `json:"cardsLeft"`
}

// GameSeat is the public view of one game seat.
type GameSeat struct {
	PlayerID    string           `json:"playerId"`
	DisplayName string           `json:"displayName"`
	TeamColor   engine.ChipColor `json:"teamColor"`
	IsAI        bool             `json:"isAI"`
	HandSize    int              `json:"handSize"`
}

// ChipPlacement is the chip left on the target cell, or absent for a
// one-eyed jack removal.
type ChipPlacement struct {
	Color          engine.ChipColor `json:"color"`
	PartOfSequence bool             `json:"partOfSequence"`
}

// TurnMade describes one resolved move so clients can replay it on their
// local board. DrawnCard is set only on the copy sent to the mover.
type TurnMade struct {
	GameID       string            `json:"gameId"`
	PlayerID     string            `json:"playerId"`
	CardPlayed   string            `json:"cardPlayed"`
	Row          int               `json:"row"`
	Col          int               `json:"col"`
	ChipPlaced   *ChipPlacement    `json:"chipPlaced"`
	DrawnCard    string            `json:"drawnCard,omitempty"`
	NewSequences []engine.Sequence `json:"newSequences"`
	NextPlayerID string            `json:"nextPlayerId"`
	CardsLeft    int               `json:"cardsLeft"`
}

// GameFinished announces the terminal state. Winner fields are empty on a
// draw.
type GameFinished struct {
	GameID           string            `json:"gameId"`
	WinnerID         string            `json:"winnerId,omitempty"`
	WinnerName       string            `json:"winnerName,omitempty"`
	WinningTeamColor engine.ChipColor  `json:"winningTeamColor,omitempty"`
	IsDraw           bool              `json:"isDraw"`
	FinalSequences   []engine.Sequence `json:"finalSequences"`
}

// RematchVoteCast reports poll progress after each vote.
type RematchVoteCast struct {
	GameID        string `json:"gameId"`
	PlayerID      string `json:"playerId"`
	Vote          bool   `json:"vote"`
	YesVotes      int    `json:"yesVotes"`
	RequiredVotes int    `json:"requiredVotes"`
}

// RematchStarted points voters at the replacement game.
type RematchStarted struct {
	OldGameID string `json:"oldGameId"`
	NewGameID string `json:"newGameId"`
}

// RematchCancelled ends a poll. Reason is "player_declined" or "timeout".
type RematchCancelled struct {
	GameID string `json:"gameId"`
	Reason string `json:"reason"`
}

// Error is pushed when a channel-borne request fails.
type Error struct {
	Message string `json:"message"`
}
