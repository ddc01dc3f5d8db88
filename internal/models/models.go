package models

import (
	"time"

	"sequence-platform/backend/engine"
)

// GameMode is the room's team configuration.
type GameMode string

const (
	Mode1v1 GameMode = "1v1"
	Mode2v2 GameMode = "2v2"
)

// MaxPlayers returns the seat count for a mode.
func (m GameMode) MaxPlayers() int {
	if m == Mode2v2 {
		return 4
	}
	return 2
}

type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

type GameStatus string

const (
	GameActive   GameStatus = "active"
	GameFinished GameStatus = "finished"
)

// Session authenticates and names one player for the lifetime of their
// connection. Sessions reference their room and game by id only.
type Session struct {
	SessionID     string    `json:"sessionId"`
	PlayerID      string    `json:"playerId"`
	DisplayName   string    `json:"displayName"`
	CreatedAt     time.Time `json:"createdAt"`
	LastActivity  time.Time `json:"lastActivity"`
	CurrentRoomID string    `json:"currentRoomId,omitempty"`
	CurrentGameID string    `json:"currentGameId,omitempty"`
}

// RoomPlayer is one seat in a room. AI players have no backing session.
type RoomPlayer struct {
	PlayerID    string    `json:"playerId"`
	DisplayName string    `json:"displayName"`
	IsHost      bool      `json:"isHost"`
	IsReady     bool      `json:"isReady"`
	IsAI        bool      `json:"isAI"`
	Team        int       `json:"team"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Room is a lobby a game starts from. PasswordHash is a bcrypt hash and is
// never serialized to clients.
type Room struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Mode         GameMode         `json:"mode"`
	BoardType    engine.BoardType `json:"boardType"`
	PasswordHash string           `json:"-"`
	Status       RoomStatus       `json:"status"`
	HostID       string           `json:"hostId"`
	Players      []*RoomPlayer    `json:"players"`
	MaxPlayers   int              `json:"maxPlayers"`
	CreatedAt    time.Time        `json:"createdAt"`
	GameID       string           `json:"gameId,omitempty"`
}

// Player returns the room seat for a player id, or nil.
func (r *Room) Player(playerID string) *RoomPlayer {
	for _, p := range r.Players {
		if p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

// HumanCount counts non-AI seats.
func (r *Room) HumanCount() int {
	n := 0
	for _, p := range r.Players {
		if !p.IsAI {
			n++
		}
	}
	return n
}

// TeamCount counts seats on a team.
func (r *Room) TeamCount(team int) int {
	n := 0
	for _, p := range r.Players {
		if p.Team == team {
			n++
		}
	}
	return n
}

// GamePlayer is one seat in a game, in seat order.
type GamePlayer struct {
	PlayerID    string           `json:"playerId"`
	DisplayName string           `json:"displayName"`
	TeamColor   engine.ChipColor `json:"teamColor"`
	IsAI        bool             `json:"isAI"`
	Hand        []engine.Card    `json:"-"`
}

// Team groups players under one chip color.
type Team struct {
	Color     engine.ChipColor `json:"color"`
	PlayerIDs []string         `json:"playerIds"`
}

// Turn is one entry of a game's move log.
type Turn struct {
	PlayerID   string    `json:"playerId"`
	CardIndex  int       `json:"cardIndex"`
	Row        int       `json:"row"`
	Col        int       `json:"col"`
	CardPlayed string    `json:"cardPlayed"`
	Timestamp  time.Time `json:"timestamp"`
}

// Game is the authoritative state of one match.
type Game struct {
	ID                  string            `json:"id"`
	RoomID              string            `json:"roomId"`
	DeckSeed            int64             `json:"deckSeed"`
	BoardType           engine.BoardType  `json:"boardType"`
	Status              GameStatus        `json:"status"`
	Players             []*GamePlayer     `json:"players"`
	Teams               []*Team           `json:"teams"`
	Board               *engine.Board     `json:"board"`
	Sequences           []engine.Sequence `json:"sequences"`
	CurrentTurnPlayerID string            `json:"currentTurnPlayerId"`
	DeckCursor          int               `json:"deckCursor"`
	ShuffledDeck        []engine.Card     `json:"-"`
	TurnHistory         []Turn            `json:"turnHistory"`
	WinnerID            string            `json:"winnerId,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
	LastActivityAt      time.Time         `json:"lastActivityAt"`
	FinishedAt          *time.Time        `json:"finishedAt,omitempty"`
}

// Player returns the game seat for a player id, or nil.
func (g *Game) Player(playerID string) *GamePlayer {
	for _, p := range g.Players {
		if p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

// SeatIndex returns the seat-order index of a player, or -1.
func (g *Game) SeatIndex(playerID string) int {
	for i, p := range g.Players {
		if p.PlayerID == playerID {
			return i
		}
	}
	return -1
}

// TeamSequenceCount counts recorded sequences for a team color.
func (g *Game) TeamSequenceCount(color engine.ChipColor) int {
	n := 0
	for _, s := range g.Sequences {
		if s.TeamColor == color {
			n++
		}
	}
	return n
}

// RematchVote is one player's vote on restarting a finished game.
type RematchVote struct {
	PlayerID string `json:"playerId"`
	Vote     bool   `json:"vote"`
}

// RematchState tracks a rematch poll for one finished game.
type RematchState struct {
	GameID        string        `json:"gameId"`
	Votes         []RematchVote `json:"votes"`
	Deadline      time.Time     `json:"deadline"`
	RequiredVotes int           `json:"requiredVotes"`
}

// YesVotes counts affirmative votes.
func (rs *RematchState) YesVotes() int {
	n := 0
	for _, v := range rs.Votes {
		if v.Vote {
			n++
		}
	}
	return n
}

// SetVote inserts or overwrites one player's vote.
func (rs *RematchState) SetVote(playerID string, vote bool) {
	for i, v := range rs.Votes {
		if v.PlayerID == playerID {
			rs.Votes[i].Vote = vote
			return
		}
	}
	rs.Votes = append(rs.Votes, RematchVote{PlayerID: playerID, Vote: vote})
}

// RoomSummary is the lobby projection of a room.
type RoomSummary struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Mode        GameMode         `json:"mode"`
	BoardType   engine.BoardType `json:"boardType"`
	HasPassword bool             `json:"hasPassword"`
	Status      RoomStatus       `json:"status"`
	Players     int              `json:"players"`
	MaxPlayers  int              `json:"maxPlayers"`
	HostName    string           `json:"hostName"`
}

// SanitizedPlayer is the client-facing view of a room seat.
type SanitizedPlayer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsHost  bool   `json:"isHost"`
	IsReady bool   `json:"isReady"`
	IsAI    bool   `json:"isAI"`
	Team    int    `json:"team"`
}

// SanitizedRoom is the client-facing room projection; the password never
// leaves the server.
type SanitizedRoom struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Mode        GameMode          `json:"mode"`
	BoardType   engine.BoardType  `json:"boardType"`
	HasPassword bool              `json:"hasPassword"`
	Status      RoomStatus        `json:"status"`
	Players     []SanitizedPlayer `json:"players"`
	MaxPlayers  int               `json:"maxPlayers"`
	HostID      string            `json:"hostId"`
}

// Sanitize projects a room for clients.
func (r *Room) Sanitize() SanitizedRoom {
	players := make([]SanitizedPlayer, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, SanitizedPlayer{
			ID:      p.PlayerID,
			Name:    p.DisplayName,
			IsHost:  p.IsHost,
			IsReady: p.IsReady,
			IsAI:    p.IsAI,
			Team:    p.Team,
		})
	}
	return SanitizedRoom{
		ID:          r.ID,
		Name:        r.Name,
		Mode:        r.Mode,
		BoardType:   r.BoardType,
		HasPassword: r.PasswordHash != "",
		Status:      r.Status,
		Players:     players,
		MaxPlayers:  r.MaxPlayers,
		HostID:      r.HostID,
	}
}

// Summarize projects a room for the lobby listing.
func (r *Room) Summarize() RoomSummary {
	hostName := ""
	if host := r.Player(r.HostID); host != nil {
		hostName = host.DisplayName
	}
	return RoomSummary{
		ID:          r.ID,
		Name:        r.Name,
		Mode:        r.Mode,
		BoardType:   r.BoardType,
		HasPassword: r.PasswordHash != "",
		Status:      r.Status,
		Players:     len(r.Players),
		MaxPlayers:  r.MaxPlayers,
		HostName:    hostName,
	}
}
