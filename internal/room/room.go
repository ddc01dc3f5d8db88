package room

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"sequence-platform/backend/engine"
	"sequence-platform/backend/internal/apperrors"
	"sequence-platform/backend/internal/events"
	"sequence-platform/backend/internal/models"
	"sequence-platform/backend/internal/store"
	"sequence-platform/backend/internal/validation"
)

// Notifier pushes events to attached duplex channels. Satisfied by ws.Hub.
type Notifier interface {
	SendEvent(playerID, eventType string, payload interface{})
	Broadcast(playerIDs []string, eventType string, payload interface{})
}

// Leave reasons carried on player_left events.
const (
	ReasonLeave      = "leave"
	ReasonDisconnect = "disconnect"
	ReasonKick       = "kick"
)

// Service owns the lobby: room creation, membership, readiness, and team
// assignment. Events are always sent after the registry lock is released.
type Service struct {
	registry *store.Registry
	notifier Notifier
}

func NewService(registry *store.Registry, notifier Notifier) *Service {
	return &Service{registry: registry, notifier: notifier}
}

// humanIDs lists the non-AI player ids of a room, for fan-out.
func humanIDs(room *models.Room) []string {
	ids := make([]string, 0, len(room.Players))
	for _, p := range room.Players {
		if !p.IsAI {
			ids = append(ids, p.PlayerID)
		}
	}
	return ids
}

// Create opens a new room with the caller as sole, ready host on team 1.
func (s *Service) Create(sess *models.Session, name string, mode models.GameMode, boardType engine.BoardType, password string) (*models.Room, error) {
	roomName, err := validation.NormalizeRoomName(name)
	if err != nil {
		return nil, err
	}
	if mode != models.Mode1v1 && mode != models.Mode2v2 {
		return nil, fmt.Errorf("%w: unknown mode %q", apperrors.ErrInvalidArg, mode)
	}
	switch boardType {
	case engine.BoardClassic, engine.BoardAlternative, engine.BoardAdvanced:
	default:
		return nil, fmt.Errorf("%w: unknown board type %q", apperrors.ErrInvalidArg, boardType)
	}

	passwordHash := ""
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("%w: hashing password: %v", apperrors.ErrInternal, err)
		}
		passwordHash = string(hash)
	}

	s.registry.Mu.Lock()
	defer s.registry.Mu.Unlock()

	if sess.CurrentRoomID != "" {
		return nil, fmt.Errorf("%w: already in a room", apperrors.ErrConflict)
	}

	room := &models.Room{
		ID:           uuid.New().String(),
		Name:         roomName,
		Mode:         mode,
		BoardType:    boardType,
		PasswordHash: passwordHash,
		Status:       models.RoomWaiting,
		HostID:       sess.PlayerID,
		MaxPlayers:   mode.MaxPlayers(),
		CreatedAt:    time.Now(),
		Players: []*models.RoomPlayer{{
			PlayerID:    sess.PlayerID,
			DisplayName: sess.DisplayName,
			IsHost:      true,
			IsReady:     true,
			Team:        1,
			JoinedAt:    time.Now(),
		}},
	}
	s.registry.PutRoomLocked(room)
	sess.CurrentRoomID = room.ID

	log.Printf("[ROOM] %s created room %s (%s, %s)", sess.DisplayName, room.ID, mode, boardType)
	return room, nil
}

// Join seats a player in a waiting room, balancing teams.
func (s *Service) Join(sess *models.Session, roomID, password string) (*models.Room, error) {
	s.registry.Mu.Lock()

	room, ok := s.registry.Rooms[roomID]
	if !ok {
		s.registry.Mu.Unlock()
		return nil, fmt.Errorf("%w: room %s", apperrors.ErrNotFound, roomID)
	}
	if sess.CurrentRoomID != "" {
		s.registry.Mu.Unlock()
		return nil, fmt.Errorf("%w: already in a room", apperrors.ErrConflict)
	}
	if room.Status != models.RoomWaiting {
		s.registry.Mu.Unlock()
		return nil, fmt.Errorf("%w: room is not accepting players", apperrors.ErrConflict)
	}
	if len(room.Players) >= room.MaxPlayers {
		s.registry.Mu.Unlock()
		return nil, fmt.Errorf("%w: room is full", apperrors.ErrConflict)
	}
	if room.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(password)); err != nil {
			s.registry.Mu.Unlock()
			return nil, fmt.Errorf("%w: wrong password", apperrors.ErrConflict)
		}
	}

	// Smaller team gets the joiner; team 1 on a tie.
	team := 1
	if room.TeamCount(2) < room.TeamCount(1) {
		team = 2
	}

	player := &models.RoomPlayer{
		PlayerID:    sess.PlayerID,
		DisplayName: sess.DisplayName,
		Team:        team,
		JoinedAt:    time.Now(),
	}
	room.Players = append(room.Players, player)
	sess.CurrentRoomID = room.ID
	s.registry.PutRoomLocked(room)

	recipients := humanIDs(room)
	joined := events.PlayerJoined{RoomID: room.ID, Player: models.SanitizedPlayer{
		ID:   player.PlayerID,
		Name: player.DisplayName,
		Team: player.Team,
	}}
	updated := events.RoomUpdated{Room: room.Sanitize()}
	s.registry.Mu.Unlock()

	log.Printf("[ROOM] %s joined room %s (team %d)", sess.DisplayName, roomID, team)
	s.notifier.Broadcast(recipients, events.TypePlayerJoined, joined)
	s.notifier.Broadcast(recipients, events.TypeRoomUpdated, updated)
	return room, nil
}

// Leave removes the caller from a room they are seated in.
func (s *Service) Leave(sess *models.Session, roomID string) error {
	s.registry.Mu.Lock()
	room, ok := s.registry.Rooms[roomID]
	if !ok {
		s.registry.Mu.Unlock()
		return fmt.Errorf("%w: room %s", apperrors.ErrNotFound, roomID)
	}
	if room.Player(sess.PlayerID) == nil {
		s.registry.Mu.Unlock()
		return fmt.Errorf("%w: not in that room", apperrors.ErrForbidden)
	}
	s.removeLocked(room, sess.PlayerID, ReasonLeave)
	s.registry.Mu.Unlock()
	return nil
}

// RemovePlayer detaches a player from whatever room they occupy. Used by the
// disconnect grace timer and by leave-server. Safe to call for players not
// in any room.
func (s *Service) RemovePlayer(playerID, reason string) {
	s.registry.Mu.Lock()
	sess, ok := s.registry.SessionsByPlayer[playerID]
	if !ok || sess.CurrentRoomID == "" {
		s.registry.Mu.Unlock()
		return
	}
	room, ok := s.registry.Rooms[sess.CurrentRoomID]
	if !ok {
		sess.CurrentRoomID = ""
		s.registry.Mu.Unlock()
		return
	}
	s.removeLocked(room, playerID, reason)
	s.registry.Mu.Unlock()
}

// removeLocked drops one seat, transfers the host if needed, and deletes the
// room when no humans remain. Caller holds the registry lock; the notifier
// must never block.
func (s *Service) removeLocked(room *models.Room, playerID, reason string) {
	wasHost := room.HostID == playerID
	for i, p := range room.Players {
		if p.PlayerID == playerID {
			room.Players = append(room.Players[:i], room.Players[i+1:]...)
			break
		}
	}
	if sess, ok := s.registry.SessionsByPlayer[playerID]; ok && sess.CurrentRoomID == room.ID {
		sess.CurrentRoomID = ""
	}

	newHostID := ""
	if wasHost {
		// Earliest-joined human inherits the room.
		for _, p := range room.Players {
			if !p.IsAI {
				p.IsHost = true
				p.IsReady = true
				room.HostID = p.PlayerID
				newHostID = p.PlayerID
				break
			}
		}
	}

	if room.HumanCount() == 0 {
		log.Printf("[ROOM] room %s emptied, deleting", room.ID)
		s.registry.DeleteRoomLocked(room.ID)
		return
	}

	s.registry.PutRoomLocked(room)
	recipients := humanIDs(room)
	left := events.PlayerLeft{RoomID: room.ID, PlayerID: playerID, Reason: reason, NewHostID: newHostID}
	updated := events.RoomUpdated{Room: room.Sanitize()}

	log.Printf("[ROOM] %s left room %s (%s)", playerID, room.ID, reason)
	s.notifier.Broadcast(recipients, events.TypePlayerLeft, left)
	s.notifier.Broadcast(recipients, events.TypeRoomUpdated, updated)
}

// SetReady toggles the caller's readiness.
func (s *Service) SetReady(sess *models.Session, roomID string, ready bool) error {
	s.registry.Mu.Lock()
	room, ok := s.registry.Rooms[roomID]
	if !ok {
		s.registry.Mu.Unlock()
		return fmt.Errorf("%w: room %s", apperrors.ErrNotFound, roomID)
	}
	player := room.Player(sess.PlayerID)
	if player == nil {
		s.registry.Mu.Unlock()
		return fmt.Errorf("%w: not in that room", apperrors.ErrForbidden)
	}
	if player.IsHost {
		// The host is always ready.
		ready = true
	}
	player.IsReady = ready
	s.registry.PutRoomLocked(room)
	recipients := humanIDs(room)
	updated := events.RoomUpdated{Room: room.Sanitize()}
	s.registry.Mu.Unlock()

	s.notifier.Broadcast(recipients, events.TypeRoomUpdated, updated)
	return nil
}

// ChangeTeam moves the caller to the requested team. Only meaningful in 2v2.
func (s *Service) ChangeTeam(sess *models.Session, roomID string, team int) error {
	if team != 1 && team != 2 {
		return fmt.Errorf("%w: team must be 1 or 2", apperrors.ErrInvalidArg)
	}

	s.registry.Mu.Lock()
	room, ok := s.registry.Rooms[roomID]
	if !ok {
		s.registry.Mu.Unlock()
		return fmt.Errorf("%w: room %s", apperrors.ErrNotFound, roomID)
	}
	player := room.Player(sess.PlayerID)
	if player == nil {
		s.registry.Mu.Unlock()
		return fmt.Errorf("%w: not in that room", apperrors.ErrForbidden)
	}
	if room.Mode != models.Mode2v2 {
		s.registry.Mu.Unlock()
		return fmt.Errorf("%w: team changes only apply to 2v2 rooms", apperrors.ErrConflict)
	}
	occupied := room.TeamCount(team)
	if player.Team == team {
		occupied--
	}
	if occupied >= 2 {
		s.registry.Mu.Unlock()
		return fmt.Errorf("%w: team %d is full", apperrors.ErrConflict, team)
	}
	player.Team = team
	s.registry.PutRoomLocked(room)
	recipients := humanIDs(room)
	updated := events.RoomUpdated{Room: room.Sanitize()}
	s.registry.Mu.Unlock()

	s.notifier.Broadcast(recipients, events.TypeRoomUpdated, updated)
	return nil
}

// List projects every non-finished room for the lobby.
func (s *Service) List() []models.RoomSummary {
	s.registry.Mu.Lock()
	defer s.registry.Mu.Unlock()

	summaries := make([]models.RoomSummary, 0, len(s.registry.Rooms))
	for _, room := range s.registry.Rooms {
		if room.Status == models.RoomFinished {
			continue
		}
		summaries = append(summaries, room.Summarize())
	}
	return summaries
}
