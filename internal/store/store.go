package store

import (
	"log"
	"strings"
	"sync"
	"time"

	"sequence-platform/backend/internal/models"
)

// Config tunes the registry's background maintenance.
type Config struct {
	SessionTTL     time.Duration // idle sessions older than this are dropped
	GameInactivity time.Duration // abandoned games older than this are reclaimed
	GCInterval     time.Duration
}

// DefaultConfig matches the documented maintenance thresholds.
var DefaultConfig = Config{
	SessionTTL:     24 * time.Hour,
	GameInactivity: 360 * time.Second,
	GCInterval:     time.Minute,
}

// Registry owns every entity record. Mu is the server-wide serialization
// point: handlers and timers lock it around any multi-step mutation, exactly
// like single-entity accessors here do. Entities reference each other by id
// only, so deleting one can never dangle a pointer.
type Registry struct {
	Mu sync.Mutex

	Sessions         map[string]*models.Session // sessionID -> session
	SessionsByPlayer map[string]*models.Session // playerID -> session
	Rooms            map[string]*models.Room
	Games            map[string]*models.Game
	Rematches        map[string]*models.RematchState // gameID -> state

	names map[string]struct{} // lower(displayName) reservations

	config    Config
	sink      Sink
	connected func(playerID string) bool
	stopGC    chan struct{}
	gcOnce    sync.Once
}

// NewRegistry builds an empty registry backed by the given snapshot sink.
// Call Start to launch background maintenance.
func NewRegistry(config Config, sink Sink) *Registry {
	if sink == nil {
		sink = NoopSink{}
	}
	if config.GCInterval <= 0 {
		config.GCInterval = DefaultConfig.GCInterval
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = DefaultConfig.SessionTTL
	}
	if config.GameInactivity <= 0 {
		config.GameInactivity = DefaultConfig.GameInactivity
	}
	return &Registry{
		Sessions:         make(map[string]*models.Session),
		SessionsByPlayer: make(map[string]*models.Session),
		Rooms:            make(map[string]*models.Room),
		Games:            make(map[string]*models.Game),
		Rematches:        make(map[string]*models.RematchState),
		names:            make(map[string]struct{}),
		config:           config,
		sink:             sink,
		connected:        func(string) bool { return false },
		stopGC:           make(chan struct{}),
	}
}

// SetConnectivityProbe wires the duplex-channel liveness check used by the
// inactive-game sweep. Must be called before Start.
func (r *Registry) SetConnectivityProbe(probe func(playerID string) bool) {
	r.connected = probe
}

// Start launches the periodic maintenance loop.
func (r *Registry) Start() {
	go r.gcLoop()
}

// Stop terminates background maintenance and closes the sink.
func (r *Registry) Stop() {
	r.gcOnce.Do(func() { close(r.stopGC) })
	if err := r.sink.Close(); err != nil {
		log.Printf("[STORE] sink close: %v", err)
	}
}

// NameAvailableLocked reports whether a display name is free. Caller holds Mu.
func (r *Registry) NameAvailableLocked(name string) bool {
	_, taken := r.names[strings.ToLower(name)]
	return !taken
}

// PutSessionLocked records a session and reserves its name atomically.
// Caller holds Mu.
func (r *Registry) PutSessionLocked(s *models.Session) {
	r.Sessions[s.SessionID] = s
	r.SessionsByPlayer[s.PlayerID] = s
	r.names[strings.ToLower(s.DisplayName)] = struct{}{}
	r.sink.PutSession(s)
}

// DeleteSessionLocked removes a session and releases its name. Caller holds Mu.
func (r *Registry) DeleteSessionLocked(sessionID string) {
	s, ok := r.Sessions[sessionID]
	if !ok {
		return
	}
	delete(r.Sessions, sessionID)
	delete(r.SessionsByPlayer, s.PlayerID)
	delete(r.names, strings.ToLower(s.DisplayName))
	r.sink.DeleteSession(sessionID)
}

// PutRoomLocked records a room. Caller holds Mu.
func (r *Registry) PutRoomLocked(room *models.Room) {
	r.Rooms[room.ID] = room
	r.sink.PutRoom(room)
}

// DeleteRoomLocked removes a room. Caller holds Mu.
func (r *Registry) DeleteRoomLocked(roomID string) {
	delete(r.Rooms, roomID)
	r.sink.DeleteRoom(roomID)
}

// PutGameLocked records a game. Caller holds Mu.
func (r *Registry) PutGameLocked(game *models.Game) {
	r.Games[game.ID] = game
	r.sink.PutGame(game)
}

// DeleteGameLocked removes a game and any rematch state for it. Caller holds Mu.
func (r *Registry) DeleteGameLocked(gameID string) {
	delete(r.Games, gameID)
	delete(r.Rematches, gameID)
	r.sink.DeleteGame(gameID)
}

// gcLoop runs the background maintenance once per interval.
func (r *Registry) gcLoop() {
	ticker := time.NewTicker(r.config.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunGC(time.Now())
		case <-r.stopGC:
			return
		}
	}
}

// RunGC performs one maintenance pass: stale sessions, empty rooms, and
// abandoned games. Exposed so tests can drive it with a synthetic clock.
func (r *Registry) RunGC(now time.Time) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	// Stale sessions.
	for id, s := range r.Sessions {
		if now.Sub(s.LastActivity) > r.config.SessionTTL {
			log.Printf("[GC] dropping stale session %s (%s)", id, s.DisplayName)
			r.DeleteSessionLocked(id)
		}
	}

	// Empty rooms.
	for id, room := range r.Rooms {
		if len(room.Players) == 0 {
			log.Printf("[GC] dropping empty room %s", id)
			r.DeleteRoomLocked(id)
		}
	}

	// Abandoned games: inactive past the threshold with no human connected.
	for id, game := range r.Games {
		if now.Sub(game.LastActivityAt) <= r.config.GameInactivity {
			continue
		}
		if r.anyHumanConnected(game) {
			continue
		}
		log.Printf("[GC] reclaiming abandoned game %s", id)
		r.reclaimGameLocked(game)
	}
}

func (r *Registry) anyHumanConnected(game *models.Game) bool {
	for _, p := range game.Players {
		if !p.IsAI && r.connected(p.PlayerID) {
			return true
		}
	}
	return false
}

// reclaimGameLocked deletes a game, detaches its players' sessions, and
// returns the owning room to the lobby (or deletes it when no humans remain).
func (r *Registry) reclaimGameLocked(game *models.Game) {
	for _, p := range game.Players {
		if p.IsAI {
			continue
		}
		if s, ok := r.SessionsByPlayer[p.PlayerID]; ok && s.CurrentGameID == game.ID {
			s.CurrentGameID = ""
			r.sink.PutSession(s)
		}
	}

	if room, ok := r.Rooms[game.RoomID]; ok && room.GameID == game.ID {
		if room.HumanCount() == 0 {
			r.DeleteRoomLocked(room.ID)
			for _, p := range room.Players {
				if s, ok := r.SessionsByPlayer[p.PlayerID]; ok && s.CurrentRoomID == room.ID {
					s.CurrentRoomID = ""
					r.sink.PutSession(s)
				}
			}
		} else {
			room.Status = models.RoomWaiting
			room.GameID = ""
			r.sink.PutRoom(room)
		}
	}

	r.DeleteGameLocked(game.ID)
}
