package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sequence-platform/backend/engine"
	"sequence-platform/backend/internal/apperrors"
	"sequence-platform/backend/internal/events"
	"sequence-platform/backend/internal/game"
	"sequence-platform/backend/internal/models"
	"sequence-platform/backend/internal/room"
	"sequence-platform/backend/internal/server/ws"
	"sequence-platform/backend/internal/session"
	"sequence-platform/backend/internal/store"
)

// Handler wires the HTTP and WebSocket surface to the services.
type Handler struct {
	Registry *store.Registry
	Sessions *session.Service
	Rooms    *room.Service
	Games    *game.Service
	Hub      *ws.Hub
}

// Register mounts every route on the engine.
func (h *Handler) Register(r *gin.Engine) {
	v1 := r.Group("/v1")
	v1.GET("/ping", h.handlePing)
	v1.POST("/check-name", h.handleCheckName)
	v1.POST("/join-server", h.handleJoinServer)

	authed := v1.Group("/")
	authed.Use(h.authMiddleware())
	{
		authed.POST("/leave-server", h.handleLeaveServer)
		authed.GET("/session", h.handleSessionStatus)

		authed.GET("/rooms", h.handleListRooms)
		authed.POST("/rooms", h.handleCreateRoom)
		authed.POST("/rooms/:id/join", h.handleJoinRoom)
		authed.POST("/rooms/:id/leave", h.handleLeaveRoom)
		authed.POST("/rooms/:id/ready", h.handleSetReady)
		authed.POST("/rooms/:id/team", h.handleChangeTeam)
		authed.POST("/rooms/:id/start", h.handleStartGame)

		authed.POST("/games/:id/turn", h.handleTurn)
		authed.POST("/games/:id/rematch", h.handleRematchVote)
		authed.POST("/games/:id/rematch/cancel", h.handleCancelRematch)
	}

	r.GET("/ws", h.handleWebSocket)
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondErr(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"success": false, "error": apperrors.Message(err)})
}

// bearerToken extracts the session token from the Authorization header.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// authMiddleware resolves the session token and refreshes its activity clock.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := h.Sessions.Authenticate(bearerToken(c))
		if err != nil {
			respondErr(c, err)
			c.Abort()
			return
		}
		c.Set("session", sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) *models.Session {
	return c.MustGet("session").(*models.Session)
}

const (
	serverName    = "sequence-platform"
	serverVersion = "1.0.0"
)

func (h *Handler) handlePing(c *gin.Context) {
	respondOK(c, gin.H{
		"ok":         true,
		"serverName": serverName,
		"version":    serverVersion,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// handleCheckName reports availability as data: a taken or invalid name is a
// negative answer, not a request failure.
func (h *Handler) handleCheckName(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.ErrInvalidArg)
		return
	}
	if err := h.Sessions.CheckName(req.Name); err != nil {
		respondOK(c, gin.H{"available": false, "reason": apperrors.Message(err)})
		return
	}
	respondOK(c, gin.H{"available": true})
}

func (h *Handler) handleJoinServer(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.ErrInvalidArg)
		return
	}
	sess, err := h.Sessions.JoinServer(req.Name)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{
		"sessionId":   sess.SessionID,
		"playerId":    sess.PlayerID,
		"displayName": sess.DisplayName,
	})
}

func (h *Handler) handleLeaveServer(c *gin.Context) {
	sess := currentSession(c)
	h.Rooms.RemovePlayer(sess.PlayerID, room.ReasonLeave)
	h.Sessions.LeaveServer(sess.SessionID)
	respondOK(c, nil)
}

// handleSessionStatus is the reconnection endpoint: it reports where the
// session currently is, including a full game snapshot when applicable.
func (h *Handler) handleSessionStatus(c *gin.Context) {
	sess := currentSession(c)

	// Disconnect timers and the GC rewrite these fields under the lock.
	h.Registry.Mu.Lock()
	roomID := sess.CurrentRoomID
	gameID := sess.CurrentGameID
	var roomView *models.SanitizedRoom
	if roomID != "" {
		if r, ok := h.Registry.Rooms[roomID]; ok {
			v := r.Sanitize()
			roomView = &v
		}
	}
	h.Registry.Mu.Unlock()

	data := gin.H{
		"playerId":      sess.PlayerID,
		"displayName":   sess.DisplayName,
		"currentRoomId": roomID,
		"currentGameId": gameID,
	}
	if roomView != nil {
		data["room"] = *roomView
	}
	if gameID != "" {
		if snap, err := h.Games.Snapshot(sess, gameID); err == nil {
			data["gameState"] = snap
		}
	}
	respondOK(c, data)
}

func (h *Handler) handleListRooms(c *gin.Context) {
	respondOK(c, h.Rooms.List())
}

func (h *Handler) handleCreateRoom(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		Mode      string `json:"mode"`
		BoardType string `json:"boardType"`
		Password  string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.ErrInvalidArg)
		return
	}
	created, err := h.Rooms.Create(currentSession(c), req.Name,
		models.GameMode(req.Mode), engine.BoardType(req.BoardType), req.Password)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, created.Sanitize())
}

func (h *Handler) handleJoinRoom(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	// Body is optional for password-less rooms.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErr(c, apperrors.ErrInvalidArg)
			return
		}
	}
	joined, err := h.Rooms.Join(currentSession(c), c.Param("id"), req.Password)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, joined.Sanitize())
}

func (h *Handler) handleLeaveRoom(c *gin.Context) {
	if err := h.Rooms.Leave(currentSession(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, nil)
}

func (h *Handler) handleSetReady(c *gin.Context) {
	var req struct {
		Ready bool `json:"ready"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.ErrInvalidArg)
		return
	}
	if err := h.Rooms.SetReady(currentSession(c), c.Param("id"), req.Ready); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, nil)
}

func (h *Handler) handleChangeTeam(c *gin.Context) {
	var req struct {
		Team int `json:"team"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.ErrInvalidArg)
		return
	}
	if err := h.Rooms.ChangeTeam(currentSession(c), c.Param("id"), req.Team); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, nil)
}

func (h *Handler) handleStartGame(c *gin.Context) {
	result, err := h.Games.StartGame(currentSession(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, result)
}

func (h *Handler) handleTurn(c *gin.Context) {
	var req struct {
		CardIndex *int `json:"cardIndex"`
		Row       *int `json:"row"`
		Col       *int `json:"col"`
	}
	if err := c.ShouldBindJSON(&req); err != nil ||
		req.CardIndex == nil || req.Row == nil || req.Col == nil {
		respondErr(c, apperrors.ErrInvalidArg)
		return
	}
	if err := h.Games.Turn(currentSession(c), c.Param("id"), *req.CardIndex, *req.Row, *req.Col); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, nil)
}

func (h *Handler) handleRematchVote(c *gin.Context) {
	var req struct {
		Vote *bool `json:"vote"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Vote == nil {
		respondErr(c, apperrors.ErrInvalidArg)
		return
	}
	state, err := h.Games.RematchVote(currentSession(c), c.Param("id"), *req.Vote)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"rematchState": state})
}

func (h *Handler) handleCancelRematch(c *gin.Context) {
	if err := h.Games.CancelRematch(currentSession(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, nil)
}

// handleWebSocket upgrades the duplex channel. Authentication failures close
// the socket with a dedicated code so clients can distinguish a missing
// session (4001) from a revoked one (4002).
func (h *Handler) handleWebSocket(c *gin.Context) {
	sessionID := c.Query("sessionId")

	conn, err := ws.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade: %v", err)
		return
	}
	if sessionID == "" {
		ws.Reject(conn, ws.CloseMissingSession, "missing sessionId")
		return
	}
	sess, err := h.Sessions.Authenticate(sessionID)
	if err != nil {
		ws.Reject(conn, ws.CloseInvalidSession, "invalid session")
		return
	}

	h.Hub.Attach(sess.PlayerID, conn)
	h.Hub.SendEvent(sess.PlayerID, events.TypeConnected, events.Connected{
		PlayerID:    sess.PlayerID,
		DisplayName: sess.DisplayName,
	})
}
