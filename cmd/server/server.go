package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"sequence-platform/backend/internal/game"
	"sequence-platform/backend/internal/room"
	"sequence-platform/backend/internal/server/handlers"
	"sequence-platform/backend/internal/server/ws"
	"sequence-platform/backend/internal/session"
	"sequence-platform/backend/internal/store"
)

// Server holds all dependencies for the game server.
type Server struct {
	config   Config
	registry *store.Registry
	hub      *ws.Hub

	sessionService *session.Service
	roomService    *room.Service
	gameService    *game.Service
}

// NewServer creates and wires a Server instance.
func NewServer(config Config) (*Server, error) {
	var sink store.Sink = store.NoopSink{}
	if config.RedisEnabled {
		redisSink, err := store.NewRedisSink(config.RedisConfig)
		if err != nil {
			return nil, err
		}
		sink = redisSink
	}

	registry := store.NewRegistry(store.DefaultConfig, sink)

	s := &Server{
		config:   config,
		registry: registry,
	}

	// A dropped channel that never reattaches unseats the player.
	s.hub = ws.NewHub(func(playerID string) {
		s.roomService.RemovePlayer(playerID, room.ReasonDisconnect)
	})
	registry.SetConnectivityProbe(s.hub.Connected)

	s.sessionService = session.NewService(registry)
	s.roomService = room.NewService(registry, s.hub)
	s.gameService = game.NewService(registry, s.hub)

	return s, nil
}

// Run starts background maintenance and serves until the listener fails.
func (s *Server) Run() error {
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s.registry.Start()
	defer s.registry.Stop()

	r := gin.Default()

	// Configure CORS using gin-contrib/cors
	corsConfig := cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true // Allow all origins
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           86400 * time.Second,
	}
	r.Use(cors.New(corsConfig))

	handler := &handlers.Handler{
		Registry: s.registry,
		Sessions: s.sessionService,
		Rooms:    s.roomService,
		Games:    s.gameService,
		Hub:      s.hub,
	}
	handler.Register(r)

	log.Printf("Server starting on port %s", s.config.ServerPort)
	return r.Run(":" + s.config.ServerPort)
}
