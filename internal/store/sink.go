package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"sequence-platform/backend/internal/models"
)

// Sink receives best-effort snapshots of registry mutations, for operators
// who want to inspect live state externally. The in-memory registry stays
// authoritative; sink failures are logged and never surfaced to players.
// Callers hold the registry lock, so implementations must not block.
type Sink interface {
	PutSession(s *models.Session)
	DeleteSession(sessionID string)
	PutRoom(r *models.Room)
	DeleteRoom(roomID string)
	PutGame(g *models.Game)
	DeleteGame(gameID string)
	Close() error
}

// NoopSink discards all snapshots.
type NoopSink struct{}

func (NoopSink) PutSession(*models.Session) {}
func (NoopSink) DeleteSession(string)       {}
func (NoopSink) PutRoom(*models.Room)       {}
func (NoopSink) DeleteRoom(string)          {}
func (NoopSink) PutGame(*models.Game)       {}
func (NoopSink) DeleteGame(string)          {}
func (NoopSink) Close() error               { return nil }

// RedisConfig holds connection settings for the Redis sink.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

const sinkBuffer = 256

// sinkOp is one serialized write, handed to the drain goroutine. Values are
// marshaled at enqueue time, while the registry lock still protects them.
type sinkOp struct {
	key     string
	payload []byte
	delete  bool
}

// RedisSink mirrors registry entities into Redis under seq:<kind>:<id> keys.
// Writes go through a buffered channel drained by one goroutine; the network
// round-trip never happens under the registry lock, and a full buffer drops
// the snapshot like the hub drops events.
type RedisSink struct {
	client *redis.Client
	ops    chan sinkOp
	done   chan struct{}
}

// NewRedisSink connects to Redis, verifies the connection with a ping, and
// starts the drain goroutine.
func NewRedisSink(config RedisConfig) (*RedisSink, error) {
	addr := fmt.Sprintf("%s:%s", config.Host, config.Port)
	log.Printf("[REDIS] Connecting to Redis at %s...", addr)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[REDIS] Connected to Redis at %s", addr)
	s := &RedisSink{
		client: client,
		ops:    make(chan sinkOp, sinkBuffer),
		done:   make(chan struct{}),
	}
	go s.drain()
	return s, nil
}

// drain applies queued ops until the channel closes.
func (s *RedisSink) drain() {
	defer close(s.done)
	for op := range s.ops {
		s.apply(op)
	}
}

func (s *RedisSink) apply(op sinkOp) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var err error
	if op.delete {
		err = s.client.Del(ctx, op.key).Err()
	} else {
		err = s.client.Set(ctx, op.key, op.payload, 0).Err()
	}
	if err != nil {
		log.Printf("[REDIS] %s: %v", op.key, err)
	}
}

// enqueue hands an op to the drain goroutine without ever blocking.
func (s *RedisSink) enqueue(op sinkOp) {
	select {
	case s.ops <- op:
	default:
		log.Printf("[REDIS] sink buffer full, dropping %s", op.key)
	}
}

func (s *RedisSink) put(kind, id string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[REDIS] marshal %s %s: %v", kind, id, err)
		return
	}
	s.enqueue(sinkOp{key: "seq:" + kind + ":" + id, payload: data})
}

func (s *RedisSink) del(kind, id string) {
	s.enqueue(sinkOp{key: "seq:" + kind + ":" + id, delete: true})
}

func (s *RedisSink) PutSession(sess *models.Session) { s.put("session", sess.SessionID, sess) }
func (s *RedisSink) DeleteSession(sessionID string)  { s.del("session", sessionID) }
func (s *RedisSink) PutRoom(r *models.Room)          { s.put("room", r.ID, r) }
func (s *RedisSink) DeleteRoom(roomID string)        { s.del("room", roomID) }
func (s *RedisSink) PutGame(g *models.Game)          { s.put("game", g.ID, g) }
func (s *RedisSink) DeleteGame(gameID string)        { s.del("game", gameID) }

// Close flushes queued writes and closes the Redis connection.
func (s *RedisSink) Close() error {
	log.Println("[REDIS] Closing Redis connection...")
	close(s.ops)
	<-s.done
	return s.client.Close()
}
