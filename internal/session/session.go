package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"sequence-platform/backend/internal/apperrors"
	"sequence-platform/backend/internal/models"
	"sequence-platform/backend/internal/store"
	"sequence-platform/backend/internal/validation"
)

// Service owns the session lifecycle: name claims, authentication and
// teardown. Tokens are opaque random identifiers looked up server-side.
type Service struct {
	registry *store.Registry
}

func NewService(registry *store.Registry) *Service {
	return &Service{registry: registry}
}

// GenerateID returns a 32-character hex identifier from a CSPRNG.
func GenerateID() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// CheckName reports whether a display name is valid and currently unclaimed.
// A positive answer is advisory only; JoinServer rechecks atomically.
func (s *Service) CheckName(name string) error {
	normalized, err := validation.NormalizeDisplayName(name)
	if err != nil {
		return err
	}
	s.registry.Mu.Lock()
	defer s.registry.Mu.Unlock()
	if !s.registry.NameAvailableLocked(normalized) {
		return fmt.Errorf("%w: %q", apperrors.ErrNameTaken, normalized)
	}
	return nil
}

// JoinServer claims a display name and mints a new session.
func (s *Service) JoinServer(name string) (*models.Session, error) {
	normalized, err := validation.NormalizeDisplayName(name)
	if err != nil {
		return nil, err
	}

	s.registry.Mu.Lock()
	defer s.registry.Mu.Unlock()

	if !s.registry.NameAvailableLocked(normalized) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrNameTaken, normalized)
	}

	now := time.Now()
	sess := &models.Session{
		SessionID:    GenerateID(),
		PlayerID:     GenerateID(),
		DisplayName:  normalized,
		CreatedAt:    now,
		LastActivity: now,
	}
	s.registry.PutSessionLocked(sess)

	log.Printf("[SESSION] %s joined as %q", sess.PlayerID, normalized)
	return sess, nil
}

// Authenticate resolves a session token and refreshes its activity clock.
func (s *Service) Authenticate(sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: missing session", apperrors.ErrUnauthorized)
	}
	s.registry.Mu.Lock()
	defer s.registry.Mu.Unlock()

	sess, ok := s.registry.Sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown session", apperrors.ErrUnauthorized)
	}
	sess.LastActivity = time.Now()
	return sess, nil
}

// LeaveServer revokes a session and releases its name. The caller must
// already have detached the player from any room or game.
func (s *Service) LeaveServer(sessionID string) {
	s.registry.Mu.Lock()
	defer s.registry.Mu.Unlock()
	if sess, ok := s.registry.Sessions[sessionID]; ok {
		log.Printf("[SESSION] %s (%s) left the server", sess.PlayerID, sess.DisplayName)
	}
	s.registry.DeleteSessionLocked(sessionID)
}
