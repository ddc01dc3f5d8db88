package game

import (
	"fmt"
	"log"
	"time"

	"sequence-platform/backend/internal/apperrors"
	"sequence-platform/backend/internal/events"
	"sequence-platform/backend/internal/models"
)

// Cancellation reasons carried on rematch_cancelled events.
const (
	RematchDeclined = "player_declined"
	RematchTimeout  = "timeout"
)

// snapshotRematchLocked copies the poll state for responses built after the
// lock is released. Caller holds the registry lock.
func snapshotRematchLocked(state *models.RematchState) *models.RematchState {
	copied := *state
	copied.Votes = append([]models.RematchVote(nil), state.Votes...)
	return &copied
}

// RematchVote records one player's vote on restarting a finished game and
// returns the updated poll state. The first vote opens the poll with a
// 30 second deadline; when every human has voted yes, a fresh game replaces
// the old one.
func (s *Service) RematchVote(sess *models.Session, gameID string, vote bool) (*models.RematchState, error) {
	s.registry.Mu.Lock()

	game, ok := s.registry.Games[gameID]
	if !ok {
		s.registry.Mu.Unlock()
		return nil, fmt.Errorf("%w: game %s", apperrors.ErrNotFound, gameID)
	}
	if game.Player(sess.PlayerID) == nil {
		s.registry.Mu.Unlock()
		return nil, fmt.Errorf("%w: not a player in this game", apperrors.ErrForbidden)
	}
	if game.Status != models.GameFinished {
		s.registry.Mu.Unlock()
		return nil, fmt.Errorf("%w: game is not finished", apperrors.ErrConflict)
	}

	state, ok := s.registry.Rematches[gameID]
	if !ok {
		state = &models.RematchState{
			GameID:        gameID,
			Deadline:      time.Now().Add(rematchWindow),
			RequiredVotes: len(humanIDs(game)),
		}
		s.registry.Rematches[gameID] = state
		deadline := state.Deadline
		time.AfterFunc(rematchWindow, func() {
			s.expireRematch(gameID, deadline)
		})
	}
	state.SetVote(sess.PlayerID, vote)

	recipients := humanIDs(game)
	result := snapshotRematchLocked(state)
	progress := events.RematchVoteCast{
		GameID:        gameID,
		PlayerID:      sess.PlayerID,
		Vote:          vote,
		YesVotes:      state.YesVotes(),
		RequiredVotes: state.RequiredVotes,
	}

	if state.YesVotes() < state.RequiredVotes {
		s.registry.Mu.Unlock()
		s.notifier.Broadcast(recipients, events.TypeRematchVote, progress)
		return result, nil
	}

	// Unanimous: replace the finished game with a fresh one.
	room, ok := s.registry.Rooms[game.RoomID]
	if !ok {
		delete(s.registry.Rematches, gameID)
		s.registry.Mu.Unlock()
		s.notifier.Broadcast(recipients, events.TypeRematchVote, progress)
		return nil, fmt.Errorf("%w: room for game %s is gone", apperrors.ErrNotFound, gameID)
	}

	newGame := buildGame(room)
	s.registry.PutGameLocked(newGame)
	room.GameID = newGame.ID
	s.registry.PutRoomLocked(room)
	for _, p := range newGame.Players {
		if p.IsAI {
			continue
		}
		if ps, ok := s.registry.SessionsByPlayer[p.PlayerID]; ok {
			ps.CurrentGameID = newGame.ID
		}
	}
	// The old game is fully superseded; sessions no longer reference it.
	s.registry.DeleteGameLocked(gameID)

	starts := s.buildGameStartedLocked(newGame)
	s.registry.Mu.Unlock()

	log.Printf("[GAME] rematch of %s started as %s", gameID, newGame.ID)
	s.notifier.Broadcast(recipients, events.TypeRematchVote, progress)
	s.notifier.Broadcast(recipients, events.TypeRematchStarted, events.RematchStarted{
		OldGameID: gameID,
		NewGameID: newGame.ID,
	})
	for playerID, payload := range starts {
		s.notifier.SendEvent(playerID, events.TypeGameStarted, payload)
	}
	s.scheduleAITurn(newGame.ID)
	return result, nil
}

// CancelRematch declines a rematch and returns the room to the lobby.
func (s *Service) CancelRematch(sess *models.Session, gameID string) error {
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
	if game.Status != models.GameFinished {
		s.registry.Mu.Unlock()
		return fmt.Errorf("%w: game is not finished", apperrors.ErrConflict)
	}

	recipients, updated := s.teardownRematchLocked(game)
	sess.CurrentGameID = ""
	s.registry.Mu.Unlock()

	log.Printf("[GAME] rematch of %s declined by %s", gameID, sess.PlayerID)
	s.notifier.Broadcast(recipients, events.TypeRematchCancelled, events.RematchCancelled{
		GameID: gameID,
		Reason: RematchDeclined,
	})
	if updated != nil {
		s.notifier.Broadcast(recipients, events.TypeRoomUpdated, *updated)
	}
	return nil
}

// expireRematch fires at the poll deadline. A poll that already produced a
// rematch or was cancelled leaves no matching state, making this a no-op.
func (s *Service) expireRematch(gameID string, deadline time.Time) {
	s.registry.Mu.Lock()

	state, ok := s.registry.Rematches[gameID]
	if !ok || !state.Deadline.Equal(deadline) || state.YesVotes() >= state.RequiredVotes {
		s.registry.Mu.Unlock()
		return
	}
	game, ok := s.registry.Games[gameID]
	if !ok {
		delete(s.registry.Rematches, gameID)
		s.registry.Mu.Unlock()
		return
	}

	recipients, updated := s.teardownRematchLocked(game)
	s.registry.Mu.Unlock()

	log.Printf("[GAME] rematch of %s timed out", gameID)
	s.notifier.Broadcast(recipients, events.TypeRematchCancelled, events.RematchCancelled{
		GameID: gameID,
		Reason: RematchTimeout,
	})
	if updated != nil {
		s.notifier.Broadcast(recipients, events.TypeRoomUpdated, *updated)
	}
}

// teardownRematchLocked deletes the poll state and flips the room back to
// waiting, dropping AI seats. Caller holds the registry lock.
func (s *Service) teardownRematchLocked(game *models.Game) ([]string, *events.RoomUpdated) {
	delete(s.registry.Rematches, game.ID)
	recipients := humanIDs(game)

	room, ok := s.registry.Rooms[game.RoomID]
	if !ok {
		return recipients, nil
	}
	humans := room.Players[:0]
	for _, p := range room.Players {
		if !p.IsAI {
			humans = append(humans, p)
		}
	}
	room.Players = humans
	room.Status = models.RoomWaiting
	room.GameID = ""
	s.registry.PutRoomLocked(room)

	updated := events.RoomUpdated{Room: room.Sanitize()}
	return recipients, &updated
}
