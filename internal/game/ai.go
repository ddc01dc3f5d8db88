package game

import (
	"log"
	"math/rand"
	"time"

	"sequence-platform/backend/engine"
	"sequence-platform/backend/internal/models"
)

// scheduleAITurn arms a delayed move for the current player if it is an AI.
// The timer is validated against the turn count when it fires, so a stale
// timer for an already-advanced game is a no-op.
func (s *Service) scheduleAITurn(gameID string) {
	s.registry.Mu.Lock()
	game, ok := s.registry.Games[gameID]
	if !ok || game.Status != models.GameActive {
		s.registry.Mu.Unlock()
		return
	}
	current := game.Player(game.CurrentTurnPlayerID)
	if current == nil || !current.IsAI {
		s.registry.Mu.Unlock()
		return
	}
	aiID := current.PlayerID
	turnIndex := len(game.TurnHistory)
	s.registry.Mu.Unlock()

	latency := aiLatencyMin + time.Duration(rand.Int63n(int64(aiLatencyJitter)))
	time.AfterFunc(latency, func() {
		s.runAITurn(gameID, aiID, turnIndex)
	})
}

// runAITurn executes one scheduled AI move through the shared turn path.
func (s *Service) runAITurn(gameID, aiID string, turnIndex int) {
	s.registry.Mu.Lock()

	game, ok := s.registry.Games[gameID]
	if !ok || game.Status != models.GameActive ||
		game.CurrentTurnPlayerID != aiID || len(game.TurnHistory) != turnIndex {
		s.registry.Mu.Unlock()
		return
	}

	ai := game.Player(aiID)
	opponentColor := engine.ChipBlue
	if ai.TeamColor == engine.ChipBlue {
		opponentColor = engine.ChipGreen
	}
	priorTurns := 0
	for _, t := range game.TurnHistory {
		if t.PlayerID == aiID {
			priorTurns++
		}
	}

	move, found := engine.SelectMove(ai.Hand, game.Board, ai.TeamColor, opponentColor, priorTurns, engine.DifficultyMedium)
	if !found {
		// With a double deck and jacks always playable this cannot happen;
		// leave the turn unadvanced so the inconsistency stays visible.
		log.Printf("[GAME] internal error: AI %s found no legal move in game %s", aiID, gameID)
		s.registry.Mu.Unlock()
		return
	}

	outcome, err := s.executeTurnLocked(game, aiID, move.CardIndex, move.Row, move.Col)
	s.registry.Mu.Unlock()
	if err != nil {
		log.Printf("[GAME] internal error: AI %s move rejected in game %s: %v", aiID, gameID, err)
		return
	}

	s.emitTurn(outcome)
	s.scheduleAITurn(gameID)
}
