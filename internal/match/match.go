package match

import (
	"log/slog"
	"sync"

	"ctchen222/Vanishing-Tic-Tac-Toe/internal/game"
	"ctchen222/Vanishing-Tic-Tac-Toe/internal/registry"
)

// MatchManager pairs queued players into games. It keeps a strict FIFO
// wait queue with a parallel membership set so enqueue, dequeue and
// IsWaiting stay O(1): Dequeue only deletes from the set, and stale
// entries still physically present in the queue are skipped when the
// head is popped.
type MatchManager struct {
	mu          sync.Mutex
	registry    *registry.Registry
	queue       []string
	waiting     map[string]struct{}
	playerGames map[string]string
}

// NewMatchManager creates a matchmaker backed by the given game registry.
func NewMatchManager(reg *registry.Registry) *MatchManager {
	return &MatchManager{
		registry:    reg,
		waiting:     make(map[string]struct{}),
		playerGames: make(map[string]string),
	}
}

// Enqueue adds a player to matchmaking. It returns the player's existing
// game when they are already in a live one (idempotent rejoin), nil when
// the player is now (or already was) waiting for an opponent, and a
// freshly formed game when an opponent was available. Mappings to
// finished or deleted games are dropped lazily here.
func (m *MatchManager) Enqueue(playerID string) *game.Game {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gameID, ok := m.playerGames[playerID]; ok {
		g, found := m.registry.Get(gameID)
		if found && g.State() != game.StateFinished {
			return g
		}
		slog.Info("dropping stale game mapping", "player.id", playerID, "game.id", gameID)
		delete(m.playerGames, playerID)
	}

	if _, ok := m.waiting[playerID]; ok {
		return nil
	}

	if opponentID, ok := m.popWaiting(); ok {
		g := m.registry.Create()
		// Queue order decides mark order: the longer-waiting player is X.
		if err := g.AddPlayer(opponentID); err != nil {
			slog.Error("could not add waiting player to new game", "player.id", opponentID, "error", err)
		}
		if err := g.AddPlayer(playerID); err != nil {
			slog.Error("could not add player to new game", "player.id", playerID, "error", err)
		}
		m.playerGames[opponentID] = g.ID
		m.playerGames[playerID] = g.ID
		slog.Info("matched players", "game.id", g.ID, "player1.id", opponentID, "player2.id", playerID)
		return g
	}

	m.queue = append(m.queue, playerID)
	m.waiting[playerID] = struct{}{}
	return nil
}

// popWaiting pops the head of the wait queue, skipping entries that were
// logically removed via Dequeue.
func (m *MatchManager) popWaiting() (string, bool) {
	for len(m.queue) > 0 {
		head := m.queue[0]
		m.queue = m.queue[1:]
		if _, ok := m.waiting[head]; ok {
			delete(m.waiting, head)
			return head, true
		}
	}
	return "", false
}

// Dequeue removes a player from the wait queue only. An in-progress game
// is untouched; calling it for a player who is not queued is a no-op.
func (m *MatchManager) Dequeue(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.waiting, playerID)
}

// PlayerGame returns the game the player is currently mapped to, or nil.
func (m *MatchManager) PlayerGame(playerID string) *game.Game {
	m.mu.Lock()
	defer m.mu.Unlock()

	gameID, ok := m.playerGames[playerID]
	if !ok {
		return nil
	}
	g, found := m.registry.Get(gameID)
	if !found {
		return nil
	}
	return g
}

// RemovePlayer takes the player out of matchmaking entirely: off the wait
// queue, out of their game if they are in one, and out of the
// player-to-game mapping.
func (m *MatchManager) RemovePlayer(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.waiting, playerID)

	gameID, ok := m.playerGames[playerID]
	if !ok {
		return
	}
	if g, found := m.registry.Get(gameID); found {
		g.RemovePlayer(playerID)
	}
	delete(m.playerGames, playerID)
}

// IsWaiting reports whether the player is in the wait queue.
func (m *MatchManager) IsWaiting(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.waiting[playerID]
	return ok
}
