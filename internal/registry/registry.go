package registry

import (
	"sync"

	"github.com/google/uuid"

	"ctchen222/Vanishing-Tic-Tac-Toe/internal/game"
)

// Registry owns all live games, keyed by generated id. Everything is
// memory-resident; games disappear with the process.
type Registry struct {
	mu    sync.RWMutex
	games map[string]*game.Game
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		games: make(map[string]*game.Game),
	}
}

// Create constructs a new waiting game under a fresh uuid and tracks it.
func (r *Registry) Create() *game.Game {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := game.NewGame(uuid.New().String())
	r.games[g.ID] = g
	return g
}

// Get looks up a game by id.
func (r *Registry) Get(id string) (*game.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.games[id]
	return g, ok
}

// Delete removes a game from the registry. It is idempotent and reports
// whether anything was removed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.games[id]; !ok {
		return false
	}
	delete(r.games, id)
	return true
}

// ListAll returns a snapshot copy of the tracked games, for diagnostics.
func (r *Registry) ListAll() map[string]*game.Game {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*game.Game, len(r.games))
	for id, g := range r.games {
		out[id] = g
	}
	return out
}

// CleanupFinished drops every finished game and returns how many were
// removed.
func (r *Registry) CleanupFinished() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, g := range r.games {
		if g.State() == game.StateFinished {
			delete(r.games, id)
			removed++
		}
	}
	return removed
}
