package session

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"ctchen222/Vanishing-Tic-Tac-Toe/internal/player"
)

// Manager is the connection registry: each connected player maps to their
// outbound channel, and each game id maps to the set of players that
// should receive its broadcasts. The session layer mutates group
// membership but never touches channel identity.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*client
	groups  map[string]map[string]struct{}
}

// client pairs a player with a write lock; gorilla/websocket permits
// only one concurrent writer per connection.
type client struct {
	player *player.Player
	mu     sync.Mutex
}

// NewManager creates an empty connection registry.
func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]*client),
		groups:  make(map[string]map[string]struct{}),
	}
}

// Add registers a player's connection.
func (m *Manager) Add(playerID string, conn player.Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[playerID] = &client{player: player.NewPlayer(playerID, conn)}
}

// Remove unregisters a player's connection and takes them out of every
// group. The connection itself is not closed here; the transport owns
// its lifecycle.
func (m *Manager) Remove(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.clients, playerID)
	for gameID, members := range m.groups {
		delete(members, playerID)
		if len(members) == 0 {
			delete(m.groups, gameID)
		}
	}
}

// IsConnected reports whether the player has a registered connection.
func (m *Manager) IsConnected(playerID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.clients[playerID]
	return ok
}

// AddToGroup puts a player into a game's broadcast group.
func (m *Manager) AddToGroup(gameID, playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.groups[gameID]
	if !ok {
		members = make(map[string]struct{})
		m.groups[gameID] = members
	}
	members[playerID] = struct{}{}
}

// RemoveFromGroup takes a player out of a game's broadcast group; empty
// groups are dropped.
func (m *Manager) RemoveFromGroup(gameID, playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.groups[gameID]
	if !ok {
		return
	}
	delete(members, playerID)
	if len(members) == 0 {
		delete(m.groups, gameID)
	}
}

// GroupMembers returns a copy of the player ids in a game's group.
func (m *Manager) GroupMembers(gameID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := make([]string, 0, len(m.groups[gameID]))
	for id := range m.groups[gameID] {
		members = append(members, id)
	}
	return members
}

// Send marshals v and writes it to the player's channel. Delivery is
// fire-and-forget: a write failure means the player is presumed gone, so
// they are dropped from the registry and the error is not surfaced.
func (m *Manager) Send(playerID string, v any) {
	m.mu.RLock()
	c, ok := m.clients[playerID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("error marshalling message", "player.id", playerID, "error", err)
		return
	}

	c.mu.Lock()
	err = c.player.Conn.WriteMessage(websocket.TextMessage, data)
	c.mu.Unlock()
	if err != nil {
		slog.Warn("error writing to player, removing connection", "player.id", playerID, "error", err)
		m.Remove(playerID)
	}
}

// Broadcast sends v to every member of a game's group. A failed delivery
// to one member never aborts delivery to the rest.
func (m *Manager) Broadcast(gameID string, v any) {
	for _, playerID := range m.GroupMembers(gameID) {
		m.Send(playerID, v)
	}
}

// Ping writes a websocket ping frame to the player, sharing the write
// lock with Send.
func (m *Manager) Ping(playerID string) error {
	m.mu.RLock()
	c, ok := m.clients[playerID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player.Conn.WriteMessage(websocket.PingMessage, nil)
}
