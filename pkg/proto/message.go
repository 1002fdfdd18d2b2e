package proto

import "ctchen222/Vanishing-Tic-Tac-Toe/internal/game"

// Inbound message types.
const (
	TypeJoinQueue = "join_queue"
	TypeMakeMove  = "make_move"
	TypeLeaveGame = "leave_game"
)

// Outbound event types.
const (
	TypeConnected          = "connected"
	TypeWaiting            = "waiting"
	TypeGameStart          = "game_start"
	TypeGameUpdate         = "game_update"
	TypeGameOver           = "game_over"
	TypePlayerLeft         = "player_left"
	TypePlayerDisconnected = "player_disconnected"
	TypeError              = "error"
)

// ClientToServerMessage represents a message from the client to the
// server. Row and Col are pointers so that a missing coordinate is
// distinguishable from a legitimate zero.
type ClientToServerMessage struct {
	Type string `json:"type" validate:"required"`
	Row  *int   `json:"row,omitempty"`
	Col  *int   `json:"col,omitempty"`
}

// ServerToClientMessage represents an event from the server to the
// client.
type ServerToClientMessage struct {
	Type     string         `json:"type"`
	PlayerID string         `json:"player_id,omitempty"`
	Message  string         `json:"message,omitempty"`
	Game     *game.Snapshot `json:"game,omitempty"`
}

// GameOverMessage carries the final snapshot plus the winner. Winner must
// be present and null when nobody won, so it gets its own struct instead
// of an omitempty field on the shared envelope.
type GameOverMessage struct {
	Type   string         `json:"type"`
	Game   *game.Snapshot `json:"game"`
	Winner *string        `json:"winner"`
}
