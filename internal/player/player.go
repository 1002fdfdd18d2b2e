package player

// Connection abstracts the websocket connection so the session layer can
// be exercised without a network.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Player is a connected client, identified by an opaque stable id.
type Player struct {
	ID   string
	Conn Connection
}

// NewPlayer creates a player bound to a connection.
func NewPlayer(id string, conn Connection) *Player {
	return &Player{ID: id, Conn: conn}
}
