package game

// Position is a board coordinate.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// PlayerInfo is the wire form of a game participant.
type PlayerInfo struct {
	ID   string `json:"id"`
	Mark Mark   `json:"mark"`
}

// Snapshot is the wire representation of a game, consumed by the session
// layer and sent verbatim to clients.
type Snapshot struct {
	ID            string              `json:"id"`
	Board         [][]Mark            `json:"board"`
	Players       []PlayerInfo        `json:"players"`
	State         State               `json:"state"`
	CurrentTurn   string              `json:"current_turn"`
	Winner        string              `json:"winner"`
	Outcome       Outcome             `json:"outcome,omitempty"`
	MoveCount     int                 `json:"move_count"`
	NextVanishing map[string]Position `json:"next_vanishing"`
}

// Snapshot produces a point-in-time value copy of the game. The board is
// row-major; next_vanishing holds, per player, the cell that will be
// erased by that player's next move, when there is one.
func (g *Game) Snapshot() *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	board := make([][]Mark, 3)
	for r := range board {
		board[r] = make([]Mark, 3)
		copy(board[r], g.board[r][:])
	}

	players := make([]PlayerInfo, 0, len(g.players))
	vanishing := make(map[string]Position)
	for _, p := range g.players {
		players = append(players, PlayerInfo{ID: p.ID, Mark: p.Mark})
		if pos, ok := g.nextVanishing(p.ID); ok {
			vanishing[p.ID] = pos
		}
	}

	return &Snapshot{
		ID:            g.ID,
		Board:         board,
		Players:       players,
		State:         g.state,
		CurrentTurn:   g.currentTurn,
		Winner:        g.winner,
		Outcome:       g.outcome,
		MoveCount:     len(g.moves),
		NextVanishing: vanishing,
	}
}
