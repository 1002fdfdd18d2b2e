package game

import (
	"errors"
	"sync"
)

// Mark represents a player's symbol on the board. The zero value is an
// empty cell, not a mark.
type Mark string

const (
	None  Mark = ""
	MarkX Mark = "X"
	MarkO Mark = "O"
)

// State is the lifecycle state of a game. Transitions only move forward:
// waiting -> playing -> finished.
type State string

const (
	StateWaiting  State = "waiting"
	StatePlaying  State = "playing"
	StateFinished State = "finished"
)

// Outcome records how a finished game ended. A game abandoned by a player
// carries no winner, same as a draw, so Winner alone cannot tell the two
// apart.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeWin       Outcome = "win"
	OutcomeDraw      Outcome = "draw"
	OutcomeAbandoned Outcome = "abandoned"
)

// Board boundaries.
const (
	BorderMin = 0
	BorderMax = 2
)

// maxMarks caps how many of a player's marks may occupy the board at
// once. Placing one past the cap erases that player's oldest live mark.
const maxMarks = 3

var (
	ErrGameFull      = errors.New("game already has two players")
	ErrNotPlaying    = errors.New("game is not in playing state")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrOutOfBounds   = errors.New("move out of bounds")
	ErrCellOccupied  = errors.New("cell already occupied")
	ErrUnknownPlayer = errors.New("player is not part of this game")
)

// Move is one accepted move. The move log is append-only: a Move stays in
// history even after the mark it placed has vanished from the board,
// because the vanishing lookback counts every historical move, not just
// the ones still visible.
type Move struct {
	Row      int
	Col      int
	PlayerID string
	Mark     Mark
	Seq      int
}

// Player is a participant of a single game.
type Player struct {
	ID   string
	Mark Mark
}

// Game is the state machine for one match: board, roster, turn order, the
// vanishing rule and win/draw detection. It knows nothing about
// connections or other games. The board is a projection of the move log;
// replaying the log and applying the vanishing rule reproduces it.
type Game struct {
	ID string

	mu          sync.Mutex
	board       [3][3]Mark
	players     []Player
	moves       []Move
	state       State
	currentTurn string
	winner      string
	outcome     Outcome
}

// NewGame creates an empty game in the waiting state.
func NewGame(id string) *Game {
	return &Game{
		ID:      id,
		players: make([]Player, 0, 2),
		state:   StateWaiting,
	}
}

// AddPlayer admits a player into the game. The first player gets X, the
// second gets O; admitting the second player starts the game with the
// first-joined player on turn. A third player is rejected.
func (g *Game) AddPlayer(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.players) >= 2 {
		return ErrGameFull
	}

	mark := MarkX
	if len(g.players) == 1 {
		mark = MarkO
	}
	g.players = append(g.players, Player{ID: playerID, Mark: mark})

	if len(g.players) == 2 {
		g.state = StatePlaying
		g.currentTurn = g.players[0].ID
	}
	return nil
}

// RemovePlayer drops a player from the roster. If that leaves an
// in-progress game short of two players, the game finishes with no winner
// and an abandoned outcome.
func (g *Game) RemovePlayer(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	kept := g.players[:0]
	for _, p := range g.players {
		if p.ID != playerID {
			kept = append(kept, p)
		}
	}
	g.players = kept

	if len(g.players) < 2 && g.state == StatePlaying {
		g.state = StateFinished
		g.outcome = OutcomeAbandoned
		g.currentTurn = ""
	}
}

// State returns the current lifecycle state.
func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Winner returns the winning player's id, or "" when there is none.
func (g *Game) Winner() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.winner
}

// Outcome returns how the game ended, or OutcomeNone while it is running.
func (g *Game) Outcome() Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outcome
}

// CurrentTurn returns the id of the player on turn, or "".
func (g *Game) CurrentTurn() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentTurn
}

// PlayerMark returns the mark assigned to a player.
func (g *Game) PlayerMark(playerID string) (Mark, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playerMark(playerID)
}

func (g *Game) playerMark(playerID string) (Mark, bool) {
	for _, p := range g.players {
		if p.ID == playerID {
			return p.Mark, true
		}
	}
	return None, false
}

// IsValidMove reports whether MakeMove would accept the move.
func (g *Game) IsValidMove(row, col int, playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.validateMove(row, col, playerID) == nil
}

func (g *Game) validateMove(row, col int, playerID string) error {
	if g.state != StatePlaying {
		return ErrNotPlaying
	}
	if g.currentTurn != playerID {
		return ErrNotYourTurn
	}
	if row < BorderMin || row > BorderMax || col < BorderMin || col > BorderMax {
		return ErrOutOfBounds
	}
	if g.board[row][col] != None {
		return ErrCellOccupied
	}
	return nil
}

// MakeMove applies a move for playerID. On rejection the board, turn and
// move log are untouched. On acceptance the mark is placed, the vanishing
// rule is applied, and only then is the board checked for a win, so a
// line that existed only before the vanish does not count.
func (g *Game) MakeMove(row, col int, playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.validateMove(row, col, playerID); err != nil {
		return err
	}
	mark, ok := g.playerMark(playerID)
	if !ok {
		return ErrUnknownPlayer
	}

	g.board[row][col] = mark
	g.moves = append(g.moves, Move{
		Row:      row,
		Col:      col,
		PlayerID: playerID,
		Mark:     mark,
		Seq:      len(g.moves),
	})

	g.applyVanishing(playerID)

	if g.hasLine(mark) {
		g.state = StateFinished
		g.winner = playerID
		g.outcome = OutcomeWin
		g.currentTurn = ""
		return nil
	}

	if g.boardFull() {
		g.state = StateFinished
		g.outcome = OutcomeDraw
		g.currentTurn = ""
		return nil
	}

	g.switchTurn()
	return nil
}

// applyVanishing clears the board cell of the mover's oldest still-live
// mark once their historical move count exceeds maxMarks. Only the cell
// is reset; the Move record stays in the log.
func (g *Game) applyVanishing(playerID string) {
	pm := g.movesBy(playerID)
	if len(pm) <= maxMarks {
		return
	}
	vanish := pm[len(pm)-maxMarks-1]
	g.board[vanish.Row][vanish.Col] = None
}

// movesBy returns the player's moves in chronological order.
func (g *Game) movesBy(playerID string) []Move {
	var pm []Move
	for _, m := range g.moves {
		if m.PlayerID == playerID {
			pm = append(pm, m)
		}
	}
	return pm
}

// NextVanishingPosition reports which of the player's marks will vanish
// on their next move. There is none until the player has made at least
// maxMarks moves.
func (g *Game) NextVanishingPosition(playerID string) (Position, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nextVanishing(playerID)
}

func (g *Game) nextVanishing(playerID string) (Position, bool) {
	pm := g.movesBy(playerID)
	if len(pm) < maxMarks {
		return Position{}, false
	}
	oldest := pm[len(pm)-maxMarks]
	return Position{Row: oldest.Row, Col: oldest.Col}, true
}

func (g *Game) switchTurn() {
	if len(g.players) != 2 {
		return
	}
	if g.currentTurn == g.players[0].ID {
		g.currentTurn = g.players[1].ID
	} else {
		g.currentTurn = g.players[0].ID
	}
}

// hasLine reports whether mark holds a complete row, column or diagonal.
func (g *Game) hasLine(mark Mark) bool {
	for i := BorderMin; i <= BorderMax; i++ {
		if g.board[i][0] == mark && g.board[i][1] == mark && g.board[i][2] == mark {
			return true
		}
		if g.board[0][i] == mark && g.board[1][i] == mark && g.board[2][i] == mark {
			return true
		}
	}
	if g.board[0][0] == mark && g.board[1][1] == mark && g.board[2][2] == mark {
		return true
	}
	if g.board[0][2] == mark && g.board[1][1] == mark && g.board[2][0] == mark {
		return true
	}
	return false
}

func (g *Game) boardFull() bool {
	for r := BorderMin; r <= BorderMax; r++ {
		for c := BorderMin; c <= BorderMax; c++ {
			if g.board[r][c] == None {
				return false
			}
		}
	}
	return true
}
