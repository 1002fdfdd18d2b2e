package game

import (
	"testing"
)

func newPlayingGame(t *testing.T) *Game {
	t.Helper()
	g := NewGame("test-game")
	if err := g.AddPlayer("alice"); err != nil {
		t.Fatalf("AddPlayer(alice) failed: %v", err)
	}
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatalf("AddPlayer(bob) failed: %v", err)
	}
	return g
}

type scriptedMove struct {
	row, col int
	player   string
}

func playMoves(t *testing.T, g *Game, moves []scriptedMove) {
	t.Helper()
	for i, m := range moves {
		if err := g.MakeMove(m.row, m.col, m.player); err != nil {
			t.Fatalf("move %d (%s at %d,%d) rejected: %v", i, m.player, m.row, m.col, err)
		}
	}
}

func countMarks(g *Game, mark Mark) int {
	n := 0
	for r := BorderMin; r <= BorderMax; r++ {
		for c := BorderMin; c <= BorderMax; c++ {
			if g.board[r][c] == mark {
				n++
			}
		}
	}
	return n
}

func TestHasLine(t *testing.T) {
	tests := []struct {
		name  string
		board [3][3]Mark
		mark  Mark
		want  bool
	}{
		{
			name:  "empty board has no line",
			board: [3][3]Mark{},
			mark:  MarkX,
			want:  false,
		},
		{
			name: "top row",
			board: [3][3]Mark{
				{MarkX, MarkX, MarkX},
				{None, MarkO, None},
				{None, None, MarkO},
			},
			mark: MarkX,
			want: true,
		},
		{
			name: "second column",
			board: [3][3]Mark{
				{MarkX, MarkO, None},
				{MarkX, MarkO, None},
				{None, MarkO, None},
			},
			mark: MarkO,
			want: true,
		},
		{
			name: "main diagonal",
			board: [3][3]Mark{
				{MarkX, None, None},
				{None, MarkX, None},
				{None, None, MarkX},
			},
			mark: MarkX,
			want: true,
		},
		{
			name: "anti-diagonal",
			board: [3][3]Mark{
				{None, None, MarkO},
				{None, MarkO, None},
				{MarkO, None, None},
			},
			mark: MarkO,
			want: true,
		},
		{
			name: "opponent line does not count",
			board: [3][3]Mark{
				{MarkX, MarkX, MarkX},
				{None, None, None},
				{None, None, None},
			},
			mark: MarkO,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Game{board: tt.board}
			if got := g.hasLine(tt.mark); got != tt.want {
				t.Errorf("hasLine(%q) = %v, want %v", tt.mark, got, tt.want)
			}
		})
	}
}

func TestBoardFull(t *testing.T) {
	tests := []struct {
		name  string
		board [3][3]Mark
		want  bool
	}{
		{name: "empty board", board: [3][3]Mark{}, want: false},
		{
			name: "partial board",
			board: [3][3]Mark{
				{MarkX, None, None},
				{None, MarkO, None},
				{None, None, None},
			},
			want: false,
		},
		{
			name: "full board",
			board: [3][3]Mark{
				{MarkX, MarkO, MarkX},
				{MarkX, MarkO, MarkO},
				{MarkO, MarkX, MarkX},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Game{board: tt.board}
			if got := g.boardFull(); got != tt.want {
				t.Errorf("boardFull() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddPlayerAssignsMarksAndStarts(t *testing.T) {
	g := NewGame("g1")

	if got := g.State(); got != StateWaiting {
		t.Fatalf("new game state = %q, want %q", got, StateWaiting)
	}

	if err := g.AddPlayer("alice"); err != nil {
		t.Fatalf("first AddPlayer failed: %v", err)
	}
	if got := g.State(); got != StateWaiting {
		t.Errorf("state after one player = %q, want %q", got, StateWaiting)
	}

	if err := g.AddPlayer("bob"); err != nil {
		t.Fatalf("second AddPlayer failed: %v", err)
	}
	if got := g.State(); got != StatePlaying {
		t.Errorf("state after two players = %q, want %q", got, StatePlaying)
	}
	if got := g.CurrentTurn(); got != "alice" {
		t.Errorf("first turn = %q, want first-joined player", got)
	}

	if mark, _ := g.PlayerMark("alice"); mark != MarkX {
		t.Errorf("alice mark = %q, want %q", mark, MarkX)
	}
	if mark, _ := g.PlayerMark("bob"); mark != MarkO {
		t.Errorf("bob mark = %q, want %q", mark, MarkO)
	}

	if err := g.AddPlayer("carol"); err != ErrGameFull {
		t.Errorf("third AddPlayer err = %v, want ErrGameFull", err)
	}
}

func TestMakeMoveRejections(t *testing.T) {
	waiting := NewGame("waiting")
	_ = waiting.AddPlayer("alice")
	if err := waiting.MakeMove(0, 0, "alice"); err != ErrNotPlaying {
		t.Errorf("move in waiting game err = %v, want ErrNotPlaying", err)
	}

	g := newPlayingGame(t)

	if err := g.MakeMove(0, 0, "bob"); err != ErrNotYourTurn {
		t.Errorf("out-of-turn move err = %v, want ErrNotYourTurn", err)
	}
	if err := g.MakeMove(3, 0, "alice"); err != ErrOutOfBounds {
		t.Errorf("row 3 err = %v, want ErrOutOfBounds", err)
	}
	if err := g.MakeMove(0, -1, "alice"); err != ErrOutOfBounds {
		t.Errorf("col -1 err = %v, want ErrOutOfBounds", err)
	}

	playMoves(t, g, []scriptedMove{{1, 1, "alice"}})
	if err := g.MakeMove(1, 1, "bob"); err != ErrCellOccupied {
		t.Errorf("occupied cell err = %v, want ErrCellOccupied", err)
	}

	if g.IsValidMove(1, 1, "bob") {
		t.Error("IsValidMove accepted an occupied cell")
	}
	if !g.IsValidMove(0, 0, "bob") {
		t.Error("IsValidMove rejected a legal move")
	}

	// Rejections leave board and turn untouched.
	if got := g.CurrentTurn(); got != "bob" {
		t.Errorf("turn after rejected moves = %q, want bob", got)
	}
	if len(g.moves) != 1 {
		t.Errorf("move log length = %d, want 1", len(g.moves))
	}
}

func TestTurnAlternates(t *testing.T) {
	g := newPlayingGame(t)

	moves := []scriptedMove{
		{0, 0, "alice"},
		{1, 0, "bob"},
		{0, 1, "alice"},
		{1, 1, "bob"},
	}
	want := []string{"bob", "alice", "bob", "alice"}

	for i, m := range moves {
		if err := g.MakeMove(m.row, m.col, m.player); err != nil {
			t.Fatalf("move %d rejected: %v", i, err)
		}
		if got := g.CurrentTurn(); got != want[i] {
			t.Errorf("turn after move %d = %q, want %q", i, got, want[i])
		}
	}
}

func TestVanishingRemovesOldestMark(t *testing.T) {
	g := newPlayingGame(t)

	// X plays (0,0),(0,2),(2,2), O plays (1,1),(2,0),(0,1), no line for
	// either. X's fourth move must erase X's first and nothing else.
	playMoves(t, g, []scriptedMove{
		{0, 0, "alice"},
		{1, 1, "bob"},
		{0, 2, "alice"},
		{2, 0, "bob"},
		{2, 2, "alice"},
		{0, 1, "bob"},
		{1, 0, "alice"},
	})

	if got := g.board[0][0]; got != None {
		t.Errorf("board[0][0] = %q, want vanished", got)
	}
	for _, pos := range []Position{{1, 0}, {0, 2}, {2, 2}} {
		if got := g.board[pos.Row][pos.Col]; got != MarkX {
			t.Errorf("board[%d][%d] = %q, want %q", pos.Row, pos.Col, got, MarkX)
		}
	}
	for _, pos := range []Position{{1, 1}, {2, 0}, {0, 1}} {
		if got := g.board[pos.Row][pos.Col]; got != MarkO {
			t.Errorf("board[%d][%d] = %q, want %q", pos.Row, pos.Col, got, MarkO)
		}
	}
	if got := g.State(); got != StatePlaying {
		t.Errorf("state = %q, want %q", got, StatePlaying)
	}
	if got := g.CurrentTurn(); got != "bob" {
		t.Errorf("turn = %q, want bob", got)
	}
}

func TestMarksNeverExceedThree(t *testing.T) {
	g := newPlayingGame(t)

	// Long non-winning sequence; both players cycle marks repeatedly.
	moves := []scriptedMove{
		{0, 0, "alice"}, {1, 1, "bob"},
		{0, 2, "alice"}, {2, 0, "bob"},
		{2, 2, "alice"}, {0, 1, "bob"},
		{1, 0, "alice"}, // vanishes X(0,0)
		{1, 2, "bob"},   // vanishes O(1,1)
		{0, 0, "alice"}, // vanishes X(0,2)
		{1, 1, "bob"},   // vanishes O(2,0)
	}

	for i, m := range moves {
		if err := g.MakeMove(m.row, m.col, m.player); err != nil {
			t.Fatalf("move %d rejected: %v", i, err)
		}
		if n := countMarks(g, MarkX); n > 3 {
			t.Fatalf("after move %d: %d X marks on board", i, n)
		}
		if n := countMarks(g, MarkO); n > 3 {
			t.Fatalf("after move %d: %d O marks on board", i, n)
		}
	}

	if got := g.State(); got != StatePlaying {
		t.Errorf("state = %q, want %q", got, StatePlaying)
	}
}

func TestTopRowWin(t *testing.T) {
	g := newPlayingGame(t)

	playMoves(t, g, []scriptedMove{
		{0, 0, "alice"},
		{1, 0, "bob"},
		{0, 1, "alice"},
		{1, 1, "bob"},
		{0, 2, "alice"},
	})

	if got := g.State(); got != StateFinished {
		t.Errorf("state = %q, want %q", got, StateFinished)
	}
	if got := g.Winner(); got != "alice" {
		t.Errorf("winner = %q, want alice", got)
	}
	if got := g.Outcome(); got != OutcomeWin {
		t.Errorf("outcome = %q, want %q", got, OutcomeWin)
	}

	// Finished is terminal.
	if err := g.MakeMove(2, 2, "bob"); err != ErrNotPlaying {
		t.Errorf("move after finish err = %v, want ErrNotPlaying", err)
	}
}

func TestWinVoidedBySameTurnVanish(t *testing.T) {
	g := newPlayingGame(t)

	// X's fourth move at (0,2) would complete the top row with (0,0) and
	// (0,1), but placing it vanishes X(0,0) in the same step. The win
	// check runs on the post-vanish board, so no win.
	playMoves(t, g, []scriptedMove{
		{0, 0, "alice"},
		{2, 0, "bob"},
		{0, 1, "alice"},
		{2, 1, "bob"},
		{1, 1, "alice"},
		{1, 0, "bob"},
		{0, 2, "alice"},
	})

	if got := g.State(); got != StatePlaying {
		t.Errorf("state = %q, want still %q", got, StatePlaying)
	}
	if got := g.Winner(); got != "" {
		t.Errorf("winner = %q, want none", got)
	}
	if got := g.board[0][0]; got != None {
		t.Errorf("board[0][0] = %q, want vanished", got)
	}
	if got := g.CurrentTurn(); got != "bob" {
		t.Errorf("turn = %q, want bob", got)
	}
}

func TestNextVanishingPosition(t *testing.T) {
	g := newPlayingGame(t)

	if _, ok := g.NextVanishingPosition("alice"); ok {
		t.Error("next vanishing reported before any move")
	}

	playMoves(t, g, []scriptedMove{
		{0, 0, "alice"},
		{1, 1, "bob"},
		{0, 2, "alice"},
	})
	if _, ok := g.NextVanishingPosition("alice"); ok {
		t.Error("next vanishing reported with only two X moves")
	}

	playMoves(t, g, []scriptedMove{
		{2, 0, "bob"},
		{2, 2, "alice"},
	})
	pos, ok := g.NextVanishingPosition("alice")
	if !ok {
		t.Fatal("no next vanishing with three X moves")
	}
	if pos != (Position{Row: 0, Col: 0}) {
		t.Errorf("next vanishing = %+v, want {0 0}", pos)
	}

	// After the fourth move the lookback slides forward by one.
	playMoves(t, g, []scriptedMove{
		{0, 1, "bob"},
		{1, 0, "alice"},
	})
	pos, ok = g.NextVanishingPosition("alice")
	if !ok {
		t.Fatal("no next vanishing with four X moves")
	}
	if pos != (Position{Row: 0, Col: 2}) {
		t.Errorf("next vanishing = %+v, want {0 2}", pos)
	}
}

func TestRemovePlayerAbandonsGame(t *testing.T) {
	g := newPlayingGame(t)
	playMoves(t, g, []scriptedMove{{0, 0, "alice"}})

	g.RemovePlayer("alice")

	if got := g.State(); got != StateFinished {
		t.Errorf("state = %q, want %q", got, StateFinished)
	}
	if got := g.Winner(); got != "" {
		t.Errorf("winner = %q, want none", got)
	}
	if got := g.Outcome(); got != OutcomeAbandoned {
		t.Errorf("outcome = %q, want %q", got, OutcomeAbandoned)
	}
	if err := g.MakeMove(1, 1, "bob"); err != ErrNotPlaying {
		t.Errorf("move after abandon err = %v, want ErrNotPlaying", err)
	}
}

func TestSnapshot(t *testing.T) {
	g := newPlayingGame(t)
	playMoves(t, g, []scriptedMove{
		{0, 0, "alice"},
		{1, 1, "bob"},
		{0, 1, "alice"},
		{2, 2, "bob"},
		{1, 0, "alice"},
	})

	snap := g.Snapshot()

	if snap.ID != "test-game" {
		t.Errorf("snapshot id = %q", snap.ID)
	}
	if snap.State != StatePlaying {
		t.Errorf("snapshot state = %q, want %q", snap.State, StatePlaying)
	}
	if snap.CurrentTurn != "bob" {
		t.Errorf("snapshot current_turn = %q, want bob", snap.CurrentTurn)
	}
	if snap.MoveCount != 5 {
		t.Errorf("snapshot move_count = %d, want 5", snap.MoveCount)
	}
	if snap.Board[0][0] != MarkX || snap.Board[1][1] != MarkO {
		t.Errorf("snapshot board mismatch: %v", snap.Board)
	}
	if len(snap.Players) != 2 || snap.Players[0].Mark != MarkX || snap.Players[1].Mark != MarkO {
		t.Errorf("snapshot players mismatch: %+v", snap.Players)
	}
	if pos, ok := snap.NextVanishing["alice"]; !ok || pos != (Position{Row: 0, Col: 0}) {
		t.Errorf("snapshot next_vanishing[alice] = %+v, %v", pos, ok)
	}
	if _, ok := snap.NextVanishing["bob"]; ok {
		t.Error("snapshot reports next_vanishing for bob with two moves")
	}

	// Snapshot is a copy, not a live view.
	snap.Board[2][0] = MarkX
	if g.board[2][0] != None {
		t.Error("mutating snapshot board leaked into the game")
	}
}
