package game

import (
	"encoding/json"
)

// GameStatus represents the current state of the game
type GameStatus string

const (
	StatusInProgress GameStatus = "in_progress"
	StatusCompleted  GameStatus = "completed"
	StatusDraw       GameStatus = "draw"
)

// GameState represents the current state of the game for client updates
type GameState struct {
	ID          string     `json:"id"`
	Board       [][]int    `json:"board"`
	CurrentTurn int        `json:"currentTurn"`
	Status      GameStatus `json:"status"`
	Difficulty  string     `json:"difficulty"`
	MoveCount   int        `json:"moveCount"`
	Black       *Player    `json:"black,omitempty"`
	White       *Player    `json:"white,omitempty"`
	Winner      *Player    `json:"winner,omitempty"`
	LastMove    *Move      `json:"lastMove,omitempty"`
}

func (g *Game) Status() GameStatus {
	switch {
	case g.IsActive:
		return StatusInProgress
	case g.Winner != Empty:
		return StatusCompleted
	default:
		return StatusDraw
	}
}

// GetState returns the current game state
func (g *Game) GetState() *GameState {
	black, white := g.Black, g.White
	state := &GameState{
		ID:          g.ID,
		Board:       g.GetBoardForBot(),
		CurrentTurn: g.CurrentTurn,
		Status:      g.Status(),
		Difficulty:  g.Difficulty,
		MoveCount:   len(g.Moves),
		Black:       &black,
		White:       &white,
	}
	if g.Board.LastMove != nil {
		last := *g.Board.LastMove
		state.LastMove = &last
	}
	if g.Winner != Empty {
		winner := g.Player(g.Winner)
		state.Winner = &winner
	}
	return state
}

// GetBoardForBot returns a copy of the grid in the engine's representation.
func (g *Game) GetBoardForBot() [][]int {
	board := make([][]int, BoardSize)
	for i := range board {
		board[i] = make([]int, BoardSize)
		copy(board[i], g.Board.Grid[i][:])
	}
	return board
}

// SwitchTurn changes the current player
func (g *Game) SwitchTurn() {
	g.CurrentTurn = 3 - g.CurrentTurn
}

// ToJSON converts the game state to JSON
func (g *Game) ToJSON() ([]byte, error) {
	return json.Marshal(g.GetState())
}
