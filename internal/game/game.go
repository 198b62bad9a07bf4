package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	BoardSize = 15
	WinLength = 5

	Empty = 0
	Black = 1
	White = 2
)

var (
	ErrGameOver    = errors.New("game is over")
	ErrOutOfBounds = errors.New("move out of bounds")
	ErrOccupied    = errors.New("cell is occupied")
)

// Player represents a player in the game
type Player struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	IsBot    bool   `json:"isBot"`
}

// Move is one placed stone.
type Move struct {
	Row    int `json:"row"`
	Col    int `json:"col"`
	Player int `json:"player"`
}

// Board represents the game board
type Board struct {
	Grid     [BoardSize][BoardSize]int // 0 = empty, 1 = black, 2 = white
	LastMove *Move
	Stones   int
}

// Game represents an active game session. Black always moves first.
type Game struct {
	ID           string
	Board        Board
	Black        Player
	White        Player
	Difficulty   string
	CurrentTurn  int
	IsActive     bool
	Winner       int
	Moves        []Move
	StartTime    int64
	LastMoveTime int64
}

// NewGame creates a new game between black and white.
func NewGame(black, white Player, difficulty string) *Game {
	return &Game{
		ID:          uuid.New().String(),
		Black:       black,
		White:       white,
		Difficulty:  difficulty,
		CurrentTurn: Black,
		IsActive:    true,
		StartTime:   time.Now().Unix(),
	}
}

// MakeMove places the current player's stone and passes the turn.
func (g *Game) MakeMove(row, col int) error {
	if !g.IsActive {
		return ErrGameOver
	}
	if !g.Board.InBounds(row, col) {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, row, col)
	}
	if g.Board.Grid[row][col] != Empty {
		return fmt.Errorf("%w: (%d,%d)", ErrOccupied, row, col)
	}

	m := Move{Row: row, Col: col, Player: g.CurrentTurn}
	g.Board.Grid[row][col] = g.CurrentTurn
	g.Board.LastMove = &m
	g.Board.Stones++
	g.Moves = append(g.Moves, m)
	g.LastMoveTime = time.Now().Unix()

	g.CheckGameCompletion()
	if g.IsActive {
		g.SwitchTurn()
	}
	return nil
}

// CheckGameCompletion ends the game on a five or a full board.
func (g *Game) CheckGameCompletion() {
	if g.CheckWin() {
		g.IsActive = false
		g.Winner = g.Board.LastMove.Player
	} else if g.Board.IsBoardFull() {
		g.IsActive = false
	}
}

var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// CheckWin checks if the last move made five or more in a row
func (g *Game) CheckWin() bool {
	last := g.Board.LastMove
	if last == nil {
		return false
	}
	for _, d := range directions {
		count := 1
		for i := 1; g.Board.at(last.Row+i*d[0], last.Col+i*d[1]) == last.Player; i++ {
			count++
		}
		for i := 1; g.Board.at(last.Row-i*d[0], last.Col-i*d[1]) == last.Player; i++ {
			count++
		}
		if count >= WinLength {
			return true
		}
	}
	return false
}

func (g *Game) Player(side int) Player {
	if side == White {
		return g.White
	}
	return g.Black
}

// BotSide returns the side played by the engine, or Empty when both
// players are human.
func (g *Game) BotSide() int {
	switch {
	case g.Black.IsBot:
		return Black
	case g.White.IsBot:
		return White
	}
	return Empty
}

func (g *Game) IsBotTurn() bool {
	return g.IsActive && g.CurrentTurn == g.BotSide()
}

func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

func (b *Board) at(row, col int) int {
	if !b.InBounds(row, col) {
		return -1
	}
	return b.Grid[row][col]
}

// IsBoardFull checks if the board is completely filled
func (b *Board) IsBoardFull() bool {
	return b.Stones == BoardSize*BoardSize
}
