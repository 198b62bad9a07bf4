package bot

import (
	"fmt"

	"github.com/cespare/xxhash"
)

// BoardSize is the side length of a standard board.
const BoardSize = 15

// Cell is the content of one board square.
type Cell int8

const (
	CellEmpty Cell = 0
	CellBlack Cell = 1
	CellWhite Cell = 2
	// CellEdge stands in for squares beyond the grid in a line pattern.
	CellEdge Cell = -1
)

// Side identifies a player.
type Side int8

const (
	Black Side = 1
	White Side = 2
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	return 3 - s
}

// Cell returns the stone colour placed by s.
func (s Side) Cell() Cell {
	return Cell(s)
}

func (s Side) Valid() bool {
	return s == Black || s == White
}

func (s Side) String() string {
	switch s {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// ParseSide converts the wire representation (1 or 2) into a Side.
func ParseSide(v int) (Side, error) {
	s := Side(v)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: side %d is not 1 or 2", ErrInconsistentBoard, v)
	}
	return s, nil
}

// Move is a board coordinate, 0-indexed.
type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (m Move) String() string {
	return fmt.Sprintf("(%d,%d)", m.Row, m.Col)
}

// Board is a square grid of stones. Cells are stored as bytes so the whole
// position can be hashed without copying.
type Board struct {
	size   int
	cells  []byte
	stones int
}

// NewBoard returns an empty board with the given side length.
func NewBoard(size int) *Board {
	return &Board{size: size, cells: make([]byte, size*size)}
}

// BoardFromGrid builds a board from the caller's grid (0 empty, 1 black,
// 2 white). The grid must be square.
func BoardFromGrid(grid [][]int) (*Board, error) {
	size := len(grid)
	if size == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInconsistentBoard)
	}
	b := NewBoard(size)
	for r, row := range grid {
		if len(row) != size {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInconsistentBoard, r, len(row), size)
		}
		for c, v := range row {
			switch Cell(v) {
			case CellEmpty:
			case CellBlack, CellWhite:
				b.cells[r*size+c] = byte(v)
				b.stones++
			default:
				return nil, fmt.Errorf("%w: cell (%d,%d) holds %d", ErrInconsistentBoard, r, c, v)
			}
		}
	}
	return b, nil
}

func (b *Board) Size() int {
	return b.size
}

// Stones returns the number of occupied cells.
func (b *Board) Stones() int {
	return b.stones
}

func (b *Board) Full() bool {
	return b.stones == len(b.cells)
}

func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && col >= 0 && row < b.size && col < b.size
}

// At returns the cell at (row, col), or CellEdge when off the grid.
func (b *Board) At(row, col int) Cell {
	if !b.InBounds(row, col) {
		return CellEdge
	}
	return Cell(b.cells[row*b.size+col])
}

func (b *Board) IsEmpty(row, col int) bool {
	return b.At(row, col) == CellEmpty
}

// Place puts a stone for side on an empty in-bounds cell.
func (b *Board) Place(m Move, side Side) error {
	if !side.Valid() {
		return fmt.Errorf("%w: side %d", ErrInconsistentBoard, int(side))
	}
	if !b.IsEmpty(m.Row, m.Col) {
		return fmt.Errorf("cell %s is not playable", m)
	}
	b.place(m, side)
	return nil
}

// place and undo are the unchecked scratch operations used during analysis.
// Every place must be paired with an undo on the same move.
func (b *Board) place(m Move, side Side) {
	b.cells[m.Row*b.size+m.Col] = byte(side)
	b.stones++
}

func (b *Board) undo(m Move) {
	b.cells[m.Row*b.size+m.Col] = byte(CellEmpty)
	b.stones--
}

func (b *Board) Clone() *Board {
	clone := &Board{size: b.size, stones: b.stones, cells: make([]byte, len(b.cells))}
	copy(clone.cells, b.cells)
	return clone
}

// Grid returns the board in the caller's [][]int representation.
func (b *Board) Grid() [][]int {
	grid := make([][]int, b.size)
	for r := range grid {
		grid[r] = make([]int, b.size)
		for c := range grid[r] {
			grid[r][c] = int(b.cells[r*b.size+c])
		}
	}
	return grid
}

// Hash is a content hash of the cells only.
func (b *Board) Hash() uint64 {
	return xxhash.Sum64(b.cells)
}

func (b *Board) center() Move {
	return Move{Row: b.size / 2, Col: b.size / 2}
}

// hasNeighbor reports whether any of the eight surrounding cells holds a stone.
func (b *Board) hasNeighbor(row, col int) bool {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			if c := b.At(row+dr, col+dc); c == CellBlack || c == CellWhite {
				return true
			}
		}
	}
	return false
}

// frontier appends every empty cell adjacent to a stone, in row-major order.
func (b *Board) frontier(dst []Move) []Move {
	for r := 0; r < b.size; r++ {
		for c := 0; c < b.size; c++ {
			if b.cells[r*b.size+c] == byte(CellEmpty) && b.hasNeighbor(r, c) {
				dst = append(dst, Move{Row: r, Col: c})
			}
		}
	}
	return dst
}

// makesFive reports whether the stone of side at m is part of five or more
// in a row.
func (b *Board) makesFive(m Move, side Side) bool {
	own := side.Cell()
	for _, axis := range axes {
		count := 1
		for i := 1; b.At(m.Row+i*axis.DR, m.Col+i*axis.DC) == own; i++ {
			count++
		}
		for i := 1; b.At(m.Row-i*axis.DR, m.Col-i*axis.DC) == own; i++ {
			count++
		}
		if count >= 5 {
			return true
		}
	}
	return false
}

// winsAt reports whether playing side at the empty cell m completes five.
func (b *Board) winsAt(m Move, side Side) bool {
	b.place(m, side)
	win := b.makesFive(m, side)
	b.undo(m)
	return win
}

func centerDistance(b *Board, m Move) int {
	c := b.center()
	return abs(m.Row-c.Row) + abs(m.Col-c.Col)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
