package bot

import "errors"

var (
	// ErrInvalidProfile is returned when a difficulty profile is missing or
	// malformed. It only surfaces at engine construction.
	ErrInvalidProfile = errors.New("invalid difficulty profile")
	// ErrNoLegalMove is returned when the board has no empty cell.
	ErrNoLegalMove = errors.New("no legal move")
	// ErrInconsistentBoard is returned for grids holding values other than
	// empty, black or white.
	ErrInconsistentBoard = errors.New("inconsistent board")
)
