package bot

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Decision is a chosen move together with how it was found.
type Decision struct {
	Move    Move          `json:"move"`
	Stage   Stage         `json:"stage"`
	Depth   int           `json:"depth,omitempty"`
	Score   float64       `json:"score,omitempty"`
	Nodes   uint64        `json:"nodes,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

// Options tunes an Engine beyond its profile.
type Options struct {
	// TTLimit bounds the transposition table before it is dropped.
	TTLimit int
	// Workers > 1 fans the root of the search out over board clones.
	Workers int
}

type Option func(*Options)

func WithTTLimit(n int) Option {
	return func(o *Options) { o.TTLimit = n }
}

func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// Engine picks moves for one game under one profile. Calls on the same
// engine are serialised; the transposition table persists between them
// until Reset.
type Engine struct {
	mu      sync.Mutex
	profile Profile
	opts    Options
	tt      *transpositionTable
}

// NewEngine validates the profile and returns an engine with an empty table.
func NewEngine(profile Profile, opts ...Option) (*Engine, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	o := Options{TTLimit: DefaultTTLimit, Workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	return &Engine{profile: profile, opts: o, tt: newTranspositionTable(o.TTLimit)}, nil
}

func (e *Engine) Profile() Profile {
	return e.profile
}

// Reset clears the transposition table. Call it before reusing an engine
// for an unrelated game.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tt.reset()
}

// Stats reports transposition table usage.
func (e *Engine) Stats() TTStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tt.snapshot()
}

// Decide runs the decision pipeline for side on a private copy of board.
func (e *Engine) Decide(board *Board, side Side) (Decision, error) {
	if !side.Valid() {
		return Decision{}, fmt.Errorf("%w: side %d", ErrInconsistentBoard, int(side))
	}
	if board.Full() {
		return Decision{}, ErrNoLegalMove
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	b := board.Clone()
	prof := &e.profile
	d := newDecider(b, side, prof)
	d.search = func(depth int) searchResult {
		if e.opts.Workers > 1 {
			return searchParallel(b, side, prof, depth, e.opts.Workers, e.opts.TTLimit)
		}
		return newSearcher(prof, side, e.tt).search(b, depth)
	}

	m, stage, ok := d.run()
	if !ok {
		return Decision{}, ErrNoLegalMove
	}
	if !board.IsEmpty(m.Row, m.Col) {
		return Decision{}, fmt.Errorf("%w: %s chose occupied cell %s", ErrInconsistentBoard, stage, m)
	}

	dec := Decision{Move: m, Stage: stage, Elapsed: time.Since(start)}
	if stage == StageSearch {
		dec.Depth, dec.Score, dec.Nodes = d.result.depth, d.result.score, d.result.nodes
	}
	log.Debug().
		Str("profile", prof.ID).
		Stringer("side", side).
		Stringer("move", m).
		Stringer("stage", stage).
		Int("depth", dec.Depth).
		Uint64("nodes", dec.Nodes).
		Dur("elapsed", dec.Elapsed).
		Msg("engine-decision")
	return dec, nil
}

// SelectMove is Decide without the diagnostics.
func (e *Engine) SelectMove(board *Board, side Side) (Move, error) {
	dec, err := e.Decide(board, side)
	if err != nil {
		return Move{}, err
	}
	return dec.Move, nil
}

// SelectMove picks a move for side on grid with a fresh engine.
func SelectMove(grid [][]int, side Side, profile Profile) (Move, error) {
	e, err := NewEngine(profile)
	if err != nil {
		return Move{}, err
	}
	b, err := BoardFromGrid(grid)
	if err != nil {
		return Move{}, err
	}
	return e.SelectMove(b, side)
}
