package bot

import (
	"math"

	"golang.org/x/sync/errgroup"
)

const (
	// WinScore dominates any heuristic evaluation. Remaining depth is added
	// so that faster wins score higher.
	WinScore = 1e9

	openingStones  = 10
	forcingCellMin = 3
)

// chooseDepth picks the search depth from the game phase.
func chooseDepth(b *Board, prof *Profile, forcingCells int) int {
	cells := b.Size() * b.Size()
	switch {
	case b.Stones() < openingStones:
		return prof.MinDepth
	case forcingCells >= forcingCellMin:
		return prof.MaxDepth
	case b.Stones()*10 >= cells*6:
		return prof.MaxDepth
	default:
		return max(prof.MinDepth, prof.MaxDepth-1)
	}
}

type searcher struct {
	prof  *Profile
	root  Side
	tt    *transpositionTable
	nodes uint64
}

func newSearcher(prof *Profile, root Side, tt *transpositionTable) *searcher {
	return &searcher{prof: prof, root: root, tt: tt}
}

type searchResult struct {
	move  Move
	score float64
	depth int
	nodes uint64
	found bool
}

// minimax scores b with toMove to play, from the root side's view. Every
// trial placement is undone before returning, including on cutoffs.
func (s *searcher) minimax(b *Board, depth int, alpha, beta float64, toMove Side) float64 {
	s.nodes++
	if depth <= 0 || b.Full() {
		return evaluate(b, s.root, s.prof)
	}

	key := ttKey{hash: b.Hash(), toMove: toMove, root: s.root, profile: s.prof.ID}
	if e, ok := s.tt.lookup(key); ok && e.depth >= depth {
		switch e.flag {
		case ttExact:
			return e.score
		case ttLower:
			alpha = max(alpha, e.score)
		case ttUpper:
			beta = min(beta, e.score)
		}
		if alpha >= beta {
			return e.score
		}
	}

	alphaOrig, betaOrig := alpha, beta
	maximizing := toMove == s.root
	best := math.Inf(1)
	if maximizing {
		best = math.Inf(-1)
	}
	var bestMove Move

	for _, c := range generateCandidates(b, toMove, s.prof) {
		b.place(c.Move, toMove)
		var score float64
		if b.makesFive(c.Move, toMove) {
			score = WinScore + float64(depth)
			if !maximizing {
				score = -score
			}
		} else {
			score = s.minimax(b, depth-1, alpha, beta, toMove.Opponent())
		}
		b.undo(c.Move)

		if maximizing {
			if score > best {
				best, bestMove = score, c.Move
			}
			alpha = max(alpha, best)
		} else {
			if score < best {
				best, bestMove = score, c.Move
			}
			beta = min(beta, best)
		}
		if alpha >= beta {
			break
		}
	}

	flag := ttExact
	switch {
	case best <= alphaOrig:
		flag = ttUpper
	case best >= betaOrig:
		flag = ttLower
	}
	s.tt.store(key, ttEntry{depth: depth, score: best, flag: flag, best: bestMove})
	return best
}

// search runs the root of the tree sequentially. The first candidate
// reaching the best score wins.
func (s *searcher) search(b *Board, depth int) searchResult {
	res := searchResult{depth: depth, score: math.Inf(-1)}
	alpha := math.Inf(-1)
	for _, c := range generateCandidates(b, s.root, s.prof) {
		b.place(c.Move, s.root)
		var score float64
		if b.makesFive(c.Move, s.root) {
			score = WinScore + float64(depth)
		} else {
			score = s.minimax(b, depth-1, alpha, math.Inf(1), s.root.Opponent())
		}
		b.undo(c.Move)
		if !res.found || score > res.score {
			res.move, res.score, res.found = c.Move, score, true
		}
		alpha = max(alpha, res.score)
	}
	res.nodes = s.nodes
	return res
}

// searchParallel searches each root child on its own board clone and table
// with a full window. The merge keeps the highest score and, among equal
// scores, the lowest candidate index, which matches search.
func searchParallel(b *Board, root Side, prof *Profile, depth, workers, ttLimit int) searchResult {
	cands := generateCandidates(b, root, prof)
	scores := make([]float64, len(cands))
	nodes := make([]uint64, len(cands))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, c := range cands {
		g.Go(func() error {
			board := b.Clone()
			board.place(c.Move, root)
			if board.makesFive(c.Move, root) {
				scores[i] = WinScore + float64(depth)
				nodes[i] = 1
				return nil
			}
			s := newSearcher(prof, root, newTranspositionTable(ttLimit))
			scores[i] = s.minimax(board, depth-1, math.Inf(-1), math.Inf(1), root.Opponent())
			nodes[i] = s.nodes
			return nil
		})
	}
	_ = g.Wait()

	res := searchResult{depth: depth}
	for i, c := range cands {
		res.nodes += nodes[i]
		if !res.found || scores[i] > res.score {
			res.move, res.score, res.found = c.Move, scores[i], true
		}
	}
	return res
}
