package bot

import (
	"cmp"
	"slices"
)

const (
	denialWeight  = 0.9
	controlWeight = 0.3
	connectWeight = 0.2

	connectRadius = 2
)

// Candidate is a scored empty cell next to the stones in play.
type Candidate struct {
	Move Move `json:"move"`
	// Threat is the mover's point threat, Denial the opponent's.
	Threat     Threat  `json:"threat"`
	Denial     Threat  `json:"denial"`
	Forcing    int     `json:"forcing"`
	Control    int     `json:"control"`
	Connect    int     `json:"connect"`
	Total      float64 `json:"total"`
	CenterDist int     `json:"centerDist"`
}

// control rewards proximity to the centre and never drops below one.
func control(b *Board, m Move) int {
	return max(1, b.Size()-centerDistance(b, m))
}

// connectivity counts own stones within connectRadius along the four axes,
// closer stones weighing more.
func connectivity(b *Board, m Move, side Side) int {
	own := side.Cell()
	score := 0
	for _, axis := range axes {
		for d := 1; d <= connectRadius; d++ {
			w := connectRadius + 1 - d
			if b.At(m.Row+d*axis.DR, m.Col+d*axis.DC) == own {
				score += w
			}
			if b.At(m.Row-d*axis.DR, m.Col-d*axis.DC) == own {
				score += w
			}
		}
	}
	return score
}

func scoreCandidate(b *Board, m Move, side Side, prof *Profile) Candidate {
	c := Candidate{
		Move:       m,
		Threat:     pointThreat(b, m, side, prof),
		Denial:     pointThreat(b, m, side.Opponent(), prof),
		Control:    control(b, m),
		Connect:    connectivity(b, m, side),
		CenterDist: centerDistance(b, m),
	}
	if c.Threat.Forcing {
		c.Forcing = c.Threat.Value
	}
	if c.Denial.Forcing {
		c.Forcing = max(c.Forcing, c.Denial.Value)
	}
	c.Total = float64(c.Threat.Value) +
		float64(c.Denial.Value)*denialWeight +
		float64(c.Control)*controlWeight +
		float64(c.Connect)*connectWeight
	return c
}

// compareCandidates orders best first: forcing magnitude, total, control,
// centre distance, then row-major position so the order is total.
func compareCandidates(a, b Candidate) int {
	if c := cmp.Compare(b.Forcing, a.Forcing); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Total, a.Total); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Control, a.Control); c != 0 {
		return c
	}
	if c := cmp.Compare(a.CenterDist, b.CenterDist); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Move.Row, b.Move.Row); c != 0 {
		return c
	}
	return cmp.Compare(a.Move.Col, b.Move.Col)
}

// generateCandidates returns the ranked frontier for side, at most
// CandidateBreadth long. An empty board yields the centre only.
func generateCandidates(b *Board, side Side, prof *Profile) []Candidate {
	if b.Stones() == 0 {
		m := b.center()
		return []Candidate{{Move: m, Control: control(b, m)}}
	}
	frontier := b.frontier(make([]Move, 0, 64))
	cands := make([]Candidate, 0, len(frontier))
	for _, m := range frontier {
		cands = append(cands, scoreCandidate(b, m, side, prof))
	}
	slices.SortFunc(cands, compareCandidates)
	if len(cands) > prof.CandidateBreadth {
		cands = cands[:prof.CandidateBreadth]
	}
	return cands
}
