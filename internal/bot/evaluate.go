package bot

const (
	defenseOppShare = 0.8
	defenseOwnShare = 0.3

	multiThreatShare = 0.5
	pairShare        = 0.2
	pairRadius       = 3

	shapeRadius = 4
)

type forcingPoint struct {
	m     Move
	value int
}

// sideTerms accumulates the per-side evaluation terms before weighting.
type sideTerms struct {
	threat  float64
	pattern float64
	control float64
	connect float64
	shape   float64
	forcing []forcingPoint
}

// evaluate scores the position from root's point of view. Frontier points
// are read for both sides in one pass. Stone terms (control, connectivity
// and shape) come from the stones already on the board.
func evaluate(b *Board, root Side, prof *Profile) float64 {
	w := prof.Weights
	var own, opp sideTerms
	var defense float64

	frontier := b.frontier(make([]Move, 0, 64))
	for _, m := range frontier {
		mine := analyzePoint(b, m, root, prof)
		theirs := analyzePoint(b, m, root.Opponent(), prof)
		accumulatePoint(&own, mine, prof)
		accumulatePoint(&opp, theirs, prof)

		if w.Defense > 0 && theirs.Threat(prof).Forcing {
			defense += min(float64(theirs.Threat(prof).Value)*defenseOppShare,
				float64(mine.Threat(prof).Value)*defenseOwnShare)
		}
	}

	if w.Pattern > 0 {
		own.pattern += threatPairs(own.forcing)
		opp.pattern += threatPairs(opp.forcing)
	}

	size := b.Size()
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			cell := b.At(r, c)
			if cell == CellEmpty {
				continue
			}
			t := &own
			side := root
			if cell != root.Cell() {
				t = &opp
				side = root.Opponent()
			}
			m := Move{Row: r, Col: c}
			t.control += float64(control(b, m))
			t.connect += float64(connectivity(b, m, side))
			if w.Shape > 0 {
				t.shape += shapeAround(b, m, cell)
			}
		}
	}

	return w.Threat*(own.threat-opp.threat) +
		w.Control*(own.control-opp.control) +
		w.Connect*(own.connect-opp.connect) +
		w.Defense*defense +
		w.Pattern*(own.pattern-opp.pattern) +
		w.Shape*(own.shape-opp.shape)
}

func accumulatePoint(t *sideTerms, a Analysis, prof *Profile) {
	threat := a.Threat(prof)
	t.threat += float64(threat.Value)
	if a.ThreatCount >= prof.MultiThreatMinCount {
		t.pattern += float64(a.TotalValue) * multiThreatShare
	}
	if threat.Forcing {
		t.forcing = append(t.forcing, forcingPoint{m: a.Point, value: threat.Value})
	}
}

// threatPairs rewards forcing points close enough to combine later.
func threatPairs(points []forcingPoint) float64 {
	var score float64
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			if chebyshev(points[i].m, points[j].m) <= pairRadius {
				score += float64(points[i].value+points[j].value) * pairShare
			}
		}
	}
	return score
}

// shapeAround scores same-colour stones after m in row-major order within
// shapeRadius, so each pair is counted once.
func shapeAround(b *Board, m Move, cell Cell) float64 {
	var score float64
	for dr := 0; dr <= shapeRadius; dr++ {
		for dc := -shapeRadius; dc <= shapeRadius; dc++ {
			if dr == 0 && dc <= 0 {
				continue
			}
			if b.At(m.Row+dr, m.Col+dc) == cell {
				score += float64(shapeRadius + 1 - max(dr, abs(dc)))
			}
		}
	}
	return score
}

func chebyshev(a, b Move) int {
	return max(abs(a.Row-b.Row), abs(a.Col-b.Col))
}
