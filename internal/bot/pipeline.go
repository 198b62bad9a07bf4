package bot

import (
	"github.com/samber/lo"
)

// Stage names the pipeline step that produced a move.
type Stage uint8

const (
	StageWinNow Stage = iota
	StageBlockLoss
	StageUrgentDefense
	StageCompoundAttack
	StageCompoundDefense
	StageForcingAttack
	StageForcingDefense
	StageStrategicSetup
	StageSearch
	StageFallback
)

var stageNames = [...]string{
	StageWinNow:          "win-now",
	StageBlockLoss:       "block-loss",
	StageUrgentDefense:   "urgent-defense",
	StageCompoundAttack:  "compound-attack",
	StageCompoundDefense: "compound-defense",
	StageForcingAttack:   "forcing-attack",
	StageForcingDefense:  "forcing-defense",
	StageStrategicSetup:  "strategic-setup",
	StageSearch:          "search",
	StageFallback:        "fallback",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const (
	lookaheadWeight        = 0.7
	setupControlWeight     = 0.3
	setupConnectWeight     = 0.4
	compoundDefenseOwnPart = 0.5
)

// decider holds one move request. Frontier analyses for both sides are
// computed once and shared by the tactical stages.
type decider struct {
	b    *Board
	side Side
	prof *Profile

	frontier []Move
	own      []Analysis
	opp      []Analysis

	search func(depth int) searchResult
	result searchResult
}

func newDecider(b *Board, side Side, prof *Profile) *decider {
	d := &decider{b: b, side: side, prof: prof}
	d.frontier = b.frontier(make([]Move, 0, 64))
	d.own = make([]Analysis, len(d.frontier))
	d.opp = make([]Analysis, len(d.frontier))
	for i, m := range d.frontier {
		d.own[i] = analyzePoint(b, m, side, prof)
		d.opp[i] = analyzePoint(b, m, side.Opponent(), prof)
	}
	return d
}

type stageFunc func(d *decider) (Move, bool)

type pipelineStage struct {
	stage Stage
	run   stageFunc
}

var pipeline = []pipelineStage{
	{StageWinNow, (*decider).winNow},
	{StageBlockLoss, (*decider).blockLoss},
	{StageUrgentDefense, (*decider).urgentDefense},
	{StageCompoundAttack, (*decider).compoundAttack},
	{StageCompoundDefense, (*decider).compoundDefense},
	{StageForcingAttack, (*decider).forcingAttack},
	{StageForcingDefense, (*decider).forcingDefense},
	{StageStrategicSetup, (*decider).strategicSetup},
	{StageSearch, (*decider).searchStage},
	{StageFallback, (*decider).fallback},
}

// run evaluates the stages in order and stops at the first that yields.
func (d *decider) run() (Move, Stage, bool) {
	for _, s := range pipeline {
		if m, ok := s.run(d); ok {
			return m, s.stage, true
		}
	}
	return Move{}, StageFallback, false
}

func (d *decider) winNow() (Move, bool) {
	for _, a := range d.own {
		if a.Best.Category == Five {
			return a.Point, true
		}
	}
	return Move{}, false
}

func (d *decider) blockLoss() (Move, bool) {
	for _, a := range d.opp {
		if a.Best.Category == Five {
			return a.Point, true
		}
	}
	return Move{}, false
}

// urgency ranks the opponent's strongest axis at a point: open four, then
// blocked four, then an open three worth at least UrgentThreeValue.
func urgency(a Analysis, prof *Profile) int {
	switch {
	case a.Best.Category == OpenFour:
		return 3
	case a.Best.Category == BlockedFour:
		return 2
	case a.Best.Category == OpenThree && a.Best.Value >= prof.UrgentThreeValue:
		return 1
	}
	return 0
}

func (d *decider) urgentDefense() (Move, bool) {
	urgent := lo.Filter(d.opp, func(a Analysis, _ int) bool {
		return urgency(a, d.prof) > 0
	})
	if len(urgent) == 0 {
		return Move{}, false
	}
	best := lo.MaxBy(urgent, func(a, b Analysis) bool {
		ua, ub := urgency(a, d.prof), urgency(b, d.prof)
		if ua != ub {
			return ua > ub
		}
		return a.Best.Value > b.Best.Value
	})
	return best.Point, true
}

func (d *decider) isMultiThreat(a Analysis) bool {
	return a.IsCompound() && a.ThreatCount >= d.prof.MultiThreatMinCount
}

func fourCount(a Analysis) int {
	return lo.CountBy(a.Axes[:], func(t Threat) bool {
		return t.Category.IsFour()
	})
}

func (d *decider) compoundAttack() (Move, bool) {
	points := lo.Filter(d.own, func(a Analysis, _ int) bool {
		return d.isMultiThreat(a)
	})
	if len(points) == 0 {
		return Move{}, false
	}
	best := lo.MaxBy(points, func(a, b Analysis) bool {
		if a.Combined.Category != b.Combined.Category {
			return a.Combined.Category > b.Combined.Category
		}
		if fa, fb := fourCount(a), fourCount(b); fa != fb {
			return fa > fb
		}
		return a.TotalValue > b.TotalValue
	})
	return best.Point, true
}

func (d *decider) compoundDefense() (Move, bool) {
	found := false
	var best Move
	var bestScore float64
	for i, a := range d.opp {
		if !d.isMultiThreat(a) {
			continue
		}
		score := float64(a.TotalValue) + compoundDefenseOwnPart*float64(d.own[i].TotalValue)
		if !found || score > bestScore {
			best, bestScore, found = a.Point, score, true
		}
	}
	return best, found
}

func (d *decider) strongestForcing(points []Analysis) (Move, bool) {
	found := false
	var best Move
	bestValue := 0
	for _, a := range points {
		t := a.Threat(d.prof)
		if !t.Forcing || t.Value < d.prof.ForcingThreshold {
			continue
		}
		if !found || t.Value > bestValue {
			best, bestValue, found = a.Point, t.Value, true
		}
	}
	return best, found
}

func (d *decider) forcingAttack() (Move, bool) {
	return d.strongestForcing(d.own)
}

func (d *decider) forcingDefense() (Move, bool) {
	return d.strongestForcing(d.opp)
}

// lookahead is the best own point threat available after playing m.
func (d *decider) lookahead(m Move) int {
	d.b.place(m, d.side)
	best := 0
	for _, next := range d.b.frontier(nil) {
		best = max(best, pointThreat(d.b, next, d.side, d.prof).Value)
	}
	d.b.undo(m)
	return best
}

func (d *decider) strategicSetup() (Move, bool) {
	if d.b.Stones() == 0 {
		return Move{}, false
	}
	found := false
	var best Move
	bestScore := d.prof.ThreatThreshold
	for _, c := range generateCandidates(d.b, d.side, d.prof) {
		score := lookaheadWeight*float64(d.lookahead(c.Move)) +
			setupControlWeight*float64(c.Control) +
			setupConnectWeight*float64(c.Connect)
		if score > bestScore {
			best, bestScore, found = c.Move, score, true
		}
	}
	return best, found
}

func (d *decider) forcingCells() int {
	n := 0
	for i := range d.frontier {
		if d.own[i].Threat(d.prof).Forcing || d.opp[i].Threat(d.prof).Forcing {
			n++
		}
	}
	return n
}

func (d *decider) searchStage() (Move, bool) {
	if d.b.Stones() == 0 || d.search == nil {
		return Move{}, false
	}
	d.result = d.search(chooseDepth(d.b, d.prof, d.forcingCells()))
	return d.result.move, d.result.found
}

// fallback walks square rings outward from the centre and takes the first
// empty cell touching a stone, or any empty cell when none touches.
func (d *decider) fallback() (Move, bool) {
	b := d.b
	c := b.center()
	if b.Stones() == 0 {
		return c, true
	}
	var loose Move
	haveLoose := false
	for r := 0; r < b.Size(); r++ {
		for row := c.Row - r; row <= c.Row+r; row++ {
			for col := c.Col - r; col <= c.Col+r; col++ {
				if max(abs(row-c.Row), abs(col-c.Col)) != r || !b.IsEmpty(row, col) {
					continue
				}
				m := Move{Row: row, Col: col}
				if b.hasNeighbor(row, col) {
					return m, true
				}
				if !haveLoose {
					loose, haveLoose = m, true
				}
			}
		}
	}
	return loose, haveLoose
}
