package bot

// significantValue is the axis value from which a shape counts towards a
// point's threat count even when it is not forcing.
const significantValue = 50

// Analysis is the four-axis reading of a hypothetical stone.
type Analysis struct {
	Point Move
	Side  Side
	Axes  [4]Threat
	// Best is the strongest single axis.
	Best Threat
	// Combined applies the compound rules on top of Best.
	Combined Threat

	ForcingCount     int
	SignificantCount int
	TotalValue       int
	ThreatCount      int
}

// analyzePoint places side at m, classifies every axis and reverts the
// placement. Compound rules apply in priority order: five, double four,
// three plus four, double three, otherwise the strongest axis.
func analyzePoint(b *Board, m Move, side Side, prof *Profile) Analysis {
	a := Analysis{Point: m, Side: side}
	fours, threes := 0, 0

	b.place(m, side)
	for i, axis := range axes {
		t := classify(scanLine(b, m, axis), side, prof)
		a.Axes[i] = t
		if t.Value > a.Best.Value {
			a.Best = t
		}
		if t.Forcing {
			a.ForcingCount++
		}
		if t.Value >= significantValue {
			a.SignificantCount++
		}
		a.TotalValue += t.Value
		switch {
		case t.Category.IsFour():
			fours++
		case t.Category.IsLiveThree():
			threes++
		}
	}
	b.undo(m)

	a.ThreatCount = max(a.ForcingCount, a.SignificantCount/2)

	switch {
	case a.Best.Category == Five:
		a.Combined = a.Best
	case fours >= 2:
		a.Combined = prof.threat(DoubleFour)
	case fours >= 1 && threes >= 1:
		a.Combined = prof.threat(ThreePlusFour)
	case threes >= 2:
		a.Combined = prof.threat(DoubleThree)
	default:
		a.Combined = a.Best
	}
	return a
}

// Threat is the point's headline threat under prof: the best axis, upgraded
// to the compound reading when the profile scans for compounds.
func (a Analysis) Threat(prof *Profile) Threat {
	if prof.CompoundScan && a.Combined.Value > a.Best.Value {
		return a.Combined
	}
	return a.Best
}

// IsCompound reports whether the stone creates two threats at once.
func (a Analysis) IsCompound() bool {
	return a.Combined.Category.IsCompound()
}

func pointThreat(b *Board, m Move, side Side, prof *Profile) Threat {
	return analyzePoint(b, m, side, prof).Threat(prof)
}
