package bot

// Category names a tactical shape, weakest first. The compound categories
// follow the single-line ones.
type Category uint8

const (
	None Category = iota
	BlockedTwo
	OpenTwo
	BlockedThree
	OpenThree
	JumpThree
	BlockedFour
	OpenFour
	Five
	DoubleThree
	ThreePlusFour
	DoubleFour

	numCategories
)

var categoryNames = [numCategories]string{
	None:          "none",
	BlockedTwo:    "blocked-two",
	OpenTwo:       "open-two",
	BlockedThree:  "blocked-three",
	OpenThree:     "open-three",
	JumpThree:     "jump-three",
	BlockedFour:   "blocked-four",
	OpenFour:      "open-four",
	Five:          "five",
	DoubleThree:   "double-three",
	ThreePlusFour: "three-plus-four",
	DoubleFour:    "double-four",
}

func (c Category) String() string {
	if c < numCategories {
		return categoryNames[c]
	}
	return "unknown"
}

// Forcing reports whether ignoring the shape loses or concedes a winning
// attack: open three and everything stronger.
func (c Category) Forcing() bool {
	return c >= OpenThree
}

func (c Category) IsFour() bool {
	return c == OpenFour || c == BlockedFour
}

// IsLiveThree reports a three that can still become an open four.
func (c Category) IsLiveThree() bool {
	return c == OpenThree || c == JumpThree
}

func (c Category) IsCompound() bool {
	return c == DoubleThree || c == ThreePlusFour || c == DoubleFour
}

// Threat is a classified shape with its profile value.
type Threat struct {
	Category Category `json:"category"`
	Value    int      `json:"value"`
	Forcing  bool     `json:"forcing"`
}

// classify maps the pattern around a stone of side (already at the centre)
// to a threat category valued by the profile.
func classify(p LinePattern, side Side, prof *Profile) Threat {
	own := side.Cell()
	const c = patternHalf
	if p[c] != own {
		return Threat{}
	}

	left, right := c-1, c+1
	for left >= 0 && p[left] == own {
		left--
	}
	for right < patternLen && p[right] == own {
		right++
	}
	run := right - left - 1
	leftOpen := left >= 0 && p[left] == CellEmpty
	rightOpen := right < patternLen && p[right] == CellEmpty

	switch {
	case run >= 5:
		return prof.threat(Five)
	case run == 4:
		if leftOpen && rightOpen {
			return prof.threat(OpenFour)
		}
		if leftOpen || rightOpen {
			return prof.threat(BlockedFour)
		}
		return Threat{}
	}

	if splitFour(p, own) {
		return prof.threat(BlockedFour)
	}
	if run == 3 && leftOpen && rightOpen {
		return prof.threat(OpenThree)
	}
	if prof.JumpThrees && jumpThree(p, own) {
		return prof.threat(JumpThree)
	}
	if run == 3 && (leftOpen || rightOpen) {
		return prof.threat(BlockedThree)
	}
	if run == 2 {
		if leftOpen && rightOpen {
			return prof.threat(OpenTwo)
		}
		if leftOpen || rightOpen {
			return prof.threat(BlockedTwo)
		}
	}
	return Threat{}
}

// splitFour finds a five-cell window through the centre holding four own
// stones and one gap, e.g. XX_XX.
func splitFour(p LinePattern, own Cell) bool {
	for start := patternHalf - 4; start <= patternHalf; start++ {
		if start < 0 || start+4 >= patternLen {
			continue
		}
		stones, gaps := 0, 0
		for i := start; i < start+5; i++ {
			switch p[i] {
			case own:
				stones++
			case CellEmpty:
				gaps++
			}
		}
		if stones == 4 && gaps == 1 {
			return true
		}
	}
	return false
}

// jumpThree finds _XX_X_ or _X_XX_ through the centre.
func jumpThree(p LinePattern, own Cell) bool {
	for start := patternHalf - 5; start <= patternHalf; start++ {
		if start < 0 || start+5 >= patternLen {
			continue
		}
		w := p[start : start+6]
		if w[0] != CellEmpty || w[5] != CellEmpty {
			continue
		}
		if w[1] != own || w[4] != own {
			continue
		}
		if (w[2] == own && w[3] == CellEmpty) || (w[2] == CellEmpty && w[3] == own) {
			return true
		}
	}
	return false
}
