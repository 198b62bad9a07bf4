package bot

// Axis is a unit step along one line direction.
type Axis struct {
	DR, DC int
}

// axes are the four canonical line directions. Each pattern covers both
// polarities of its axis, so no axis is scanned twice.
var axes = [4]Axis{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal
	{1, -1}, // anti-diagonal
}

const (
	patternHalf = 4
	patternLen  = 2*patternHalf + 1
)

// LinePattern is the window of cells centred on a point along one axis.
type LinePattern [patternLen]Cell

// scanLine reads the pattern through m along axis. Off-grid cells read as
// CellEdge.
func scanLine(b *Board, m Move, axis Axis) LinePattern {
	var p LinePattern
	for i := -patternHalf; i <= patternHalf; i++ {
		p[i+patternHalf] = b.At(m.Row+i*axis.DR, m.Col+i*axis.DC)
	}
	return p
}
