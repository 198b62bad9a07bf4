package bot

import (
	"testing"

	"github.com/matryer/is"
)

func TestScanLineAtCorner(t *testing.T) {
	is := is.New(t)
	b := testBoard([]Move{{0, 0}, {0, 1}}, nil)
	p := scanLine(b, Move{Row: 0, Col: 0}, axes[0])
	for i := 0; i < patternHalf; i++ {
		is.Equal(p[i], CellEdge)
	}
	is.Equal(p[patternHalf], CellBlack)
	is.Equal(p[patternHalf+1], CellBlack)
	is.Equal(p[patternHalf+2], CellEmpty)
}

func TestClassify(t *testing.T) {
	adv := testProfile(t, Advanced)
	beg := testProfile(t, Beginner)

	cases := []struct {
		name  string
		black []Move
		white []Move
		at    Move
		prof  *Profile
		want  Category
	}{
		{"five", stonesOnRow(7, 3, 4, 5, 6, 7), nil, Move{7, 5}, adv, Five},
		{"overline", stonesOnRow(7, 2, 3, 4, 5, 6, 7), nil, Move{7, 5}, adv, Five},
		{"open four", stonesOnRow(7, 4, 5, 6, 7), nil, Move{7, 5}, adv, OpenFour},
		{"blocked four", stonesOnRow(7, 4, 5, 6, 7), stonesOnRow(7, 8), Move{7, 5}, adv, BlockedFour},
		{"edge blocks a four", stonesOnRow(7, 0, 1, 2, 3), nil, Move{7, 1}, adv, BlockedFour},
		{"dead four", stonesOnRow(7, 4, 5, 6, 7), stonesOnRow(7, 3, 8), Move{7, 5}, adv, None},
		{"split four", stonesOnRow(7, 3, 4, 6, 7), nil, Move{7, 4}, adv, BlockedFour},
		{"open three", stonesOnRow(7, 5, 6, 7), nil, Move{7, 6}, adv, OpenThree},
		{"jump three", stonesOnRow(7, 5, 6, 8), nil, Move{7, 5}, adv, JumpThree},
		{"jump three unseen by beginner", stonesOnRow(7, 5, 6, 8), nil, Move{7, 5}, beg, OpenTwo},
		{"blocked three", stonesOnRow(7, 5, 6, 7), stonesOnRow(7, 4), Move{7, 6}, adv, BlockedThree},
		{"open two", stonesOnRow(7, 6, 7), nil, Move{7, 7}, adv, OpenTwo},
		{"blocked two", stonesOnRow(7, 6, 7), stonesOnRow(7, 8), Move{7, 7}, adv, BlockedTwo},
		{"vertical open three", stonesOnCol(3, 5, 6, 7), nil, Move{6, 3}, adv, OpenThree},
		{"centre not own", stonesOnRow(7, 5, 6, 7), nil, Move{7, 8}, adv, None},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			b := testBoard(tc.black, tc.white)
			axis := axes[0]
			if tc.name == "vertical open three" {
				axis = axes[1]
			}
			got := classify(scanLine(b, tc.at, axis), Black, tc.prof)
			is.Equal(got.Category, tc.want)
			is.Equal(got.Value, tc.prof.Values[tc.want])
			is.Equal(got.Forcing, tc.want.Forcing())
		})
	}
}

func TestCategoryForcing(t *testing.T) {
	is := is.New(t)
	is.True(!BlockedThree.Forcing())
	is.True(OpenThree.Forcing())
	is.True(JumpThree.Forcing())
	is.True(BlockedFour.Forcing())
	is.True(DoubleThree.Forcing())
	is.True(BlockedFour.IsFour())
	is.True(JumpThree.IsLiveThree())
	is.True(ThreePlusFour.IsCompound())
	is.Equal(OpenFour.String(), "open-four")
}
