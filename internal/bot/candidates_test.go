package bot

import (
	"slices"
	"testing"

	"github.com/matryer/is"
)

func candidateMoves(cands []Candidate) []Move {
	ms := make([]Move, len(cands))
	for i, c := range cands {
		ms[i] = c.Move
	}
	return ms
}

func TestCandidatesEmptyBoard(t *testing.T) {
	is := is.New(t)
	cands := generateCandidates(NewBoard(BoardSize), Black, testProfile(t, Professional))
	is.Equal(len(cands), 1)
	is.Equal(cands[0].Move, Move{Row: 7, Col: 7})
}

func TestCandidatesOrderAroundSingleStone(t *testing.T) {
	is := is.New(t)
	b := testBoard(stonesOnRow(7, 7), nil)
	cands := generateCandidates(b, White, testProfile(t, Advanced))

	is.Equal(candidateMoves(cands), []Move{
		{6, 7}, {7, 6}, {7, 8}, {8, 7},
		{6, 6}, {6, 8}, {8, 6}, {8, 8},
	})
	is.Equal(cands[0].Denial.Category, OpenTwo)
	is.Equal(cands[0].Control, 14)
	is.Equal(cands[4].Control, 13)
}

func TestCandidatesForcingFirst(t *testing.T) {
	is := is.New(t)
	b := testBoard(stonesOnRow(7, 5, 6, 7), corners())
	cands := generateCandidates(b, Black, testProfile(t, Advanced))

	is.Equal(cands[0].Move, Move{Row: 7, Col: 8})
	is.Equal(cands[1].Move, Move{Row: 7, Col: 4})
	is.Equal(cands[0].Threat.Category, OpenFour)
	is.Equal(cands[0].Forcing, cands[1].Forcing)
	is.True(cands[0].Total > cands[1].Total)
}

func TestCandidatesBreadth(t *testing.T) {
	is := is.New(t)
	beg := testProfile(t, Beginner)
	b := testBoard(
		append(stonesOnRow(6, 5, 7, 9), stonesOnRow(8, 6, 8)...),
		append(stonesOnRow(7, 6, 8), stonesOnRow(9, 5, 9)...),
	)
	cands := generateCandidates(b, Black, beg)
	is.Equal(len(cands), beg.CandidateBreadth)
	is.True(slices.IsSortedFunc(cands, compareCandidates))
	for _, c := range cands {
		is.True(b.IsEmpty(c.Move.Row, c.Move.Col))
		is.True(b.hasNeighbor(c.Move.Row, c.Move.Col))
	}
}

func TestConnectivity(t *testing.T) {
	is := is.New(t)
	b := testBoard(append(stonesOnRow(7, 5, 6), Move{Row: 9, Col: 9}), stonesOnRow(7, 8))
	// (7,6) at distance one and (7,5) at two on the row, (9,9) at two on the diagonal
	is.Equal(connectivity(b, Move{Row: 7, Col: 7}, Black), 2+1+1)
	is.Equal(connectivity(b, Move{Row: 7, Col: 7}, White), 2)
}
