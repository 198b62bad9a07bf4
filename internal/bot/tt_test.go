package bot

import (
	"testing"

	"github.com/matryer/is"
)

func TestTranspositionTableKeys(t *testing.T) {
	is := is.New(t)
	tt := newTranspositionTable(16)
	k := ttKey{hash: 42, toMove: Black, root: Black, profile: Advanced}
	tt.store(k, ttEntry{depth: 2, score: 7, flag: ttExact})

	e, ok := tt.lookup(k)
	is.True(ok)
	is.Equal(e.score, 7.0)

	other := k
	other.toMove = White
	_, ok = tt.lookup(other)
	is.True(!ok)

	other = k
	other.profile = Professional
	_, ok = tt.lookup(other)
	is.True(!ok)

	s := tt.snapshot()
	is.Equal(s.Lookups, uint64(3))
	is.Equal(s.Hits, uint64(1))
	is.Equal(s.Stores, uint64(1))
}

func TestTranspositionTableClearsWhenFull(t *testing.T) {
	is := is.New(t)
	tt := newTranspositionTable(2)
	for h := uint64(1); h <= 3; h++ {
		tt.store(ttKey{hash: h, toMove: Black, root: Black, profile: Beginner}, ttEntry{depth: 1})
	}
	s := tt.snapshot()
	is.Equal(s.Clears, uint64(1))
	is.Equal(s.Size, 1)

	tt.reset()
	is.Equal(tt.snapshot(), TTStats{})
}
