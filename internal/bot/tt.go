package bot

// DefaultTTLimit bounds a table before it is dropped wholesale.
const DefaultTTLimit = 1 << 18

type ttFlag uint8

const (
	ttExact ttFlag = iota
	ttLower
	ttUpper
)

// ttKey separates positions with identical stones but a different side to
// move, search root or profile.
type ttKey struct {
	hash    uint64
	toMove  Side
	root    Side
	profile string
}

type ttEntry struct {
	depth int
	score float64
	flag  ttFlag
	best  Move
}

// TTStats reports table usage since the last reset.
type TTStats struct {
	Lookups uint64 `json:"lookups"`
	Hits    uint64 `json:"hits"`
	Stores  uint64 `json:"stores"`
	Clears  uint64 `json:"clears"`
	Size    int    `json:"size"`
}

// transpositionTable is owned by one searcher and is not safe for
// concurrent use.
type transpositionTable struct {
	limit   int
	entries map[ttKey]ttEntry
	stats   TTStats
}

func newTranspositionTable(limit int) *transpositionTable {
	if limit <= 0 {
		limit = DefaultTTLimit
	}
	return &transpositionTable{limit: limit, entries: make(map[ttKey]ttEntry, 1024)}
}

func (t *transpositionTable) lookup(k ttKey) (ttEntry, bool) {
	t.stats.Lookups++
	e, ok := t.entries[k]
	if ok {
		t.stats.Hits++
	}
	return e, ok
}

func (t *transpositionTable) store(k ttKey, e ttEntry) {
	if len(t.entries) >= t.limit {
		t.entries = make(map[ttKey]ttEntry, 1024)
		t.stats.Clears++
	}
	t.entries[k] = e
	t.stats.Stores++
}

func (t *transpositionTable) reset() {
	t.entries = make(map[ttKey]ttEntry, 1024)
	t.stats = TTStats{}
}

func (t *transpositionTable) snapshot() TTStats {
	s := t.stats
	s.Size = len(t.entries)
	return s
}
