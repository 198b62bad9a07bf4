package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomoku/backend/internal/analytics"
	"github.com/gomoku/backend/internal/database"
	"github.com/gomoku/backend/internal/game"
)

type fakeStore struct {
	mu      sync.Mutex
	games   []string
	aiMoves []database.AIMove
	results map[int]int
}

func (s *fakeStore) EnsurePlayer(_ context.Context, username string) (*database.Player, error) {
	return &database.Player{ID: 7, Username: username}, nil
}

func (s *fakeStore) CreateGame(_ context.Context, blackID, whiteID *int, isBotGame bool, difficulty string) (*database.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = append(s.games, difficulty)
	return &database.Game{ID: 42, BlackID: blackID, WhiteID: whiteID, IsBotGame: isBotGame, Difficulty: difficulty}, nil
}

func (s *fakeStore) UpdateGameResult(_ context.Context, gameID, winnerID int, _ map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.results == nil {
		s.results = map[int]int{}
	}
	s.results[gameID] = winnerID
	return nil
}

func (s *fakeStore) RecordAIMove(_ context.Context, m database.AIMove) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aiMoves = append(s.aiMoves, m)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) SendEvent(e analytics.GameEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e.Type)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) has(eventType string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e == eventType {
			return true
		}
	}
	return false
}

type received struct {
	Type    string          `json:"type"`
	GameID  string          `json:"gameId"`
	Payload json.RawMessage `json:"payload"`
}

func newTestHub(t *testing.T, cfg Config) *Hub {
	t.Helper()
	h := NewHub(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		h.Close()
	})
	return h
}

func newTestClient(h *Hub) *Client {
	c := &Client{hub: h, send: make(chan []byte, 64)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

// next reads messages until one of the given type arrives.
func next(t *testing.T, c *Client, msgType string) received {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case data := <-c.send:
			var msg received
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Type == msgType {
				return msg
			}
		case <-timeout:
			t.Fatalf("no %q message", msgType)
		}
	}
}

func intp(v int) *int { return &v }

func TestJoinAndPlayAgainstEngine(t *testing.T) {
	h := newTestHub(t, Config{})
	c := newTestClient(h)

	h.handleJoin(c, joinPayload{Username: "alice", Difficulty: "beginner", Color: "black"})
	start := next(t, c, "gameStart")
	var state struct {
		Status     string `json:"status"`
		Difficulty string `json:"difficulty"`
		YourSide   int    `json:"yourSide"`
		MoveCount  int    `json:"moveCount"`
	}
	require.NoError(t, json.Unmarshal(start.Payload, &state))
	assert.Equal(t, "in_progress", state.Status)
	assert.Equal(t, "beginner", state.Difficulty)
	assert.Equal(t, game.Black, state.YourSide)

	h.handleMove(c, movePayload{Row: intp(7), Col: intp(7)})
	ai := next(t, c, "aiMove")
	assert.Equal(t, start.GameID, ai.GameID)

	var move aiMovePayload
	require.NoError(t, json.Unmarshal(ai.Payload, &move))
	assert.NotEmpty(t, move.Stage)
	assert.False(t, move.Row == 7 && move.Col == 7)

	after := next(t, c, "gameState")
	require.NoError(t, json.Unmarshal(after.Payload, &state))
	assert.Equal(t, 2, state.MoveCount)
}

func TestEngineOpensWhenHumanIsWhite(t *testing.T) {
	h := newTestHub(t, Config{})
	c := newTestClient(h)

	h.handleJoin(c, joinPayload{Username: "bob", Color: "white"})
	next(t, c, "gameStart")

	ai := next(t, c, "aiMove")
	var move aiMovePayload
	require.NoError(t, json.Unmarshal(ai.Payload, &move))
	assert.Equal(t, aiMovePayload{Row: 7, Col: 7, Stage: "fallback", ElapsedMs: move.ElapsedMs}, move)
}

func TestJoinRejectsBadRequests(t *testing.T) {
	h := newTestHub(t, Config{})
	c := newTestClient(h)

	h.handleJoin(c, joinPayload{Username: "carol", Difficulty: "grandmaster"})
	msg := next(t, c, "error")
	assert.Contains(t, string(msg.Payload), "grandmaster")

	h.handleJoin(c, joinPayload{Username: "carol", Color: "purple"})
	next(t, c, "error")

	h.handleJoin(c, joinPayload{Username: "  "})
	next(t, c, "error")

	h.mu.Lock()
	assert.Empty(t, h.games)
	h.mu.Unlock()
}

func TestMoveValidation(t *testing.T) {
	h := newTestHub(t, Config{})
	c := newTestClient(h)

	h.handleMove(c, movePayload{Row: intp(1), Col: intp(1)})
	assert.Contains(t, string(next(t, c, "error").Payload), "not in a game")

	h.handleJoin(c, joinPayload{Username: "dave", Color: "white"})
	next(t, c, "gameStart")
	next(t, c, "aiMove")

	h.handleMove(c, movePayload{Row: intp(7), Col: intp(7)})
	assert.Contains(t, string(next(t, c, "error").Payload), "occupied")

	h.handleMove(c, movePayload{Row: intp(3)})
	assert.Contains(t, string(next(t, c, "error").Payload), "row and col")
}

func TestEngineWinIsRecorded(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	h := newTestHub(t, Config{})
	h.SetDB(store)
	h.SetProducer(pub)
	c := newTestClient(h)

	h.handleJoin(c, joinPayload{Username: "erin", Difficulty: "advanced"})
	start := next(t, c, "gameStart")

	// engine (white) gets an open line on row 0
	h.mu.Lock()
	g := h.games[start.GameID]
	for col := 0; col < 4; col++ {
		g.game.Board.Grid[0][col] = game.White
	}
	for _, rc := range [][2]int{{14, 0}, {14, 2}, {12, 5}, {10, 0}} {
		g.game.Board.Grid[rc[0]][rc[1]] = game.Black
	}
	g.game.Board.Stones = 8
	h.mu.Unlock()

	h.handleMove(c, movePayload{Row: intp(7), Col: intp(7)})

	var move aiMovePayload
	require.NoError(t, json.Unmarshal(next(t, c, "aiMove").Payload, &move))
	assert.Equal(t, "win-now", move.Stage)
	assert.Equal(t, 0, move.Row)
	assert.Equal(t, 4, move.Col)

	var finished map[string]interface{}
	require.NoError(t, json.Unmarshal(next(t, c, "gameFinished").Payload, &finished))
	assert.Equal(t, true, finished["botWon"])
	assert.Nil(t, finished["winner"])

	next(t, c, "leaderboardUpdate")
	store.mu.Lock()
	assert.Equal(t, []string{"advanced"}, store.games)
	assert.Equal(t, 0, store.results[42])
	require.Len(t, store.aiMoves, 1)
	assert.Equal(t, "win-now", store.aiMoves[0].Stage)
	assert.Equal(t, 42, store.aiMoves[0].GameID)
	store.mu.Unlock()

	for _, e := range []string{analytics.EventGameStart, analytics.EventMove, analytics.EventAIMove, analytics.EventGameEnd} {
		assert.True(t, pub.has(e), e)
	}

	// a finished game can be replayed
	h.handlePlayAgain(c)
	rematch := next(t, c, "gameStart")
	assert.NotEqual(t, start.GameID, rematch.GameID)
}

func TestHint(t *testing.T) {
	h := newTestHub(t, Config{})
	c := newTestClient(h)

	h.handleJoin(c, joinPayload{Username: "frank"})
	next(t, c, "gameStart")

	h.handleHint(c)
	var hint struct {
		Row   int    `json:"row"`
		Col   int    `json:"col"`
		Stage string `json:"stage"`
	}
	require.NoError(t, json.Unmarshal(next(t, c, "hint").Payload, &hint))
	assert.Equal(t, 7, hint.Row)
	assert.Equal(t, 7, hint.Col)
	assert.Equal(t, "fallback", hint.Stage)
}

func TestExitGame(t *testing.T) {
	h := newTestHub(t, Config{})
	c := newTestClient(h)

	h.handleJoin(c, joinPayload{Username: "gina"})
	start := next(t, c, "gameStart")

	h.handleExit(c)
	assert.Equal(t, start.GameID, next(t, c, "gameExited").GameID)

	h.mu.Lock()
	assert.Empty(t, h.games)
	assert.Empty(t, c.gameID)
	h.mu.Unlock()
}

func TestReconnectWithinWindow(t *testing.T) {
	h := newTestHub(t, Config{ReconnectWindow: time.Minute})
	c := newTestClient(h)

	h.handleJoin(c, joinPayload{Username: "hana"})
	start := next(t, c, "gameStart")

	h.mu.Lock()
	h.removeClientLocked(c)
	h.mu.Unlock()

	c2 := newTestClient(h)
	h.handleJoin(c2, joinPayload{Username: "hana"})
	assert.Equal(t, start.GameID, next(t, c2, "gameState").GameID)
}

func TestReconnectCancelsAbandonTimer(t *testing.T) {
	h := newTestHub(t, Config{ReconnectWindow: time.Minute})
	c := newTestClient(h)

	h.handleJoin(c, joinPayload{Username: "gus"})
	start := next(t, c, "gameStart")

	h.mu.Lock()
	h.removeClientLocked(c)
	g := h.games[start.GameID]
	require.NotNil(t, g)
	first := g.abandon
	require.NotNil(t, first)
	h.mu.Unlock()

	c2 := newTestClient(h)
	h.handleJoin(c2, joinPayload{Username: "gus"})
	next(t, c2, "gameState")

	h.mu.Lock()
	assert.Nil(t, g.abandon)
	assert.False(t, first.Stop(), "timer from the first disconnect still armed")

	h.removeClientLocked(c2)
	second := g.abandon
	h.mu.Unlock()

	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.True(t, second.Stop())
}

func TestDisconnectedGameIsAbandoned(t *testing.T) {
	h := newTestHub(t, Config{ReconnectWindow: 20 * time.Millisecond})
	c := newTestClient(h)

	h.handleJoin(c, joinPayload{Username: "ivan"})
	next(t, c, "gameStart")

	h.mu.Lock()
	h.removeClientLocked(c)
	h.mu.Unlock()

	assert.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.games) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestActiveUsers(t *testing.T) {
	h := newTestHub(t, Config{})
	a := newTestClient(h)
	newTestClient(h) // not joined yet

	h.handleJoin(a, joinPayload{Username: "zoe", Difficulty: "professional"})
	next(t, a, "gameStart")

	rec := httptest.NewRecorder()
	h.HandleActiveUsers(rec, httptest.NewRequest(http.MethodGet, "/active-users", nil))

	var users []ActiveUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Equal(t, []ActiveUser{{Username: "zoe", Status: "in_game", Difficulty: "professional"}}, users)
}

func TestDecodeJoin(t *testing.T) {
	p, err := decodeJoin(json.RawMessage(`"alice"`))
	require.NoError(t, err)
	assert.Equal(t, joinPayload{Username: "alice"}, p)

	p, err = decodeJoin(json.RawMessage(`{"username":"bob","difficulty":"hard","color":"random"}`))
	require.NoError(t, err)
	assert.Equal(t, joinPayload{Username: "bob", Difficulty: "hard", Color: "random"}, p)
}

func TestPickSide(t *testing.T) {
	side, err := pickSide("")
	require.NoError(t, err)
	assert.Equal(t, game.Black, side)

	side, err = pickSide("White")
	require.NoError(t, err)
	assert.Equal(t, game.White, side)

	for i := 0; i < 10; i++ {
		side, err = pickSide("random")
		require.NoError(t, err)
		assert.Contains(t, []int{game.Black, game.White}, side)
	}

	_, err = pickSide("green")
	assert.Error(t, err)
}
