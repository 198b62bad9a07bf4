package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lukechampine.com/frand"

	"github.com/gomoku/backend/internal/analytics"
	"github.com/gomoku/backend/internal/bot"
	"github.com/gomoku/backend/internal/database"
	"github.com/gomoku/backend/internal/game"
	"github.com/gomoku/backend/internal/logger"
)

// WSGame is one human against the engine.
type WSGame struct {
	game      *game.Game
	human     *Client // nil while the player is disconnected
	humanName string
	humanSide int
	color     string // requested colour, kept for rematches

	thinking       bool
	disconnectedAt *time.Time
	abandon        *time.Timer

	// written and read only by the task worker
	dbID     int
	playerID int
}

type joinPayload struct {
	Username   string `json:"username"`
	Difficulty string `json:"difficulty"`
	Color      string `json:"color"`
}

type movePayload struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

type startPayload struct {
	*game.GameState
	YourSide int `json:"yourSide"`
}

type aiMovePayload struct {
	Row       int     `json:"row"`
	Col       int     `json:"col"`
	Stage     string  `json:"stage"`
	Depth     int     `json:"depth,omitempty"`
	Nodes     uint64  `json:"nodes,omitempty"`
	ElapsedMs float64 `json:"elapsedMs"`
}

// pickSide maps a colour request to the human's side.
func pickSide(color string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(color)) {
	case "", "black":
		return game.Black, nil
	case "white":
		return game.White, nil
	case "random":
		return game.Black + frand.Intn(2), nil
	}
	return 0, fmt.Errorf("unknown color %q", color)
}

func engineName(difficulty string) string {
	return "Gomoku AI (" + difficulty + ")"
}

// handleJoin starts a game for the client or reattaches it to the game it
// dropped out of.
func (h *Hub) handleJoin(client *Client, p joinPayload) {
	h.mu.Lock()
	defer h.mu.Unlock()

	username := strings.TrimSpace(p.Username)
	if username == "" {
		h.sendError(client, "", "username is required")
		return
	}
	client.username = username

	if h.reattachLocked(client) {
		return
	}
	if client.gameID != "" {
		h.sendError(client, client.gameID, "already in a game")
		return
	}

	difficulty := p.Difficulty
	if difficulty == "" {
		difficulty = h.cfg.DefaultDifficulty
	}
	prof, err := h.cfg.Registry.Lookup(difficulty)
	if err != nil {
		h.sendError(client, "", err.Error())
		return
	}
	side, err := pickSide(p.Color)
	if err != nil {
		h.sendError(client, "", err.Error())
		return
	}

	h.publish(analytics.CreatePlayerEvent(analytics.EventPlayerJoin, "", username))
	h.startGameLocked(client, prof.ID, side, p.Color)
}

func (h *Hub) startGameLocked(client *Client, difficulty string, humanSide int, color string) {
	human := game.Player{ID: client.username, Username: client.username}
	engine := game.Player{ID: "engine", Username: engineName(difficulty), IsBot: true}
	black, white := human, engine
	if humanSide == game.White {
		black, white = engine, human
	}

	g := &WSGame{
		game:      game.NewGame(black, white, difficulty),
		human:     client,
		humanName: client.username,
		humanSide: humanSide,
		color:     color,
	}
	id := g.game.ID
	h.games[id] = g
	client.gameID = id

	logger.Info("game started", map[string]interface{}{
		"gameId":     id,
		"username":   client.username,
		"difficulty": difficulty,
		"side":       humanSide,
	})

	h.sendTo(client, GameMessage{
		Type:    "gameStart",
		GameID:  id,
		Payload: startPayload{GameState: g.game.GetState(), YourSide: humanSide},
	})
	h.persistGameStart(g)

	if g.game.IsBotTurn() {
		h.scheduleEngineMoveLocked(g)
	}
}

func (h *Hub) handleMove(client *Client, p movePayload) {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.games[client.gameID]
	if !ok {
		h.sendError(client, "", "not in a game")
		return
	}
	id := g.game.ID
	if p.Row == nil || p.Col == nil {
		h.sendError(client, id, "move needs row and col")
		return
	}
	if !g.game.IsActive {
		h.sendError(client, id, game.ErrGameOver.Error())
		return
	}
	if g.game.CurrentTurn != g.humanSide || g.thinking {
		h.sendError(client, id, "not your turn")
		return
	}
	if err := g.game.MakeMove(*p.Row, *p.Col); err != nil {
		h.sendError(client, id, err.Error())
		return
	}

	h.publish(analytics.CreateMoveEvent(id, g.humanName, *p.Row, *p.Col))
	h.afterMoveLocked(g)
	if g.game.IsBotTurn() {
		h.scheduleEngineMoveLocked(g)
	}
}

// afterMoveLocked pushes the new state and closes the game when it is over.
func (h *Hub) afterMoveLocked(g *WSGame) {
	h.sendTo(g.human, GameMessage{Type: "gameState", GameID: g.game.ID, Payload: g.game.GetState()})
	if !g.game.IsActive {
		h.finishLocked(g)
	}
}

func (h *Hub) scheduleEngineMoveLocked(g *WSGame) {
	g.thinking = true
	grid := g.game.GetBoardForBot()
	side := bot.Side(g.game.CurrentTurn)
	moveNo := len(g.game.Moves)
	go h.makeEngineMove(g, grid, side, moveNo)
}

// makeEngineMove runs the engine off the hub lock and applies its move if
// the game has not moved on in the meantime.
func (h *Hub) makeEngineMove(g *WSGame, grid [][]int, side bot.Side, moveNo int) {
	if h.cfg.MoveDelay > 0 {
		time.Sleep(h.cfg.MoveDelay)
	}

	id, difficulty := g.game.ID, g.game.Difficulty
	dec, err := h.decide(id, difficulty, grid, side)

	h.mu.Lock()
	defer h.mu.Unlock()

	g.thinking = false
	if h.games[id] != g || !g.game.IsActive || len(g.game.Moves) != moveNo {
		return
	}
	if err != nil {
		logger.Error("engine move failed", err)
		h.sendError(g.human, id, "engine failed to move")
		return
	}
	if err := g.game.MakeMove(dec.Move.Row, dec.Move.Col); err != nil {
		logger.Error("engine move rejected", err)
		h.sendError(g.human, id, "engine failed to move")
		return
	}

	h.sendTo(g.human, GameMessage{
		Type:   "aiMove",
		GameID: id,
		Payload: aiMovePayload{
			Row:       dec.Move.Row,
			Col:       dec.Move.Col,
			Stage:     dec.Stage.String(),
			Depth:     dec.Depth,
			Nodes:     dec.Nodes,
			ElapsedMs: float64(dec.Elapsed) / float64(time.Millisecond),
		},
	})
	h.persistAIMove(g, dec, moveNo+1)
	h.afterMoveLocked(g)
}

func (h *Hub) decide(gameID, difficulty string, grid [][]int, side bot.Side) (bot.Decision, error) {
	eng, err := h.engineFor(gameID, difficulty)
	if err != nil {
		return bot.Decision{}, err
	}
	board, err := bot.BoardFromGrid(grid)
	if err != nil {
		return bot.Decision{}, err
	}
	return eng.Decide(board, side)
}

// handleHint asks the game's engine what it would play for the human.
func (h *Hub) handleHint(client *Client) {
	h.mu.Lock()
	g, ok := h.games[client.gameID]
	if !ok || !g.game.IsActive || g.game.CurrentTurn != g.humanSide || g.thinking {
		h.sendError(client, client.gameID, "no hint available")
		h.mu.Unlock()
		return
	}
	id, difficulty := g.game.ID, g.game.Difficulty
	grid := g.game.GetBoardForBot()
	side := bot.Side(g.humanSide)
	h.mu.Unlock()

	dec, err := h.decide(id, difficulty, grid, side)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		logger.Error("hint failed", err)
		h.sendError(client, id, "no hint available")
		return
	}
	h.sendTo(client, GameMessage{
		Type:    "hint",
		GameID:  id,
		Payload: map[string]interface{}{"row": dec.Move.Row, "col": dec.Move.Col, "stage": dec.Stage.String()},
	})
}

// finishLocked announces the result and drops the game's engine. The game
// itself stays until the player exits or asks for a rematch.
func (h *Hub) finishLocked(g *WSGame) {
	id := g.game.ID
	isDraw := g.game.Winner == game.Empty
	botWon := !isDraw && g.game.Winner != g.humanSide
	var winner interface{}
	if !isDraw && !botWon {
		winner = g.humanName
	}

	h.sendTo(g.human, GameMessage{
		Type:   "gameFinished",
		GameID: id,
		Payload: map[string]interface{}{
			"gameId": id,
			"isDraw": isDraw,
			"winner": winner,
			"botWon": botWon,
		},
	})
	h.engines.Delete(id)

	logger.Info("game finished", map[string]interface{}{
		"gameId": id,
		"isDraw": isDraw,
		"botWon": botWon,
		"moves":  len(g.game.Moves),
	})
	h.persistResult(g, isDraw, botWon)
}

// handlePlayAgain starts a rematch with the same difficulty and colour.
func (h *Hub) handlePlayAgain(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.games[client.gameID]
	if !ok || g.game.IsActive {
		h.sendError(client, client.gameID, "no finished game to replay")
		return
	}
	delete(h.games, g.game.ID)
	client.gameID = ""

	side, err := pickSide(g.color)
	if err != nil {
		side = g.humanSide
	}
	h.startGameLocked(client, g.game.Difficulty, side, g.color)
}

// handleExit abandons the current game.
func (h *Hub) handleExit(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.games[client.gameID]
	if !ok {
		return
	}
	id := g.game.ID
	g.game.IsActive = false
	h.dropGameLocked(g)
	h.sendTo(client, GameMessage{Type: "gameExited", GameID: id, Payload: map[string]interface{}{"gameId": id}})
}

func (h *Hub) dropGameLocked(g *WSGame) {
	id := g.game.ID
	g.stopAbandon()
	delete(h.games, id)
	h.engines.Delete(id)
	if g.human != nil {
		g.human.gameID = ""
	}
}

// handleDisconnectLocked keeps an unfinished game for the reconnect window.
func (h *Hub) handleDisconnectLocked(client *Client) {
	if client.username != "" {
		h.publish(analytics.CreatePlayerEvent(analytics.EventPlayerLeave, client.gameID, client.username))
	}
	g, ok := h.games[client.gameID]
	if !ok || g.human != client {
		return
	}
	g.human = nil
	if !g.game.IsActive {
		h.dropGameLocked(g)
		return
	}

	now := time.Now()
	g.disconnectedAt = &now
	g.stopAbandon()
	var timer *time.Timer
	timer = time.AfterFunc(h.cfg.ReconnectWindow, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		// a timer that fired while the player came back is stale
		if h.games[g.game.ID] == g && g.human == nil && g.abandon == timer {
			g.game.IsActive = false
			h.dropGameLocked(g)
			logger.Info("game abandoned", map[string]interface{}{"gameId": g.game.ID, "username": g.humanName})
		}
	})
	g.abandon = timer
}

func (g *WSGame) stopAbandon() {
	if g.abandon != nil {
		g.abandon.Stop()
		g.abandon = nil
	}
}

// reattachLocked gives a returning player back the game they dropped.
func (h *Hub) reattachLocked(client *Client) bool {
	for id, g := range h.games {
		if g.human != nil || g.humanName != client.username || g.disconnectedAt == nil {
			continue
		}
		if time.Since(*g.disconnectedAt) > h.cfg.ReconnectWindow {
			continue
		}
		g.human = client
		g.disconnectedAt = nil
		g.stopAbandon()
		client.gameID = id

		h.sendTo(client, GameMessage{
			Type:    "gameState",
			GameID:  id,
			Payload: startPayload{GameState: g.game.GetState(), YourSide: g.humanSide},
		})
		if g.game.IsBotTurn() && !g.thinking {
			h.scheduleEngineMoveLocked(g)
		}
		logger.Info("player reconnected", map[string]interface{}{"gameId": id, "username": client.username})
		return true
	}
	return false
}

func (h *Hub) publish(event analytics.GameEvent) {
	publisher := h.publisher
	h.enqueue(event.Type, func(context.Context) error {
		return publisher.SendEvent(event)
	})
}

func (h *Hub) persistGameStart(g *WSGame) {
	black, white := g.game.Black, g.game.White
	h.publish(analytics.CreateGameStartEvent(g.game.ID, black.Username, white.Username, true, g.game.Difficulty))

	store := h.store
	if store == nil {
		return
	}
	h.enqueue("create-game", func(ctx context.Context) error {
		p, err := store.EnsurePlayer(ctx, g.humanName)
		if err != nil {
			return err
		}
		blackID, whiteID := &p.ID, (*int)(nil)
		if g.humanSide == game.White {
			blackID, whiteID = nil, &p.ID
		}
		rec, err := store.CreateGame(ctx, blackID, whiteID, true, g.game.Difficulty)
		if err != nil {
			return err
		}
		g.dbID, g.playerID = rec.ID, p.ID
		return nil
	})
}

func (h *Hub) persistAIMove(g *WSGame, dec bot.Decision, moveNumber int) {
	h.publish(analytics.CreateAIMoveEvent(g.game.ID, analytics.AIMove{
		Row:        dec.Move.Row,
		Col:        dec.Move.Col,
		Stage:      dec.Stage.String(),
		Depth:      dec.Depth,
		Nodes:      dec.Nodes,
		Elapsed:    dec.Elapsed,
		Difficulty: g.game.Difficulty,
	}))

	store := h.store
	if store == nil {
		return
	}
	difficulty := g.game.Difficulty
	h.enqueue("record-ai-move", func(ctx context.Context) error {
		if g.dbID == 0 {
			return nil
		}
		return store.RecordAIMove(ctx, database.AIMove{
			GameID:     g.dbID,
			MoveNumber: moveNumber,
			Row:        dec.Move.Row,
			Col:        dec.Move.Col,
			Stage:      dec.Stage.String(),
			Depth:      dec.Depth,
			Nodes:      dec.Nodes,
			Elapsed:    dec.Elapsed,
			Difficulty: difficulty,
		})
	})
}

func (h *Hub) persistResult(g *WSGame, isDraw, botWon bool) {
	winner := ""
	if !isDraw {
		winner = g.game.Player(g.game.Winner).Username
	}
	duration := time.Duration(g.game.LastMoveTime-g.game.StartTime) * time.Second
	h.publish(analytics.CreateGameEndEvent(g.game.ID, winner, isDraw, duration))

	var state map[string]interface{}
	if data, err := g.game.ToJSON(); err == nil {
		_ = json.Unmarshal(data, &state)
	}
	leaderboard := GameMessage{
		Type: "leaderboardUpdate",
		Payload: map[string]interface{}{
			"gameId": g.game.ID,
			"isDraw": isDraw,
			"botWon": botWon,
		},
	}

	store := h.store
	h.enqueue("store-result", func(ctx context.Context) error {
		if store != nil && g.dbID != 0 {
			winnerID := 0
			if !isDraw && !botWon {
				winnerID = g.playerID
			}
			if err := store.UpdateGameResult(ctx, g.dbID, winnerID, state); err != nil {
				return err
			}
		}
		h.mu.Lock()
		h.broadcast(leaderboard)
		h.mu.Unlock()
		return nil
	})
}
