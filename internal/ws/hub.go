package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gomoku/backend/internal/analytics"
	"github.com/gomoku/backend/internal/bot"
	"github.com/gomoku/backend/internal/cache"
	"github.com/gomoku/backend/internal/database"
	"github.com/gomoku/backend/internal/logger"
)

// Store is the persistence the hub needs. *database.DB implements it.
type Store interface {
	EnsurePlayer(ctx context.Context, username string) (*database.Player, error)
	CreateGame(ctx context.Context, blackID, whiteID *int, isBotGame bool, difficulty string) (*database.Game, error)
	UpdateGameResult(ctx context.Context, gameID, winnerID int, gameState map[string]interface{}) error
	RecordAIMove(ctx context.Context, m database.AIMove) error
}

// Config tunes the hub.
type Config struct {
	Registry          *bot.Registry
	DefaultDifficulty string
	TTLimit           int
	Workers           int
	// SessionTTL drops the engine of a game nobody has touched for that long.
	SessionTTL time.Duration
	// MoveDelay is waited before each engine move so replies are not instant.
	MoveDelay time.Duration
	// ReconnectWindow is how long a disconnected player's game is kept.
	ReconnectWindow time.Duration
	AllowedOrigins  []string
}

const (
	taskQueueSize = 256
	taskTimeout   = 5 * time.Second
)

type task struct {
	name string
	fn   func(ctx context.Context) error
}

// Hub maintains the set of active clients and their games against the engine
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	games map[string]*WSGame
	mu    sync.Mutex

	cfg     Config
	engines *cache.Cache[*bot.Engine]

	// Optional database and analytics
	store     Store
	publisher analytics.Publisher

	// tasks runs persistence and analytics in order, off the hub lock
	tasks chan task
}

// Message is an inbound WebSocket message.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// GameMessage represents an outbound game-related message
type GameMessage struct {
	Type    string      `json:"type"`
	GameID  string      `json:"gameId,omitempty"`
	Payload interface{} `json:"payload"`
}

// NewHub creates a new Hub instance
func NewHub(cfg Config) *Hub {
	if cfg.Registry == nil {
		cfg.Registry = bot.NewRegistry()
	}
	if cfg.DefaultDifficulty == "" {
		cfg.DefaultDifficulty = bot.Advanced
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.ReconnectWindow <= 0 {
		cfg.ReconnectWindow = 30 * time.Second
	}

	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		games:      make(map[string]*WSGame),
		cfg:        cfg,
		engines:    cache.NewCache[*bot.Engine](cfg.SessionTTL, cfg.SessionTTL/2),
		publisher:  analytics.NopPublisher{},
		tasks:      make(chan task, taskQueueSize),
	}
	h.engines.OnEvict(func(gameID string, _ *bot.Engine) {
		logger.Debug("engine session expired", map[string]interface{}{"gameId": gameID})
	})
	return h
}

// SetDB sets the game store (optional)
func (h *Hub) SetDB(store Store) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.store = store
}

// SetProducer sets the analytics publisher (optional)
func (h *Hub) SetProducer(publisher analytics.Publisher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publisher = publisher
}

// Run starts the hub and its task worker. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	go h.runTasks(ctx)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeClientLocked(client)
			h.mu.Unlock()

		case <-ctx.Done():
			return
		}
	}
}

// Close releases the engine cache.
func (h *Hub) Close() error {
	h.engines.Close()
	return nil
}

func (h *Hub) removeClientLocked(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.handleDisconnectLocked(client)
}

// sendTo delivers msg to a connected client without blocking.
func (h *Hub) sendTo(client *Client, msg GameMessage) {
	if client == nil || !h.clients[client] {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("error marshaling message", err)
		return
	}
	select {
	case client.send <- data:
	default:
		logger.Warn("client send buffer full, dropping message", map[string]interface{}{
			"username": client.username,
			"type":     msg.Type,
		})
	}
}

func (h *Hub) sendError(client *Client, gameID, text string) {
	h.sendTo(client, GameMessage{Type: "error", GameID: gameID, Payload: text})
}

func (h *Hub) broadcast(msg GameMessage) {
	for client := range h.clients {
		h.sendTo(client, msg)
	}
}

func (h *Hub) enqueue(name string, fn func(ctx context.Context) error) {
	select {
	case h.tasks <- task{name: name, fn: fn}:
	default:
		logger.Warn("task queue full, dropping task", map[string]interface{}{"task": name})
	}
}

func (h *Hub) runTasks(ctx context.Context) {
	for {
		select {
		case t := <-h.tasks:
			tctx, cancel := context.WithTimeout(ctx, taskTimeout)
			if err := t.fn(tctx); err != nil {
				logger.Error("task "+t.name+" failed", err)
			}
			cancel()
		case <-ctx.Done():
			return
		}
	}
}

// engineFor returns the engine of a game, creating it on first use.
func (h *Hub) engineFor(gameID, difficulty string) (*bot.Engine, error) {
	return h.engines.GetOrCreate(gameID, func() (*bot.Engine, error) {
		prof, err := h.cfg.Registry.Lookup(difficulty)
		if err != nil {
			return nil, err
		}
		return bot.NewEngine(prof, bot.WithTTLimit(h.cfg.TTLimit), bot.WithWorkers(h.cfg.Workers))
	})
}
