package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/avast/retry-go/v4"

	"github.com/gomoku/backend/internal/logger"
)

// GameEvent represents an event in the game
type GameEvent struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	GameID    string                 `json:"gameId"`
	Data      map[string]interface{} `json:"data"`
}

// EventType constants
const (
	EventGameStart   = "game_start"
	EventMove        = "move"
	EventAIMove      = "ai_move"
	EventGameEnd     = "game_end"
	EventPlayerJoin  = "player_join"
	EventPlayerLeave = "player_leave"
)

// Publisher sends game events somewhere. The server runs with NopPublisher
// when Kafka is disabled.
type Publisher interface {
	SendEvent(event GameEvent) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) SendEvent(GameEvent) error { return nil }
func (NopPublisher) Close() error              { return nil }

// Producer handles sending events to Kafka
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer creates a new Kafka producer, retrying while the brokers come up.
func NewProducer(ctx context.Context, brokers []string, topic string, attempts uint) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	var producer sarama.SyncProducer
	err := retry.Do(
		func() error {
			var err error
			producer, err = sarama.NewSyncProducer(brokers, config)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("kafka not ready, retrying", map[string]interface{}{"attempt": n + 1, "error": err.Error()})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating kafka producer: %w", err)
	}

	return newProducer(producer, topic), nil
}

func newProducer(producer sarama.SyncProducer, topic string) *Producer {
	return &Producer{
		producer: producer,
		topic:    topic,
	}
}

// SendEvent sends a game event to Kafka. Events of one game share a key and
// so a partition.
func (p *Producer) SendEvent(event GameEvent) error {
	event.Timestamp = time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.GameID),
		Value: sarama.ByteEncoder(payload),
	}

	_, _, err = p.producer.SendMessage(msg)
	return err
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.producer.Close()
}

// CreateGameStartEvent creates a game start event
func CreateGameStartEvent(gameID, black, white string, isBotGame bool, difficulty string) GameEvent {
	return GameEvent{
		Type:   EventGameStart,
		GameID: gameID,
		Data: map[string]interface{}{
			"black":      black,
			"white":      white,
			"isBotGame":  isBotGame,
			"difficulty": difficulty,
		},
	}
}

// CreateMoveEvent creates a move event
func CreateMoveEvent(gameID string, player string, row, col int) GameEvent {
	return GameEvent{
		Type:   EventMove,
		GameID: gameID,
		Data: map[string]interface{}{
			"player": player,
			"row":    row,
			"column": col,
		},
	}
}

// AIMove describes one engine decision for analytics.
type AIMove struct {
	Row        int
	Col        int
	Stage      string
	Depth      int
	Nodes      uint64
	Elapsed    time.Duration
	Difficulty string
}

// CreateAIMoveEvent records which pipeline stage produced an engine move.
func CreateAIMoveEvent(gameID string, m AIMove) GameEvent {
	return GameEvent{
		Type:   EventAIMove,
		GameID: gameID,
		Data: map[string]interface{}{
			"row":        m.Row,
			"column":     m.Col,
			"stage":      m.Stage,
			"depth":      m.Depth,
			"nodes":      m.Nodes,
			"elapsedMs":  float64(m.Elapsed) / float64(time.Millisecond),
			"difficulty": m.Difficulty,
		},
	}
}

// CreateGameEndEvent creates a game end event
func CreateGameEndEvent(gameID string, winner string, isDraw bool, duration time.Duration) GameEvent {
	return GameEvent{
		Type:   EventGameEnd,
		GameID: gameID,
		Data: map[string]interface{}{
			"winner":   winner,
			"isDraw":   isDraw,
			"duration": duration.Seconds(),
		},
	}
}

// CreatePlayerEvent creates a player join/leave event
func CreatePlayerEvent(eventType string, gameID, player string) GameEvent {
	return GameEvent{
		Type:   eventType,
		GameID: gameID,
		Data: map[string]interface{}{
			"player": player,
		},
	}
}
