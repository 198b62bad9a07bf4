package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/gomoku/backend/internal/logger"
)

// execer is the part of *sql.DB the consumer writes through.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Consumer handles consuming and processing game events
type Consumer struct {
	consumer sarama.ConsumerGroup
	handler  *ConsumerGroupHandler
}

// ConsumerGroupHandler implements the sarama.ConsumerGroupHandler interface
type ConsumerGroupHandler struct {
	db execer
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(brokers []string, groupID string, db *sql.DB) (*Consumer, error) {
	if db == nil {
		return nil, fmt.Errorf("analytics consumer needs a database")
	}
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("error creating consumer group: %w", err)
	}

	return &Consumer{
		consumer: group,
		handler:  &ConsumerGroupHandler{db: db},
	}, nil
}

// Start consumes until ctx is cancelled. Consume returns on every
// rebalance, so it is called in a loop.
func (c *Consumer) Start(ctx context.Context, topics []string) error {
	for {
		if err := c.consumer.Consume(ctx, topics, c.handler); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close closes the consumer group
func (c *Consumer) Close() error {
	return c.consumer.Close()
}

// Setup is run before consuming begins
func (h *ConsumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run when consuming ends
func (h *ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes messages from a partition. A message that cannot
// be processed goes to failed_events and is still marked, so one bad event
// does not stall the partition.
func (h *ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.handleMessage(ctx, msg); err != nil {
				logger.Error("error processing message", err)
				h.recordFailure(ctx, msg, err)
			}
			session.MarkMessage(msg, "")

		case <-ctx.Done():
			return nil
		}
	}
}

func (h *ConsumerGroupHandler) handleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event GameEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("error unmarshaling event: %w", err)
	}
	if err := h.processEvent(ctx, event); err != nil {
		return fmt.Errorf("error processing %s event: %w", event.Type, err)
	}
	return nil
}

func (h *ConsumerGroupHandler) recordFailure(ctx context.Context, msg *sarama.ConsumerMessage, cause error) {
	if h.db == nil {
		return
	}
	_, err := h.db.ExecContext(ctx, insertFailedEventSQL,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		string(msg.Value),
		cause.Error(),
	)
	if err != nil {
		logger.Error("error storing failed message", err)
	}
}

// processEvent handles different types of game events
func (h *ConsumerGroupHandler) processEvent(ctx context.Context, event GameEvent) error {
	switch event.Type {
	case EventGameStart:
		return h.processGameStartEvent(ctx, event)
	case EventGameEnd:
		return h.processGameEndEvent(ctx, event)
	case EventMove:
		return h.processMoveEvent(ctx, event)
	case EventAIMove:
		return h.processAIMoveEvent(ctx, event)
	case EventPlayerJoin, EventPlayerLeave:
		return h.processPlayerEvent(ctx, event)
	}
	return nil
}

const (
	insertAnalyticsSQL = `
		INSERT INTO game_analytics (
			game_id, event_type, event_time, player, duration, is_bot_game, additional_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	insertFailedEventSQL = `
		INSERT INTO failed_events (
			topic, partition, "offset", message, error, timestamp
		) VALUES ($1, $2, $3, $4, $5, NOW())`
)

func (h *ConsumerGroupHandler) insert(ctx context.Context, event GameEvent, player string, duration float64, isBotGame bool, extra map[string]interface{}) error {
	var jsonData interface{}
	if extra != nil {
		data, err := json.Marshal(extra)
		if err != nil {
			return err
		}
		jsonData = string(data)
	}
	_, err := h.db.ExecContext(ctx, insertAnalyticsSQL,
		event.GameID,
		event.Type,
		event.Timestamp,
		player,
		duration,
		isBotGame,
		jsonData,
	)
	return err
}

func (h *ConsumerGroupHandler) processGameStartEvent(ctx context.Context, event GameEvent) error {
	black, ok := event.Data["black"].(string)
	if !ok {
		return fmt.Errorf("invalid black data")
	}
	white, _ := event.Data["white"].(string)
	isBotGame, _ := event.Data["isBotGame"].(bool)
	difficulty, _ := event.Data["difficulty"].(string)

	return h.insert(ctx, event, black, 0, isBotGame, map[string]interface{}{
		"white":      white,
		"difficulty": difficulty,
	})
}

func (h *ConsumerGroupHandler) processGameEndEvent(ctx context.Context, event GameEvent) error {
	winner, ok := event.Data["winner"].(string)
	if !ok {
		return fmt.Errorf("invalid winner data")
	}
	isDraw, ok := event.Data["isDraw"].(bool)
	if !ok {
		return fmt.Errorf("invalid isDraw data")
	}
	duration, ok := event.Data["duration"].(float64)
	if !ok {
		return fmt.Errorf("invalid duration data")
	}

	return h.insert(ctx, event, winner, duration, false, map[string]interface{}{
		"isDraw": isDraw,
	})
}

func (h *ConsumerGroupHandler) processMoveEvent(ctx context.Context, event GameEvent) error {
	player, ok := event.Data["player"].(string)
	if !ok {
		return fmt.Errorf("invalid player data")
	}
	row, ok := event.Data["row"].(float64)
	if !ok {
		return fmt.Errorf("invalid row data")
	}
	col, ok := event.Data["column"].(float64)
	if !ok {
		return fmt.Errorf("invalid column data")
	}

	return h.insert(ctx, event, player, 0, false, map[string]interface{}{
		"row":    row,
		"column": col,
	})
}

func (h *ConsumerGroupHandler) processAIMoveEvent(ctx context.Context, event GameEvent) error {
	stage, ok := event.Data["stage"].(string)
	if !ok || stage == "" {
		return fmt.Errorf("invalid stage data")
	}
	elapsed, ok := event.Data["elapsedMs"].(float64)
	if !ok {
		return fmt.Errorf("invalid elapsedMs data")
	}

	extra := map[string]interface{}{"stage": stage}
	for _, key := range []string{"row", "column", "depth", "nodes", "difficulty"} {
		if v, ok := event.Data[key]; ok {
			extra[key] = v
		}
	}
	return h.insert(ctx, event, "engine", elapsed/1000, true, extra)
}

func (h *ConsumerGroupHandler) processPlayerEvent(ctx context.Context, event GameEvent) error {
	player, ok := event.Data["player"].(string)
	if !ok {
		return fmt.Errorf("invalid player data")
	}
	return h.insert(ctx, event, player, 0, false, nil)
}
