package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	query string
	args  []interface{}
}

type fakeDB struct {
	calls []execCall
	err   error
}

func (f *fakeDB) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.calls = append(f.calls, execCall{query: query, args: args})
	return nil, f.err
}

// roundTrip encodes and decodes an event the way it crosses Kafka.
func roundTrip(t *testing.T, event GameEvent) GameEvent {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	var out GameEvent
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestProducerSendsKeyedEvent(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event GameEvent
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		if event.Type != EventAIMove || event.Timestamp.IsZero() {
			return errors.New("unexpected event")
		}
		return nil
	})

	p := newProducer(sp, "gomoku-events")
	err := p.SendEvent(CreateAIMoveEvent("g1", AIMove{Row: 7, Col: 7, Stage: "win-now"}))
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestProducerReturnsSendError(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := newProducer(sp, "gomoku-events")
	err := p.SendEvent(CreateMoveEvent("g1", "alice", 1, 2))
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.SendEvent(GameEvent{}))
	assert.NoError(t, p.Close())
}

func TestProcessEvents(t *testing.T) {
	events := []GameEvent{
		CreateGameStartEvent("g1", "alice", "engine", true, "advanced"),
		CreateMoveEvent("g1", "alice", 7, 7),
		CreateAIMoveEvent("g1", AIMove{Row: 7, Col: 8, Stage: "search", Depth: 3, Nodes: 1200, Elapsed: 40 * time.Millisecond}),
		CreateGameEndEvent("g1", "alice", false, 90*time.Second),
		CreatePlayerEvent(EventPlayerLeave, "g1", "alice"),
	}

	db := &fakeDB{}
	h := &ConsumerGroupHandler{db: db}
	for _, e := range events {
		require.NoError(t, h.processEvent(context.Background(), roundTrip(t, e)), e.Type)
	}
	require.Len(t, db.calls, len(events))

	ai := db.calls[2].args
	assert.Equal(t, EventAIMove, ai[1])
	assert.Equal(t, "engine", ai[3])
	assert.InDelta(t, 0.04, ai[4], 1e-9)
	assert.Equal(t, true, ai[5])
	assert.JSONEq(t, `{"stage":"search","row":7,"column":8,"depth":3,"nodes":1200,"difficulty":""}`, ai[6].(string))

	end := db.calls[3].args
	assert.Equal(t, 90.0, end[4])
	assert.Nil(t, db.calls[4].args[6])
}

func TestProcessEventRejectsMalformed(t *testing.T) {
	h := &ConsumerGroupHandler{db: &fakeDB{}}
	bad := GameEvent{Type: EventAIMove, GameID: "g1", Data: map[string]interface{}{"row": 1.0}}
	assert.Error(t, h.processEvent(context.Background(), bad))

	unknown := GameEvent{Type: "chat", GameID: "g1"}
	assert.NoError(t, h.processEvent(context.Background(), unknown))
}

func TestHandleMessageRecordsFailure(t *testing.T) {
	db := &fakeDB{}
	h := &ConsumerGroupHandler{db: db}
	msg := &sarama.ConsumerMessage{Topic: "gomoku-events", Partition: 2, Offset: 41, Value: []byte("{not json")}

	err := h.handleMessage(context.Background(), msg)
	require.Error(t, err)
	h.recordFailure(context.Background(), msg, err)

	require.Len(t, db.calls, 1)
	assert.Equal(t, insertFailedEventSQL, db.calls[0].query)
	assert.Equal(t, []interface{}{"gomoku-events", int32(2), int64(41), "{not json", err.Error()}, db.calls[0].args)
}
