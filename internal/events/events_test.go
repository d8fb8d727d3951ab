package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	topics []string
	err    error
}

func (r *recorder) Publish(_ context.Context, topic, _ string, _ any) error {
	r.topics = append(r.topics, topic)
	return r.err
}

func TestFanout_DeliversToAllAndJoinsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	a := &recorder{}
	b := &recorder{err: boom}
	c := &recorder{}

	err := Fanout{a, b, c}.Publish(context.Background(), "order_events", "1", map[string]any{"type": OrderCreated})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"order_events"}, a.topics)
	assert.Equal(t, []string{"order_events"}, c.topics)
}

func TestNop(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Nop{}.Publish(context.Background(), "t", "k", nil))
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	t.Parallel()

	_, err := NewKafkaPublisher(nil)
	assert.Error(t, err)
}

func TestHub_BroadcastsSelectedTopics(t *testing.T) {
	t.Parallel()

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), "order_events")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r)
	}))
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), "product_events", "9", map[string]any{"type": ProductCreated}))
	require.NoError(t, hub.Publish(context.Background(), "order_events", "7", map[string]any{"type": OrderPaid}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Topic string         `json:"topic"`
		Key   string         `json:"key"`
		Event map[string]any `json:"event"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "order_events", got.Topic)
	assert.Equal(t, "7", got.Key)
	assert.Equal(t, OrderPaid, got.Event["type"])
}

func TestHub_DisconnectRemovesClient(t *testing.T) {
	t.Parallel()

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

// Runs only against a real broker, e.g. KAFKA_BROKERS=localhost:9092.
func TestKafkaPublisher_Integration(t *testing.T) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("KAFKA_BROKERS not set")
	}

	topic := "sale_test_events"
	pub, err := NewKafkaPublisher(strings.Split(brokers, ","))
	require.NoError(t, err)
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, pub.Publish(ctx, topic, "42", map[string]any{"type": OrderCreated, "orderID": 42}))

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   strings.Split(brokers, ","),
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer r.Close()
	require.NoError(t, r.SetOffset(kafka.FirstOffset))

	msg, err := r.ReadMessage(ctx)
	require.NoError(t, err)

	var event map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, OrderCreated, event["type"])
}
