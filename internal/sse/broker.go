package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/telewarm/warmup-engine-go/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
)

// Event types published on the warmup stream.
const (
	EventCycleStarted   = "cycle_started"
	EventCycleCompleted = "cycle_completed"
	EventCycleFailed    = "cycle_failed"
	EventReconciled     = "reconciled"
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	Events chan Event
	Done   chan struct{}
}

// Broker fans warmup lifecycle events out to connected SSE clients. Events
// travel through redis pub/sub so every replica sees the full stream.
type Broker struct {
	redis   *redisclient.Client
	clients map[*Client]bool
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[*Client]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe() *Client {
	client := &Client{
		Events: make(chan Event, 100),
		Done:   make(chan struct{}),
	}

	b.mu.Lock()
	b.clients[client] = true
	clientCount := len(b.clients)
	b.mu.Unlock()

	b.once.Do(func() {
		go b.subscribeToRedis()
	})

	log.Info().Int("clientCount", clientCount).Msg("sse client subscribed")
	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.clients[client] {
		delete(b.clients, client)
		close(client.Done)
		log.Info().Int("clientCount", len(b.clients)).Msg("sse client unsubscribed")
	}
}

// Publish marshals data into an event and pushes it through redis.
func (b *Broker) Publish(ctx context.Context, eventType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(Event{Type: eventType, Data: raw})
	if err != nil {
		return err
	}

	return b.redis.Publish(ctx, redisclient.EventsChannel, payload).Err()
}

func (b *Broker) subscribeToRedis() {
	pubsub := b.redis.Subscribe(b.ctx, redisclient.EventsChannel)
	defer pubsub.Close()

	log.Debug().Str("channel", redisclient.EventsChannel).Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(event)
		}
	}
}

func (b *Broker) broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for client := range b.clients {
		close(client.Done)
	}
	b.clients = make(map[*Client]bool)
}

func (b *Broker) TotalClients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
