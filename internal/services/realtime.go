package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/AnshRaj112/kavyalok-backend/internal/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ModerationChannel is the Redis Pub/Sub channel shared by all instances.
const ModerationChannel = "moderation:events"

const (
	EventPoemCreated = "poem.created"
	EventPoemStatus  = "poem.status"
)

// FeedEvent is the payload broadcast over Redis and WebSocket to admins.
type FeedEvent struct {
	Type       string    `json:"type"`
	PoemID     string    `json:"poem_id"`
	Title      string    `json:"title,omitempty"`
	Status     string    `json:"status,omitempty"`
	FromStatus string    `json:"from_status,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// FeedConn is the minimal interface our WebSocket implementation must satisfy.
type FeedConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type feedClient struct {
	conn FeedConn
	mu   sync.Mutex
}

func (c *feedClient) send(ev FeedEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(ev)
}

// ModerationFeed fans moderation events out to connected admin dashboards.
// With Redis configured, events travel through Pub/Sub so every instance
// sees them; without it, delivery stays local.
type ModerationFeed struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*feedClient
	redis   *redis.Client
	started sync.Once
}

func NewModerationFeed(client *redis.Client) *ModerationFeed {
	return &ModerationFeed{
		clients: make(map[uuid.UUID]*feedClient),
		redis:   client,
	}
}

// Register adds a connection and returns its handle for Unregister.
func (f *ModerationFeed) Register(conn FeedConn) uuid.UUID {
	id := uuid.New()
	f.mu.Lock()
	f.clients[id] = &feedClient{conn: conn}
	f.mu.Unlock()
	return id
}

func (f *ModerationFeed) Unregister(id uuid.UUID) {
	f.mu.Lock()
	delete(f.clients, id)
	f.mu.Unlock()
}

func (f *ModerationFeed) Connections() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// FanOut sends an event to every local connection. Connections that fail
// to accept the write are dropped.
func (f *ModerationFeed) FanOut(ev FeedEvent) {
	f.mu.RLock()
	targets := make(map[uuid.UUID]*feedClient, len(f.clients))
	for id, c := range f.clients {
		targets[id] = c
	}
	f.mu.RUnlock()

	for id, c := range targets {
		if err := c.send(ev); err != nil {
			logger.Log.WithError(err).Warn("dropping moderation feed connection")
			c.conn.Close()
			f.Unregister(id)
		}
	}
}

// Publish broadcasts the event, through Redis when available.
func (f *ModerationFeed) Publish(ctx context.Context, ev FeedEvent) error {
	if f == nil {
		return nil
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if f.redis == nil {
		f.FanOut(ev)
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return f.redis.Publish(ctx, ModerationChannel, data).Err()
}

// Start ensures a single shared Redis listener per instance.
func (f *ModerationFeed) Start(ctx context.Context) {
	if f.redis == nil {
		return
	}
	f.started.Do(func() {
		go f.run(ctx)
	})
}

func (f *ModerationFeed) run(ctx context.Context) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := f.redis.Subscribe(ctx, ModerationChannel)
			defer pubsub.Close()

			logger.Log.WithField("channel", ModerationChannel).Info("✅ Moderation feed subscriber started")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					logger.Log.WithError(err).Warn("moderation feed subscriber error")
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var ev FeedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logger.Log.WithError(err).Warn("failed to unmarshal moderation event")
					continue
				}
				f.FanOut(ev)
			}
		}()
	}
}
