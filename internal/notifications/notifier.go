// Package notifications publishes moderation lifecycle events and fans them
// out to connected admin consoles.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"warden/internal/models"

	"github.com/redis/go-redis/v9"
)

// ModerationChannel is the Redis channel carrying ban lifecycle events.
const ModerationChannel = "moderation:events"

// Event types published on ModerationChannel.
const (
	EventBanCreated     = "ban.created"
	EventBanExpired     = "ban.expired"
	EventBanRemoved     = "ban.removed"
	EventAppealOpened   = "appeal.opened"
	EventAppealReviewed = "appeal.reviewed"
	EventTopupCreated   = "topup.created"
)

// Event is one moderation lifecycle change, broadcast to every connected
// console so operator views converge without polling.
type Event struct {
	Type     string           `json:"type"`
	BanID    string           `json:"ban_id,omitempty"`
	UserID   uint             `json:"user_id"`
	Username string           `json:"username,omitempty"`
	Status   models.BanStatus `json:"status,omitempty"`
	Actor    string           `json:"actor,omitempty"`
	At       time.Time        `json:"at"`
}

// Notifier publishes moderation events into Redis channels. A nil Redis
// client makes every method a no-op so the engine keeps working without
// the event stream.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends a moderation event to the shared channel.
func (n *Notifier) Publish(ctx context.Context, event Event) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, ModerationChannel, string(payload)).Err()
}

// StartSubscriber subscribes to the moderation channel and calls onEvent for
// each incoming event until ctx is cancelled. Malformed payloads are dropped.
func (n *Notifier) StartSubscriber(ctx context.Context, onEvent func(Event)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, ModerationChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in moderation subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onEvent(event)
				}()
			}
		}
	}()

	return nil
}
