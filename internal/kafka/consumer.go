package kafka

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// OrderEventHandler processes one decoded order event.
type OrderEventHandler func(ctx context.Context, event OrderEvent) error

// Consumer reads order events from the topic, drops redelivered
// messages by their message_id header, and hands decoded events to the
// handler. Undecodable messages are logged and skipped; only handler
// errors stop the loop.
type Consumer struct {
	reader *kafka.Reader
	seen   *seenIDs
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		seen: newSeenIDs(1024),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

func (c *Consumer) Consume(ctx context.Context, handler OrderEventHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		if err := c.handle(ctx, msg, handler); err != nil {
			return err
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler OrderEventHandler) error {
	if id := messageID(msg); id != "" && !c.seen.remember(id) {
		return nil
	}

	var event OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("drop undecodable message at offset %d: %v", msg.Offset, err)
		return nil
	}
	return handler(ctx, event)
}

func messageID(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "message_id" {
			return string(h.Value)
		}
	}
	return ""
}

// seenIDs remembers the last N message ids. Bounded: once full, the
// oldest id is evicted, so a duplicate is only caught within the
// window, which is enough for consumer-group redeliveries.
type seenIDs struct {
	mu   sync.Mutex
	ids  map[string]struct{}
	ring []string
	next int
}

func newSeenIDs(size int) *seenIDs {
	return &seenIDs{
		ids:  make(map[string]struct{}, size),
		ring: make([]string, size),
	}
}

// remember reports whether the id is new, recording it if so.
func (s *seenIDs) remember(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.ids[id]; dup {
		return false
	}
	if old := s.ring[s.next]; old != "" {
		delete(s.ids, old)
	}
	s.ring[s.next] = id
	s.next = (s.next + 1) % len(s.ring)
	s.ids[id] = struct{}{}
	return true
}
