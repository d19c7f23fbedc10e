package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Account event actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// UserEvent is one entry of the account event stream.
type UserEvent struct {
	ActionType string          `json:"action_type"`
	Sub        string          `json:"sub"`
	Payload    json.RawMessage `json:"payload"`
}

// Handler applies account events to the local projection.
type Handler interface {
	HandleCreate(ctx context.Context, sub string, payload json.RawMessage) error
	HandleUpdate(ctx context.Context, sub string, payload json.RawMessage) error
	HandleDelete(ctx context.Context, sub string) error
}

// Consumer reads account events from a Redis stream through a consumer
// group. Events are processed one at a time; a failing event is logged and
// acknowledged so the stream keeps moving.
type Consumer struct {
	rdb      *redis.Client
	stream   string
	group    string
	consumer string
	handler  Handler
	log      zerolog.Logger
}

func NewConsumer(rdb *redis.Client, stream, group, consumer string, handler Handler, log zerolog.Logger) *Consumer {
	return &Consumer{
		rdb:      rdb,
		stream:   stream,
		group:    group,
		consumer: consumer,
		handler:  handler,
		log:      log.With().Str("component", "events").Str("stream", stream).Logger(),
	}
}

// Run blocks consuming the stream until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	err := c.rdb.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}

	c.log.Info().Str("group", c.group).Msg("event consumer started")
	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("event consumer stopped")
			return ctx.Err()
		default:
		}

		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.consumer,
			Streams:  []string{c.stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				c.log.Info().Msg("event consumer stopped")
				return ctx.Err()
			}
			c.log.Error().Err(err).Msg("read from stream failed")
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				if err := c.process(ctx, msg); err != nil {
					c.log.Error().Err(err).Str("message_id", msg.ID).Msg("event processing failed")
				}
				if err := c.rdb.XAck(ctx, c.stream, c.group, msg.ID).Err(); err != nil {
					c.log.Error().Err(err).Str("message_id", msg.ID).Msg("ack failed")
				}
			}
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg redis.XMessage) error {
	event, err := ParseMessage(msg.Values)
	if err != nil {
		return err
	}

	switch event.ActionType {
	case ActionCreate:
		return c.handler.HandleCreate(ctx, event.Sub, event.Payload)
	case ActionUpdate:
		return c.handler.HandleUpdate(ctx, event.Sub, event.Payload)
	case ActionDelete:
		return c.handler.HandleDelete(ctx, event.Sub)
	default:
		c.log.Warn().Str("action_type", event.ActionType).Str("sub", event.Sub).Msg("unknown action, skipping")
		return nil
	}
}

// ParseMessage decodes a stream entry into a UserEvent. The entry carries
// either a single "data" field with the full JSON event or flat
// action_type/sub/payload fields.
func ParseMessage(values map[string]interface{}) (*UserEvent, error) {
	if raw, ok := values["data"].(string); ok {
		var event UserEvent
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			return nil, err
		}
		return &event, nil
	}

	event := &UserEvent{}
	if v, ok := values["action_type"].(string); ok {
		event.ActionType = v
	}
	if v, ok := values["sub"].(string); ok {
		event.Sub = v
	}
	if v, ok := values["payload"].(string); ok {
		event.Payload = json.RawMessage(v)
	}
	if event.ActionType == "" {
		return nil, errors.New("event without action_type")
	}
	return event, nil
}
