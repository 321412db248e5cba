package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"cryptotracker/internal/application/port"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes alert notifications to a Redis stream for durable
// consumers and to a pub/sub channel for live ones.
type Notifier struct {
	rdb     *redis.Client
	stream  string
	channel string
	maxLen  int64
}

func NewNotifier(rdb *redis.Client, prefix, stream, channel string) *Notifier {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "cryptotracker"
	}
	if strings.TrimSpace(stream) == "" {
		stream = prefix + ":alerts"
	}
	if strings.TrimSpace(channel) == "" {
		channel = prefix + ":alerts:pub"
	}
	return &Notifier{rdb: rdb, stream: stream, channel: channel, maxLen: 10000}
}

type notificationMsg struct {
	TsMs  int64             `json:"ts_ms"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

func (n *Notifier) Notify(ctx context.Context, msg port.Notification) error {
	ts := time.Now().UnixMilli()
	payload, err := json.Marshal(notificationMsg{TsMs: ts, Title: msg.Title, Body: msg.Body, Data: msg.Data})
	if err != nil {
		return err
	}

	// 1) Stream: XADD <stream> MAXLEN ~ n * ts_ms title body payload
	_, err = n.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: n.maxLen,
		Approx: true,
		Values: map[string]any{
			"ts_ms":   ts,
			"title":   msg.Title,
			"body":    msg.Body,
			"coin_id": msg.Data["coinId"],
			"payload": string(payload),
		},
	}).Result()
	if err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> json
	return n.rdb.Publish(ctx, n.channel, payload).Err()
}

var _ port.Notifier = (*Notifier)(nil)
