package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	TypeSuccess = "success"
	TypeError   = "error"
	TypeInfo    = "info"
)

// Message is a single transient user notification.
type Message struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Notifier delivers transient notifications to a storefront client. Messages
// are shown once on the next rendered page and then discarded.
type Notifier interface {
	Success(message string)
	Error(message string)
	Info(message string)
}

// queueTTL caps how long undelivered notifications survive.
const queueTTL = 24 * time.Hour

// RedisNotifier queues notifications per client in a Redis list so they can be
// drained into flash messages on the next request.
type RedisNotifier struct {
	client   *redis.Client
	clientID string
}

// NewRedisNotifier creates a notifier bound to one client.
func NewRedisNotifier(client *redis.Client, clientID string) *RedisNotifier {
	return &RedisNotifier{client: client, clientID: clientID}
}

func queueKey(clientID string) string {
	return fmt.Sprintf("notify:%s", clientID)
}

func (n *RedisNotifier) push(msgType, message string) {
	payload, err := json.Marshal(Message{Type: msgType, Message: message})
	if err != nil {
		log.Errorf("notify: marshal failed: %v", err)
		return
	}
	ctx := context.Background()
	key := queueKey(n.clientID)
	if err := n.client.RPush(ctx, key, payload).Err(); err != nil {
		log.Errorf("notify: push for client %s failed: %v", n.clientID, err)
		return
	}
	n.client.Expire(ctx, key, queueTTL)
}

func (n *RedisNotifier) Success(message string) { n.push(TypeSuccess, message) }
func (n *RedisNotifier) Error(message string)   { n.push(TypeError, message) }
func (n *RedisNotifier) Info(message string)    { n.push(TypeInfo, message) }

// Drain pops all queued notifications for a client, oldest first. Each batch
// is removed as it is read, so a message pushed mid-drain stays queued for the
// next request instead of being lost.
func Drain(ctx context.Context, client *redis.Client, clientID string) []Message {
	key := queueKey(clientID)

	var messages []Message
	for {
		raw, err := client.LPopCount(ctx, key, 16).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Warnf("notify: drain for client %s failed: %v", clientID, err)
			}
			return messages
		}
		if len(raw) == 0 {
			return messages
		}
		for _, item := range raw {
			var msg Message
			if err := json.Unmarshal([]byte(item), &msg); err != nil {
				log.Warnf("notify: dropping malformed notification for client %s: %v", clientID, err)
				continue
			}
			messages = append(messages, msg)
		}
	}
}

// Recorder is an in-memory Notifier for tests.
type Recorder struct {
	mu       sync.Mutex
	Messages []Message
}

func (r *Recorder) record(msgType, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, Message{Type: msgType, Message: message})
}

func (r *Recorder) Success(message string) { r.record(TypeSuccess, message) }
func (r *Recorder) Error(message string)   { r.record(TypeError, message) }
func (r *Recorder) Info(message string)    { r.record(TypeInfo, message) }

// ByType returns all recorded messages of the given type.
func (r *Recorder) ByType(msgType string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, msg := range r.Messages {
		if msg.Type == msgType {
			out = append(out, msg)
		}
	}
	return out
}
