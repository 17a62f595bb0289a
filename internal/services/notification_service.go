package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// Notification event types, one per state-machine transition.
const (
	EventPendingApproval = "TOKEN_PENDING_APPROVAL"
	EventPendingConfirm  = "TOKEN_PENDING_CONFIRM"
	EventCompleted       = "TOKEN_COMPLETED"
	EventRejected        = "TOKEN_REJECTED"
	EventCancelled       = "TOKEN_CANCELLED"
	EventAdminGrant      = "TOKEN_ADMIN_GRANT"
	EventAdminDeduct     = "TOKEN_ADMIN_DEDUCT"
	EventDividend        = "TOKEN_DIVIDEND"
	EventReward          = "TOKEN_REWARD"
)

const notificationQueue = "token_notifications"

// NotificationEvent is what downstream delivery (email, push) consumes from
// the queue.
type NotificationEvent struct {
	EventType     string          `json:"eventType"`
	TransactionID string          `json:"transactionId"`
	Recipients    []string        `json:"recipients"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// NotificationService pushes one event per transition to a Redis list.
// Delivery itself is an external collaborator draining the queue.
type NotificationService struct {
	redis *redis.Client
}

func NewNotificationService(redisClient *redis.Client) *NotificationService {
	return &NotificationService{redis: redisClient}
}

// Notify queues one event. A nil Redis client degrades to log-only; a queue
// failure never fails the transition that produced the event.
func (s *NotificationService) Notify(ctx context.Context, event NotificationEvent) {
	event.CreatedAt = time.Now()

	if s.redis == nil {
		log.Printf("[NOTIFY] %s tx=%s recipients=%v (queue disabled)", event.EventType, event.TransactionID, event.Recipients)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[NOTIFY] Failed to marshal event for tx %s: %v", event.TransactionID, err)
		return
	}

	if err := s.redis.RPush(ctx, notificationQueue, data).Err(); err != nil {
		log.Printf("[NOTIFY] Failed to queue %s for tx %s: %v", event.EventType, event.TransactionID, err)
	}
}
