package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	gomail "gopkg.in/gomail.v2"

	"venuebook/internal/config"
	"venuebook/internal/domain"
)

// Channel delivers an outbox message to one destination. Failures on a
// durable channel keep the message in the outbox for another attempt;
// failures on other channels are logged and dropped.
type Channel interface {
	Name() string
	Durable() bool
	Deliver(ctx context.Context, msg domain.OutboxMessage) error
}

/* ---------- IN-APP INBOX ---------- */

type InboxChannel struct {
	repo NotificationRepository
}

func NewInboxChannel(repo NotificationRepository) *InboxChannel {
	return &InboxChannel{repo: repo}
}

func (c *InboxChannel) Name() string  { return "inbox" }
func (c *InboxChannel) Durable() bool { return true }

// Deliver is safe to repeat: the inbox row is keyed by the outbox id.
func (c *InboxChannel) Deliver(ctx context.Context, msg domain.OutboxMessage) error {
	return c.repo.CreateOnce(ctx, &domain.Notification{
		OutboxID:  msg.ID,
		UserID:    msg.UserID,
		Type:      msg.Type,
		Title:     msg.Title,
		Body:      msg.Body,
		LinkURL:   msg.LinkURL,
		Data:      msg.Payload,
		CreatedAt: msg.CreatedAt,
	})
}

/* ---------- WEBSOCKET ---------- */

// PushMessage is the frame written to connected websocket clients.
type PushMessage struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Body      string                  `json:"body,omitempty"`
	LinkURL   string                  `json:"link_url,omitempty"`
	Payload   json.RawMessage         `json:"payload,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

type HubChannel struct {
	hub *Hub
}

func NewHubChannel(hub *Hub) *HubChannel {
	return &HubChannel{hub: hub}
}

func (c *HubChannel) Name() string  { return "websocket" }
func (c *HubChannel) Durable() bool { return false }

// Deliver pushes to every open connection of the user. Offline users are not an error.
func (c *HubChannel) Deliver(_ context.Context, msg domain.OutboxMessage) error {
	c.hub.SendToUser(msg.UserID, pushFrom(msg))
	return nil
}

func pushFrom(msg domain.OutboxMessage) PushMessage {
	push := PushMessage{
		ID:        msg.ID,
		Type:      msg.Type,
		Title:     msg.Title,
		Body:      msg.Body,
		LinkURL:   msg.LinkURL,
		CreatedAt: msg.CreatedAt,
	}
	if json.Valid([]byte(msg.Payload)) {
		push.Payload = json.RawMessage(msg.Payload)
	}
	return push
}

/* ---------- EMAIL ---------- */

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailChannel struct {
	users  UserRepository
	sender mailSender
	from   string
}

func NewEmailChannel(cfg config.SMTPConfig, users UserRepository) *EmailChannel {
	return &EmailChannel{
		users:  users,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (c *EmailChannel) Name() string  { return "email" }
func (c *EmailChannel) Durable() bool { return false }

func (c *EmailChannel) Deliver(ctx context.Context, msg domain.OutboxMessage) error {
	u, err := c.users.GetByID(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("lookup recipient %d: %w", msg.UserID, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", u.Email)
	m.SetHeader("Subject", msg.Title)
	m.SetBody("text/plain", emailBody(msg))

	if err := c.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func emailBody(msg domain.OutboxMessage) string {
	var b strings.Builder
	b.WriteString(msg.Body)
	if msg.LinkURL != "" {
		b.WriteString("\n\n")
		b.WriteString(msg.LinkURL)
	}
	return b.String()
}

/* ---------- KAFKA ---------- */

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaChannel publishes lifecycle events for downstream consumers
// (refund processing, analytics). Messages are keyed by outbox id.
type KafkaChannel struct {
	writer messageWriter
}

func NewKafkaChannel(cfg config.KafkaConfig) (*KafkaChannel, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka channel requires at least one broker")
	}
	return &KafkaChannel{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
	}, nil
}

func (c *KafkaChannel) Name() string  { return "kafka" }
func (c *KafkaChannel) Durable() bool { return true }

// LifecycleEvent is the record published to kafka.
type LifecycleEvent struct {
	PushMessage
	UserID    int64  `json:"user_id"`
	BookingID *int64 `json:"booking_id,omitempty"`
}

func (c *KafkaChannel) Deliver(ctx context.Context, msg domain.OutboxMessage) error {
	value, err := json.Marshal(LifecycleEvent{
		PushMessage: pushFrom(msg),
		UserID:      msg.UserID,
		BookingID:   msg.BookingID,
	})
	if err != nil {
		return err
	}
	headers := []kafka.Header{{Key: "type", Value: []byte(msg.Type)}}
	return c.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(msg.ID),
		Value:   value,
		Headers: headers,
		Time:    msg.CreatedAt,
	})
}

func (c *KafkaChannel) Close() error {
	return c.writer.Close()
}
