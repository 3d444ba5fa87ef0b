// Package notify delivers alert and report messages through mail, the in-app
// notification table and Telegram.
package notify

import (
	"context"
	"fmt"
	"time"

	"asset_lifecycle_scheduler/internal/domain/telegram"
	"asset_lifecycle_scheduler/internal/domain/user"
	"asset_lifecycle_scheduler/internal/infra/mail"

	"github.com/google/uuid"
)

// Message is channel-neutral notification content.
type Message struct {
	Kind        string
	Subject     string
	Text        string
	HTML        string
	Attachments []mail.Attachment
	Data        map[string]any
}

// Channel is one delivery route.
type Channel interface {
	// Name returns the channel name (e.g., "mail", "database").
	Name() string
	// Accepts reports whether the recipient can be reached on this channel.
	Accepts(u *user.User) bool
	Send(ctx context.Context, u *user.User, msg Message) error
}

// MailChannel sends email over SMTP.
type MailChannel struct {
	sender mail.Sender
}

func NewMailChannel(sender mail.Sender) *MailChannel {
	return &MailChannel{sender: sender}
}

func (c *MailChannel) Name() string { return "mail" }

func (c *MailChannel) Accepts(u *user.User) bool { return u.Email != "" }

func (c *MailChannel) Send(ctx context.Context, u *user.User, msg Message) error {
	return c.sender.Send(ctx, &mail.Message{
		To:          []mail.Address{{Name: u.Name, Address: u.Email}},
		Subject:     msg.Subject,
		Text:        msg.Text,
		HTML:        msg.HTML,
		Attachments: msg.Attachments,
	})
}

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	Insert(ctx context.Context, userID int64, kind string, data map[string]any, at time.Time) (uuid.UUID, error)
}

// DatabaseChannel writes a row the web UI shows in the user's notification list.
type DatabaseChannel struct {
	store NotificationStore
	now   func() time.Time
}

func NewDatabaseChannel(store NotificationStore) *DatabaseChannel {
	return &DatabaseChannel{store: store, now: time.Now}
}

func (c *DatabaseChannel) Name() string { return "database" }

func (c *DatabaseChannel) Accepts(u *user.User) bool { return u.ID > 0 }

func (c *DatabaseChannel) Send(ctx context.Context, u *user.User, msg Message) error {
	data := make(map[string]any, len(msg.Data)+1)
	for k, v := range msg.Data {
		data[k] = v
	}
	data["subject"] = msg.Subject
	_, err := c.store.Insert(ctx, u.ID, msg.Kind, data, c.now())
	return err
}

// TelegramChannel messages users who linked a Telegram chat.
type TelegramChannel struct {
	client telegram.Client
}

func NewTelegramChannel(client telegram.Client) *TelegramChannel {
	return &TelegramChannel{client: client}
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Accepts(u *user.User) bool {
	return u.TelegramChatID.Valid && u.TelegramChatID.Int64 != 0
}

func (c *TelegramChannel) Send(ctx context.Context, u *user.User, msg Message) error {
	text := msg.Subject
	if msg.Text != "" {
		text = fmt.Sprintf("%s\n\n%s", msg.Subject, msg.Text)
	}
	return c.client.SendMessage(ctx, u.TelegramChatID.Int64, text)
}
