package telegram

import "context"

// Client sends plain text messages to Telegram chats.
type Client interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}
