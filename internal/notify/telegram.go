package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

// TelegramNotifier pushes a one-line summary of each event to the
// school's operations chat. Optional; enabled when a bot token and chat
// id are configured.
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID int64
	logger *zap.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: b, chatID: chatID, logger: logger}, nil
}

func (t *TelegramNotifier) Publish(ctx context.Context, event Event) error {
	text := formatEvent(event)
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   text,
	})
	if err != nil {
		t.logger.Warn("telegram send failed", zap.String("kind", event.Kind), zap.Error(err))
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func formatEvent(event Event) string {
	switch {
	case event.TicketNumber != "" && event.Status != "":
		return fmt.Sprintf("%s: ticket %s is now %s", event.Kind, event.TicketNumber, event.Status)
	case event.LessonRequestID != "" && event.Status != "":
		return fmt.Sprintf("%s: lesson %s is now %s", event.Kind, event.LessonRequestID, event.Status)
	default:
		return event.Kind
	}
}
