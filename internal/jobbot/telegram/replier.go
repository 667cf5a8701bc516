package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of *tgbotapi.BotAPI used to deliver replies.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Replier sends router replies as HTML messages.
type Replier struct {
	sender Sender
	logger *zap.Logger
}

func NewReplier(sender Sender, logger *zap.Logger) *Replier {
	return &Replier{sender: sender, logger: logger.Named("telegram")}
}

// NewBotReplier authenticates the token against the Bot API.
func NewBotReplier(token string, logger *zap.Logger) (*Replier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot client: %w", err)
	}
	logger.Info("Telegram bot authorized", zap.String("username", bot.Self.UserName))
	return NewReplier(bot, logger), nil
}

func (r *Replier) Reply(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := r.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}
