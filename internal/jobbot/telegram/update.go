// Package telegram adapts the Bot API to the router: it decodes webhook
// updates into models.InboundMessage and sends HTML replies.
package telegram

import (
	"strings"

	"github.com/artlix/backend/internal/jobbot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ToInbound extracts the routable message from an update. Updates without a
// message, without a sender, or sent by a bot are not routable.
func ToInbound(update tgbotapi.Update) (models.InboundMessage, bool) {
	msg := update.Message
	if msg == nil {
		msg = update.EditedMessage
	}
	if msg == nil || msg.From == nil || msg.From.IsBot || msg.Chat == nil {
		return models.InboundMessage{}, false
	}

	return models.InboundMessage{
		SenderID:   msg.From.ID,
		SenderName: displayName(msg.From),
		ChatID:     msg.Chat.ID,
		Text:       strings.TrimSpace(msg.Text),
	}, true
}

func displayName(user *tgbotapi.User) string {
	full := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if full != "" {
		return full
	}
	return user.UserName
}
