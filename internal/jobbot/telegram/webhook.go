package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/artlix/backend/internal/jobbot/dedup"
	"github.com/artlix/backend/internal/jobbot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	// SecretHeader carries the secret_token registered with setWebhook.
	SecretHeader = "X-Telegram-Bot-Api-Secret-Token"
	maxBodyBytes = 1 << 20
)

// MessageHandler routes one inbound message.
type MessageHandler interface {
	Handle(ctx context.Context, msg models.InboundMessage)
}

// WebhookHandler receives Bot API updates. Anything that decodes is
// acknowledged with 200 so the transport does not redeliver it.
type WebhookHandler struct {
	handler MessageHandler
	guard   dedup.Checker
	limiter *ChatLimiter
	secret  string
	logger  *zap.Logger
}

// NewWebhookHandler builds the handler. An empty secret disables the header
// check; a nil guard or limiter disables that stage.
func NewWebhookHandler(handler MessageHandler, guard dedup.Checker, limiter *ChatLimiter, secret string, logger *zap.Logger) *WebhookHandler {
	if guard == nil {
		guard = dedup.NopGuard{}
	}
	return &WebhookHandler{
		handler: handler,
		guard:   guard,
		limiter: limiter,
		secret:  secret,
		logger:  logger.Named("telegram_webhook"),
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), []byte(h.secret)) != 1 {
		h.logger.Warn("Rejected update with invalid secret token")
		http.Error(w, "invalid secret token", http.StatusUnauthorized)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&update); err != nil {
		h.logger.Warn("Rejected malformed update", zap.Error(err))
		http.Error(w, "invalid telegram update", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	logger := h.logger.With(zap.Int("update_id", update.UpdateID))

	seen, err := h.guard.Seen(ctx, int64(update.UpdateID))
	if err != nil {
		logger.Warn("Dedup check failed, processing update", zap.Error(err))
	}
	if seen {
		logger.Info("Skipping redelivered update")
		acknowledge(w)
		return
	}

	msg, ok := ToInbound(update)
	if !ok {
		logger.Debug("Ignoring update without a routable message")
		acknowledge(w)
		return
	}

	if h.limiter != nil && !h.limiter.Allow(msg.ChatID) {
		logger.Warn("Rate limit exceeded", zap.Int64("chat_id", msg.ChatID))
		acknowledge(w)
		return
	}

	h.handler.Handle(ctx, msg)
	acknowledge(w)
}

func acknowledge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}
