package events

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	defaultWebhookTimeout = 10 * time.Second
	defaultWebhookRetries = 3
)

// WebhookNotifier pushes job-created payloads to the workflow-automation
// webhook. Only JobCreated events are delivered; other types are ignored.
type WebhookNotifier struct {
	client     *http.Client
	url        string
	logger     *zap.Logger
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// NewWebhookNotifier targets {baseURL}/webhook/job-created/{secret}.
func NewWebhookNotifier(baseURL, secret string, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		client:     &http.Client{Timeout: defaultWebhookTimeout},
		url:        fmt.Sprintf("%s/webhook/job-created/%s", strings.TrimRight(baseURL, "/"), secret),
		logger:     logger.Named("automation_webhook"),
		maxRetries: defaultWebhookRetries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// Produce delivers in the background. Failures are logged and never reach
// the caller.
func (n *WebhookNotifier) Produce(event Event) {
	if event.Type != JobCreated {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := n.Deliver(ctx, event); err != nil {
			n.logger.Error("job-created delivery failed",
				zap.Error(err),
				zap.String("company_id", event.CompanyID),
			)
		}
	}()
}

// Deliver posts the job payload, retrying transport errors and 5xx answers.
func (n *WebhookNotifier) Deliver(ctx context.Context, event Event) error {
	if event.Type != JobCreated || event.Job == nil {
		return nil
	}

	body, err := jsonMarshal(event.Job)
	if err != nil {
		return fmt.Errorf("failed to encode job payload: %w", err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(n.newBackOff(), n.maxRetries), ctx)
	return backoff.Retry(func() error {
		return n.post(ctx, body)
	}, policy)
}

func (n *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("automation webhook returned %d", resp.StatusCode)
	default:
		return backoff.Permanent(fmt.Errorf("automation webhook rejected payload: %d", resp.StatusCode))
	}
}
