package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/artlix/backend/internal/jobbot/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestNotifier(t *testing.T, baseURL string) *WebhookNotifier {
	n := NewWebhookNotifier(baseURL, "s3cret", zaptest.NewLogger(t))
	n.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return n
}

func testJobEvent() Event {
	return NewJobCreated(&models.Job{
		ID:                  uuid.New(),
		CompanyID:           uuid.New(),
		CreatedByEmployeeID: uuid.New(),
		Title:               "New job",
		Notes:               "Replace gutters on the north side",
		RawText:             "Replace gutters on the north side",
		Status:              models.JobStatusNew,
	})
}

func TestWebhookNotifier_Deliver(t *testing.T) {
	var received JobPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/webhook/job-created/s3cret", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	event := testJobEvent()
	err := newTestNotifier(t, server.URL+"/").Deliver(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, event.Job.JobID, received.JobID)
	assert.Equal(t, "Replace gutters on the north side", received.Notes)
}

func TestWebhookNotifier_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := newTestNotifier(t, server.URL).Deliver(context.Background(), testJobEvent())

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWebhookNotifier_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	err := newTestNotifier(t, server.URL).Deliver(context.Background(), testJobEvent())

	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWebhookNotifier_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := newTestNotifier(t, server.URL).Deliver(context.Background(), testJobEvent())

	assert.Error(t, err)
	assert.Equal(t, int32(defaultWebhookRetries+1), atomic.LoadInt32(&calls))
}

func TestWebhookNotifier_IgnoresOtherEvents(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	n := newTestNotifier(t, server.URL)
	require.NoError(t, n.Deliver(context.Background(), NewCompanyCreated(testCompany())))
	n.Produce(NewCompanyCreated(testCompany()))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWebhookNotifier_ProduceIsFireAndForget(t *testing.T) {
	delivered := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		delivered <- struct{}{}
	}))
	defer server.Close()

	newTestNotifier(t, server.URL).Produce(testJobEvent())

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("job event was not delivered")
	}
}
