// Package classifier decides whether a free-text chat message describes a
// job and extracts the structured fields it can find. It performs no I/O;
// the only impure input is the clock used for relative dates.
package classifier

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/artlix/backend/internal/jobbot/models"
	"github.com/artlix/backend/internal/pkg/utils"
)

const (
	// DefaultMinLength is the trimmed length below which a message is never a job.
	DefaultMinLength = 15
	// DefaultTitle is used when no job label is present.
	DefaultTitle = "New job"
)

// Classifier turns message text into a models.Classification.
type Classifier struct {
	minLength int
	now       func() time.Time
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMinLength overrides DefaultMinLength. Non-positive values are ignored.
func WithMinLength(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.minLength = n
		}
	}
}

// WithClock sets the time source used for "tomorrow" and "next week".
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a Classifier with the given options.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		minLength: DefaultMinLength,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify fails closed on short or blank text. Accepted text always keeps
// the full trimmed input as its description; labeled fields are extracted
// independently and may all be absent.
func (c *Classifier) Classify(text string) models.Classification {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" || utf8.RuneCountInString(cleaned) < c.minLength {
		return models.Classification{IsJob: false}
	}

	result := models.Classification{
		IsJob:       true,
		Title:       DefaultTitle,
		Description: cleaned,
	}

	fields := extractFields(cleaned)
	if v, ok := fields[fieldJob]; ok {
		result.Title = v
	}
	if v, ok := fields[fieldClient]; ok {
		result.ClientName = utils.Ptr(v)
	}
	if v, ok := fields[fieldLocation]; ok {
		result.Location = utils.Ptr(v)
	}
	if budget, ok := extractBudget(cleaned); ok {
		result.Budget = utils.Ptr(budget)
	}
	if when, ok := resolveSchedule(cleaned, c.now()); ok {
		result.ScheduledFor = utils.Ptr(when)
	}

	return result
}
