package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a Job. Only JobStatusNew is ever
// assigned by the bot.
type JobStatus string

const JobStatusNew JobStatus = "new"

// Job is a unit of captured work. Optional fields are nil when absent.
type Job struct {
	ID                  uuid.UUID
	CompanyID           uuid.UUID
	CreatedByEmployeeID uuid.UUID
	Title               string
	Description         string
	Notes               string
	ScheduledFor        *time.Time
	ClientName          *string
	Location            *string
	Budget              *float64
	// RawText is the verbatim inbound message and is never rewritten.
	RawText   string
	Status    JobStatus
	CreatedAt time.Time
}

// Classification is the outcome of running the text classifier on a message.
// When IsJob is false every other field is zero.
type Classification struct {
	IsJob        bool
	Title        string
	Description  string
	ScheduledFor *time.Time
	ClientName   *string
	Location     *string
	Budget       *float64
}

// InboundMessage is the normalized chat message handed to the router by the
// transport layer. Text is already trimmed.
type InboundMessage struct {
	SenderID   int64
	SenderName string
	ChatID     int64
	Text       string
}
