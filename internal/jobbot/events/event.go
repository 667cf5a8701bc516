// Package events carries domain events out of the bot: a Kafka producer for
// the event log, a Kafka consumer relaying job events to the automation
// webhook, and the webhook notifier itself.
package events

import (
	"time"

	"github.com/artlix/backend/internal/jobbot/models"
)

type EventType string

const (
	CompanyCreated EventType = "company_created"
	CompanyDeleted EventType = "company_deleted"
	JobCreated     EventType = "job_created"
)

// Event is the envelope written to Kafka. Exactly one of Company or Job is set.
type Event struct {
	Type       EventType       `json:"type"`
	CompanyID  string          `json:"company_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Company    *CompanyPayload `json:"company,omitempty"`
	Job        *JobPayload     `json:"job,omitempty"`
}

type CompanyPayload struct {
	CompanyID        string `json:"company_id"`
	OwnerID          int64  `json:"owner_id"`
	Title            string `json:"title"`
	OfficeCode       string `json:"office_code"`
	RemovedEmployees int64  `json:"removed_employees,omitempty"`
	RemovedJobs      int64  `json:"removed_jobs,omitempty"`
}

// JobPayload is the job-created body expected by the automation workflow.
// Absent optional fields are encoded as null.
type JobPayload struct {
	JobID               string   `json:"job_id"`
	CompanyID           string   `json:"company_id"`
	CreatedByEmployeeID string   `json:"created_by_employee_id"`
	ClientName          *string  `json:"client_name"`
	JobType             string   `json:"job_type"`
	Location            *string  `json:"location"`
	ScheduledFor        *string  `json:"scheduled_for"`
	Budget              *float64 `json:"budget"`
	Notes               string   `json:"notes"`
	Status              string   `json:"status"`
}

func NewCompanyCreated(company *models.Company) Event {
	return Event{
		Type:       CompanyCreated,
		CompanyID:  company.ID.String(),
		OccurredAt: time.Now().UTC(),
		Company:    companyPayload(company),
	}
}

func NewCompanyDeleted(company *models.Company, report models.DeleteReport) Event {
	payload := companyPayload(company)
	payload.RemovedEmployees = report.Employees
	payload.RemovedJobs = report.Jobs
	return Event{
		Type:       CompanyDeleted,
		CompanyID:  company.ID.String(),
		OccurredAt: time.Now().UTC(),
		Company:    payload,
	}
}

func NewJobCreated(job *models.Job) Event {
	return Event{
		Type:       JobCreated,
		CompanyID:  job.CompanyID.String(),
		OccurredAt: time.Now().UTC(),
		Job:        NewJobPayload(job),
	}
}

func NewJobPayload(job *models.Job) *JobPayload {
	payload := &JobPayload{
		JobID:               job.ID.String(),
		CompanyID:           job.CompanyID.String(),
		CreatedByEmployeeID: job.CreatedByEmployeeID.String(),
		ClientName:          job.ClientName,
		JobType:             job.Title,
		Location:            job.Location,
		Budget:              job.Budget,
		Notes:               job.Notes,
		Status:              string(job.Status),
	}
	if job.ScheduledFor != nil {
		formatted := job.ScheduledFor.UTC().Format(time.RFC3339)
		payload.ScheduledFor = &formatted
	}
	return payload
}

func companyPayload(company *models.Company) *CompanyPayload {
	return &CompanyPayload{
		CompanyID:  company.ID.String(),
		OwnerID:    company.OwnerID,
		Title:      company.Title,
		OfficeCode: company.OfficeCode,
	}
}

// Multi fans an event out to every producer in order.
type Multi []interface{ Produce(Event) }

func (m Multi) Produce(event Event) {
	for _, p := range m {
		p.Produce(event)
	}
}
