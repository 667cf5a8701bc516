// Package intake turns a classified chat message into a persisted job.
package intake

import (
	"context"
	"fmt"

	e "github.com/artlix/backend/internal/jobbot/errors"
	"github.com/artlix/backend/internal/jobbot/events"
	"github.com/artlix/backend/internal/jobbot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Classifier interface {
	Classify(text string) models.Classification
}

type Repository interface {
	CreateJob(ctx context.Context, job *models.Job) error
	ListJobsByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.Job, error)
}

type EventProducer interface {
	Produce(event events.Event)
}

// Service is the job capture workflow. Identical messages are not
// deduplicated: every accepted message creates its own job.
type Service struct {
	classifier Classifier
	repo       Repository
	producer   EventProducer
	logger     *zap.Logger
}

func NewService(classifier Classifier, repo Repository, producer EventProducer, logger *zap.Logger) *Service {
	return &Service{
		classifier: classifier,
		repo:       repo,
		producer:   producer,
		logger:     logger.Named("job_capture"),
	}
}

// Capture classifies text on behalf of employee and stores the job in the
// employee's company. ErrNotAJob is returned when the text is rejected.
func (s *Service) Capture(ctx context.Context, employee *models.Employee, text string) (*models.Job, error) {
	if employee == nil {
		return nil, fmt.Errorf("%w: employee is required", e.ErrInvalidInput)
	}

	result := s.classifier.Classify(text)
	if !result.IsJob {
		return nil, e.ErrNotAJob
	}

	job := &models.Job{
		ID:                  uuid.New(),
		CompanyID:           employee.CompanyID,
		CreatedByEmployeeID: employee.ID,
		Title:               result.Title,
		Description:         result.Description,
		Notes:               result.Description,
		ScheduledFor:        result.ScheduledFor,
		ClientName:          result.ClientName,
		Location:            result.Location,
		Budget:              result.Budget,
		RawText:             text,
		Status:              models.JobStatusNew,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info("Job captured",
		zap.String("job_id", job.ID.String()),
		zap.String("company_id", job.CompanyID.String()),
		zap.String("employee_id", employee.ID.String()),
	)

	go func() {
		s.producer.Produce(events.NewJobCreated(job))
	}()

	return job, nil
}

// ListJobs returns the company's jobs, newest first.
func (s *Service) ListJobs(ctx context.Context, companyID uuid.UUID) ([]*models.Job, error) {
	jobs, err := s.repo.ListJobsByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}
