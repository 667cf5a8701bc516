// Package models contains the persistence rows for the application,
// configured to work using GORM as the ORM, and their conversions to and
// from the domain models. Loosely typed columns are validated here.
package models

import (
	"fmt"
	"time"

	domain "github.com/artlix/backend/internal/jobbot/models"
	"github.com/google/uuid"
)

// Company is a tenant row. SetupOwnerID is only set on the company created
// through owner setup; its unique index makes concurrent setups converge.
type Company struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID      int64     `gorm:"not null;index"`
	SetupOwnerID *int64    `gorm:"uniqueIndex"`
	Title        string    `gorm:"size:200;not null"`
	OfficeCode   string    `gorm:"size:16;not null;uniqueIndex"`
	CreatedAt    time.Time
}

// Employee is a membership row, unique per (company_id, external_user_id).
type Employee struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_employee_membership"`
	ExternalUserID int64     `gorm:"not null;uniqueIndex:idx_employee_membership;index"`
	DisplayName    string    `gorm:"size:200;not null"`
	Role           string    `gorm:"size:16;not null"`
	CreatedAt      time.Time
}

// Job is a captured job row.
type Job struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID           uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedByEmployeeID uuid.UUID `gorm:"type:uuid;not null"`
	Title               string    `gorm:"size:500"`
	Description         string    `gorm:"type:text"`
	Notes               string    `gorm:"type:text"`
	ScheduledFor        *time.Time
	ClientName          *string `gorm:"size:200"`
	Location            *string `gorm:"size:500"`
	Budget              *float64
	RawText             string `gorm:"type:text;not null"`
	Status              string `gorm:"size:32;not null"`
	CreatedAt           time.Time
}

func CompanyFromDomain(c *domain.Company) *Company {
	return &Company{
		ID:         c.ID,
		OwnerID:    c.OwnerID,
		Title:      c.Title,
		OfficeCode: c.OfficeCode,
		CreatedAt:  c.CreatedAt,
	}
}

func (c *Company) ToDomain() *domain.Company {
	return &domain.Company{
		ID:         c.ID,
		OwnerID:    c.OwnerID,
		Title:      c.Title,
		OfficeCode: c.OfficeCode,
		CreatedAt:  c.CreatedAt,
	}
}

func EmployeeFromDomain(e *domain.Employee) *Employee {
	return &Employee{
		ID:             e.ID,
		CompanyID:      e.CompanyID,
		ExternalUserID: e.ExternalUserID,
		DisplayName:    e.DisplayName,
		Role:           string(e.Role),
		CreatedAt:      e.CreatedAt,
	}
}

// ToDomain fails when the stored role is not a known Role.
func (e *Employee) ToDomain() (*domain.Employee, error) {
	role, err := domain.ParseRole(e.Role)
	if err != nil {
		return nil, fmt.Errorf("employee %s: %w", e.ID, err)
	}
	return &domain.Employee{
		ID:             e.ID,
		CompanyID:      e.CompanyID,
		ExternalUserID: e.ExternalUserID,
		DisplayName:    e.DisplayName,
		Role:           role,
		CreatedAt:      e.CreatedAt,
	}, nil
}

func JobFromDomain(j *domain.Job) *Job {
	return &Job{
		ID:                  j.ID,
		CompanyID:           j.CompanyID,
		CreatedByEmployeeID: j.CreatedByEmployeeID,
		Title:               j.Title,
		Description:         j.Description,
		Notes:               j.Notes,
		ScheduledFor:        j.ScheduledFor,
		ClientName:          j.ClientName,
		Location:            j.Location,
		Budget:              j.Budget,
		RawText:             j.RawText,
		Status:              string(j.Status),
		CreatedAt:           j.CreatedAt,
	}
}

func (j *Job) ToDomain() *domain.Job {
	return &domain.Job{
		ID:                  j.ID,
		CompanyID:           j.CompanyID,
		CreatedByEmployeeID: j.CreatedByEmployeeID,
		Title:               j.Title,
		Description:         j.Description,
		Notes:               j.Notes,
		ScheduledFor:        j.ScheduledFor,
		ClientName:          j.ClientName,
		Location:            j.Location,
		Budget:              j.Budget,
		RawText:             j.RawText,
		Status:              domain.JobStatus(j.Status),
		CreatedAt:           j.CreatedAt,
	}
}
