// Package models defines the core domain models of the job bot:
// the Company tenant, its Employee memberships and the Jobs they capture.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role represents the membership role of an Employee within a Company.
type Role string

const (
	// RoleOwner is held by the identity that created the company.
	RoleOwner    Role = "OWNER"
	RoleEmployee Role = "EMPLOYEE"
)

// ParseRole validates a stored role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleEmployee:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Company defines the domain model for a tenant.
type Company struct {
	// ID is the unique identifier for the company.
	ID uuid.UUID
	// OwnerID is the external (chat) identity of the owner.
	OwnerID int64
	// Title is the display name chosen by the owner.
	Title string
	// OfficeCode is the uppercase self-enrollment token, unique across companies.
	OfficeCode string
	// CreatedAt records the timestamp when the company was created.
	CreatedAt time.Time
}

// Employee binds one external identity to one company.
type Employee struct {
	ID             uuid.UUID
	CompanyID      uuid.UUID
	ExternalUserID int64
	DisplayName    string
	Role           Role
	CreatedAt      time.Time
}

// IsOwner reports whether the employee holds the owner role.
func (e *Employee) IsOwner() bool {
	return e.Role == RoleOwner
}

// DeleteReport counts the rows removed by a cascading company deletion.
type DeleteReport struct {
	Companies int64
	Employees int64
	Jobs      int64
}

// Total returns the number of rows removed across all collections.
func (r DeleteReport) Total() int64 {
	return r.Companies + r.Employees + r.Jobs
}
