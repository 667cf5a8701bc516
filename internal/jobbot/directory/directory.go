// Package directory implements the tenant directory: companies, their office
// codes and employee memberships. Ownership checks for destructive actions
// are left to callers through RequireOwner.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	e "github.com/artlix/backend/internal/jobbot/errors"
	"github.com/artlix/backend/internal/jobbot/events"
	"github.com/artlix/backend/internal/jobbot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxTitleLength  = 200
	maxNameLength   = 200
	maxCodeAttempts = 10
	unknownEmployee = "Unknown"
)

type EventProducer interface {
	Produce(event events.Event)
}

// Repository defines the storage interface for tenants.
type Repository interface {
	InsertCompany(ctx context.Context, company *models.Company, setupOwnerID *int64) (bool, error)
	InsertCompanyWithOwner(ctx context.Context, company *models.Company, setupOwnerID *int64, owner *models.Employee) (bool, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	GetCompanyByOwner(ctx context.Context, ownerID int64) (*models.Company, error)
	GetCompanyBySetupOwner(ctx context.Context, ownerID int64) (*models.Company, error)
	GetCompanyByCode(ctx context.Context, code string) (*models.Company, error)
	ListCompaniesByOwner(ctx context.Context, ownerID int64) ([]*models.Company, error)
	CompanyExistsByCode(ctx context.Context, code string) (bool, error)
	DeleteCompanyCascade(ctx context.Context, id uuid.UUID) (models.DeleteReport, error)
	CreateEmployee(ctx context.Context, employee *models.Employee) error
	FirstOrCreateEmployee(ctx context.Context, employee *models.Employee) (*models.Employee, bool, error)
	GetEmployeeByExternalID(ctx context.Context, externalUserID int64) (*models.Employee, error)
	DeleteEmployeesByExternalID(ctx context.Context, externalUserID int64) (int64, error)
}

// Service provides tenant operations over a Repository and emits company
// lifecycle events.
type Service struct {
	repo     Repository
	producer EventProducer
	newCode  CodeGenerator
	logger   *zap.Logger
}

type Option func(*Service)

// WithCodeGenerator replaces RandomCode.
func WithCodeGenerator(gen CodeGenerator) Option {
	return func(s *Service) {
		s.newCode = gen
	}
}

// NewService constructs a Service with a repository, an event producer and a logger.
func NewService(repo Repository, producer EventProducer, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		producer: producer,
		newCode:  RandomCode,
		logger:   logger.Named("tenant_directory"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequireOwner returns ErrForbidden unless actorID owns the company.
func RequireOwner(company *models.Company, actorID int64) error {
	if company == nil || company.OwnerID != actorID {
		return fmt.Errorf("%w: %d is not the owner", e.ErrForbidden, actorID)
	}
	return nil
}

// CreateCompany creates a company with a fresh office code.
func (s *Service) CreateCompany(ctx context.Context, ownerID int64, title string) (*models.Company, error) {
	title, err := validateText(title, maxTitleLength, "title")
	if err != nil {
		return nil, err
	}
	company, _, _, err := s.insertCompany(ctx, ownerID, title, nil, nil)
	return company, err
}

// SetupOwnerCompany returns the owner's existing company, or creates their
// first one together with the OWNER membership. Racing calls for the same
// owner converge on one company. created reports whether this call created it.
func (s *Service) SetupOwnerCompany(ctx context.Context, ownerID int64, ownerName, title string) (*models.Company, *models.Employee, bool, error) {
	company, err := s.GetCompanyByOwner(ctx, ownerID)
	switch {
	case err == nil:
	case errors.Is(err, e.ErrNotFound):
		title, err = validateText(title, maxTitleLength, "title")
		if err != nil {
			return nil, nil, false, err
		}
		var (
			owner   *models.Employee
			created bool
		)
		company, owner, created, err = s.insertCompany(ctx, ownerID, title, &ownerID, &ownerName)
		if err != nil {
			return nil, nil, false, err
		}
		if created {
			return company, owner, true, nil
		}
		s.logger.Info("Concurrent owner setup converged", zap.Int64("owner_id", ownerID))
		owner, err = s.ensureMember(ctx, company.ID, ownerID, ownerName, models.RoleOwner)
		return company, owner, false, err
	default:
		return nil, nil, false, err
	}

	owner, err := s.ensureMember(ctx, company.ID, ownerID, ownerName, models.RoleOwner)
	return company, owner, false, err
}

// AddCompany always creates another company for the owner, with its OWNER membership.
func (s *Service) AddCompany(ctx context.Context, ownerID int64, ownerName, title string) (*models.Company, *models.Employee, error) {
	title, err := validateText(title, maxTitleLength, "title")
	if err != nil {
		return nil, nil, err
	}
	company, owner, _, err := s.insertCompany(ctx, ownerID, title, nil, &ownerName)
	if err != nil {
		return nil, nil, err
	}
	return company, owner, nil
}

// insertCompany allocates an office code and stores the company. With a
// non-nil ownerName the OWNER membership is written in the same transaction.
// The created event is emitted only after the write committed.
func (s *Service) insertCompany(ctx context.Context, ownerID int64, title string, setupOwnerID *int64, ownerName *string) (*models.Company, *models.Employee, bool, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, nil, false, fmt.Errorf("failed to generate office code: %w", err)
		}

		exists, err := s.repo.CompanyExistsByCode(ctx, code)
		if err != nil {
			return nil, nil, false, fmt.Errorf("failed to check office code: %w", err)
		}
		if exists {
			s.logger.Debug("Office code collision", zap.String("office_code", code), zap.Int("attempt", attempt))
			continue
		}

		company := &models.Company{
			ID:         uuid.New(),
			OwnerID:    ownerID,
			Title:      title,
			OfficeCode: code,
		}

		var (
			owner    *models.Employee
			inserted bool
		)
		if ownerName != nil {
			owner = newMember(company.ID, ownerID, *ownerName, models.RoleOwner)
			inserted, err = s.repo.InsertCompanyWithOwner(ctx, company, setupOwnerID, owner)
		} else {
			inserted, err = s.repo.InsertCompany(ctx, company, setupOwnerID)
		}
		if err != nil {
			return nil, nil, false, fmt.Errorf("failed to create company: %w", err)
		}
		if inserted {
			go func() {
				s.producer.Produce(events.NewCompanyCreated(company))
			}()
			return company, owner, true, nil
		}

		// the insert lost a race: either on the office code or on the setup slot
		if setupOwnerID != nil {
			existing, err := s.repo.GetCompanyBySetupOwner(ctx, *setupOwnerID)
			if err == nil {
				return existing, nil, false, nil
			}
			if !errors.Is(err, e.ErrNotFound) {
				return nil, nil, false, fmt.Errorf("failed to get company: %w", err)
			}
		}
	}
	return nil, nil, false, e.ErrCodeSpaceExhausted
}

// GetCompany retrieves a Company by ID, returning an error if not found.
func (s *Service) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return wrapLookup(s.repo.GetCompany(ctx, id))
}

// GetCompanyByOwner returns the owner's oldest company.
func (s *Service) GetCompanyByOwner(ctx context.Context, ownerID int64) (*models.Company, error) {
	return wrapLookup(s.repo.GetCompanyByOwner(ctx, ownerID))
}

func (s *Service) ListCompaniesByOwner(ctx context.Context, ownerID int64) ([]*models.Company, error) {
	companies, err := s.repo.ListCompaniesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// GetCompanyByCode matches the office code case-insensitively.
func (s *Service) GetCompanyByCode(ctx context.Context, code string) (*models.Company, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty office code", e.ErrInvalidInput)
	}
	return wrapLookup(s.repo.GetCompanyByCode(ctx, normalized))
}

// DeleteCompanyAndCascade removes the company, its employees and its jobs.
// An unknown id yields an empty report.
func (s *Service) DeleteCompanyAndCascade(ctx context.Context, companyID uuid.UUID) (models.DeleteReport, error) {
	company, err := s.repo.GetCompany(ctx, companyID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return models.DeleteReport{}, nil
		}
		return models.DeleteReport{}, fmt.Errorf("failed to get company for deletion: %w", err)
	}

	report, err := s.repo.DeleteCompanyCascade(ctx, companyID)
	if err != nil {
		return models.DeleteReport{}, fmt.Errorf("failed to delete company: %w", err)
	}

	if report.Companies > 0 {
		s.logger.Info("Company deleted",
			zap.String("company_id", companyID.String()),
			zap.Int64("employees", report.Employees),
			zap.Int64("jobs", report.Jobs),
		)
		go func() {
			s.producer.Produce(events.NewCompanyDeleted(company, report))
		}()
	}
	return report, nil
}

func (s *Service) CreateEmployee(ctx context.Context, companyID uuid.UUID, name string, externalUserID int64, role models.Role) (*models.Employee, error) {
	if _, err := models.ParseRole(string(role)); err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}
	name, err := validateText(name, maxNameLength, "name")
	if err != nil {
		return nil, err
	}

	employee := &models.Employee{
		ID:             uuid.New(),
		CompanyID:      companyID,
		ExternalUserID: externalUserID,
		DisplayName:    name,
		Role:           role,
	}
	if err := s.repo.CreateEmployee(ctx, employee); err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	return employee, nil
}

// GetOrCreateEmployee links the identity to the company as an EMPLOYEE. An
// existing membership is returned unchanged, name included.
func (s *Service) GetOrCreateEmployee(ctx context.Context, companyID uuid.UUID, externalUserID int64, name string) (*models.Employee, error) {
	return s.ensureMember(ctx, companyID, externalUserID, name, models.RoleEmployee)
}

func (s *Service) ensureMember(ctx context.Context, companyID uuid.UUID, externalUserID int64, name string, role models.Role) (*models.Employee, error) {
	employee, created, err := s.repo.FirstOrCreateEmployee(ctx, newMember(companyID, externalUserID, name, role))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert employee: %w", err)
	}
	if created {
		s.logger.Info("Employee linked",
			zap.String("company_id", companyID.String()),
			zap.Int64("external_user_id", externalUserID),
			zap.String("role", string(role)),
		)
	}
	return employee, nil
}

// GetEmployee returns the identity's oldest membership.
func (s *Service) GetEmployee(ctx context.Context, externalUserID int64) (*models.Employee, error) {
	employee, err := s.repo.GetEmployeeByExternalID(ctx, externalUserID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee, nil
}

// DeleteEmployee removes every membership of the identity and returns how
// many rows were removed.
func (s *Service) DeleteEmployee(ctx context.Context, externalUserID int64) (int64, error) {
	deleted, err := s.repo.DeleteEmployeesByExternalID(ctx, externalUserID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete employee: %w", err)
	}
	if deleted > 1 {
		s.logger.Warn("Identity held several memberships",
			zap.Int64("external_user_id", externalUserID),
			zap.Int64("deleted", deleted),
		)
	}
	return deleted, nil
}

// newMember builds a membership row. Blank names become "Unknown" and long
// names are cut to maxNameLength.
func newMember(companyID uuid.UUID, externalUserID int64, name string, role models.Role) *models.Employee {
	name = strings.TrimSpace(name)
	if name == "" {
		name = unknownEmployee
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return &models.Employee{
		ID:             uuid.New(),
		CompanyID:      companyID,
		ExternalUserID: externalUserID,
		DisplayName:    name,
		Role:           role,
	}
}

func wrapLookup(company *models.Company, err error) (*models.Company, error) {
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

func validateText(value string, limit int, field string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", e.ErrInvalidInput, field)
	}
	if utf8.RuneCountInString(value) > limit {
		return "", fmt.Errorf("%w: %s too long", e.ErrInvalidInput, field)
	}
	return value, nil
}
