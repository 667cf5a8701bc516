package db

import (
	"context"
	"errors"
	"fmt"

	rows "github.com/artlix/backend/internal/jobbot/db/models"
	e "github.com/artlix/backend/internal/jobbot/errors"
	"github.com/artlix/backend/internal/jobbot/models"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	// DBName is the database name for postgres and the file path for sqlite.
	DBName  string
	SSLMode string
}

func (c *Config) dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case "", DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(c.DBName), nil
	default:
		return nil, fmt.Errorf("%w: unsupported database driver %q", e.ErrInvalidInput, c.Driver)
	}
}

func NewRepository(cfg *Config) (*Repository, error) {
	dialector, err := cfg.dialector()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// sqlite has a single writer, and ":memory:" is private to one connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to configure database: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&rows.Company{}, &rows.Employee{}, &rows.Job{})
}

// InsertCompany stores the company unless a uniqueness constraint already
// holds a conflicting row. It reports whether the row was written.
// When setupOwnerID is non-nil the row claims the owner's setup slot.
func (r *Repository) InsertCompany(ctx context.Context, company *models.Company, setupOwnerID *int64) (bool, error) {
	row := rows.CompanyFromDomain(company)
	row.SetupOwnerID = setupOwnerID

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	company.CreatedAt = row.CreatedAt
	return true, nil
}

// InsertCompanyWithOwner writes the company and the owner's membership in one
// transaction. A conflicting company writes nothing and reports false; a
// failed membership insert rolls the company back.
func (r *Repository) InsertCompanyWithOwner(ctx context.Context, company *models.Company, setupOwnerID *int64, owner *models.Employee) (bool, error) {
	var inserted bool
	err := r.WithTransaction(ctx, func(repo *Repository) error {
		var err error
		inserted, err = repo.InsertCompany(ctx, company, setupOwnerID)
		if err != nil || !inserted {
			return err
		}
		return repo.CreateEmployee(ctx, owner)
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *Repository) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return r.firstCompany(ctx, "id = ?", id)
}

// GetCompanyByOwner returns the oldest company owned by ownerID.
func (r *Repository) GetCompanyByOwner(ctx context.Context, ownerID int64) (*models.Company, error) {
	return r.firstCompany(ctx, "owner_id = ?", ownerID)
}

func (r *Repository) GetCompanyBySetupOwner(ctx context.Context, ownerID int64) (*models.Company, error) {
	return r.firstCompany(ctx, "setup_owner_id = ?", ownerID)
}

// GetCompanyByCode expects an upper-cased code; codes are stored upper-cased.
func (r *Repository) GetCompanyByCode(ctx context.Context, code string) (*models.Company, error) {
	return r.firstCompany(ctx, "office_code = ?", code)
}

func (r *Repository) firstCompany(ctx context.Context, query string, args ...interface{}) (*models.Company, error) {
	var row rows.Company
	result := r.db.WithContext(ctx).Where(query, args...).Order("created_at asc").First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return row.ToDomain(), nil
}

func (r *Repository) ListCompaniesByOwner(ctx context.Context, ownerID int64) ([]*models.Company, error) {
	var found []rows.Company
	result := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at asc").
		Find(&found)
	if result.Error != nil {
		return nil, result.Error
	}

	companies := make([]*models.Company, 0, len(found))
	for i := range found {
		companies = append(companies, found[i].ToDomain())
	}
	return companies, nil
}

func (r *Repository) CompanyExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&rows.Company{}).
		Where("office_code = ?", code).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

// DeleteCompanyCascade removes the company with its employees and jobs in one
// transaction. A missing company yields an empty report and deletes nothing.
func (r *Repository) DeleteCompanyCascade(ctx context.Context, id uuid.UUID) (models.DeleteReport, error) {
	var report models.DeleteReport
	err := r.WithTransaction(ctx, func(repo *Repository) error {
		tx := repo.db
		var count int64
		if err := tx.Model(&rows.Company{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}

		jobs := tx.Where("company_id = ?", id).Delete(&rows.Job{})
		if jobs.Error != nil {
			return jobs.Error
		}
		employees := tx.Where("company_id = ?", id).Delete(&rows.Employee{})
		if employees.Error != nil {
			return employees.Error
		}
		company := tx.Where("id = ?", id).Delete(&rows.Company{})
		if company.Error != nil {
			return company.Error
		}

		report = models.DeleteReport{
			Companies: company.RowsAffected,
			Employees: employees.RowsAffected,
			Jobs:      jobs.RowsAffected,
		}
		return nil
	})
	if err != nil {
		return models.DeleteReport{}, err
	}
	return report, nil
}

func (r *Repository) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	row := rows.EmployeeFromDomain(employee)
	result := r.db.WithContext(ctx).Create(row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: employee already linked", e.ErrInvalidInput)
		}
		return result.Error
	}
	employee.CreatedAt = row.CreatedAt
	return nil
}

// FirstOrCreateEmployee inserts the employee unless a row with the same
// (company_id, external_user_id) exists, then returns the stored row. The
// existing row is never modified. created reports whether this call wrote it.
func (r *Repository) FirstOrCreateEmployee(ctx context.Context, employee *models.Employee) (*models.Employee, bool, error) {
	row := rows.EmployeeFromDomain(employee)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}, {Name: "external_user_id"}},
			DoNothing: true,
		}).
		Create(row)
	if result.Error != nil {
		return nil, false, result.Error
	}

	var stored rows.Employee
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND external_user_id = ?", employee.CompanyID, employee.ExternalUserID).
		First(&stored).Error
	if err != nil {
		return nil, false, err
	}

	domainEmployee, err := stored.ToDomain()
	if err != nil {
		return nil, false, err
	}
	return domainEmployee, result.RowsAffected == 1, nil
}

// GetEmployeeByExternalID returns the oldest membership of the identity.
func (r *Repository) GetEmployeeByExternalID(ctx context.Context, externalUserID int64) (*models.Employee, error) {
	var row rows.Employee
	result := r.db.WithContext(ctx).
		Where("external_user_id = ?", externalUserID).
		Order("created_at asc").
		First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return row.ToDomain()
}

func (r *Repository) DeleteEmployeesByExternalID(ctx context.Context, externalUserID int64) (int64, error) {
	result := r.db.WithContext(ctx).Where("external_user_id = ?", externalUserID).Delete(&rows.Employee{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *Repository) CreateJob(ctx context.Context, job *models.Job) error {
	row := rows.JobFromDomain(job)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	job.CreatedAt = row.CreatedAt
	return nil
}

func (r *Repository) ListJobsByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.Job, error) {
	var found []rows.Job
	result := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at desc").
		Find(&found)
	if result.Error != nil {
		return nil, result.Error
	}

	jobs := make([]*models.Job, 0, len(found))
	for i := range found {
		jobs = append(jobs, found[i].ToDomain())
	}
	return jobs, nil
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Exec runs a raw statement, used for maintenance such as truncating tables in tests.
func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	return r.db.WithContext(ctx).Exec(query, params...).Error
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
