package db

import (
	"context"
	"testing"
	"time"

	rows "github.com/artlix/backend/internal/jobbot/db/models"
	e "github.com/artlix/backend/internal/jobbot/errors"
	"github.com/artlix/backend/internal/jobbot/models"
	"github.com/artlix/backend/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupTestDB initializes an in-memory SQLite database for testing.
func SetupTestDB(t *testing.T) *Repository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")

	// every pooled connection would otherwise get its own empty in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migrate(db), "failed to migrate test database")

	repo := &Repository{db: db}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newCompany(ownerID int64, code string) *models.Company {
	return &models.Company{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Title:      "Company " + code,
		OfficeCode: code,
	}
}

func mustInsertCompany(t *testing.T, repo *Repository, c *models.Company) {
	inserted, err := repo.InsertCompany(context.Background(), c, nil)
	require.NoError(t, err)
	require.True(t, inserted)
}

func TestInsertCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := newCompany(100, "ABC123")
	inserted, err := repo.InsertCompany(ctx, company, nil)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.False(t, company.CreatedAt.IsZero(), "CreatedAt should be populated")

	retrieved, err := repo.GetCompany(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, company.Title, retrieved.Title)
	assert.Equal(t, int64(100), retrieved.OwnerID)
	assert.Equal(t, "ABC123", retrieved.OfficeCode)
}

func TestInsertCompany_CodeConflictIsNotWritten(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	mustInsertCompany(t, repo, newCompany(100, "ABC123"))

	inserted, err := repo.InsertCompany(ctx, newCompany(200, "ABC123"), nil)
	require.NoError(t, err)
	assert.False(t, inserted, "duplicate office code must not be inserted")

	companies, err := repo.ListCompaniesByOwner(ctx, 200)
	require.NoError(t, err)
	assert.Empty(t, companies)
}

func TestInsertCompany_SetupSlotIsClaimedOnce(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	first := newCompany(7, "AAAAAA")
	inserted, err := repo.InsertCompany(ctx, first, utils.Ptr(int64(7)))
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = repo.InsertCompany(ctx, newCompany(7, "BBBBBB"), utils.Ptr(int64(7)))
	require.NoError(t, err)
	assert.False(t, inserted, "a second setup company for the same owner must not be written")

	// companies created outside setup do not claim the slot
	mustInsertCompany(t, repo, newCompany(7, "CCCCCC"))

	setup, err := repo.GetCompanyBySetupOwner(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first.ID, setup.ID)

	companies, err := repo.ListCompaniesByOwner(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, companies, 2)
}

func TestGetCompanyNotFound(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	_, err := repo.GetCompany(ctx, uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound)

	_, err = repo.GetCompanyByCode(ctx, "NOPE00")
	assert.ErrorIs(t, err, e.ErrNotFound)

	_, err = repo.GetCompanyByOwner(ctx, 42)
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestGetCompanyByOwnerReturnsOldest(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	older := newCompany(5, "OLD001")
	older.CreatedAt = time.Now().Add(-time.Hour)
	mustInsertCompany(t, repo, older)
	mustInsertCompany(t, repo, newCompany(5, "NEW001"))

	got, err := repo.GetCompanyByOwner(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)
}

func TestCompanyExistsByCode(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	mustInsertCompany(t, repo, newCompany(1, "ZZZ999"))

	exists, err := repo.CompanyExistsByCode(ctx, "ZZZ999")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.CompanyExistsByCode(ctx, "YYY888")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFirstOrCreateEmployee(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := newCompany(1, "JOIN01")
	mustInsertCompany(t, repo, company)

	first, created, err := repo.FirstOrCreateEmployee(ctx, &models.Employee{
		ID:             uuid.New(),
		CompanyID:      company.ID,
		ExternalUserID: 55,
		DisplayName:    "Jane",
		Role:           models.RoleEmployee,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Jane", first.DisplayName)

	second, created, err := repo.FirstOrCreateEmployee(ctx, &models.Employee{
		ID:             uuid.New(),
		CompanyID:      company.ID,
		ExternalUserID: 55,
		DisplayName:    "Janet",
		Role:           models.RoleEmployee,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Jane", second.DisplayName, "existing name must be preserved")

	var count int64
	require.NoError(t, repo.db.Model(&rows.Employee{}).Where("external_user_id = ?", 55).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetEmployeeRejectsUnknownRole(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.db.Create(&rows.Employee{
		ID:             uuid.New(),
		CompanyID:      uuid.New(),
		ExternalUserID: 9,
		DisplayName:    "Ghost",
		Role:           "admin",
	}).Error)

	_, err := repo.GetEmployeeByExternalID(ctx, 9)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, e.ErrNotFound)
}

func TestDeleteEmployeesByExternalID(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := newCompany(1, "LEAVE1")
	mustInsertCompany(t, repo, company)
	require.NoError(t, repo.CreateEmployee(ctx, &models.Employee{
		ID: uuid.New(), CompanyID: company.ID, ExternalUserID: 77, DisplayName: "Sam", Role: models.RoleEmployee,
	}))

	deleted, err := repo.DeleteEmployeesByExternalID(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetEmployeeByExternalID(ctx, 77)
	assert.ErrorIs(t, err, e.ErrNotFound)

	deleted, err = repo.DeleteEmployeesByExternalID(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestDeleteCompanyCascade(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	target := newCompany(1, "DEL001")
	other := newCompany(2, "KEEP01")
	mustInsertCompany(t, repo, target)
	mustInsertCompany(t, repo, other)

	for i, companyID := range []uuid.UUID{target.ID, target.ID, other.ID} {
		employee := &models.Employee{
			ID: uuid.New(), CompanyID: companyID, ExternalUserID: int64(100 + i), DisplayName: "E", Role: models.RoleEmployee,
		}
		require.NoError(t, repo.CreateEmployee(ctx, employee))
		require.NoError(t, repo.CreateJob(ctx, &models.Job{
			ID: uuid.New(), CompanyID: companyID, CreatedByEmployeeID: employee.ID,
			Title: "New job", RawText: "some job text", Status: models.JobStatusNew,
		}))
	}

	report, err := repo.DeleteCompanyCascade(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeleteReport{Companies: 1, Employees: 2, Jobs: 2}, report)

	_, err = repo.GetCompany(ctx, target.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)

	jobs, err := repo.ListJobsByCompany(ctx, target.ID)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	kept, err := repo.ListJobsByCompany(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestDeleteCompanyCascade_MissingCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	orphanCompany := uuid.New()
	require.NoError(t, repo.CreateEmployee(ctx, &models.Employee{
		ID: uuid.New(), CompanyID: orphanCompany, ExternalUserID: 1, DisplayName: "O", Role: models.RoleEmployee,
	}))

	report, err := repo.DeleteCompanyCascade(ctx, orphanCompany)
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.Total())

	// no cascade happened for the missing company id
	_, err = repo.GetEmployeeByExternalID(ctx, 1)
	assert.NoError(t, err)
}

func TestCreateJobRoundTrip(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	when := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	job := &models.Job{
		ID:                  uuid.New(),
		CompanyID:           uuid.New(),
		CreatedByEmployeeID: uuid.New(),
		Title:               "deck",
		Description:         "client: Ana, deck 5k tomorrow",
		Notes:               "client: Ana, deck 5k tomorrow",
		ScheduledFor:        &when,
		ClientName:          utils.Ptr("Ana"),
		Budget:              utils.Ptr(5000.0),
		RawText:             "client: Ana, deck 5k tomorrow",
		Status:              models.JobStatusNew,
	}
	require.NoError(t, repo.CreateJob(ctx, job))

	jobs, err := repo.ListJobsByCompany(ctx, job.CompanyID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	got := jobs[0]
	assert.Equal(t, job.RawText, got.RawText)
	assert.Equal(t, models.JobStatusNew, got.Status)
	require.NotNil(t, got.ClientName)
	assert.Equal(t, "Ana", *got.ClientName)
	assert.Nil(t, got.Location)
	require.NotNil(t, got.ScheduledFor)
	assert.True(t, when.Equal(*got.ScheduledFor))
}

func TestNewRepository_UnsupportedDriver(t *testing.T) {
	_, err := NewRepository(&Config{Driver: "oracle"})
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestNewRepository_SQLiteMemory(t *testing.T) {
	repo, err := NewRepository(&Config{Driver: DriverSQLite, DBName: ":memory:"})
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	company := newCompany(1, "MEM001")
	inserted, err := repo.InsertCompany(ctx, company, nil)
	require.NoError(t, err)
	require.True(t, inserted)

	// the schema and the row must be visible on every later query
	got, err := repo.GetCompanyByCode(ctx, "MEM001")
	require.NoError(t, err)
	assert.Equal(t, company.ID, got.ID)
}

func TestRepository_Exec(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	_, err := repo.InsertCompany(ctx, newCompany(1, "EXE001"), nil)
	require.NoError(t, err)

	require.NoError(t, repo.Exec(ctx, "DELETE FROM companies WHERE office_code = ?", "EXE001"))

	exists, err := repo.CompanyExistsByCode(ctx, "EXE001")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Error(t, repo.Exec(ctx, "DELETE FROM no_such_table"))
}

func ownerOf(company *models.Company) *models.Employee {
	return &models.Employee{
		ID:             uuid.New(),
		CompanyID:      company.ID,
		ExternalUserID: company.OwnerID,
		DisplayName:    "Owner",
		Role:           models.RoleOwner,
	}
}

func TestInsertCompanyWithOwner(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := newCompany(40, "WITH01")
	inserted, err := repo.InsertCompanyWithOwner(ctx, company, utils.Ptr(int64(40)), ownerOf(company))
	require.NoError(t, err)
	assert.True(t, inserted)

	owner, err := repo.GetEmployeeByExternalID(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, company.ID, owner.CompanyID)
	assert.Equal(t, models.RoleOwner, owner.Role)

	// a second setup for the same owner hits the slot and writes nothing
	other := newCompany(40, "WITH02")
	inserted, err = repo.InsertCompanyWithOwner(ctx, other, utils.Ptr(int64(40)), ownerOf(other))
	require.NoError(t, err)
	assert.False(t, inserted)

	var members int64
	require.NoError(t, repo.db.Model(&rows.Employee{}).Where("external_user_id = ?", 40).Count(&members).Error)
	assert.Equal(t, int64(1), members)
}

func TestInsertCompanyWithOwner_RollsBackOnMembershipFailure(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	existing := newCompany(1, "KEEP01")
	mustInsertCompany(t, repo, existing)
	taken := ownerOf(existing)
	require.NoError(t, repo.CreateEmployee(ctx, taken))

	company := newCompany(41, "ROLL01")
	owner := ownerOf(company)
	owner.ID = taken.ID

	inserted, err := repo.InsertCompanyWithOwner(ctx, company, utils.Ptr(int64(41)), owner)
	require.Error(t, err)
	assert.False(t, inserted)

	_, err = repo.GetCompany(ctx, company.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)
	_, err = repo.GetCompanyBySetupOwner(ctx, 41)
	assert.ErrorIs(t, err, e.ErrNotFound)
}
