package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/artlix/backend/internal/jobbot/auth"
	"github.com/artlix/backend/internal/jobbot/directory"
	e "github.com/artlix/backend/internal/jobbot/errors"
	"github.com/artlix/backend/internal/jobbot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompanyLookup resolves a company by its office code.
type CompanyLookup interface {
	GetCompanyByCode(ctx context.Context, code string) (*models.Company, error)
}

// JobLister lists a company's jobs.
type JobLister interface {
	ListJobs(ctx context.Context, companyID uuid.UUID) ([]*models.Job, error)
}

// OperatorHandler serves the read-only operator API.
type OperatorHandler struct {
	companies CompanyLookup
	jobs      JobLister
	logger    *zap.Logger
}

func NewOperatorHandler(companies CompanyLookup, jobs JobLister, logger *zap.Logger) *OperatorHandler {
	return &OperatorHandler{
		companies: companies,
		jobs:      jobs,
		logger:    logger.Named("operator_api"),
	}
}

// ListJobs handles GET /v1/companies/{code}/jobs. Only the company owner
// named by the token subject may read them.
func (h *OperatorHandler) ListJobs(w http.ResponseWriter, r *http.Request, params map[string]string) {
	ctx := r.Context()
	ownerID, ok := auth.OwnerFromContext(ctx)
	if !ok {
		writeError(w, fmt.Errorf("%w: token subject is not an owner id", e.ErrForbidden), h.logger)
		return
	}

	company, err := h.companies.GetCompanyByCode(ctx, params["code"])
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	if err := directory.RequireOwner(company, ownerID); err != nil {
		writeError(w, err, h.logger)
		return
	}

	jobs, err := h.jobs.ListJobs(ctx, company.ID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, modelToResponse(company, jobs), h.logger)
}

// Health handles GET /api/health.
func (h *OperatorHandler) Health(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}
