package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	e "github.com/artlix/backend/internal/jobbot/errors"
	"github.com/artlix/backend/internal/jobbot/models"
	"go.uber.org/zap"
)

type companyResponse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	OfficeCode string `json:"office_code"`
}

type jobResponse struct {
	ID                  string   `json:"id"`
	CreatedByEmployeeID string   `json:"created_by_employee_id"`
	Title               string   `json:"title"`
	Notes               string   `json:"notes"`
	ClientName          *string  `json:"client_name"`
	Location            *string  `json:"location"`
	Budget              *float64 `json:"budget"`
	ScheduledFor        *string  `json:"scheduled_for"`
	RawText             string   `json:"raw_text"`
	Status              string   `json:"status"`
	CreatedAt           string   `json:"created_at"`
}

type listJobsResponse struct {
	Company companyResponse `json:"company"`
	Jobs    []jobResponse   `json:"jobs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// modelToResponse converts a company and its jobs into the operator API shape.
func modelToResponse(company *models.Company, jobs []*models.Job) listJobsResponse {
	resp := listJobsResponse{
		Company: companyResponse{
			ID:         company.ID.String(),
			Title:      company.Title,
			OfficeCode: company.OfficeCode,
		},
		Jobs: make([]jobResponse, 0, len(jobs)),
	}
	for _, job := range jobs {
		item := jobResponse{
			ID:                  job.ID.String(),
			CreatedByEmployeeID: job.CreatedByEmployeeID.String(),
			Title:               job.Title,
			Notes:               job.Notes,
			ClientName:          job.ClientName,
			Location:            job.Location,
			Budget:              job.Budget,
			RawText:             job.RawText,
			Status:              string(job.Status),
			CreatedAt:           job.CreatedAt.UTC().Format(time.RFC3339),
		}
		if job.ScheduledFor != nil {
			formatted := job.ScheduledFor.UTC().Format(time.RFC3339)
			item.ScheduledFor = &formatted
		}
		resp.Jobs = append(resp.Jobs, item)
	}
	return resp
}

// mapServiceError maps domain or repository errors to HTTP status codes.
func mapServiceError(err error) int {
	switch {
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, e.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, e.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := mapServiceError(err)
	message := http.StatusText(status)
	if status == http.StatusInternalServerError {
		logger.Error("Internal server error", zap.Error(err))
	} else {
		message = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: message}, logger)
}
