package services

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tokenworks/backend/internal/models"
)

// DividendRequest is the payload for a dividend batch.
type DividendRequest struct {
	ProjectID string                 `json:"projectId" validate:"required,max=64"`
	Reason    string                 `json:"reason" validate:"required,max=500"`
	Entries   []models.DividendEntry `json:"entries" validate:"required,min=1,dive"`
}

// HandleDistribute distributes a dividend batch
// @Summary Distribute a project dividend
// @Description Credits every recipient atomically; a single bad entry rolls back the whole batch
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DividendRequest true "Dividend batch"
// @Success 201 {object} object{transactions=[]models.Transaction,count=int}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/tokens/dividends [post]
func (s *DividendService) HandleDistribute(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req DividendRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := NewValidationHelper().ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	transactions, err := s.Distribute(r.Context(), actor, req.ProjectID, req.Reason, req.Entries)
	if err != nil {
		SendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// HandleListAccounts lists all accounts
// @Summary List accounts
// @Tags admin
// @Security BearerAuth
// @Success 200 {object} object{accounts=[]models.Account,count=int}
// @Router /admin/accounts [get]
func (s *StatsService) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	limit, offset := pageParams(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if limit == 0 {
		limit = 50
	}

	accounts, err := s.ListAccounts(r.Context(), actor, limit, offset)
	if err != nil {
		SendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// HandleGlobalStatistics returns the system-wide rollup
// @Summary Global token statistics
// @Tags admin
// @Security BearerAuth
// @Success 200 {object} models.GlobalStatistics
// @Router /admin/statistics [get]
func (s *StatsService) HandleGlobalStatistics(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	stats, err := s.GlobalStatistics(r.Context(), actor)
	if err != nil {
		SendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleProjectStatistics returns the rollup for one project
// @Summary Per-project token statistics
// @Tags admin
// @Security BearerAuth
// @Param projectId path string true "Project ID"
// @Success 200 {object} models.ProjectStatistics
// @Failure 404 {object} ErrorResponse
// @Router /admin/statistics/projects/{projectId} [get]
func (s *StatsService) HandleProjectStatistics(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	stats, err := s.ProjectStatistics(r.Context(), actor, chi.URLParam(r, "projectId"))
	if err != nil {
		SendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
