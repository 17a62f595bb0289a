package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/tokenworks/backend/internal/middleware"
	"github.com/tokenworks/backend/internal/models"
)

func actorFromRequest(r *http.Request) (models.ResolvedUser, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		return models.ResolvedUser{}, false
	}
	return models.ResolvedUser{ID: userID, IsAdmin: middleware.IsAdmin(r.Context())}, true
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		// Empty body is allowed; required fields are caught by validation.
		return true
	}
	if err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// TransferRequest is the payload for initiating a peer transfer.
type TransferRequest struct {
	Receiver  string          `json:"receiver" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Reason    string          `json:"reason" validate:"required,max=500"`
	ProjectID string          `json:"projectId" validate:"omitempty,max=64"`
}

// DecisionRequest carries the optional comment of an approval, rejection,
// confirmation or decline.
type DecisionRequest struct {
	Comment string `json:"comment" validate:"max=500"`
}

// AdminMutationRequest is the payload for grants, deductions and rewards.
type AdminMutationRequest struct {
	Target    string          `json:"target" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Reason    string          `json:"reason" validate:"required,max=500"`
	ProjectID string          `json:"projectId" validate:"omitempty,max=64"`
}

// CreateTransfer initiates a transfer pending admin approval
// @Summary Create a transfer
// @Description Initiate a token transfer to another user; held for admin approval
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransferRequest true "Transfer request"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /transactions/transfer [post]
func (s *TokenService) HandleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req TransferRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	transaction, err := s.CreateTransfer(r.Context(), actor.ID, req.Receiver, req.Amount, req.Reason, req.ProjectID)
	if err != nil {
		SendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, transaction)
}

func (s *TokenService) decisionHandler(w http.ResponseWriter, r *http.Request, transition func(actor models.ResolvedUser, txID, comment string) (*models.Transaction, error)) {
	actor, ok := actorFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req DecisionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	transaction, err := transition(actor, chi.URLParam(r, "txId"), req.Comment)
	if err != nil && !errors.Is(err, ErrInsufficientBalance) {
		SendServiceError(w, err)
		return
	}
	if errors.Is(err, ErrInsufficientBalance) {
		// The transfer was terminated at commit; report the terminal record.
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":       "insufficient balance",
			"transaction": transaction,
		})
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

// HandleAdminApprove approves a pending transfer
// @Summary Approve a transfer
// @Tags admin
// @Security BearerAuth
// @Param txId path string true "Transaction ID"
// @Param request body DecisionRequest true "Decision"
// @Success 200 {object} models.Transaction
// @Router /admin/transactions/{txId}/approve [post]
func (s *TokenService) HandleAdminApprove(w http.ResponseWriter, r *http.Request) {
	s.decisionHandler(w, r, func(actor models.ResolvedUser, txID, comment string) (*models.Transaction, error) {
		return s.AdminApprove(r.Context(), actor, txID, comment)
	})
}

// HandleAdminReject rejects a pending transfer
// @Summary Reject a transfer
// @Tags admin
// @Security BearerAuth
// @Param txId path string true "Transaction ID"
// @Param request body DecisionRequest true "Decision"
// @Success 200 {object} models.Transaction
// @Router /admin/transactions/{txId}/reject [post]
func (s *TokenService) HandleAdminReject(w http.ResponseWriter, r *http.Request) {
	s.decisionHandler(w, r, func(actor models.ResolvedUser, txID, comment string) (*models.Transaction, error) {
		return s.AdminReject(r.Context(), actor, txID, comment)
	})
}

// HandleReceiverConfirm confirms a transfer and commits the balance movement
// @Summary Confirm a transfer
// @Tags transactions
// @Security BearerAuth
// @Param txId path string true "Transaction ID"
// @Param request body DecisionRequest true "Decision"
// @Success 200 {object} models.Transaction
// @Failure 422 {object} ErrorResponse
// @Router /transactions/{txId}/confirm [post]
func (s *TokenService) HandleReceiverConfirm(w http.ResponseWriter, r *http.Request) {
	s.decisionHandler(w, r, func(actor models.ResolvedUser, txID, comment string) (*models.Transaction, error) {
		return s.ReceiverConfirm(r.Context(), actor, txID, comment)
	})
}

// HandleReceiverDecline declines a transfer awaiting confirmation
// @Summary Decline a transfer
// @Tags transactions
// @Security BearerAuth
// @Param txId path string true "Transaction ID"
// @Param request body DecisionRequest true "Decision"
// @Success 200 {object} models.Transaction
// @Router /transactions/{txId}/decline [post]
func (s *TokenService) HandleReceiverDecline(w http.ResponseWriter, r *http.Request) {
	s.decisionHandler(w, r, func(actor models.ResolvedUser, txID, comment string) (*models.Transaction, error) {
		return s.ReceiverDecline(r.Context(), actor, txID, comment)
	})
}

// HandleCancel withdraws a transfer before admin review
// @Summary Cancel a transfer
// @Tags transactions
// @Security BearerAuth
// @Param txId path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Router /transactions/{txId}/cancel [post]
func (s *TokenService) HandleCancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	transaction, err := s.Cancel(r.Context(), actor, chi.URLParam(r, "txId"))
	if err != nil {
		SendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

// HandleGrant credits tokens to an account
// @Summary Grant tokens
// @Tags admin
// @Security BearerAuth
// @Param request body AdminMutationRequest true "Grant"
// @Success 201 {object} models.Transaction
// @Router /admin/tokens/grant [post]
func (s *TokenService) HandleGrant(w http.ResponseWriter, r *http.Request) {
	s.adminMutationHandler(w, r, s.Grant)
}

// HandleDeduct debits tokens from an account
// @Summary Deduct tokens
// @Tags admin
// @Security BearerAuth
// @Param request body AdminMutationRequest true "Deduction"
// @Success 201 {object} models.Transaction
// @Failure 422 {object} ErrorResponse
// @Router /admin/tokens/deduct [post]
func (s *TokenService) HandleDeduct(w http.ResponseWriter, r *http.Request) {
	s.adminMutationHandler(w, r, s.Deduct)
}

// HandleReward credits a meeting invite reward
// @Summary Credit a meeting invite reward
// @Tags admin
// @Security BearerAuth
// @Param request body AdminMutationRequest true "Reward"
// @Success 201 {object} models.Transaction
// @Router /admin/tokens/rewards [post]
func (s *TokenService) HandleReward(w http.ResponseWriter, r *http.Request) {
	s.adminMutationHandler(w, r, s.Reward)
}

func (s *TokenService) adminMutationHandler(w http.ResponseWriter, r *http.Request, mutate func(ctx context.Context, actor models.ResolvedUser, targetID string, amount decimal.Decimal, reason, projectID string) (*models.Transaction, error)) {
	actor, ok := actorFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req AdminMutationRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	transaction, err := mutate(r.Context(), actor, req.Target, req.Amount, req.Reason, req.ProjectID)
	if err != nil {
		SendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, transaction)
}

// HandleGetTransaction returns one transaction, participant or admin only
// @Summary Get transaction by ID
// @Tags transactions
// @Security BearerAuth
// @Param txId path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{txId} [get]
func (s *TokenService) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	transaction, err := s.GetTransaction(r.Context(), actor, chi.URLParam(r, "txId"))
	if err != nil {
		SendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

// HandleListTransactions lists the caller's transactions with filters
// @Summary List transactions
// @Description Filters: direction, status, projectId, from, to (RFC 3339), limit, offset
// @Tags transactions
// @Security BearerAuth
// @Success 200 {object} object{transactions=[]models.Transaction,count=int}
// @Router /transactions [get]
func (s *TokenService) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	filter := models.TransactionFilter{UserID: actor.ID}
	query := r.URL.Query()

	if direction := query.Get("direction"); direction != "" {
		d := models.Direction(direction)
		if !d.Valid() {
			SendErrorResponse(w, "Unknown direction", http.StatusBadRequest, nil)
			return
		}
		filter.Direction = d
	}
	if status := query.Get("status"); status != "" {
		st := models.TransactionStatus(status)
		if !st.Valid() {
			SendErrorResponse(w, "Unknown status", http.StatusBadRequest, nil)
			return
		}
		filter.Status = st
	}
	filter.ProjectID = query.Get("projectId")
	if from := query.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			SendErrorResponse(w, "Invalid 'from' timestamp", http.StatusBadRequest, nil)
			return
		}
		filter.From = &t
	}
	if to := query.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			SendErrorResponse(w, "Invalid 'to' timestamp", http.StatusBadRequest, nil)
			return
		}
		filter.To = &t
	}
	filter.Limit, filter.Offset = pageParams(query.Get("limit"), query.Get("offset"))

	// Admins may list across all users.
	if actor.IsAdmin && query.Get("all") == "true" {
		filter.UserID = ""
	}

	transactions, err := s.ListTransactions(r.Context(), filter)
	if err != nil {
		SendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// HandleListPendingApprovals lists transfers awaiting admin review, oldest first
// @Summary List pending approvals
// @Tags admin
// @Security BearerAuth
// @Success 200 {object} object{transactions=[]models.Transaction,count=int}
// @Router /admin/transactions/pending-approvals [get]
func (s *TokenService) HandleListPendingApprovals(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	limit, offset := pageParams(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	transactions, err := s.ListPendingApprovals(r.Context(), actor, limit, offset)
	if err != nil {
		SendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// HandleListPendingConfirmations lists transfers awaiting the caller's confirmation
// @Summary List pending confirmations
// @Tags transactions
// @Security BearerAuth
// @Success 200 {object} object{transactions=[]models.Transaction,count=int}
// @Router /transactions/pending-confirmations [get]
func (s *TokenService) HandleListPendingConfirmations(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	limit, offset := pageParams(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	transactions, err := s.ListPendingConfirmations(r.Context(), actor.ID, limit, offset)
	if err != nil {
		SendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// HandleGetAccount returns the caller's balance and initial grant
// @Summary Get own account summary
// @Tags accounts
// @Security BearerAuth
// @Success 200 {object} models.Account
// @Failure 404 {object} ErrorResponse
// @Router /account [get]
func (s *TokenService) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	account, err := s.ledger.GetAccount(r.Context(), actor.ID)
	if err != nil {
		SendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func pageParams(limitStr, offsetStr string) (int, int) {
	limit, offset := 0, 0
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o > 0 {
			offset = o
		}
	}
	return limit, offset
}
