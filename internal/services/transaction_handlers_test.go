package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/tokenworks/backend/internal/middleware"
	"github.com/tokenworks/backend/internal/models"
)

func authed(req *http.Request, userID string, isAdmin bool) *http.Request {
	role := "member"
	if isAdmin {
		role = "admin"
	}
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	ctx = context.WithValue(ctx, middleware.RoleKey, role)
	return req.WithContext(ctx)
}

func TestHandleCreateTransfer(t *testing.T) {
	service, mock, closeDB := setupTokenService(t)
	defer closeDB()

	t.Run("unauthenticated request", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/transactions/transfer", strings.NewReader(`{}`))
		w := httptest.NewRecorder()

		service.HandleCreateTransfer(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		req := authed(httptest.NewRequest("POST", "/api/v1/transactions/transfer",
			strings.NewReader(`{"amount":"100"}`)), "sender", false)
		w := httptest.NewRecorder()

		service.HandleCreateTransfer(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("created transfer is pending approval", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT balance FROM accounts").
			WithArgs("sender").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("1000"))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("receiver").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectExec("INSERT INTO transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO audit_events").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		body := `{"receiver":"receiver","amount":"300","reason":"community event"}`
		req := authed(httptest.NewRequest("POST", "/api/v1/transactions/transfer",
			strings.NewReader(body)), "sender", false)
		w := httptest.NewRecorder()

		service.HandleCreateTransfer(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), string(models.StatusPendingAdminApproval))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient balance maps to 422", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT balance FROM accounts").
			WithArgs("sender").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("10"))
		mock.ExpectRollback()

		body := `{"receiver":"receiver","amount":"300","reason":"community event"}`
		req := authed(httptest.NewRequest("POST", "/api/v1/transactions/transfer",
			strings.NewReader(body)), "sender", false)
		w := httptest.NewRecorder()

		service.HandleCreateTransfer(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestHandleReceiverConfirm_RoutesParam(t *testing.T) {
	service, mock, closeDB := setupTokenService(t)
	defer closeDB()

	r := chi.NewRouter()
	r.Post("/transactions/{txId}/confirm", service.HandleReceiverConfirm)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("tx1").
		WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusPendingAdminApproval))
	mock.ExpectRollback()

	req := authed(httptest.NewRequest("POST", "/transactions/tx1/confirm",
		strings.NewReader(`{"comment":"ok"}`)), "receiver", false)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	// Still pending admin approval, so confirmation conflicts.
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleListTransactions(t *testing.T) {
	service, mock, closeDB := setupTokenService(t)
	defer closeDB()

	t.Run("unknown direction filter", func(t *testing.T) {
		req := authed(httptest.NewRequest("GET", "/api/v1/transactions?direction=REFUND", nil), "sender", false)
		w := httptest.NewRecorder()

		service.HandleListTransactions(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid from timestamp", func(t *testing.T) {
		req := authed(httptest.NewRequest("GET", "/api/v1/transactions?from=yesterday", nil), "sender", false)
		w := httptest.NewRecorder()

		service.HandleListTransactions(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("lists own transactions", func(t *testing.T) {
		mock.ExpectQuery("FROM transactions").
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusCompleted))

		req := authed(httptest.NewRequest("GET", "/api/v1/transactions", nil), "sender", false)
		w := httptest.NewRecorder()

		service.HandleListTransactions(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":1`)
	})
}

func TestHandleGetAccount(t *testing.T) {
	service, mock, closeDB := setupTokenService(t)
	defer closeDB()

	mock.ExpectQuery("SELECT user_id, balance, initial_amount").
		WithArgs("sender").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance", "initial_amount", "created_at", "updated_at"}))

	req := authed(httptest.NewRequest("GET", "/api/v1/account", nil), "sender", false)
	w := httptest.NewRecorder()

	service.HandleGetAccount(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
