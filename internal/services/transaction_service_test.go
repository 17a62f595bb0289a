package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/tokenworks/backend/internal/audit"
	"github.com/tokenworks/backend/internal/models"
)

var transactionColumns = []string{
	"id", "from_account", "to_account", "amount", "direction", "status", "reason",
	"related_project_id", "batch_id", "admin_user_id", "admin_comment", "decided_at",
	"receiver_decision", "receiver_comment", "created_at", "updated_at", "completed_at",
}

func transferRow(id, from, to, amount string, status models.TransactionStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(transactionColumns).
		AddRow(id, from, to, amount, string(models.DirectionTransfer), string(status), "community event",
			nil, nil, nil, nil, nil, nil, nil, now, now, nil)
}

func setupTokenService(t *testing.T) (*TokenService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	ledger := NewLedgerService(db)
	recorder := audit.NewRecorder(db)
	notifier := NewNotificationService(nil)
	service := NewTokenService(db, ledger, recorder, notifier)

	return service, mock, func() { db.Close() }
}

var (
	member = models.ResolvedUser{ID: "sender", IsAdmin: false}
	admin  = models.ResolvedUser{ID: "admin1", IsAdmin: true}
)

func TestTokenService_CreateTransfer(t *testing.T) {
	service, mock, closeDB := setupTokenService(t)
	defer closeDB()

	amount := decimal.NewFromInt(300)

	t.Run("successful transfer creation", func(t *testing.T) {
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

		transaction, err := service.CreateTransfer(context.Background(), "sender", "receiver", amount, "community event", "")
		assert.NoError(t, err)
		assert.Equal(t, models.StatusPendingAdminApproval, transaction.Status)
		assert.Equal(t, models.DirectionTransfer, transaction.Direction)
		assert.Equal(t, "sender", *transaction.FromAccount)
		assert.Equal(t, "receiver", *transaction.ToAccount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient sender balance", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT balance FROM accounts").
			WithArgs("sender").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("100"))
		mock.ExpectRollback()

		_, err := service.CreateTransfer(context.Background(), "sender", "receiver", amount, "community event", "")
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown receiver", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT balance FROM accounts").
			WithArgs("sender").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("1000"))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, err := service.CreateTransfer(context.Background(), "sender", "ghost", amount, "community event", "")

		var notFound *NotFoundError
		assert.True(t, errors.As(err, &notFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sender equals receiver", func(t *testing.T) {
		_, err := service.CreateTransfer(context.Background(), "sender", "sender", amount, "community event", "")

		var validation *ValidationError
		assert.True(t, errors.As(err, &validation))
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := service.CreateTransfer(context.Background(), "sender", "receiver", decimal.Zero, "community event", "")

		var validation *ValidationError
		assert.True(t, errors.As(err, &validation))
	})

	t.Run("missing reason", func(t *testing.T) {
		_, err := service.CreateTransfer(context.Background(), "sender", "receiver", amount, "   ", "")

		var validation *ValidationError
		assert.True(t, errors.As(err, &validation))
	})
}

func TestTokenService_AdminApprove(t *testing.T) {
	service, mock, closeDB := setupTokenService(t)
	defer closeDB()

	t.Run("non-admin is rejected", func(t *testing.T) {
		_, err := service.AdminApprove(context.Background(), member, "tx1", "")

		var forbidden *ForbiddenError
		assert.True(t, errors.As(err, &forbidden))
	})

	t.Run("pending transfer moves to receiver confirmation", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("tx1").
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusPendingAdminApproval))
		mock.ExpectExec("UPDATE transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO audit_events").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		transaction, err := service.AdminApprove(context.Background(), admin, "tx1", "looks fine")
		assert.NoError(t, err)
		assert.Equal(t, models.StatusPendingReceiverConfirm, transaction.Status)
		assert.Equal(t, "admin1", *transaction.AdminUserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("approval from a terminal state is rejected", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("tx1").
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusCompleted))
		mock.ExpectRollback()

		_, err := service.AdminApprove(context.Background(), admin, "tx1", "")

		var invalidState *InvalidStateError
		assert.True(t, errors.As(err, &invalidState))
		assert.Equal(t, models.StatusCompleted, invalidState.Current)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown transaction", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(transactionColumns))
		mock.ExpectRollback()

		_, err := service.AdminApprove(context.Background(), admin, "ghost", "")

		var notFound *NotFoundError
		assert.True(t, errors.As(err, &notFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTokenService_AdminReject(t *testing.T) {
	service, mock, closeDB := setupTokenService(t)
	defer closeDB()

	t.Run("pending transfer is rejected without balance effect", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("tx1").
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusPendingAdminApproval))
		mock.ExpectExec("UPDATE transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO audit_events").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		transaction, err := service.AdminReject(context.Background(), admin, "tx1", "not allowed")
		assert.NoError(t, err)
		assert.Equal(t, models.StatusRejected, transaction.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTokenService_ReceiverConfirm(t *testing.T) {
	service, mock, closeDB := setupTokenService(t)
	defer closeDB()

	receiver := models.ResolvedUser{ID: "receiver"}
	amount := decimal.NewFromInt(300)

	t.Run("confirmation debits sender and credits receiver", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("tx1").
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusPendingReceiverConfirm))

		// Account rows are locked lexicographically before any delta.
		mock.ExpectQuery("SELECT user_id FROM accounts").
			WithArgs("receiver").
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("receiver"))
		mock.ExpectQuery("SELECT user_id FROM accounts").
			WithArgs("sender").
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("sender"))

		// Debit sender
		mock.ExpectQuery("UPDATE accounts").
			WithArgs(amount.Neg(), sqlmock.AnyArg(), "sender").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("700"))
		mock.ExpectExec("INSERT INTO ledger_entries").
			WillReturnResult(sqlmock.NewResult(1, 1))

		// Credit receiver
		mock.ExpectQuery("UPDATE accounts").
			WithArgs(amount, sqlmock.AnyArg(), "receiver").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("800"))
		mock.ExpectExec("INSERT INTO ledger_entries").
			WillReturnResult(sqlmock.NewResult(2, 1))

		mock.ExpectExec("UPDATE transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO audit_events").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		transaction, err := service.ReceiverConfirm(context.Background(), receiver, "tx1", "thanks")
		assert.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, transaction.Status)
		assert.NotNil(t, transaction.CompletedAt)
		assert.Equal(t, models.ReceiverConfirmed, *transaction.ReceiverDecision)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sender balance spent while pending rejects the transfer", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("tx1").
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusPendingReceiverConfirm))

		mock.ExpectQuery("SELECT user_id FROM accounts").
			WithArgs("receiver").
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("receiver"))
		mock.ExpectQuery("SELECT user_id FROM accounts").
			WithArgs("sender").
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("sender"))

		mock.ExpectQuery("UPDATE accounts").
			WithArgs(amount.Neg(), sqlmock.AnyArg(), "sender").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("sender").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		// The rejection commits in the same unit of work.
		mock.ExpectExec("UPDATE transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO audit_events").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		transaction, err := service.ReceiverConfirm(context.Background(), receiver, "tx1", "")
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Equal(t, models.StatusRejected, transaction.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock order is lexicographic regardless of transfer direction", func(t *testing.T) {
		// A zoe->alice transfer must lock alice's row first, exactly as an
		// alice->zoe transfer would, so opposite-direction confirms running
		// concurrently cannot lock the same two rows in opposite order.
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("tx2").
			WillReturnRows(transferRow("tx2", "zoe", "alice", "300", models.StatusPendingReceiverConfirm))

		mock.ExpectQuery("SELECT user_id FROM accounts").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("alice"))
		mock.ExpectQuery("SELECT user_id FROM accounts").
			WithArgs("zoe").
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("zoe"))

		mock.ExpectQuery("UPDATE accounts").
			WithArgs(amount.Neg(), sqlmock.AnyArg(), "zoe").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("700"))
		mock.ExpectExec("INSERT INTO ledger_entries").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("UPDATE accounts").
			WithArgs(amount, sqlmock.AnyArg(), "alice").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("800"))
		mock.ExpectExec("INSERT INTO ledger_entries").
			WillReturnResult(sqlmock.NewResult(2, 1))

		mock.ExpectExec("UPDATE transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO audit_events").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		transaction, err := service.ReceiverConfirm(context.Background(), models.ResolvedUser{ID: "alice"}, "tx2", "")
		assert.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, transaction.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("only the receiver may confirm", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("tx1").
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusPendingReceiverConfirm))
		mock.ExpectRollback()

		_, err := service.ReceiverConfirm(context.Background(), member, "tx1", "")

		var forbidden *ForbiddenError
		assert.True(t, errors.As(err, &forbidden))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("confirmation requires the confirmation stage", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("tx1").
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusPendingAdminApproval))
		mock.ExpectRollback()

		_, err := service.ReceiverConfirm(context.Background(), receiver, "tx1", "")

		var invalidState *InvalidStateError
		assert.True(t, errors.As(err, &invalidState))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTokenService_ReceiverDecline(t *testing.T) {
	service, mock, closeDB := setupTokenService(t)
	defer closeDB()

	receiver := models.ResolvedUser{ID: "receiver"}

	t.Run("decline terminates without balance effect", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("tx1").
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusPendingReceiverConfirm))
		mock.ExpectExec("UPDATE transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO audit_events").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		transaction, err := service.ReceiverDecline(context.Background(), receiver, "tx1", "wrong amount")
		assert.NoError(t, err)
		assert.Equal(t, models.StatusRejected, transaction.Status)
		assert.Equal(t, models.ReceiverDeclined, *transaction.ReceiverDecision)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTokenService_Cancel(t *testing.T) {
	service, mock, closeDB := setupTokenService(t)
	defer closeDB()

	t.Run("sender cancels before approval", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("tx1").
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusPendingAdminApproval))
		mock.ExpectExec("UPDATE transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO audit_events").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		transaction, err := service.Cancel(context.Background(), member, "tx1")
		assert.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, transaction.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("only the sender may cancel", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("tx1").
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusPendingAdminApproval))
		mock.ExpectRollback()

		_, err := service.Cancel(context.Background(), models.ResolvedUser{ID: "receiver"}, "tx1")

		var forbidden *ForbiddenError
		assert.True(t, errors.As(err, &forbidden))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancellation after approval is rejected", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("tx1").
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusPendingReceiverConfirm))
		mock.ExpectRollback()

		_, err := service.Cancel(context.Background(), member, "tx1")

		var invalidState *InvalidStateError
		assert.True(t, errors.As(err, &invalidState))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTokenService_Grant(t *testing.T) {
	service, mock, closeDB := setupTokenService(t)
	defer closeDB()

	amount := decimal.NewFromInt(50)

	t.Run("grant credits immediately", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("UPDATE accounts").
			WithArgs(amount, sqlmock.AnyArg(), "target").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("150"))
		mock.ExpectExec("INSERT INTO ledger_entries").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO audit_events").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		transaction, err := service.Grant(context.Background(), admin, "target", amount, "volunteering", "")
		assert.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, transaction.Status)
		assert.Equal(t, models.DirectionAdminGrant, transaction.Direction)
		assert.NotNil(t, transaction.CompletedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-admin is rejected", func(t *testing.T) {
		_, err := service.Grant(context.Background(), member, "target", amount, "volunteering", "")

		var forbidden *ForbiddenError
		assert.True(t, errors.As(err, &forbidden))
	})
}

func TestTokenService_Deduct(t *testing.T) {
	service, mock, closeDB := setupTokenService(t)
	defer closeDB()

	amount := decimal.NewFromInt(500)

	t.Run("deduction debits immediately", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("UPDATE accounts").
			WithArgs(amount.Neg(), sqlmock.AnyArg(), "target").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("100"))
		mock.ExpectExec("INSERT INTO ledger_entries").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO audit_events").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		transaction, err := service.Deduct(context.Background(), admin, "target", amount, "penalty", "")
		assert.NoError(t, err)
		assert.Equal(t, models.DirectionAdminDeduct, transaction.Direction)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("overdraw fails and leaves no record", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("UPDATE accounts").
			WithArgs(amount.Neg(), sqlmock.AnyArg(), "target").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("target").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := service.Deduct(context.Background(), admin, "target", amount, "penalty", "")
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTokenService_GetTransaction(t *testing.T) {
	service, mock, closeDB := setupTokenService(t)
	defer closeDB()

	t.Run("participant may read", func(t *testing.T) {
		mock.ExpectQuery("FROM transactions WHERE id").
			WithArgs("tx1").
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusCompleted))

		transaction, err := service.GetTransaction(context.Background(), member, "tx1")
		assert.NoError(t, err)
		assert.Equal(t, "tx1", transaction.ID)
	})

	t.Run("outsider is rejected", func(t *testing.T) {
		mock.ExpectQuery("FROM transactions WHERE id").
			WithArgs("tx1").
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusCompleted))

		_, err := service.GetTransaction(context.Background(), models.ResolvedUser{ID: "stranger"}, "tx1")

		var forbidden *ForbiddenError
		assert.True(t, errors.As(err, &forbidden))
	})

	t.Run("admin may read any", func(t *testing.T) {
		mock.ExpectQuery("FROM transactions WHERE id").
			WithArgs("tx1").
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusCompleted))

		_, err := service.GetTransaction(context.Background(), admin, "tx1")
		assert.NoError(t, err)
	})
}

func TestTokenService_ListPendingApprovals(t *testing.T) {
	service, mock, closeDB := setupTokenService(t)
	defer closeDB()

	t.Run("admin only", func(t *testing.T) {
		_, err := service.ListPendingApprovals(context.Background(), member, 20, 0)

		var forbidden *ForbiddenError
		assert.True(t, errors.As(err, &forbidden))
	})

	t.Run("returns oldest first", func(t *testing.T) {
		mock.ExpectQuery("ORDER BY created_at ASC").
			WithArgs(string(models.StatusPendingAdminApproval), 20, 0).
			WillReturnRows(transferRow("tx1", "sender", "receiver", "300", models.StatusPendingAdminApproval))

		transactions, err := service.ListPendingApprovals(context.Background(), admin, 20, 0)
		assert.NoError(t, err)
		assert.Len(t, transactions, 1)
	})
}

func TestTokenService_clampLimit(t *testing.T) {
	service, _, closeDB := setupTokenService(t)
	defer closeDB()

	assert.Equal(t, 20, service.clampLimit(0))
	assert.Equal(t, 20, service.clampLimit(-5))
	assert.Equal(t, 100, service.clampLimit(5000))
	assert.Equal(t, 42, service.clampLimit(42))
}
