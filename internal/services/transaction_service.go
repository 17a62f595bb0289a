package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tokenworks/backend/internal/audit"
	"github.com/tokenworks/backend/internal/config"
	"github.com/tokenworks/backend/internal/models"
)

// TokenService drives the transaction state machine. Only the terminal
// COMPLETED transition touches balances; every other transition is a pure
// status change committed in its own unit of work together with its audit row.
type TokenService struct {
	db        *sql.DB
	ledger    *LedgerService
	audit     *audit.Recorder
	notifier  *NotificationService
	validator *ValidationHelper
	config    *config.TokenConfig
}

func NewTokenService(db *sql.DB, ledger *LedgerService, recorder *audit.Recorder, notifier *NotificationService) *TokenService {
	return &TokenService{
		db:        db,
		ledger:    ledger,
		audit:     recorder,
		notifier:  notifier,
		validator: NewValidationHelper(),
		config:    config.LoadTokenConfig(),
	}
}

// Audit actions, one per transition.
const (
	ActionTransferCreate  = "TRANSFER_CREATE"
	ActionTransferApprove = "TRANSFER_APPROVE"
	ActionTransferReject  = "TRANSFER_REJECT"
	ActionTransferConfirm = "TRANSFER_CONFIRM"
	ActionTransferDecline = "TRANSFER_DECLINE"
	ActionTransferCancel  = "TRANSFER_CANCEL"
	ActionAdminGrant      = "ADMIN_GRANT"
	ActionAdminDeduct     = "ADMIN_DEDUCT"
	ActionDividendBatch   = "DIVIDEND_BATCH"
	ActionMeetingReward   = "MEETING_REWARD"
)

const objectTransaction = "transaction"

// CreateTransfer initiates a peer transfer. The sender's balance is checked as
// a reservation check only; no funds move until the receiver confirms.
func (s *TokenService) CreateTransfer(ctx context.Context, senderID, receiverID string, amount decimal.Decimal, reason, projectID string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, &ValidationError{Reason: "amount must be positive"}
	}
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Reason: "reason is required"}
	}
	if senderID == receiverID {
		return nil, &ValidationError{Reason: "sender and receiver must differ"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Reservation check, not a debit. The invariant is re-checked atomically
	// at confirm time; funds spent elsewhere while pending reject the commit.
	var senderBalance decimal.Decimal
	err = tx.QueryRow(`SELECT balance FROM accounts WHERE user_id = $1`, senderID).Scan(&senderBalance)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "account", ID: senderID}
	}
	if err != nil {
		return nil, err
	}
	if senderBalance.LessThan(amount) {
		return nil, ErrInsufficientBalance
	}

	var receiverExists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM accounts WHERE user_id = $1)`, receiverID).Scan(&receiverExists); err != nil {
		return nil, err
	}
	if !receiverExists {
		return nil, &NotFoundError{Resource: "account", ID: receiverID}
	}

	now := time.Now()
	transaction := &models.Transaction{
		ID:          uuid.New().String(),
		FromAccount: &senderID,
		ToAccount:   &receiverID,
		Amount:      amount,
		Direction:   models.DirectionTransfer,
		Status:      models.StatusPendingAdminApproval,
		Reason:      reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if projectID != "" {
		transaction.RelatedProjectID = &projectID
	}

	if err := s.insertTransaction(tx, transaction); err != nil {
		return nil, err
	}

	if err := s.audit.RecordTx(tx, senderID, ActionTransferCreate, objectTransaction, transaction.ID,
		fmt.Sprintf("transfer of %s to %s pending approval", amount, receiverID),
		map[string]any{"amount": amount.String(), "receiver": receiverID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationEvent{
		EventType:     EventPendingApproval,
		TransactionID: transaction.ID,
		Recipients:    []string{senderID, receiverID},
		Amount:        amount,
		Reason:        reason,
	})

	return transaction, nil
}

// AdminApprove moves a pending transfer to the receiver-confirmation stage.
func (s *TokenService) AdminApprove(ctx context.Context, actor models.ResolvedUser, txID, comment string) (*models.Transaction, error) {
	if !actor.IsAdmin {
		return nil, &ForbiddenError{Reason: "administrator role required"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	transaction, err := s.lockTransaction(tx, txID)
	if err != nil {
		return nil, err
	}
	if transaction.Status != models.StatusPendingAdminApproval {
		return nil, &InvalidStateError{
			TransactionID: txID,
			Current:       transaction.Status,
			Required:      models.StatusPendingAdminApproval,
			Action:        "approve",
		}
	}

	now := time.Now()
	transaction.Status = models.StatusPendingReceiverConfirm
	transaction.AdminUserID = &actor.ID
	transaction.AdminComment = &comment
	transaction.DecidedAt = &now
	transaction.UpdatedAt = now

	_, err = tx.Exec(`
		UPDATE transactions
		SET status = $1, admin_user_id = $2, admin_comment = $3, decided_at = $4, updated_at = $4
		WHERE id = $5
	`, transaction.Status, actor.ID, comment, now, txID)
	if err != nil {
		return nil, err
	}

	if err := s.audit.RecordTx(tx, actor.ID, ActionTransferApprove, objectTransaction, txID,
		"transfer approved, awaiting receiver confirmation", nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationEvent{
		EventType:     EventPendingConfirm,
		TransactionID: txID,
		Recipients:    transactionParticipants(transaction),
		Amount:        transaction.Amount,
		Reason:        transaction.Reason,
	})

	return transaction, nil
}

// AdminReject terminates a pending transfer before any balance effect.
func (s *TokenService) AdminReject(ctx context.Context, actor models.ResolvedUser, txID, comment string) (*models.Transaction, error) {
	if !actor.IsAdmin {
		return nil, &ForbiddenError{Reason: "administrator role required"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	transaction, err := s.lockTransaction(tx, txID)
	if err != nil {
		return nil, err
	}
	if transaction.Status != models.StatusPendingAdminApproval {
		return nil, &InvalidStateError{
			TransactionID: txID,
			Current:       transaction.Status,
			Required:      models.StatusPendingAdminApproval,
			Action:        "reject",
		}
	}

	now := time.Now()
	transaction.Status = models.StatusRejected
	transaction.AdminUserID = &actor.ID
	transaction.AdminComment = &comment
	transaction.DecidedAt = &now
	transaction.UpdatedAt = now

	_, err = tx.Exec(`
		UPDATE transactions
		SET status = $1, admin_user_id = $2, admin_comment = $3, decided_at = $4, updated_at = $4
		WHERE id = $5
	`, transaction.Status, actor.ID, comment, now, txID)
	if err != nil {
		return nil, err
	}

	if err := s.audit.RecordTx(tx, actor.ID, ActionTransferReject, objectTransaction, txID,
		"transfer rejected by administrator", map[string]any{"comment": comment}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationEvent{
		EventType:     EventRejected,
		TransactionID: txID,
		Recipients:    transactionParticipants(transaction),
		Amount:        transaction.Amount,
		Reason:        transaction.Reason,
	})

	return transaction, nil
}

// ReceiverConfirm is the single atomic commit of a transfer: debit sender,
// credit receiver and stamp COMPLETED, all inside one unit of work. If the
// sender can no longer cover the amount the transaction transitions to
// REJECTED instead, and ErrInsufficientBalance is returned.
func (s *TokenService) ReceiverConfirm(ctx context.Context, actor models.ResolvedUser, txID, comment string) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	transaction, err := s.lockTransaction(tx, txID)
	if err != nil {
		return nil, err
	}
	if transaction.Status != models.StatusPendingReceiverConfirm {
		return nil, &InvalidStateError{
			TransactionID: txID,
			Current:       transaction.Status,
			Required:      models.StatusPendingReceiverConfirm,
			Action:        "confirm",
		}
	}
	if transaction.ToAccount == nil || *transaction.ToAccount != actor.ID {
		return nil, &ForbiddenError{Reason: "only the receiver may confirm this transfer"}
	}

	now := time.Now()

	// Lock both account rows in consistent order to prevent deadlocks between
	// opposite-direction confirms.
	if err := s.ledger.LockAccountsTx(tx, *transaction.FromAccount, *transaction.ToAccount); err != nil {
		return nil, err
	}

	_, err = s.ledger.ApplyDeltaTx(tx, *transaction.FromAccount, transaction.Amount.Neg(), txID)
	if errors.Is(err, ErrInsufficientBalance) {
		// The sender spent the balance elsewhere while the transfer was
		// pending. Terminate the transfer in this same unit of work.
		transaction.Status = models.StatusRejected
		decision := models.ReceiverConfirmed
		transaction.ReceiverDecision = &decision
		transaction.ReceiverComment = &comment
		transaction.UpdatedAt = now

		if _, uerr := tx.Exec(`
			UPDATE transactions
			SET status = $1, receiver_decision = $2, receiver_comment = $3, updated_at = $4
			WHERE id = $5
		`, transaction.Status, decision, comment, now, txID); uerr != nil {
			return nil, uerr
		}
		if aerr := s.audit.RecordTx(tx, actor.ID, ActionTransferReject, objectTransaction, txID,
			"transfer rejected at commit: insufficient sender balance", nil); aerr != nil {
			return nil, aerr
		}
		if cerr := tx.Commit(); cerr != nil {
			return nil, cerr
		}
		s.notifier.Notify(ctx, NotificationEvent{
			EventType:     EventRejected,
			TransactionID: txID,
			Recipients:    transactionParticipants(transaction),
			Amount:        transaction.Amount,
			Reason:        "insufficient balance",
		})
		return transaction, ErrInsufficientBalance
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.ledger.ApplyDeltaTx(tx, *transaction.ToAccount, transaction.Amount, txID); err != nil {
		return nil, err
	}

	decision := models.ReceiverConfirmed
	transaction.Status = models.StatusCompleted
	transaction.ReceiverDecision = &decision
	transaction.ReceiverComment = &comment
	transaction.CompletedAt = &now
	transaction.UpdatedAt = now

	_, err = tx.Exec(`
		UPDATE transactions
		SET status = $1, receiver_decision = $2, receiver_comment = $3, completed_at = $4, updated_at = $4
		WHERE id = $5
	`, transaction.Status, decision, comment, now, txID)
	if err != nil {
		return nil, err
	}

	if err := s.audit.RecordTx(tx, actor.ID, ActionTransferConfirm, objectTransaction, txID,
		fmt.Sprintf("transfer of %s completed", transaction.Amount),
		map[string]any{"amount": transaction.Amount.String()}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationEvent{
		EventType:     EventCompleted,
		TransactionID: txID,
		Recipients:    transactionParticipants(transaction),
		Amount:        transaction.Amount,
		Reason:        transaction.Reason,
	})

	return transaction, nil
}

// ReceiverDecline terminates a transfer awaiting confirmation. No balance
// effect ever occurred.
func (s *TokenService) ReceiverDecline(ctx context.Context, actor models.ResolvedUser, txID, comment string) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	transaction, err := s.lockTransaction(tx, txID)
	if err != nil {
		return nil, err
	}
	if transaction.Status != models.StatusPendingReceiverConfirm {
		return nil, &InvalidStateError{
			TransactionID: txID,
			Current:       transaction.Status,
			Required:      models.StatusPendingReceiverConfirm,
			Action:        "decline",
		}
	}
	if transaction.ToAccount == nil || *transaction.ToAccount != actor.ID {
		return nil, &ForbiddenError{Reason: "only the receiver may decline this transfer"}
	}

	now := time.Now()
	decision := models.ReceiverDeclined
	transaction.Status = models.StatusRejected
	transaction.ReceiverDecision = &decision
	transaction.ReceiverComment = &comment
	transaction.UpdatedAt = now

	_, err = tx.Exec(`
		UPDATE transactions
		SET status = $1, receiver_decision = $2, receiver_comment = $3, updated_at = $4
		WHERE id = $5
	`, transaction.Status, decision, comment, now, txID)
	if err != nil {
		return nil, err
	}

	if err := s.audit.RecordTx(tx, actor.ID, ActionTransferDecline, objectTransaction, txID,
		"transfer declined by receiver", map[string]any{"comment": comment}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationEvent{
		EventType:     EventRejected,
		TransactionID: txID,
		Recipients:    transactionParticipants(transaction),
		Amount:        transaction.Amount,
		Reason:        transaction.Reason,
	})

	return transaction, nil
}

// Cancel withdraws a transfer before the administrator acts. Sender-only.
func (s *TokenService) Cancel(ctx context.Context, actor models.ResolvedUser, txID string) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	transaction, err := s.lockTransaction(tx, txID)
	if err != nil {
		return nil, err
	}
	if transaction.Status != models.StatusPendingAdminApproval {
		return nil, &InvalidStateError{
			TransactionID: txID,
			Current:       transaction.Status,
			Required:      models.StatusPendingAdminApproval,
			Action:        "cancel",
		}
	}
	if transaction.FromAccount == nil || *transaction.FromAccount != actor.ID {
		return nil, &ForbiddenError{Reason: "only the sender may cancel this transfer"}
	}

	now := time.Now()
	transaction.Status = models.StatusCancelled
	transaction.UpdatedAt = now

	_, err = tx.Exec(`
		UPDATE transactions SET status = $1, updated_at = $2 WHERE id = $3
	`, transaction.Status, now, txID)
	if err != nil {
		return nil, err
	}

	if err := s.audit.RecordTx(tx, actor.ID, ActionTransferCancel, objectTransaction, txID,
		"transfer cancelled by sender", nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationEvent{
		EventType:     EventCancelled,
		TransactionID: txID,
		Recipients:    transactionParticipants(transaction),
		Amount:        transaction.Amount,
		Reason:        transaction.Reason,
	})

	return transaction, nil
}

// Grant credits an account immediately. Administrator-only, single step.
func (s *TokenService) Grant(ctx context.Context, actor models.ResolvedUser, targetID string, amount decimal.Decimal, reason, projectID string) (*models.Transaction, error) {
	return s.immediateCredit(ctx, actor, targetID, amount, reason, projectID,
		models.DirectionAdminGrant, ActionAdminGrant, EventAdminGrant)
}

// Reward credits a meeting-invite reward immediately. Administrator-only.
func (s *TokenService) Reward(ctx context.Context, actor models.ResolvedUser, targetID string, amount decimal.Decimal, reason, projectID string) (*models.Transaction, error) {
	return s.immediateCredit(ctx, actor, targetID, amount, reason, projectID,
		models.DirectionReward, ActionMeetingReward, EventReward)
}

func (s *TokenService) immediateCredit(ctx context.Context, actor models.ResolvedUser, targetID string, amount decimal.Decimal, reason, projectID string, direction models.Direction, action, eventType string) (*models.Transaction, error) {
	if !actor.IsAdmin {
		return nil, &ForbiddenError{Reason: "administrator role required"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Reason: "amount must be positive"}
	}
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Reason: "reason is required"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()
	transaction := &models.Transaction{
		ID:          uuid.New().String(),
		ToAccount:   &targetID,
		Amount:      amount,
		Direction:   direction,
		Status:      models.StatusCompleted,
		Reason:      reason,
		AdminUserID: &actor.ID,
		DecidedAt:   &now,
		CreatedAt:   now,
		UpdatedAt:   now,
		CompletedAt: &now,
	}
	if projectID != "" {
		transaction.RelatedProjectID = &projectID
	}

	if err := s.insertTransaction(tx, transaction); err != nil {
		return nil, err
	}

	if _, err := s.ledger.ApplyDeltaTx(tx, targetID, amount, transaction.ID); err != nil {
		return nil, err
	}

	if err := s.audit.RecordTx(tx, actor.ID, action, objectTransaction, transaction.ID,
		fmt.Sprintf("%s of %s to %s", strings.ToLower(string(direction)), amount, targetID),
		map[string]any{"amount": amount.String(), "target": targetID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationEvent{
		EventType:     eventType,
		TransactionID: transaction.ID,
		Recipients:    []string{targetID},
		Amount:        amount,
		Reason:        reason,
	})

	return transaction, nil
}

// Deduct debits an account immediately. Administrator-only, and still subject
// to the non-negative invariant: an overdraw fails without creating a record.
func (s *TokenService) Deduct(ctx context.Context, actor models.ResolvedUser, targetID string, amount decimal.Decimal, reason, projectID string) (*models.Transaction, error) {
	if !actor.IsAdmin {
		return nil, &ForbiddenError{Reason: "administrator role required"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Reason: "amount must be positive"}
	}
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Reason: "reason is required"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()
	transaction := &models.Transaction{
		ID:          uuid.New().String(),
		FromAccount: &targetID,
		Amount:      amount,
		Direction:   models.DirectionAdminDeduct,
		Status:      models.StatusCompleted,
		Reason:      reason,
		AdminUserID: &actor.ID,
		DecidedAt:   &now,
		CreatedAt:   now,
		UpdatedAt:   now,
		CompletedAt: &now,
	}
	if projectID != "" {
		transaction.RelatedProjectID = &projectID
	}

	if err := s.insertTransaction(tx, transaction); err != nil {
		return nil, err
	}

	if _, err := s.ledger.ApplyDeltaTx(tx, targetID, amount.Neg(), transaction.ID); err != nil {
		// Rollback discards the transaction row too: a failed deduction
		// leaves no trace beyond the error returned to the caller.
		return nil, err
	}

	if err := s.audit.RecordTx(tx, actor.ID, ActionAdminDeduct, objectTransaction, transaction.ID,
		fmt.Sprintf("deduction of %s from %s", amount, targetID),
		map[string]any{"amount": amount.String(), "target": targetID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationEvent{
		EventType:     EventAdminDeduct,
		TransactionID: transaction.ID,
		Recipients:    []string{targetID},
		Amount:        amount,
		Reason:        reason,
	})

	return transaction, nil
}

// GetTransaction returns one transaction, visible to participants and admins.
func (s *TokenService) GetTransaction(ctx context.Context, actor models.ResolvedUser, txID string) (*models.Transaction, error) {
	transaction, err := s.fetchTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && !transaction.Involves(actor.ID) {
		return nil, &ForbiddenError{Reason: "not a participant in this transaction"}
	}
	return transaction, nil
}

// ListTransactions returns transactions matching the filter, newest first.
func (s *TokenService) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	var conditions []string
	var args []any
	argIndex := 1

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("(from_account = $%d OR to_account = $%d)", argIndex, argIndex))
		args = append(args, filter.UserID)
		argIndex++
	}
	if filter.Direction != "" {
		conditions = append(conditions, fmt.Sprintf("direction = $%d", argIndex))
		args = append(args, filter.Direction)
		argIndex++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.ProjectID != "" {
		conditions = append(conditions, fmt.Sprintf("related_project_id = $%d", argIndex))
		args = append(args, filter.ProjectID)
		argIndex++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *filter.From)
		argIndex++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIndex))
		args = append(args, *filter.To)
		argIndex++
	}

	query := selectTransactionColumns + " FROM transactions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, s.clampLimit(filter.Limit), filter.Offset)

	return s.queryTransactions(ctx, query, args...)
}

// ListPendingApprovals returns PENDING_ADMIN_APPROVAL transfers oldest first,
// for first-in-first-out review. Administrator-only.
func (s *TokenService) ListPendingApprovals(ctx context.Context, actor models.ResolvedUser, limit, offset int) ([]models.Transaction, error) {
	if !actor.IsAdmin {
		return nil, &ForbiddenError{Reason: "administrator role required"}
	}
	query := selectTransactionColumns + `
		FROM transactions
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3`
	return s.queryTransactions(ctx, query, models.StatusPendingAdminApproval, s.clampLimit(limit), offset)
}

// ListPendingConfirmations returns the transfers awaiting the user's
// confirmation, oldest first.
func (s *TokenService) ListPendingConfirmations(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	query := selectTransactionColumns + `
		FROM transactions
		WHERE status = $1 AND to_account = $2
		ORDER BY created_at ASC
		LIMIT $3 OFFSET $4`
	return s.queryTransactions(ctx, query, models.StatusPendingReceiverConfirm, userID, s.clampLimit(limit), offset)
}

// Query plumbing

const selectTransactionColumns = `
	SELECT id, from_account, to_account, amount, direction, status, reason,
	       related_project_id, batch_id, admin_user_id, admin_comment, decided_at,
	       receiver_decision, receiver_comment, created_at, updated_at, completed_at`

func (s *TokenService) insertTransaction(tx *sql.Tx, t *models.Transaction) error {
	_, err := tx.Exec(`
		INSERT INTO transactions
		(id, from_account, to_account, amount, direction, status, reason,
		 related_project_id, batch_id, admin_user_id, admin_comment, decided_at,
		 receiver_decision, receiver_comment, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, t.ID, t.FromAccount, t.ToAccount, t.Amount, t.Direction, t.Status, t.Reason,
		t.RelatedProjectID, t.BatchID, t.AdminUserID, t.AdminComment, t.DecidedAt,
		t.ReceiverDecision, t.ReceiverComment, t.CreatedAt, t.UpdatedAt, t.CompletedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.FromAccount, &t.ToAccount, &t.Amount, &t.Direction,
		&t.Status, &t.Reason, &t.RelatedProjectID, &t.BatchID, &t.AdminUserID,
		&t.AdminComment, &t.DecidedAt, &t.ReceiverDecision, &t.ReceiverComment,
		&t.CreatedAt, &t.UpdatedAt, &t.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TokenService) fetchTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx, selectTransactionColumns+` FROM transactions WHERE id = $1`, txID)
	transaction, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "transaction", ID: txID}
	}
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// lockTransaction reads a transaction row FOR UPDATE so that two transitions
// can never race on the same id.
func (s *TokenService) lockTransaction(tx *sql.Tx, txID string) (*models.Transaction, error) {
	row := tx.QueryRow(selectTransactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, txID)
	transaction, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "transaction", ID: txID}
	}
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *TokenService) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

func (s *TokenService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.config.DefaultPageSize
	}
	if limit > s.config.MaxPageSize {
		return s.config.MaxPageSize
	}
	return limit
}

func transactionParticipants(t *models.Transaction) []string {
	recipients := []string{}
	if t.FromAccount != nil {
		recipients = append(recipients, *t.FromAccount)
	}
	if t.ToAccount != nil {
		recipients = append(recipients, *t.ToAccount)
	}
	return recipients
}
