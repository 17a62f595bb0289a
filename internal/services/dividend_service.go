package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tokenworks/backend/internal/audit"
	"github.com/tokenworks/backend/internal/config"
	"github.com/tokenworks/backend/internal/models"
)

// DividendService distributes a project payout across N recipients as one
// indivisible operation. Credits have no debit counterpart at the account
// level; dividends are sourced from outside the modeled account set.
type DividendService struct {
	db       *sql.DB
	ledger   *LedgerService
	audit    *audit.Recorder
	notifier *NotificationService
	config   *config.TokenConfig
}

func NewDividendService(db *sql.DB, ledger *LedgerService, recorder *audit.Recorder, notifier *NotificationService) *DividendService {
	return &DividendService{
		db:       db,
		ledger:   ledger,
		audit:    recorder,
		notifier: notifier,
		config:   config.LoadTokenConfig(),
	}
}

// Distribute creates one COMPLETED DIVIDEND transaction per recipient, all
// sharing a batch id, and credits every recipient inside one unit of work.
// If any single credit is impossible the whole batch rolls back; no partial
// dividend is ever visible.
func (s *DividendService) Distribute(ctx context.Context, actor models.ResolvedUser, projectID, reason string, entries []models.DividendEntry) ([]models.Transaction, error) {
	if !actor.IsAdmin {
		return nil, &ForbiddenError{Reason: "administrator role required"}
	}
	if len(entries) == 0 {
		return nil, &ValidationError{Reason: "at least one recipient is required"}
	}
	if len(entries) > s.config.MaxDividendRecipients {
		return nil, &ValidationError{Reason: fmt.Sprintf("batch exceeds %d recipients", s.config.MaxDividendRecipients)}
	}
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Reason: "reason is required"}
	}
	if strings.TrimSpace(projectID) == "" {
		return nil, &ValidationError{Reason: "project id is required"}
	}
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.Recipient == "" {
			return nil, &ValidationError{Reason: "recipient is required for every entry"}
		}
		if !entry.Amount.IsPositive() {
			return nil, &ValidationError{Reason: fmt.Sprintf("amount for recipient %s must be positive", entry.Recipient)}
		}
		if seen[entry.Recipient] {
			return nil, &ValidationError{Reason: fmt.Sprintf("recipient %s listed more than once", entry.Recipient)}
		}
		seen[entry.Recipient] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()
	batchID := uuid.New().String()
	transactions := make([]models.Transaction, 0, len(entries))
	credits := make([]BatchEntry, 0, len(entries))
	total := decimal.Zero

	for _, entry := range entries {
		recipient := entry.Recipient
		transaction := models.Transaction{
			ID:               uuid.New().String(),
			ToAccount:        &recipient,
			Amount:           entry.Amount,
			Direction:        models.DirectionDividend,
			Status:           models.StatusCompleted,
			Reason:           reason,
			RelatedProjectID: &projectID,
			BatchID:          &batchID,
			AdminUserID:      &actor.ID,
			DecidedAt:        &now,
			CreatedAt:        now,
			UpdatedAt:        now,
			CompletedAt:      &now,
		}
		if entry.Note != "" {
			note := entry.Note
			transaction.ReceiverComment = &note
		}

		if err := s.insertTransaction(tx, &transaction); err != nil {
			return nil, err
		}

		credits = append(credits, BatchEntry{AccountID: recipient, Delta: entry.Amount, TransactionID: transaction.ID})
		transactions = append(transactions, transaction)
		total = total.Add(entry.Amount)
	}

	if _, err := s.ledger.ApplyBatchTx(tx, credits); err != nil {
		return nil, err
	}

	if err := s.audit.RecordTx(tx, actor.ID, ActionDividendBatch, objectTransaction, batchID,
		fmt.Sprintf("dividend of %s across %d recipients for project %s", total, len(entries), projectID),
		map[string]any{"project_id": projectID, "total": total.String(), "recipients": len(entries)}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	recipients := make([]string, 0, len(entries))
	for _, entry := range entries {
		recipients = append(recipients, entry.Recipient)
	}
	s.notifier.Notify(ctx, NotificationEvent{
		EventType:     EventDividend,
		TransactionID: batchID,
		Recipients:    recipients,
		Amount:        total,
		Reason:        reason,
	})

	return transactions, nil
}

func (s *DividendService) insertTransaction(tx *sql.Tx, t *models.Transaction) error {
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
