package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tokenworks/backend/internal/models"
)

// LedgerService is the sole authority for balance mutation. Every delta goes
// through a single conditional UPDATE so the non-negative invariant is
// enforced at the row, not by trusting caller-supplied reads.
type LedgerService struct {
	db *sql.DB
}

func NewLedgerService(db *sql.DB) *LedgerService {
	return &LedgerService{db: db}
}

// BatchEntry is one signed delta inside an all-or-nothing batch.
type BatchEntry struct {
	AccountID     string
	Delta         decimal.Decimal
	TransactionID string
}

// GetAccount returns the account for a user, or NotFoundError.
func (s *LedgerService) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	var account models.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, balance, initial_amount, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
	`, accountID).Scan(&account.UserID, &account.Balance, &account.InitialAmount,
		&account.CreatedAt, &account.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "account", ID: accountID}
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetBalance is a read-only balance lookup with no side effects.
func (s *LedgerService) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// CreateAccountTx provisions the account for a new user inside the caller's
// unit of work. The initial grant is recorded both as the opening balance and
// as initial_amount, which is set once and never changes.
func (s *LedgerService) CreateAccountTx(tx *sql.Tx, userID string, initialAmount decimal.Decimal) error {
	if initialAmount.IsNegative() {
		return &ValidationError{Reason: "initial amount must not be negative"}
	}
	_, err := tx.Exec(`
		INSERT INTO accounts (user_id, balance, initial_amount, created_at, updated_at)
		VALUES ($1, $2, $2, $3, $3)
	`, userID, initialAmount, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// ApplyDeltaTx applies a signed delta to one account inside the caller's unit
// of work and returns the new balance. The WHERE clause carries the invariant:
// the update matches only if the resulting balance stays non-negative, so two
// concurrent debits can never both drain the same funds.
func (s *LedgerService) ApplyDeltaTx(tx *sql.Tx, accountID string, delta decimal.Decimal, transactionID string) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := tx.QueryRow(`
		UPDATE accounts
		SET balance = balance + $1, updated_at = $2
		WHERE user_id = $3 AND balance + $1 >= 0
		RETURNING balance
	`, delta, time.Now(), accountID).Scan(&newBalance)

	if err == sql.ErrNoRows {
		// Either the account is missing or the delta would overdraw it.
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM accounts WHERE user_id = $1)`, accountID).Scan(&exists); err != nil {
			return decimal.Zero, err
		}
		if !exists {
			return decimal.Zero, &NotFoundError{Resource: "account", ID: accountID}
		}
		return decimal.Zero, ErrInsufficientBalance
	}
	if err != nil {
		return decimal.Zero, err
	}

	entryType := models.EntryCredit
	if delta.IsNegative() {
		entryType = models.EntryDebit
	}
	if err := s.createLedgerEntry(tx, transactionID, accountID, delta, entryType, newBalance); err != nil {
		return decimal.Zero, err
	}

	return newBalance, nil
}

// LockAccountsTx takes row locks on the given accounts in lexicographic order,
// so concurrent units of work touching the same accounts always acquire the
// locks in the same sequence and cannot deadlock.
func (s *LedgerService) LockAccountsTx(tx *sql.Tx, accountIDs ...string) error {
	ordered := append([]string(nil), accountIDs...)
	sort.Strings(ordered)

	for _, accountID := range ordered {
		var locked string
		err := tx.QueryRow(`SELECT user_id FROM accounts WHERE user_id = $1 FOR UPDATE`, accountID).Scan(&locked)
		if err == sql.ErrNoRows {
			return &NotFoundError{Resource: "account", ID: accountID}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ApplyBatchTx applies every entry inside the caller's unit of work. Entries
// are applied in lexicographic account order so overlapping batches lock rows
// in the same sequence. Callers must roll the whole transaction back on error;
// no partial batch may commit.
func (s *LedgerService) ApplyBatchTx(tx *sql.Tx, entries []BatchEntry) ([]decimal.Decimal, error) {
	ordered := append([]BatchEntry(nil), entries...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].AccountID < ordered[j].AccountID })

	balances := make([]decimal.Decimal, 0, len(ordered))
	for _, entry := range ordered {
		newBalance, err := s.ApplyDeltaTx(tx, entry.AccountID, entry.Delta, entry.TransactionID)
		if err != nil {
			return nil, fmt.Errorf("batch entry for account %s: %w", entry.AccountID, err)
		}
		balances = append(balances, newBalance)
	}
	return balances, nil
}

func (s *LedgerService) createLedgerEntry(tx *sql.Tx, transactionID, accountID string, amount decimal.Decimal, entryType string, balance decimal.Decimal) error {
	_, err := tx.Exec(`
		INSERT INTO ledger_entries (transaction_id, account_id, amount, entry_type, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		transactionID, accountID, amount, entryType, balance, time.Now())
	return err
}
