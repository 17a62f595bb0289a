package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the single token balance record owned by one user.
// Balance never goes below zero and is mutated only through the ledger service.
type Account struct {
	UserID        string          `json:"user_id" db:"user_id"`
	Balance       decimal.Decimal `json:"balance" db:"balance"`
	InitialAmount decimal.Decimal `json:"initial_amount" db:"initial_amount"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// LedgerEntry is one signed movement applied to an account. Entries are
// append-only; the running balance is captured at write time.
type LedgerEntry struct {
	ID            int             `json:"id" db:"id"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	AccountID     string          `json:"account_id" db:"account_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	EntryType     string          `json:"entry_type" db:"entry_type"` // DEBIT or CREDIT
	Balance       decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Ledger entry types
const (
	EntryDebit  = "DEBIT"
	EntryCredit = "CREDIT"
)
