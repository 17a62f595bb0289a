package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the closed set of transaction categories. The state machine
// switches exhaustively on it, so a new direction fails loudly at every
// transition site instead of defaulting silently.
type Direction string

const (
	DirectionTransfer    Direction = "TRANSFER"
	DirectionAdminGrant  Direction = "ADMIN_GRANT"
	DirectionAdminDeduct Direction = "ADMIN_DEDUCT"
	DirectionDividend    Direction = "DIVIDEND"
	DirectionReward      Direction = "MEETING_INVITE_REWARD"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	switch d {
	case DirectionTransfer, DirectionAdminGrant, DirectionAdminDeduct,
		DirectionDividend, DirectionReward:
		return true
	}
	return false
}

// TransactionStatus is the closed set of transaction states.
// COMPLETED, REJECTED and CANCELLED are terminal.
type TransactionStatus string

const (
	StatusPendingAdminApproval   TransactionStatus = "PENDING_ADMIN_APPROVAL"
	StatusPendingReceiverConfirm TransactionStatus = "PENDING_RECEIVER_CONFIRM"
	StatusCompleted              TransactionStatus = "COMPLETED"
	StatusRejected               TransactionStatus = "REJECTED"
	StatusCancelled              TransactionStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed from s.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPendingAdminApproval, StatusPendingReceiverConfirm,
		StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Transaction is one instance of token movement or intent. Rows are never
// deleted; cancellation and rejection are terminal statuses, not erasures.
type Transaction struct {
	ID               string            `json:"id" db:"id"`
	FromAccount      *string           `json:"from_account" db:"from_account"` // nil for pure grants
	ToAccount        *string           `json:"to_account" db:"to_account"`     // nil for pure deductions
	Amount           decimal.Decimal   `json:"amount" db:"amount"`
	Direction        Direction         `json:"direction" db:"direction"`
	Status           TransactionStatus `json:"status" db:"status"`
	Reason           string            `json:"reason" db:"reason"`
	RelatedProjectID *string           `json:"related_project_id,omitempty" db:"related_project_id"`
	BatchID          *string           `json:"batch_id,omitempty" db:"batch_id"` // dividend fan-out correlation

	// Approval record, filled in as decisions are made.
	AdminUserID      *string    `json:"admin_user_id,omitempty" db:"admin_user_id"`
	AdminComment     *string    `json:"admin_comment,omitempty" db:"admin_comment"`
	DecidedAt        *time.Time `json:"decided_at,omitempty" db:"decided_at"`
	ReceiverDecision *string    `json:"receiver_decision,omitempty" db:"receiver_decision"`
	ReceiverComment  *string    `json:"receiver_comment,omitempty" db:"receiver_comment"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Receiver decisions
const (
	ReceiverConfirmed = "CONFIRMED"
	ReceiverDeclined  = "DECLINED"
)

// Involves reports whether the given user is the sender or the receiver.
func (t *Transaction) Involves(userID string) bool {
	if t.FromAccount != nil && *t.FromAccount == userID {
		return true
	}
	if t.ToAccount != nil && *t.ToAccount == userID {
		return true
	}
	return false
}

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	UserID    string // participant (sender or receiver); empty means all (admin)
	Direction Direction
	Status    TransactionStatus
	ProjectID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// DividendEntry is a single recipient line in a dividend batch.
type DividendEntry struct {
	Recipient string          `json:"recipient" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Note      string          `json:"note" validate:"max=200"`
}

// GlobalStatistics is the admin-only system-wide rollup.
type GlobalStatistics struct {
	TotalBalance     decimal.Decimal             `json:"total_balance"`
	SumTransferred   decimal.Decimal             `json:"sum_transferred"`
	SumGranted       decimal.Decimal             `json:"sum_granted"`
	SumDeducted      decimal.Decimal             `json:"sum_deducted"`
	SumDividends     decimal.Decimal             `json:"sum_dividends"`
	SumRewards       decimal.Decimal             `json:"sum_rewards"`
	CountsByStatus   map[TransactionStatus]int64 `json:"counts_by_status"`
	AccountCount     int64                       `json:"account_count"`
	TransactionCount int64                       `json:"transaction_count"`
}

// ProjectStatistics is the per-project rollup.
type ProjectStatistics struct {
	ProjectID        string          `json:"project_id"`
	SumTransferred   decimal.Decimal `json:"sum_transferred"`
	SumDividends     decimal.Decimal `json:"sum_dividends"`
	TransactionCount int64           `json:"transaction_count"`
}

func (t *Transaction) String() string {
	return fmt.Sprintf("transaction %s [%s/%s] amount=%s", t.ID, t.Direction, t.Status, t.Amount)
}
