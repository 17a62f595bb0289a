package services

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
	"github.com/tokenworks/backend/internal/models"
)

// StatsService serves the admin-only reporting surface: account listings and
// system-wide and per-project rollups. Read-only projections over committed
// state.
type StatsService struct {
	db *sql.DB
}

func NewStatsService(db *sql.DB) *StatsService {
	return &StatsService{db: db}
}

// ListAccounts returns every account, highest balance first.
func (s *StatsService) ListAccounts(ctx context.Context, actor models.ResolvedUser, limit, offset int) ([]models.Account, error) {
	if !actor.IsAdmin {
		return nil, &ForbiddenError{Reason: "administrator role required"}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, balance, initial_amount, created_at, updated_at
		FROM accounts
		ORDER BY balance DESC, user_id ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(&account.UserID, &account.Balance, &account.InitialAmount,
			&account.CreatedAt, &account.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// GlobalStatistics aggregates balances and completed movement by direction,
// plus transaction counts by status.
func (s *StatsService) GlobalStatistics(ctx context.Context, actor models.ResolvedUser) (*models.GlobalStatistics, error) {
	if !actor.IsAdmin {
		return nil, &ForbiddenError{Reason: "administrator role required"}
	}

	stats := &models.GlobalStatistics{
		CountsByStatus: map[models.TransactionStatus]int64{},
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(balance), 0), COUNT(*) FROM accounts
	`).Scan(&stats.TotalBalance, &stats.AccountCount)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE direction = 'TRANSFER'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'ADMIN_GRANT'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'ADMIN_DEDUCT'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'DIVIDEND'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'MEETING_INVITE_REWARD'), 0)
		FROM transactions
		WHERE status = 'COMPLETED'
	`).Scan(&stats.SumTransferred, &stats.SumGranted, &stats.SumDeducted,
		&stats.SumDividends, &stats.SumRewards)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM transactions GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status models.TransactionStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.CountsByStatus[status] = count
		stats.TransactionCount += count
	}
	return stats, rows.Err()
}

// ProjectStatistics aggregates completed movement correlated to one project.
func (s *StatsService) ProjectStatistics(ctx context.Context, actor models.ResolvedUser, projectID string) (*models.ProjectStatistics, error) {
	if !actor.IsAdmin {
		return nil, &ForbiddenError{Reason: "administrator role required"}
	}

	stats := &models.ProjectStatistics{
		ProjectID:      projectID,
		SumTransferred: decimal.Zero,
		SumDividends:   decimal.Zero,
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE direction = 'TRANSFER' AND status = 'COMPLETED'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'DIVIDEND' AND status = 'COMPLETED'), 0),
			COUNT(*)
		FROM transactions
		WHERE related_project_id = $1
	`, projectID).Scan(&stats.SumTransferred, &stats.SumDividends, &stats.TransactionCount)
	if err != nil {
		return nil, err
	}

	if stats.TransactionCount == 0 {
		return nil, &NotFoundError{Resource: "project", ID: projectID}
	}
	return stats, nil
}
