package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/money"
)

const expenseColumns = `id, group_id, description, amount_cents, payer_id, split_type, is_deleted, deleted_at, created_by, created_at`

func scanExpense(row rowScanner) (*models.Expense, error) {
	e := &models.Expense{}
	var amountCents int64
	var splitType string
	var deleted int
	if err := row.Scan(&e.ID, &e.GroupID, &e.Description, &amountCents, &e.PayerID,
		&splitType, &deleted, &e.DeletedAt, &e.CreatedBy, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Amount = money.FromCents(amountCents)
	e.SplitType = calculator.SplitType(splitType)
	e.IsDeleted = deleted != 0
	return e, nil
}

// CreateExpense persists a new expense and its splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	// Generate ID if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.Description, money.ToCents(expense.Amount),
		expense.PayerID, string(expense.SplitType), boolToInt(expense.IsDeleted),
		expense.DeletedAt, expense.CreatedBy, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, split := range expense.Splits {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO expense_splits (expense_id, member_id, amount_cents, percentage_bp, position)
			 VALUES (?, ?, ?, ?, ?)`,
			expense.ID, split.MemberID, money.ToCents(split.Amount), money.ToCents(split.Percentage), i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`,
		expenseID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("expense", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.loadSplits(ctx, []*models.Expense{expense}, "s.expense_id = ?", expense.ID); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpensesByGroup retrieves a group's expenses, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string, includeDeleted bool) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE group_id = ?`
	if !includeDeleted {
		query += ` AND is_deleted = 0`
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	if err := s.loadSplits(ctx, expenses, "e.group_id = ?", groupID); err != nil {
		return nil, err
	}
	return expenses, nil
}

// loadSplits fills Splits for every expense with a single query. where
// selects the split rows by expense (alias e) or split (alias s) columns;
// rows for expenses not in the slice are ignored.
func (s *SQLiteStore) loadSplits(ctx context.Context, expenses []*models.Expense, where string, args ...any) error {
	if len(expenses) == 0 {
		return nil
	}

	byID := make(map[string]*models.Expense, len(expenses))
	for _, e := range expenses {
		byID[e.ID] = e
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT s.expense_id, s.member_id, s.amount_cents, s.percentage_bp
		 FROM expense_splits s
		 JOIN expenses e ON e.id = s.expense_id
		 WHERE `+where+`
		 ORDER BY s.expense_id, s.position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID, memberID string
		var amountCents, percentageBP int64
		if err := rows.Scan(&expenseID, &memberID, &amountCents, &percentageBP); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		e, ok := byID[expenseID]
		if !ok {
			continue
		}
		e.Splits = append(e.Splits, models.Split{
			MemberID:   memberID,
			Amount:     money.FromCents(amountCents),
			Percentage: money.FromCents(percentageBP),
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate splits: %w", err)
	}

	return nil
}

// SoftDeleteExpense flags an expense as deleted. Deleting twice is a no-op.
func (s *SQLiteStore) SoftDeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET is_deleted = 1, deleted_at = ? WHERE id = ? AND is_deleted = 0",
		time.Now().Unix(), expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, "SELECT 1 FROM expenses WHERE id = ?", expenseID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("expense", expenseID)
	}
	if err != nil {
		return fmt.Errorf("failed to check expense existence: %w", err)
	}
	return nil
}
