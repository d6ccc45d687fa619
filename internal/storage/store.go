// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/fintrack/internal/models"
)

var (
	// ErrNotFound is wrapped by every lookup that finds no row.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is wrapped when a unique constraint would be violated.
	ErrAlreadyExists = errors.New("already exists")
)

// UserStore persists registered users.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns nil and no error if no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns nil and no error if the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns a map of user ID to User.
	// Users that don't exist are omitted from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// GroupStore persists groups and their rosters.
type GroupStore interface {
	// CreateGroup persists a new group with its initial members.
	// The group.ID and CreatedAt fields will be populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns the groups userID is currently a member of.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// AddMember appends a member to the roster.
	AddMember(ctx context.Context, groupID string, member models.Member) error

	// RemoveMember drops userID from the roster. History is untouched.
	RemoveMember(ctx context.Context, groupID, userID string) error

	// DeleteGroup removes the group together with its history.
	DeleteGroup(ctx context.Context, groupID string) error
}

// ExpenseStore persists expenses and their splits.
type ExpenseStore interface {
	// CreateExpense persists the expense and its splits atomically.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup returns the group's expenses, newest first.
	// Soft-deleted expenses are included only when includeDeleted is set.
	ListExpensesByGroup(ctx context.Context, groupID string, includeDeleted bool) ([]*models.Expense, error)

	// SoftDeleteExpense flags the expense as deleted.
	SoftDeleteExpense(ctx context.Context, expenseID string) error
}

// SettlementStore persists settlements. There is no delete.
type SettlementStore interface {
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// ListSettlementsByGroup returns the group's settlements, newest first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)
}

// Store defines the full set of storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore
	SettlementStore

	// Close releases any resources held by the store.
	Close() error
}
