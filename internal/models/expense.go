package models

import "github.com/mmynk/fintrack/internal/calculator"

// Expense represents a group expense paid by one member.
// Splits are computed once at creation time and never edited.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is the human-readable label (e.g., "Groceries").
	Description string

	// Amount is the total paid, with two meaningful decimals.
	Amount float64

	// PayerID is the user ID of the member who paid.
	PayerID string

	SplitType calculator.SplitType

	// Splits attribute portions of Amount to members.
	Splits []Split

	// IsDeleted excludes the expense from balances; it stays in history.
	IsDeleted bool

	// DeletedAt is the Unix timestamp of the soft delete, 0 if live.
	DeletedAt int64

	// CreatedBy is the user ID who recorded this expense.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Split is one member's portion of an expense.
type Split struct {
	MemberID string
	Amount   float64

	// Percentage is meaningful only when the expense SplitType is percentage.
	Percentage float64
}
