// Package models defines the core domain models for fintrack.
//
// # Models
//
//   - User: Registered account; the identity behind every group member
//   - Group: Named collection of members sharing expenses
//   - Member: A user's membership in a group, with a role
//   - Expense: Group expense paid by one member and divided into Splits
//   - Settlement: Recorded real-world repayment between two members
//
// # Design Principles
//
// 1. **Append-only history**: expenses are soft-deleted, settlements are never deleted
// 2. **IDs, not pointers**: relationships are expressed with ID strings
// 3. **Derived state is not stored**: balances and suggested transfers are
// recomputed from expenses and settlements on every query
package models
