package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestUser(t *testing.T, store *SQLiteStore, email, name string) *models.User {
	t.Helper()

	user := models.NewUser(email, name, "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", email, err)
	}
	return user
}

func createTestGroup(t *testing.T, store *SQLiteStore, name string, users ...*models.User) *models.Group {
	t.Helper()

	group := &models.Group{Name: name, CreatedBy: users[0].ID}
	for i, u := range users {
		role := models.RoleMember
		if i == 0 {
			role = models.RoleAdmin
		}
		group.Members = append(group.Members, models.Member{UserID: u.ID, Role: role})
	}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "Alice@Example.com", "Alice")

	t.Run("email lookup is case-insensitive", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "alice@example.COM")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got == nil || got.ID != alice.ID {
			t.Fatalf("GetUserByEmail = %+v, want %s", got, alice.ID)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		err := store.CreateUser(ctx, models.NewUser("alice@example.com", "Other", "hash"))
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("missing user returns nil", func(t *testing.T) {
		got, err := store.GetUserByID(ctx, "nope")
		if err != nil || got != nil {
			t.Fatalf("GetUserByID = %v, %v; want nil, nil", got, err)
		}
	})

	t.Run("GetUsersByIDs omits unknown ids", func(t *testing.T) {
		bob := createTestUser(t, store, "bob@example.com", "Bob")
		users, err := store.GetUsersByIDs(ctx, []string{alice.ID, bob.ID, "ghost"})
		if err != nil {
			t.Fatalf("GetUsersByIDs failed: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("expected 2 users, got %d", len(users))
		}
		if users[bob.ID].DisplayName != "Bob" {
			t.Errorf("Bob display name = %q", users[bob.ID].DisplayName)
		}
	})
}

func TestGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice@example.com", "Alice")
	bob := createTestUser(t, store, "bob@example.com", "Bob")
	carol := createTestUser(t, store, "carol@example.com", "Carol")

	group := createTestGroup(t, store, "Roommates", alice, bob)

	t.Run("CreateGroup generates ID", func(t *testing.T) {
		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if group.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("GetGroup returns roster with user details", func(t *testing.T) {
		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(got.Members) != 2 {
			t.Fatalf("expected 2 members, got %d", len(got.Members))
		}
		if got.Members[0].Name != "Alice" || got.Members[0].Role != models.RoleAdmin {
			t.Errorf("first member = %+v", got.Members[0])
		}
		if got.Members[1].Email != "bob@example.com" || got.Members[1].Role != models.RoleMember {
			t.Errorf("second member = %+v", got.Members[1])
		}
	})

	t.Run("AddMember appends and rejects duplicates", func(t *testing.T) {
		if err := store.AddMember(ctx, group.ID, models.Member{UserID: carol.ID, Role: models.RoleMember}); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
		err := store.AddMember(ctx, group.ID, models.Member{UserID: carol.ID, Role: models.RoleMember})
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}

		got, _ := store.GetGroup(ctx, group.ID)
		if ids := got.MemberIDs(); len(ids) != 3 || ids[2] != carol.ID {
			t.Errorf("roster = %v", ids)
		}
	})

	t.Run("AddMember to unknown group", func(t *testing.T) {
		err := store.AddMember(ctx, "missing", models.Member{UserID: carol.ID, Role: models.RoleMember})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListGroupsForUser", func(t *testing.T) {
		createTestGroup(t, store, "Trip", carol, alice)

		groups, err := store.ListGroupsForUser(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListGroupsForUser failed: %v", err)
		}
		if len(groups) != 2 {
			t.Errorf("alice groups = %d, want 2", len(groups))
		}

		groups, _ = store.ListGroupsForUser(ctx, bob.ID)
		if len(groups) != 1 || groups[0].Name != "Roommates" {
			t.Errorf("bob groups = %+v", groups)
		}
	})

	t.Run("RemoveMember", func(t *testing.T) {
		if err := store.RemoveMember(ctx, group.ID, carol.ID); err != nil {
			t.Fatalf("RemoveMember failed: %v", err)
		}
		if err := store.RemoveMember(ctx, group.ID, carol.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second removal, got %v", err)
		}
	})

	t.Run("DeleteGroup", func(t *testing.T) {
		doomed := createTestGroup(t, store, "Doomed", alice)
		if err := store.DeleteGroup(ctx, doomed.ID); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		if _, err := store.GetGroup(ctx, doomed.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestExpensesAndSettlements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice@example.com", "Alice")
	bob := createTestUser(t, store, "bob@example.com", "Bob")
	group := createTestGroup(t, store, "Flat", alice, bob)

	expense := &models.Expense{
		GroupID:     group.ID,
		Description: "Groceries",
		Amount:      33.33,
		PayerID:     alice.ID,
		SplitType:   calculator.SplitPercentage,
		Splits: []models.Split{
			{MemberID: alice.ID, Amount: 16.67, Percentage: 50},
			{MemberID: bob.ID, Amount: 16.67, Percentage: 50},
		},
		CreatedBy: alice.ID,
	}

	t.Run("CreateExpense and GetExpense round trip amounts", func(t *testing.T) {
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.Amount != 33.33 {
			t.Errorf("Amount = %v, want 33.33", got.Amount)
		}
		if got.SplitType != calculator.SplitPercentage {
			t.Errorf("SplitType = %v", got.SplitType)
		}
		if len(got.Splits) != 2 || got.Splits[0].MemberID != alice.ID || got.Splits[1].Amount != 16.67 {
			t.Errorf("Splits = %+v", got.Splits)
		}
		if got.Splits[0].Percentage != 50 {
			t.Errorf("Percentage = %v, want 50", got.Splits[0].Percentage)
		}
	})

	t.Run("GetExpense unknown", func(t *testing.T) {
		if _, err := store.GetExpense(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SoftDeleteExpense hides from default listing", func(t *testing.T) {
		other := &models.Expense{
			GroupID: group.ID, Description: "Taxi", Amount: 20, PayerID: bob.ID,
			SplitType: calculator.SplitEqual, CreatedBy: bob.ID,
			Splits: []models.Split{{MemberID: alice.ID, Amount: 10, Percentage: 50}, {MemberID: bob.ID, Amount: 10, Percentage: 50}},
		}
		if err := store.CreateExpense(ctx, other); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if err := store.SoftDeleteExpense(ctx, other.ID); err != nil {
			t.Fatalf("SoftDeleteExpense failed: %v", err)
		}
		if err := store.SoftDeleteExpense(ctx, other.ID); err != nil {
			t.Errorf("second SoftDeleteExpense should be a no-op, got %v", err)
		}

		live, err := store.ListExpensesByGroup(ctx, group.ID, false)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(live) != 1 || live[0].ID != expense.ID {
			t.Errorf("live expenses = %+v", live)
		}

		all, _ := store.ListExpensesByGroup(ctx, group.ID, true)
		if len(all) != 2 {
			t.Fatalf("expected 2 expenses including deleted, got %d", len(all))
		}
		for _, e := range all {
			if e.ID == other.ID && (!e.IsDeleted || e.DeletedAt == 0) {
				t.Errorf("deleted expense not flagged: %+v", e)
			}
			if len(e.Splits) != 2 {
				t.Errorf("expense %s has %d splits", e.ID, len(e.Splits))
			}
		}

		if err := store.SoftDeleteExpense(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("settlements", func(t *testing.T) {
		s := &models.Settlement{
			GroupID: group.ID, FromUserID: bob.ID, ToUserID: alice.ID,
			Amount: 12.5, PaymentMode: "upi", CreatedBy: bob.ID,
		}
		if err := store.CreateSettlement(ctx, s); err != nil {
			t.Fatalf("CreateSettlement failed: %v", err)
		}
		got, err := store.GetSettlement(ctx, s.ID)
		if err != nil {
			t.Fatalf("GetSettlement failed: %v", err)
		}
		if got.Amount != 12.5 || got.PaymentMode != "upi" || got.Note != "" {
			t.Errorf("settlement = %+v", got)
		}

		list, err := store.ListSettlementsByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListSettlementsByGroup failed: %v", err)
		}
		if len(list) != 1 {
			t.Errorf("expected 1 settlement, got %d", len(list))
		}

		if _, err := store.GetSettlement(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("removing a member keeps history", func(t *testing.T) {
		if err := store.RemoveMember(ctx, group.ID, bob.ID); err != nil {
			t.Fatalf("RemoveMember failed: %v", err)
		}
		all, _ := store.ListExpensesByGroup(ctx, group.ID, true)
		if len(all) != 2 {
			t.Errorf("expected history intact, got %d expenses", len(all))
		}
	})
}

func TestListExpensesSplitsScopedToGroup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice@example.com", "Alice")
	bob := createTestUser(t, store, "bob@example.com", "Bob")
	flat := createTestGroup(t, store, "Flat", alice, bob)
	trip := createTestGroup(t, store, "Trip", bob, alice)

	for _, g := range []*models.Group{flat, trip} {
		e := &models.Expense{
			GroupID: g.ID, Description: g.Name, Amount: 10, PayerID: alice.ID,
			SplitType: calculator.SplitEqual, CreatedBy: alice.ID,
			Splits: []models.Split{{MemberID: alice.ID, Amount: 5, Percentage: 50}, {MemberID: bob.ID, Amount: 5, Percentage: 50}},
		}
		if err := store.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
	}

	got, err := store.ListExpensesByGroup(ctx, flat.ID, false)
	if err != nil {
		t.Fatalf("ListExpensesByGroup failed: %v", err)
	}
	if len(got) != 1 || len(got[0].Splits) != 2 {
		t.Fatalf("expected one expense with two splits, got %+v", got)
	}
}

func TestListExpensesBeyondVariableLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("bulk insert")
	}

	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice@example.com", "Alice")
	group := createTestGroup(t, store, "Big", alice)

	// More expenses than SQLite allows bound variables in one statement.
	const n = 33000
	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	insertExpense, err := tx.PrepareContext(ctx,
		`INSERT INTO expenses (id, group_id, description, amount_cents, payer_id, split_type, created_by, created_at)
		 VALUES (?, ?, 'bulk', 100, ?, 'equal', ?, ?)`)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	insertSplit, err := tx.PrepareContext(ctx,
		`INSERT INTO expense_splits (expense_id, member_id, amount_cents, percentage_bp, position)
		 VALUES (?, ?, 100, 10000, 0)`)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	for i := range n {
		id := fmt.Sprintf("exp-%05d", i)
		if _, err := insertExpense.ExecContext(ctx, id, group.ID, alice.ID, alice.ID, i); err != nil {
			t.Fatalf("insert expense failed: %v", err)
		}
		if _, err := insertSplit.ExecContext(ctx, id, alice.ID); err != nil {
			t.Fatalf("insert split failed: %v", err)
		}
	}
	insertExpense.Close()
	insertSplit.Close()
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	got, err := store.ListExpensesByGroup(ctx, group.ID, false)
	if err != nil {
		t.Fatalf("ListExpensesByGroup failed: %v", err)
	}
	if len(got) != n {
		t.Fatalf("expected %d expenses, got %d", n, len(got))
	}
	for _, e := range got {
		if len(e.Splits) != 1 || e.Splits[0].Amount != 1 {
			t.Fatalf("expense %s: unexpected splits %+v", e.ID, e.Splits)
		}
	}
}

func TestPlaceholders(t *testing.T) {
	tests := map[int]string{0: "", 1: "?", 3: "?, ?, ?"}
	for n, want := range tests {
		if got := placeholders(n); got != want {
			t.Errorf("placeholders(%d) = %q, want %q", n, got, want)
		}
	}
}
