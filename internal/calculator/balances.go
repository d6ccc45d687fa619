package calculator

import (
	"slices"

	"github.com/mmynk/fintrack/internal/money"
)

// ExpenseForBalance represents an expense with the minimal information needed for balance calculations.
type ExpenseForBalance struct {
	Amount  float64
	PayerID string
	Splits  []Split
	Deleted bool
}

// SettlementForBalance represents a settlement with the minimal information needed for balance calculations.
type SettlementForBalance struct {
	FromUserID string // Who paid (debtor settling up)
	ToUserID   string // Who received (creditor being paid)
	Amount     float64
}

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	MemberID   string
	NetBalance float64 // Positive = owed money, Negative = owes money
	TotalPaid  float64 // Expenses paid plus settlements paid
	TotalOwed  float64 // Split shares plus settlements received

	// Orphaned marks an identifier that appears in the group's history but
	// is no longer on the roster (e.g. a removed member).
	Orphaned bool
}

// Transfer is a suggested payment that moves the group towards all-zero balances.
type Transfer struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount float64
}

type ledgerEntry struct {
	id       string
	paid     int64
	owed     int64
	orphaned bool
}

func (e *ledgerEntry) net() int64 { return e.paid - e.owed }

// ledger accumulates cents per member while remembering first-seen order.
type ledger struct {
	entries []*ledgerEntry
	index   map[string]*ledgerEntry
}

func newLedger(members []string) *ledger {
	l := &ledger{index: make(map[string]*ledgerEntry, len(members))}
	for _, id := range members {
		if _, ok := l.index[id]; ok {
			continue
		}
		e := &ledgerEntry{id: id}
		l.entries = append(l.entries, e)
		l.index[id] = e
	}
	return l
}

func (l *ledger) get(id string) *ledgerEntry {
	if e, ok := l.index[id]; ok {
		return e
	}
	e := &ledgerEntry{id: id, orphaned: true}
	l.entries = append(l.entries, e)
	l.index[id] = e
	return e
}

// CalculateNetBalances reduces a group's expenses and settlements into one
// signed balance per member.
//
// Every roster member gets an entry, in roster order. Identifiers referenced
// by the history but missing from the roster are appended in first-seen
// order and flagged Orphaned. Deleted expenses are skipped.
func CalculateNetBalances(members []string, expenses []ExpenseForBalance, settlements []SettlementForBalance) []MemberBalance {
	l := newLedger(members)

	for _, exp := range expenses {
		if exp.Deleted {
			continue
		}
		l.get(exp.PayerID).paid += money.ToCents(exp.Amount)
		for _, s := range exp.Splits {
			l.get(s.MemberID).owed += money.ToCents(s.Amount)
		}
	}

	// Payer's balance improves, receiver's balance decreases.
	for _, s := range settlements {
		cents := money.ToCents(s.Amount)
		l.get(s.FromUserID).paid += cents
		l.get(s.ToUserID).owed += cents
	}

	balances := make([]MemberBalance, len(l.entries))
	for i, e := range l.entries {
		balances[i] = MemberBalance{
			MemberID:   e.id,
			NetBalance: money.FromCents(e.net()),
			TotalPaid:  money.FromCents(e.paid),
			TotalOwed:  money.FromCents(e.owed),
			Orphaned:   e.orphaned,
		}
	}
	return balances
}

type position struct {
	id        string
	remaining int64
}

// SuggestTransfers matches debtors with creditors greedily, largest first.
//
// Balances within one cent of zero are treated as settled. The result is a
// heuristic, not the minimum possible number of payments, but it never
// exceeds debtors+creditors-1 transfers and every amount is positive.
func SuggestTransfers(balances []MemberBalance) []Transfer {
	var debtors, creditors []position
	for _, b := range balances {
		cents := money.ToCents(b.NetBalance)
		switch {
		case cents < -money.Tolerance:
			debtors = append(debtors, position{id: b.MemberID, remaining: -cents})
		case cents > money.Tolerance:
			creditors = append(creditors, position{id: b.MemberID, remaining: cents})
		}
	}

	byRemainingDesc := func(a, b position) int {
		switch {
		case a.remaining > b.remaining:
			return -1
		case a.remaining < b.remaining:
			return 1
		default:
			return 0
		}
	}
	slices.SortStableFunc(debtors, byRemainingDesc)
	slices.SortStableFunc(creditors, byRemainingDesc)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		amount := min(d.remaining, c.remaining)
		transfers = append(transfers, Transfer{
			From:   d.id,
			To:     c.id,
			Amount: money.FromCents(amount),
		})

		d.remaining -= amount
		c.remaining -= amount

		// Move to next debtor/creditor if fully settled
		if d.remaining < money.Tolerance {
			i++
		}
		if c.remaining < money.Tolerance {
			j++
		}
	}

	return transfers
}

// CalculateGroupBalances computes per-member balances and the suggested
// transfers that would settle them.
func CalculateGroupBalances(members []string, expenses []ExpenseForBalance, settlements []SettlementForBalance) ([]MemberBalance, []Transfer) {
	balances := CalculateNetBalances(members, expenses, settlements)
	return balances, SuggestTransfers(balances)
}

// ApplyTransfers returns the net balances that would remain if every
// transfer were recorded as a settlement.
func ApplyTransfers(balances []MemberBalance, transfers []Transfer) map[string]float64 {
	cents := make(map[string]int64, len(balances))
	for _, b := range balances {
		cents[b.MemberID] += money.ToCents(b.NetBalance)
	}
	for _, t := range transfers {
		amount := money.ToCents(t.Amount)
		cents[t.From] += amount
		cents[t.To] -= amount
	}

	out := make(map[string]float64, len(cents))
	for id, c := range cents {
		out[id] = money.FromCents(c)
	}
	return out
}
