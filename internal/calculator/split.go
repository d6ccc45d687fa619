package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/fintrack/internal/money"
)

// SplitType selects how an expense amount is divided among members.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitCustom     SplitType = "custom"
	SplitPercentage SplitType = "percentage"
)

// ParseSplitType converts a wire value to a SplitType.
func ParseSplitType(s string) (SplitType, error) {
	switch t := SplitType(strings.ToLower(strings.TrimSpace(s))); t {
	case SplitEqual, SplitCustom, SplitPercentage:
		return t, nil
	default:
		return "", &ValidationError{Kind: KindUnknownType, Reason: fmt.Sprintf("unknown split type %q", s)}
	}
}

// Split is one member's finalized portion of an expense.
type Split struct {
	MemberID string
	Amount   float64
	// Percentage is only meaningful for percentage splits. Equal splits carry
	// round(100/n, 2) for display; custom splits carry 0.
	Percentage float64
}

// Share is caller-provided input for custom and percentage splits.
// Custom splits read Amount, percentage splits read Percentage.
type Share struct {
	MemberID   string
	Amount     float64
	Percentage float64
}

// SplitInput carries the type-specific input for ComputeSplits.
// ParticipantIDs is used for equal splits, Shares for the others.
type SplitInput struct {
	ParticipantIDs []string
	Shares         []Share
}

// Kind classifies a ValidationError into a small fixed set.
type Kind string

const (
	KindTotalMismatch  Kind = "total_mismatch"
	KindBadAmount      Kind = "bad_amount"
	KindBadMember      Kind = "bad_member"
	KindNoParticipants Kind = "no_participants"
	KindUnknownType    Kind = "unknown_type"
)

// ValidationError reports split input that does not reconcile with the
// expense. Got and Want are populated for total mismatches.
type ValidationError struct {
	Kind   Kind
	Reason string
	Got    float64
	Want   float64
	// HasTotals distinguishes "got 0, want 0" from a plain input error.
	HasTotals bool
}

func (e *ValidationError) Error() string {
	if !e.HasTotals {
		return e.Reason
	}
	return fmt.Sprintf("%s: got %s, want %s", e.Reason,
		money.FormatAmount(e.Got), money.FormatAmount(e.Want))
}

// KindOf returns the Kind of a *ValidationError in err's chain, or "".
func KindOf(err error) Kind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return ""
}

// IsValidationError reports whether err is, or wraps, a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ComputeSplits turns an expense amount plus type-specific input into the
// list of splits stored with the expense.
//
// Amounts are rounded to 2 decimals per member. For equal and percentage
// splits the rounded amounts may not sum to the expense amount exactly; the
// residue (at most one cent per member) is left in place.
func ComputeSplits(amount float64, splitType SplitType, in SplitInput) ([]Split, error) {
	if money.ToCents(amount) <= 0 {
		return nil, &ValidationError{Kind: KindBadAmount, Reason: "amount must be positive"}
	}

	switch splitType {
	case SplitEqual:
		return equalSplits(amount, in.ParticipantIDs)
	case SplitCustom:
		return customSplits(amount, in.Shares)
	case SplitPercentage:
		return percentageSplits(amount, in.Shares)
	default:
		return nil, &ValidationError{Kind: KindUnknownType, Reason: fmt.Sprintf("unknown split type %q", splitType)}
	}
}

func equalSplits(amount float64, participants []string) ([]Split, error) {
	if len(participants) == 0 {
		return nil, &ValidationError{Kind: KindNoParticipants, Reason: "must have at least one participant"}
	}
	if err := checkMemberIDs(participants); err != nil {
		return nil, err
	}

	n := len(participants)
	each := money.FromCents(money.DivideCents(amount, n))
	pct := money.FromCents(money.DivideCents(100, n))

	splits := make([]Split, n)
	for i, id := range participants {
		splits[i] = Split{MemberID: id, Amount: each, Percentage: pct}
	}
	return splits, nil
}

func customSplits(amount float64, shares []Share) ([]Split, error) {
	if err := checkShares(shares); err != nil {
		return nil, err
	}

	provided := make([]float64, len(shares))
	splits := make([]Split, len(shares))
	for i, s := range shares {
		if s.Amount < 0 {
			return nil, &ValidationError{Kind: KindBadAmount, Reason: fmt.Sprintf("negative split amount for %s", s.MemberID)}
		}
		provided[i] = s.Amount
		splits[i] = Split{MemberID: s.MemberID, Amount: money.Round2(s.Amount)}
	}

	// The tolerance applies to the amounts as given, before per-split rounding.
	total := money.Sum(provided...)
	if !money.Close(total, amount) {
		got, _ := total.Float64()
		return nil, &ValidationError{
			Kind:      KindTotalMismatch,
			Reason:    "split total mismatch",
			Got:       got,
			Want:      money.Round2(amount),
			HasTotals: true,
		}
	}
	return splits, nil
}

func percentageSplits(amount float64, shares []Share) ([]Split, error) {
	if err := checkShares(shares); err != nil {
		return nil, err
	}

	provided := make([]float64, len(shares))
	for i, s := range shares {
		if s.Percentage < 0 {
			return nil, &ValidationError{Kind: KindBadAmount, Reason: fmt.Sprintf("negative percentage for %s", s.MemberID)}
		}
		provided[i] = s.Percentage
	}

	total := money.Sum(provided...)
	if !money.Close(total, 100) {
		got, _ := total.Float64()
		return nil, &ValidationError{
			Kind:      KindTotalMismatch,
			Reason:    "percentage total mismatch",
			Got:       got,
			Want:      100,
			HasTotals: true,
		}
	}

	splits := make([]Split, len(shares))
	for i, s := range shares {
		splits[i] = Split{
			MemberID:   s.MemberID,
			Amount:     money.FromCents(money.PercentOfCents(amount, s.Percentage)),
			Percentage: money.Round2(s.Percentage),
		}
	}
	return splits, nil
}

func checkShares(shares []Share) error {
	if len(shares) == 0 {
		return &ValidationError{Kind: KindNoParticipants, Reason: "must have at least one split"}
	}
	ids := make([]string, len(shares))
	for i, s := range shares {
		ids[i] = s.MemberID
	}
	return checkMemberIDs(ids)
}

func checkMemberIDs(ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			return &ValidationError{Kind: KindBadMember, Reason: "member id is required"}
		}
		if seen[id] {
			return &ValidationError{Kind: KindBadMember, Reason: fmt.Sprintf("duplicate member %s", id)}
		}
		seen[id] = true
	}
	return nil
}

// SplitDrift returns amount minus the sum of the split amounts.
func SplitDrift(amount float64, splits []Split) float64 {
	cents := money.ToCents(amount)
	for _, s := range splits {
		cents -= money.ToCents(s.Amount)
	}
	return money.FromCents(cents)
}
