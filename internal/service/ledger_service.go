package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/metrics"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/money"
	"github.com/mmynk/fintrack/internal/storage"
	"github.com/mmynk/fintrack/pkg/api"
	"github.com/mmynk/fintrack/pkg/api/apiconnect"
)

var _ apiconnect.LedgerServiceHandler = (*LedgerService)(nil)

// LedgerService implements the Connect LedgerService: expenses, settlements
// and the balances derived from them.
type LedgerService struct {
	store   storage.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewLedgerService creates a new LedgerService. m may be nil.
func NewLedgerService(store storage.Store, logger *slog.Logger, m *metrics.Metrics) *LedgerService {
	return &LedgerService{store: store, logger: logger, metrics: m}
}

// PreviewSplit computes splits without persisting anything.
func (s *LedgerService) PreviewSplit(ctx context.Context, req *connect.Request[api.PreviewSplitRequest]) (*connect.Response[api.PreviewSplitResponse], error) {
	s.logger.Debug("PreviewSplit request received",
		"amount", req.Msg.Amount,
		"split_type", req.Msg.SplitType,
	)

	_, splits, err := s.computeSplits(req.Msg.Amount, req.Msg.SplitType, req.Msg.ParticipantIds, req.Msg.Shares)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.PreviewSplitResponse{
		Splits: toAPISplits(splits),
		Drift:  calculator.SplitDrift(req.Msg.Amount, splits),
	}), nil
}

// AddExpense records an expense. The payer and every split member must be
// on the group's roster, and the splits must reconcile with the amount.
func (s *LedgerService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("AddExpense request received",
		"group_id", req.Msg.GroupId,
		"amount", req.Msg.Amount,
		"split_type", req.Msg.SplitType,
	)

	group, err := groupForMember(ctx, s.store, req.Msg.GroupId, userID)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(req.Msg.Description)
	if description == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("description required"))
	}

	payerID := req.Msg.PayerId
	if payerID == "" {
		payerID = userID
	}
	if !group.IsMember(payerID) {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("payer %s is not a group member", payerID))
	}

	splitType, splits, err := s.computeSplits(req.Msg.Amount, req.Msg.SplitType, req.Msg.ParticipantIds, req.Msg.Shares)
	if err != nil {
		return nil, err
	}
	for _, split := range splits {
		if !group.IsMember(split.MemberID) {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("split member %s is not a group member", split.MemberID))
		}
	}

	drift := calculator.SplitDrift(req.Msg.Amount, splits)
	if drift != 0 {
		s.logger.Debug("Split rounding drift", "group_id", group.ID, "drift", drift)
	}

	expense := &models.Expense{
		GroupID:     group.ID,
		Description: description,
		Amount:      money.Round2(req.Msg.Amount),
		PayerID:     payerID,
		SplitType:   splitType,
		Splits:      toModelSplits(splits),
		CreatedBy:   userID,
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		s.logger.Error("Failed to save expense", "group_id", group.ID, "error", err)
		return nil, storageError(err)
	}

	s.logger.Info("Expense added", "expense_id", expense.ID, "group_id", group.ID)
	return connect.NewResponse(&api.AddExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// DeleteExpense soft-deletes an expense. Its creator, its payer or a group
// admin may do this. Deleting twice is not an error.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseId)

	if req.Msg.ExpenseId == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("expense_id required"))
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseId)
	if err != nil {
		return nil, storageError(err)
	}

	group, err := groupForMember(ctx, s.store, expense.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if userID != expense.CreatedBy && userID != expense.PayerID && !group.IsAdmin(userID) {
		return nil, connect.NewError(connect.CodePermissionDenied,
			errors.New("only the creator, the payer or an admin can delete an expense"))
	}

	if err := s.store.SoftDeleteExpense(ctx, expense.ID); err != nil {
		s.logger.Error("DeleteExpense failed", "expense_id", expense.ID, "error", err)
		return nil, storageError(err)
	}

	s.logger.Info("Expense deleted", "expense_id", expense.ID, "group_id", group.ID)
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// ListExpenses returns the group's expenses, newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := groupForMember(ctx, s.store, req.Msg.GroupId, userID); err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, req.Msg.GroupId, req.Msg.IncludeDeleted)
	if err != nil {
		s.logger.Error("ListExpenses failed", "group_id", req.Msg.GroupId, "error", err)
		return nil, storageError(err)
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// RecordSettlement records a payment from one member to another.
func (s *LedgerService) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("RecordSettlement request received",
		"group_id", req.Msg.GroupId,
		"to_user_id", req.Msg.ToUserId,
		"amount", req.Msg.Amount,
	)

	group, err := groupForMember(ctx, s.store, req.Msg.GroupId, userID)
	if err != nil {
		return nil, err
	}

	fromID := req.Msg.FromUserId
	if fromID == "" {
		fromID = userID
	}
	switch {
	case money.ToCents(req.Msg.Amount) <= 0:
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("amount must be positive"))
	case req.Msg.ToUserId == "":
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("to_user_id required"))
	case fromID == req.Msg.ToUserId:
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("cannot settle with yourself"))
	case !group.IsMember(fromID):
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("payer %s is not a group member", fromID))
	case !group.IsMember(req.Msg.ToUserId):
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("receiver %s is not a group member", req.Msg.ToUserId))
	}

	settlement := &models.Settlement{
		GroupID:     group.ID,
		FromUserID:  fromID,
		ToUserID:    req.Msg.ToUserId,
		Amount:      money.Round2(req.Msg.Amount),
		PaymentMode: strings.TrimSpace(req.Msg.PaymentMode),
		Note:        req.Msg.Note,
		CreatedBy:   userID,
	}

	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		s.logger.Error("Failed to save settlement", "group_id", group.ID, "error", err)
		return nil, storageError(err)
	}

	s.logger.Info("Settlement recorded", "settlement_id", settlement.ID, "group_id", group.ID)
	return connect.NewResponse(&api.RecordSettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

// ListSettlements returns the group's settlements, newest first.
func (s *LedgerService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := groupForMember(ctx, s.store, req.Msg.GroupId, userID); err != nil {
		return nil, err
	}

	settlements, err := s.store.ListSettlementsByGroup(ctx, req.Msg.GroupId)
	if err != nil {
		s.logger.Error("ListSettlements failed", "group_id", req.Msg.GroupId, "error", err)
		return nil, storageError(err)
	}

	out := make([]*api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toAPISettlement(st)
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}

// GetGroupBalances recomputes every member's net balance from the group's
// live expenses and settlements and suggests transfers that clear them.
func (s *LedgerService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("GetGroupBalances request received", "group_id", req.Msg.GroupId)

	group, err := groupForMember(ctx, s.store, req.Msg.GroupId, userID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID, false)
	if err != nil {
		s.logger.Error("Failed to load expenses", "group_id", group.ID, "error", err)
		return nil, storageError(err)
	}
	settlements, err := s.store.ListSettlementsByGroup(ctx, group.ID)
	if err != nil {
		s.logger.Error("Failed to load settlements", "group_id", group.ID, "error", err)
		return nil, storageError(err)
	}

	var totalCents int64
	forBalance := make([]calculator.ExpenseForBalance, len(expenses))
	for i, e := range expenses {
		totalCents += money.ToCents(e.Amount)
		forBalance[i] = calculator.ExpenseForBalance{
			Amount:  e.Amount,
			PayerID: e.PayerID,
			Splits:  toCalculatorSplits(e.Splits),
			Deleted: e.IsDeleted,
		}
	}
	settled := make([]calculator.SettlementForBalance, len(settlements))
	for i, st := range settlements {
		settled[i] = calculator.SettlementForBalance{
			FromUserID: st.FromUserID,
			ToUserID:   st.ToUserID,
			Amount:     st.Amount,
		}
	}

	balances, transfers := calculator.CalculateGroupBalances(group.MemberIDs(), forBalance, settled)
	for id, rest := range calculator.ApplyTransfers(balances, transfers) {
		if c := money.ToCents(rest); c != 0 {
			s.logger.Debug("Residue left after suggested transfers",
				"group_id", group.ID,
				"member_id", id,
				"residue", money.Format(c),
			)
		}
	}

	names, err := s.memberNames(ctx, group, balances)
	if err != nil {
		s.logger.Error("Failed to resolve member names", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &api.GetGroupBalancesResponse{
		Balances:   make([]*api.MemberBalance, len(balances)),
		Transfers:  make([]*api.Transfer, len(transfers)),
		TotalSpent: money.FromCents(totalCents),
	}
	for i, b := range balances {
		resp.Balances[i] = &api.MemberBalance{
			MemberId:   b.MemberID,
			MemberName: names[b.MemberID],
			NetBalance: b.NetBalance,
			TotalPaid:  b.TotalPaid,
			TotalOwed:  b.TotalOwed,
			Orphaned:   b.Orphaned,
		}
	}
	for i, t := range transfers {
		resp.Transfers[i] = &api.Transfer{
			FromMemberId: t.From,
			FromName:     names[t.From],
			ToMemberId:   t.To,
			ToName:       names[t.To],
			Amount:       t.Amount,
		}
	}

	s.metrics.ObserveBalances(len(balances), len(transfers))
	s.logger.Info("GetGroupBalances successful",
		"group_id", group.ID,
		"members", len(balances),
		"transfers", len(transfers),
	)
	return connect.NewResponse(resp), nil
}

// computeSplits parses the split type and runs the calculator, mapping
// validation failures to InvalidArgument with the message unchanged.
func (s *LedgerService) computeSplits(amount float64, rawType string, participantIDs []string, shares []*api.SplitShare) (calculator.SplitType, []calculator.Split, error) {
	splitType, err := calculator.ParseSplitType(rawType)
	if err != nil {
		s.metrics.SplitRejected("unknown", string(calculator.KindOf(err)))
		return "", nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	splits, err := calculator.ComputeSplits(amount, splitType, toSplitInput(participantIDs, shares))
	if err != nil {
		if calculator.IsValidationError(err) {
			s.metrics.SplitRejected(string(splitType), string(calculator.KindOf(err)))
			s.logger.Warn("Split rejected", "split_type", splitType, "error", err)
			return "", nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return "", nil, connect.NewError(connect.CodeInternal, err)
	}
	return splitType, splits, nil
}

// memberNames maps every id in balances to a display name. Roster members
// come from the group; orphans are looked up in the user store.
func (s *LedgerService) memberNames(ctx context.Context, group *models.Group, balances []calculator.MemberBalance) (map[string]string, error) {
	names := make(map[string]string, len(balances))
	var orphans []string
	for _, b := range balances {
		if m := group.Member(b.MemberID); m != nil {
			names[b.MemberID] = m.Name
			continue
		}
		orphans = append(orphans, b.MemberID)
	}
	if len(orphans) == 0 {
		return names, nil
	}

	users, err := s.store.GetUsersByIDs(ctx, orphans)
	if err != nil {
		return nil, err
	}
	for _, id := range orphans {
		if u, ok := users[id]; ok {
			names[id] = u.DisplayName
		} else {
			names[id] = "Former member"
		}
	}
	return names, nil
}
