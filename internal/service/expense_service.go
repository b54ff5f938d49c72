package service

import (
	"context"
	"strconv"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/fistein/internal/ledger"
	"github.com/mmynk/fistein/internal/models"
	"github.com/mmynk/fistein/internal/money"
	"github.com/mmynk/fistein/pkg/api"
	"github.com/mmynk/fistein/pkg/api/apiconnect"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var _ apiconnect.ExpenseServiceHandler = (*ExpenseService)(nil)

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	*Ledger
}

// NewExpenseService creates an ExpenseService backed by l.
func NewExpenseService(l *Ledger) *ExpenseService {
	return &ExpenseService{Ledger: l}
}

// CreateExpense records an expense and splits it into shares.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	s.logger.Info("CreateExpense request received",
		"group_id", msg.GroupID,
		"amount", msg.Amount,
		"split_type", msg.SplitType,
		"user_id", userID,
	)

	description := strings.TrimSpace(msg.Description)
	if description == "" {
		return nil, invalidArgument("description required")
	}

	unlock := s.lockGroup(msg.GroupID)
	defer unlock()

	group, err := s.memberGroup(ctx, msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !group.Active {
		return nil, toConnectError(&ledger.PreconditionError{Reason: "group " + group.ID + " is archived"})
	}

	payer := msg.PaidBy
	if payer == "" {
		payer = userID
	}
	if !group.IsActiveMember(payer) {
		return nil, toConnectError(&ledger.ValidationError{Kind: ledger.UnknownParticipant, Member: payer, Field: "paid_by"})
	}

	policy, err := parsePolicy(msg.SplitType)
	if err != nil {
		return nil, toConnectError(err)
	}
	split, err := buildSplit(policy, msg.ParticipantIDs, msg.Shares, group.ActiveMemberIDs())
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := checkParticipants(group, split); err != nil {
		return nil, toConnectError(err)
	}

	expense := &models.Expense{
		ID:          uuid.NewString(),
		GroupID:     group.ID,
		Description: description,
		Amount:      msg.Amount,
		PaidBy:      payer,
		CreatedBy:   userID,
		Policy:      policy,
		Notes:       msg.Notes,
		ExpenseDate: msg.ExpenseDate,
	}
	if expense.Shares, err = s.engine.CreateExpenseShares(expense, split); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		s.logger.Error("CreateExpense failed", "error", err)
		return nil, toConnectError(err)
	}
	s.metrics.ExpenseRecorded(string(policy))

	s.logger.Info("Expense created", "expense_id", expense.ID, "group_id", group.ID, "shares", len(expense.Shares))
	return connect.NewResponse(&api.CreateExpenseResponse{Expense: expenseToAPI(expense, userID)}), nil
}

// GetExpense retrieves an expense with its shares.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	expense, _, err := s.visibleExpense(ctx, req.Msg.ExpenseID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetExpenseResponse{Expense: expenseToAPI(expense, userID)}), nil
}

// ListExpenses pages through a group's expenses, newest first. The page
// token is the offset of the next page.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	pageSize := req.Msg.PageSize
	switch {
	case pageSize < 0:
		return nil, invalidArgument("page_size must not be negative")
	case pageSize == 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}

	offset := 0
	if token := req.Msg.PageToken; token != "" {
		if offset, err = strconv.Atoi(token); err != nil || offset < 0 {
			return nil, invalidArgument("invalid page_token %q", token)
		}
	}

	if _, err := s.memberGroup(ctx, req.Msg.GroupID, userID); err != nil {
		return nil, toConnectError(err)
	}

	expenses, total, err := s.store.ListExpensesByGroup(ctx, req.Msg.GroupID, pageSize, offset)
	if err != nil {
		s.logger.Error("ListExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	resp := &api.ListExpensesResponse{
		Expenses:   make([]*api.Expense, len(expenses)),
		TotalCount: total,
	}
	for i := range expenses {
		resp.Expenses[i] = expenseToAPI(&expenses[i], userID)
	}
	if next := offset + len(expenses); next < total {
		resp.NextPageToken = strconv.Itoa(next)
	}
	return connect.NewResponse(resp), nil
}

// UpdateExpense edits an expense. Only the payer or a group admin may do
// so. Changing the amount, split type, participants or shares replaces all
// shares with new unsettled ones.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	current, err := s.store.GetExpense(ctx, msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(err)
	}
	unlock := s.lockGroup(current.GroupID)
	defer unlock()

	expense, group, err := s.editableExpense(ctx, msg.ExpenseID, userID, "update")
	if err != nil {
		return nil, toConnectError(err)
	}

	if msg.Description != nil {
		d := strings.TrimSpace(*msg.Description)
		if d == "" {
			return nil, invalidArgument("description must not be empty")
		}
		expense.Description = d
	}
	if msg.Notes != nil {
		expense.Notes = *msg.Notes
	}
	if msg.ExpenseDate != nil {
		expense.ExpenseDate = *msg.ExpenseDate
	}
	if msg.PaidBy != nil {
		if !group.IsActiveMember(*msg.PaidBy) {
			return nil, toConnectError(&ledger.ValidationError{Kind: ledger.UnknownParticipant, Member: *msg.PaidBy, Field: "paid_by"})
		}
		expense.PaidBy = *msg.PaidBy
	}

	regenerate := msg.Amount != nil || msg.SplitType != nil || len(msg.ParticipantIDs) > 0 || len(msg.Shares) > 0
	if regenerate {
		if msg.Amount != nil {
			expense.Amount = *msg.Amount
		}
		policy := expense.Policy
		if msg.SplitType != nil {
			if policy, err = parsePolicy(*msg.SplitType); err != nil {
				return nil, toConnectError(err)
			}
		}

		split, err := s.splitForUpdate(expense, policy, msg, group)
		if err != nil {
			return nil, toConnectError(err)
		}
		expense.Policy = policy
		if expense.Shares, err = s.engine.CreateExpenseShares(expense, split); err != nil {
			return nil, toConnectError(err)
		}
	}

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		s.logger.Error("UpdateExpense failed", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Expense updated", "expense_id", expense.ID, "regenerated_shares", regenerate, "by", userID)
	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: expenseToAPI(expense, userID)}), nil
}

// splitForUpdate picks the split for a regenerated expense: the request's
// participants or shares when given, otherwise the expense's current
// participants under the (possibly new) policy.
func (s *ExpenseService) splitForUpdate(expense *models.Expense, policy models.SplitPolicy, msg *api.UpdateExpenseRequest, group *models.Group) (ledger.Split, error) {
	var split ledger.Split
	var err error
	switch {
	case len(msg.ParticipantIDs) > 0 || len(msg.Shares) > 0:
		split, err = buildSplit(policy, msg.ParticipantIDs, msg.Shares, group.ActiveMemberIDs())
	case policy == expense.Policy:
		split, err = ledger.SplitFromShares(policy, expense.Shares)
	default:
		current := make([]string, len(expense.Shares))
		for i, sh := range expense.Shares {
			current[i] = sh.UserID
		}
		split, err = buildSplit(policy, current, nil, nil)
	}
	if err != nil {
		return nil, err
	}
	return split, checkParticipants(group, split)
}

// DeleteExpense removes an expense and its shares. Only the payer or a
// group admin may do so.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	current, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(err)
	}
	unlock := s.lockGroup(current.GroupID)
	defer unlock()

	if _, _, err := s.editableExpense(ctx, req.Msg.ExpenseID, userID, "delete"); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.DeleteExpense(ctx, req.Msg.ExpenseID); err != nil {
		return nil, toConnectError(err)
	}

	s.logger.Info("Expense deleted", "expense_id", req.Msg.ExpenseID, "by", userID)
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// GetExpenseShares lists the shares of one expense.
func (s *ExpenseService) GetExpenseShares(ctx context.Context, req *connect.Request[api.GetExpenseSharesRequest]) (*connect.Response[api.GetExpenseSharesResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	expense, _, err := s.visibleExpense(ctx, req.Msg.ExpenseID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetExpenseSharesResponse{Shares: sharesToAPI(expense.Shares)}), nil
}

// SettleShares marks shares as paid. A share may be settled by its own
// member or by the payer of its expense. Settling is all-or-nothing and
// settling an already settled share changes nothing.
func (s *ExpenseService) SettleShares(ctx context.Context, req *connect.Request[api.SettleSharesRequest]) (*connect.Response[api.SettleSharesResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	groupID := msg.GroupID
	if groupID == "" && msg.ExpenseID != "" {
		expense, err := s.store.GetExpense(ctx, msg.ExpenseID)
		if err != nil {
			return nil, toConnectError(err)
		}
		groupID = expense.GroupID
	}
	s.logger.Info("SettleShares request received", "group_id", groupID, "shares", len(msg.ShareIDs), "user_id", userID)

	unlock := s.lockGroup(groupID)
	defer unlock()

	if _, err := s.memberGroup(ctx, groupID, userID); err != nil {
		return nil, toConnectError(err)
	}
	if len(msg.ShareIDs) == 0 {
		return connect.NewResponse(&api.SettleSharesResponse{SettledShareIDs: []string{}}), nil
	}

	_, snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if msg.ExpenseID != "" {
		snap.Expenses = onlyExpense(snap.Expenses, msg.ExpenseID)
		if len(snap.Expenses) == 0 {
			return nil, toConnectError(&ledger.NotFoundError{Resource: "expense", ID: msg.ExpenseID})
		}
	}

	settlement, err := s.engine.Settle(snap, msg.ShareIDs, userID)
	if err != nil {
		s.logger.Warn("SettleShares rejected", "group_id", groupID, "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	changed, err := s.store.MarkSharesSettled(ctx, settlement.ShareIDs, settlement.SettledAt)
	if err != nil {
		s.logger.Error("SettleShares failed", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}
	s.metrics.SharesSettled(changed)

	settled := settlement.ShareIDs
	if settled == nil {
		settled = []string{}
	}
	s.logger.Info("Shares settled", "group_id", groupID, "settled", changed, "by", userID)
	return connect.NewResponse(&api.SettleSharesResponse{SettledShareIDs: settled}), nil
}

// visibleExpense loads an expense the user may read.
func (s *ExpenseService) visibleExpense(ctx context.Context, expenseID, userID string) (*models.Expense, *models.Group, error) {
	if expenseID == "" {
		return nil, nil, invalidArgument("expense_id required")
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	group, err := s.memberGroup(ctx, expense.GroupID, userID)
	if err != nil {
		return nil, nil, err
	}
	return expense, group, nil
}

// editableExpense loads an expense the user may change: they paid it or
// administer its group.
func (s *ExpenseService) editableExpense(ctx context.Context, expenseID, userID, action string) (*models.Expense, *models.Group, error) {
	expense, group, err := s.visibleExpense(ctx, expenseID, userID)
	if err != nil {
		return nil, nil, err
	}
	if expense.PaidBy != userID && !group.IsAdmin(userID) {
		return nil, nil, &ledger.AuthorizationError{Actor: userID, Action: action, Resource: "expense", ID: expenseID}
	}
	return expense, group, nil
}

func onlyExpense(expenses []models.Expense, id string) []models.Expense {
	for _, e := range expenses {
		if e.ID == id {
			return []models.Expense{e}
		}
	}
	return nil
}

func parsePolicy(name string) (models.SplitPolicy, error) {
	policy, err := models.ParseSplitPolicy(strings.ToUpper(strings.TrimSpace(name)))
	if err != nil {
		return "", &ledger.ValidationError{Kind: ledger.InvalidPolicy, Field: "split_type", Got: name}
	}
	return policy, nil
}

// buildSplit turns request data into a ledger.Split. Participants come from
// participantIDs, else from the share entries, else (EQUAL only) from
// fallback.
func buildSplit(policy models.SplitPolicy, participantIDs []string, shares []*api.ShareInput, fallback []string) (ledger.Split, error) {
	participants := participantIDs
	if len(participants) == 0 {
		for _, sh := range shares {
			participants = append(participants, sh.UserID)
		}
	}

	switch policy {
	case models.SplitEqual:
		if len(participants) == 0 {
			participants = fallback
		}
		return ledger.EqualSplit{Participants: participants}, nil

	case models.SplitExact:
		amounts := make(map[string]money.Money, len(shares))
		for _, sh := range shares {
			if _, dup := amounts[sh.UserID]; dup {
				return nil, &ledger.ValidationError{Kind: ledger.DuplicateParticipant, Member: sh.UserID, Field: "shares"}
			}
			if sh.Amount == nil {
				return nil, &ledger.ValidationError{Kind: ledger.MissingShareData, Member: sh.UserID, Field: "amount"}
			}
			amounts[sh.UserID] = *sh.Amount
		}
		return ledger.ExactSplit{Participants: participants, Amounts: amounts}, nil

	case models.SplitPercentage:
		pcts := make(map[string]money.Percent, len(shares))
		for _, sh := range shares {
			if _, dup := pcts[sh.UserID]; dup {
				return nil, &ledger.ValidationError{Kind: ledger.DuplicateParticipant, Member: sh.UserID, Field: "shares"}
			}
			if sh.Percentage == nil {
				return nil, &ledger.ValidationError{Kind: ledger.MissingShareData, Member: sh.UserID, Field: "percentage"}
			}
			pcts[sh.UserID] = *sh.Percentage
		}
		return ledger.PercentageSplit{Participants: participants, Percentages: pcts}, nil

	default:
		return nil, &ledger.ValidationError{Kind: ledger.InvalidPolicy, Field: "split_type", Got: string(policy)}
	}
}

// checkParticipants rejects splits naming someone who is not an active
// member of the group.
func checkParticipants(group *models.Group, split ledger.Split) error {
	for _, id := range ledger.Participants(split) {
		if !group.IsActiveMember(id) {
			return &ledger.ValidationError{Kind: ledger.UnknownParticipant, Member: id, Field: "participant_ids"}
		}
	}
	return nil
}
