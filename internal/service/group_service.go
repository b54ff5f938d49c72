package service

import (
	"context"
	"slices"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/fistein/internal/ledger"
	"github.com/mmynk/fistein/internal/models"
	"github.com/mmynk/fistein/pkg/api"
	"github.com/mmynk/fistein/pkg/api/apiconnect"
)

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService.
type GroupService struct {
	*Ledger
}

// NewGroupService creates a GroupService backed by l.
func NewGroupService(l *Ledger) *GroupService {
	return &GroupService{Ledger: l}
}

// CreateGroup creates a new group with the caller as its admin.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Msg.Name)
	s.logger.Info("CreateGroup request received", "name", name, "members_count", len(req.Msg.MemberIDs), "user_id", userID)
	if name == "" {
		return nil, invalidArgument("group name required")
	}

	var others []string
	for _, id := range req.Msg.MemberIDs {
		if id != "" && id != userID && !slices.Contains(others, id) {
			others = append(others, id)
		}
	}
	found, err := s.store.GetUsersByIDs(ctx, others)
	if err != nil {
		return nil, toConnectError(err)
	}
	for _, id := range others {
		if _, ok := found[id]; !ok {
			return nil, toConnectError(&ledger.NotFoundError{Resource: "user", ID: id})
		}
	}

	group := &models.Group{
		Name:        name,
		Description: strings.TrimSpace(req.Msg.Description),
		CreatedBy:   userID,
		Members:     []models.GroupMember{{UserID: userID, IsAdmin: true}},
	}
	for _, id := range others {
		group.Members = append(group.Members, models.GroupMember{UserID: id})
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		s.logger.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	created, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	s.logger.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: groupToAPI(created)}), nil
}

// GetGroup retrieves a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	group, err := s.memberGroup(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: groupToAPI(group)}), nil
}

// ListGroups retrieves the caller's groups, newest first.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		s.logger.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = groupToAPI(g)
	}
	s.logger.Info("ListGroups successful", "user_id", userID, "count", len(groups))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// AddMember adds an existing user to the group. Admins only. Re-adding a
// removed member reactivates them with their history.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.UserID == "" {
		return nil, invalidArgument("user_id required")
	}

	unlock := s.lockGroup(req.Msg.GroupID)
	defer unlock()

	group, err := s.adminGroup(ctx, req.Msg.GroupID, userID, "add members to")
	if err != nil {
		return nil, toConnectError(err)
	}
	if group.IsActiveMember(req.Msg.UserID) {
		return connect.NewResponse(&api.AddMemberResponse{Group: groupToAPI(group)}), nil
	}

	user, err := s.store.GetUserByID(ctx, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if user == nil {
		return nil, toConnectError(&ledger.NotFoundError{Resource: "user", ID: req.Msg.UserID})
	}

	if err := s.store.AddGroupMember(ctx, group.ID, user.ID, false); err != nil {
		return nil, toConnectError(err)
	}
	if group, err = s.store.GetGroup(ctx, group.ID); err != nil {
		return nil, toConnectError(err)
	}

	s.logger.Info("Member added", "group_id", group.ID, "member_id", user.ID, "by", userID)
	return connect.NewResponse(&api.AddMemberResponse{Group: groupToAPI(group)}), nil
}

// RemoveMember marks a member inactive. Admins may remove anyone; members
// may remove themselves. The last admin cannot leave.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	target := req.Msg.UserID
	if target == "" {
		return nil, invalidArgument("user_id required")
	}

	unlock := s.lockGroup(req.Msg.GroupID)
	defer unlock()

	var group *models.Group
	if target == userID {
		group, err = s.memberGroup(ctx, req.Msg.GroupID, userID)
	} else {
		group, err = s.adminGroup(ctx, req.Msg.GroupID, userID, "remove members from")
	}
	if err != nil {
		return nil, toConnectError(err)
	}

	if !group.IsActiveMember(target) {
		return nil, toConnectError(&ledger.NotFoundError{Resource: "member", ID: target})
	}
	if group.IsAdmin(target) && countAdmins(group) == 1 {
		return nil, toConnectError(&ledger.PreconditionError{Reason: "group must keep at least one admin"})
	}

	if err := s.store.DeactivateGroupMember(ctx, group.ID, target); err != nil {
		return nil, toConnectError(err)
	}
	if group, err = s.store.GetGroup(ctx, group.ID); err != nil {
		return nil, toConnectError(err)
	}

	s.logger.Info("Member removed", "group_id", group.ID, "member_id", target, "by", userID)
	return connect.NewResponse(&api.RemoveMemberResponse{Group: groupToAPI(group)}), nil
}

func countAdmins(g *models.Group) int {
	n := 0
	for _, m := range g.Members {
		if m.Active && m.IsAdmin {
			n++
		}
	}
	return n
}

// UpdateGroup changes the group's name, description or active flag. Admins
// only. Fields left unset in the request keep their value.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.lockGroup(req.Msg.GroupID)
	defer unlock()

	group, err := s.adminGroup(ctx, req.Msg.GroupID, userID, "update")
	if err != nil {
		return nil, toConnectError(err)
	}

	if req.Msg.Name != nil {
		name := strings.TrimSpace(*req.Msg.Name)
		if name == "" {
			return nil, invalidArgument("group name required")
		}
		group.Name = name
	}
	if req.Msg.Description != nil {
		group.Description = strings.TrimSpace(*req.Msg.Description)
	}
	if req.Msg.Active != nil {
		group.Active = *req.Msg.Active
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		s.logger.Error("UpdateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Group updated", "group_id", group.ID, "active", group.Active, "by", userID)
	return connect.NewResponse(&api.UpdateGroupResponse{Group: groupToAPI(group)}), nil
}

// DeleteGroup removes a group with all of its expenses. Admins only.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.lockGroup(req.Msg.GroupID)
	defer unlock()

	if _, err := s.adminGroup(ctx, req.Msg.GroupID, userID, "delete"); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		s.logger.Error("DeleteGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Group deleted", "group_id", req.Msg.GroupID, "by", userID)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// GetGroupBalances returns every member's net position and the transfers
// that would settle the group.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberGroup(ctx, req.Msg.GroupID, userID); err != nil {
		return nil, toConnectError(err)
	}

	result, err := s.balances(ctx, req.Msg.GroupID)
	if err != nil {
		s.logger.Error("GetGroupBalances failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.MemberBalance, len(result.balances.Members))
	for i, b := range result.balances.Members {
		out[i] = balanceToAPI(b, result.group)
	}

	s.logger.Info("GetGroupBalances successful",
		"group_id", req.Msg.GroupID,
		"expenses_count", len(result.snapshot.Expenses),
		"members_count", len(out),
		"transfers_count", len(result.balances.Transfers),
	)
	return connect.NewResponse(&api.GetGroupBalancesResponse{
		Balances:  out,
		Transfers: transfersToAPI(result.balances.Transfers),
	}), nil
}

// GetUserBalance returns the caller's position in a group, broken down by
// counterparty.
func (s *GroupService) GetUserBalance(ctx context.Context, req *connect.Request[api.GetUserBalanceRequest]) (*connect.Response[api.GetUserBalanceResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberGroup(ctx, req.Msg.GroupID, userID); err != nil {
		return nil, toConnectError(err)
	}

	result, err := s.balances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	balance := ledger.MemberBalance{Member: userID}
	for _, b := range result.balances.Members {
		if b.Member == userID {
			balance = b
			break
		}
	}
	debts, credits := ledger.Exposures(userID, result.snapshot.Expenses)

	return connect.NewResponse(&api.GetUserBalanceResponse{
		Balance: balanceToAPI(balance, result.group),
		Debts:   exposuresToAPI(debts),
		Credits: exposuresToAPI(credits),
	}), nil
}
