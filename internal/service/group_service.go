package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
	"github.com/mmynk/fintrack/pkg/api"
	"github.com/mmynk/fintrack/pkg/api/apiconnect"
)

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService
type GroupService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, logger *slog.Logger) *GroupService {
	return &GroupService{store: store, logger: logger}
}

// CreateGroup creates a new group. The caller becomes its first admin and
// every user named in member_emails joins as a plain member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Msg.Name)
	s.logger.Info("CreateGroup request received",
		"name", name,
		"members_count", len(req.Msg.MemberEmails),
	)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("name required"))
	}

	group := &models.Group{
		Name:      name,
		CreatedBy: userID,
		Members:   []models.Member{{UserID: userID, Role: models.RoleAdmin}},
	}

	seen := map[string]bool{userID: true}
	for _, email := range req.Msg.MemberEmails {
		user, err := s.userByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if seen[user.ID] {
			continue
		}
		seen[user.ID] = true
		group.Members = append(group.Members, models.Member{UserID: user.ID, Role: models.RoleMember})
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		s.logger.Error("CreateGroup failed", "error", err)
		return nil, storageError(err)
	}

	// Re-read to pick up member names and emails.
	created, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		s.logger.Error("Failed to fetch created group", "group_id", group.ID, "error", err)
		return nil, storageError(err)
	}

	s.logger.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(created)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("GetGroup request received", "group_id", req.Msg.GroupId)

	group, err := groupForMember(ctx, s.store, req.Msg.GroupId, userID)
	if err != nil {
		s.logger.Warn("GetGroup failed", "group_id", req.Msg.GroupId, "error", err)
		return nil, err
	}

	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups retrieves the caller's groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		s.logger.Error("ListGroups failed", "error", err)
		return nil, storageError(err)
	}

	out := make([]*api.Group, len(groups))
	for i, group := range groups {
		out[i] = toAPIGroup(group)
	}

	s.logger.Info("ListGroups successful", "count", len(groups))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// AddMember adds a registered user to the group. Admins only.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("AddMember request received", "group_id", req.Msg.GroupId, "email", req.Msg.Email)

	if _, err := groupForAdmin(ctx, s.store, req.Msg.GroupId, userID); err != nil {
		return nil, err
	}

	role := models.RoleMember
	if req.Msg.Role != "" {
		role = models.Role(strings.ToLower(req.Msg.Role))
		if !role.Valid() {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown role %q", req.Msg.Role))
		}
	}

	user, err := s.userByEmail(ctx, req.Msg.Email)
	if err != nil {
		return nil, err
	}

	if err := s.store.AddMember(ctx, req.Msg.GroupId, models.Member{UserID: user.ID, Role: role}); err != nil {
		s.logger.Warn("AddMember failed", "group_id", req.Msg.GroupId, "error", err)
		return nil, storageError(err)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, storageError(err)
	}

	s.logger.Info("Member added", "group_id", group.ID, "user_id", user.ID, "role", role)
	return connect.NewResponse(&api.AddMemberResponse{Group: toAPIGroup(group)}), nil
}

// RemoveMember takes a user off the roster. Admins may remove anyone; a
// member may remove themselves. The removed user's history stays and shows
// up as an orphaned balance entry.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("RemoveMember request received", "group_id", req.Msg.GroupId, "user_id", req.Msg.UserId)

	group, err := groupForMember(ctx, s.store, req.Msg.GroupId, userID)
	if err != nil {
		return nil, err
	}
	if req.Msg.UserId != userID && !group.IsAdmin(userID) {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("only group admins can remove other members"))
	}

	target := group.Member(req.Msg.UserId)
	if target == nil {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("member %s: %w", req.Msg.UserId, storage.ErrNotFound))
	}
	if target.Role == models.RoleAdmin && countAdmins(group) == 1 {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("cannot remove the last admin"))
	}

	if err := s.store.RemoveMember(ctx, group.ID, target.UserID); err != nil {
		s.logger.Error("RemoveMember failed", "group_id", group.ID, "error", err)
		return nil, storageError(err)
	}

	updated, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, storageError(err)
	}

	s.logger.Info("Member removed", "group_id", group.ID, "user_id", target.UserID)
	return connect.NewResponse(&api.RemoveMemberResponse{Group: toAPIGroup(updated)}), nil
}

// DeleteGroup removes a group and its history. Admins only.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("DeleteGroup request received", "group_id", req.Msg.GroupId)

	if _, err := groupForAdmin(ctx, s.store, req.Msg.GroupId, userID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteGroup(ctx, req.Msg.GroupId); err != nil {
		s.logger.Error("DeleteGroup failed", "error", err)
		return nil, storageError(err)
	}

	s.logger.Info("Group deleted", "group_id", req.Msg.GroupId)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

func (s *GroupService) userByEmail(ctx context.Context, email string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("email required"))
	}
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if user == nil {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("no user registered with email %s", email))
	}
	return user, nil
}

func countAdmins(g *models.Group) int {
	n := 0
	for _, m := range g.Members {
		if m.Role == models.RoleAdmin {
			n++
		}
	}
	return n
}
