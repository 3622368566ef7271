package service

import (
	"context"
	"database/sql"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/dbutil"
	appErr "github.com/murtaza-nasir/speakr-sub001/internal/pkg/errors"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/timeutil"
	"github.com/murtaza-nasir/speakr-sub001/internal/repo"
)

type GroupService struct {
	db     *sql.DB
	groups *repo.GroupRepo
}

func NewGroupService(db *sql.DB, groups *repo.GroupRepo) *GroupService {
	return &GroupService{db: db, groups: groups}
}

// Create makes a group with the creator as its first admin, in one
// transaction.
func (s *GroupService) Create(ctx context.Context, actorID, name string) (*model.Group, error) {
	now := timeutil.NowUnix()
	group := &model.Group{ID: newID(), Name: name, Ctime: now}
	err := dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		txGroups := repo.NewGroupRepo(tx)
		if err := txGroups.Create(ctx, group); err != nil {
			return err
		}
		return txGroups.AddMember(ctx, &model.GroupMember{
			GroupID: group.ID,
			UserID:  actorID,
			Role:    model.GroupRoleAdmin,
			Ctime:   now,
		})
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) AddMember(ctx context.Context, actorID, groupID, userID, role string) (*model.GroupMember, error) {
	if role != model.GroupRoleAdmin && role != model.GroupRoleMember {
		return nil, appErr.ErrInvalid
	}
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	actor, err := s.groups.GetMember(ctx, groupID, actorID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.ErrForbidden
		}
		return nil, err
	}
	if actor.Role != model.GroupRoleAdmin {
		return nil, appErr.ErrForbidden
	}
	member := &model.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Role:    role,
		Ctime:   timeutil.NowUnix(),
	}
	if err := s.groups.AddMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *GroupService) ListForUser(ctx context.Context, userID string) ([]model.Group, error) {
	return s.groups.ListForUser(ctx, userID)
}

func (s *GroupService) ListMembers(ctx context.Context, actorID, groupID string) ([]model.GroupMember, error) {
	if _, err := s.groups.GetMember(ctx, groupID, actorID); err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.ErrForbidden
		}
		return nil, err
	}
	return s.groups.ListMembers(ctx, groupID)
}
