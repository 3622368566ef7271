package repo

import (
	"context"

	"github.com/didi/gendry/builder"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/dbutil"
	appErr "github.com/murtaza-nasir/speakr-sub001/internal/pkg/errors"
)

type GroupRepo struct {
	q dbutil.Querier
}

func NewGroupRepo(q dbutil.Querier) *GroupRepo {
	return &GroupRepo{q: q}
}

func (r *GroupRepo) Create(ctx context.Context, group *model.Group) error {
	data := map[string]interface{}{
		"id":    group.ID,
		"name":  group.Name,
		"ctime": group.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("groups", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.q.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *GroupRepo) GetByID(ctx context.Context, groupID string) (*model.Group, error) {
	where := map[string]interface{}{"id": groupID}
	sqlStr, args, err := builder.BuildSelect("groups", where, []string{"id", "name", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var group model.Group
	if err := rows.Scan(&group.ID, &group.Name, &group.Ctime); err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepo) AddMember(ctx context.Context, member *model.GroupMember) error {
	data := map[string]interface{}{
		"group_id": member.GroupID,
		"user_id":  member.UserID,
		"role":     member.Role,
		"ctime":    member.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("group_members", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

// ListMembers is the membership directory the auto-share trigger
// consumes: every member of the group with their role.
func (r *GroupRepo) ListMembers(ctx context.Context, groupID string) ([]model.GroupMember, error) {
	where := map[string]interface{}{"group_id": groupID, "_orderby": "ctime asc"}
	sqlStr, args, err := builder.BuildSelect("group_members", where, []string{"group_id", "user_id", "role", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.GroupMember, 0)
	for rows.Next() {
		var item model.GroupMember
		if err := rows.Scan(&item.GroupID, &item.UserID, &item.Role, &item.Ctime); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *GroupRepo) ListForUser(ctx context.Context, userID string) ([]model.Group, error) {
	sqlStr := `
		SELECT g.id, g.name, g.ctime
		FROM group_members m
		JOIN groups g ON g.id = m.group_id
		WHERE m.user_id = ?
		ORDER BY g.ctime ASC
	`
	args := []interface{}{userID}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Group, 0)
	for rows.Next() {
		var item model.Group
		if err := rows.Scan(&item.ID, &item.Name, &item.Ctime); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *GroupRepo) GetMember(ctx context.Context, groupID, userID string) (*model.GroupMember, error) {
	where := map[string]interface{}{"group_id": groupID, "user_id": userID}
	sqlStr, args, err := builder.BuildSelect("group_members", where, []string{"group_id", "user_id", "role", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var member model.GroupMember
	if err := rows.Scan(&member.GroupID, &member.UserID, &member.Role, &member.Ctime); err != nil {
		return nil, err
	}
	return &member, nil
}
