package repo

import (
	"context"

	"github.com/didi/gendry/builder"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/dbutil"
	appErr "github.com/murtaza-nasir/speakr-sub001/internal/pkg/errors"
)

var tagFields = []string{"id", "name", "group_id", "auto_share_on_apply", "share_with_group_lead", "ctime"}

type TagRepo struct {
	q dbutil.Querier
}

func NewTagRepo(q dbutil.Querier) *TagRepo {
	return &TagRepo{q: q}
}

func (r *TagRepo) Create(ctx context.Context, tag *model.Tag) error {
	var groupID interface{}
	if tag.GroupID != "" {
		groupID = tag.GroupID
	}
	data := map[string]interface{}{
		"id":                    tag.ID,
		"name":                  tag.Name,
		"group_id":              groupID,
		"auto_share_on_apply":   tag.AutoShareOnApply,
		"share_with_group_lead": tag.ShareWithGroupLead,
		"ctime":                 tag.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("tags", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.q.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *TagRepo) GetByID(ctx context.Context, tagID string) (*model.Tag, error) {
	where := map[string]interface{}{"id": tagID}
	sqlStr, args, err := builder.BuildSelect("tags", where, tagFields)
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
	return scanTag(rows)
}

func (r *TagRepo) List(ctx context.Context) ([]model.Tag, error) {
	where := map[string]interface{}{"_orderby": "ctime asc"}
	sqlStr, args, err := builder.BuildSelect("tags", where, tagFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Tag, 0)
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *tag)
	}
	return items, rows.Err()
}

// Assign files a recording into a tag. The primary key on recording_id
// keeps at most one assignment per recording; re-assigning replaces it.
func (r *TagRepo) Assign(ctx context.Context, recordingID, tagID string, now int64) error {
	sqlStr := `
		INSERT INTO recording_tags (recording_id, tag_id, ctime)
		VALUES (?, ?, ?)
		ON CONFLICT (recording_id)
		DO UPDATE SET tag_id = EXCLUDED.tag_id, ctime = EXCLUDED.ctime
	`
	args := []interface{}{recordingID, tagID, now}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err := r.q.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *TagRepo) Unassign(ctx context.Context, recordingID string) error {
	where := map[string]interface{}{"recording_id": recordingID}
	sqlStr, args, err := builder.BuildDelete("recording_tags", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.q.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *TagRepo) GetAssignment(ctx context.Context, recordingID string) (*model.RecordingTag, error) {
	where := map[string]interface{}{"recording_id": recordingID}
	sqlStr, args, err := builder.BuildSelect("recording_tags", where, []string{"recording_id", "tag_id", "ctime"})
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
	var rt model.RecordingTag
	if err := rows.Scan(&rt.RecordingID, &rt.TagID, &rt.Ctime); err != nil {
		return nil, err
	}
	return &rt, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTag(rows rowScanner) (*model.Tag, error) {
	var tag model.Tag
	var groupID *string
	if err := rows.Scan(&tag.ID, &tag.Name, &groupID, &tag.AutoShareOnApply, &tag.ShareWithGroupLead, &tag.Ctime); err != nil {
		return nil, err
	}
	if groupID != nil {
		tag.GroupID = *groupID
	}
	return &tag, nil
}
