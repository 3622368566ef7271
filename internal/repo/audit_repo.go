package repo

import (
	"context"

	"github.com/didi/gendry/builder"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/dbutil"
)

var auditFields = []string{"id", "action", "recording_id", "actor_id", "target_user_id", "can_edit", "can_reshare", "actor_can_edit", "actor_can_reshare", "share_id", "notes", "actor_ip", "ctime"}

// AuditRepo only appends and lists. There is deliberately no update or
// delete method.
type AuditRepo struct {
	q dbutil.Querier
}

func NewAuditRepo(q dbutil.Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

func (r *AuditRepo) Append(ctx context.Context, entry *model.AuditEntry) error {
	var target, shareID interface{}
	if entry.TargetUserID != "" {
		target = entry.TargetUserID
	}
	if entry.ShareID != "" {
		shareID = entry.ShareID
	}
	data := map[string]interface{}{
		"id":                entry.ID,
		"action":            entry.Action,
		"recording_id":      entry.RecordingID,
		"actor_id":          entry.ActorID,
		"target_user_id":    target,
		"can_edit":          entry.CanEdit,
		"can_reshare":       entry.CanReshare,
		"actor_can_edit":    entry.ActorCanEdit,
		"actor_can_reshare": entry.ActorCanReshare,
		"share_id":          shareID,
		"notes":             entry.Notes,
		"actor_ip":          entry.ActorIP,
		"ctime":             entry.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("share_audit", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.q.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *AuditRepo) ListByRecording(ctx context.Context, recordingID string, limit, offset uint) ([]model.AuditEntry, error) {
	where := map[string]interface{}{
		"recording_id": recordingID,
		"_orderby":     "ctime desc",
		"_limit":       []uint{offset, limit},
	}
	sqlStr, args, err := builder.BuildSelect("share_audit", where, auditFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.AuditEntry, 0)
	for rows.Next() {
		var item model.AuditEntry
		var target, shareID *string
		if err := rows.Scan(&item.ID, &item.Action, &item.RecordingID, &item.ActorID, &target, &item.CanEdit, &item.CanReshare, &item.ActorCanEdit, &item.ActorCanReshare, &shareID, &item.Notes, &item.ActorIP, &item.Ctime); err != nil {
			return nil, err
		}
		if target != nil {
			item.TargetUserID = *target
		}
		if shareID != nil {
			item.ShareID = *shareID
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
