package repo

import (
	"context"

	"github.com/didi/gendry/builder"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/dbutil"
	appErr "github.com/murtaza-nasir/speakr-sub001/internal/pkg/errors"
)

var recordingFields = []string{"id", "owner_id", "title", "duration_secs", "state", "ctime", "mtime"}

type RecordingRepo struct {
	q dbutil.Querier
}

func NewRecordingRepo(q dbutil.Querier) *RecordingRepo {
	return &RecordingRepo{q: q}
}

func (r *RecordingRepo) Create(ctx context.Context, rec *model.Recording) error {
	data := map[string]interface{}{
		"id":            rec.ID,
		"owner_id":      rec.OwnerID,
		"title":         rec.Title,
		"duration_secs": rec.DurationSecs,
		"state":         rec.State,
		"ctime":         rec.Ctime,
		"mtime":         rec.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("recordings", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.q.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *RecordingRepo) GetByID(ctx context.Context, recordingID string) (*model.Recording, error) {
	where := map[string]interface{}{"id": recordingID, "state": model.RecordingStateActive}
	items, err := r.list(ctx, where)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

func (r *RecordingRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Recording, error) {
	return r.list(ctx, map[string]interface{}{"owner_id": ownerID, "state": model.RecordingStateActive, "_orderby": "mtime desc"})
}

// ListSharedWith returns recordings a user can access through a share
// edge, newest grant first.
func (r *RecordingRepo) ListSharedWith(ctx context.Context, userID string) ([]model.Recording, error) {
	sqlStr := `
		SELECT r.id, r.owner_id, r.title, r.duration_secs, r.state, r.ctime, r.mtime
		FROM recording_shares s
		JOIN recordings r ON r.id = s.recording_id
		WHERE s.recipient_id = ? AND r.state = ?
		ORDER BY s.ctime DESC
	`
	args := []interface{}{userID, model.RecordingStateActive}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Recording, 0)
	for rows.Next() {
		var item model.Recording
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Title, &item.DurationSecs, &item.State, &item.Ctime, &item.Mtime); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *RecordingRepo) list(ctx context.Context, where map[string]interface{}) ([]model.Recording, error) {
	sqlStr, args, err := builder.BuildSelect("recordings", where, recordingFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Recording, 0)
	for rows.Next() {
		var item model.Recording
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Title, &item.DurationSecs, &item.State, &item.Ctime, &item.Mtime); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
