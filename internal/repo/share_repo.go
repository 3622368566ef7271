package repo

import (
	"context"

	"github.com/didi/gendry/builder"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/dbutil"
	appErr "github.com/murtaza-nasir/speakr-sub001/internal/pkg/errors"
)

var shareFields = []string{"id", "recording_id", "grantor_id", "recipient_id", "can_edit", "can_reshare", "source_type", "source_tag_id", "ctime"}

// ShareRepo is the delegation-edge ledger. It accepts any Querier so
// callers can run edge writes inside the same transaction as the
// overlay upsert.
type ShareRepo struct {
	q dbutil.Querier
}

func NewShareRepo(q dbutil.Querier) *ShareRepo {
	return &ShareRepo{q: q}
}

func (r *ShareRepo) Create(ctx context.Context, share *model.Share) error {
	var sourceTag interface{}
	if share.SourceTagID != "" {
		sourceTag = share.SourceTagID
	}
	data := map[string]interface{}{
		"id":            share.ID,
		"recording_id":  share.RecordingID,
		"grantor_id":    share.GrantorID,
		"recipient_id":  share.RecipientID,
		"can_edit":      share.CanEdit,
		"can_reshare":   share.CanReshare,
		"source_type":   share.SourceType,
		"source_tag_id": sourceTag,
		"ctime":         share.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("recording_shares", []map[string]interface{}{data})
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

func (r *ShareRepo) GetByID(ctx context.Context, recordingID, shareID string) (*model.Share, error) {
	return r.getOne(ctx, map[string]interface{}{"recording_id": recordingID, "id": shareID})
}

func (r *ShareRepo) GetByRecipient(ctx context.Context, recordingID, recipientID string) (*model.Share, error) {
	return r.getOne(ctx, map[string]interface{}{"recording_id": recordingID, "recipient_id": recipientID})
}

func (r *ShareRepo) ListByRecording(ctx context.Context, recordingID string) ([]model.Share, error) {
	return r.list(ctx, map[string]interface{}{"recording_id": recordingID, "_orderby": "ctime asc"})
}

// ListGrantedBy returns the edges a given grantor created for one
// recording, i.e. the downstream of a revocation cascade.
func (r *ShareRepo) ListGrantedBy(ctx context.Context, recordingID, grantorID string) ([]model.Share, error) {
	return r.list(ctx, map[string]interface{}{"recording_id": recordingID, "grantor_id": grantorID, "_orderby": "ctime asc"})
}

// ExistsAlternate reports whether the recipient holds an edge to the
// recording from anyone other than excludeGrantor. Under the uniqueness
// index this can only be true in concurrent-mutation windows, but the
// revocation engine relies on the exact semantics, so it stays a real
// query.
func (r *ShareRepo) ExistsAlternate(ctx context.Context, recordingID, recipientID, excludeGrantor string) (bool, error) {
	where := map[string]interface{}{
		"recording_id":  recordingID,
		"recipient_id":  recipientID,
		"grantor_id !=": excludeGrantor,
	}
	sqlStr, args, err := builder.BuildSelect("recording_shares", where, []string{"id"})
	if err != nil {
		return false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

func (r *ShareRepo) Delete(ctx context.Context, recordingID, shareID string) (bool, error) {
	where := map[string]interface{}{"recording_id": recordingID, "id": shareID}
	sqlStr, args, err := builder.BuildDelete("recording_shares", where)
	if err != nil {
		return false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *ShareRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Share, error) {
	items, err := r.list(ctx, where)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

func (r *ShareRepo) list(ctx context.Context, where map[string]interface{}) ([]model.Share, error) {
	sqlStr, args, err := builder.BuildSelect("recording_shares", where, shareFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Share, 0)
	for rows.Next() {
		var item model.Share
		var sourceTag *string
		if err := rows.Scan(&item.ID, &item.RecordingID, &item.GrantorID, &item.RecipientID, &item.CanEdit, &item.CanReshare, &item.SourceType, &sourceTag, &item.Ctime); err != nil {
			return nil, err
		}
		if sourceTag != nil {
			item.SourceTagID = *sourceTag
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
