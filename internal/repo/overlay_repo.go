package repo

import (
	"context"

	"github.com/didi/gendry/builder"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/dbutil"
	appErr "github.com/murtaza-nasir/speakr-sub001/internal/pkg/errors"
)

var overlayFields = []string{"recording_id", "user_id", "personal_notes", "is_inbox", "is_highlighted", "last_viewed", "ctime", "mtime"}

type OverlayRepo struct {
	q dbutil.Querier
}

func NewOverlayRepo(q dbutil.Querier) *OverlayRepo {
	return &OverlayRepo{q: q}
}

// Upsert creates the overlay row on first access. On re-grant the
// existing notes and highlight survive untouched; only is_inbox is
// forced back to true and mtime refreshed.
func (r *OverlayRepo) Upsert(ctx context.Context, o *model.Overlay) error {
	sqlStr := `
		INSERT INTO user_recordings (recording_id, user_id, personal_notes, is_inbox, is_highlighted, last_viewed, ctime, mtime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (recording_id, user_id)
		DO UPDATE SET is_inbox = TRUE, mtime = EXCLUDED.mtime
	`
	args := []interface{}{o.RecordingID, o.UserID, o.PersonalNotes, o.IsInbox, o.IsHighlighted, o.LastViewed, o.Ctime, o.Mtime}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err := r.q.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *OverlayRepo) Get(ctx context.Context, recordingID, userID string) (*model.Overlay, error) {
	where := map[string]interface{}{"recording_id": recordingID, "user_id": userID}
	sqlStr, args, err := builder.BuildSelect("user_recordings", where, overlayFields)
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
	var o model.Overlay
	if err := rows.Scan(&o.RecordingID, &o.UserID, &o.PersonalNotes, &o.IsInbox, &o.IsHighlighted, &o.LastViewed, &o.Ctime, &o.Mtime); err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateFields applies a partial patch; callers build the field map
// from the request so untouched columns keep their values.
func (r *OverlayRepo) UpdateFields(ctx context.Context, recordingID, userID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	where := map[string]interface{}{"recording_id": recordingID, "user_id": userID}
	sqlStr, args, err := builder.BuildUpdate("user_recordings", where, fields)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// ListSharesWithoutOverlay finds live edges whose recipient has no
// overlay row. Edge creation and overlay upsert share a transaction so
// this should stay empty; the repair job uses it as a safety net.
func (r *OverlayRepo) ListSharesWithoutOverlay(ctx context.Context, limit int) ([]model.Share, error) {
	sqlStr := `
		SELECT s.id, s.recording_id, s.grantor_id, s.recipient_id, s.can_edit, s.can_reshare, s.source_type, s.source_tag_id, s.ctime
		FROM recording_shares s
		LEFT JOIN user_recordings u ON u.recording_id = s.recording_id AND u.user_id = s.recipient_id
		WHERE u.user_id IS NULL
		ORDER BY s.ctime ASC
		LIMIT ?
	`
	args := []interface{}{limit}
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
