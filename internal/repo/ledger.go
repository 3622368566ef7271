package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/dbutil"
)

// Ledger bundles share edges and overlays behind one type so the
// multi-row writes can share a transaction.
type Ledger struct {
	db       *sql.DB
	shares   *ShareRepo
	overlays *OverlayRepo
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{
		db:       db,
		shares:   NewShareRepo(db),
		overlays: NewOverlayRepo(db),
	}
}

// CreateShareWithOverlay inserts the edge and upserts the recipient's
// overlay in a single transaction. The unique index on
// (recording_id, recipient_id) is the authority against a concurrent
// duplicate grant; the loser gets ErrConflict.
func (l *Ledger) CreateShareWithOverlay(ctx context.Context, share *model.Share, overlay *model.Overlay) error {
	return dbutil.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		if err := NewShareRepo(tx).Create(ctx, share); err != nil {
			return err
		}
		return NewOverlayRepo(tx).Upsert(ctx, overlay)
	})
}

func (l *Ledger) GetShare(ctx context.Context, recordingID, shareID string) (*model.Share, error) {
	return l.shares.GetByID(ctx, recordingID, shareID)
}

func (l *Ledger) GetShareByRecipient(ctx context.Context, recordingID, recipientID string) (*model.Share, error) {
	return l.shares.GetByRecipient(ctx, recordingID, recipientID)
}

func (l *Ledger) ListShares(ctx context.Context, recordingID string) ([]model.Share, error) {
	return l.shares.ListByRecording(ctx, recordingID)
}

func (l *Ledger) ListGrantedBy(ctx context.Context, recordingID, grantorID string) ([]model.Share, error) {
	return l.shares.ListGrantedBy(ctx, recordingID, grantorID)
}

func (l *Ledger) ExistsAlternate(ctx context.Context, recordingID, recipientID, excludeGrantor string) (bool, error) {
	return l.shares.ExistsAlternate(ctx, recordingID, recipientID, excludeGrantor)
}

func (l *Ledger) UpdateSharePerms(ctx context.Context, recordingID, shareID string, perms model.Perms) error {
	where := map[string]interface{}{"recording_id": recordingID, "id": shareID}
	update := map[string]interface{}{"can_edit": perms.CanEdit, "can_reshare": perms.CanReshare}
	sqlStr, args, err := builder.BuildUpdate("recording_shares", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = l.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (l *Ledger) DeleteShare(ctx context.Context, recordingID, shareID string) (bool, error) {
	return l.shares.Delete(ctx, recordingID, shareID)
}

func (l *Ledger) GetOverlay(ctx context.Context, recordingID, userID string) (*model.Overlay, error) {
	return l.overlays.Get(ctx, recordingID, userID)
}

// EnsureOverlay creates the overlay row if absent and leaves an
// existing one completely untouched, unlike the grant-path upsert
// which resets is_inbox.
func (l *Ledger) EnsureOverlay(ctx context.Context, overlay *model.Overlay) error {
	sqlStr := `
		INSERT INTO user_recordings (recording_id, user_id, personal_notes, is_inbox, is_highlighted, last_viewed, ctime, mtime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (recording_id, user_id) DO NOTHING
	`
	args := []interface{}{overlay.RecordingID, overlay.UserID, overlay.PersonalNotes, overlay.IsInbox, overlay.IsHighlighted, overlay.LastViewed, overlay.Ctime, overlay.Mtime}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err := l.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (l *Ledger) UpdateOverlayFields(ctx context.Context, recordingID, userID string, fields map[string]interface{}) error {
	return l.overlays.UpdateFields(ctx, recordingID, userID, fields)
}
