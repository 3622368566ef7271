package service

import (
	"context"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
)

// AccessLedger is the delegation-edge store plus the per-user overlay
// state that rides along with it. CreateShareWithOverlay is one unit of
// work: a live edge must never exist without its overlay row.
type AccessLedger interface {
	CreateShareWithOverlay(ctx context.Context, share *model.Share, overlay *model.Overlay) error
	GetShare(ctx context.Context, recordingID, shareID string) (*model.Share, error)
	GetShareByRecipient(ctx context.Context, recordingID, recipientID string) (*model.Share, error)
	ListShares(ctx context.Context, recordingID string) ([]model.Share, error)
	ListGrantedBy(ctx context.Context, recordingID, grantorID string) ([]model.Share, error)
	ExistsAlternate(ctx context.Context, recordingID, recipientID, excludeGrantor string) (bool, error)
	UpdateSharePerms(ctx context.Context, recordingID, shareID string, perms model.Perms) error
	DeleteShare(ctx context.Context, recordingID, shareID string) (bool, error)
	GetOverlay(ctx context.Context, recordingID, userID string) (*model.Overlay, error)
	EnsureOverlay(ctx context.Context, overlay *model.Overlay) error
	UpdateOverlayFields(ctx context.Context, recordingID, userID string, fields map[string]interface{}) error
}

// RecordingRegistry resolves a recording id to its metadata, most
// importantly the owner. Injected so the core never touches content
// storage directly.
type RecordingRegistry interface {
	GetByID(ctx context.Context, recordingID string) (*model.Recording, error)
}

// GroupDirectory resolves group membership for the auto-share trigger.
type GroupDirectory interface {
	ListMembers(ctx context.Context, groupID string) ([]model.GroupMember, error)
}

// TagStore resolves tag (collection) configuration.
type TagStore interface {
	GetByID(ctx context.Context, tagID string) (*model.Tag, error)
}

// AuditSink accepts append-only audit entries. Writes are best-effort:
// callers log failures and move on, they never roll back the mutation
// that triggered them.
type AuditSink interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
}

// AuditLister is the read side of the audit trail.
type AuditLister interface {
	ListByRecording(ctx context.Context, recordingID string, limit, offset uint) ([]model.AuditEntry, error)
}

// UserDirectory provides display data for share listings.
type UserDirectory interface {
	ListByIDs(ctx context.Context, ids []string) ([]model.User, error)
}
