package service

import (
	"context"
	"sync"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	appErr "github.com/murtaza-nasir/speakr-sub001/internal/pkg/errors"
)

// fakeLedger mirrors the ledger contract in memory, including the
// uniqueness invariant and the overlay upsert semantics, so service
// behavior can be tested without a database.
type fakeLedger struct {
	mu           sync.Mutex
	shares       []model.Share
	overlays     map[string]model.Overlay
	createErrFor map[string]error
	readCalls    int
	readErrAfter int
	readErr      error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		overlays:     make(map[string]model.Overlay),
		createErrFor: make(map[string]error),
	}
}

func overlayKey(recordingID, userID string) string {
	return recordingID + "|" + userID
}

// inject appends an edge without the uniqueness check, simulating the
// narrow concurrent-mutation window the alternate-path guard exists
// for.
func (f *fakeLedger) inject(share model.Share) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shares = append(f.shares, share)
}

func (f *fakeLedger) CreateShareWithOverlay(ctx context.Context, share *model.Share, overlay *model.Overlay) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.createErrFor[share.RecipientID]; ok {
		return err
	}
	for _, s := range f.shares {
		if s.RecordingID == share.RecordingID && s.RecipientID == share.RecipientID {
			return appErr.ErrConflict
		}
	}
	f.shares = append(f.shares, *share)
	key := overlayKey(overlay.RecordingID, overlay.UserID)
	if existing, ok := f.overlays[key]; ok {
		existing.IsInbox = true
		existing.Mtime = overlay.Mtime
		f.overlays[key] = existing
	} else {
		f.overlays[key] = *overlay
	}
	return nil
}

func (f *fakeLedger) GetShare(ctx context.Context, recordingID, shareID string) (*model.Share, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.shares {
		if s.RecordingID == recordingID && s.ID == shareID {
			found := s
			return &found, nil
		}
	}
	return nil, appErr.ErrNotFound
}

// armReadErr makes recipient lookups fail after the next n calls,
// for exercising degraded-read paths.
func (f *fakeLedger) armReadErr(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls = 0
	f.readErrAfter = n
	f.readErr = err
}

func (f *fakeLedger) GetShareByRecipient(ctx context.Context, recordingID, recipientID string) (*model.Share, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls++
	if f.readErr != nil && f.readCalls > f.readErrAfter {
		return nil, f.readErr
	}
	for _, s := range f.shares {
		if s.RecordingID == recordingID && s.RecipientID == recipientID {
			found := s
			return &found, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (f *fakeLedger) ListShares(ctx context.Context, recordingID string) ([]model.Share, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]model.Share, 0)
	for _, s := range f.shares {
		if s.RecordingID == recordingID {
			items = append(items, s)
		}
	}
	return items, nil
}

func (f *fakeLedger) ListGrantedBy(ctx context.Context, recordingID, grantorID string) ([]model.Share, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]model.Share, 0)
	for _, s := range f.shares {
		if s.RecordingID == recordingID && s.GrantorID == grantorID {
			items = append(items, s)
		}
	}
	return items, nil
}

func (f *fakeLedger) ExistsAlternate(ctx context.Context, recordingID, recipientID, excludeGrantor string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.shares {
		if s.RecordingID == recordingID && s.RecipientID == recipientID && s.GrantorID != excludeGrantor {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) UpdateSharePerms(ctx context.Context, recordingID, shareID string, perms model.Perms) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.shares {
		if s.RecordingID == recordingID && s.ID == shareID {
			f.shares[i].CanEdit = perms.CanEdit
			f.shares[i].CanReshare = perms.CanReshare
			return nil
		}
	}
	return appErr.ErrNotFound
}

func (f *fakeLedger) DeleteShare(ctx context.Context, recordingID, shareID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.shares {
		if s.RecordingID == recordingID && s.ID == shareID {
			f.shares = append(f.shares[:i], f.shares[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) GetOverlay(ctx context.Context, recordingID, userID string) (*model.Overlay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.overlays[overlayKey(recordingID, userID)]; ok {
		found := o
		return &found, nil
	}
	return nil, appErr.ErrNotFound
}

func (f *fakeLedger) EnsureOverlay(ctx context.Context, overlay *model.Overlay) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := overlayKey(overlay.RecordingID, overlay.UserID)
	if _, ok := f.overlays[key]; !ok {
		f.overlays[key] = *overlay
	}
	return nil
}

func (f *fakeLedger) UpdateOverlayFields(ctx context.Context, recordingID, userID string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := overlayKey(recordingID, userID)
	o, ok := f.overlays[key]
	if !ok {
		return appErr.ErrNotFound
	}
	for name, value := range fields {
		switch name {
		case "personal_notes":
			o.PersonalNotes = value.(string)
		case "is_inbox":
			o.IsInbox = value.(bool)
		case "is_highlighted":
			o.IsHighlighted = value.(bool)
		case "last_viewed":
			o.LastViewed = value.(int64)
		case "mtime":
			o.Mtime = value.(int64)
		}
	}
	f.overlays[key] = o
	return nil
}

type fakeRegistry struct {
	recordings map[string]model.Recording
}

func newFakeRegistry(recs ...model.Recording) *fakeRegistry {
	m := make(map[string]model.Recording, len(recs))
	for _, r := range recs {
		m[r.ID] = r
	}
	return &fakeRegistry{recordings: m}
}

func (f *fakeRegistry) GetByID(ctx context.Context, recordingID string) (*model.Recording, error) {
	if r, ok := f.recordings[recordingID]; ok {
		found := r
		return &found, nil
	}
	return nil, appErr.ErrNotFound
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []model.AuditEntry
	fail    error
}

func (f *fakeAudit) Append(ctx context.Context, entry *model.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAudit) ListByRecording(ctx context.Context, recordingID string, limit, offset uint) ([]model.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := make([]model.AuditEntry, 0)
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].RecordingID == recordingID {
			matched = append(matched, f.entries[i])
		}
	}
	if offset >= uint(len(matched)) {
		return nil, nil
	}
	matched = matched[offset:]
	if uint(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeAudit) byAction(action string) []model.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]model.AuditEntry, 0)
	for _, e := range f.entries {
		if e.Action == action {
			items = append(items, e)
		}
	}
	return items
}

type fakeUsers struct {
	users map[string]model.User
}

func (f *fakeUsers) ListByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	items := make([]model.User, 0, len(ids))
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := f.users[id]; ok {
			items = append(items, u)
		}
	}
	return items, nil
}

type fakeGroups struct {
	members map[string][]model.GroupMember
}

func (f *fakeGroups) ListMembers(ctx context.Context, groupID string) ([]model.GroupMember, error) {
	return f.members[groupID], nil
}

type fakeTags struct {
	tags map[string]model.Tag
}

func (f *fakeTags) GetByID(ctx context.Context, tagID string) (*model.Tag, error) {
	if t, ok := f.tags[tagID]; ok {
		found := t
		return &found, nil
	}
	return nil, appErr.ErrNotFound
}
