package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	appErr "github.com/murtaza-nasir/speakr-sub001/internal/pkg/errors"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/timeutil"
)

type ShareService struct {
	ledger    AccessLedger
	registry  RecordingRegistry
	users     UserDirectory
	audit     AuditSink
	lister    AuditLister
	validator *PermissionValidator
}

func NewShareService(ledger AccessLedger, registry RecordingRegistry, users UserDirectory, audit AuditSink, lister AuditLister) *ShareService {
	return &ShareService{
		ledger:    ledger,
		registry:  registry,
		users:     users,
		audit:     audit,
		lister:    lister,
		validator: NewPermissionValidator(ledger),
	}
}

type GrantInput struct {
	RecordingID string
	ActorID     string
	RecipientID string
	CanEdit     bool
	CanReshare  bool
	ActorIP     string
}

// ShareEntry is one row of a share listing: the edge plus recipient
// display data. The owner appears as a synthesized entry with
// unconditional permissions and IsOwner set.
type ShareEntry struct {
	Share
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	IsOwner     bool   `json:"is_owner"`
}

// Share aliases the model type inside ShareEntry's embedding.
type Share = model.Share

type RevokeResult struct {
	PrimaryRevoked      bool `json:"primary_revoked"`
	CascadeRevokedCount int  `json:"cascade_revoked_count"`
}

// Grant creates a delegation edge from actor to recipient. The edge
// insert and the recipient's overlay upsert commit in one transaction;
// a duplicate recipient, whether observed by the pre-check or by the
// unique index under a race, comes back as ErrAlreadyShared.
func (s *ShareService) Grant(ctx context.Context, in GrantInput) (*model.Share, error) {
	rec, err := s.registry.GetByID(ctx, in.RecordingID)
	if err != nil {
		return nil, err
	}
	if in.RecipientID == in.ActorID || in.RecipientID == rec.OwnerID {
		return nil, appErr.ErrSelfShare
	}
	requested := model.Perms{CanEdit: in.CanEdit, CanReshare: in.CanReshare}
	if err := s.validator.Validate(ctx, rec, in.ActorID, requested); err != nil {
		return nil, err
	}
	if _, err := s.ledger.GetShareByRecipient(ctx, rec.ID, in.RecipientID); err == nil {
		return nil, appErr.ErrAlreadyShared
	} else if !appErr.IsNotFound(err) {
		return nil, err
	}

	now := timeutil.NowUnix()
	share := &model.Share{
		ID:          newID(),
		RecordingID: rec.ID,
		GrantorID:   in.ActorID,
		RecipientID: in.RecipientID,
		CanEdit:     in.CanEdit,
		CanReshare:  in.CanReshare,
		SourceType:  model.ShareSourceManual,
		Ctime:       now,
	}
	overlay := &model.Overlay{
		RecordingID: rec.ID,
		UserID:      in.RecipientID,
		IsInbox:     true,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.ledger.CreateShareWithOverlay(ctx, share, overlay); err != nil {
		if appErr.IsConflict(err) {
			return nil, appErr.ErrAlreadyShared
		}
		return nil, err
	}

	actorPerms := s.snapshotActorPerms(ctx, rec, in.ActorID)
	s.record(ctx, &model.AuditEntry{
		Action:          model.AuditActionCreated,
		RecordingID:     rec.ID,
		ActorID:         in.ActorID,
		TargetUserID:    in.RecipientID,
		CanEdit:         share.CanEdit,
		CanReshare:      share.CanReshare,
		ActorCanEdit:    actorPerms.CanEdit,
		ActorCanReshare: actorPerms.CanReshare,
		ShareID:         share.ID,
		ActorIP:         in.ActorIP,
	})
	return share, nil
}

type ModifyInput struct {
	RecordingID string
	ShareID     string
	ActorID     string
	CanEdit     bool
	CanReshare  bool
	ActorIP     string
}

// Modify changes the permission flags on an existing edge. Grantor and
// recipient are immutable; only the owner or the edge's grantor may
// modify, and the new flags pass the same grant validation.
func (s *ShareService) Modify(ctx context.Context, in ModifyInput) (*model.Share, error) {
	rec, err := s.registry.GetByID(ctx, in.RecordingID)
	if err != nil {
		return nil, err
	}
	edge, err := s.ledger.GetShare(ctx, rec.ID, in.ShareID)
	if err != nil {
		return nil, err
	}
	if in.ActorID != rec.OwnerID && in.ActorID != edge.GrantorID {
		return nil, appErr.ErrForbidden
	}
	requested := model.Perms{CanEdit: in.CanEdit, CanReshare: in.CanReshare}
	if err := s.validator.Validate(ctx, rec, in.ActorID, requested); err != nil {
		return nil, err
	}
	if err := s.ledger.UpdateSharePerms(ctx, rec.ID, edge.ID, requested); err != nil {
		return nil, err
	}
	edge.CanEdit = in.CanEdit
	edge.CanReshare = in.CanReshare

	actorPerms := s.snapshotActorPerms(ctx, rec, in.ActorID)
	s.record(ctx, &model.AuditEntry{
		Action:          model.AuditActionModified,
		RecordingID:     rec.ID,
		ActorID:         in.ActorID,
		TargetUserID:    edge.RecipientID,
		CanEdit:         edge.CanEdit,
		CanReshare:      edge.CanReshare,
		ActorCanEdit:    actorPerms.CanEdit,
		ActorCanReshare: actorPerms.CanReshare,
		ShareID:         edge.ID,
		ActorIP:         in.ActorIP,
	})
	return edge, nil
}

// Revoke removes an edge and cascades one level down: edges the revoked
// recipient had granted are removed too, unless the downstream
// recipient holds an alternate edge from a different grantor. The
// cascade deliberately stops after one hop; edges granted by a
// cascade-revoked recipient are not re-examined.
func (s *ShareService) Revoke(ctx context.Context, recordingID, shareID, actorID, actorIP string) (*RevokeResult, error) {
	rec, err := s.registry.GetByID(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	edge, err := s.ledger.GetShare(ctx, rec.ID, shareID)
	if err != nil {
		return nil, err
	}
	if actorID != rec.OwnerID && actorID != edge.GrantorID {
		return nil, appErr.ErrForbidden
	}

	actorPerms := s.snapshotActorPerms(ctx, rec, actorID)
	removed, err := s.ledger.DeleteShare(ctx, rec.ID, edge.ID)
	if err != nil {
		return nil, err
	}
	result := &RevokeResult{PrimaryRevoked: removed}
	if !removed {
		return result, nil
	}
	s.record(ctx, &model.AuditEntry{
		Action:          model.AuditActionRevoked,
		RecordingID:     rec.ID,
		ActorID:         actorID,
		TargetUserID:    edge.RecipientID,
		CanEdit:         edge.CanEdit,
		CanReshare:      edge.CanReshare,
		ActorCanEdit:    actorPerms.CanEdit,
		ActorCanReshare: actorPerms.CanReshare,
		ShareID:         edge.ID,
		ActorIP:         actorIP,
	})

	downstream, err := s.ledger.ListGrantedBy(ctx, rec.ID, edge.RecipientID)
	if err != nil {
		return result, err
	}
	for _, d := range downstream {
		alternate, err := s.ledger.ExistsAlternate(ctx, rec.ID, d.RecipientID, edge.RecipientID)
		if err != nil {
			return result, err
		}
		if alternate {
			continue
		}
		ok, err := s.ledger.DeleteShare(ctx, rec.ID, d.ID)
		if err != nil {
			return result, err
		}
		if !ok {
			continue
		}
		result.CascadeRevokedCount++
		s.record(ctx, &model.AuditEntry{
			Action:          model.AuditActionCascadeRevoked,
			RecordingID:     rec.ID,
			ActorID:         actorID,
			TargetUserID:    d.RecipientID,
			CanEdit:         d.CanEdit,
			CanReshare:      d.CanReshare,
			ActorCanEdit:    actorPerms.CanEdit,
			ActorCanReshare: actorPerms.CanReshare,
			ShareID:         d.ID,
			Notes:           fmt.Sprintf("cascade from revocation of share %s (recipient %s)", edge.ID, edge.RecipientID),
			ActorIP:         actorIP,
		})
	}
	return result, nil
}

// ListShares returns every edge on the recording plus a synthesized
// owner entry, for display. Only users with access may list.
func (s *ShareService) ListShares(ctx context.Context, recordingID, actorID string) ([]ShareEntry, error) {
	rec, err := s.registry.GetByID(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, rec, actorID); err != nil {
		return nil, err
	}
	edges, err := s.ledger.ListShares(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(edges)+1)
	ids = append(ids, rec.OwnerID)
	for _, e := range edges {
		ids = append(ids, e.RecipientID)
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	entries := make([]ShareEntry, 0, len(edges)+1)
	owner := byID[rec.OwnerID]
	entries = append(entries, ShareEntry{
		Share: model.Share{
			RecordingID: rec.ID,
			RecipientID: rec.OwnerID,
			CanEdit:     true,
			CanReshare:  true,
			SourceType:  "owner",
			Ctime:       rec.Ctime,
		},
		DisplayName: owner.DisplayName,
		Email:       owner.Email,
		IsOwner:     true,
	})
	for _, e := range edges {
		u := byID[e.RecipientID]
		entries = append(entries, ShareEntry{Share: e, DisplayName: u.DisplayName, Email: u.Email})
	}
	return entries, nil
}

// ListAudit returns the recording's audit trail, owner-only.
func (s *ShareService) ListAudit(ctx context.Context, recordingID, actorID string, limit, offset uint) ([]model.AuditEntry, error) {
	rec, err := s.registry.GetByID(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if actorID != rec.OwnerID {
		return nil, appErr.ErrForbidden
	}
	if limit == 0 || limit > 200 {
		limit = 50
	}
	return s.lister.ListByRecording(ctx, rec.ID, limit, offset)
}

type OverlayPatch struct {
	PersonalNotes *string `json:"personal_notes"`
	IsInbox       *bool   `json:"is_inbox"`
	IsHighlighted *bool   `json:"is_highlighted"`
	LastViewed    *int64  `json:"last_viewed"`
}

// GetOverlay returns the caller's personal state for a recording. A
// user with access but no stored row yet gets zero-value defaults.
func (s *ShareService) GetOverlay(ctx context.Context, recordingID, userID string) (*model.Overlay, error) {
	rec, err := s.registry.GetByID(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, rec, userID); err != nil {
		return nil, err
	}
	overlay, err := s.ledger.GetOverlay(ctx, rec.ID, userID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return &model.Overlay{RecordingID: rec.ID, UserID: userID}, nil
		}
		return nil, err
	}
	return overlay, nil
}

func (s *ShareService) SetOverlay(ctx context.Context, recordingID, userID string, patch OverlayPatch) (*model.Overlay, error) {
	rec, err := s.registry.GetByID(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, rec, userID); err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	if err := s.ledger.EnsureOverlay(ctx, &model.Overlay{
		RecordingID: rec.ID,
		UserID:      userID,
		Ctime:       now,
		Mtime:       now,
	}); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{"mtime": now}
	if patch.PersonalNotes != nil {
		fields["personal_notes"] = *patch.PersonalNotes
	}
	if patch.IsInbox != nil {
		fields["is_inbox"] = *patch.IsInbox
	}
	if patch.IsHighlighted != nil {
		fields["is_highlighted"] = *patch.IsHighlighted
	}
	if patch.LastViewed != nil {
		fields["last_viewed"] = *patch.LastViewed
	}
	if err := s.ledger.UpdateOverlayFields(ctx, rec.ID, userID, fields); err != nil {
		return nil, err
	}
	return s.ledger.GetOverlay(ctx, rec.ID, userID)
}

func (s *ShareService) requireAccess(ctx context.Context, rec *model.Recording, userID string) error {
	if userID == rec.OwnerID {
		return nil
	}
	if _, err := s.ledger.GetShareByRecipient(ctx, rec.ID, userID); err != nil {
		if appErr.IsNotFound(err) {
			return appErr.ErrForbidden
		}
		return err
	}
	return nil
}

// snapshotActorPerms reads the actor's current permissions for the
// audit trail. A failed read is logged and yields a zero snapshot
// rather than failing the mutation being audited.
func (s *ShareService) snapshotActorPerms(ctx context.Context, rec *model.Recording, actorID string) model.Perms {
	perms, err := s.validator.MaxGrantable(ctx, rec, actorID)
	if err != nil {
		logutil.GetLogger(ctx).Error("actor permission snapshot failed",
			zap.String("recording_id", rec.ID),
			zap.String("actor_id", actorID),
			zap.Error(err))
	}
	return perms
}

// record writes an audit entry, logging and swallowing failures: the
// ledger mutation already committed and stays authoritative.
func (s *ShareService) record(ctx context.Context, entry *model.AuditEntry) {
	entry.ID = newID()
	entry.Ctime = timeutil.NowUnix()
	if err := s.audit.Append(ctx, entry); err != nil {
		logutil.GetLogger(ctx).Error("audit write failed",
			zap.String("action", entry.Action),
			zap.String("recording_id", entry.RecordingID),
			zap.String("actor_id", entry.ActorID),
			zap.Error(err))
	}
}
