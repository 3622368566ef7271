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

// AutoShareService reacts to a recording being filed into a
// group-scoped tag and bulk-creates share edges to the group per tag
// policy. It acts with the owner's implicit authority: tag policy is
// configured by a group admin, not by whoever applied the tag.
type AutoShareService struct {
	ledger   AccessLedger
	registry RecordingRegistry
	groups   GroupDirectory
	tags     TagStore
	audit    AuditSink
}

func NewAutoShareService(ledger AccessLedger, registry RecordingRegistry, groups GroupDirectory, tags TagStore, audit AuditSink) *AutoShareService {
	return &AutoShareService{ledger: ledger, registry: registry, groups: groups, tags: tags, audit: audit}
}

// ApplyTag runs the trigger for one recording/tag pair and returns the
// number of edges created. Re-running is idempotent: existing edges are
// skipped untouched. A failure sharing with one member never aborts the
// rest of the batch.
func (s *AutoShareService) ApplyTag(ctx context.Context, recordingID, tagID, actorID string) (int, error) {
	rec, err := s.registry.GetByID(ctx, recordingID)
	if err != nil {
		return 0, err
	}
	tag, err := s.tags.GetByID(ctx, tagID)
	if err != nil {
		return 0, err
	}
	if tag.GroupID == "" {
		return 0, nil
	}
	members, err := s.groups.ListMembers(ctx, tag.GroupID)
	if err != nil {
		return 0, err
	}

	var audience []model.GroupMember
	switch {
	case tag.AutoShareOnApply:
		audience = members
	case tag.ShareWithGroupLead:
		for _, m := range members {
			if m.Role == model.GroupRoleAdmin {
				audience = append(audience, m)
			}
		}
	default:
		return 0, nil
	}

	logger := logutil.GetLogger(ctx).With(
		zap.String("recording_id", rec.ID),
		zap.String("tag_id", tag.ID),
		zap.String("group_id", tag.GroupID),
		zap.String("actor_id", actorID))

	created := 0
	failed := 0
	for _, m := range audience {
		if m.UserID == rec.OwnerID {
			continue
		}
		if _, err := s.ledger.GetShareByRecipient(ctx, rec.ID, m.UserID); err == nil {
			continue
		} else if !appErr.IsNotFound(err) {
			failed++
			logger.Warn("auto-share lookup failed", zap.String("recipient_id", m.UserID), zap.Error(err))
			continue
		}
		now := timeutil.NowUnix()
		share := &model.Share{
			ID:          newID(),
			RecordingID: rec.ID,
			GrantorID:   rec.OwnerID,
			RecipientID: m.UserID,
			CanEdit:     m.Role == model.GroupRoleAdmin,
			CanReshare:  false,
			SourceType:  model.ShareSourceGroupTrigger,
			SourceTagID: tag.ID,
			Ctime:       now,
		}
		overlay := &model.Overlay{
			RecordingID: rec.ID,
			UserID:      m.UserID,
			IsInbox:     true,
			Ctime:       now,
			Mtime:       now,
		}
		if err := s.ledger.CreateShareWithOverlay(ctx, share, overlay); err != nil {
			if appErr.IsConflict(err) {
				// concurrent grant won, same outcome as already shared
				continue
			}
			failed++
			logger.Warn("auto-share create failed", zap.String("recipient_id", m.UserID), zap.Error(err))
			continue
		}
		created++
		s.recordCreated(ctx, rec, share, tag)
	}
	if failed > 0 {
		logger.Warn("auto-share finished with failures", zap.Int("created", created), zap.Int("failed", failed))
	}
	return created, nil
}

func (s *AutoShareService) recordCreated(ctx context.Context, rec *model.Recording, share *model.Share, tag *model.Tag) {
	entry := &model.AuditEntry{
		ID:              newID(),
		Action:          model.AuditActionCreated,
		RecordingID:     rec.ID,
		ActorID:         rec.OwnerID,
		TargetUserID:    share.RecipientID,
		CanEdit:         share.CanEdit,
		CanReshare:      share.CanReshare,
		ActorCanEdit:    true,
		ActorCanReshare: true,
		ShareID:         share.ID,
		Notes:           fmt.Sprintf("auto-shared via tag %s (%s)", tag.Name, tag.ID),
		Ctime:           timeutil.NowUnix(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		logutil.GetLogger(ctx).Error("audit write failed",
			zap.String("action", entry.Action),
			zap.String("recording_id", entry.RecordingID),
			zap.Error(err))
	}
}
