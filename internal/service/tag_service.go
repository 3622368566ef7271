package service

import (
	"context"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	appErr "github.com/murtaza-nasir/speakr-sub001/internal/pkg/errors"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/timeutil"
	"github.com/murtaza-nasir/speakr-sub001/internal/repo"
)

type TagService struct {
	tags      *repo.TagRepo
	groups    *repo.GroupRepo
	registry  RecordingRegistry
	ledger    AccessLedger
	autoShare *AutoShareService
}

func NewTagService(tags *repo.TagRepo, groups *repo.GroupRepo, registry RecordingRegistry, ledger AccessLedger, autoShare *AutoShareService) *TagService {
	return &TagService{tags: tags, groups: groups, registry: registry, ledger: ledger, autoShare: autoShare}
}

type CreateTagInput struct {
	Name               string
	GroupID            string
	AutoShareOnApply   bool
	ShareWithGroupLead bool
}

// Create makes a tag. Group-scoped tags carry share policy and may only
// be created by an admin of that group.
func (s *TagService) Create(ctx context.Context, actorID string, in CreateTagInput) (*model.Tag, error) {
	if in.GroupID != "" {
		member, err := s.groups.GetMember(ctx, in.GroupID, actorID)
		if err != nil {
			if appErr.IsNotFound(err) {
				return nil, appErr.ErrForbidden
			}
			return nil, err
		}
		if member.Role != model.GroupRoleAdmin {
			return nil, appErr.ErrForbidden
		}
	}
	tag := &model.Tag{
		ID:                 newID(),
		Name:               in.Name,
		GroupID:            in.GroupID,
		AutoShareOnApply:   in.AutoShareOnApply,
		ShareWithGroupLead: in.ShareWithGroupLead,
		Ctime:              timeutil.NowUnix(),
	}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *TagService) List(ctx context.Context) ([]model.Tag, error) {
	return s.tags.List(ctx)
}

type AssignResult struct {
	SharesCreated int `json:"shares_created"`
}

// Assign files a recording into a tag (replacing any previous
// assignment) and fires the auto-share trigger for group-scoped tags.
func (s *TagService) Assign(ctx context.Context, actorID, recordingID, tagID string) (*AssignResult, error) {
	rec, err := s.registry.GetByID(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEditAccess(ctx, rec, actorID); err != nil {
		return nil, err
	}
	if _, err := s.tags.GetByID(ctx, tagID); err != nil {
		return nil, err
	}
	if err := s.tags.Assign(ctx, rec.ID, tagID, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	created, err := s.autoShare.ApplyTag(ctx, rec.ID, tagID, actorID)
	if err != nil {
		return nil, err
	}
	return &AssignResult{SharesCreated: created}, nil
}

func (s *TagService) Unassign(ctx context.Context, actorID, recordingID string) error {
	rec, err := s.registry.GetByID(ctx, recordingID)
	if err != nil {
		return err
	}
	if err := s.requireEditAccess(ctx, rec, actorID); err != nil {
		return err
	}
	return s.tags.Unassign(ctx, rec.ID)
}

func (s *TagService) GetAssignment(ctx context.Context, recordingID string) (*model.RecordingTag, error) {
	return s.tags.GetAssignment(ctx, recordingID)
}

func (s *TagService) requireEditAccess(ctx context.Context, rec *model.Recording, actorID string) error {
	if actorID == rec.OwnerID {
		return nil
	}
	edge, err := s.ledger.GetShareByRecipient(ctx, rec.ID, actorID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return appErr.ErrForbidden
		}
		return err
	}
	if !edge.CanEdit {
		return appErr.ErrForbidden
	}
	return nil
}
