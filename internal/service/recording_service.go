package service

import (
	"context"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	appErr "github.com/murtaza-nasir/speakr-sub001/internal/pkg/errors"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/timeutil"
	"github.com/murtaza-nasir/speakr-sub001/internal/repo"
)

// RecordingService manages the recording registry: just enough metadata
// for ownership resolution and listings. Audio storage and
// transcription live elsewhere.
type RecordingService struct {
	recordings *repo.RecordingRepo
	ledger     AccessLedger
}

func NewRecordingService(recordings *repo.RecordingRepo, ledger AccessLedger) *RecordingService {
	return &RecordingService{recordings: recordings, ledger: ledger}
}

type CreateRecordingInput struct {
	Title        string
	DurationSecs int64
}

func (s *RecordingService) Create(ctx context.Context, ownerID string, in CreateRecordingInput) (*model.Recording, error) {
	now := timeutil.NowUnix()
	rec := &model.Recording{
		ID:           newID(),
		OwnerID:      ownerID,
		Title:        in.Title,
		DurationSecs: in.DurationSecs,
		State:        model.RecordingStateActive,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.recordings.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *RecordingService) Get(ctx context.Context, actorID, recordingID string) (*model.Recording, error) {
	rec, err := s.recordings.GetByID(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if actorID != rec.OwnerID {
		if _, err := s.ledger.GetShareByRecipient(ctx, rec.ID, actorID); err != nil {
			if appErr.IsNotFound(err) {
				return nil, appErr.ErrForbidden
			}
			return nil, err
		}
	}
	return rec, nil
}

func (s *RecordingService) ListMine(ctx context.Context, ownerID string) ([]model.Recording, error) {
	return s.recordings.ListByOwner(ctx, ownerID)
}

func (s *RecordingService) ListSharedWithMe(ctx context.Context, userID string) ([]model.Recording, error) {
	return s.recordings.ListSharedWith(ctx, userID)
}
