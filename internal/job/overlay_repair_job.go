package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/timeutil"
	"github.com/murtaza-nasir/speakr-sub001/internal/repo"
)

const repairBatchSize = 500

// OverlayRepairJob backfills overlay rows for share edges that somehow
// lost theirs. Edge creation and overlay upsert share a transaction, so
// a non-empty result means something outside the normal write path
// touched the tables.
type OverlayRepairJob struct {
	overlays *repo.OverlayRepo
}

func NewOverlayRepairJob(overlays *repo.OverlayRepo) *OverlayRepairJob {
	return &OverlayRepairJob{overlays: overlays}
}

func (j *OverlayRepairJob) Name() string {
	return "overlay_repair"
}

func (j *OverlayRepairJob) Run(ctx context.Context) error {
	orphans, err := j.overlays.ListSharesWithoutOverlay(ctx, repairBatchSize)
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		return nil
	}
	logger := logutil.GetLogger(ctx)
	logger.Warn("share edges without overlay state found", zap.Int("count", len(orphans)))
	repaired := 0
	for _, share := range orphans {
		now := timeutil.NowUnix()
		overlay := &model.Overlay{
			RecordingID: share.RecordingID,
			UserID:      share.RecipientID,
			IsInbox:     true,
			Ctime:       now,
			Mtime:       now,
		}
		if err := j.overlays.Upsert(ctx, overlay); err != nil {
			logger.Error("overlay repair failed",
				zap.String("recording_id", share.RecordingID),
				zap.String("user_id", share.RecipientID),
				zap.Error(err))
			continue
		}
		repaired++
	}
	logger.Info("overlay repair done", zap.Int("repaired", repaired), zap.Int("found", len(orphans)))
	return nil
}
