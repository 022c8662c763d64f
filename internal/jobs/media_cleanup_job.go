package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/postloom/internal/repository"
	"github.com/maheshrc27/postloom/internal/service"
)

// retention is how long archived images of an already-published post are kept
// before the cleanup sweep removes them.
const retention = 24 * time.Hour

type MediaCleanupJob struct {
	ma repository.MediaAssetRepository
	pm repository.PostMediaRepository
	r2 *service.R2Service
}

func NewMediaCleanupJob(ma repository.MediaAssetRepository, pm repository.PostMediaRepository, r2 *service.R2Service) *MediaCleanupJob {
	return &MediaCleanupJob{
		ma: ma,
		pm: pm,
		r2: r2,
	}
}

// Cleanup deletes the archived object first and the rows after, so a failed
// sweep leaves the asset discoverable for the next run. Failures are logged
// and the sweep continues.
func (c *MediaCleanupJob) Cleanup() {
	ctx := context.Background()

	assets, err := c.ma.ListStaleByPostedBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, asset := range assets {
		if err := c.r2.Delete(ctx, asset.ObjectKey); err != nil {
			slog.Info("unable to delete archived object", "key", asset.ObjectKey)
			continue
		}

		if err := c.pm.RemoveByAssetID(ctx, asset.ID); err != nil {
			slog.Info("unable to unlink media asset", "id", asset.ID)
			continue
		}

		if err := c.ma.Remove(ctx, asset.ID); err != nil {
			slog.Info("unable to remove media asset", "id", asset.ID)
		}
	}
}
