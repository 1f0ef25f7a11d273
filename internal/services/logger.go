package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"sari-backend/internal/logging"
)

// invalidateSnapshot drops the cached utang list. A failure leaves the old
// snapshot readable until its TTL runs out, so it is worth a warning.
func invalidateSnapshot(ctx context.Context, snapshots SnapshotCache, log *logrus.Entry) {
	if err := snapshots.Invalidate(ctx); err != nil {
		log.WithError(err).Warn("Failed to invalidate utang snapshot")
	}
}

func componentLogger(logger *logrus.Logger, name string) *logrus.Entry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logging.Component(logger, name)
}
