package jobs

import (
	"context"
	"time"

	"dihi/internal/logging"
	"dihi/internal/registry"
	"dihi/internal/services/ytdlp"
)

// runItem is the whole lifecycle of one item job. Jobs run to completion
// once admitted; there is no cancellation path.
func (m *Manager) runItem(id, runID string) {
	logger := m.logger.With(logging.FieldItemID, id, logging.FieldRunID, runID)
	outcome := registry.OutcomeFailed
	defer func() {
		if p := recover(); p != nil {
			logger.Error("item worker panic", logging.Any("panic", p))
			outcome = registry.OutcomeFailed
		}
		m.registry.Release(registry.PoolItem, id, outcome)
		m.wg.Done()
	}()

	ctx := context.Background()
	logger.Info("item job starting")

	opts := ytdlp.BuildOptions(id, m.cfg)
	downloadErr := m.engine.Download(ctx, opts, func(line string) {
		logger.Debug("engine", logging.String("line", line))
	})
	if downloadErr != nil {
		logger.Error("download failed", logging.Error(downloadErr))
	}

	// The engine appends to the manifest as its last act; give the write a
	// moment to land before deciding membership.
	if settle := m.cfg.Jobs.ArchiveSettleSeconds; settle > 0 {
		time.Sleep(time.Duration(settle) * time.Second)
	}
	m.archive.Refresh()
	archived, err := m.archive.Contains(id)
	if err != nil {
		logger.Error("archive check failed", logging.Error(err))
	}
	if downloadErr != nil || !archived {
		logger.Info("item job failed", logging.Bool("archived", archived))
		return
	}

	item, err := m.locate(m.cfg.Paths.MergedDir, id)
	if err != nil {
		logger.Error("artifact location failed", logging.Error(err))
		return
	}
	if err := m.pipeline.Run(ctx, item); err != nil {
		logger.Error("post-processing failed", logging.Error(err))
		return
	}

	outcome = registry.OutcomeCompleted
	logger.Info("item job complete")
}
