package jobs

import (
	"context"
	"log/slog"
	"time"

	"dihi/internal/logging"
	"dihi/internal/registry"
	"dihi/internal/services/ytdlp"
)

// runCollection drives the two-phase collection lifecycle: enumerate the
// member IDs, then download the whole collection in one engine invocation
// while progress is reconciled against the archive manifest.
func (m *Manager) runCollection(id, runID string) {
	logger := m.logger.With(logging.String("collection_id", id), logging.FieldRunID, runID)
	outcome := registry.OutcomeFailed
	defer func() {
		if p := recover(); p != nil {
			logger.Error("collection worker panic", logging.Any("panic", p))
			outcome = registry.OutcomeFailed
		}
		m.registry.Release(registry.PoolCollection, id, outcome)
		m.wg.Done()
	}()

	ctx := context.Background()
	logger.Info("collection job starting")

	opts := ytdlp.BuildOptions(id, m.cfg)
	members, err := m.engine.Enumerate(ctx, opts)
	if err != nil || len(members) == 0 {
		logger.Error("member enumeration failed", logging.Error(err), logging.Int("members", len(members)))
		m.registry.FailCollectionExtraction(id)
		return
	}
	m.registry.SetCollectionMembers(id, members)
	logger.Info("members enumerated", logging.Int("members", len(members)))

	downloadErr := m.downloadWithReconcile(ctx, id, opts, logger)
	if downloadErr != nil {
		logger.Error("collection download failed", logging.Error(downloadErr))
	}

	if settle := m.cfg.Jobs.ArchiveSettleSeconds; settle > 0 {
		time.Sleep(time.Duration(settle) * time.Second)
	}
	m.archive.Refresh()
	m.registry.FinishCollection(id, m.memberArchived, downloadErr == nil)

	status := m.registry.CollectionStatusFor(id)
	for _, member := range status.Completed {
		m.processMember(ctx, member, logger)
	}

	if status.Phase == registry.PhaseCompleted {
		outcome = registry.OutcomeCompleted
	}
	logger.Info("collection job finished",
		logging.String("phase", string(status.Phase)),
		logging.Int("completed", len(status.Completed)),
		logging.Int("failed", len(status.Failed)))
}

// downloadWithReconcile runs the engine download while folding archive
// progress into the collection record on the configured interval.
func (m *Manager) downloadWithReconcile(ctx context.Context, id string, opts ytdlp.Options, logger *slog.Logger) error {
	done := make(chan error, 1)
	go func() {
		done <- m.engine.Download(ctx, opts, nil)
	}()

	interval := time.Duration(m.cfg.Jobs.ReconcileInterval) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			m.registry.ReconcileCollection(id, m.memberArchived)
			logger.Debug("progress reconciled")
		}
	}
}

// processMember runs the per-item pipeline over one archived member. A
// member whose artifacts cannot be processed does not fail the collection;
// its download already landed.
func (m *Manager) processMember(ctx context.Context, member string, logger *slog.Logger) {
	item, err := m.locate(m.cfg.Paths.MergedDir, member)
	if err != nil {
		logger.Warn("member artifacts not found", logging.FieldItemID, member, logging.Error(err))
		return
	}
	if err := m.pipeline.Run(ctx, item); err != nil {
		logger.Warn("member post-processing failed", logging.FieldItemID, member, logging.Error(err))
	}
}
