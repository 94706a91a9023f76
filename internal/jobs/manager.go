package jobs

import (
	"context"
	"log/slog"
	"sync"

	"dihi/internal/archive"
	"dihi/internal/config"
	"dihi/internal/ident"
	"dihi/internal/logging"
	"dihi/internal/media"
	"dihi/internal/registry"
	"dihi/internal/services/ytdlp"
)

// Engine is the retrieval tool surface the workers drive.
type Engine interface {
	Download(ctx context.Context, opts ytdlp.Options, onProgress func(string)) error
	Enumerate(ctx context.Context, opts ytdlp.Options) ([]string, error)
}

// Pipeline runs the post-processing stages over one item's artifacts.
type Pipeline interface {
	Run(ctx context.Context, item *media.Context) error
}

// Locator resolves an item's on-disk artifacts into a processing context.
type Locator func(mergedDir, itemID string) (*media.Context, error)

// Options carries the manager's dependencies.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *registry.Registry
	Archive  *archive.Cache
	Engine   Engine
	Pipeline Pipeline
	Locator  Locator
}

// Manager is the facade the API layer talks to. Triggers admit and spawn,
// status calls snapshot, nothing blocks on running work.
type Manager struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *registry.Registry
	archive  *archive.Cache
	engine   Engine
	pipeline Pipeline
	locate   Locator

	wg sync.WaitGroup
}

// NewManager wires the facade.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	locate := opts.Locator
	if locate == nil {
		locate = media.Locate
	}
	return &Manager{
		cfg:      opts.Config,
		logger:   logging.WithComponent(logger, "jobs"),
		registry: opts.Registry,
		archive:  opts.Archive,
		engine:   opts.Engine,
		pipeline: opts.Pipeline,
		locate:   locate,
	}
}

// Wait blocks until every spawned worker has finished. Used on shutdown and
// in tests; triggers can still admit while waiting.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// ItemReport combines lifecycle state with current archive membership.
type ItemReport struct {
	Downloading bool
	Result      registry.Outcome
	InArchive   bool
}

// Health is the daemon health snapshot.
type Health struct {
	ArchiveExists     bool
	ItemsActive       int
	ItemLimit         int
	CollectionsActive int
	CollectionLimit   int
}

// TriggerItem admits and, when a slot was taken, spawns the item worker.
// Invalid IDs fail before any state is touched.
func (m *Manager) TriggerItem(rawID string) (registry.Admission, error) {
	id, err := ident.NormalizeItemID(rawID)
	if err != nil {
		return registry.Admission{}, err
	}
	admission, err := m.registry.TryAdmit(registry.PoolItem, id)
	if err != nil {
		return registry.Admission{}, err
	}
	if admission.Started {
		m.wg.Add(1)
		go m.runItem(id, admission.RunID)
	}
	return admission, nil
}

// ItemStatus reports lifecycle state plus archive membership for id.
func (m *Manager) ItemStatus(rawID string) (ItemReport, error) {
	id, err := ident.NormalizeItemID(rawID)
	if err != nil {
		return ItemReport{}, err
	}
	status := m.registry.ItemStatus(registry.PoolItem, id)
	inArchive, _ := m.archive.Contains(id)
	return ItemReport{
		Downloading: status.Downloading,
		Result:      status.Result,
		InArchive:   inArchive,
	}, nil
}

// ItemArchived answers the bare membership question.
func (m *Manager) ItemArchived(rawID string) (bool, error) {
	id, err := ident.NormalizeItemID(rawID)
	if err != nil {
		return false, err
	}
	return m.archive.Contains(id)
}

// TriggerCollection admits and spawns the collection worker.
func (m *Manager) TriggerCollection(rawID string) (registry.Admission, error) {
	id, err := ident.NormalizeCollectionID(rawID)
	if err != nil {
		return registry.Admission{}, err
	}
	admission, err := m.registry.TryAdmit(registry.PoolCollection, id)
	if err != nil {
		return registry.Admission{}, err
	}
	if admission.Started {
		m.wg.Add(1)
		go m.runCollection(id, admission.RunID)
	}
	return admission, nil
}

// CollectionStatus snapshots a collection job, reconciling progress against
// the archive first so a poll between worker ticks still sees fresh counts.
func (m *Manager) CollectionStatus(rawID string) (registry.CollectionStatus, error) {
	id, err := ident.NormalizeCollectionID(rawID)
	if err != nil {
		return registry.CollectionStatus{}, err
	}
	m.registry.ReconcileCollection(id, m.memberArchived)
	return m.registry.CollectionStatusFor(id), nil
}

// Health reports archive existence and pool utilization.
func (m *Manager) Health() Health {
	return Health{
		ArchiveExists:     m.archive.Exists(),
		ItemsActive:       m.registry.ActiveCount(registry.PoolItem),
		ItemLimit:         m.registry.Limit(registry.PoolItem),
		CollectionsActive: m.registry.ActiveCount(registry.PoolCollection),
		CollectionLimit:   m.registry.Limit(registry.PoolCollection),
	}
}

func (m *Manager) memberArchived(id string) bool {
	ok, err := m.archive.Contains(id)
	return err == nil && ok
}
