package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"dihi/internal/config"
	"dihi/internal/jobs"
	"dihi/internal/logging"
	"dihi/internal/registry"
)

// jobService is the manager surface the daemon and API server consume.
type jobService interface {
	TriggerItem(id string) (registry.Admission, error)
	ItemStatus(id string) (jobs.ItemReport, error)
	ItemArchived(id string) (bool, error)
	TriggerCollection(id string) (registry.Admission, error)
	CollectionStatus(id string) (registry.CollectionStatus, error)
	Health() jobs.Health
	Wait()
}

// Daemon owns the service lifecycle and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	manager jobService

	lockPath string
	lock     *flock.Flock
	running  atomic.Bool

	api *apiServer
}

// New constructs a daemon around an already wired job manager.
func New(cfg *config.Config, manager jobService, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || manager == nil {
		return nil, errors.New("daemon requires config and job manager")
	}
	if logger == nil {
		logger = slog.Default()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "dihid.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		manager:  manager,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and brings up the API server. The server
// shuts down when ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another instance holds %s", d.lockPath)
	}

	api, err := newAPIServer(d.cfg.Paths.APIBind, d.manager, d.logger)
	if err != nil {
		_ = d.lock.Unlock()
		return err
	}
	d.api = api
	if err := d.api.start(ctx); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("api_bind", d.cfg.Paths.APIBind),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop drains running jobs, stops the API server, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Swap(false) {
		return
	}
	if d.api != nil {
		d.api.stop()
	}
	d.manager.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("lock release failed", logging.Error(err))
	}
	d.logger.Info("daemon stopped")
}

// Addr reports the bound API address, empty before Start.
func (d *Daemon) Addr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}
