package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports configuration values the daemon cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.MergedDir) == "" {
		problems = append(problems, "paths.merged_dir is required")
	}
	if strings.TrimSpace(c.Paths.ArchiveFile) == "" {
		problems = append(problems, "paths.archive_file is required")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir is required")
	}

	if c.Jobs.ItemLimit <= 0 {
		problems = append(problems, "jobs.item_limit must be positive")
	}
	if c.Jobs.CollectionLimit <= 0 {
		problems = append(problems, "jobs.collection_limit must be positive")
	}
	if c.Jobs.ResultRetention <= 0 {
		problems = append(problems, "jobs.result_retention must be positive")
	}
	if c.Jobs.ReconcileInterval <= 0 {
		problems = append(problems, "jobs.reconcile_interval must be positive")
	}

	if c.Fetch.SleepInterval < 0 || c.Fetch.MaxSleepInterval < 0 {
		problems = append(problems, "fetch sleep intervals must not be negative")
	}
	if c.Fetch.MaxSleepInterval > 0 && c.Fetch.MaxSleepInterval < c.Fetch.SleepInterval {
		problems = append(problems, "fetch.max_sleep_interval must be >= fetch.sleep_interval")
	}
	if c.Fetch.ConcurrentFragments <= 0 {
		problems = append(problems, "fetch.concurrent_fragments must be positive")
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
