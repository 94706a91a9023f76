package config

const (
	defaultMergedDir            = "~/.local/share/dihi/merged"
	defaultArchiveFile          = "~/.local/share/dihi/archive.txt"
	defaultLogDir               = "~/.local/share/dihi/logs"
	defaultAPIBind              = "127.0.0.1:7489"
	defaultItemLimit            = 5
	defaultCollectionLimit      = 2
	defaultResultRetention      = 300
	defaultReconcileInterval    = 15
	defaultArchiveSettleSeconds = 1
	defaultSleepInterval        = 5
	defaultMaxSleepInterval     = 12
	defaultConcurrentFragments  = 8
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MergedDir:   defaultMergedDir,
			ArchiveFile: defaultArchiveFile,
			LogDir:      defaultLogDir,
			APIBind:     defaultAPIBind,
		},
		Jobs: Jobs{
			ItemLimit:            defaultItemLimit,
			CollectionLimit:      defaultCollectionLimit,
			ResultRetention:      defaultResultRetention,
			ReconcileInterval:    defaultReconcileInterval,
			ArchiveSettleSeconds: defaultArchiveSettleSeconds,
		},
		Fetch: Fetch{
			ChallengeSolver:     true,
			SubtitleLanguages:   []string{"en"},
			SleepInterval:       defaultSleepInterval,
			MaxSleepInterval:    defaultMaxSleepInterval,
			ConcurrentFragments: defaultConcurrentFragments,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
