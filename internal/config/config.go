package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory, manifest, and bind address configuration.
type Paths struct {
	MergedDir   string `toml:"merged_dir"`
	ArchiveFile string `toml:"archive_file"`
	LogDir      string `toml:"log_dir"`
	APIBind     string `toml:"api_bind"`
}

// Jobs contains admission ceilings and result retention settings.
type Jobs struct {
	ItemLimit            int `toml:"item_limit"`
	CollectionLimit      int `toml:"collection_limit"`
	ResultRetention      int `toml:"result_retention"`
	ReconcileInterval    int `toml:"reconcile_interval"`
	ArchiveSettleSeconds int `toml:"archive_settle_seconds"`
}

// Fetch contains configuration passed through to the retrieval engine.
type Fetch struct {
	CookiesFile         string   `toml:"cookies_file"`
	CookiesBrowser      string   `toml:"cookies_browser"`
	ChallengeSolver     bool     `toml:"challenge_solver"`
	SubtitleLanguages   []string `toml:"subtitle_languages"`
	SleepInterval       int      `toml:"sleep_interval"`
	MaxSleepInterval    int      `toml:"max_sleep_interval"`
	ConcurrentFragments int      `toml:"concurrent_fragments"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for dihi.
//
// Configuration sections by subsystem:
//   - Paths: merged output directory, archive manifest, log dir, API bind
//   - Jobs: concurrency ceilings and result retention
//   - Fetch: retrieval engine behavior (auth, subtitles, pacing)
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Jobs    Jobs    `toml:"jobs"`
	Fetch   Fetch   `toml:"fetch"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dihi/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dihi.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.MergedDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if parent := filepath.Dir(c.Paths.ArchiveFile); parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("create archive directory %q: %w", parent, err)
		}
	}
	return nil
}

// YtdlpBinary returns the retrieval engine executable name.
func (c *Config) YtdlpBinary() string {
	return "yt-dlp"
}

// FFmpegBinary returns the ffmpeg executable name used for embedding operations.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
