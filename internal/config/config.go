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

// Paths contains directory configuration shared with the rip pipeline.
type Paths struct {
	MusicDir   string `toml:"music_dir"`
	UnknownDir string `toml:"unknown_dir"`
	WorkDir    string `toml:"work_dir"`
	JobDB      string `toml:"job_db"`
	LogDir     string `toml:"log_dir"`
}

// Identification contains fingerprint lookup and voting thresholds.
type Identification struct {
	AcoustIDAPIKey  string  `toml:"acoustid_api_key"`
	AcoustIDBaseURL string  `toml:"acoustid_base_url"`
	FpcalcBinary    string  `toml:"fpcalc_binary"`
	MinTrackScore   float64 `toml:"min_track_score"`
	MinCoverage     float64 `toml:"min_coverage"`
	MinAgreement    float64 `toml:"min_agreement"`
	LookupTimeout   int     `toml:"lookup_timeout"`
	MaxParallel     int     `toml:"max_parallel_lookups"`
}

// Reconcile contains work-area scanning and cleanup settings.
type Reconcile struct {
	TempDirPrefix   string   `toml:"temp_dir_prefix"`
	StaleAgeHours   int      `toml:"stale_age_hours"`
	RipProcessNames []string `toml:"rip_process_names"`
}

// Library contains configuration for the downstream library rescan.
type Library struct {
	RescanEnabled bool   `toml:"rescan_enabled"`
	RescanURL     string `toml:"rescan_url"`
	RescanUser    string `toml:"rescan_user"`
	RescanToken   string `toml:"rescan_token"`
	RescanTimeout int    `toml:"rescan_timeout"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for stylus.
//
// Configuration sections by subsystem:
//   - Paths: library, unknown-album, and shared work-area directories
//   - Identification: AcoustID access and voting thresholds
//   - Reconcile: staleness detection and cleanup settings
//   - Library: Subsonic-compatible rescan integration
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths          Paths          `toml:"paths"`
	Identification Identification `toml:"identification"`
	Reconcile      Reconcile      `toml:"reconcile"`
	Library        Library        `toml:"library"`
	Notifications  Notifications  `toml:"notifications"`
	Logging        Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/stylus/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found at the resolved path.
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

	projectPath, err := filepath.Abs("stylus.toml")
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

func (c *Config) normalize() error {
	var err error
	if c.Paths.MusicDir, err = expandPath(c.Paths.MusicDir); err != nil {
		return err
	}
	if strings.TrimSpace(c.Paths.UnknownDir) == "" && c.Paths.MusicDir != "" {
		c.Paths.UnknownDir = filepath.Join(c.Paths.MusicDir, "Unknown Artist")
	}
	if c.Paths.UnknownDir, err = expandPath(c.Paths.UnknownDir); err != nil {
		return err
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return err
	}
	if c.Paths.JobDB, err = expandPath(c.Paths.JobDB); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Identification.AcoustIDBaseURL = strings.TrimRight(strings.TrimSpace(c.Identification.AcoustIDBaseURL), "/")
	if strings.TrimSpace(c.Identification.FpcalcBinary) == "" {
		c.Identification.FpcalcBinary = defaultFpcalcBinary
	}
	if c.Identification.LookupTimeout <= 0 {
		c.Identification.LookupTimeout = defaultLookupTimeout
	}
	if c.Identification.MaxParallel <= 0 {
		c.Identification.MaxParallel = defaultMaxParallelLookups
	}

	if strings.TrimSpace(c.Reconcile.TempDirPrefix) == "" {
		c.Reconcile.TempDirPrefix = defaultTempDirPrefix
	}
	if c.Reconcile.StaleAgeHours <= 0 {
		c.Reconcile.StaleAgeHours = defaultStaleAgeHours
	}
	if len(c.Reconcile.RipProcessNames) == 0 {
		c.Reconcile.RipProcessNames = defaultRipProcessNames()
	}

	c.Library.RescanURL = strings.TrimRight(strings.TrimSpace(c.Library.RescanURL), "/")
	if c.Library.RescanTimeout <= 0 {
		c.Library.RescanTimeout = defaultRescanTimeout
	}

	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	return nil
}

// Validate checks that the configuration can support an identification or
// reconciliation run.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Paths.MusicDir) == "" {
		problems = append(problems, "paths.music_dir is required")
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		problems = append(problems, "paths.work_dir is required")
	}
	for _, threshold := range []struct {
		name  string
		value float64
	}{
		{"identification.min_track_score", c.Identification.MinTrackScore},
		{"identification.min_coverage", c.Identification.MinCoverage},
		{"identification.min_agreement", c.Identification.MinAgreement},
	} {
		if threshold.value <= 0 || threshold.value > 1 {
			problems = append(problems, fmt.Sprintf("%s must be in (0, 1], got %v", threshold.name, threshold.value))
		}
	}
	if c.Library.RescanEnabled {
		if c.Library.RescanURL == "" {
			problems = append(problems, "library.rescan_url is required when rescan is enabled")
		}
		if strings.TrimSpace(c.Library.RescanUser) == "" {
			problems = append(problems, "library.rescan_user is required when rescan is enabled")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// EnsureDirectories creates the directories stylus owns. The music and work
// directories belong to the rip pipeline and are never created here.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// LockPath returns the path of the single-instance guard lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "stylus.lock")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the sample configuration to path, refusing to overwrite
// an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
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
