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

	"docshelf/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir    string `toml:"state_dir"`
	FallbackDir string `toml:"fallback_dir"`
	LogDir      string `toml:"log_dir"`
}

// Routing holds the confidence cut points. Scores at or above
// AutoApproveThreshold execute without asking; scores below AskThreshold go to
// the fallback directory.
type Routing struct {
	AutoApproveThreshold int `toml:"auto_approve_threshold"`
	AskThreshold         int `toml:"ask_threshold"`
}

// Tools names the external collaborator executables. Empty values select the
// built-in behaviour (sha256 checksums, no validation, no duplicate lookup).
type Tools struct {
	ChecksumCommand  string `toml:"checksum_command"`
	DuplicateCommand string `toml:"duplicate_command"`
	ValidatorCommand string `toml:"validator_command"`
}

// Undo controls the reversal pass.
type Undo struct {
	// RetainUnreversed keeps records that could not be reversed after a
	// partially successful batch instead of clearing the whole journal.
	RetainUnreversed bool `toml:"retain_unreversed"`
}

// Review contains configuration for the review API.
type Review struct {
	Bind string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for docshelf.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Routing Routing `toml:"routing"`
	Tools   Tools   `toml:"tools"`
	Undo    Undo    `toml:"undo"`
	Review  Review  `toml:"review"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/docshelf/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Every failure matches services.ErrConfiguration.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, configError(err)
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, configError(fmt.Errorf("open config %s: %w", resolvedPath, err))
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, configError(fmt.Errorf("parse config %s: %w", resolvedPath, err))
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, configError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, configError(err)
	}

	return &cfg, resolvedPath, exists, nil
}

func configError(err error) error {
	if errors.Is(err, services.ErrConfiguration) {
		return err
	}
	return fmt.Errorf("%w: %w", services.ErrConfiguration, err)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s not found", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("docshelf.toml")
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

// EnsureDirectories creates the state and log directories. The fallback
// directory is created lazily by the executor the first time it is needed.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return configError(fmt.Errorf("create directory %q: %w", dir, err))
		}
	}
	return nil
}

// QueuePath is the Queue Store document.
func (c *Config) QueuePath() string {
	return filepath.Join(c.Paths.StateDir, "file_queue.json")
}

// JournalPath is the undo journal document.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "undo_journal.json")
}

// ArchivePath is the SQLite completed-items log.
func (c *Config) ArchivePath() string {
	return filepath.Join(c.Paths.StateDir, "archive.db")
}

// LockPath is the advisory single-writer lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "docshelf.lock")
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
