package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DirName is the name of the data directory under the user's home and of the
// optional repo-local override directory.
const DirName = ".captiongenius"

// Config holds application configuration.
type Config struct {
	// Provider selects the captioning backend: "openai", "ollama" or "echo".
	Provider string `json:"provider,omitempty"`

	// Model is the backend model name. Empty means the provider default.
	Model string `json:"model,omitempty"`

	// BaseURL overrides the backend endpoint (OpenAI-compatible gateway or Ollama host).
	BaseURL string `json:"base_url,omitempty"`

	// APIKeyEnv names the environment variable holding the backend API key.
	// The key itself is never stored in the config file.
	APIKeyEnv string `json:"api_key_env,omitempty"`

	// GenerationTimeoutSeconds bounds a single generation request.
	GenerationTimeoutSeconds int `json:"generation_timeout_seconds,omitempty"`

	// HistoryLimit is the maximum number of history entries kept.
	HistoryLimit int `json:"history_limit,omitempty"`

	// MaxImageBytes caps accepted image payloads.
	MaxImageBytes int `json:"max_image_bytes,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// AllowedPaths is an allowlist of directories for favorite exports.
	// Paths outside ~/.captiongenius/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for exports.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "caption", "settings", "history", "favorite".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:                 "openai",
		APIKeyEnv:                "OPENAI_API_KEY",
		GenerationTimeoutSeconds: 60,
		HistoryLimit:             10,
		MaxImageBytes:            10 << 20,
		LogLevel:                 "info",
	}
}

// GenerationTimeout returns the generation bound as a duration.
func (c *Config) GenerationTimeout() time.Duration {
	if c == nil || c.GenerationTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.GenerationTimeoutSeconds) * time.Second
}

// APIKey reads the backend API key from the configured environment variable.
func (c *Config) APIKey() string {
	if c == nil || c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.captiongenius.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.captiongenius) and repo (.captiongenius) directories.
// Repo config is found by walking upward from startDir.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .captiongenius/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, DirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Strings and ints: overlay wins if non-zero, else base
	result.Provider = firstString(overlay.Provider, base.Provider)
	result.Model = firstString(overlay.Model, base.Model)
	result.BaseURL = firstString(overlay.BaseURL, base.BaseURL)
	result.APIKeyEnv = firstString(overlay.APIKeyEnv, base.APIKeyEnv)
	result.LogLevel = firstString(overlay.LogLevel, base.LogLevel)

	result.GenerationTimeoutSeconds = firstInt(overlay.GenerationTimeoutSeconds, base.GenerationTimeoutSeconds)
	result.HistoryLimit = firstInt(overlay.HistoryLimit, base.HistoryLimit)
	result.MaxImageBytes = firstInt(overlay.MaxImageBytes, base.MaxImageBytes)
	result.DBMaxOpenConns = firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return strings.TrimSpace(overlay)
	}
	return base
}

func firstInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
