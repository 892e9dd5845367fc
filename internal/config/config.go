package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageBadger = "badger"
	StorageMemory = "memory"
)

// DirName is the name of both the global (~/.rolodex) and repo (.rolodex) config directories.
const DirName = ".rolodex"

var validate = validator.New()

// Config holds application configuration.
type Config struct {
	// Storage selects the persistence channel: sqlite, badger, or memory
	Storage string `json:"storage,omitempty" validate:"omitempty,oneof=sqlite badger memory"`

	// StorageKey is the key the contact list is persisted under
	StorageKey string `json:"storage_key,omitempty"`

	// CategoriesPath points to a YAML or JSON category forest.
	// Empty means the built-in taxonomy.
	CategoriesPath string `json:"categories_path,omitempty"`

	// StrictLoad refuses to start when the persisted contacts are unreadable
	// or corrupt. By default the store starts empty and logs a warning.
	StrictLoad bool `json:"strict_load,omitempty"`

	// LogLevel is the minimum zap level written to stderr
	LogLevel string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn warning error"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.rolodex/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" validate:"gte=0"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" validate:"gte=0"`

	// WebBind is the address the web UI listens on
	WebBind string `json:"web_bind,omitempty"`

	// WebPort is the web UI port
	WebPort int `json:"web_port,omitempty" validate:"gte=0,lte=65535"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "contact", "category". Unknown type names are logged as warnings.
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage:    StorageSQLite,
		StorageKey: "contacts",
		LogLevel:   "info",
		WebBind:    "127.0.0.1",
		WebPort:    7420,
	}
}

// Validate checks enumerated and ranged fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s=%v fails %q", jsonName(fe.Field()), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// jsonName maps a Config field name to its JSON key.
func jsonName(field string) string {
	if f, ok := configFields[field]; ok {
		return f
	}
	return field
}

var configFields = map[string]string{
	"Storage":        "storage",
	"LogLevel":       "log_level",
	"DBMaxOpenConns": "db_max_open_conns",
	"DBMaxIdleConns": "db_max_idle_conns",
	"WebPort":        "web_port",
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.rolodex.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.rolodex) and repo (.rolodex) directories.
// Repo config is found by walking upward from startDir to find the nearest .rolodex/config.json.
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

	cfg := Merge(Merge(DefaultConfig(), global), repo)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindRepoConfig walks upward from startDir to find the nearest .rolodex/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
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
		return nil, fmt.Errorf("parsing %s: %w", configPath, err)
	}

	// A relative categories_path is relative to the file that set it
	if cfg.CategoriesPath != "" && !filepath.IsAbs(cfg.CategoriesPath) {
		cfg.CategoriesPath = filepath.Join(filepath.Dir(configPath), cfg.CategoriesPath)
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
	merged := Merge(DefaultConfig(), cfg)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.Storage = firstString(overlay.Storage, base.Storage)
	result.StorageKey = firstString(overlay.StorageKey, base.StorageKey)
	result.CategoriesPath = firstString(overlay.CategoriesPath, base.CategoriesPath)
	result.LogLevel = firstString(overlay.LogLevel, base.LogLevel)
	result.WebBind = firstString(overlay.WebBind, base.WebBind)

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.WebPort = overlay.WebPort
	if result.WebPort == 0 {
		result.WebPort = base.WebPort
	}

	// Booleans: overlay wins if true, else base
	result.StrictLoad = base.StrictLoad || overlay.StrictLoad
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstString(overlay, base string) string {
	if s := strings.TrimSpace(overlay); s != "" {
		return s
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
