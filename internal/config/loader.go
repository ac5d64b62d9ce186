package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Sentinel errors surfaced by Paths so callers can distinguish which
// required path was missing.
var (
	ErrBackendDirMissing = errors.New("backend directory does not exist")
	ErrEnvFileMissing    = errors.New("environment file does not exist")
)

// Load reads a warden manifest from the provided path, resolves relative
// paths against the manifest's directory and applies defaults.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}

	base := filepath.Dir(absPath)
	cfg.BackendDir = resolvePath(base, os.ExpandEnv(cfg.BackendDir))
	cfg.EnvFile = resolvePath(base, os.ExpandEnv(cfg.EnvFile))
	cfg.LogDir = resolvePath(base, os.ExpandEnv(cfg.LogDir))

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return &cfg, nil
}

func resolvePath(base, path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(base, path))
}

// Paths holds the resolved filesystem locations the supervisor depends on.
type Paths struct {
	BackendDir string
	EnvFile    string
	LogDir     string
}

// ResolvePaths verifies the backend directory and environment file exist and
// creates the log directory if absent. Construction of a supervisor fails if
// any of the three cannot be satisfied.
func ResolvePaths(cfg *Config) (Paths, error) {
	info, err := os.Stat(cfg.BackendDir)
	if err != nil || !info.IsDir() {
		return Paths{}, fmt.Errorf("%w: %s", ErrBackendDirMissing, cfg.BackendDir)
	}
	if _, err := os.Stat(cfg.EnvFile); err != nil {
		return Paths{}, fmt.Errorf("%w: %s", ErrEnvFileMissing, cfg.EnvFile)
	}
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create log directory %s: %w", cfg.LogDir, err)
	}
	return Paths{
		BackendDir: cfg.BackendDir,
		EnvFile:    cfg.EnvFile,
		LogDir:     cfg.LogDir,
	}, nil
}
