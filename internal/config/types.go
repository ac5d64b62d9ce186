package config

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration so YAML scalars such as "3s" or "150ms" decode
// directly into configuration fields.
type Duration struct {
	time.Duration
	explicit bool
}

// UnmarshalText parses a textual duration, accepting empty strings.
func (d *Duration) UnmarshalText(text []byte) error {
	d.explicit = true
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

// MarshalText renders the duration using time.Duration formatting.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// IsSet reports whether the duration was explicitly provided or non-zero.
func (d Duration) IsSet() bool {
	return d.explicit || d.Duration != 0
}

// Role binds a worker role name to the runtime module it launches.
type Role struct {
	Name   string            `yaml:"name"`
	Module string            `yaml:"module"`
	Env    map[string]string `yaml:"env,omitempty"`
}

// Config mirrors the warden.yaml document structure.
type Config struct {
	// BackendDir is the working directory every backend process runs in.
	// It must exist before the supervisor is constructed.
	BackendDir string `yaml:"backendDir"`

	// EnvFile is passed to the runner as --env-file for every invocation.
	// It must exist before the supervisor is constructed.
	EnvFile string `yaml:"envFile"`

	// LogDir receives one subdirectory per run, holding a .log file per
	// supervised process. Created if absent.
	LogDir string `yaml:"logDir"`

	// Runner is the binary used for every backend invocation.
	Runner string `yaml:"runner,omitempty"`

	// SyncArgs is the blocking dependency-synchronization invocation that
	// gates startup.
	SyncArgs []string `yaml:"syncArgs,omitempty"`

	// SyncExtraArgs carries operator-supplied arguments appended to the
	// sync invocation. Parsed with shell quoting rules.
	SyncExtraArgs string `yaml:"syncExtraArgs,omitempty"`

	// InitScript is resolved relative to BackendDir. A missing script is
	// skipped with a warning rather than failing startup.
	InitScript string `yaml:"initScript,omitempty"`

	// DetectMirror enables region-based package index selection before the
	// sync step.
	DetectMirror bool `yaml:"detectMirror,omitempty"`

	Workers []Role `yaml:"workers,omitempty"`

	// ServerModule is the long-running API server, launched after all
	// workers.
	ServerModule string `yaml:"serverModule"`

	// ExitCommand is written to a process's stdin to request a cooperative
	// shutdown before escalating.
	ExitCommand string `yaml:"exitCommand,omitempty"`

	// ShutdownGrace is how long a process is given to honor the exit
	// command before its descendants are terminated and it is killed.
	ShutdownGrace Duration `yaml:"shutdownGrace,omitempty"`

	// DescendantGrace is the wait between the graceful and forceful
	// signals sent to a process's descendant tree.
	DescendantGrace Duration `yaml:"descendantGrace,omitempty"`
}

const (
	defaultRunner          = "uv"
	defaultInitScript      = "scripts/init_db.py"
	defaultExitCommand     = "__EXIT__\n"
	defaultShutdownGrace   = 3 * time.Second
	defaultDescendantGrace = 3 * time.Second
)

// ApplyDefaults fills unset fields with their documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Runner == "" {
		c.Runner = defaultRunner
	}
	if len(c.SyncArgs) == 0 {
		c.SyncArgs = []string{"sync", "--frozen"}
	}
	if c.InitScript == "" {
		c.InitScript = defaultInitScript
	}
	if c.ExitCommand == "" {
		c.ExitCommand = defaultExitCommand
	}
	if !c.ShutdownGrace.IsSet() {
		c.ShutdownGrace = Duration{Duration: defaultShutdownGrace}
	}
	if !c.DescendantGrace.IsSet() {
		c.DescendantGrace = Duration{Duration: defaultDescendantGrace}
	}
}

// Validate checks structural constraints that do not touch the filesystem.
func (c *Config) Validate() error {
	if c.BackendDir == "" {
		return fmt.Errorf("backendDir is required")
	}
	if c.EnvFile == "" {
		return fmt.Errorf("envFile is required")
	}
	if c.LogDir == "" {
		return fmt.Errorf("logDir is required")
	}
	if c.ServerModule == "" {
		return fmt.Errorf("serverModule is required")
	}
	seen := make(map[string]struct{}, len(c.Workers))
	for i, role := range c.Workers {
		if role.Name == "" {
			return fmt.Errorf("workers[%d]: name is required", i)
		}
		if role.Module == "" {
			return fmt.Errorf("worker %s: module is required", role.Name)
		}
		if _, dup := seen[role.Name]; dup {
			return fmt.Errorf("worker %s: duplicate role name", role.Name)
		}
		seen[role.Name] = struct{}{}
	}
	return nil
}
