// Package supervise owns the lifecycle of the backend process fleet: the
// ordered bring-up sequence and the two-phase shutdown protocol.
package supervise

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/pellmont/warden/internal/config"
	"github.com/pellmont/warden/internal/launch"
	"github.com/pellmont/warden/internal/logsink"
	"github.com/pellmont/warden/internal/metrics"
	"github.com/pellmont/warden/internal/proctree"
)

// ErrDependencySync marks the one startup failure that aborts StartAll. All
// other startup-time failures are downgraded to logged warnings.
var ErrDependencySync = errors.New("dependency synchronization failed")

const serverRole = "server"

// Launcher abstracts process creation so tests can supply fakes.
type Launcher interface {
	Start(spec launch.Spec) (Process, error)
}

type execLauncher struct{}

func (execLauncher) Start(spec launch.Spec) (Process, error) {
	h, err := launch.Start(spec)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Supervisor launches the backend fleet, tracks it in a registry and tears
// it down. It only ever signals processes it spawned itself.
type Supervisor struct {
	cfg      *config.Config
	paths    config.Paths
	catalog  *config.Catalog
	syncArgs []string

	launcher Launcher
	logger   *slog.Logger
	registry *Registry

	geoEndpoint string

	// lifecycle serializes StartAll and StopAll so a drain can never
	// interleave with startup-time appends.
	lifecycle sync.Mutex

	runDir string
}

// New validates the configured paths and constructs a supervisor. A missing
// backend directory or environment file fails construction; the log
// directory is created if absent.
func New(cfg *config.Config, logger *slog.Logger) (*Supervisor, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	paths, err := config.ResolvePaths(cfg)
	if err != nil {
		return nil, err
	}

	syncArgs := append([]string(nil), cfg.SyncArgs...)
	if cfg.SyncExtraArgs != "" {
		extra, err := shellquote.Split(cfg.SyncExtraArgs)
		if err != nil {
			return nil, fmt.Errorf("parse syncExtraArgs: %w", err)
		}
		syncArgs = append(syncArgs, extra...)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Supervisor{
		cfg:         cfg,
		paths:       paths,
		catalog:     config.NewCatalog(cfg.Workers),
		syncArgs:    syncArgs,
		launcher:    execLauncher{},
		logger:      logger,
		registry:    &Registry{},
		geoEndpoint: geoEndpoint,
	}, nil
}

// Registry exposes the live-process registry for inspection.
func (s *Supervisor) Registry() *Registry {
	return s.registry
}

// StartAll runs the ordered bring-up sequence: dependency sync (hard gate),
// one-shot initialization (skipped with a warning when absent), then each
// worker role in catalog order and finally the server. Individual launch
// failures are logged and do not fail the call; only a sync failure does.
func (s *Supervisor) StartAll(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.Sync(ctx); err != nil {
		return err
	}
	s.runInit(ctx)

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	for _, role := range s.catalog.Roles() {
		s.launchRole(role.Name, s.moduleSpec(role.Name, role.Module, role.Env))
	}
	s.launchRole(serverRole, s.moduleSpec(serverRole, s.cfg.ServerModule, nil))

	return nil
}

// StopAll drains the registry and terminates every drained entry: graceful
// exit request, bounded wait, descendant-tree termination, forceful kill.
// Idempotent and infallible from the caller's perspective; a second call
// observes an empty registry and is a no-op.
func (s *Supervisor) StopAll() {
	s.lifecycle.Lock()
	entries := s.registry.Drain()
	s.lifecycle.Unlock()

	if len(entries) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func(e Entry) {
			defer wg.Done()
			s.terminate(e)
		}(e)
	}
	wg.Wait()
}

func (s *Supervisor) terminate(e Entry) {
	s.logger.Info("requesting graceful shutdown", "role", e.Role, "pid", e.PID)
	if err := e.Proc.WriteStdin([]byte(s.cfg.ExitCommand)); err != nil {
		s.logger.Warn("write exit command", "role", e.Role, "pid", e.PID, "error", err)
	}

	grace := time.NewTimer(s.cfg.ShutdownGrace.Duration)
	select {
	case <-e.Proc.Done():
		s.logger.Info("process exited cooperatively", "role", e.Role, "pid", e.PID)
	case <-grace.C:
	}
	grace.Stop()

	proctree.TerminateDescendants(context.Background(), e.PID,
		proctree.Policy{Grace: s.cfg.DescendantGrace.Duration}, s.logger)

	if err := e.Proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Warn("kill process", "role", e.Role, "pid", e.PID, "error", err)
	} else {
		s.logger.Info("force kill issued", "role", e.Role, "pid", e.PID)
	}
	metrics.IncrementStops(e.Role)
}

// Sync runs the blocking dependency-synchronization gate on its own. This is
// the only startup step whose failure propagates to the caller.
func (s *Supervisor) Sync(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.runDir = s.newRunDir()
	if err := s.runSync(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDependencySync, err)
	}
	return nil
}

func (s *Supervisor) runSync(ctx context.Context) error {
	args := append([]string(nil), s.syncArgs...)
	if s.cfg.DetectMirror {
		if url := detectMirror(ctx, s.geoEndpoint, s.logger); url != "" {
			args = append(args, "--index-url", url)
		}
	}

	s.logger.Info("running dependency sync", "runner", s.cfg.Runner, "args", args)
	out, closeOut := s.stepLog("sync")
	defer closeOut()

	return launch.RunForeground(ctx, launch.Spec{
		Role:   "sync",
		Binary: s.cfg.Runner,
		Args:   args,
		Dir:    s.paths.BackendDir,
	}, out)
}

// runInit executes the one-shot initialization script. A missing script is
// expected on already-initialized installs and is skipped with a warning;
// a failing script is logged but does not gate startup.
func (s *Supervisor) runInit(ctx context.Context) {
	script := filepath.Join(s.paths.BackendDir, s.cfg.InitScript)
	if _, err := os.Stat(script); err != nil {
		s.logger.Warn("init script absent, skipping", "script", script)
		return
	}

	s.logger.Info("running init script", "script", script)
	out, closeOut := s.stepLog("init")
	defer closeOut()

	err := launch.RunForeground(ctx, launch.Spec{
		Role:   "init",
		Binary: s.cfg.Runner,
		Args:   []string{"run", "--env-file", s.paths.EnvFile, script},
		Dir:    s.paths.BackendDir,
	}, out)
	if err != nil {
		s.logger.Warn("init script failed", "script", script, "error", err)
	}
}

func (s *Supervisor) launchRole(role string, spec launch.Spec) {
	proc, err := s.launcher.Start(spec)
	if err != nil {
		s.logger.Error("launch failed", "role", role, "error", err)
		metrics.IncrementLaunchFailures(role)
		return
	}

	logsink.Attach(filepath.Join(s.runDir, role+".log"), role, proc.Events(), s.logger)
	s.registry.Append(Entry{Proc: proc, PID: proc.PID(), Role: role})
	metrics.IncrementLaunches(role)
	s.logger.Info("process launched", "role", role, "pid", proc.PID())
}

func (s *Supervisor) moduleSpec(role, module string, env map[string]string) launch.Spec {
	return launch.Spec{
		Role:   role,
		Binary: s.cfg.Runner,
		Args:   []string{"run", "--env-file", s.paths.EnvFile, "-m", module},
		Dir:    s.paths.BackendDir,
		Env:    env,
	}
}

// newRunDir creates a per-run directory under the log directory. Falls back
// to the log directory itself if creation fails; logging must never block
// supervision.
func (s *Supervisor) newRunDir() string {
	dir := filepath.Join(s.paths.LogDir, time.Now().Format("20060102150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Warn("create run log directory", "dir", dir, "error", err)
		return s.paths.LogDir
	}
	return dir
}

// stepLog opens the log file for a foreground step. The returned writer is
// nil when the file cannot be opened; RunForeground tolerates that.
func (s *Supervisor) stepLog(step string) (io.Writer, func()) {
	path := filepath.Join(s.runDir, step+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		s.logger.Warn("open step log", "step", step, "path", path, "error", err)
		return nil, func() {}
	}
	return f, func() { f.Close() }
}
