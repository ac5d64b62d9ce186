//go:build !windows

package proctree

import (
	"errors"
	"log/slog"
	"os/exec"
	"strconv"
	"syscall"
)

// signalDescendants delivers SIGINT (graceful) or SIGKILL (forceful) to every
// descendant of pid. When the tree cannot be enumerated it falls back to
// pkill, which reaches direct children only.
func signalDescendants(pid int, forceful bool, logger *slog.Logger) {
	sig := syscall.SIGINT
	name := "SIGINT"
	if forceful {
		sig = syscall.SIGKILL
		name = "SIGKILL"
	}

	pids, err := descendants(pid)
	if err != nil {
		pkillFallback(pid, name, logger)
		return
	}

	for _, target := range pids {
		if err := syscall.Kill(int(target), sig); err != nil && !errors.Is(err, syscall.ESRCH) {
			logger.Warn("signal descendant", "pid", target, "signal", name, "error", err)
		}
	}
	if len(pids) > 0 {
		logger.Info("signaled descendants", "pid", pid, "signal", name, "count", len(pids))
	}
}

func pkillFallback(pid int, signal string, logger *slog.Logger) {
	cmd := exec.Command("pkill", "-"+signal, "-P", strconv.Itoa(pid))
	if err := cmd.Run(); err != nil {
		// pkill exits 1 when nothing matched; that is not a failure
		// worth surfacing beyond debug.
		logger.Debug("pkill fallback", "pid", pid, "signal", signal, "error", err)
		return
	}
	logger.Info("issued pkill for descendants", "pid", pid, "signal", signal)
}
