//go:build windows

package proctree

import (
	"log/slog"
	"os/exec"
	"strconv"
	"syscall"
)

const createNoWindow = 0x08000000

// signalDescendants uses taskkill for tree termination. Windows has no
// process-group signal primitive, so the graceful phase asks taskkill to
// close the tree politely and the forceful phase adds /F.
func signalDescendants(pid int, forceful bool, logger *slog.Logger) {
	args := []string{"/T", "/PID", strconv.Itoa(pid)}
	if forceful {
		args = append([]string{"/F"}, args...)
	}

	cmd := exec.Command("taskkill", args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNoWindow}
	if err := cmd.Run(); err != nil {
		logger.Warn("taskkill", "pid", pid, "forceful", forceful, "error", err)
		return
	}
	logger.Info("issued taskkill for process tree", "pid", pid, "forceful", forceful)
}
