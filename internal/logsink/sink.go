// Package logsink persists a single process's interleaved stdout/stderr
// lines to an append-mode log file. Each sink runs in its own goroutine with
// a lifetime independent of the process registry: it simply drains the event
// stream until the stream ends, and a logging failure never propagates back
// into supervision.
package logsink

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pellmont/warden/internal/launch"
)

// Attach spawns a goroutine that drains events into an append-mode file at
// path. The returned channel is closed when the stream has been exhausted;
// callers are not required to wait on it.
func Attach(path, role string, events <-chan launch.Event, logger *slog.Logger) <-chan struct{} {
	if logger == nil {
		logger = slog.Default()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		drain(path, role, events, logger)
	}()
	return done
}

func drain(path, role string, events <-chan launch.Event, logger *slog.Logger) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Error("open log file", "role", role, "path", path, "error", err)
		file = nil
	}
	if file != nil {
		defer file.Close()
	}

	for evt := range events {
		if evt.Terminated {
			logger.Info("process terminated", "role", role, "exitCode", evt.ExitCode)
			continue
		}
		if file == nil {
			// Keep consuming so the producer never blocks on a dead sink.
			continue
		}
		line := strings.TrimRight(evt.Line, "\n")
		if _, err := fmt.Fprintln(file, line); err != nil {
			logger.Error("write log line", "role", role, "path", path, "error", err)
			file.Close()
			file = nil
		}
	}
}
