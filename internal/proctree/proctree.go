// Package proctree terminates the descendant tree of a supervised process.
//
// Supervised workers may spawn their own subprocesses that the launch handle
// does not track; only signaling the whole tree reaches them. Termination is
// strictly best effort: every underlying failure is logged and swallowed, so
// callers can rely on the operation never failing regardless of whether the
// target pid exists, has no descendants, or the signaling primitive is
// unavailable on the host platform.
package proctree

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Policy controls the two-phase escalation applied to a descendant tree.
type Policy struct {
	// Grace is the wait between the graceful request and the forceful
	// kill. Zero means escalate immediately.
	Grace time.Duration
}

// TerminateDescendants requests that all descendants of pid stop gracefully,
// waits the policy's grace interval, then stops the survivors forcefully.
// Never fails the caller.
func TerminateDescendants(ctx context.Context, pid int, policy Policy, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if pid <= 0 {
		return
	}

	signalDescendants(pid, false, logger)
	sleep(ctx, policy.Grace)
	signalDescendants(pid, true, logger)
}

// Alive reports whether a process with the given pid currently exists.
func Alive(pid int) bool {
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}

// descendants walks the process tree below pid breadth-first. A lookup
// failure for any single node is not fatal; the subtree reachable so far is
// returned.
func descendants(pid int) ([]int32, error) {
	root, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, err
	}

	var out []int32
	seen := map[int32]struct{}{root.Pid: {}}
	queue := []*process.Process{root}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		children, err := next.Children()
		if err != nil {
			continue
		}
		for _, child := range children {
			if _, dup := seen[child.Pid]; dup {
				continue
			}
			seen[child.Pid] = struct{}{}
			out = append(out, child.Pid)
			queue = append(queue, child)
		}
	}
	return out, nil
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
