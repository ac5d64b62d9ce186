package launch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

const (
	SourceStdout = "stdout"
	SourceStderr = "stderr"
)

// Spec describes one backend invocation.
type Spec struct {
	Role   string
	Binary string
	Args   []string
	Dir    string
	Env    map[string]string
}

// Event is a single output line or the final lifecycle notification from a
// launched process. Exactly one terminated event is delivered, after all
// output lines, and the channel is closed behind it.
type Event struct {
	Line       string
	Source     string
	Terminated bool
	ExitCode   int
	Err        error
}

// Handle owns a started OS process and its input stream.
type Handle struct {
	role   string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	events chan Event
	done   chan struct{}

	mu      sync.Mutex
	waitErr error
}

// Start launches the process described by spec and begins draining its
// output. Launches are not cancellable; callers that change their mind kill
// the returned handle instead.
func Start(spec Spec) (*Handle, error) {
	if spec.Binary == "" {
		return nil, fmt.Errorf("launch %s: binary is required", spec.Role)
	}

	cmd := exec.Command(spec.Binary, spec.Args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	cmd.Env = mergedEnv(spec.Env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("launch %s: stdin: %w", spec.Role, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("launch %s: stdout: %w", spec.Role, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("launch %s: stderr: %w", spec.Role, err)
	}

	configureCmdSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch %s: %w", spec.Role, err)
	}

	h := &Handle{
		role:   spec.Role,
		cmd:    cmd,
		stdin:  stdin,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go h.streamLines(stdout, SourceStdout, &wg)
	go h.streamLines(stderr, SourceStderr, &wg)

	go func() {
		wg.Wait()
		err := cmd.Wait()
		h.mu.Lock()
		h.waitErr = err
		h.mu.Unlock()
		h.events <- Event{Terminated: true, ExitCode: cmd.ProcessState.ExitCode(), Err: err}
		close(h.events)
		close(h.done)
	}()

	return h, nil
}

func (h *Handle) streamLines(r io.Reader, source string, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		h.events <- Event{Line: strings.TrimRight(scanner.Text(), "\n"), Source: source}
	}
}

// Role returns the role label the process was launched under.
func (h *Handle) Role() string {
	return h.role
}

// PID returns the OS process identifier.
func (h *Handle) PID() int {
	return h.cmd.Process.Pid
}

// Events exposes the output/lifecycle stream. Closed after the terminated
// event has been delivered.
func (h *Handle) Events() <-chan Event {
	return h.events
}

// Done is closed once the process has been reaped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// WriteStdin writes to the process's input stream. Best effort; the process
// may already have exited or closed its end.
func (h *Handle) WriteStdin(p []byte) error {
	_, err := h.stdin.Write(p)
	return err
}

// Kill forcefully terminates the process itself. Descendants are not
// addressed here.
func (h *Handle) Kill() error {
	return h.cmd.Process.Kill()
}

// RunForeground executes spec to completion, copying its combined output to
// out. Used for the blocking dependency-sync and initialization gates.
func RunForeground(ctx context.Context, spec Spec, out io.Writer) error {
	if spec.Binary == "" {
		return fmt.Errorf("run %s: binary is required", spec.Role)
	}

	cmd := exec.CommandContext(ctx, spec.Binary, spec.Args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	cmd.Env = mergedEnv(spec.Env)
	if out != nil {
		cmd.Stdout = out
		cmd.Stderr = out
	}
	configureCmdSysProcAttr(cmd)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", spec.Role, err)
	}
	return nil
}

func mergedEnv(overrides map[string]string) []string {
	env := os.Environ()
	for k, v := range overrides {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
