package logsink

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pellmont/warden/internal/launch"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sink did not finish")
	}
}

func TestSinkWritesLinesInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research.log")
	events := make(chan launch.Event, 8)
	done := Attach(path, "research", events, discardLogger())

	events <- launch.Event{Line: "first", Source: launch.SourceStdout}
	events <- launch.Event{Line: "second\n", Source: launch.SourceStderr}
	events <- launch.Event{Line: "third", Source: launch.SourceStdout}
	events <- launch.Event{Terminated: true, ExitCode: 0}
	close(events)
	waitDone(t, done)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if got := string(data); got != "first\nsecond\nthird\n" {
		t.Fatalf("unexpected log contents %q", got)
	}
}

func TestSinkAppendsAcrossAttaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	for _, line := range []string{"run-one", "run-two"} {
		events := make(chan launch.Event, 1)
		done := Attach(path, "server", events, discardLogger())
		events <- launch.Event{Line: line, Source: launch.SourceStdout}
		close(events)
		waitDone(t, done)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if got := string(data); got != "run-one\nrun-two\n" {
		t.Fatalf("unexpected log contents %q", got)
	}
}

func TestSinkSurvivesUnopenableFile(t *testing.T) {
	// Point at a directory so the open fails; the sink must still drain
	// the stream to completion without blocking the producer.
	path := t.TempDir()
	events := make(chan launch.Event, 4)
	done := Attach(path, "news", events, discardLogger())

	for i := 0; i < 4; i++ {
		events <- launch.Event{Line: "line", Source: launch.SourceStdout}
	}
	close(events)
	waitDone(t, done)
}

func TestSinkRecordsTerminationAfterOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flaky.log")

	events := make(chan launch.Event, 8)
	done := Attach(path, "flaky", events, discardLogger())
	events <- launch.Event{Line: "kept", Source: launch.SourceStdout}
	events <- launch.Event{Terminated: true, ExitCode: 1}
	close(events)
	waitDone(t, done)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if got := string(data); got != "kept\n" {
		t.Fatalf("unexpected log contents %q", got)
	}
}
