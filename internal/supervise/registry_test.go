package supervise

import (
	"sync"
	"testing"
)

func TestRegistryDrainLeavesEmpty(t *testing.T) {
	reg := &Registry{}
	reg.Append(Entry{Role: "research", PID: 1})
	reg.Append(Entry{Role: "server", PID: 2})

	entries := reg.Drain()
	if len(entries) != 2 || entries[0].Role != "research" || entries[1].Role != "server" {
		t.Fatalf("unexpected drained entries: %v", entries)
	}
	if reg.Len() != 0 {
		t.Fatalf("registry not empty after drain: %d", reg.Len())
	}
	if again := reg.Drain(); len(again) != 0 {
		t.Fatalf("second drain must be empty, got %v", again)
	}
}

func TestRegistryConcurrentAppendsAndDrains(t *testing.T) {
	reg := &Registry{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			reg.Append(Entry{Role: "worker", PID: pid})
		}(i)
	}

	drained := make(chan []Entry, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			drained <- reg.Drain()
		}()
	}
	wg.Wait()
	close(drained)

	total := reg.Len()
	for batch := range drained {
		total += len(batch)
	}
	if total != 50 {
		t.Fatalf("entries lost or duplicated across drains: %d", total)
	}
}
