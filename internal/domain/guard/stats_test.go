package guard

import (
	"sync"
	"testing"
	"time"
)

func TestStatsSnapshot(t *testing.T) {
	s := NewStats()

	s.recordCommand(ActionAllow, false, 10*time.Microsecond)
	s.recordCommand(ActionDeny, true, 20*time.Microsecond)
	s.recordCommand(ActionAsk, false, 30*time.Microsecond)
	s.recordFile(ActionDeny)
	s.recordFile(ActionAllow)

	snap := s.Snapshot()
	if snap.CommandsValidated != 3 {
		t.Errorf("CommandsValidated = %d, want 3", snap.CommandsValidated)
	}
	if snap.CommandsBlocked != 1 {
		t.Errorf("CommandsBlocked = %d, want 1", snap.CommandsBlocked)
	}
	if snap.CommandsWarned != 1 {
		t.Errorf("CommandsWarned = %d, want 1", snap.CommandsWarned)
	}
	if snap.FilesBlocked != 1 {
		t.Errorf("FilesBlocked = %d, want 1", snap.FilesBlocked)
	}
	if snap.ObfuscationDetected != 1 {
		t.Errorf("ObfuscationDetected = %d, want 1", snap.ObfuscationDetected)
	}
	if snap.AverageValidationTime != 20*time.Microsecond {
		t.Errorf("AverageValidationTime = %v, want 20µs cumulative average", snap.AverageValidationTime)
	}
}

func TestStatsNilSafe(t *testing.T) {
	var s *Stats
	// Must not panic: validators treat stats as optional.
	s.recordCommand(ActionDeny, true, time.Microsecond)
	s.recordFile(ActionDeny)
	if snap := s.Snapshot(); snap.CommandsValidated != 0 {
		t.Errorf("nil stats snapshot should be zero, got %+v", snap)
	}
}

func TestStatsConcurrentUpdates(t *testing.T) {
	s := NewStats()
	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s.recordCommand(ActionAllow, false, time.Microsecond)
			}
		}()
	}
	wg.Wait()

	if got := s.Snapshot().CommandsValidated; got != workers*perWorker {
		t.Errorf("CommandsValidated = %d, want %d", got, workers*perWorker)
	}
}

func TestEngineLatencyBudget(t *testing.T) {
	if testing.Short() {
		t.Skip("latency measurement")
	}

	e := NewDefaultEngine()
	commands := []string{
		"go build ./...",
		"npm install",
		"git status",
		"ls -la internal",
		"cat README.md",
	}

	const iterations = 10000
	start := time.Now()
	for i := 0; i < iterations; i++ {
		e.ValidateCommand(commands[i%len(commands)])
	}
	perCall := time.Since(start) / iterations

	// Budget is 15ms per call for typical inputs; pre-compiled patterns
	// keep real numbers in the microseconds.
	if perCall > 15*time.Millisecond {
		t.Errorf("per-call latency %v exceeds budget", perCall)
	}
}
