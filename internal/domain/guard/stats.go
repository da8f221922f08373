// Package guard provides the command and file validation engine.
// This file implements the validation statistics collector.
package guard

import (
	"sync/atomic"
	"time"
)

// Stats aggregates validation counters and timing for observability.
// Counters are increment-only and updated atomically, so concurrent
// validations from independent agent sessions never contend on a lock.
// The running average uses a cumulative sum; under concurrency the snapshot
// is approximate, which is acceptable for diagnostics.
//
// Stats lives for the process lifetime and is never reset by the engine;
// resetting is owned by the caller (by constructing a fresh engine).
type Stats struct {
	commandsValidated   atomic.Int64
	commandsBlocked     atomic.Int64
	commandsWarned      atomic.Int64
	filesBlocked        atomic.Int64
	obfuscationDetected atomic.Int64

	durationTotalNanos atomic.Int64
	durationSamples    atomic.Int64
}

// NewStats creates an empty stats collector.
func NewStats() *Stats {
	return &Stats{}
}

// StatsSnapshot is a read-only copy of the collector state at one instant.
type StatsSnapshot struct {
	CommandsValidated   int64
	CommandsBlocked     int64
	CommandsWarned      int64
	FilesBlocked        int64
	ObfuscationDetected int64

	// AverageValidationTime is the mean duration of all command validations
	// observed so far. Zero when nothing has been validated.
	AverageValidationTime time.Duration
}

// Snapshot returns the current counter values. Individual fields are read
// atomically; the snapshot as a whole is not linearizable, which is fine
// for diagnostics.
func (s *Stats) Snapshot() StatsSnapshot {
	if s == nil {
		return StatsSnapshot{}
	}
	snap := StatsSnapshot{
		CommandsValidated:   s.commandsValidated.Load(),
		CommandsBlocked:     s.commandsBlocked.Load(),
		CommandsWarned:      s.commandsWarned.Load(),
		FilesBlocked:        s.filesBlocked.Load(),
		ObfuscationDetected: s.obfuscationDetected.Load(),
	}
	if samples := s.durationSamples.Load(); samples > 0 {
		snap.AverageValidationTime = time.Duration(s.durationTotalNanos.Load() / samples)
	}
	return snap
}

// recordCommand records the outcome of one command validation. Nil-safe and
// never fails: stats must not block or break the decision path.
func (s *Stats) recordCommand(action Action, obfuscated bool, elapsed time.Duration) {
	if s == nil {
		return
	}
	s.commandsValidated.Add(1)
	switch action {
	case ActionDeny:
		s.commandsBlocked.Add(1)
	case ActionAsk:
		s.commandsWarned.Add(1)
	}
	if obfuscated {
		s.obfuscationDetected.Add(1)
	}
	s.durationTotalNanos.Add(elapsed.Nanoseconds())
	s.durationSamples.Add(1)
}

// recordFile records the outcome of one file validation.
func (s *Stats) recordFile(action Action) {
	if s == nil {
		return
	}
	if action == ActionDeny {
		s.filesBlocked.Add(1)
	}
}
