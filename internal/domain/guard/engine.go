// Package guard provides the command and file validation engine.
// This file implements the engine facade callers construct and hold.
package guard

// Engine bundles the command validator, the file validator, and the shared
// stats collector behind one construction point. It is the unit callers
// create per process (or per configuration) and invoke from any number of
// concurrent agent sessions.
type Engine struct {
	commands *CommandValidator
	files    *FileValidator
	stats    *Stats
}

// NewEngine builds an engine from the built-in registries plus the given
// caller-supplied patterns. Returns an error if any custom pattern fails
// compilation or ReDoS safety validation; a bad configuration must fail
// construction loudly rather than degrade into an allow-everything engine.
func NewEngine(custom CustomPatterns) (*Engine, error) {
	registries, err := NewRegistries(custom)
	if err != nil {
		return nil, err
	}
	stats := NewStats()
	return &Engine{
		commands: NewCommandValidator(registries, stats),
		files:    NewFileValidator(registries, stats),
		stats:    stats,
	}, nil
}

// NewDefaultEngine builds an engine with only the built-in registries.
func NewDefaultEngine() *Engine {
	e, err := NewEngine(CustomPatterns{})
	if err != nil {
		// Unreachable: built-in tables are compile-time constants.
		panic(err)
	}
	return e
}

// ValidateCommand classifies a proposed shell command. See
// CommandValidator.Validate.
func (e *Engine) ValidateCommand(raw string) ValidationResult {
	return e.commands.Validate(raw)
}

// ValidateFile classifies a proposed file path. See FileValidator.Validate.
func (e *Engine) ValidateFile(path string) ValidationResult {
	return e.files.Validate(path)
}

// Stats returns a read-only snapshot of the engine's validation counters.
func (e *Engine) Stats() StatsSnapshot {
	return e.stats.Snapshot()
}
