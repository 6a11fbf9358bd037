package reconcile

import (
	"github.com/systmms/accountsync/internal/input"
	"github.com/systmms/accountsync/internal/logging"
	"github.com/systmms/accountsync/internal/report"
)

// secretColumns are scrubbed from every persisted row; report files must
// never carry credential material.
var secretColumns = []string{"password", "key", "sshkey"}

// RunContext is the only cross-record state of a run: the counters for
// the final summary and the failure-dedup set. Owned by the driver,
// passed explicitly, never global.
type RunContext struct {
	Attempted int
	Succeeded int

	seenBad map[string]bool
}

// NewRunContext creates an empty run context.
func NewRunContext() *RunContext {
	return &RunContext{seenBad: make(map[string]bool)}
}

// Failed returns the number of distinct failed records persisted.
func (rc *RunContext) Failed() int {
	return len(rc.seenBad)
}

// Recorder classifies processed records and persists them to the good
// and bad sinks.
type Recorder struct {
	run    *RunContext
	good   *report.Sink
	bad    *report.Sink
	logger *logging.Logger
}

// NewRecorder creates a recorder writing to the given sinks.
func NewRecorder(run *RunContext, good, bad *report.Sink, logger *logging.Logger) *Recorder {
	return &Recorder{run: run, good: good, bad: bad, logger: logger}
}

// RecordGood persists a succeeded record with its secret columns
// scrubbed and bumps the success counter.
func (r *Recorder) RecordGood(row input.Row) {
	r.run.Succeeded++
	observeOutcome("good")

	for _, col := range secretColumns {
		row = row.WithValue(col, "")
	}
	if r.good == nil {
		return
	}
	if err := r.good.Append(row.Values); err != nil {
		r.logger.Warn("Failed to persist succeeded row (line %d): %v", row.Line, err)
	}
}

// RecordBad persists a failed record with the error message attached.
// Repeated failures for the same identity key within one run are logged
// but not re-persisted, so the bad sink never carries two remediation
// rows for the same logical account.
func (r *Recorder) RecordBad(row input.Row, identity, message string) {
	// An API error can echo the credential it rejected; neither the log
	// line nor the persisted message may carry it in the clear.
	var secretValues []string
	for _, col := range secretColumns {
		secretValues = append(secretValues, row.Get(col))
	}
	message = logging.Redact(message, secretValues)

	r.logger.Error("Line %d (%s): %s", row.Line, identity, message)

	if r.run.seenBad[identity] {
		observeOutcome("bad_duplicate")
		r.logger.Debug("Skipping duplicate failure for '%s'", identity)
		return
	}
	r.run.seenBad[identity] = true
	observeOutcome("bad")

	// Bad rows keep their secret columns: the file is re-fed to a later
	// run after remediation.
	if r.bad == nil {
		return
	}
	if err := r.bad.Append(append(row.Values, message)); err != nil {
		r.logger.Warn("Failed to persist failed row (line %d): %v", row.Line, err)
	}
}
