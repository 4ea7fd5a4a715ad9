package processing

import (
	"github.com/mirthwood/worldevents/pkg/events"
)

// Status is the discriminated outcome of a handler invocation. The
// retry-vs-dead-letter decision is a pure function of this value: the
// processor never inspects error types to decide.
type Status string

const (
	// StatusSuccess: the effect was applied (or upserted onto an
	// existing one).
	StatusSuccess Status = "success"

	// StatusInvalidPayload: the payload can never succeed, on this or
	// any retry. Dead-lettered, not propagated.
	StatusInvalidPayload Status = "invalid-payload"

	// StatusTransientFailure: a downstream dependency failed; the
	// transport's native retry should redeliver.
	StatusTransientFailure Status = "transient-failure"
)

// Result is what a handler reports back to the processor.
type Result struct {
	Status   Status
	Created  bool
	Metadata map[string]any
	Issues   []events.Issue
	Err      error
}

// Succeeded reports a successfully applied effect. created distinguishes a
// fresh write from an idempotent re-apply of existing state.
func Succeeded(created bool, metadata map[string]any) Result {
	return Result{Status: StatusSuccess, Created: created, Metadata: metadata}
}

// InvalidPayload reports a non-retryable payload rejection.
func InvalidPayload(issues ...events.Issue) Result {
	return Result{Status: StatusInvalidPayload, Issues: issues}
}

// TransientFailure reports a retryable downstream failure.
func TransientFailure(err error) Result {
	return Result{Status: StatusTransientFailure, Err: err}
}
