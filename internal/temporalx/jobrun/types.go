package jobrun

import (
	"time"

	"go.temporal.io/sdk/temporal"
)

const (
	WorkflowName = "job_run"
	ActivityRun  = "job_run_attempt"
)

// Attempt limits shared with the polling worker defaults: four executions,
// a fixed five second delay, and a bound on each attempt.
const (
	MaxAttempts    = 4
	RetryDelay     = 5 * time.Second
	AttemptTimeout = 30 * time.Second
)

// RetryPolicy retries a failed attempt at a fixed interval.
func RetryPolicy() *temporal.RetryPolicy {
	return &temporal.RetryPolicy{
		InitialInterval:    RetryDelay,
		BackoffCoefficient: 1.0,
		MaximumInterval:    RetryDelay,
		MaximumAttempts:    MaxAttempts,
	}
}
