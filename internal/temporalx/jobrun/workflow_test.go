package jobrun

import (
	"context"
	"errors"
	"testing"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/testsuite"
)

func TestWorkflowRetriesAttemptUntilSuccess(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.SetStartWorkflowOptions(client.StartWorkflowOptions{ID: "00000000-0000-0000-0000-000000000001"})

	calls := 0
	env.RegisterActivityWithOptions(func(ctx context.Context, jobID string) error {
		calls++
		if jobID != "00000000-0000-0000-0000-000000000001" {
			t.Errorf("activity got job id %q", jobID)
		}
		if calls < 3 {
			return errors.New("upstream unavailable")
		}
		return nil
	}, activity.RegisterOptions{Name: ActivityRun})

	env.ExecuteWorkflow(Workflow)
	if !env.IsWorkflowCompleted() {
		t.Fatalf("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("activity calls = %d, want 3", calls)
	}
}

func TestWorkflowGivesUpAfterMaxAttempts(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.SetStartWorkflowOptions(client.StartWorkflowOptions{ID: "00000000-0000-0000-0000-000000000002"})

	calls := 0
	env.RegisterActivityWithOptions(func(ctx context.Context, jobID string) error {
		calls++
		return errors.New("still down")
	}, activity.RegisterOptions{Name: ActivityRun})

	env.ExecuteWorkflow(Workflow)
	if !env.IsWorkflowCompleted() {
		t.Fatalf("workflow did not complete")
	}
	if env.GetWorkflowError() == nil {
		t.Fatalf("expected workflow error")
	}
	if calls != MaxAttempts {
		t.Fatalf("activity calls = %d, want %d", calls, MaxAttempts)
	}
}

func TestRetryPolicyIsFixedInterval(t *testing.T) {
	p := RetryPolicy()
	if p.InitialInterval != RetryDelay || p.MaximumInterval != RetryDelay || p.BackoffCoefficient != 1.0 {
		t.Fatalf("unexpected policy: %+v", p)
	}
	if p.MaximumAttempts != MaxAttempts {
		t.Fatalf("MaximumAttempts = %d", p.MaximumAttempts)
	}
}
