package jobrun

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/workflow"
)

// Workflow runs the job whose id is the workflow id. Retries live on the
// activity so that every attempt is visible on the job_run row.
func Workflow(ctx workflow.Context) error {
	jobID := strings.TrimSpace(workflow.GetInfo(ctx).WorkflowExecution.ID)
	if jobID == "" {
		return fmt.Errorf("jobrun: missing job_id")
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: AttemptTimeout,
		HeartbeatTimeout:    10 * time.Second,
		RetryPolicy:         RetryPolicy(),
	})
	return workflow.ExecuteActivity(ctx, ActivityRun, jobID).Get(ctx, nil)
}
