package runtime

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/observability"
)

type MissingHandlerError struct{ JobType string }

func (e *MissingHandlerError) Error() string { return "no handler registered for job_type=" + e.JobType }

type PanicError struct{ Val any }

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }

// Execute runs one attempt of jc.Job with the handler registered for its
// type. Any error or panic marks the attempt failed and is returned so the
// caller's retry machinery can see it.
func Execute(reg *Registry, jc *Context) (err error) {
	job := jc.Job
	ctx, span := observability.StartSpan(jc.Ctx, "job."+job.JobType,
		attribute.String("job.id", job.ID.String()),
		attribute.String("job.type", job.JobType),
		attribute.Int("job.attempt", job.Attempts),
	)
	jc.Ctx = ctx
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			if jc.Log != nil {
				jc.Log.Error("Job handler panic", "panic", r)
			}
			err = &PanicError{Val: r}
			jc.Fail("panic", err)
		}
		status := types.StatusSucceeded
		if err != nil {
			status = types.StatusFailed
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		observability.Current().ObserveJob(job.JobType, status, time.Since(start))
	}()

	h, ok := reg.Get(job.JobType)
	if !ok {
		err = &MissingHandlerError{JobType: job.JobType}
		jc.Fail("dispatch", err)
		return err
	}
	if err = h.Run(jc); err != nil {
		// Handlers may have failed the job with a more specific stage already.
		if jc.Job.Status != types.StatusFailed {
			jc.Fail("run", err)
		}
		return err
	}
	return nil
}
