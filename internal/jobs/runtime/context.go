package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/ctxutil"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/services"
)

/*
Context is the execution handle for one attempt of one job run.
Handlers never write job_run themselves; they report through Progress,
Fail and Succeed, which keep the row, the in-memory copy and the notifier
in step.
*/
type Context struct {
	Ctx    context.Context
	DB     *gorm.DB
	Job    *types.JobRun
	Repo   repos.JobRunRepo
	Notify services.JobNotifier
	Log    *logger.Logger

	payload    map[string]any
	payloadErr error
}

// NewContext decodes the job payload eagerly. A malformed payload is kept as
// an empty map; PayloadErr reports it.
func NewContext(ctx context.Context, db *gorm.DB, job *types.JobRun, repo repos.JobRunRepo, notify services.JobNotifier, log *logger.Logger) *Context {
	c := &Context{
		Ctx:    ctxutil.Default(ctx),
		DB:     db,
		Job:    job,
		Repo:   repo,
		Notify: notify,
		Log:    log,
	}
	if job != nil && c.Log != nil {
		c.Log = c.Log.With("job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts)
	}
	c.payloadErr = c.decodePayload()
	c.applyTraceData()
	return c
}

func (c *Context) decodePayload() error {
	c.payload = map[string]any{}
	if c.Job == nil || len(c.Job.Payload) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if m != nil {
		c.payload = m
	}
	return nil
}

func (c *Context) applyTraceData() {
	traceID := c.PayloadString("trace_id", "")
	reqID := c.PayloadString("request_id", "")
	if traceID == "" && reqID == "" {
		return
	}
	c.Ctx = ctxutil.WithTraceData(c.Ctx, &ctxutil.TraceData{
		TraceID:   traceID,
		RequestID: reqID,
	})
	if c.Log != nil {
		c.Log = c.Log.With(ctxutil.TraceFields(c.Ctx)...)
	}
}

// Payload never returns nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

func (c *Context) PayloadErr() error { return c.payloadErr }

// PayloadString returns the trimmed string form of key, or def when the key is
// missing, null or blank.
func (c *Context) PayloadString(key, def string) string {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return def
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return def
	}
	return s
}

func (c *Context) JobID() uuid.UUID {
	if c.Job == nil {
		return uuid.Nil
	}
	return c.Job.ID
}

func (c *Context) dbc() dbctx.Context { return dbctx.Context{Ctx: c.Ctx} }

// Progress persists a non-terminal stage/progress/message and heartbeats the row.
func (c *Context) Progress(stage string, pct int, msg string) {
	if c == nil || c.Job == nil {
		return
	}
	now := time.Now().UTC()
	if c.Repo != nil && c.Job.ID != uuid.Nil {
		ok, err := c.Repo.UpdateFieldsUnlessStatus(c.dbc(), c.Job.ID, []string{types.StatusCanceled}, map[string]interface{}{
			"stage":        stage,
			"progress":     pct,
			"message":      msg,
			"heartbeat_at": now,
			"updated_at":   now,
		})
		if err != nil && c.Log != nil {
			c.Log.Warn("job progress write failed", "error", err)
		}
		if !ok {
			return
		}
	}

	c.Job.Stage = stage
	c.Job.Progress = pct
	c.Job.Message = msg
	c.Job.HeartbeatAt = &now
	c.Job.UpdatedAt = now

	if c.Notify != nil {
		c.Notify.JobProgress(c.Job.OwnerUserID, c.Job, stage, pct, msg)
	}
}

// Fail marks the attempt failed. Whether the row is claimed again depends on
// the attempts left; a failed row with none left is the final failure record.
func (c *Context) Fail(stage string, err error) {
	if c == nil || c.Job == nil {
		return
	}
	now := time.Now().UTC()
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	if c.Repo != nil && c.Job.ID != uuid.Nil {
		ok, werr := c.Repo.UpdateFieldsUnlessStatus(c.dbc(), c.Job.ID, []string{types.StatusCanceled}, map[string]interface{}{
			"status":        types.StatusFailed,
			"stage":         stage,
			"message":       "",
			"error":         msg,
			"last_error_at": now,
			"locked_at":     nil,
			"updated_at":    now,
		})
		if werr != nil && c.Log != nil {
			c.Log.Warn("job fail write failed", "error", werr)
		}
		if !ok {
			return
		}
	}

	c.Job.Status = types.StatusFailed
	c.Job.Stage = stage
	c.Job.Message = ""
	c.Job.Error = msg
	c.Job.LastErrorAt = &now
	c.Job.LockedAt = nil
	c.Job.UpdatedAt = now

	if c.Notify != nil {
		c.Notify.JobFailed(c.Job.OwnerUserID, c.Job, stage, msg)
	}
}

// Succeed stores result as JSON and marks the job succeeded at progress 100.
func (c *Context) Succeed(finalStage string, result any) error {
	if c == nil || c.Job == nil {
		return nil
	}
	now := time.Now().UTC()
	res := datatypes.JSON([]byte(`{}`))
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		res = datatypes.JSON(b)
	}

	if c.Repo != nil && c.Job.ID != uuid.Nil {
		ok, err := c.Repo.UpdateFieldsUnlessStatus(c.dbc(), c.Job.ID, []string{types.StatusCanceled}, map[string]interface{}{
			"status":       types.StatusSucceeded,
			"stage":        finalStage,
			"progress":     100,
			"message":      "",
			"error":        "",
			"result":       res,
			"locked_at":    nil,
			"heartbeat_at": now,
			"updated_at":   now,
		})
		if err != nil {
			return fmt.Errorf("store result: %w", err)
		}
		if !ok {
			return nil
		}
	}

	c.Job.Status = types.StatusSucceeded
	c.Job.Stage = finalStage
	c.Job.Progress = 100
	c.Job.Message = ""
	c.Job.Error = ""
	c.Job.Result = res
	c.Job.LockedAt = nil
	c.Job.HeartbeatAt = &now
	c.Job.UpdatedAt = now

	if c.Notify != nil {
		c.Notify.JobDone(c.Job.OwnerUserID, c.Job)
	}
	return nil
}
