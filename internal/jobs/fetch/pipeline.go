package fetch

import (
	"fmt"

	"github.com/goccy/go-json"

	jobrt "github.com/yungbote/foodgram-backend/internal/jobs/runtime"
)

// Result is stored in job_run.result.
type Result struct {
	Source string          `json:"source"`
	Data   json.RawMessage `json:"data"`
	JobID  string          `json:"job_id"`
}

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	jc.Progress("fetch", 10, fmt.Sprintf("Fetching from %s", p.src.Source()))

	data, err := p.src.Random(jc.Ctx)
	if err != nil {
		jc.Fail("fetch", err)
		return err
	}

	res := Result{
		Source: p.src.Source(),
		Data:   data,
		JobID:  jc.JobID().String(),
	}
	if err := jc.Succeed("done", res); err != nil {
		jc.Fail("store", err)
		return err
	}
	p.log.Debug("fetched random entry", "job_id", res.JobID, "bytes", len(data))
	return nil
}

func (h *Hello) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	if err := jc.PayloadErr(); err != nil {
		jc.Fail("validate", err)
		return err
	}
	name := jc.PayloadString("name", "world")
	if err := jc.Succeed("done", map[string]any{
		"message": fmt.Sprintf("Hello, %s!", name),
		"job_id":  jc.JobID().String(),
	}); err != nil {
		jc.Fail("store", err)
		return err
	}
	return nil
}
