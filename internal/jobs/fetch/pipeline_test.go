package fetch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/foodgram-backend/internal/domain"
	jobrt "github.com/yungbote/foodgram-backend/internal/jobs/runtime"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

type stubSource struct {
	name string
	body string
	err  error
}

func (s *stubSource) Source() string { return s.name }

func (s *stubSource) Random(ctx context.Context) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.body), nil
}

func newJob(jobType, payload string) *types.JobRun {
	return &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: 1,
		JobType:     jobType,
		Status:      types.StatusRunning,
		Attempts:    1,
		Payload:     datatypes.JSON([]byte(payload)),
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestRandomMealSucceeds(t *testing.T) {
	log := testLogger(t)
	src := &stubSource{name: "themealdb", body: `{"meals":[{"idMeal":"1"}]}`}
	p := NewRandomMeal(log, src)
	job := newJob(TypeRandomMeal, `{}`)
	jc := jobrt.NewContext(context.Background(), nil, job, nil, nil, log)

	if err := p.Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if job.Status != types.StatusSucceeded || job.Progress != 100 {
		t.Fatalf("expected succeeded at 100, got %s at %d", job.Status, job.Progress)
	}
	var res Result
	if err := json.Unmarshal(job.Result, &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Source != "themealdb" || res.JobID != job.ID.String() {
		t.Fatalf("unexpected result: %+v", res)
	}
	if string(res.Data) != src.body {
		t.Fatalf("data = %s", res.Data)
	}
}

func TestRandomCocktailFailureFailsAttempt(t *testing.T) {
	log := testLogger(t)
	p := NewRandomCocktail(log, &stubSource{name: "thecocktaildb", err: errors.New("boom")})
	job := newJob(TypeRandomCocktail, `{}`)
	jc := jobrt.NewContext(context.Background(), nil, job, nil, nil, log)

	if err := p.Run(jc); err == nil {
		t.Fatalf("expected error")
	}
	if job.Status != types.StatusFailed || job.Stage != "fetch" || job.Error != "boom" {
		t.Fatalf("unexpected job state: status=%s stage=%s error=%q", job.Status, job.Stage, job.Error)
	}
}

func TestHello(t *testing.T) {
	log := testLogger(t)
	cases := []struct {
		payload string
		want    string
	}{
		{`{"name":"Ann"}`, "Hello, Ann!"},
		{`{}`, "Hello, world!"},
		{`{"name":"  "}`, "Hello, world!"},
	}
	for _, tc := range cases {
		job := newJob(TypeHello, tc.payload)
		jc := jobrt.NewContext(context.Background(), nil, job, nil, nil, log)
		if err := NewHello(log).Run(jc); err != nil {
			t.Fatalf("Run(%s): %v", tc.payload, err)
		}
		var out map[string]string
		if err := json.Unmarshal(job.Result, &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out["message"] != tc.want {
			t.Fatalf("payload %s: message = %q, want %q", tc.payload, out["message"], tc.want)
		}
		if out["job_id"] != job.ID.String() {
			t.Fatalf("job_id = %q", out["job_id"])
		}
	}
}

func TestHelloRejectsMalformedPayload(t *testing.T) {
	log := testLogger(t)
	job := newJob(TypeHello, `[1,2]`)
	jc := jobrt.NewContext(context.Background(), nil, job, nil, nil, log)
	err := NewHello(log).Run(jc)
	if err == nil || !strings.Contains(err.Error(), "decode payload") {
		t.Fatalf("expected decode error, got %v", err)
	}
}
