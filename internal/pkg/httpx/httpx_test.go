package httpx

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type statusErr int

func (s statusErr) Error() string       { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.DeadlineExceeded, true},
		{fmt.Errorf("wrapped: %w", statusErr(503)), true},
		{statusErr(429), true},
		{statusErr(404), false},
		{fmt.Errorf("plain"), false},
	}
	for _, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Fatalf("IsRetryableError(%v): want=%v got=%v", tc.err, tc.want, got)
		}
	}
}

func TestJitterSleepBounds(t *testing.T) {
	base := time.Second
	for i := 0; i < 50; i++ {
		d := JitterSleep(base)
		if d < 800*time.Millisecond || d > 1200*time.Millisecond {
			t.Fatalf("JitterSleep out of range: %s", d)
		}
	}
	if JitterSleep(0) != 0 {
		t.Fatalf("JitterSleep(0) should be 0")
	}
}
