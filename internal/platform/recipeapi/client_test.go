package recipeapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return New(log, SourceMealDB, Config{
		BaseURL:       baseURL + "/",
		APIKey:        "1",
		Timeout:       timeout,
		RatePerSecond: 1000,
		Burst:         100,
	}, nil)
}

func TestRandomReturnsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/json/v1/1/random.php" {
			t.Errorf("path: got=%q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"meals":[{"idMeal":"52772","strMeal":"Teriyaki Chicken"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	got, err := c.Random(context.Background())
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if !strings.Contains(string(got), "Teriyaki Chicken") {
		t.Fatalf("payload: got=%s", got)
	}
}

func TestRandomFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) }},
		{"not found", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"meals":`)) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			c := newTestClient(t, srv.URL, time.Second)
			if _, err := c.Random(context.Background()); err == nil {
				t.Fatalf("Random: expected error")
			}
		})
	}
}

func TestRandomTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 50*time.Millisecond)
	start := time.Now()
	if _, err := c.Random(context.Background()); err == nil {
		t.Fatalf("Random: expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout not enforced: took %s", time.Since(start))
	}
}

func TestCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	for i := 0; i < 5; i++ {
		_, _ = c.Random(context.Background())
	}
	_, err := c.Random(context.Background())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("want open circuit, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 5 {
		t.Fatalf("upstream hits: want=5 got=%d", got)
	}
}

func TestNotFoundDoesNotTripCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	for i := 0; i < 8; i++ {
		_, err := c.Random(context.Background())
		var se *StatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
			t.Fatalf("call %d: want 404 StatusError, got %v", i, err)
		}
	}
}
