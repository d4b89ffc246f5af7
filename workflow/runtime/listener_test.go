package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/virtool/integration-ctl/workflow"
	"github.com/virtool/integration-ctl/workflow/api"
)

type fakeQueue struct {
	pops []*redis.StringSliceCmd
	next int
}

func (f *fakeQueue) BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	if f.next >= len(f.pops) {
		cmd := redis.NewStringSliceCmd(ctx)
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd := f.pops[f.next]
	f.next++
	return cmd
}

func (f *fakeQueue) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return nil
}

func (f *fakeQueue) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusCmd(ctx)
}

func (f *fakeQueue) Close() error {
	return nil
}

func popResult(values ...string) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(context.Background())
	cmd.SetVal(values)
	return cmd
}

func newTestListener(queue RedisQueue) *Listener {
	cfg := DefaultConfig()
	runner := NewRunner(cfg, &fakeJobsAPI{}, nil)
	wf := workflow.New("noop")
	return NewListenerWith(cfg, queue, runner, wf)
}

func TestPopReturnsJobID(t *testing.T) {
	queue := &fakeQueue{pops: []*redis.StringSliceCmd{
		popResult("jobs_integration", "job_1"),
	}}

	l := newTestListener(queue)

	jobID, err := l.pop(context.Background())
	if err != nil {
		t.Fatalf("pop returned error: %v", err)
	}
	if jobID != "job_1" {
		t.Errorf("expected job_1, got %q", jobID)
	}
}

func TestPopTimeout(t *testing.T) {
	l := newTestListener(&fakeQueue{})

	jobID, err := l.pop(context.Background())
	if err != nil {
		t.Fatalf("pop returned error: %v", err)
	}
	if jobID != "" {
		t.Errorf("expected empty job ID on timeout, got %q", jobID)
	}
}

func TestPopPropagatesErrors(t *testing.T) {
	cmd := redis.NewStringSliceCmd(context.Background())
	cmd.SetErr(errors.New("connection refused"))

	l := newTestListener(&fakeQueue{pops: []*redis.StringSliceCmd{cmd}})

	_, err := l.pop(context.Background())
	if err == nil {
		t.Fatal("expected error from failed pop")
	}
}

func TestCancelRunningJob(t *testing.T) {
	l := newTestListener(&fakeQueue{})

	ctx, cancel := context.WithCancel(context.Background())
	l.track("job_1", cancel)

	if got := l.Running(); len(got) != 1 || got[0] != "job_1" {
		t.Fatalf("unexpected running jobs %v", got)
	}

	if !l.Cancel("job_1") {
		t.Fatal("expected Cancel to find the job")
	}
	if ctx.Err() == nil {
		t.Error("expected job context to be cancelled")
	}
	if len(l.Running()) != 0 {
		t.Error("expected job to be removed from tracking")
	}
}

func TestCancelUnknownJob(t *testing.T) {
	l := newTestListener(&fakeQueue{})

	if l.Cancel("nope") {
		t.Error("expected Cancel to report no match for unknown job")
	}
}

// TestListenAgainstRedis exercises the full pop-run-report loop against a
// real Redis instance. It requires a running Redis and is disabled by
// default.
func TestListenAgainstRedis(t *testing.T) {
	if os.Getenv("VT_INTEGRATION_TESTS") == "" {
		t.Skip("integration tests disabled (set VT_INTEGRATION_TESTS=1)")
	}

	cfg := DefaultConfig()
	if url := os.Getenv("VT_REDIS_URL"); url != "" {
		cfg.RedisURL = url
	}
	cfg.JobListName = "jobs_integration_test"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			json.NewEncoder(w).Encode(api.Job{ID: "job_1", Key: "test_key"})
		default:
			json.NewEncoder(w).Encode(api.JobStatus{})
		}
	}))
	defer server.Close()
	cfg.JobsAPIURL = server.URL

	ran := make(chan struct{})
	wf := workflow.New("integration_check").
		Step(func(ctx context.Context, scope *workflow.Scope) (string, error) {
			close(ran)
			return "ran", nil
		})

	runner := NewRunner(cfg, api.NewClient(cfg.JobsAPIURL), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	listener, err := NewListener(ctx, cfg, runner, wf)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer listener.Close()

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		t.Fatalf("invalid redis URL: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	if err := client.RPush(ctx, cfg.JobListName, "job_1").Err(); err != nil {
		t.Fatalf("failed to push job: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- listener.Listen(ctx)
	}()

	select {
	case <-ran:
		cancel()
	case <-ctx.Done():
		t.Fatal("timed out waiting for job to run")
	}

	if err := <-done; err != nil {
		t.Errorf("Listen returned error: %v", err)
	}
}
