package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/virtool/integration-ctl/internal/logging"
	"github.com/virtool/integration-ctl/workflow"
)

// popTimeout bounds each blocking pop so the listener notices a
// cancelled context promptly.
const popTimeout = 5 * time.Second

// RedisQueue is the subset of the Redis client the listener needs.
type RedisQueue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Listener pops job IDs from a Redis list and runs the configured
// workflow for each. Cancellation notices published on the cancel
// channel abort the matching job's execution.
type Listener struct {
	cfg      Config
	queue    RedisQueue
	runner   *Runner
	workflow *workflow.Workflow

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewListener connects to Redis and creates a listener that runs wf for
// every job popped from the configured job list.
func NewListener(ctx context.Context, cfg Config, runner *Runner, wf *workflow.Workflow) (*Listener, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewListenerWith(cfg, client, runner, wf), nil
}

// NewListenerWith creates a listener using an existing Redis connection.
func NewListenerWith(cfg Config, queue RedisQueue, runner *Runner, wf *workflow.Workflow) *Listener {
	return &Listener{
		cfg:      cfg,
		queue:    queue,
		runner:   runner,
		workflow: wf,
		running:  make(map[string]context.CancelFunc),
	}
}

// Listen blocks, popping job IDs and running them until ctx is
// cancelled. It waits for in-flight jobs to finish before returning.
func (l *Listener) Listen(ctx context.Context) error {
	logging.Info(
		"listening for jobs",
		"list", l.cfg.JobListName,
		"cancel_channel", l.cfg.CancelChannel,
		"workflow", l.workflow.Name,
	)

	cancelSub := l.queue.Subscribe(ctx, l.cfg.CancelChannel)
	defer cancelSub.Close()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.watchCancellations(ctx, cancelSub)
	}()

	for {
		if err := ctx.Err(); err != nil {
			break
		}

		jobID, err := l.pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return fmt.Errorf("failed to pop from job list: %w", err)
		}
		if jobID == "" {
			continue
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.runJob(ctx, jobID)
		}()
	}

	l.wg.Wait()
	return nil
}

// pop blocks on the job list for up to popTimeout. An empty string means
// the pop timed out without a job.
func (l *Listener) pop(ctx context.Context) (string, error) {
	result, err := l.queue.BLPop(ctx, popTimeout, l.cfg.JobListName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}

	// BLPop returns [key, value].
	if len(result) < 2 {
		return "", nil
	}
	return result[1], nil
}

func (l *Listener) runJob(ctx context.Context, jobID string) {
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.track(jobID, cancel)
	defer l.untrack(jobID)

	if _, err := l.runner.RunJob(jobCtx, jobID, l.workflow); err != nil {
		if jobCtx.Err() != nil {
			logging.Info("job cancelled", "job", jobID)
			return
		}
		logging.Error("job failed", "job", jobID, "error", err)
	}
}

// watchCancellations cancels the context of any running job whose ID is
// published on the cancel channel.
func (l *Listener) watchCancellations(ctx context.Context, sub *redis.PubSub) {
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if l.Cancel(msg.Payload) {
				logging.Info("received cancellation", "job", msg.Payload)
			}
		}
	}
}

// Cancel aborts the running job with the given ID. It reports whether a
// matching job was found.
func (l *Listener) Cancel(jobID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cancel, ok := l.running[jobID]
	if !ok {
		return false
	}

	cancel()
	delete(l.running, jobID)
	return true
}

// Running returns the IDs of jobs currently executing.
func (l *Listener) Running() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]string, 0, len(l.running))
	for id := range l.running {
		ids = append(ids, id)
	}
	return ids
}

func (l *Listener) track(jobID string, cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running[jobID] = cancel
}

func (l *Listener) untrack(jobID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.running, jobID)
}

// Close releases the Redis connection.
func (l *Listener) Close() error {
	return l.queue.Close()
}
