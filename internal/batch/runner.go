// Package batch provides a generic wave-based task runner: tasks are
// started in fixed-size concurrent waves, every member of a wave settles
// before the next wave starts, and waves are separated by a pacing
// delay. This bounds burst load on upstream services deterministically.
package batch

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"
)

// ErrCancelled rejects tasks that were never started because the shared
// cancel token was set.
var ErrCancelled = errors.New("cancelled")

// CancelToken is a shared cooperative cancellation flag. Tasks already
// running are not preempted; they are expected to check the token at
// their own suspension points and abort early.
type CancelToken struct {
	mu        sync.Mutex
	cancelled bool
}

// NewCancelToken returns an unset token.
func NewCancelToken() *CancelToken { return &CancelToken{} }

// Cancel sets the flag. Idempotent.
func (t *CancelToken) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
}

// Cancelled reports whether the flag is set.
func (t *CancelToken) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Progress reports a runner's local counters. Completed counts
// successful settlements, Failed counts failed ones; tasks rejected by
// cancellation count into neither. Percent is the settled share of
// Total, rounded to two decimals.
type Progress struct {
	Total     int
	Completed int
	Failed    int
	Percent   float64
}

// Task is one unit of asynchronous work. Higher priority runs earlier;
// equal priorities keep submission order. ID correlates failures back to
// the caller.
type Task[T any] struct {
	ID       string
	Priority int
	Run      func(ctx context.Context) (T, error)
}

// Result pairs a task ID with its value.
type Result[T any] struct {
	ID    string
	Value T
}

// TaskError pairs a task ID with its failure.
type TaskError struct {
	ID  string
	Err error
}

func (e TaskError) Error() string { return e.ID + ": " + e.Err.Error() }

// Runner executes submitted tasks in waves of up to maxConcurrency,
// sleeping waveDelay between waves. A Runner is single-use: submit,
// then run once.
type Runner[T any] struct {
	maxConcurrency int
	waveDelay      time.Duration
	token          *CancelToken
	onProgress     func(Progress)

	tasks []Task[T]

	mu        sync.Mutex
	completed int
	failed    int
}

// NewRunner creates a runner. The token may be shared with other runners
// and with the caller's own loops; a nil token means not cancellable.
func NewRunner[T any](maxConcurrency int, waveDelay time.Duration, token *CancelToken) *Runner[T] {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if token == nil {
		token = NewCancelToken()
	}
	return &Runner[T]{
		maxConcurrency: maxConcurrency,
		waveDelay:      waveDelay,
		token:          token,
	}
}

// OnProgress registers a callback invoked once per settled task. The
// callback may be invoked from concurrently settling tasks.
func (r *Runner[T]) OnProgress(fn func(Progress)) { r.onProgress = fn }

// Submit queues a task. Submissions after Run starts are not supported.
func (r *Runner[T]) Submit(t Task[T]) { r.tasks = append(r.tasks, t) }

// Pending returns the number of queued tasks.
func (r *Runner[T]) Pending() int { return len(r.tasks) }

// Run executes the queue in priority order and returns all results and
// errors once the queue is exhausted or cancellation is observed. Tasks
// not yet started when the token is set are rejected with ErrCancelled
// and never executed.
func (r *Runner[T]) Run(ctx context.Context) ([]Result[T], []TaskError) {
	r.mu.Lock()
	r.completed, r.failed = 0, 0
	r.mu.Unlock()

	queue := make([]Task[T], len(r.tasks))
	copy(queue, r.tasks)
	sort.SliceStable(queue, func(i, j int) bool { return queue[i].Priority > queue[j].Priority })

	total := len(queue)
	results := make([]Result[T], 0, total)
	taskErrs := make([]TaskError, 0)
	r.emit(total)

	for start := 0; start < total; start += r.maxConcurrency {
		if r.token.Cancelled() {
			for _, t := range queue[start:] {
				taskErrs = append(taskErrs, TaskError{ID: t.ID, Err: ErrCancelled})
			}
			return results, taskErrs
		}

		end := start + r.maxConcurrency
		if end > total {
			end = total
		}
		wave := queue[start:end]

		waveResults := make([]*Result[T], len(wave))
		waveErrs := make([]*TaskError, len(wave))
		var wg sync.WaitGroup
		for i, t := range wave {
			wg.Add(1)
			go func(i int, t Task[T]) {
				defer wg.Done()
				v, err := t.Run(ctx)
				r.mu.Lock()
				if err != nil {
					r.failed++
					waveErrs[i] = &TaskError{ID: t.ID, Err: err}
				} else {
					r.completed++
					waveResults[i] = &Result[T]{ID: t.ID, Value: v}
				}
				r.mu.Unlock()
				r.emit(total)
			}(i, t)
		}
		wg.Wait() // a wave never proceeds on partial completion

		for i := range wave {
			if waveResults[i] != nil {
				results = append(results, *waveResults[i])
			}
			if waveErrs[i] != nil {
				taskErrs = append(taskErrs, *waveErrs[i])
			}
		}

		if end < total && r.waveDelay > 0 && !r.token.Cancelled() {
			select {
			case <-ctx.Done():
			case <-time.After(r.waveDelay):
			}
		}
	}
	return results, taskErrs
}

// Counts returns the settled counters.
func (r *Runner[T]) Counts() (completed, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed, r.failed
}

func (r *Runner[T]) emit(total int) {
	if r.onProgress == nil {
		return
	}
	r.mu.Lock()
	p := Progress{
		Total:     total,
		Completed: r.completed,
		Failed:    r.failed,
		Percent:   Percent(r.completed+r.failed, total),
	}
	r.mu.Unlock()
	r.onProgress(p)
}

// Percent returns settled/total·100 rounded to two decimals, 0 for an
// empty total.
func Percent(settled, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(settled)/float64(total)*100*100) / 100
}
