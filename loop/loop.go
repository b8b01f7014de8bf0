package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrQueueFull is returned when a tick's task capacity is exhausted.
	ErrQueueFull = errors.New("loop: task queue full")

	// ErrStopped is returned when posting to a stopped loop.
	ErrStopped = errors.New("loop: stopped")
)

// maxDrainRounds bounds Drain when tasks keep posting new tasks.
const maxDrainRounds = 10000

// runningKey marks the context handed to tasks with the loop running them.
type runningKey struct{}

// Config configures the loop.
type Config struct {
	TickRate        time.Duration // Fixed tick rate (default 10ms)
	MaxTasksPerTick int           // Task queue capacity (default 1000)
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for task failures.
func WithLogger(l *slog.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// Loop runs posted tasks in deterministic batches, one batch at a time.
type Loop struct {
	tickRate time.Duration
	ticker   *time.Ticker
	tickNum  uint64

	// Task batching
	batch       []TaskWithMeta
	batchMu     sync.Mutex
	sequenceNum uint64
	closed      bool

	// runMu keeps batches from overlapping between the tick goroutine and
	// RunPending/Drain callers.
	runMu sync.Mutex

	// Control
	tickCtx    context.Context
	tickCancel context.CancelFunc
	stopped    chan struct{}
	started    bool

	logger *slog.Logger
}

// New creates a loop. It does not tick until Start is called.
func New(cfg Config, opts ...Option) *Loop {
	if cfg.MaxTasksPerTick <= 0 {
		cfg.MaxTasksPerTick = 1000
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 10 * time.Millisecond
	}

	l := &Loop{
		tickRate: cfg.TickRate,
		batch:    make([]TaskWithMeta, 0, cfg.MaxTasksPerTick),
		stopped:  make(chan struct{}),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start begins tick-based execution.
func (l *Loop) Start(ctx context.Context) error {
	l.batchMu.Lock()
	defer l.batchMu.Unlock()

	if l.closed {
		return ErrStopped
	}
	if l.started {
		return nil
	}
	l.started = true

	l.tickCtx, l.tickCancel = context.WithCancel(ctx)
	l.ticker = time.NewTicker(l.tickRate)

	go l.tickLoop()

	return nil
}

// Stop cancels the tick loop and waits for the current batch to finish.
// Tasks still queued are discarded. Stop before Start only closes the loop.
//
// Stop must not be called from a task: it would wait for the batch that is
// calling it. A task that wants to end the loop should start Stop on its own
// goroutine (go l.Stop()).
func (l *Loop) Stop() error {
	l.batchMu.Lock()
	if l.closed {
		l.batchMu.Unlock()
		return nil
	}
	l.closed = true
	started := l.started
	l.batch = l.batch[:0]
	l.batchMu.Unlock()

	if !started {
		return nil
	}

	l.tickCancel()
	l.ticker.Stop()

	// Wait for tick loop to exit
	<-l.stopped
	return nil
}

// tickLoop is the main tick execution loop
func (l *Loop) tickLoop() {
	defer close(l.stopped)

	for {
		select {
		case <-l.tickCtx.Done():
			return
		case <-l.ticker.C:
			l.RunPending(l.tickCtx)

			l.batchMu.Lock()
			l.tickNum++
			l.batchMu.Unlock()
		}
	}
}

// Post queues a task for the next batch (thread-safe).
func (l *Loop) Post(task Task) error {
	return l.PostWithPriority(task, 0)
}

// PostWithPriority queues a task with priority. Higher runs first.
func (l *Loop) PostWithPriority(task Task, priority int) error {
	if task == nil {
		return errors.New("loop: nil task")
	}

	l.batchMu.Lock()
	defer l.batchMu.Unlock()

	if l.closed {
		return ErrStopped
	}
	if len(l.batch) >= cap(l.batch) {
		return ErrQueueFull
	}

	l.batch = append(l.batch, TaskWithMeta{
		Task:        task,
		SequenceNum: l.sequenceNum,
		Priority:    priority,
	})
	l.sequenceNum++

	return nil
}

// After posts task once d has elapsed. A post that fails (full or stopped)
// is logged and dropped.
func (l *Loop) After(d time.Duration, task Task) *time.Timer {
	return time.AfterFunc(d, func() {
		if err := l.Post(task); err != nil {
			l.logger.Warn("deferred task dropped", "delay", d, "error", err)
		}
	})
}

// RunPending runs the current batch on the caller's goroutine and returns
// the number of tasks run. Tasks posted while the batch runs wait for the
// next batch.
//
// Called from a task of this loop with the task's context, RunPending logs a
// warning and runs nothing, since the batch in progress already holds the
// loop.
func (l *Loop) RunPending(ctx context.Context) int {
	if running, _ := ctx.Value(runningKey{}).(*Loop); running == l {
		l.logger.Warn("RunPending called from a running task; ignored")
		return 0
	}

	l.runMu.Lock()
	defer l.runMu.Unlock()

	// Phase 1: Collect tasks atomically
	tasks := l.collectTasks()

	// Phase 2: Sort for deterministic order
	sortTasks(tasks)

	// Phase 3: Run
	ctx = context.WithValue(ctx, runningKey{}, l)
	for _, t := range tasks {
		l.runTask(ctx, t)
	}
	return len(tasks)
}

// Drain runs batches until no task is pending and returns the total run.
// Like RunPending, it runs nothing when called from a task of this loop.
func (l *Loop) Drain(ctx context.Context) int {
	total := 0
	for round := 0; round < maxDrainRounds; round++ {
		if ctx.Err() != nil {
			return total
		}
		n := l.RunPending(ctx)
		if n == 0 {
			return total
		}
		total += n
	}
	l.logger.Warn("drain stopped with tasks pending", "rounds", maxDrainRounds, "pending", l.Pending())
	return total
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.batchMu.Lock()
	defer l.batchMu.Unlock()
	return len(l.batch)
}

// TickNumber returns the current tick count
func (l *Loop) TickNumber() uint64 {
	l.batchMu.Lock()
	defer l.batchMu.Unlock()
	return l.tickNum
}

// collectTasks atomically retrieves and clears the batch
func (l *Loop) collectTasks() []TaskWithMeta {
	l.batchMu.Lock()
	defer l.batchMu.Unlock()

	tasks := l.batch
	l.batch = make([]TaskWithMeta, 0, cap(l.batch))

	return tasks
}

// runTask runs one task with panic recovery so a failing task cannot stop
// the loop.
func (l *Loop) runTask(ctx context.Context, t TaskWithMeta) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", "seq", t.SequenceNum, "panic", fmt.Sprint(r))
		}
	}()
	if err := t.Task(ctx); err != nil {
		l.logger.Error("task failed", "seq", t.SequenceNum, "priority", t.Priority, "error", err)
	}
}
