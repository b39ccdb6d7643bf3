package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Workers   int
	QueueSize int
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	return c
}

// ScheduleRequest carries everything needed to arm one reminder.
type ScheduleRequest struct {
	TaskID   uint64
	Title    string
	Deadline *time.Time
	Email    string
	WhatsApp string
}

type JobStatus struct {
	TaskID uint64    `json:"task_id"`
	Title  string    `json:"title"`
	FireAt time.Time `json:"fire_at"`
}

type Status struct {
	Running      bool        `json:"running"`
	PendingCount int         `json:"pending_count"`
	Jobs         []JobStatus `json:"jobs"`
}

// Scheduler arms one reminder per task, firing 30 minutes before the
// deadline. Scheduling is advisory: bad input is logged and absorbed, never
// surfaced to the caller. Fired jobs are handed to a bounded queue drained
// by a worker pool so transport calls stay off the request path.
type Scheduler struct {
	cfg        Config
	log        zerolog.Logger
	dispatcher *Dispatcher
	store      *Store
	queue      chan Job

	now func() time.Time

	mu        sync.Mutex
	running   bool
	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup
}

func NewScheduler(cfg Config, d *Dispatcher, log zerolog.Logger) *Scheduler {
	cfg = cfg.withDefaults()
	s := &Scheduler{
		cfg:        cfg,
		log:        log,
		dispatcher: d,
		queue:      make(chan Job, cfg.QueueSize),
		now:        time.Now,
	}
	s.store = NewStore(s.enqueue)
	return s
}

// Start spins up the dispatch workers. Calling Start twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.runCtx, s.runCancel = context.WithCancel(context.Background())
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(s.runCtx)
	}
	s.running = true
	s.log.Info().Int("workers", s.cfg.Workers).Msg("reminder scheduler started")
}

// Shutdown cancels all pending timers and waits for in-flight dispatches to
// finish or ctx to expire. Pending jobs are lost; the startup reconcile sweep
// re-arms them from the tasks table on the next boot.
func (s *Scheduler) Shutdown(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.runCancel
	s.mu.Unlock()

	s.store.StopAll()
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn().Msg("shutdown timed out waiting for dispatch workers")
	}
	s.log.Info().Msg("reminder scheduler stopped")
}

// Schedule arms (or replaces) the reminder for one task. Missing task ID,
// missing deadline, or a fire time already in the past all degrade to a
// logged no-op: the caller cannot and need not distinguish them from a
// scheduling-backend failure, the outcome is simply "no reminder fires".
func (s *Scheduler) Schedule(req ScheduleRequest) {
	if req.TaskID == 0 {
		s.log.Warn().Msg("schedule skipped: missing task id")
		return
	}
	if req.Deadline == nil {
		s.log.Warn().Uint64("task_id", req.TaskID).Msg("schedule skipped: no deadline")
		return
	}

	fireAt := FireTime(*req.Deadline)
	if !Schedulable(fireAt, s.now()) {
		s.log.Warn().
			Uint64("task_id", req.TaskID).
			Time("fire_at", fireAt).
			Msg("schedule skipped: reminder window already passed")
		return
	}

	s.store.Put(Job{
		TaskID:   req.TaskID,
		Title:    req.Title,
		Deadline: *req.Deadline,
		FireAt:   fireAt,
		Email:    req.Email,
		WhatsApp: req.WhatsApp,
	})
	s.log.Debug().
		Uint64("task_id", req.TaskID).
		Time("fire_at", fireAt).
		Msg("reminder scheduled")
}

// Cancel drops the pending reminder for taskID, if any. Used when a task is
// deleted, completed, or its deadline cleared.
func (s *Scheduler) Cancel(taskID uint64) {
	if s.store.Remove(taskID) {
		s.log.Debug().Uint64("task_id", taskID).Msg("reminder cancelled")
	}
}

// Status is the observability hook surfaced by the health endpoint.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	jobs := s.store.List()
	infos := make([]JobStatus, 0, len(jobs))
	for _, j := range jobs {
		infos = append(infos, JobStatus{TaskID: j.TaskID, Title: j.Title, FireAt: j.FireAt})
	}
	return Status{Running: running, PendingCount: len(jobs), Jobs: infos}
}

// enqueue hands a fired job to the worker pool. The store has already
// removed the entry, so a full queue means the reminder is dropped, not
// re-armed.
func (s *Scheduler) enqueue(job Job) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		s.log.Warn().Uint64("task_id", job.TaskID).Msg("job fired while scheduler stopped; dropped")
		return
	}

	select {
	case s.queue <- job:
	default:
		s.log.Warn().Uint64("task_id", job.TaskID).Msg("dispatch queue full; reminder dropped")
	}
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			// Dispatch deliberately ignores ctx cancellation: an in-flight
			// dispatch runs to completion (bounded by the dispatcher timeout).
			s.dispatcher.Dispatch(context.Background(), job)
		}
	}
}
