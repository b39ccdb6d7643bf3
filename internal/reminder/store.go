package reminder

import (
	"sort"
	"sync"
	"time"
)

// Job is a scheduled single-shot reminder tied to one task.
type Job struct {
	TaskID   uint64
	Title    string
	Deadline time.Time
	FireAt   time.Time
	Email    string
	WhatsApp string
}

type entry struct {
	job   Job
	timer *time.Timer
	ver   uint64
}

// Store holds at most one pending timer per task ID.
//
// Put replaces any existing entry for the same task (cancelling its timer),
// Remove is a no-op when absent. A fired entry removes itself before the
// fire callback runs, so put/remove/fire never observe each other half-done.
type Store struct {
	mu      sync.Mutex
	entries map[uint64]*entry
	vers    map[uint64]uint64
	fire    func(Job)
}

func NewStore(fire func(Job)) *Store {
	return &Store{
		entries: map[uint64]*entry{},
		vers:    map[uint64]uint64{},
		fire:    fire,
	}
}

// Put arms a timer for job.FireAt, replacing any live entry for the same task.
func (s *Store) Put(job Job) {
	s.mu.Lock()
	if old, ok := s.entries[job.TaskID]; ok {
		old.timer.Stop()
		delete(s.entries, job.TaskID)
	}

	// Version guard: a timer callback that lost the race against a
	// replace or remove must not fire a stale job.
	ver := s.vers[job.TaskID] + 1
	s.vers[job.TaskID] = ver

	delay := time.Until(job.FireAt)
	if delay < 0 {
		delay = 0
	}
	e := &entry{job: job, ver: ver}
	e.timer = time.AfterFunc(delay, func() {
		s.fired(job.TaskID, ver)
	})
	s.entries[job.TaskID] = e
	s.mu.Unlock()
}

// Remove cancels and deletes the entry for taskID if present.
func (s *Store) Remove(taskID uint64) bool {
	s.mu.Lock()
	e, ok := s.entries[taskID]
	if ok {
		e.timer.Stop()
		delete(s.entries, taskID)
		s.vers[taskID]++
	}
	s.mu.Unlock()
	return ok
}

func (s *Store) fired(taskID, ver uint64) {
	s.mu.Lock()
	e, ok := s.entries[taskID]
	if !ok || e.ver != ver {
		s.mu.Unlock()
		return
	}
	// Entry is gone before dispatch starts: a cancel arriving mid-dispatch
	// is a no-op, and the job can never double-fire.
	delete(s.entries, taskID)
	job := e.job
	s.mu.Unlock()

	if s.fire != nil {
		s.fire(job)
	}
}

func (s *Store) Len() int {
	s.mu.Lock()
	n := len(s.entries)
	s.mu.Unlock()
	return n
}

// List returns the pending jobs ordered by fire time.
func (s *Store) List() []Job {
	s.mu.Lock()
	out := make([]Job, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.job)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

// StopAll cancels every pending timer. Used on shutdown.
func (s *Store) StopAll() {
	s.mu.Lock()
	for id, e := range s.entries {
		e.timer.Stop()
		s.vers[id]++
		delete(s.entries, id)
	}
	s.mu.Unlock()
}
