package reminder

import (
	"sync"
	"testing"
	"time"
)

func collectFires() (*Store, chan Job) {
	fired := make(chan Job, 16)
	s := NewStore(func(j Job) { fired <- j })
	return s, fired
}

func TestStorePutReplaces(t *testing.T) {
	s, fired := collectFires()

	d1 := time.Now().Add(40 * time.Millisecond)
	d2 := time.Now().Add(150 * time.Millisecond)
	s.Put(Job{TaskID: 1, Title: "first", FireAt: d1, Deadline: d1})
	s.Put(Job{TaskID: 1, Title: "second", FireAt: d2, Deadline: d2})

	if n := s.Len(); n != 1 {
		t.Fatalf("Len = %d, want 1", n)
	}

	// The replaced timer must never fire.
	select {
	case j := <-fired:
		if j.Title == "first" {
			t.Fatalf("stale job fired: %+v", j)
		}
		if j.Title != "second" {
			t.Fatalf("unexpected job fired: %+v", j)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("replacement job never fired")
	}

	select {
	case j := <-fired:
		t.Fatalf("job fired twice: %+v", j)
	case <-time.After(100 * time.Millisecond):
	}
	if n := s.Len(); n != 0 {
		t.Fatalf("Len after fire = %d, want 0", n)
	}
}

func TestStoreRemoveAbsentIsNoop(t *testing.T) {
	s, _ := collectFires()

	s.Put(Job{TaskID: 7, FireAt: time.Now().Add(time.Hour)})
	if s.Remove(999) {
		t.Fatal("Remove of absent id reported true")
	}
	if n := s.Len(); n != 1 {
		t.Fatalf("Len = %d, want 1 (other jobs unaffected)", n)
	}
}

func TestStoreRemoveCancelsTimer(t *testing.T) {
	s, fired := collectFires()

	s.Put(Job{TaskID: 3, FireAt: time.Now().Add(50 * time.Millisecond)})
	if !s.Remove(3) {
		t.Fatal("Remove reported false for live entry")
	}

	select {
	case j := <-fired:
		t.Fatalf("cancelled job fired: %+v", j)
	case <-time.After(200 * time.Millisecond):
	}
	if n := s.Len(); n != 0 {
		t.Fatalf("Len = %d, want 0", n)
	}
}

func TestStoreListOrdersByFireTime(t *testing.T) {
	s, _ := collectFires()

	base := time.Now().Add(time.Hour)
	s.Put(Job{TaskID: 1, FireAt: base.Add(2 * time.Minute)})
	s.Put(Job{TaskID: 2, FireAt: base})
	s.Put(Job{TaskID: 3, FireAt: base.Add(time.Minute)})

	jobs := s.List()
	if len(jobs) != 3 {
		t.Fatalf("List len = %d, want 3", len(jobs))
	}
	if jobs[0].TaskID != 2 || jobs[1].TaskID != 3 || jobs[2].TaskID != 1 {
		t.Fatalf("unexpected order: %+v", jobs)
	}
}

func TestStoreStopAll(t *testing.T) {
	s, fired := collectFires()

	for i := uint64(1); i <= 5; i++ {
		s.Put(Job{TaskID: i, FireAt: time.Now().Add(30 * time.Millisecond)})
	}
	s.StopAll()

	if n := s.Len(); n != 0 {
		t.Fatalf("Len = %d, want 0", n)
	}
	select {
	case j := <-fired:
		t.Fatalf("job fired after StopAll: %+v", j)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestStoreConcurrentPutRemove(t *testing.T) {
	s, _ := collectFires()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.Put(Job{TaskID: 42, FireAt: time.Now().Add(time.Hour)})
				s.Remove(42)
			}
		}()
	}
	wg.Wait()

	// Last-write-wins: the table ends with either zero entries or the one
	// final Put that lost its Remove; never two live timers.
	if n := s.Len(); n > 1 {
		t.Fatalf("Len = %d after concurrent churn, want <= 1", n)
	}
}
