package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestScheduler(t *testing.T, email *fakeEmail, wa *fakeWhatsApp) *Scheduler {
	t.Helper()
	d := &Dispatcher{Email: email, WhatsApp: wa, Timeout: time.Second, Log: zerolog.Nop()}
	s := NewScheduler(Config{Workers: 2, QueueSize: 16}, d, zerolog.Nop())
	s.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s
}

// deadlineIn returns a deadline whose reminder fires after d.
func deadlineIn(d time.Duration) *time.Time {
	t := time.Now().Add(Lead + d)
	return &t
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	dl := time.Now().Add(timeout)
	for time.Now().Before(dl) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestScheduleInvalidInputIsAbsorbed(t *testing.T) {
	s := newTestScheduler(t, &fakeEmail{}, &fakeWhatsApp{})

	// missing task id
	s.Schedule(ScheduleRequest{Title: "no id", Deadline: deadlineIn(time.Hour)})
	// missing deadline
	s.Schedule(ScheduleRequest{TaskID: 1, Title: "no deadline"})
	// deadline already past the reminder window
	past := time.Now().Add(-time.Minute)
	s.Schedule(ScheduleRequest{TaskID: 2, Title: "too late", Deadline: &past})
	// deadline inside the 30-minute window
	soon := time.Now().Add(10 * time.Minute)
	s.Schedule(ScheduleRequest{TaskID: 3, Title: "inside window", Deadline: &soon})

	if st := s.Status(); st.PendingCount != 0 {
		t.Fatalf("PendingCount = %d, want 0", st.PendingCount)
	}
}

func TestCancelAbsentTaskIsNoop(t *testing.T) {
	s := newTestScheduler(t, &fakeEmail{}, &fakeWhatsApp{})

	s.Schedule(ScheduleRequest{TaskID: 1, Title: "keep me", Deadline: deadlineIn(time.Hour)})
	s.Cancel(999)

	st := s.Status()
	if st.PendingCount != 1 {
		t.Fatalf("PendingCount = %d, want 1", st.PendingCount)
	}
	if st.Jobs[0].TaskID != 1 {
		t.Fatalf("surviving job = %+v", st.Jobs[0])
	}
}

func TestScheduleReplaceKeepsOneJob(t *testing.T) {
	s := newTestScheduler(t, &fakeEmail{}, &fakeWhatsApp{})

	d1 := deadlineIn(time.Hour)
	d2 := deadlineIn(2 * time.Hour)
	s.Schedule(ScheduleRequest{TaskID: 5, Title: "v1", Deadline: d1})
	s.Schedule(ScheduleRequest{TaskID: 5, Title: "v2", Deadline: d2})

	st := s.Status()
	if st.PendingCount != 1 {
		t.Fatalf("PendingCount = %d, want 1", st.PendingCount)
	}
	if got, want := st.Jobs[0].FireAt, FireTime(*d2); !got.Equal(want) {
		t.Fatalf("FireAt = %v, want %v (derived from second deadline)", got, want)
	}
	if st.Jobs[0].Title != "v2" {
		t.Fatalf("Title = %q, want v2", st.Jobs[0].Title)
	}
}

func TestFireThenVanishDespiteChannelFailure(t *testing.T) {
	email := &fakeEmail{err: errors.New("smtp down")}
	wa := &fakeWhatsApp{}
	s := newTestScheduler(t, email, wa)

	s.Schedule(ScheduleRequest{
		TaskID:   9,
		Title:    "flight check-in",
		Deadline: deadlineIn(60 * time.Millisecond),
		Email:    "user@example.com",
		WhatsApp: "+14155550123",
	})
	if st := s.Status(); st.PendingCount != 1 {
		t.Fatalf("PendingCount = %d, want 1 before fire", st.PendingCount)
	}

	waitFor(t, 2*time.Second, func() bool {
		return email.count() == 1 && wa.count() == 1
	})
	waitFor(t, time.Second, func() bool {
		return s.Status().PendingCount == 0
	})

	// No double fire.
	time.Sleep(150 * time.Millisecond)
	if email.count() != 1 || wa.count() != 1 {
		t.Fatalf("calls = email %d / whatsapp %d, want 1/1", email.count(), wa.count())
	}
}

func TestRescheduleFiresOnlyAtNewTime(t *testing.T) {
	email := &fakeEmail{}
	s := newTestScheduler(t, email, &fakeWhatsApp{})

	s.Schedule(ScheduleRequest{
		TaskID:   2,
		Title:    "old slot",
		Deadline: deadlineIn(60 * time.Millisecond),
		Email:    "user@example.com",
	})
	s.Schedule(ScheduleRequest{
		TaskID:   2,
		Title:    "new slot",
		Deadline: deadlineIn(400 * time.Millisecond),
		Email:    "user@example.com",
	})

	// Past the original fire time: nothing must have fired.
	time.Sleep(200 * time.Millisecond)
	if n := email.count(); n != 0 {
		t.Fatalf("job fired at replaced time (calls=%d)", n)
	}

	waitFor(t, 2*time.Second, func() bool { return email.count() == 1 })
	if !strings.Contains(email.calls[0].subject, "new slot") {
		t.Fatalf("fired job carries stale payload: %q", email.calls[0].subject)
	}
	if st := s.Status(); st.PendingCount != 0 {
		t.Fatalf("PendingCount = %d, want 0 after fire", st.PendingCount)
	}
}

func TestStatusLifecycle(t *testing.T) {
	d := &Dispatcher{Email: &fakeEmail{}, WhatsApp: &fakeWhatsApp{}, Log: zerolog.Nop()}
	s := NewScheduler(Config{}, d, zerolog.Nop())

	if s.Status().Running {
		t.Fatal("Running before Start")
	}
	s.Start()
	if !s.Status().Running {
		t.Fatal("not Running after Start")
	}

	s.Schedule(ScheduleRequest{TaskID: 1, Title: "t", Deadline: deadlineIn(time.Hour)})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Shutdown(ctx)

	st := s.Status()
	if st.Running {
		t.Fatal("Running after Shutdown")
	}
	if st.PendingCount != 0 {
		t.Fatalf("PendingCount = %d after Shutdown, want 0", st.PendingCount)
	}
}
