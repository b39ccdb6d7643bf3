package task

import (
	"testing"
	"time"
)

func TestParseDeadline(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		want  time.Time
		isNil bool
	}{
		{"rfc3339", "2025-01-10T21:00:00Z", time.Date(2025, 1, 10, 21, 0, 0, 0, time.UTC).Local(), false},
		{"no offset", "2025-01-10T21:00:00", time.Date(2025, 1, 10, 21, 0, 0, 0, time.Local), false},
		{"minutes only", "2025-01-10T21:00", time.Date(2025, 1, 10, 21, 0, 0, 0, time.Local), false},
		{"space separator", "2025-01-10 21:00", time.Date(2025, 1, 10, 21, 0, 0, 0, time.Local), false},
		{"date only", "2025-01-10", time.Date(2025, 1, 10, 0, 0, 0, 0, time.Local), false},
		{"empty means none", "", time.Time{}, true},
		{"spaces mean none", "   ", time.Time{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDeadline(tc.in)
			if err != nil {
				t.Fatalf("ParseDeadline(%q): %v", tc.in, err)
			}
			if tc.isNil {
				if got != nil {
					t.Fatalf("ParseDeadline(%q) = %v, want nil", tc.in, got)
				}
				return
			}
			if got == nil || !got.Equal(tc.want) {
				t.Fatalf("ParseDeadline(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseDeadlineRejectsGarbage(t *testing.T) {
	for _, in := range []string{"tomorrow-ish", "10/01/2025", "not a date"} {
		if _, err := ParseDeadline(in); err == nil {
			t.Fatalf("ParseDeadline(%q) succeeded, want error", in)
		}
	}
}

func TestValidStatusAndPriority(t *testing.T) {
	for _, s := range []string{StatusPending, StatusInProgress, StatusCompleted} {
		if !ValidStatus(s) {
			t.Fatalf("ValidStatus(%q) = false", s)
		}
	}
	if ValidStatus("done") {
		t.Fatal(`ValidStatus("done") = true`)
	}

	for _, p := range []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent} {
		if !ValidPriority(p) {
			t.Fatalf("ValidPriority(%q) = false", p)
		}
	}
	if ValidPriority("critical") {
		t.Fatal(`ValidPriority("critical") = true`)
	}
}
