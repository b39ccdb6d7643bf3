package ai

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"taskpilot/internal/task"
)

// Draft is the structured task extracted from free text. The caller turns an
// accepted draft into a real task through the normal create endpoint.
type Draft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	Subtasks    []string   `json:"subtasks"`
}

// Parser extracts a task draft from natural language.
type Parser interface {
	ParseTask(ctx context.Context, input string) (Draft, error)
}

// HeuristicParser is the offline fallback: keyword rules only, never errors.
type HeuristicParser struct {
	Now func() time.Time
}

var titlePrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^add a reminder to\s*`),
	regexp.MustCompile(`(?i)^remind me to\s*`),
	regexp.MustCompile(`(?i)^set a reminder to\s*`),
	regexp.MustCompile(`(?i)^please\s*`),
	regexp.MustCompile(`(?i)^i need to\s*`),
	regexp.MustCompile(`(?i)^i should\s*`),
	regexp.MustCompile(`(?i)^have to\s*`),
}

// titleStops cut trailing deadline/priority phrasing off the title.
var titleStops = []string{" by ", " before ", " due ", " deadline", " priority", " urgent", " tomorrow", " today", " tonight", " at "}

func (p *HeuristicParser) ParseTask(_ context.Context, input string) (Draft, error) {
	text := strings.TrimSpace(input)
	d := Draft{
		Title:       cleanTitle(text),
		Description: text,
		Priority:    detectPriority(text),
		Category:    detectCategory(text),
		Deadline:    guessDeadline(text, p.now()),
	}
	if d.Title == "" {
		d.Title = text
	}
	return d, nil
}

func (p *HeuristicParser) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func cleanTitle(text string) string {
	t := text
	for _, re := range titlePrefixes {
		t = re.ReplaceAllString(t, "")
	}
	low := strings.ToLower(t)
	cut := len(t)
	for _, stop := range titleStops {
		if i := strings.Index(low, stop); i >= 0 && i < cut {
			cut = i
		}
	}
	t = t[:cut]
	return strings.Trim(t, " .,-")
}

func detectPriority(text string) string {
	low := strings.ToLower(text)
	switch {
	case containsAny(low, "urgent", "asap", "immediately", "right away"):
		return task.PriorityUrgent
	case containsAny(low, "important", "high priority", "critical"):
		return task.PriorityHigh
	case containsAny(low, "low priority", "whenever", "eventually", "someday"):
		return task.PriorityLow
	default:
		return task.PriorityMedium
	}
}

func detectCategory(text string) string {
	low := strings.ToLower(text)
	switch {
	case containsAny(low, "assignment", "homework", "exam", "lab report", "college", "university", "lecture"):
		return "education"
	case containsAny(low, "meeting", "call", "email", "report", "presentation", "client"):
		return "work"
	case containsAny(low, "buy", "purchase", "order", "groceries", "shopping"):
		return "shopping"
	case containsAny(low, "doctor", "dentist", "gym", "workout", "medicine"):
		return "health"
	default:
		return "general"
	}
}

var (
	atTimeRe  = regexp.MustCompile(`(?i)\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	inHoursRe = regexp.MustCompile(`(?i)\bin\s+(\d{1,3})\s+hours?\b`)
	inDaysRe  = regexp.MustCompile(`(?i)\bin\s+(\d{1,3})\s+days?\b`)
)

// guessDeadline resolves the simple relative phrasings people actually type.
// Anything it cannot place confidently is left nil; the user can always set
// the deadline explicitly on the draft.
func guessDeadline(text string, now time.Time) *time.Time {
	low := strings.ToLower(text)

	if m := inHoursRe.FindStringSubmatch(low); m != nil {
		n, _ := strconv.Atoi(m[1])
		t := now.Add(time.Duration(n) * time.Hour)
		return &t
	}
	if m := inDaysRe.FindStringSubmatch(low); m != nil {
		n, _ := strconv.Atoi(m[1])
		t := endOfDay(now.AddDate(0, 0, n))
		return &t
	}

	var day time.Time
	switch {
	case strings.Contains(low, "tomorrow"):
		day = now.AddDate(0, 0, 1)
	case strings.Contains(low, "tonight"):
		t := time.Date(now.Year(), now.Month(), now.Day(), 20, 0, 0, 0, now.Location())
		day = now
		if m := atTimeRe.FindStringSubmatch(low); m == nil {
			return &t
		}
	case strings.Contains(low, "today"):
		day = now
	default:
		return nil
	}

	hour, minute := 23, 59
	if m := atTimeRe.FindStringSubmatch(low); m != nil {
		h, _ := strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		} else {
			minute = 0
		}
		switch strings.ToLower(m[3]) {
		case "pm":
			if h < 12 {
				h += 12
			}
		case "am":
			if h == 12 {
				h = 0
			}
		}
		hour = h
	}
	t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
	return &t
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 0, 0, t.Location())
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
