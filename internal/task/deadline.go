package task

import (
	"errors"
	"strings"
	"time"
)

// deadlineLayouts are accepted on the wire, most specific first.
var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var ErrBadDeadline = errors.New("unparseable deadline")

// ParseDeadline parses a client-supplied deadline string. The result carries
// server-local wall-clock semantics: an explicit offset is converted to local
// time, a missing offset is taken as local already. Empty input means "no
// deadline" and returns (nil, nil).
func ParseDeadline(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	for _, layout := range deadlineLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339 {
			t, err = time.Parse(layout, value)
		} else {
			t, err = time.ParseInLocation(layout, value, time.Local)
		}
		if err == nil {
			t = t.Local()
			return &t, nil
		}
	}
	return nil, ErrBadDeadline
}
