package condition

import (
	"fmt"
	"strings"
	"time"
)

// datetimeLayouts are tried in order; all are evaluated in local time per
// the condition language spec.
var datetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseDatetimeToken(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", raw)
}

type datetimeRange struct {
	hasMin bool
	min    time.Time
	hasMax bool
	max    time.Time
}

func (r datetimeRange) contains(t time.Time) bool {
	if r.hasMin && t.Before(r.min) {
		return false
	}
	if r.hasMax && t.After(r.max) {
		return false
	}
	return true
}

func parseDatetimeRange(raw string) (datetimeRange, error) {
	tok := parseRangeTokens(raw)
	switch tok.kind {
	case rangeEmpty:
		return datetimeRange{}, nil
	case rangePoint:
		v, err := parseDatetimeToken(tok.a)
		if err != nil {
			return datetimeRange{}, err
		}
		return datetimeRange{hasMin: true, min: v, hasMax: true, max: v}, nil
	case rangeUpperInclusive:
		v, err := parseDatetimeToken(tok.a)
		if err != nil {
			return datetimeRange{}, err
		}
		return datetimeRange{hasMax: true, max: v}, nil
	case rangeUpperExclusive:
		v, err := parseDatetimeToken(tok.a)
		if err != nil {
			return datetimeRange{}, err
		}
		return datetimeRange{hasMax: true, max: v.Add(-time.Second)}, nil
	case rangeLowerInclusive:
		v, err := parseDatetimeToken(tok.a)
		if err != nil {
			return datetimeRange{}, err
		}
		return datetimeRange{hasMin: true, min: v}, nil
	case rangeLowerExclusive:
		v, err := parseDatetimeToken(tok.a)
		if err != nil {
			return datetimeRange{}, err
		}
		return datetimeRange{hasMin: true, min: v.Add(time.Second)}, nil
	case rangeClosed:
		a, err := parseDatetimeToken(tok.a)
		if err != nil {
			return datetimeRange{}, err
		}
		b, err := parseDatetimeToken(tok.b)
		if err != nil {
			return datetimeRange{}, err
		}
		if a.After(b) {
			a, b = b, a
		}
		return datetimeRange{hasMin: true, min: a, hasMax: true, max: b}, nil
	case rangeHalfOpen:
		a, err := parseDatetimeToken(tok.a)
		if err != nil {
			return datetimeRange{}, err
		}
		b, err := parseDatetimeToken(tok.b)
		if err != nil {
			return datetimeRange{}, err
		}
		b = b.Add(-time.Second)
		if a.After(b) {
			a, b = b, a
		}
		return datetimeRange{hasMin: true, min: a, hasMax: true, max: b}, nil
	default:
		return datetimeRange{}, fmt.Errorf("unreachable range kind %d", tok.kind)
	}
}

type datetimeRangeMatcherT struct {
	r datetimeRange
}

func (m datetimeRangeMatcherT) Matches(in MatchInput) bool {
	return m.r.contains(in.StartAt.Local())
}

func newDatetimeRangeMatcher(value string) (Matcher, error) {
	r, err := parseDatetimeRange(value)
	if err != nil {
		return datetimeRangeMatcherT{r: datetimeRange{}}, err
	}
	return datetimeRangeMatcherT{r: r}, nil
}
