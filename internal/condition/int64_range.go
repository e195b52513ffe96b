package condition

import (
	"fmt"
	"math"
	"strconv"
)

// int64Range is the parsed form of an i64-range expression (see
// rangegrammar.go for the shared grammar). A side whose hasMin/hasMax
// flag is false is unbounded.
type int64Range struct {
	hasMin bool
	min    int64
	hasMax bool
	max    int64
}

func (r int64Range) contains(v int64) bool {
	if r.hasMin && v < r.min {
		return false
	}
	if r.hasMax && v > r.max {
		return false
	}
	return true
}

func parseInt64Range(raw string) (int64Range, error) {
	tok := parseRangeTokens(raw)
	switch tok.kind {
	case rangeEmpty:
		return int64Range{}, nil
	case rangePoint:
		v, err := strconv.ParseInt(tok.a, 10, 64)
		if err != nil {
			return int64Range{}, fmt.Errorf("invalid integer %q: %w", tok.a, err)
		}
		return int64Range{hasMin: true, min: v, hasMax: true, max: v}, nil
	case rangeUpperInclusive:
		v, err := strconv.ParseInt(tok.a, 10, 64)
		if err != nil {
			return int64Range{}, err
		}
		return int64Range{hasMax: true, max: v}, nil
	case rangeUpperExclusive:
		v, err := strconv.ParseInt(tok.a, 10, 64)
		if err != nil {
			return int64Range{}, err
		}
		if v == math.MinInt64 {
			return int64Range{}, fmt.Errorf("integer underflow reducing exclusive bound %d", v)
		}
		return int64Range{hasMax: true, max: v - 1}, nil
	case rangeLowerInclusive:
		v, err := strconv.ParseInt(tok.a, 10, 64)
		if err != nil {
			return int64Range{}, err
		}
		return int64Range{hasMin: true, min: v}, nil
	case rangeLowerExclusive:
		v, err := strconv.ParseInt(tok.a, 10, 64)
		if err != nil {
			return int64Range{}, err
		}
		if v == math.MaxInt64 {
			return int64Range{}, fmt.Errorf("integer overflow raising exclusive bound %d", v)
		}
		return int64Range{hasMin: true, min: v + 1}, nil
	case rangeClosed:
		a, err := strconv.ParseInt(tok.a, 10, 64)
		if err != nil {
			return int64Range{}, err
		}
		b, err := strconv.ParseInt(tok.b, 10, 64)
		if err != nil {
			return int64Range{}, err
		}
		if a > b {
			a, b = b, a
		}
		return int64Range{hasMin: true, min: a, hasMax: true, max: b}, nil
	case rangeHalfOpen:
		a, err := strconv.ParseInt(tok.a, 10, 64)
		if err != nil {
			return int64Range{}, err
		}
		b, err := strconv.ParseInt(tok.b, 10, 64)
		if err != nil {
			return int64Range{}, err
		}
		b--
		if a > b {
			a, b = b, a
		}
		return int64Range{hasMin: true, min: a, hasMax: true, max: b}, nil
	default:
		return int64Range{}, fmt.Errorf("unreachable range kind %d", tok.kind)
	}
}

type int64RangeMatcherT struct {
	r       int64Range
	extract func(MatchInput) int64
}

func (m int64RangeMatcherT) Matches(in MatchInput) bool {
	return m.r.contains(m.extract(in))
}

func newInt64RangeMatcher(value string) (Matcher, error) {
	r, err := parseInt64Range(value)
	if err != nil {
		// A range that fails to parse surfaces a validation error at
		// config-load time but is treated as unbounded at match time.
		return int64RangeMatcherT{r: int64Range{}, extract: videoTotalLength}, err
	}
	return int64RangeMatcherT{r: r, extract: videoTotalLength}, nil
}

func videoTotalLength(in MatchInput) int64 { return in.VideoTotalLength }
