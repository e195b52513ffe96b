// Package condition implements the declarative predicate language used by
// the placement engine to route newly ingested videos to a storage backend
// and key prefix. A condition is a conjunction of independently validated
// matchers keyed by a fixed set of attribute names; matching dispatches
// through a single key->constructor table rather than reflecting over
// struct fields, so adding a matcher kind never requires touching the
// evaluation path.
package condition

import (
	"fmt"
	"time"
)

// MatchInput is the flattened set of program+video attributes a condition
// can match against. Catalog code is responsible for projecting a
// (*catalog.Program, *catalog.Video) pair into one of these; this package
// has no dependency on the catalog model so it can be unit tested in
// isolation and reused by config validation at load time.
type MatchInput struct {
	Title            string
	Description      string
	ServiceName      string
	ChannelName      string
	ChannelType      string // one of GR, BS, CS, Sky (any case)
	NetworkID        int32
	ServiceID        int32
	EventID          int32
	StartAt          time.Time
	VideoMimeType    string
	VideoProviderID  string
	VideoTotalLength int64
}

// Matcher is the capability shared by every matcher kind.
type Matcher interface {
	// Matches reports whether in satisfies this matcher.
	Matches(in MatchInput) bool
}

// keySpec binds an attribute name to a constructor that turns the raw
// string value from config into a validated Matcher; the built matcher
// carries the extractor that pulls the value to compare out of a
// MatchInput.
type keySpec struct {
	build func(value string) (Matcher, error)
	// rangeKey marks start_at/video_total_length: a parse failure here is
	// reported as a validation Warning rather than rejecting the whole
	// condition, and the matcher built falls back to an unbounded range.
	rangeKey bool
}

var keyTable map[string]keySpec

func init() {
	keyTable = map[string]keySpec{
		"title":             {build: stringOrRegexBuilder(func(in MatchInput) string { return in.Title })},
		"description":       {build: stringOrRegexBuilder(func(in MatchInput) string { return in.Description })},
		"service_name":      {build: stringOrRegexBuilder(func(in MatchInput) string { return in.ServiceName })},
		"channel_name":      {build: stringOrRegexBuilder(func(in MatchInput) string { return in.ChannelName })},
		"video_mime_type":   {build: stringOrRegexBuilder(func(in MatchInput) string { return in.VideoMimeType })},
		"video_provider_id": {build: stringOrRegexBuilder(func(in MatchInput) string { return in.VideoProviderID })},

		"network_id": {build: intOrRegexBuilder(func(in MatchInput) int32 { return in.NetworkID })},
		"service_id": {build: intOrRegexBuilder(func(in MatchInput) int32 { return in.ServiceID })},
		"event_id":   {build: intOrRegexBuilder(func(in MatchInput) int32 { return in.EventID })},

		"channel_type": {build: newChannelTypeMatcher},

		"start_at": {build: newDatetimeRangeMatcher, rangeKey: true},

		"video_total_length": {build: newInt64RangeMatcher, rangeKey: true},
	}
}

// Condition is a conjunction of matchers over the keys present in the
// source map. An empty Condition is vacuously true.
type Condition struct {
	matchers map[string]Matcher
	// Warnings holds non-fatal range-parse failures (start_at,
	// video_total_length): the matcher for that key falls back to an
	// unbounded range and evaluation continues.
	Warnings []string
}

// New validates raw and builds a Condition. Unknown keys, malformed
// regexes, and malformed channel_type sets are rejected outright.
// Malformed range expressions (start_at, video_total_length) are
// reported via Condition.Warnings and default to matching everything on
// that key, per the condition language's range-grammar fallback rule.
func New(raw map[string]string) (*Condition, error) {
	c := &Condition{matchers: make(map[string]Matcher, len(raw))}
	for key, value := range raw {
		spec, ok := keyTable[key]
		if !ok {
			return nil, fmt.Errorf("condition: unknown key %q", key)
		}
		m, err := spec.build(value)
		if err != nil {
			if spec.rangeKey {
				c.Warnings = append(c.Warnings, fmt.Sprintf("condition: key %q: %v (defaulting to full range)", key, err))
				c.matchers[key] = m
				continue
			}
			return nil, fmt.Errorf("condition: key %q: %w", key, err)
		}
		c.matchers[key] = m
	}
	return c, nil
}

// Matches reports whether every declared matcher accepts in. A Condition
// with no matchers always matches.
func (c *Condition) Matches(in MatchInput) bool {
	if c == nil {
		return true
	}
	for _, m := range c.matchers {
		if !m.Matches(in) {
			return false
		}
	}
	return true
}
