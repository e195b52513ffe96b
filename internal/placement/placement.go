// Package placement implements the rule-based engine that decides which
// storage backend and key prefix a newly ingested video is written to
// (spec §4.D). Placement is a pure function of the configured rules,
// the mounted backend registry, and the program/video being placed --
// it has no state of its own, and its only I/O is the chosen backend's
// IsAvailable check.
package placement

import (
	"errors"
	"fmt"

	"github.com/shibafu528/dtvault-central/internal/catalog"
	"github.com/shibafu528/dtvault-central/internal/condition"
	"github.com/shibafu528/dtvault-central/internal/storage"
)

// ErrNoMatch is returned when no configured rule's condition matches
// and no default is configured.
var ErrNoMatch = errors.New("placement: no rule matched and no default is configured")

// StorageRule selects a backend by label for videos whose program and
// video attributes satisfy Condition. Rules are evaluated in order;
// the first match wins.
type StorageRule struct {
	Condition    *condition.Condition
	StorageLabel string
}

// PrefixRule selects a key prefix the same way StorageRule selects a
// backend. Evaluated independently of StorageRule, in its own order.
type PrefixRule struct {
	Condition *condition.Condition
	Prefix    string
}

// Config is the resolved set of placement rules plus the defaults used
// when no rule matches.
type Config struct {
	StorageRules    []StorageRule
	DefaultStorage  string // label; empty means ErrNoMatch on fall-through
	PrefixRules     []PrefixRule
	DefaultPrefix   string // used when no PrefixRule matches; may be empty
}

// Decision is the outcome of a placement evaluation.
type Decision struct {
	Backend storage.Backend
	Prefix  string
}

// Decide evaluates cfg against program and video (projected into a
// condition.MatchInput) and resolves the winning storage label to an
// actual mounted Backend via reg.
func Decide(cfg Config, reg *storage.Registry, program *catalog.Program, video *catalog.Video) (Decision, error) {
	in := toMatchInput(program, video)

	label := cfg.DefaultStorage
	for _, rule := range cfg.StorageRules {
		if rule.Condition.Matches(in) {
			label = rule.StorageLabel
			break
		}
	}
	if label == "" {
		return Decision{}, ErrNoMatch
	}

	backend, ok := reg.ByLabel(label)
	if !ok {
		return Decision{}, fmt.Errorf("placement: rule selected unknown storage label %q", label)
	}
	if !backend.IsAvailable() {
		return Decision{}, fmt.Errorf("%w: backend %q", storage.ErrUnavailable, label)
	}

	prefix := cfg.DefaultPrefix
	for _, rule := range cfg.PrefixRules {
		if rule.Condition.Matches(in) {
			prefix = rule.Prefix
			break
		}
	}

	return Decision{Backend: backend, Prefix: prefix}, nil
}

// toMatchInput projects a program/video pair into the flattened
// attribute set the condition language matches against.
func toMatchInput(program *catalog.Program, video *catalog.Video) condition.MatchInput {
	in := condition.MatchInput{
		NetworkID: int32(program.NetworkID),
		ServiceID: int32(program.ServiceID),
		EventID:   int32(program.EventID),
		StartAt:   program.StartAt,
		Title:     program.Name,
		Description: program.Description,
	}
	if program.Service != nil {
		in.ServiceName = program.Service.Name
		if program.Service.Channel != nil {
			in.ChannelName = program.Service.Channel.Name
			in.ChannelType = string(program.Service.Channel.Type)
		}
	}
	if video != nil {
		in.VideoMimeType = video.MimeType
		in.VideoProviderID = video.ProviderID
		in.VideoTotalLength = int64(video.TotalLength)
	}
	return in
}
