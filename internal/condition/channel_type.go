package condition

import (
	"fmt"
	"strings"
)

// validChannelTypes mirrors the Channel.Type enum in the catalog model
// ({GR, BS, CS, Sky}); the condition language accepts any case for each
// member and normalizes to this canonical spelling for comparison.
var validChannelTypes = map[string]string{
	"gr":  "GR",
	"bs":  "BS",
	"cs":  "CS",
	"sky": "Sky",
}

type channelTypeMatcher struct {
	set map[string]struct{}
}

func newChannelTypeMatcher(value string) (Matcher, error) {
	set := make(map[string]struct{})
	if strings.TrimSpace(value) == "" {
		return channelTypeMatcher{set: set}, nil
	}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		canon, ok := validChannelTypes[strings.ToLower(part)]
		if !ok {
			return nil, fmt.Errorf("invalid channel_type %q", part)
		}
		set[canon] = struct{}{}
	}
	return channelTypeMatcher{set: set}, nil
}

func (m channelTypeMatcher) Matches(in MatchInput) bool {
	if len(m.set) == 0 {
		return false
	}
	canon, ok := validChannelTypes[strings.ToLower(in.ChannelType)]
	if !ok {
		return false
	}
	_, match := m.set[canon]
	return match
}
