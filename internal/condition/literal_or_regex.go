package condition

import (
	"regexp"
	"strconv"
	"strings"
)

// literalOrRegex matches either a compiled regex (value wrapped in
// "/.../" ) or a literal (substring containment for strings, exact
// equality for the decimal string form of integers). An empty value is
// valid and matches nothing, never everything.
type literalOrRegex struct {
	re      *regexp.Regexp
	literal string
	isRegex bool
}

func parseLiteralOrRegex(value string) (literalOrRegex, error) {
	if strings.HasPrefix(value, "/") && strings.HasSuffix(value, "/") && len(value) >= 2 {
		pattern := value[1 : len(value)-1]
		re, err := regexp.Compile(pattern)
		if err != nil {
			return literalOrRegex{}, err
		}
		return literalOrRegex{re: re, isRegex: true}, nil
	}
	return literalOrRegex{literal: value}, nil
}

func (m literalOrRegex) matchesString(s string) bool {
	if m.isRegex {
		return m.re.MatchString(s)
	}
	if m.literal == "" {
		return false
	}
	return strings.Contains(s, m.literal)
}

func (m literalOrRegex) matchesInt(v int32) bool {
	s := strconv.FormatInt(int64(v), 10)
	if m.isRegex {
		return m.re.MatchString(s)
	}
	if m.literal == "" {
		return false
	}
	n, err := strconv.ParseInt(m.literal, 10, 32)
	if err != nil {
		// Non-numeric literal against an integer attribute never matches.
		return false
	}
	return int32(n) == v
}

type stringMatcher struct {
	m       literalOrRegex
	extract func(MatchInput) string
}

func (s stringMatcher) Matches(in MatchInput) bool {
	return s.m.matchesString(s.extract(in))
}

func stringOrRegexBuilder(extract func(MatchInput) string) func(string) (Matcher, error) {
	return func(value string) (Matcher, error) {
		m, err := parseLiteralOrRegex(value)
		if err != nil {
			return nil, err
		}
		return stringMatcher{m: m, extract: extract}, nil
	}
}

type intMatcher struct {
	m       literalOrRegex
	extract func(MatchInput) int32
}

func (s intMatcher) Matches(in MatchInput) bool {
	return s.m.matchesInt(s.extract(in))
}

func intOrRegexBuilder(extract func(MatchInput) int32) func(string) (Matcher, error) {
	return func(value string) (Matcher, error) {
		m, err := parseLiteralOrRegex(value)
		if err != nil {
			return nil, err
		}
		return intMatcher{m: m, extract: extract}, nil
	}
}
