package bus

import "strings"

// Wildcard is the pattern token that matches any single topic segment.
// A pattern consisting of just the wildcard matches every topic.
const Wildcard = "*"

// ValidateTopic checks that topic is a concrete, publishable address: one or
// more non-empty dot-separated segments with no wildcard tokens. Wildcards
// are only legal in patterns, never in the topic given to Publish or Request.
func ValidateTopic(topic string) error {
	if topic == "" {
		return &InvalidTopicError{Topic: topic, Reason: "empty topic"}
	}
	for _, seg := range strings.Split(topic, ".") {
		switch {
		case seg == "":
			return &InvalidTopicError{Topic: topic, Reason: "empty segment"}
		case strings.Contains(seg, Wildcard):
			return &InvalidTopicError{Topic: topic, Reason: "wildcard not allowed in a concrete topic"}
		}
	}
	return nil
}

// ValidatePattern checks that pattern is a well-formed subscription pattern:
// either the bare wildcard, or dot-separated segments where each segment is
// non-empty and is either a literal (no wildcard characters) or exactly the
// wildcard token. Partial wildcards like "user*" are rejected.
func ValidatePattern(pattern string) error {
	if pattern == Wildcard {
		return nil
	}
	if pattern == "" {
		return &InvalidTopicError{Topic: pattern, Reason: "empty pattern"}
	}
	for _, seg := range strings.Split(pattern, ".") {
		switch {
		case seg == "":
			return &InvalidTopicError{Topic: pattern, Reason: "empty segment"}
		case seg != Wildcard && strings.Contains(seg, Wildcard):
			return &InvalidTopicError{Topic: pattern, Reason: "wildcard must be a whole segment"}
		}
	}
	return nil
}

// Match reports whether pattern matches the concrete topic. The bare
// wildcard matches every topic; otherwise segment counts must be equal and
// each pattern segment must be the wildcard or textually equal to the
// corresponding topic segment. Match validates both arguments and returns
// an InvalidTopicError for malformed input, including a wildcard appearing
// in the topic argument.
func Match(pattern, topic string) (bool, error) {
	if err := ValidatePattern(pattern); err != nil {
		return false, err
	}
	if err := ValidateTopic(topic); err != nil {
		return false, err
	}
	return matchSegments(splitPattern(pattern), strings.Split(topic, ".")), nil
}

// splitPattern splits a validated pattern into segments. The bare wildcard
// is represented as nil so matchSegments can treat it as match-all.
func splitPattern(pattern string) []string {
	if pattern == Wildcard {
		return nil
	}
	return strings.Split(pattern, ".")
}

// matchSegments is the core matcher over pre-validated, pre-split input.
// A nil pattern means the bare wildcard.
func matchSegments(pattern, topic []string) bool {
	if pattern == nil {
		return true
	}
	if len(pattern) != len(topic) {
		return false
	}
	for i, seg := range pattern {
		if seg != Wildcard && seg != topic[i] {
			return false
		}
	}
	return true
}
