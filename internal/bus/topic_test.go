package bus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdr2/pan/internal/bus"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		topic   string
		want    bool
	}{
		{"exact match", "user.login", "user.login", true},
		{"exact mismatch", "user.login", "user.logout", false},
		{"single wildcard segment", "user.*", "user.login", true},
		{"wildcard segment mismatch elsewhere", "user.*", "cart.login", false},
		{"wildcard in the middle", "cart.*.add", "cart.item.add", true},
		{"segment count differs", "user.*", "user.login.retry", false},
		{"pattern longer than topic", "user.login.*", "user.login", false},
		{"bare wildcard matches one segment", "*", "ping", true},
		{"bare wildcard matches many segments", "*", "cart.item.add", true},
		{"case sensitive", "User.login", "user.login", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := bus.Match(tc.pattern, tc.topic)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatchRejectsWildcardTopic(t *testing.T) {
	// Wildcards are only legal in patterns, never in the topic argument.
	_, err := bus.Match("user.*", "user.*")
	var invalid *bus.InvalidTopicError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "user.*", invalid.Topic)
}

func TestValidateTopic(t *testing.T) {
	cases := []struct {
		name    string
		topic   string
		wantErr bool
	}{
		{"single segment", "ping", false},
		{"multi segment", "cart.item.add", false},
		{"empty", "", true},
		{"empty segment", "user..login", true},
		{"leading dot", ".user", true},
		{"trailing dot", "user.", true},
		{"wildcard segment", "user.*", true},
		{"partial wildcard", "user*", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := bus.ValidateTopic(tc.topic)
			if tc.wantErr {
				var invalid *bus.InvalidTopicError
				assert.ErrorAs(t, err, &invalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePattern(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		wantErr bool
	}{
		{"bare wildcard", "*", false},
		{"wildcard segment", "user.*", false},
		{"all wildcard segments", "*.*", false},
		{"concrete pattern", "user.login", false},
		{"empty", "", true},
		{"empty segment", "user..*", true},
		{"partial wildcard segment", "user.log*", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := bus.ValidatePattern(tc.pattern)
			if tc.wantErr {
				var invalid *bus.InvalidTopicError
				assert.ErrorAs(t, err, &invalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
