package identity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    any
		expected string
	}{
		{"nil maps to empty", nil, ""},
		{"plain string", "12841", "12841"},
		{"string is trimmed", "  12841 ", "12841"},
		{"int", 12841, "12841"},
		{"int64", int64(12841), "12841"},
		{"json float", float64(12841), "12841"},
		{"json float with fraction kept", 128.5, "128.5"},
		{"json.Number integral", json.Number("12841"), "12841"},
		{"json.Number with trailing zero fraction", json.Number("12841.0"), "12841"},
		{"unrepresentable degrades to empty", struct{}{}, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.input))
		})
	}
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("12841", float64(12841)))
	assert.True(t, Match(" 12841 ", "12841"))
	assert.False(t, Match("12841", "12842"))

	// Empty keys never match, including each other.
	assert.False(t, Match(nil, nil))
	assert.False(t, Match("", ""))
	assert.False(t, Match(nil, ""))
}
