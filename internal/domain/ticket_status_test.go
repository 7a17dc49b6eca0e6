package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatusName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"open", "open"},
		{"  OPEN ", "open"},
		{"In Progress", "in progress"},
		{"   ", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeStatusName(tc.in), "input %q", tc.in)
	}
}
