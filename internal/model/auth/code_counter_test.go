package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCodeNumber(t *testing.T) {
	tests := []struct {
		prefix, code string
		want         int64
		ok           bool
	}{
		{"U", "U-00012", 12, true},
		{"T", "T-123456", 123456, true},
		{"T", "U-00001", 0, false},
		{"U", "U-LEGACY-ABCD1234", 0, false},
		{"ORG", "ORG-", 0, false},
		{"U", "", 0, false},
	}
	for _, tt := range tests {
		n, ok := ParseCodeNumber(tt.prefix, tt.code)
		assert.Equal(t, tt.ok, ok, tt.code)
		assert.Equal(t, tt.want, n, tt.code)
	}
}
