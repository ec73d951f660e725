package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEquivalent(t *testing.T) {
	tests := []struct {
		name   string
		found  any
		wanted any
		want   bool
	}{
		{"int and float", 1, 1.0, true},
		{"int64 and uint", int64(7), uint(7), true},
		{"float32 and float64", float32(0.5), 0.5, true},
		{"different numbers", 1, 1.5, false},
		{"number and numeric string", 42, "42", true},
		{"numbers in sequences", []any{1, 2}, []any{1.0, int8(2)}, true},
		{"numbers in maps", map[string]any{"n": 3}, map[string]any{"n": 3.0}, true},
		{"number and bool", 0, false, false},
		{"strings", "a", "b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equivalent(tt.found, tt.wanted))
		})
	}
}

func TestDiff_SameRendering(t *testing.T) {
	assert.Empty(t, Diff(1, 1.0))
	assert.Contains(t, Diff(1, 2), "-2\n+1\n")
}
