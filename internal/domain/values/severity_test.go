package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeverity(t *testing.T) {
	for input, want := range map[string]Severity{
		"low":      SeverityLow,
		"MEDIUM":   SeverityMedium,
		" High ":   SeverityHigh,
		"critical": SeverityCritical,
	} {
		s, err := NewSeverity(input)
		require.NoError(t, err)
		assert.Equal(t, want, s)
	}

	_, err := NewSeverity("urgent")
	assert.Error(t, err)
}

func TestSeverityOrdering(t *testing.T) {
	ordered := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Rank(), ordered[i-1].Rank())
		assert.True(t, ordered[i].AtLeast(ordered[i-1]))
		assert.False(t, ordered[i-1].AtLeast(ordered[i]))
	}

	assert.Zero(t, Severity("UNKNOWN").Rank())
	assert.False(t, Severity("UNKNOWN").IsValid())
}

func TestPriorityLevelForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  PriorityLevel
	}{
		{0, PriorityLow},
		{99.99, PriorityLow},
		{100, PriorityMedium},
		{199.99, PriorityMedium},
		{200, PriorityHigh},
		{299.99, PriorityHigh},
		{300, PriorityCritical},
		{375, PriorityCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PriorityLevelForScore(tt.score), "score %.2f", tt.score)
	}
}
