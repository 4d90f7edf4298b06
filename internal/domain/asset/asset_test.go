package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFilterableAttribute(t *testing.T) {
	for _, attr := range FilterableAttributes() {
		assert.True(t, IsFilterableAttribute(attr))
	}
	assert.True(t, IsFilterableAttribute(" Environment "))
	assert.False(t, IsFilterableAttribute("name"))
	assert.False(t, IsFilterableAttribute("description"))
	assert.False(t, IsFilterableAttribute(""))
}

func TestMatchesFilters(t *testing.T) {
	a := &Asset{
		Type:           TypeDatabase,
		Criticality:    CriticalityHigh,
		Environment:    EnvironmentProduction,
		Classification: ClassificationConfidential,
		OwnerTeam:      "data-platform",
	}

	tests := []struct {
		name    string
		filters map[string][]string
		want    bool
	}{
		{"no filters match everything", nil, true},
		{"single match", map[string][]string{"environment": {"PRODUCTION"}}, true},
		{"case-insensitive value", map[string][]string{"environment": {"production"}}, true},
		{"one of several accepted values", map[string][]string{"criticality": {"LOW", "HIGH"}}, true},
		{"all constraints must hold", map[string][]string{
			"environment": {"PRODUCTION"},
			"owner_team":  {"billing"},
		}, false},
		{"non-matching value", map[string][]string{"type": {"file"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.MatchesFilters(tt.filters))
		})
	}
}

func TestMatchesFilters_MissingAttributeNeverMatches(t *testing.T) {
	unowned := &Asset{Type: TypeFile, Environment: EnvironmentProduction}

	assert.False(t, unowned.MatchesFilters(map[string][]string{"owner_team": {"data-platform"}}))
	// Even when the filter would otherwise accept everything else
	assert.False(t, unowned.MatchesFilters(map[string][]string{
		"environment": {"PRODUCTION"},
		"owner_team":  {"data-platform"},
	}))
}

func TestAttributeValue_BusinessImpactDefaults(t *testing.T) {
	a := &Asset{}

	value, ok := a.AttributeValue("business_impact")
	assert.True(t, ok)
	assert.Equal(t, string(ImpactMedium), value)

	a.BusinessImpact = ImpactHigh
	value, _ = a.AttributeValue("business_impact")
	assert.Equal(t, string(ImpactHigh), value)
}

func TestHasOwner(t *testing.T) {
	assert.True(t, (&Asset{OwnerTeam: "data-platform"}).HasOwner())
	assert.False(t, (&Asset{OwnerTeam: ""}).HasOwner())
	assert.False(t, (&Asset{OwnerTeam: "   "}).HasOwner())
}
