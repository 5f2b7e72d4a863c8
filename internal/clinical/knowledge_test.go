package clinical

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osteocare-ai/osteocare/internal/domain"
)

func TestFor(t *testing.T) {
	assert.Equal(t, "> 20% (High)", For("osteoporosis").FractureRisk)
	assert.Equal(t, "5-20% (Moderate)", For(" OSTEOPENIA ").FractureRisk)
	assert.Equal(t, "< 5% (Low)", For("Normal").FractureRisk)
	assert.Equal(t, domain.LabelNormal, For("unrecognised").Label)
}

func TestGuidanceCopies(t *testing.T) {
	g := HighRisk()
	suggestions := g.SuggestionList()
	suggestions[0] = "changed"
	assert.NotEqual(t, "changed", HighRisk().Suggestions[0])

	meds := g.MedicationList()
	assert.Len(t, meds, len(g.Medications))
	for _, m := range meds {
		assert.True(t, m.IsBare())
	}
}

func TestRange(t *testing.T) {
	r := Range{Min: -3.7, Max: -2.5}
	assert.Equal(t, -3.7, r.Lerp(0))
	assert.InDelta(t, -2.5, r.Lerp(1), 1e-12)
	assert.True(t, r.Contains(-3.0))
	assert.False(t, r.Contains(-2.4))
}
