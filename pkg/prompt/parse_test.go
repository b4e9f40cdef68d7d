package prompt

import (
	"strings"
	"testing"

	"github.com/elieapp/elie/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitResponse(t *testing.T) {
	raw := "Quaternions extend complex numbers.\n\nCONCEPTS: complex numbers,0.3,0.8,rotation,0.5,0.6"
	explanation, concepts := SplitResponse(raw)

	assert.Equal(t, "Quaternions extend complex numbers.", explanation)
	assert.Contains(t, concepts, "complex numbers,0.3,0.8")
}

func TestSplitResponseNoMarker(t *testing.T) {
	explanation, concepts := SplitResponse("  Just an explanation.  ")
	assert.Equal(t, "Just an explanation.", explanation)
	assert.Empty(t, concepts)
}

func TestSplitResponseMarkerCaseInsensitive(t *testing.T) {
	explanation, concepts := SplitResponse("Body text.\nConcepts: a,0.1,0.2")
	assert.Equal(t, "Body text.", explanation)
	assert.NotEmpty(t, concepts)
}

func TestParseConceptsCompact(t *testing.T) {
	got := ParseConcepts("Linear Algebra,0.6,1\nVectors,0.7,0.8\nRotation Matrices,0.9,0.7", 4)

	require.Len(t, got, 3)
	assert.Equal(t, domain.Concept{Name: "Linear Algebra", Distance: 0.6, Breadth: 1}, got[0])
	assert.Equal(t, "Vectors", got[1].Name)
	assert.Equal(t, 0.9, got[2].Distance)
}

func TestParseConceptsVerbose(t *testing.T) {
	raw := "Linear Algebra, distance=0.1, breadth=1\nVectors, distance=0.3, breadth=0.8"
	got := ParseConcepts(raw, 4)

	require.Len(t, got, 2)
	assert.Equal(t, "Linear Algebra", got[0].Name)
	assert.Equal(t, 0.1, got[0].Distance)
	assert.Equal(t, 0.8, got[1].Breadth)
}

func TestParseConceptsRespectsMax(t *testing.T) {
	raw := "a,0.1,0.1,b,0.2,0.2,c,0.3,0.3,d,0.4,0.4,e,0.5,0.5"
	assert.Len(t, ParseConcepts(raw, 3), 3)
}

func TestParseConceptsClampsWeights(t *testing.T) {
	got := ParseConcepts("tensors,5,0.01", 1)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Distance)
	assert.Equal(t, 0.1, got[0].Breadth)
}

func TestParseConceptsDeduplicates(t *testing.T) {
	got := ParseConcepts("Vectors,0.3,0.8,vectors,0.9,0.9,Matrices,0.5,0.5", 4)

	require.Len(t, got, 2)
	assert.Equal(t, "Vectors", got[0].Name)
	assert.Equal(t, 0.3, got[0].Distance) // first occurrence wins
	assert.Equal(t, "Matrices", got[1].Name)
}

func TestParseConceptsStopsAtMalformedTriplet(t *testing.T) {
	got := ParseConcepts("Vectors,0.3,0.8,Matrices,not-a-number,0.5", 4)

	require.Len(t, got, 1)
	assert.Equal(t, "Vectors", got[0].Name)
}

func TestParseConceptsEmptyReply(t *testing.T) {
	assert.Empty(t, ParseConcepts("", 4))
	assert.Empty(t, ParseConcepts("no triplets here", 4))
}

func TestParseNames(t *testing.T) {
	got := ParseNames("Linear Algebra, Vectors ,\nRotation Matrices,Tensors,Extra", 4)
	assert.Equal(t, []string{"Linear Algebra", "Vectors", "Rotation Matrices", "Tensors"}, got)
}

func TestExplainPromptShapes(t *testing.T) {
	p := Explain(ExplainParams{Topic: "quaternions", Mode: domain.ModeShort, NumConcepts: 4})
	assert.Contains(t, p, "quaternions")
	assert.Contains(t, p, conceptsMarker)
	assert.Contains(t, p, "exactly 4 concepts")
	assert.Contains(t, p, "concise")

	p = Explain(ExplainParams{
		Topic:   "quaternions",
		Known:   []string{"complex numbers"},
		Unknown: []string{"linear algebra"},
		Mode:    domain.ModeLong,
	})
	assert.Contains(t, p, "I understand complex numbers")
	assert.Contains(t, p, "I do not understand linear algebra")
	assert.Contains(t, p, "detailed")
	assert.NotContains(t, p, conceptsMarker)
}

func TestExplainPromptExcludesExistingConcepts(t *testing.T) {
	p := Explain(ExplainParams{
		Topic:       "quaternions",
		Known:       []string{"vectors"},
		Unknown:     []string{"rotation"},
		Mode:        domain.ModeShort,
		NumConcepts: 3,
	})
	idx := strings.Index(p, "Do not include")
	require.Greater(t, idx, 0)
	assert.Contains(t, p[idx:], "quaternions")
	assert.Contains(t, p[idx:], "vectors")
	assert.Contains(t, p[idx:], "rotation")
}

func TestSuggestPrompt(t *testing.T) {
	p := Suggest([]string{"vectors", "matrices"}, []string{"tensors"}, 4)
	assert.Contains(t, p, "I understand vectors, matrices")
	assert.Contains(t, p, "I do not understand tensors")
	assert.Contains(t, p, "4 new concepts")

	p = Suggest(nil, nil, 4)
	assert.Contains(t, p, "curious beginner")
}
