package matcher

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefits-assistant/internal/common/logger"
	"benefits-assistant/internal/dataset"
)

type stringSource struct {
	data string
}

func (s *stringSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.data)), nil
}

func loadDataset(t *testing.T, csvData string) *dataset.Dataset {
	t.Helper()
	return dataset.Load(context.Background(), &stringSource{data: csvData}, "Benefit", logger.NewTestLogger(t))
}

const benefitsCSV = `Benefit,PlanA,PlanB
Annual Deductible,$500,
Out-of-Pocket Maximum,$3000,$4500
Specialist Copay,$40,$50
Emergency Room Visit,$250,$300
`

func TestFindPlanValue_SubstringMatch(t *testing.T) {
	ds := loadDataset(t, benefitsCSV)

	out := FindPlanValue("what is my deductible", "PlanA", ds)

	require.Equal(t, StatusFound, out.Status)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "Annual Deductible", out.Records[0].Condition)
	assert.Equal(t, "PlanA", out.Records[0].Plan)
	assert.Equal(t, "$500", out.Records[0].Value)
}

func TestFindPlanValue_SynonymPhrasing(t *testing.T) {
	ds := loadDataset(t, benefitsCSV)

	out := FindPlanValue("What's my co-pay?", "PlanB", ds)

	require.Equal(t, StatusFound, out.Status)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "Specialist Copay", out.Records[0].Condition)
	assert.Equal(t, "$50", out.Records[0].Value)
}

func TestFindPlanValue_SynonymKeyMatchesEitherLabelSpelling(t *testing.T) {
	// Labels never see the synonym rewrites, so the query key must land
	// on the short form to be containable in both spellings.
	ds := loadDataset(t, `Benefit,PlanA
Specialist Copay,$40
Primary Care Copayment,$25
`)

	for _, query := range []string{"co-pay", "copayment", "What's my copay?"} {
		out := FindPlanValue(query, "PlanA", ds)
		require.Equal(t, StatusFound, out.Status, query)
		assert.Len(t, out.Records, 2, query)
	}
}

func TestFindPlanValue_BlankPlanValueIsNotFound(t *testing.T) {
	ds := loadDataset(t, benefitsCSV)

	// Annual Deductible matches but PlanB's cell is blank.
	out := FindPlanValue("annual deductible", "PlanB", ds)

	assert.Equal(t, StatusNotFound, out.Status)
	assert.Empty(t, out.Records)
}

func TestFindPlanValue_UnknownPlanIsDataMissing(t *testing.T) {
	ds := loadDataset(t, benefitsCSV)

	out := FindPlanValue("deductible", "PlanZ", ds)

	assert.Equal(t, StatusDataMissing, out.Status)
}

func TestFindPlanValue_EmptyDatasetIsDataMissing(t *testing.T) {
	out := FindPlanValue("deductible", "PlanA", dataset.Empty())

	assert.Equal(t, StatusDataMissing, out.Status)
}

func TestFindPlanValue_NoMatchIsNotFound(t *testing.T) {
	ds := loadDataset(t, benefitsCSV)

	out := FindPlanValue("orthodontics", "PlanA", ds)

	assert.Equal(t, StatusNotFound, out.Status)
}

func TestFindPlanValue_NearMatchRecoversMisspelling(t *testing.T) {
	ds := loadDataset(t, benefitsCSV)

	// "anual deductable" -> "anualdeductable", two edits from
	// "annualdeductible" (similarity 0.875).
	out := FindPlanValue("anual deductable", "PlanA", ds)

	require.Equal(t, StatusFound, out.Status)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "Annual Deductible", out.Records[0].Condition)
}

func TestFindPlanValue_NearMatchBelowThresholdFails(t *testing.T) {
	ds := loadDataset(t, benefitsCSV)

	out := FindPlanValue("dntl", "PlanA", ds)

	assert.Equal(t, StatusNotFound, out.Status)
}

func TestFindPlanValue_MultipleSubstringMatches(t *testing.T) {
	csvData := "Benefit,PlanA\nIndividual Deductible,$500\nFamily Deductible,$1000\n"
	ds := loadDataset(t, csvData)

	out := FindPlanValue("deductible", "PlanA", ds)

	require.Equal(t, StatusFound, out.Status)
	require.Len(t, out.Records, 2)
	assert.Equal(t, "Individual Deductible", out.Records[0].Condition)
	assert.Equal(t, "Family Deductible", out.Records[1].Condition)
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"identical", "deductible", "deductible", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "", "abc", 0.0},
		{"one edit of ten", "deductable", "deductible", 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("copay", "copay"))
	assert.Equal(t, 1, levenshteinDistance("copay", "copays"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 5, levenshteinDistance("", "copay"))
}
