// Package matcher resolves a normalized condition phrase to benefit rows
// carrying a value for a requested plan.
package matcher

import (
	"sort"
	"strings"

	"benefits-assistant/internal/dataset"
	"benefits-assistant/internal/models"
	"benefits-assistant/internal/normalize"
)

// Status classifies a per-plan lookup outcome.
type Status string

const (
	// StatusFound means at least one matched row carries a value for the plan.
	StatusFound Status = "Found"
	// StatusNotFound means no row matched, or matches carried no value.
	StatusNotFound Status = "NotFound"
	// StatusDataMissing means the dataset or the plan column is absent.
	StatusDataMissing Status = "DataMissing"
)

const (
	// nearMatchThreshold is the minimum similarity ratio for a near-match
	// candidate. Below it, a misspelling stays unresolved.
	nearMatchThreshold = 0.7
	// nearMatchLimit caps the candidates taken from the ranked list.
	nearMatchLimit = 5
)

// Outcome is the result of one (condition, plan) lookup.
type Outcome struct {
	Status  Status
	Records []models.BenefitValue
}

// FindPlanValue resolves a raw condition phrase against one plan.
// Primary matching is substring containment of the normalized query in
// each row's normalized name, so naming part of a label is enough.
// When containment yields nothing, rows are ranked by edit similarity
// and near matches above the threshold stand in. Rows without a value
// for the plan never count as found.
func FindPlanValue(conditionPhrase string, plan string, ds *dataset.Dataset) Outcome {
	q := normalize.Normalize(conditionPhrase)

	if ds == nil || !ds.HasLabels() || !ds.HasPlan(plan) {
		return Outcome{Status: StatusDataMissing}
	}
	if q == "" {
		return Outcome{Status: StatusNotFound}
	}

	records := ds.Records()
	var matched []*dataset.Record
	for i := range records {
		if strings.Contains(records[i].NormalizedName, q) {
			matched = append(matched, &records[i])
		}
	}

	if len(matched) == 0 {
		matched = nearMatches(q, records)
	}
	if len(matched) == 0 {
		return Outcome{Status: StatusNotFound}
	}

	var values []models.BenefitValue
	for _, rec := range matched {
		if !rec.HasValue(plan) {
			continue
		}
		values = append(values, models.BenefitValue{
			Condition: rec.Label,
			Plan:      plan,
			Value:     strings.TrimSpace(rec.Values[plan]),
		})
	}
	if len(values) == 0 {
		return Outcome{Status: StatusNotFound}
	}

	return Outcome{Status: StatusFound, Records: values}
}

type candidate struct {
	rec   *dataset.Record
	score float64
}

// nearMatches ranks every row by similarity to the query key and keeps
// up to nearMatchLimit rows at or above the threshold.
func nearMatches(q string, records []dataset.Record) []*dataset.Record {
	var candidates []candidate
	for i := range records {
		score := similarity(q, records[i].NormalizedName)
		if score >= nearMatchThreshold {
			candidates = append(candidates, candidate{rec: &records[i], score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > nearMatchLimit {
		candidates = candidates[:nearMatchLimit]
	}

	out := make([]*dataset.Record, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.rec)
	}
	return out
}
