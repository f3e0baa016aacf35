// Package dataset loads the benefits table once per process lifetime and
// exposes normalized-name lookup over its immutable rows.
package dataset

import (
	"context"
	"encoding/csv"
	"strings"

	"benefits-assistant/internal/common/logger"
	"benefits-assistant/internal/normalize"
)

// Record is one benefits row. NormalizedName is the dense lowercase
// alphanumeric key derived from the cleaned label at load time; Values
// maps plan identifiers to cell contents, blank meaning "no value".
type Record struct {
	Label          string
	NormalizedName string
	Values         map[string]string
}

// HasValue reports whether the record carries a usable value for a plan.
func (r *Record) HasValue(plan string) bool {
	return strings.TrimSpace(r.Values[plan]) != ""
}

// Dataset is the read-only benefits table. An empty Dataset is valid and
// degrades every lookup to the fallback path.
type Dataset struct {
	records   []Record
	plans     []string
	planSet   map[string]struct{}
	hasLabels bool
}

// Empty returns a Dataset with no rows, used when loading fails.
func Empty() *Dataset {
	return &Dataset{planSet: map[string]struct{}{}}
}

// Load parses CSV from the source into an immutable Dataset. The column
// named labelColumn holds benefit labels; every other header cell is a
// plan identifier. Load never propagates a failure: a broken source or
// malformed table yields the empty Dataset and a logged error so the
// process can continue in fallback-only mode.
func Load(ctx context.Context, src Source, labelColumn string, log logger.Logger) *Dataset {
	body, err := src.Fetch(ctx)
	if err != nil {
		log.Error("dataset source unreachable, continuing with empty dataset", map[string]interface{}{
			"error": err.Error(),
		})
		return Empty()
	}
	defer body.Close()

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		log.Error("dataset parse failed, continuing with empty dataset", map[string]interface{}{
			"error": err.Error(),
		})
		return Empty()
	}
	if len(rows) < 1 {
		log.Warn("dataset is empty", nil)
		return Empty()
	}

	header := rows[0]
	labelIdx := -1
	for i, cell := range header {
		if strings.EqualFold(normalize.CleanLabel(cell), labelColumn) {
			labelIdx = i
			break
		}
	}
	if labelIdx < 0 {
		log.Error("dataset has no label column, continuing with empty dataset", map[string]interface{}{
			"labelColumn": labelColumn,
		})
		return Empty()
	}

	d := &Dataset{
		planSet:   map[string]struct{}{},
		hasLabels: true,
	}
	type planCol struct {
		name string
		idx  int
	}
	var planCols []planCol
	for i, cell := range header {
		if i == labelIdx {
			continue
		}
		plan := normalize.CleanLabel(cell)
		if plan == "" {
			continue
		}
		planCols = append(planCols, planCol{name: plan, idx: i})
		d.plans = append(d.plans, plan)
		d.planSet[plan] = struct{}{}
	}

	for _, row := range rows[1:] {
		if labelIdx >= len(row) {
			continue
		}
		label := normalize.CleanLabel(row[labelIdx])
		if label == "" {
			continue
		}

		rec := Record{
			Label:          label,
			NormalizedName: normalize.CompactKey(label),
			Values:         make(map[string]string, len(planCols)),
		}
		for _, col := range planCols {
			if col.idx < len(row) {
				rec.Values[col.name] = strings.TrimSpace(row[col.idx])
			}
		}
		d.records = append(d.records, rec)
	}

	log.Info("benefits dataset loaded", map[string]interface{}{
		"rows":  len(d.records),
		"plans": d.plans,
	})
	return d
}

// Len returns the number of benefit rows.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns the loaded rows in table order. Callers must not
// mutate the returned slice.
func (d *Dataset) Records() []Record {
	return d.records
}

// Plans returns the plan identifiers in header order.
func (d *Dataset) Plans() []string {
	return d.plans
}

// HasLabels reports whether the label column was found at load time.
func (d *Dataset) HasLabels() bool {
	return d.hasLabels
}

// HasPlan reports whether the table carries a column for the plan.
func (d *Dataset) HasPlan(plan string) bool {
	_, ok := d.planSet[plan]
	return ok
}
