package models

// BenefitValue is one resolved (benefit, plan, value) triple. Condition
// carries the record's display label as loaded from the dataset.
type BenefitValue struct {
	Condition string `json:"condition"`
	Plan      string `json:"plan"`
	Value     string `json:"value"`
}

// PlanResult groups the resolved values for one requested plan.
type PlanResult struct {
	Plan string         `json:"plan"`
	Data []BenefitValue `json:"data"`
}

// LookupRequest is a parsed structured lookup: one condition phrase
// against one or more plans, order preserved and duplicates allowed.
type LookupRequest struct {
	Condition string   `json:"condition"`
	Plans     []string `json:"plans"`
	Question  string   `json:"question,omitempty"`
}
