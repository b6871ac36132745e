package models

import (
	"time"
)

// RelationType identifies the semantic kind of a causal link.
// The taxonomy is a closed set: extending it is a design change,
// not configuration, because pattern templates rely on exact matching
// against these values.
type RelationType string

const (
	// RelationCauses is direct causation
	RelationCauses RelationType = "CAUSES"
	// RelationTriggersRetaliation is a provoked counter-action
	RelationTriggersRetaliation RelationType = "TRIGGERS_RETALIATION"
	// RelationCreatesOpportunity opens a market or business opportunity
	RelationCreatesOpportunity RelationType = "CREATES_OPPORTUNITY"
	// RelationDisruptsSupplyChain affects production or distribution
	RelationDisruptsSupplyChain RelationType = "DISRUPTS_SUPPLY_CHAIN"
	// RelationShiftsCompetition changes the competitive landscape
	RelationShiftsCompetition RelationType = "SHIFTS_COMPETITION"
	// RelationAffectsRegulation influences policy or law
	RelationAffectsRegulation RelationType = "AFFECTS_REGULATION"
	// RelationImpactsFinance affects markets, currencies, or rates
	RelationImpactsFinance RelationType = "IMPACTS_FINANCE"
)

// AllRelationTypes lists every recognized relationship type in a stable order.
var AllRelationTypes = []RelationType{
	RelationCauses,
	RelationTriggersRetaliation,
	RelationCreatesOpportunity,
	RelationDisruptsSupplyChain,
	RelationShiftsCompetition,
	RelationAffectsRegulation,
	RelationImpactsFinance,
}

// relationTypeDescriptions drive classifier prompting and CLI output.
var relationTypeDescriptions = map[RelationType]string{
	RelationCauses:              "Direct causation",
	RelationTriggersRetaliation: "Provokes counter-action",
	RelationCreatesOpportunity:  "Opens market/business opportunity",
	RelationDisruptsSupplyChain: "Affects production/distribution",
	RelationShiftsCompetition:   "Changes competitive landscape",
	RelationAffectsRegulation:   "Influences policy/law",
	RelationImpactsFinance:      "Affects markets/currency/rates",
}

// ParseRelationType validates a raw type string against the taxonomy
func ParseRelationType(s string) (RelationType, error) {
	rt := RelationType(s)
	if _, ok := relationTypeDescriptions[rt]; !ok {
		return "", NewValidationError("unknown relationship type %q", s)
	}
	return rt, nil
}

// Valid reports whether the type is part of the taxonomy
func (rt RelationType) Valid() bool {
	_, ok := relationTypeDescriptions[rt]
	return ok
}

// Description returns a short human-readable description of the type
func (rt RelationType) Description() string {
	return relationTypeDescriptions[rt]
}

// Relationship is a directed, typed, confidence-scored causal link
// between two events. An ordered pair (SourceID, TargetID) holds at
// most one relationship; re-classification overwrites.
type Relationship struct {
	// SourceID is the causing event
	SourceID string `json:"source_id"`

	// TargetID is the affected event
	TargetID string `json:"target_id"`

	// Type is the relationship kind from the fixed taxonomy
	Type RelationType `json:"type"`

	// Confidence is the classifier's score in [0,1]
	Confidence float64 `json:"confidence"`

	// Explanation is the classifier-supplied rationale. The engine
	// stores and aggregates explanations, it never generates them.
	Explanation string `json:"explanation"`

	// DiscoveredAt is when the relationship was classified, used for TTL
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Validate checks the relationship invariants. Out-of-range values are
// a validation error, never silently clamped.
func (r *Relationship) Validate() error {
	if r.SourceID == "" || r.TargetID == "" {
		return NewValidationError("relationship endpoints must not be empty")
	}
	if r.SourceID == r.TargetID {
		return NewValidationError("relationship %s: source and target must differ", r.SourceID)
	}
	if !r.Type.Valid() {
		return NewValidationError("relationship %s->%s: unknown type %q", r.SourceID, r.TargetID, r.Type)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return NewValidationError("relationship %s->%s: confidence must be in [0,1], got %v",
			r.SourceID, r.TargetID, r.Confidence)
	}
	return nil
}
