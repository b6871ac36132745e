package analysis

import (
	"github.com/tbracken/newsgraph/internal/models"
)

// ImpactLevel classifies how far a ripple effect sits from its source
type ImpactLevel string

const (
	// ImpactPrimary is a direct effect (one hop)
	ImpactPrimary ImpactLevel = "PRIMARY"
	// ImpactSecondary covers suppliers, customers, competitors (two hops)
	ImpactSecondary ImpactLevel = "SECONDARY"
	// ImpactTertiary covers broader market effects (three hops)
	ImpactTertiary ImpactLevel = "TERTIARY"
	// ImpactQuaternary covers geopolitical and social implications
	ImpactQuaternary ImpactLevel = "QUATERNARY"
)

// impactLevelForHop maps hop distance to an impact level
func impactLevelForHop(hop int) ImpactLevel {
	switch hop {
	case 1:
		return ImpactPrimary
	case 2:
		return ImpactSecondary
	case 3:
		return ImpactTertiary
	default:
		return ImpactQuaternary
	}
}

// PropagationFactor returns how strongly impact propagates at this level
func (l ImpactLevel) PropagationFactor() float64 {
	switch l {
	case ImpactPrimary:
		return 1.0
	case ImpactSecondary:
		return 0.7
	case ImpactTertiary:
		return 0.4
	default:
		return 0.2
	}
}

// ChainNode is one event along a causal chain
type ChainNode struct {
	EventID     string  `json:"event_id"`
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	ImpactScore float64 `json:"impact_score"`
}

// Chain is an ordered multi-hop causal sequence. Chains are derived,
// transient results rebuilt on demand from the graph, never persisted.
type Chain struct {
	// ID is a fresh identifier for this derived result
	ID string `json:"id"`

	// Nodes are the events along the chain, cause first
	Nodes []ChainNode `json:"nodes"`

	// Links are the hops between consecutive nodes
	Links []models.Relationship `json:"links"`

	// Confidence is the weakest hop confidence along the chain
	Confidence float64 `json:"confidence"`

	// TotalImpact is the sum of node impact scores
	TotalImpact float64 `json:"total_impact"`

	// Score ranks chains against each other
	Score float64 `json:"score"`
}

// RootCauseCandidate is one qualifying root for a target event
type RootCauseCandidate struct {
	// EventID is the candidate root cause
	EventID string `json:"event_id"`

	// Path walks from the root to the target, cause first
	Path []models.Relationship `json:"path"`

	// PathConfidence is the weakest hop confidence along the path
	PathConfidence float64 `json:"path_confidence"`
}

// RootCauseResult is the answer to "what caused X"
type RootCauseResult struct {
	TargetID string `json:"target_id"`

	// Candidates are all qualifying roots, ranked by path confidence
	// descending
	Candidates []RootCauseCandidate `json:"candidates"`

	// BoundReached is set when the depth bound truncated the backward
	// search, so absence of candidates is not proof of absence
	BoundReached bool `json:"bound_reached"`
}

// RippleEffect is one downstream event reached by forward propagation
type RippleEffect struct {
	EventID string `json:"event_id"`

	// Hop is the distance from the source
	Hop int `json:"hop"`

	// Level classifies the effect by hop distance
	Level ImpactLevel `json:"level"`

	// PathConfidence is the weakest hop confidence on the path from
	// the source to this event
	PathConfidence float64 `json:"path_confidence"`

	// Via is the final edge that reached this event
	Via models.Relationship `json:"via"`
}

// RippleResult is the answer to "what does X affect"
type RippleResult struct {
	SourceID string `json:"source_id"`

	// Effects are ordered by hop, then event id
	Effects []RippleEffect `json:"effects"`

	// ByCategory groups affected event ids by their category for
	// cross-industry analysis
	ByCategory map[string][]string `json:"by_category"`

	// BoundReached is set when the depth bound stopped expansion
	BoundReached bool `json:"bound_reached"`
}

// FeedbackLoop is a directed cycle of relationships above the loop
// confidence threshold.
type FeedbackLoop struct {
	// EventIDs is the cycle in traversal order, starting at the
	// lexicographically smallest member
	EventIDs []string `json:"event_ids"`

	// Strength is the weakest edge confidence in the loop
	Strength float64 `json:"strength"`
}

// PathResult is the answer to "how does X lead to Y"
type PathResult struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`

	// Found is false when no path exists within the hop bound
	Found bool `json:"found"`

	// BoundReached distinguishes "search truncated" from "no
	// relationship exists"
	BoundReached bool `json:"bound_reached"`

	// Hops is the path, cause first; empty when Found is false
	Hops []models.Relationship `json:"hops"`

	// Confidence is the weakest hop confidence of the path
	Confidence float64 `json:"confidence"`
}

// PatternMatch is a chain whose edge types align with a template
type PatternMatch struct {
	// Template is the matched template's name
	Template string `json:"template"`

	// EventIDs is the matched chain, cause first
	EventIDs []string `json:"event_ids"`

	// Confidence is the weakest hop confidence of the matched chain
	Confidence float64 `json:"confidence"`
}

// Hub is a node whose combined degree clears the percentile threshold
type Hub struct {
	EventID string `json:"event_id"`
	Degree  int    `json:"degree"`
}

// GraphStats summarizes the current graph for the stats query
type GraphStats struct {
	Nodes         int                         `json:"nodes"`
	Edges         int                         `json:"edges"`
	PendingEdges  int                         `json:"pending_edges"`
	TypeHistogram map[models.RelationType]int `json:"type_histogram"`
}
