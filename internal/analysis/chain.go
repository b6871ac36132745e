package analysis

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tbracken/newsgraph/internal/models"
)

// buildChain assembles a Chain from a hop sequence. Chains are scored
// for ranking by a weighted blend of average impact, weakest-link
// confidence, length, and temporal coherence (chains whose hops run
// backward in time are penalized, since mis-ordered reporting is
// possible but suspicious).
func (e *Engine) buildChain(hops []models.Relationship) *Chain {
	if len(hops) == 0 {
		return nil
	}

	chain := &Chain{
		ID:         uuid.NewString(),
		Links:      hops,
		Confidence: 1.0,
	}

	ids := make([]string, 0, len(hops)+1)
	ids = append(ids, hops[0].SourceID)
	for _, hop := range hops {
		ids = append(ids, hop.TargetID)
		if hop.Confidence < chain.Confidence {
			chain.Confidence = hop.Confidence
		}
	}

	for _, id := range ids {
		node := ChainNode{EventID: id}
		if event, ok := e.events.Get(id); ok {
			node.Title = event.Title
			node.Category = event.Category
			node.ImpactScore = event.ImpactScore
		}
		chain.Nodes = append(chain.Nodes, node)
		chain.TotalImpact += node.ImpactScore
	}

	chain.Score = e.scoreChain(chain)
	return chain
}

func (e *Engine) scoreChain(chain *Chain) float64 {
	avgImpact := chain.TotalImpact / float64(len(chain.Nodes)) / 10.0

	lengthScore := float64(len(chain.Nodes)) / 3.0
	if lengthScore > 1 {
		lengthScore = 1
	}

	temporalScore := 1.0
	for _, hop := range chain.Links {
		source, okS := e.events.Get(hop.SourceID)
		target, okT := e.events.Get(hop.TargetID)
		if okS && okT && target.Timestamp.Before(source.Timestamp) {
			temporalScore *= 0.8
		}
	}

	return avgImpact*0.4 + chain.Confidence*0.3 + lengthScore*0.2 + temporalScore*0.1
}

// Cascades finds chain reactions: linear causal chains of at least
// three hops whose every edge clears the confidence floor. Chains are
// grown from cascade entry points (nodes without a qualifying
// incoming edge), deduplicated by node sequence, and ranked by score.
func (e *Engine) Cascades() []*Chain {
	cfg := e.config()
	snap := e.graph.Snapshot()

	const minCascadeHops = 3

	var chains []*Chain
	seen := make(map[string]struct{})

	for _, start := range snap.NodeIDs() {
		if len(qualifyingEdges(snap.In[start], cfg.ConfidenceFloor)) > 0 {
			continue // not an entry point
		}

		// Iterative DFS collecting maximal qualifying paths
		type frame struct {
			path []models.Relationship
		}
		stack := []frame{{}}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			tip := start
			if len(cur.path) > 0 {
				tip = cur.path[len(cur.path)-1].TargetID
			}

			extended := false
			if len(cur.path) < cfg.MaxDepth {
				for _, edge := range qualifyingEdges(snap.Out[tip], cfg.ConfidenceFloor) {
					if edge.TargetID == start || pathContains(cur.path, edge.TargetID) {
						continue
					}
					next := make([]models.Relationship, len(cur.path), len(cur.path)+1)
					copy(next, cur.path)
					stack = append(stack, frame{path: append(next, edge)})
					extended = true
				}
			}

			if !extended && len(cur.path) >= minCascadeHops {
				if chain := e.buildChain(cur.path); chain != nil {
					key := chainKey(chain)
					if _, dup := seen[key]; !dup {
						seen[key] = struct{}{}
						chains = append(chains, chain)
					}
				}
			}
		}
	}

	sort.Slice(chains, func(i, j int) bool {
		if chains[i].Score != chains[j].Score {
			return chains[i].Score > chains[j].Score
		}
		return chainKey(chains[i]) < chainKey(chains[j])
	})
	return chains
}

func chainKey(chain *Chain) string {
	ids := make([]string, len(chain.Nodes))
	for i, node := range chain.Nodes {
		ids[i] = node.EventID
	}
	return strings.Join(ids, "\x00")
}
