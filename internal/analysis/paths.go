package analysis

import (
	"github.com/tbracken/newsgraph/internal/models"
)

// FindPath finds the shortest path by hop count from source to target,
// preferring the higher minimum-hop-confidence among equal-length
// paths. If no path exists within the configured hop bound the result
// reports Found=false, never an error: disconnection is an answer.
func (e *Engine) FindPath(sourceID, targetID string) (*PathResult, error) {
	if _, err := e.requireEvent(sourceID); err != nil {
		return nil, err
	}
	if _, err := e.requireEvent(targetID); err != nil {
		return nil, err
	}

	cfg := e.config()
	snap := e.graph.Snapshot()
	result := &PathResult{SourceID: sourceID, TargetID: targetID}

	if sourceID == targetID {
		result.Found = true
		result.Confidence = 1.0
		return result, nil
	}

	// Level-synchronous BFS. Per node we keep the best weakest-link
	// confidence achievable at its minimal hop distance, so the
	// tie-break among equal-length paths is exact.
	type state struct {
		conf   float64
		parent models.Relationship
		hops   int
	}
	best := map[string]state{sourceID: {conf: 1.0}}
	level := []string{sourceID}

	for depth := 0; depth < cfg.MaxPathHops && len(level) > 0; depth++ {
		next := map[string]struct{}{}
		for _, id := range level {
			cur := best[id]
			for _, edge := range snap.Out[id] {
				conf := cur.conf
				if edge.Confidence < conf {
					conf = edge.Confidence
				}
				prev, seen := best[edge.TargetID]
				switch {
				case !seen:
					best[edge.TargetID] = state{conf: conf, parent: edge, hops: depth + 1}
					next[edge.TargetID] = struct{}{}
				case prev.hops == depth+1 && conf > prev.conf:
					// Same length, stronger weakest link
					best[edge.TargetID] = state{conf: conf, parent: edge, hops: depth + 1}
				}
			}
		}
		if _, ok := best[targetID]; ok {
			break
		}
		level = level[:0]
		for id := range next {
			level = append(level, id)
		}
	}

	final, ok := best[targetID]
	if !ok {
		// Within the hop bound nothing reached the target. Report
		// whether the bound may have truncated a longer path.
		result.BoundReached = len(level) > 0
		return result, nil
	}

	// Reconstruct target-to-source, then reverse
	var hops []models.Relationship
	cur := targetID
	for cur != sourceID {
		edge := best[cur].parent
		hops = append(hops, edge)
		cur = edge.SourceID
	}
	for i, j := 0, len(hops)-1; i < j; i, j = i+1, j-1 {
		hops[i], hops[j] = hops[j], hops[i]
	}

	result.Found = true
	result.Hops = hops
	result.Confidence = final.conf
	return result, nil
}
