package analysis

import (
	"sort"
	"time"

	"github.com/tbracken/newsgraph/internal/models"
)

// RootCauses walks incoming edges backward from the target and reports
// every qualifying root: an ancestor with no incoming edge inside the
// lookback window, or whose incoming edges are all below the root
// disqualification threshold. All qualifying roots are returned,
// ranked by path confidence descending.
func (e *Engine) RootCauses(targetID string) (*RootCauseResult, error) {
	target, err := e.requireEvent(targetID)
	if err != nil {
		return nil, err
	}

	cfg := e.config()
	snap := e.graph.Snapshot()
	lookbackStart := target.Timestamp.Add(-cfg.Lookback())

	result := &RootCauseResult{TargetID: targetID}

	type visit struct {
		id    string
		depth int
	}
	// bestConf tracks the best (max) weakest-link confidence of any
	// discovered path from the node down to the target; parent edges
	// reconstruct that path.
	bestConf := map[string]float64{targetID: 1.0}
	parentEdge := map[string]models.Relationship{}

	queue := []visit{{id: targetID, depth: 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= cfg.MaxDepth {
			if len(snap.In[cur.id]) > 0 {
				result.BoundReached = true
			}
			continue
		}

		for _, edge := range snap.In[cur.id] {
			conf := bestConf[cur.id]
			if edge.Confidence < conf {
				conf = edge.Confidence
			}
			if prev, seen := bestConf[edge.SourceID]; seen && prev >= conf {
				continue
			}
			bestConf[edge.SourceID] = conf
			parentEdge[edge.SourceID] = edge
			queue = append(queue, visit{id: edge.SourceID, depth: cur.depth + 1})
		}
	}

	for id, conf := range bestConf {
		if id == targetID {
			continue
		}
		if !e.isRootCandidate(snap.In[id], lookbackStart, cfg.RootConfidenceThreshold) {
			continue
		}
		result.Candidates = append(result.Candidates, RootCauseCandidate{
			EventID:        id,
			Path:           e.pathToTarget(id, targetID, parentEdge),
			PathConfidence: conf,
		})
	}

	sort.Slice(result.Candidates, func(i, j int) bool {
		if result.Candidates[i].PathConfidence != result.Candidates[j].PathConfidence {
			return result.Candidates[i].PathConfidence > result.Candidates[j].PathConfidence
		}
		return result.Candidates[i].EventID < result.Candidates[j].EventID
	})

	e.logger.Debug("root cause search for %s: %d candidates, bound_reached=%v",
		targetID, len(result.Candidates), result.BoundReached)
	return result, nil
}

// isRootCandidate applies the root qualification rule to a node's
// incoming edges. Edges whose causing event lies before the lookback
// window start are ignored; an edge from an event the store does not
// know is counted conservatively (it could still be a real cause).
func (e *Engine) isRootCandidate(inEdges []models.Relationship, lookbackStart time.Time, threshold float64) bool {
	for _, edge := range inEdges {
		if source, ok := e.events.Get(edge.SourceID); ok && source.Timestamp.Before(lookbackStart) {
			continue
		}
		if edge.Confidence >= threshold {
			return false
		}
	}
	return true
}

// pathToTarget rebuilds the root-to-target path from parent edges
func (e *Engine) pathToTarget(rootID, targetID string, parentEdge map[string]models.Relationship) []models.Relationship {
	var path []models.Relationship
	cur := rootID
	for cur != targetID {
		edge, ok := parentEdge[cur]
		if !ok {
			break
		}
		path = append(path, edge)
		cur = edge.TargetID
	}
	return path
}
