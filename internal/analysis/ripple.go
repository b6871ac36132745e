package analysis

import (
	"sort"
)

// RippleEffects propagates forward from the source event with
// weakest-link semantics: a path's cumulative confidence is the
// minimum confidence along its hops, so a single weak hop caps the
// whole chain's reported impact. A reached event is always reported,
// but once the path confidence into it falls below the configured
// floor it is not expanded further. maxDepth <= 0 uses the configured
// default.
func (e *Engine) RippleEffects(sourceID string, maxDepth int) (*RippleResult, error) {
	if _, err := e.requireEvent(sourceID); err != nil {
		return nil, err
	}

	cfg := e.config()
	if maxDepth <= 0 {
		maxDepth = cfg.MaxDepth
	}
	snap := e.graph.Snapshot()

	result := &RippleResult{
		SourceID:   sourceID,
		ByCategory: make(map[string][]string),
	}

	type frontier struct {
		id       string
		hop      int
		pathConf float64
	}
	visited := map[string]struct{}{sourceID: {}}
	queue := []frontier{{id: sourceID, hop: 0, pathConf: 1.0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.hop >= maxDepth {
			if len(snap.Out[cur.id]) > 0 {
				result.BoundReached = true
			}
			continue
		}

		for _, edge := range snap.Out[cur.id] {
			if _, seen := visited[edge.TargetID]; seen {
				continue
			}
			visited[edge.TargetID] = struct{}{}

			pathConf := cur.pathConf
			if edge.Confidence < pathConf {
				pathConf = edge.Confidence
			}

			hop := cur.hop + 1
			effect := RippleEffect{
				EventID:        edge.TargetID,
				Hop:            hop,
				Level:          impactLevelForHop(hop),
				PathConfidence: pathConf,
				Via:            edge,
			}
			result.Effects = append(result.Effects, effect)

			if event, ok := e.events.Get(edge.TargetID); ok {
				result.ByCategory[event.Category] = append(result.ByCategory[event.Category], edge.TargetID)
			}

			// Weak paths are reported but pruned from expansion
			if pathConf >= cfg.ConfidenceFloor {
				queue = append(queue, frontier{id: edge.TargetID, hop: hop, pathConf: pathConf})
			}
		}
	}

	sort.Slice(result.Effects, func(i, j int) bool {
		if result.Effects[i].Hop != result.Effects[j].Hop {
			return result.Effects[i].Hop < result.Effects[j].Hop
		}
		return result.Effects[i].EventID < result.Effects[j].EventID
	})
	for _, ids := range result.ByCategory {
		sort.Strings(ids)
	}

	e.logger.Debug("ripple from %s: %d effects, bound_reached=%v",
		sourceID, len(result.Effects), result.BoundReached)
	return result, nil
}
