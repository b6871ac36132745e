package analysis

import (
	"math"
	"sort"
)

// Hubs returns nodes whose combined in+out degree reaches the
// configured percentile of the current degree distribution. The
// threshold is recomputed on every call: the graph keeps mutating as
// ingestion continues, so a cached percentile would go stale.
func (e *Engine) Hubs() []Hub {
	cfg := e.config()
	snap := e.graph.Snapshot()

	ids := snap.NodeIDs()
	if len(ids) == 0 {
		return nil
	}

	degrees := make([]int, len(ids))
	for i, id := range ids {
		degrees[i] = snap.Degree(id)
	}

	threshold := percentile(degrees, cfg.HubPercentile)

	var hubs []Hub
	for i, id := range ids {
		if degrees[i] >= threshold && degrees[i] > 1 {
			hubs = append(hubs, Hub{EventID: id, Degree: degrees[i]})
		}
	}

	sort.Slice(hubs, func(i, j int) bool {
		if hubs[i].Degree != hubs[j].Degree {
			return hubs[i].Degree > hubs[j].Degree
		}
		return hubs[i].EventID < hubs[j].EventID
	})
	return hubs
}

// percentile returns the nearest-rank percentile of the values
func percentile(values []int, p float64) int {
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	rank := int(math.Ceil(p * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
