package analysis

import (
	"sort"
	"strings"

	"github.com/tbracken/newsgraph/internal/models"
)

// FeedbackLoops detects directed cycles over edges at or above the
// loop confidence threshold. Each cycle is reported once, rotated so
// its smallest event id leads, with the weakest edge's confidence as
// the loop's overall strength.
//
// Detection is color-marking DFS, implemented iteratively. The visited
// marking is per traversal root rather than global, so densely cyclic
// graphs cannot starve later roots of their cycles; deduplication by
// canonical rotation keeps the output unique.
func (e *Engine) FeedbackLoops() []FeedbackLoop {
	cfg := e.config()
	snap := e.graph.Snapshot()

	var loops []FeedbackLoop
	seen := make(map[string]struct{})

	for _, root := range snap.NodeIDs() {
		const (
			white = 0
			gray  = 1
			black = 2
		)
		color := make(map[string]int)
		onStack := []string{}
		stackIndex := make(map[string]int)

		type frame struct {
			id   string
			next int
		}
		stack := []frame{{id: root}}
		color[root] = gray
		onStack = append(onStack, root)
		stackIndex[root] = 0

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := qualifyingEdges(snap.Out[top.id], cfg.LoopConfidenceThreshold)

			if top.next < len(edges) {
				edge := edges[top.next]
				top.next++

				switch color[edge.TargetID] {
				case white:
					color[edge.TargetID] = gray
					stackIndex[edge.TargetID] = len(onStack)
					onStack = append(onStack, edge.TargetID)
					stack = append(stack, frame{id: edge.TargetID})
				case gray:
					// Back edge: the slice of the gray stack from the
					// target onward is a cycle.
					cycle := append([]string{}, onStack[stackIndex[edge.TargetID]:]...)
					canonical := canonicalizeCycle(cycle)
					key := strings.Join(canonical, "\x00")
					if _, dup := seen[key]; !dup {
						seen[key] = struct{}{}
						loops = append(loops, FeedbackLoop{
							EventIDs: canonical,
							Strength: cycleStrength(snap.Edge, canonical),
						})
					}
				}
			} else {
				color[top.id] = black
				onStack = onStack[:len(onStack)-1]
				delete(stackIndex, top.id)
				stack = stack[:len(stack)-1]
			}
		}
	}

	sort.Slice(loops, func(i, j int) bool {
		if loops[i].Strength != loops[j].Strength {
			return loops[i].Strength > loops[j].Strength
		}
		return strings.Join(loops[i].EventIDs, ",") < strings.Join(loops[j].EventIDs, ",")
	})
	return loops
}

func qualifyingEdges(edges []models.Relationship, threshold float64) []models.Relationship {
	out := make([]models.Relationship, 0, len(edges))
	for _, edge := range edges {
		if edge.Confidence >= threshold {
			out = append(out, edge)
		}
	}
	return out
}

// canonicalizeCycle rotates the cycle so the smallest id comes first
func canonicalizeCycle(cycle []string) []string {
	if len(cycle) == 0 {
		return cycle
	}
	minIdx := 0
	for i, id := range cycle {
		if id < cycle[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[minIdx:]...)
	out = append(out, cycle[:minIdx]...)
	return out
}

// cycleStrength returns the weakest edge confidence around the loop
func cycleStrength(edge func(string, string) (models.Relationship, bool), cycle []string) float64 {
	strength := 1.0
	for i := range cycle {
		next := cycle[(i+1)%len(cycle)]
		if rel, ok := edge(cycle[i], next); ok && rel.Confidence < strength {
			strength = rel.Confidence
		}
	}
	return strength
}
