package analysis

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tbracken/newsgraph/internal/models"
)

// Template is an ordered relationship-type sequence describing a known
// causation archetype, e.g. tariff -> retaliation -> opportunity. A
// chain matches when its edge types, in order, equal the sequence;
// intermediate entities are unconstrained.
type Template struct {
	Name     string                `yaml:"name"`
	Sequence []models.RelationType `yaml:"sequence"`
}

// Validate checks the template is usable for matching
func (t *Template) Validate() error {
	if t.Name == "" {
		return models.NewValidationError("pattern template name must not be empty")
	}
	if len(t.Sequence) == 0 {
		return models.NewValidationError("pattern template %s: sequence must not be empty", t.Name)
	}
	for _, rt := range t.Sequence {
		if !rt.Valid() {
			return models.NewValidationError("pattern template %s: unknown type %q", t.Name, rt)
		}
	}
	return nil
}

// DefaultTemplates returns the built-in causation archetypes
func DefaultTemplates() []Template {
	return []Template{
		{
			Name: "trade-war-cascade",
			Sequence: []models.RelationType{
				models.RelationTriggersRetaliation,
				models.RelationCreatesOpportunity,
			},
		},
		{
			Name: "supply-shock",
			Sequence: []models.RelationType{
				models.RelationDisruptsSupplyChain,
				models.RelationShiftsCompetition,
			},
		},
		{
			Name: "regulatory-ripple",
			Sequence: []models.RelationType{
				models.RelationAffectsRegulation,
				models.RelationShiftsCompetition,
			},
		},
		{
			Name: "financial-contagion",
			Sequence: []models.RelationType{
				models.RelationImpactsFinance,
				models.RelationImpactsFinance,
			},
		},
		{
			Name: "direct-cascade",
			Sequence: []models.RelationType{
				models.RelationCauses,
				models.RelationCauses,
				models.RelationCauses,
			},
		},
	}
}

// LoadTemplates reads pattern templates from a YAML file of the form:
//
//	templates:
//	  - name: trade-war-cascade
//	    sequence: [TRIGGERS_RETALIATION, CREATES_OPPORTUNITY]
func LoadTemplates(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern templates from %q: %w", path, err)
	}

	var doc struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse pattern templates from %q: %w", path, err)
	}
	for i := range doc.Templates {
		if err := doc.Templates[i].Validate(); err != nil {
			return nil, err
		}
	}
	return doc.Templates, nil
}

// MatchPatterns enumerates chains whose edge-type sequences exactly
// align with one of the templates. Matches are deduplicated by event
// id sequence and sorted by confidence descending.
func (e *Engine) MatchPatterns(templates []Template) []PatternMatch {
	if templates == nil {
		templates = DefaultTemplates()
	}
	snap := e.graph.Snapshot()

	var matches []PatternMatch
	seen := make(map[string]struct{})

	for _, tmpl := range templates {
		for _, start := range snap.NodeIDs() {
			e.matchFrom(snap.Out, start, tmpl, &matches, seen)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return strings.Join(matches[i].EventIDs, ",") < strings.Join(matches[j].EventIDs, ",")
	})
	return matches
}

// matchFrom enumerates simple paths from start whose types follow the
// template sequence, using an explicit stack instead of recursion.
func (e *Engine) matchFrom(out map[string][]models.Relationship, start string, tmpl Template,
	matches *[]PatternMatch, seen map[string]struct{}) {

	type frame struct {
		path []models.Relationship
	}
	stack := []frame{{}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(cur.path) == len(tmpl.Sequence) {
			ids := make([]string, 0, len(cur.path)+1)
			ids = append(ids, start)
			conf := 1.0
			for _, edge := range cur.path {
				ids = append(ids, edge.TargetID)
				if edge.Confidence < conf {
					conf = edge.Confidence
				}
			}
			key := tmpl.Name + "\x00" + strings.Join(ids, "\x00")
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				*matches = append(*matches, PatternMatch{
					Template:   tmpl.Name,
					EventIDs:   ids,
					Confidence: conf,
				})
			}
			continue
		}

		tip := start
		if len(cur.path) > 0 {
			tip = cur.path[len(cur.path)-1].TargetID
		}
		wanted := tmpl.Sequence[len(cur.path)]
		for _, edge := range out[tip] {
			if edge.Type != wanted {
				continue
			}
			if pathContains(cur.path, edge.TargetID) || edge.TargetID == start {
				continue
			}
			next := make([]models.Relationship, len(cur.path), len(cur.path)+1)
			copy(next, cur.path)
			stack = append(stack, frame{path: append(next, edge)})
		}
	}
}

func pathContains(path []models.Relationship, id string) bool {
	for _, edge := range path {
		if edge.TargetID == id {
			return true
		}
	}
	return false
}
