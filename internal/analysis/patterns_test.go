package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbracken/newsgraph/internal/models"
)

func TestMatchPatternsTradeWarCascade(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"tariff", "retaliation", "winner"} {
		f.event(id)
	}
	f.edge("tariff", "retaliation", models.RelationTriggersRetaliation, 0.9)
	f.edge("retaliation", "winner", models.RelationCreatesOpportunity, 0.7)

	matches := f.engine.MatchPatterns(nil)
	require.Len(t, matches, 1)
	assert.Equal(t, "trade-war-cascade", matches[0].Template)
	assert.Equal(t, []string{"tariff", "retaliation", "winner"}, matches[0].EventIDs)
	assert.InDelta(t, 0.7, matches[0].Confidence, 1e-9)
}

func TestMatchPatternsTypeOrderMatters(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c"} {
		f.event(id)
	}
	// Same types as trade-war-cascade, but reversed order
	f.edge("a", "b", models.RelationCreatesOpportunity, 0.9)
	f.edge("b", "c", models.RelationTriggersRetaliation, 0.9)

	tmpl := []Template{{
		Name: "trade-war-cascade",
		Sequence: []models.RelationType{
			models.RelationTriggersRetaliation,
			models.RelationCreatesOpportunity,
		},
	}}
	assert.Empty(t, f.engine.MatchPatterns(tmpl))
}

func TestMatchPatternsBranchesYieldMultipleMatches(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"src", "mid", "t1", "t2"} {
		f.event(id)
	}
	f.edge("src", "mid", models.RelationDisruptsSupplyChain, 0.8)
	f.edge("mid", "t1", models.RelationShiftsCompetition, 0.9)
	f.edge("mid", "t2", models.RelationShiftsCompetition, 0.6)

	tmpl := []Template{{
		Name: "supply-shock",
		Sequence: []models.RelationType{
			models.RelationDisruptsSupplyChain,
			models.RelationShiftsCompetition,
		},
	}}
	matches := f.engine.MatchPatterns(tmpl)
	require.Len(t, matches, 2)
	// Sorted by confidence descending
	assert.Equal(t, []string{"src", "mid", "t1"}, matches[0].EventIDs)
	assert.InDelta(t, 0.8, matches[0].Confidence, 1e-9)
	assert.Equal(t, []string{"src", "mid", "t2"}, matches[1].EventIDs)
	assert.InDelta(t, 0.6, matches[1].Confidence, 1e-9)
}

func TestTemplateValidate(t *testing.T) {
	cases := []struct {
		name    string
		tmpl    Template
		wantErr bool
	}{
		{
			name: "valid",
			tmpl: Template{Name: "x", Sequence: []models.RelationType{models.RelationCauses}},
		},
		{
			name:    "empty name",
			tmpl:    Template{Sequence: []models.RelationType{models.RelationCauses}},
			wantErr: true,
		},
		{
			name:    "empty sequence",
			tmpl:    Template{Name: "x"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			tmpl:    Template{Name: "x", Sequence: []models.RelationType{"EXPLODES"}},
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tmpl.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	doc := `templates:
  - name: custom-cascade
    sequence: [CAUSES, IMPACTS_FINANCE]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	templates, err := LoadTemplates(path)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "custom-cascade", templates[0].Name)
	assert.Equal(t, []models.RelationType{
		models.RelationCauses,
		models.RelationImpactsFinance,
	}, templates[0].Sequence)
}

func TestLoadTemplatesRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	doc := `templates:
  - name: bad
    sequence: [NOT_A_TYPE]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	_, err := LoadTemplates(path)
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

func TestCascades(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"e1", "e2", "e3", "e4"} {
		f.event(id)
	}
	f.edge("e1", "e2", models.RelationCauses, 0.9)
	f.edge("e2", "e3", models.RelationDisruptsSupplyChain, 0.8)
	f.edge("e3", "e4", models.RelationImpactsFinance, 0.7)

	chains := f.engine.Cascades()
	require.Len(t, chains, 1)
	chain := chains[0]
	assert.NotEmpty(t, chain.ID)
	require.Len(t, chain.Nodes, 4)
	assert.Equal(t, "e1", chain.Nodes[0].EventID)
	assert.Equal(t, "e4", chain.Nodes[3].EventID)
	assert.InDelta(t, 0.7, chain.Confidence, 1e-9)
	assert.InDelta(t, 20.0, chain.TotalImpact, 1e-9)
	assert.Greater(t, chain.Score, 0.0)
}

func TestCascadesRequireThreeHops(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"e1", "e2", "e3"} {
		f.event(id)
	}
	f.edge("e1", "e2", models.RelationCauses, 0.9)
	f.edge("e2", "e3", models.RelationCauses, 0.9)

	assert.Empty(t, f.engine.Cascades())
}

func TestCascadesPruneBelowFloor(t *testing.T) {
	f := newFixture(t)
	f.cfg.ConfidenceFloor = 0.5
	for _, id := range []string{"e1", "e2", "e3", "e4"} {
		f.event(id)
	}
	f.edge("e1", "e2", models.RelationCauses, 0.9)
	f.edge("e2", "e3", models.RelationCauses, 0.4)
	f.edge("e3", "e4", models.RelationCauses, 0.9)

	assert.Empty(t, f.engine.Cascades())
}

func TestHubs(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"hub", "s1", "s2", "s3", "t1", "t2", "t3", "iso1", "iso2", "iso3"} {
		f.event(id)
	}
	for _, src := range []string{"s1", "s2", "s3"} {
		f.edge(src, "hub", models.RelationCauses, 0.8)
	}
	for _, dst := range []string{"t1", "t2", "t3"} {
		f.edge("hub", dst, models.RelationCauses, 0.8)
	}

	hubs := f.engine.Hubs()
	require.Len(t, hubs, 1)
	assert.Equal(t, "hub", hubs[0].EventID)
	assert.Equal(t, 6, hubs[0].Degree)
}

func TestHubsEmptyGraph(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.engine.Hubs())
}
