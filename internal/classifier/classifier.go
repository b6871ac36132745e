// Package classifier adapts the external semantic classifier. It
// batches candidate pairs into one model request, parses the
// structured response, and drops anything that fails validation
// before it can reach the cache or graph.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tbracken/newsgraph/internal/logging"
	"github.com/tbracken/newsgraph/internal/models"
)

// Classifier is the semantic classifier contract: given a source event
// and a batch of candidates, return the discovered relationships.
// Implementations may return an empty slice; that is a valid answer,
// not an error.
type Classifier interface {
	ClassifyBatch(ctx context.Context, source *models.Event, candidates []*models.Event) ([]models.Relationship, error)
}

// rawRelationship mirrors the classifier's JSON response entries
type rawRelationship struct {
	TargetID    string  `json:"target_id"`
	Type        string  `json:"type"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

type rawResponse struct {
	Relationships []rawRelationship `json:"relationships"`
}

// buildPrompt creates the batch analysis prompt: taxonomy, source
// event, and numbered candidate summaries, with a JSON-only contract.
func buildPrompt(source *models.Event, candidates []*models.Event) string {
	var sb strings.Builder

	sb.WriteString("Analyze causal relationships between the source news event and each candidate event.\n\n")

	sb.WriteString("RELATIONSHIP TYPES:\n")
	for _, rt := range models.AllRelationTypes {
		fmt.Fprintf(&sb, "- %s: %s\n", rt, rt.Description())
	}

	sb.WriteString("\nSOURCE EVENT:\n")
	writeEventSummary(&sb, source, 300)

	sb.WriteString("\nCANDIDATE EVENTS:\n")
	for _, candidate := range candidates {
		sb.WriteString("\n")
		writeEventSummary(&sb, candidate, 200)
	}

	sb.WriteString(`
For each candidate, decide whether the SOURCE event causally affects it.
Focus on cause-effect relationships, not topical similarity.

Return ONLY a JSON object with this structure, no other text:
{
  "relationships": [
    {"target_id": "<candidate id>", "type": "<RELATIONSHIP_TYPE>", "confidence": 0.8, "explanation": "brief explanation"}
  ]
}

Rules:
- type must be one of the listed relationship types
- confidence is 0.0-1.0
- only include candidates with a meaningful causal link
- an empty "relationships" array is a valid answer`)

	return sb.String()
}

func writeEventSummary(sb *strings.Builder, event *models.Event, maxSummary int) {
	summary := event.Summary
	if len(summary) > maxSummary {
		summary = summary[:maxSummary] + "..."
	}
	entities := event.Entities
	if len(entities) > 5 {
		entities = entities[:5]
	}
	fmt.Fprintf(sb, "ID: %s\nTitle: %s\nCategory: %s\nEntities: %s\nSummary: %s\n",
		event.ID, event.Title, event.Category, strings.Join(entities, ", "), summary)
}

// parseResponse extracts the JSON object from the model's text output.
// Models occasionally wrap JSON in prose or code fences; everything
// outside the outermost braces is ignored.
func parseResponse(text string) (*rawResponse, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var resp rawResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}

// validateResponse converts raw entries into relationships, dropping
// malformed ones. An entry must reference a candidate from the
// submitted set, carry a recognized type, and a confidence in [0,1].
// Dropped entries are logged, never propagated.
func validateResponse(resp *rawResponse, source *models.Event, candidates []*models.Event,
	now time.Time, logger *logging.Logger) []models.Relationship {

	submitted := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		submitted[c.ID] = struct{}{}
	}

	var out []models.Relationship
	for _, raw := range resp.Relationships {
		rel := models.Relationship{
			SourceID:     source.ID,
			TargetID:     raw.TargetID,
			Type:         models.RelationType(raw.Type),
			Confidence:   raw.Confidence,
			Explanation:  raw.Explanation,
			DiscoveredAt: now,
		}

		if _, ok := submitted[raw.TargetID]; !ok {
			logger.WarnWithFields("dropping relationship with unknown target",
				logging.Field("source_id", source.ID),
				logging.Field("target_id", raw.TargetID),
			)
			continue
		}
		if err := rel.Validate(); err != nil {
			logger.WarnWithFields("dropping malformed relationship",
				logging.Field("source_id", source.ID),
				logging.Field("target_id", raw.TargetID),
				logging.Field("error", err.Error()),
			)
			continue
		}
		out = append(out, rel)
	}
	return out
}
