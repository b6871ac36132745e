package classifier

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/tbracken/newsgraph/internal/logging"
	"github.com/tbracken/newsgraph/internal/models"
)

// Config holds Anthropic classifier settings
type Config struct {
	Model     string
	MaxTokens int
}

// DefaultConfig returns the default classifier settings
func DefaultConfig() Config {
	return Config{
		Model:     "claude-sonnet-4-20250514",
		MaxTokens: 2048,
	}
}

// AnthropicClassifier implements Classifier using the Anthropic
// Messages API. The API key is read from the ANTHROPIC_API_KEY
// environment variable by default.
type AnthropicClassifier struct {
	client anthropic.Client
	config Config
	logger *logging.Logger
	now    func() time.Time
}

// NewAnthropicClassifier creates a classifier backed by the Anthropic API
func NewAnthropicClassifier(cfg Config) *AnthropicClassifier {
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	return &AnthropicClassifier{
		client: anthropic.NewClient(),
		config: cfg,
		logger: logging.GetLogger("classifier"),
		now:    time.Now,
	}
}

// NewAnthropicClassifierWithKey creates a classifier with an explicit API key
func NewAnthropicClassifierWithKey(apiKey string, cfg Config) *AnthropicClassifier {
	c := NewAnthropicClassifier(cfg)
	c.client = anthropic.NewClient(option.WithAPIKey(apiKey))
	return c
}

// ClassifyBatch sends one request covering the whole candidate batch
// and returns the validated relationships. API failures and malformed
// payloads surface as ExternalServiceError; the caller treats the
// batch as "no relationships discovered this round".
func (c *AnthropicClassifier) ClassifyBatch(ctx context.Context, source *models.Event, candidates []*models.Event) ([]models.Relationship, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	prompt := buildPrompt(source, candidates)

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, models.NewExternalServiceError("classifier", true, err)
	}

	var textParts []string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}

	parsed, err := parseResponse(strings.Join(textParts, ""))
	if err != nil {
		return nil, models.NewExternalServiceError("classifier", false, err)
	}

	rels := validateResponse(parsed, source, candidates, c.now(), c.logger)
	c.logger.DebugWithFields("batch classified",
		logging.Field("source_id", source.ID),
		logging.Field("candidates", len(candidates)),
		logging.Field("relationships", len(rels)),
	)
	return rels, nil
}
