package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/runnerr0/ecodash/internal/storage"
)

// FallbackTips is written when any stage of the pipeline fails.
const FallbackTips = "1. Enable data saver mode\n2. Close unused streaming tabs\n3. Schedule large downloads overnight"

const analysisSystemPrompt = `Analyze these digital usage patterns in detail. Consider:
- Energy consumption hotspots
- Data transmission efficiency
- Behavioral trends
- Technical optimization opportunities`

const actionSystemPrompt = `Convert this technical analysis into 3-5 clear action steps. Format each as:
"[Priority]. [Action] - [Rationale]"
Where:
- Priority = 1 (highest) to 5
- Action = Specific user behavior change
- Rationale = Brief technical justification (1 sentence)`

// actionTemperature is lower than the analysis stage so the action
// list stays deterministic.
const actionTemperature = 0.5

const actionMaxTokens = 300

// Pipeline turns per-service usage aggregates into optimization tips
// via two sequential text-generation calls: a technical analysis, then
// a conversion of that analysis into a numbered action list.
type Pipeline struct {
	gen         TextGenerator
	store       storage.Store
	temperature float64
	maxTokens   int
}

// NewPipeline creates a Pipeline writing results to store. temperature
// and maxTokens apply to the analysis stage.
func NewPipeline(gen TextGenerator, store storage.Store, temperature float64, maxTokens int) *Pipeline {
	return &Pipeline{
		gen:         gen,
		store:       store,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Run executes the full pipeline once and persists the result. A
// failure at either stage logs, writes the fixed fallback tips, and
// does not surface as an error: advisory text is best-effort. A
// canceled or superseded run writes nothing at all.
func (p *Pipeline) Run(ctx context.Context) error {
	tips, analysis, err := p.generate(ctx)
	if err != nil {
		// Superseded runs must not clobber a newer result.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("advisor: pipeline failed, using fallback tips: %v", err)
		return p.store.SetAdvisory(ctx, FallbackTips, "")
	}
	return p.store.SetAdvisory(ctx, tips, analysis)
}

// generate runs both stages and returns (tips, analysis).
func (p *Pipeline) generate(ctx context.Context) (string, string, error) {
	services, err := p.store.ServiceBreakdown(ctx)
	if err != nil {
		return "", "", fmt.Errorf("read usage breakdown: %w", err)
	}

	usage, err := json.Marshal(services)
	if err != nil {
		return "", "", fmt.Errorf("encode usage: %w", err)
	}

	analysis, err := p.gen.Complete(ctx, CompletionRequest{
		System:      analysisSystemPrompt,
		User:        fmt.Sprintf("Usage data: %s", usage),
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return "", "", fmt.Errorf("analysis stage: %w", err)
	}

	tips, err := p.gen.Complete(ctx, CompletionRequest{
		System:      actionSystemPrompt,
		User:        analysis,
		Temperature: actionTemperature,
		MaxTokens:   actionMaxTokens,
	})
	if err != nil {
		return "", "", fmt.Errorf("action stage: %w", err)
	}

	return tips, analysis, nil
}
