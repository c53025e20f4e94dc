// Package analysis identifies unknown barcodes with the Gemini API.
package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"purepick/internal/scan"
)

const DefaultModel = "gemini-2.5-flash"

// contentGenerator is the subset of *genai.Models the analyzer needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAnalyzer asks Gemini, grounded with Google Search, to identify a
// barcode and score it.
type GeminiAnalyzer struct {
	models contentGenerator
	model  string
	logger *zap.Logger
}

func NewGeminiAnalyzer(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGeminiAnalyzer(client.Models, model, logger), nil
}

func newGeminiAnalyzer(models contentGenerator, model string, logger *zap.Logger) *GeminiAnalyzer {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiAnalyzer{models: models, model: model, logger: logger}
}

// Analyze implements scan.Analyzer.
func (a *GeminiAnalyzer) Analyze(ctx context.Context, barcode string, categories []string) (*scan.AnalysisResponse, error) {
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	start := time.Now()
	resp, err := a.models.GenerateContent(ctx, a.model, genai.Text(buildPrompt(barcode, categories)), config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	out := &scan.AnalysisResponse{Text: resp.Text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if resp.PromptFeedback != nil {
		out.BlockReason = string(resp.PromptFeedback.BlockReason)
	}

	a.logger.Debug("gemini analysis finished",
		zap.String("barcode", barcode),
		zap.String("model", a.model),
		zap.String("finish_reason", out.FinishReason),
		zap.Int("text_length", len(out.Text)),
		zap.Duration("duration", time.Since(start)))
	return out, nil
}
