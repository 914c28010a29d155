package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/selivandex/newstrader/pkg/logger"
	"github.com/selivandex/newstrader/pkg/models"
)

// Retriever finds historical analogues for a headline. It is an
// optional collaborator: a nil Retriever (or a failing one) must not
// break classification.
type Retriever interface {
	Similar(ctx context.Context, text string) ([]models.Evidence, []string, error)
}

// LLMClassifier is the multi-ticker classification path. One chat
// completion call per headline returns zero or more (ticker,
// sentiment) pairs, optionally grounded by retrieved analogues.
type LLMClassifier struct {
	client    *openai.Client
	retriever Retriever
	model     string
	known     map[string]bool
}

// NewLLMClassifier creates new LLM classifier. retriever may be nil.
func NewLLMClassifier(client *openai.Client, model string, retriever Retriever) *LLMClassifier {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &LLMClassifier{
		client:    client,
		retriever: retriever,
		model:     model,
		known:     sp500Tickers(),
	}
}

// Name returns classifier name for logging and telemetry
func (c *LLMClassifier) Name() string {
	return "llm"
}

// Classify asks the model which companies the headline affects and how
func (c *LLMClassifier) Classify(ctx context.Context, headline models.Headline) ([]models.TickerSentiment, []models.Evidence, error) {
	var (
		evidence  []models.Evidence
		analogues []string
	)

	if c.retriever != nil {
		var err error
		evidence, analogues, err = c.retriever.Similar(ctx, headline.Title)
		if err != nil {
			// Retrieval is enrichment only
			logger.Debug("retrieval failed, classifying without analogues",
				zap.Int64("headline_id", headline.ID),
				zap.Error(err),
			)
			evidence, analogues = nil, nil
		}
	}

	prompt := buildClassifyPrompt(headline, analogues)

	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, nil, fmt.Errorf("no choices in response")
	}

	content := resp.Choices[0].Message.Content
	logger.Debug("llm classification response",
		zap.Int64("headline_id", headline.ID),
		zap.Duration("latency", time.Since(startTime)),
		zap.String("response", content),
	)

	pairs, err := parseClassifyResponse(content)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse llm response: %w", err)
	}

	// Keep only index-grade tickers; the model likes to invent symbols
	valid := pairs[:0]
	for _, p := range pairs {
		if c.known[p.Ticker] {
			valid = append(valid, p)
		} else {
			logger.Debug("dropping unknown ticker from llm response",
				zap.String("ticker", p.Ticker),
			)
		}
	}

	if len(valid) == 0 {
		return nil, nil, nil
	}
	return valid, evidence, nil
}
