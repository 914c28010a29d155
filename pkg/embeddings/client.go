package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/selivandex/newstrader/pkg/logger"
)

// Repository interface for persistent embedding storage.
// Embeddings are deterministic and expensive, so they are stored
// permanently to avoid redundant API calls
type Repository interface {
	Get(ctx context.Context, textHash string) ([]float32, bool)
	Set(ctx context.Context, textHash string, embedding []float32, model string, textLength int) error
}

// Client handles embedding generation with deduplication via repository
type Client struct {
	repository Repository
	openai     *openai.Client
	model      openai.EmbeddingModel
	hits       int64
	misses     int64
}

// Config for embedding client
type Config struct {
	OpenAIClient *openai.Client
	Repository   Repository            // Optional repository for deduplication
	Model        openai.EmbeddingModel // Default: openai.AdaEmbeddingV2
}

// NewClient creates new embedding client with optional deduplication
func NewClient(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = openai.AdaEmbeddingV2
	}

	if cfg.Repository != nil {
		logger.Info("embedding deduplication enabled (Postgres repository)")
	}

	return &Client{
		openai:     cfg.OpenAIClient,
		repository: cfg.Repository,
		model:      model,
	}
}

// Generate creates embedding for single text with deduplication and retry
func (c *Client) Generate(ctx context.Context, text string) ([]float32, error) {
	if c.repository != nil {
		textHash := hashText(text)
		existing, found := c.repository.Get(ctx, textHash)
		if found {
			atomic.AddInt64(&c.hits, 1)
			logger.Debug("embedding deduplication hit",
				zap.Int("text_len", len(text)),
				zap.String("hash", textHash[:12]),
			)
			return existing, nil
		}
		atomic.AddInt64(&c.misses, 1)
	}

	if c.openai == nil {
		return nil, fmt.Errorf("OpenAI embedding client not configured - please set OPENAI_API_KEY")
	}

	embeddings, err := c.generateWithRetry(ctx, []string{text}, 3)
	if err != nil {
		return nil, fmt.Errorf("OpenAI embedding API failed after retries: %w", err)
	}

	if len(embeddings) == 0 {
		return nil, fmt.Errorf("OpenAI returned no embedding data")
	}

	result := embeddings[0]

	if c.repository != nil {
		textHash := hashText(text)
		if err := c.repository.Set(ctx, textHash, result, string(c.model), len(text)); err != nil {
			// Non-critical, continue
			logger.Warn("failed to store embedding in repository", zap.Error(err))
		}
	}

	logger.Debug("embedding generated via OpenAI API",
		zap.Int("text_len", len(text)),
		zap.Int("dim", len(result)),
	)

	return result, nil
}

// GenerateBatch creates embeddings for multiple texts (up to 2048 per batch).
// Uses repository for deduplication and retry with exponential backoff
func (c *Client) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	if c.openai == nil {
		return nil, fmt.Errorf("OpenAI embedding client not configured - please set OPENAI_API_KEY")
	}

	// OpenAI supports up to 2048 inputs per batch
	const maxBatchSize = 2048

	allEmbeddings := make([][]float32, len(texts))

	for i := 0; i < len(texts); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		var uncachedIndices []int
		var uncachedTexts []string

		for j, text := range batch {
			if c.repository != nil {
				existing, found := c.repository.Get(ctx, hashText(text))
				if found {
					atomic.AddInt64(&c.hits, 1)
					allEmbeddings[i+j] = existing
					continue
				}
				atomic.AddInt64(&c.misses, 1)
			}
			uncachedIndices = append(uncachedIndices, i+j)
			uncachedTexts = append(uncachedTexts, text)
		}

		if len(uncachedTexts) == 0 {
			continue
		}

		embeddings, err := c.generateWithRetry(ctx, uncachedTexts, 3)
		if err != nil {
			return nil, fmt.Errorf("batch embedding API failed after retries: %w", err)
		}

		if len(embeddings) != len(uncachedTexts) {
			return nil, fmt.Errorf("batch response size mismatch: expected %d, got %d", len(uncachedTexts), len(embeddings))
		}

		for j, embedding := range embeddings {
			allEmbeddings[uncachedIndices[j]] = embedding

			if c.repository != nil {
				if err := c.repository.Set(ctx, hashText(uncachedTexts[j]), embedding, string(c.model), len(uncachedTexts[j])); err != nil {
					logger.Warn("failed to store embedding in repository", zap.Error(err))
				}
			}
		}

		logger.Debug("batch embedding generation successful",
			zap.Int("batch_size", len(batch)),
			zap.Int("cached", len(batch)-len(uncachedTexts)),
			zap.Int("generated", len(uncachedTexts)),
		)
	}

	return allEmbeddings, nil
}

// generateWithRetry calls OpenAI API with exponential backoff retry
func (c *Client) generateWithRetry(ctx context.Context, texts []string, maxRetries int) ([][]float32, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			logger.Debug("retrying OpenAI embedding request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
			}
		}

		resp, err := c.openai.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: c.model,
			Input: texts,
		})
		if err == nil {
			embeddings := make([][]float32, len(resp.Data))
			for i, data := range resp.Data {
				embeddings[i] = data.Embedding
			}
			return embeddings, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			logger.Warn("non-retryable OpenAI error, aborting", zap.Error(err))
			return nil, err
		}

		logger.Warn("retryable OpenAI error encountered",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
		)
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, lastErr)
}

// isRetryableError checks if error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode >= 500
	}

	errStr := err.Error()

	if strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit") {
		return true
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return true
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "connection reset") {
		return true
	}
	if strings.Contains(errStr, "500") || strings.Contains(errStr, "502") || strings.Contains(errStr, "503") {
		return true
	}

	return false
}

// DeduplicationStats returns hit and miss counters
func (c *Client) DeduplicationStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// hashText creates SHA256 hash of text for the deduplication key
func hashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}
