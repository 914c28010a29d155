package embeddings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/newstrader/pkg/embeddings"
	"github.com/selivandex/newstrader/pkg/logger"
	"github.com/selivandex/newstrader/pkg/models"
)

// Retriever finds reference documents similar to a headline via
// pgvector cosine distance. Used to enrich classification prompts
type Retriever struct {
	db     *sqlx.DB
	client *embeddings.Client
	topK   int
}

// NewRetriever creates new similarity retriever
func NewRetriever(db *sqlx.DB, client *embeddings.Client, topK int) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{db: db, client: client, topK: topK}
}

type referenceRow struct {
	ID         int64   `db:"id"`
	Content    string  `db:"content"`
	Similarity float64 `db:"similarity"`
}

// Similar returns evidence records and the matching document contents
// for the nearest reference documents to the given text
func (r *Retriever) Similar(ctx context.Context, text string) ([]models.Evidence, []string, error) {
	embedding, err := r.client.Generate(ctx, text)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to embed query text: %w", err)
	}

	query := `
		SELECT id, content, 1 - (embedding <=> $1::vector) AS similarity
		FROM reference_documents
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`

	var rows []referenceRow
	if err := r.db.SelectContext(ctx, &rows, query, vectorLiteral(embedding), r.topK); err != nil {
		return nil, nil, fmt.Errorf("failed to query reference documents: %w", err)
	}

	evidence := make([]models.Evidence, 0, len(rows))
	contents := make([]string, 0, len(rows))
	for _, row := range rows {
		evidence = append(evidence, models.Evidence{
			ReferenceID: row.ID,
			Similarity:  row.Similarity,
		})
		contents = append(contents, row.Content)
	}

	logger.Debug("retrieved similar reference documents",
		zap.Int("count", len(rows)),
	)

	return evidence, contents, nil
}

// Index stores reference documents with their embeddings for future retrieval
func (r *Retriever) Index(ctx context.Context, contents []string) error {
	if len(contents) == 0 {
		return nil
	}

	vectors, err := r.client.GenerateBatch(ctx, contents)
	if err != nil {
		return fmt.Errorf("failed to embed reference documents: %w", err)
	}

	query := `INSERT INTO reference_documents (content, embedding) VALUES ($1, $2::vector)`
	for i, content := range contents {
		if _, err := r.db.ExecContext(ctx, query, content, vectorLiteral(vectors[i])); err != nil {
			return fmt.Errorf("failed to insert reference document: %w", err)
		}
	}

	logger.Info("indexed reference documents", zap.Int("count", len(contents)))

	return nil
}

// HeadlineContents renders headlines as reference document contents,
// one per headline, in the form fed to Index
func HeadlineContents(headlines []models.Headline) []string {
	contents := make([]string, 0, len(headlines))
	for _, h := range headlines {
		content := strings.TrimSpace(h.Title)
		if content == "" {
			continue
		}
		if summary := strings.TrimSpace(h.Summary); summary != "" {
			content += ": " + summary
		}
		contents = append(contents, content)
	}
	return contents
}

// vectorLiteral renders an embedding in pgvector input syntax
func vectorLiteral(embedding []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
