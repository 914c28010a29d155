package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/selivandex/newstrader/internal/adapters/config"
	"github.com/selivandex/newstrader/internal/adapters/database"
	embstore "github.com/selivandex/newstrader/internal/adapters/embeddings"
	"github.com/selivandex/newstrader/internal/adapters/news"
	"github.com/selivandex/newstrader/pkg/embeddings"
	"github.com/selivandex/newstrader/pkg/logger"
)

// Embeds historical headlines into the reference document store so
// retrieval has something to match against.
func main() {
	var (
		fromDate   = flag.String("from", "", "Start date (YYYY-MM-DD)")
		toDate     = flag.String("to", "", "End date (YYYY-MM-DD)")
		migrations = flag.String("migrations", "./migrations", "Migrations directory")
	)
	flag.Parse()

	if *fromDate == "" || *toDate == "" {
		fmt.Fprintln(os.Stderr, "both -from and -to are required")
		os.Exit(1)
	}

	startDate, err := time.Parse("2006-01-02", *fromDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid start date: %v\n", err)
		os.Exit(1)
	}
	endDate, err := time.Parse("2006-01-02", *toDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid end date: %v\n", err)
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.OpenAI.APIKey == "" {
		fmt.Fprintln(os.Stderr, "OPENAI_API_KEY is required for backfill")
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, startDate, endDate, *migrations); err != nil {
		logger.Error("backfill failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, startDate, endDate time.Time, migrationsPath string) error {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db.Conn(), migrationsPath); err != nil {
		return err
	}

	headlineRepo := news.NewRepository(db.DB())

	total, err := headlineRepo.Count(ctx)
	if err != nil {
		return err
	}
	logger.Info("headline store", zap.Int64("total", total))

	// Match the attribution window boundaries: everything published
	// from the start date through end of the end date.
	windowEnd := endDate.AddDate(0, 0, 1)
	headlines, err := headlineRepo.GetHeadlines(ctx, startDate, windowEnd)
	if err != nil {
		return err
	}

	contents := embstore.HeadlineContents(headlines)
	if len(contents) == 0 {
		fmt.Println("No headlines in range, nothing to index")
		return nil
	}

	client := openai.NewClient(cfg.OpenAI.APIKey)
	embeddingRepo := embstore.NewRepository(db.DB())
	embedder := embeddings.NewClient(embeddings.Config{
		OpenAIClient: client,
		Repository:   embeddingRepo,
		Model:        openai.EmbeddingModel(cfg.OpenAI.EmbeddingModel),
	})
	retriever := embstore.NewRetriever(db.DB(), embedder, cfg.Retrieval.TopK)

	if err := retriever.Index(ctx, contents); err != nil {
		return err
	}

	hits, misses := embedder.DeduplicationStats()
	cached, err := embeddingRepo.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d reference documents (%d embedded, %d reused, %d cached total)\n",
		len(contents), misses, hits, cached)
	return nil
}
