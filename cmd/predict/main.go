package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/selivandex/newstrader/internal/adapters/ai"
	"github.com/selivandex/newstrader/internal/adapters/config"
	"github.com/selivandex/newstrader/internal/adapters/database"
	embstore "github.com/selivandex/newstrader/internal/adapters/embeddings"
	"github.com/selivandex/newstrader/internal/adapters/news"
	"github.com/selivandex/newstrader/internal/adapters/telegram"
	"github.com/selivandex/newstrader/internal/analysis"
	"github.com/selivandex/newstrader/internal/realtime"
	"github.com/selivandex/newstrader/internal/sentiment"
	"github.com/selivandex/newstrader/pkg/embeddings"
	"github.com/selivandex/newstrader/pkg/logger"
	"github.com/selivandex/newstrader/pkg/models"
	"github.com/selivandex/newstrader/pkg/worker"
)

func main() {
	var (
		watch      = flag.Bool("watch", false, "Keep running, producing a prediction every interval")
		interval   = flag.Duration("interval", time.Hour, "Prediction interval in watch mode")
		latest     = flag.Bool("latest", false, "Print the latest stored prediction and exit")
		migrations = flag.String("migrations", "./migrations", "Migrations directory")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *migrations, *watch, *interval, *latest); err != nil {
		logger.Error("prediction failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, migrationsPath string, watch bool, interval time.Duration, latest bool) error {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db.Conn(), migrationsPath); err != nil {
		return err
	}

	predictionRepo := realtime.NewRepository(db.DB())

	if latest {
		prediction, err := predictionRepo.LatestPrediction(ctx)
		if err != nil {
			return err
		}
		printPrediction(prediction)
		return nil
	}

	classifier, err := initClassifier(cfg, db)
	if err != nil {
		return err
	}

	judgmentRepo := analysis.NewRepository(db.DB())
	pipeline := analysis.NewPipeline(analysis.PipelineConfig{
		Classifier: classifier,
		Store:      judgmentRepo,
		Workers:    cfg.Analysis.Workers,
		Timeout:    cfg.Analysis.ClassifyTimeout,
	})

	var notifier realtime.Notifier
	if cfg.Telegram.TelegramEnabled() {
		tg, err := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			logger.Warn("telegram notifier unavailable", zap.Error(err))
		} else {
			notifier = tg
		}
	}

	predictor := realtime.NewPredictor(realtime.PredictorConfig{
		Headlines:  news.NewRepository(db.DB()),
		Pipeline:   pipeline,
		Judgments:  judgmentRepo,
		Store:      predictionRepo,
		Notifier:   notifier,
		MaxPerSide: cfg.Trading.MaxPerSide,
	})

	if watch {
		watcher := worker.RunBackground(ctx, realtime.NewWatcher(predictor), interval)
		<-ctx.Done()
		watcher.Stop(30 * time.Second)
		return nil
	}

	prediction, err := predictor.RunPrediction(ctx)
	if err != nil {
		return err
	}
	printPrediction(prediction)
	return nil
}

// initClassifier builds the configured classification path
func initClassifier(cfg *config.Config, db *database.DB) (analysis.Classifier, error) {
	switch cfg.Analysis.Model {
	case "keyword":
		return sentiment.NewKeywordClassifier(), nil

	case "llm":
		client := openai.NewClient(cfg.OpenAI.APIKey)

		var retriever ai.Retriever
		if cfg.Retrieval.Enabled {
			embedder := embeddings.NewClient(embeddings.Config{
				OpenAIClient: client,
				Repository:   embstore.NewRepository(db.DB()),
				Model:        openai.EmbeddingModel(cfg.OpenAI.EmbeddingModel),
			})
			retriever = embstore.NewRetriever(db.DB(), embedder, cfg.Retrieval.TopK)
		}

		return ai.NewLLMClassifier(client, cfg.OpenAI.Model, retriever), nil

	default:
		return nil, fmt.Errorf("unknown analysis model %q", cfg.Analysis.Model)
	}
}

func printPrediction(p *models.Prediction) {
	fmt.Printf("\nPrediction %d at %s\n", p.ID, p.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("Long:             %s\n", formatSignals(p.LongSignals))
	fmt.Printf("Short:            %s\n", formatSignals(p.ShortSignals))
	fmt.Printf("Market sentiment: %+.2f\n", p.MarketSentiment)
	fmt.Printf("Articles:         %d across %d tickers\n", p.TotalArticles, p.UniqueTickers)
}

func formatSignals(signals []models.TickerSignal) string {
	if len(signals) == 0 {
		return "(none)"
	}
	parts := make([]string, 0, len(signals))
	for _, s := range signals {
		parts = append(parts, fmt.Sprintf("%s %+.2f", s.Ticker, s.Score))
	}
	return strings.Join(parts, ", ")
}
