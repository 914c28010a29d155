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

	"github.com/selivandex/newstrader/internal/adapters/ai"
	"github.com/selivandex/newstrader/internal/adapters/clickhouse"
	"github.com/selivandex/newstrader/internal/adapters/config"
	"github.com/selivandex/newstrader/internal/adapters/database"
	embstore "github.com/selivandex/newstrader/internal/adapters/embeddings"
	"github.com/selivandex/newstrader/internal/adapters/news"
	"github.com/selivandex/newstrader/internal/adapters/price"
	"github.com/selivandex/newstrader/internal/adapters/telegram"
	"github.com/selivandex/newstrader/internal/analysis"
	"github.com/selivandex/newstrader/internal/sentiment"
	signals "github.com/selivandex/newstrader/internal/signal"
	"github.com/selivandex/newstrader/internal/simulation"
	"github.com/selivandex/newstrader/pkg/embeddings"
	"github.com/selivandex/newstrader/pkg/logger"
	"github.com/selivandex/newstrader/pkg/metrics"
)

func main() {
	var (
		fromDate   = flag.String("from", "", "Start date (YYYY-MM-DD)")
		toDate     = flag.String("to", "", "End date (YYYY-MM-DD)")
		notional   = flag.Float64("notional", 0, "Per-position notional, overrides TRADING_POSITION_NOTIONAL")
		model      = flag.String("model", "", "Analysis model (keyword or llm), overrides ANALYSIS_MODEL")
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
	if *notional > 0 {
		cfg.Trading.PositionNotional = *notional
	}
	if *model != "" {
		cfg.Analysis.Model = *model
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, startDate, endDate, *migrations); err != nil {
		logger.Error("backtest failed", zap.Error(err))
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

	var telemetry metrics.Buffer
	if buffered := initTelemetry(cfg); buffered != nil {
		telemetry = buffered
		defer buffered.Close(context.Background())
	}

	classifier, err := initClassifier(cfg, db)
	if err != nil {
		return err
	}

	judgmentRepo := analysis.NewRepository(db.DB())
	pipeline := analysis.NewPipeline(analysis.PipelineConfig{
		Classifier: classifier,
		Store:      judgmentRepo,
		Telemetry:  telemetry,
		Workers:    cfg.Analysis.Workers,
		Timeout:    cfg.Analysis.ClassifyTimeout,
	})

	priceStore := price.WithRetry(price.NewRepository(db.DB()), 2, time.Second)
	simRepo := simulation.NewRepository(db.DB())

	engine := simulation.NewEngine(simulation.EngineConfig{
		Headlines:     news.NewRepository(db.DB()),
		Pipeline:      pipeline,
		Judgments:     judgmentRepo,
		Signals:       signals.NewAggregator(cfg.Trading.MaxPerSide),
		Ledger:        simulation.NewLedger(priceStore, cfg.Trading.PositionNotional),
		Store:         simRepo,
		Telemetry:     telemetry,
		InitialEquity: cfg.Trading.InitialEquity,
	})

	result, err := engine.Run(ctx, startDate, endDate)
	if err != nil {
		return err
	}

	printResult(result)

	if cfg.Telegram.TelegramEnabled() {
		notifier, err := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			logger.Warn("telegram notifier unavailable", zap.Error(err))
		} else if err := notifier.NotifyRunComplete(ctx, result.RunID, result.Metrics, result.TradingDays); err != nil {
			logger.Warn("failed to send run summary", zap.Error(err))
		}
	}

	return nil
}

// initTelemetry connects the optional ClickHouse sink. Telemetry is
// best-effort: failure to connect degrades to no telemetry
func initTelemetry(cfg *config.Config) *metrics.BufferedMetrics {
	if !cfg.ClickHouse.ClickHouseEnabled() {
		return nil
	}

	writer, err := clickhouse.Connect(cfg.ClickHouse.GetDSN())
	if err != nil {
		logger.Warn("ClickHouse not available, telemetry disabled", zap.Error(err))
		return nil
	}

	if err := writer.EnsureSchema(context.Background()); err != nil {
		logger.Warn("ClickHouse schema setup failed, telemetry disabled", zap.Error(err))
		writer.Close()
		return nil
	}

	return metrics.NewBufferedMetrics(metrics.BufferConfig{Writer: writer})
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

func printResult(result *simulation.RunResult) {
	m := result.Metrics

	fmt.Printf("\nBacktest run %d finished\n", result.RunID)
	fmt.Printf("Trading days:    %d\n", result.TradingDays)
	fmt.Printf("Starting value:  $%.2f\n", m.StartingPortfolioValue)
	fmt.Printf("Final value:     $%.2f\n", m.FinalPortfolioValue)
	fmt.Printf("Total return:    %.2f%%\n", m.TotalReturnPct)
	fmt.Printf("Sharpe ratio:    %.2f\n", m.SharpeRatio)
	fmt.Printf("Max drawdown:    %.2f%%\n", m.MaxDrawdownPct)
	fmt.Printf("Win rate:        %.1f%%\n", m.WinRatePct)
	fmt.Printf("Total trades:    %d\n", m.TotalTrades)
}
