package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/selivandex/newstrader/internal/adapters/config"
	"github.com/selivandex/newstrader/internal/adapters/database"
	"github.com/selivandex/newstrader/internal/analysis"
	"github.com/selivandex/newstrader/internal/simulation"
	"github.com/selivandex/newstrader/pkg/logger"
	"github.com/selivandex/newstrader/pkg/models"
)

func main() {
	var (
		list       = flag.Bool("list", false, "List all backtest runs")
		show       = flag.Int64("recap", 0, "Show daily recaps and metrics for a run")
		remove     = flag.Int64("delete", 0, "Delete a run and all its data")
		migrations = flag.String("migrations", "./migrations", "Migrations directory")
	)
	flag.Parse()

	if !*list && *show == 0 && *remove == 0 {
		fmt.Fprintln(os.Stderr, "one of -list, -recap <id> or -delete <id> is required")
		flag.Usage()
		os.Exit(1)
	}

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

	if err := run(ctx, cfg, *migrations, *list, *show, *remove); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, migrationsPath string, list bool, showID, removeID int64) error {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db.Conn(), migrationsPath); err != nil {
		return err
	}

	repo := simulation.NewRepository(db.DB())

	switch {
	case list:
		return listRuns(ctx, repo)
	case showID != 0:
		return showRun(ctx, repo, analysis.NewRepository(db.DB()), showID)
	default:
		return deleteRun(ctx, repo, removeID)
	}
}

func listRuns(ctx context.Context, repo *simulation.Repository) error {
	runs, err := repo.ListRuns(ctx)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	fmt.Printf("%-6s %-20s %-10s %-6s %-10s %-8s\n",
		"ID", "STARTED", "STATUS", "DAYS", "RETURN", "TRADES")
	for _, r := range runs {
		status := "running"
		ret := "-"
		if r.CompletedAt != nil {
			status = "done"
		}
		if r.FinalMetrics != nil {
			ret = fmt.Sprintf("%+.2f%%", r.FinalMetrics.TotalReturnPct)
		}
		fmt.Printf("%-6d %-20s %-10s %-6d %-10s %-8d\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04"), status, r.TradingDays, ret, r.TotalTrades)
	}
	return nil
}

func showRun(ctx context.Context, repo *simulation.Repository, judgments *analysis.Repository, runID int64) error {
	record, err := repo.GetRun(ctx, runID)
	if err != nil {
		return err
	}

	recaps, err := repo.GetRunRecaps(ctx, runID)
	if err != nil {
		return err
	}

	judgmentCount, err := judgments.CountForRun(ctx, runID)
	if err != nil {
		return err
	}

	fmt.Printf("\nRun %d, started %s, %d judgments\n",
		record.ID, record.StartedAt.Format("2006-01-02 15:04"), judgmentCount)
	for _, recap := range recaps {
		fmt.Printf("%s  long[%s] short[%s]  pnl %+.2f (%+.2f%%)  equity %.2f -> %.2f\n",
			recap.Date.Format("2006-01-02"),
			strings.Join(recap.Detail.Longs, " "),
			strings.Join(recap.Detail.Shorts, " "),
			recap.Detail.DailyPnL,
			recap.Detail.ReturnPct,
			recap.StartingEquity,
			recap.EndingEquity,
		)
	}

	if record.FinalMetrics != nil {
		printMetrics(*record.FinalMetrics)
	} else {
		fmt.Println("\nRun not completed, no final metrics")
	}
	return nil
}

func deleteRun(ctx context.Context, repo *simulation.Repository, runID int64) error {
	counts, err := repo.DeleteRun(ctx, runID)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted run %d: %d judgments, %d recaps\n", runID, counts.Judgments, counts.Recaps)
	return nil
}

func printMetrics(m models.Metrics) {
	fmt.Printf("\nTotal return:  %.2f%%\n", m.TotalReturnPct)
	fmt.Printf("Sharpe ratio:  %.2f\n", m.SharpeRatio)
	fmt.Printf("Max drawdown:  %.2f%%\n", m.MaxDrawdownPct)
	fmt.Printf("Win rate:      %.1f%%\n", m.WinRatePct)
	fmt.Printf("Total trades:  %d\n", m.TotalTrades)
}
