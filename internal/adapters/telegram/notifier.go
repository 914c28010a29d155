package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/selivandex/newstrader/pkg/logger"
	"github.com/selivandex/newstrader/pkg/models"
)

// Notifier sends run and prediction alerts to a configured chat
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewNotifier creates new Telegram notifier
func NewNotifier(botToken string, chatID int64) (*Notifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
	)

	return &Notifier{api: bot, chatID: chatID}, nil
}

// NotifyPrediction sends a live signal snapshot
func (n *Notifier) NotifyPrediction(_ context.Context, p models.Prediction) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Live signal #%d* (%s)\n\n", p.ID, p.Timestamp.Format("2006-01-02 15:04"))

	if len(p.LongTickers) == 0 && len(p.ShortTickers) == 0 {
		sb.WriteString("No balanced signal from the current news window.\n")
	} else {
		fmt.Fprintf(&sb, "Long: `%s`\n", strings.Join(p.LongTickers, " "))
		fmt.Fprintf(&sb, "Short: `%s`\n", strings.Join(p.ShortTickers, " "))
	}

	fmt.Fprintf(&sb, "\nMarket sentiment: %.2f\n", p.MarketSentiment)
	fmt.Fprintf(&sb, "Articles: %d, tickers: %d\n", p.TotalArticles, p.UniqueTickers)

	return n.sendMarkdown(sb.String())
}

// NotifyRunComplete sends a backtest completion summary
func (n *Notifier) NotifyRunComplete(_ context.Context, runID int64, m models.Metrics, tradingDays int) error {
	sign := ""
	if m.TotalReturnPct > 0 {
		sign = "+"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*Backtest #%d finished*\n\n", runID)
	fmt.Fprintf(&sb, "Return: %s%.2f%% over %d trading days\n", sign, m.TotalReturnPct, tradingDays)
	fmt.Fprintf(&sb, "Final value: %.2f\n", m.FinalPortfolioValue)
	fmt.Fprintf(&sb, "Sharpe: %.2f, max drawdown: %.2f%%\n", m.SharpeRatio, m.MaxDrawdownPct)
	fmt.Fprintf(&sb, "Trades: %d, win rate: %.1f%%\n", m.TotalTrades, m.WinRatePct)

	return n.sendMarkdown(sb.String())
}

func (n *Notifier) sendMarkdown(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = "Markdown"

	if _, err := n.api.Send(msg); err != nil {
		logger.Error("failed to send telegram message",
			zap.Int64("chat_id", n.chatID),
			zap.Error(err),
		)
		return err
	}

	return nil
}
