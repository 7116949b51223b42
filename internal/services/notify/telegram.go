// Package notify delivers run summaries to external channels. Notification
// failures never affect run outcomes.
package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
)

// TelegramNotifier posts run summaries to a Telegram chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger arbor.ILogger
}

// NewTelegramNotifier creates a Telegram notifier from a bot token and chat ID.
func NewTelegramNotifier(token string, chatID int64, logger arbor.ILogger) (interfaces.Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		logger: logger,
	}, nil
}

// RunCompleted sends a formatted summary of one orchestrator run.
func (t *TelegramNotifier) RunCompleted(result *models.RunResult) error {
	msg := tgbotapi.NewMessage(t.chatID, formatRunSummary(result))
	msg.ParseMode = "HTML"
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// formatRunSummary renders a run result as a short HTML message.
func formatRunSummary(result *models.RunResult) string {
	var b strings.Builder

	switch {
	case result.Message != "":
		fmt.Fprintf(&b, "ℹ️ <b>Venator</b>: %s", result.Message)
		return b.String()
	case result.Error != "" && result.SessionID == "":
		fmt.Fprintf(&b, "⚠️ <b>Venator run failed</b>\n%s", result.Error)
		return b.String()
	}

	fmt.Fprintf(&b, "🔎 <b>%s</b> — %s\n", result.Role, result.Location)
	for _, o := range result.Outcomes {
		if o.Success {
			fmt.Fprintf(&b, "✅ %s: %d jobs\n", o.Platform, o.JobsFound)
		} else {
			fmt.Fprintf(&b, "❌ %s: %s\n", o.Platform, o.Error)
		}
	}
	fmt.Fprintf(&b, "Total: %d jobs", result.TotalJobs())
	if result.CompletionError != "" {
		fmt.Fprintf(&b, "\n⚠️ completion failed: %s", result.CompletionError)
	}
	return b.String()
}
