package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"marketplace-migrator/internal/config"
	"marketplace-migrator/internal/domain/model"
	"marketplace-migrator/internal/domain/ports/adapter"
)

// TelegramNotifier posts a one-line completion summary to the operator's
// chat. Send-only; the bot never polls for updates.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *zerolog.Logger
}

var _ adapter.Notifier = (*TelegramNotifier)(nil)

func NewTelegramNotifier(cfg config.NotifyConfig, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	l := logger.With().Str("component", "TelegramNotifier").Logger()
	return &TelegramNotifier{bot: bot, chatID: cfg.ChatID, log: &l}, nil
}

func (n *TelegramNotifier) NotifyBatchDone(ctx context.Context, batch *model.MigrationBatch, summary *model.BatchSummary) error {
	text := fmt.Sprintf("Migration %s %s: %d succeeded, %d failed (account %s, %s mode)",
		batch.ID, batch.Status, summary.Succeeded, summary.Failed, batch.AccountKey, batch.Mode)
	if batch.LastError != "" {
		text += "\n" + batch.LastError
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	n.log.Debug().Str("batch_id", batch.ID).Msg("completion notification sent")
	return nil
}
