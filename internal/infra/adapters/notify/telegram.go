// File: internal/infra/adapters/notify/telegram.go
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"commerce-payload-bridge/internal/domain/ports/adapter"
)

var _ adapter.DunningNotifier = (*TelegramNotifier)(nil)

// TelegramNotifier posts renewal failures to the operations chat. Failed
// renewal charges need a human eye; the shopper-facing dunning email is the
// host's job.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *zerolog.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	l := logger.With().Str("component", "TelegramNotifier").Logger()
	return &TelegramNotifier{bot: bot, chatID: chatID, log: &l}, nil
}

func (n *TelegramNotifier) NotifyRenewalFailure(ctx context.Context, orderID int64, amount int64, reason string) error {
	text := fmt.Sprintf("Renewal charge failed\nOrder: #%d\nAmount: %d.%02d\nReason: %s",
		orderID, amount/100, amount%100, reason)
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	n.log.Debug().Int64("order_id", orderID).Msg("dunning notice sent")
	return nil
}

// NoopNotifier is used when no operations chat is configured.
type NoopNotifier struct{}

var _ adapter.DunningNotifier = (*NoopNotifier)(nil)

func (NoopNotifier) NotifyRenewalFailure(ctx context.Context, orderID int64, amount int64, reason string) error {
	return nil
}
