package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sender is the subset of *tgbotapi.BotAPI used for delivery.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends one plain-text message per recipient chat.
type Telegram struct {
	sender Sender
}

// NewTelegram authorizes against the Bot API with token.
func NewTelegram(token string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	log.Info().Str("bot", api.Self.UserName).Msg("telegram notifications enabled")
	return &Telegram{sender: api}, nil
}

// NewTelegramWithSender wraps an existing sender.
func NewTelegramWithSender(s Sender) *Telegram {
	return &Telegram{sender: s}
}

// Notify implements Notifier.
func (t *Telegram) Notify(ctx context.Context, ev Event) {
	lg := loggerFrom(ctx)
	text := Message(ev)
	for _, u := range ev.Recipients {
		if u.TelegramID == nil || strings.TrimSpace(*u.TelegramID) == "" {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		chatID, err := strconv.ParseInt(strings.TrimSpace(*u.TelegramID), 10, 64)
		if err != nil {
			lg.Warn().Uint("user_id", u.ID).Str("telegram_id", *u.TelegramID).Msg("telegram id is not a chat id; skipping")
			continue
		}
		if _, err := t.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			lg.Error().Err(err).
				Uint("user_id", u.ID).
				Uint("request_id", ev.Request.ID).
				Str("kind", string(ev.Kind)).
				Msg("telegram send failed")
		}
	}
}

// loggerFrom prefers the request-scoped logger carried by ctx.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if lg := zerolog.Ctx(ctx); lg != nil && lg.GetLevel() != zerolog.Disabled {
		return lg
	}
	return &log.Logger
}
