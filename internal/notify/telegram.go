// Package notify pushes booking lifecycle events to a managers chat.
// Everything here is best-effort: a delivery failure is logged and dropped,
// never propagated back into the booking path.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"slotnik/internal/events"
)

// TelegramNotifier forwards bus events to one Telegram chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zerolog.Logger
}

// NewTelegramNotifier creates a notifier for the given bot token and chat.
func NewTelegramNotifier(token string, chatID int64, debug bool, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = debug
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// Attach subscribes the notifier to booking lifecycle events on the bus.
func (n *TelegramNotifier) Attach(bus *events.Bus) {
	for _, eventType := range []string{events.BookingCreated, events.BookingUpdated, events.BookingCancelled} {
		bus.Subscribe(eventType, n.handle)
	}
}

func (n *TelegramNotifier) handle(event events.Event) error {
	msg := tgbotapi.NewMessage(n.chatID, formatEvent(event))
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Str("event_type", event.Type).Msg("telegram notification failed")
	}
	return nil
}

func formatEvent(event events.Event) string {
	var payload struct {
		ID      int64     `json:"id"`
		StaffID int64     `json:"staff_id"`
		Start   time.Time `json:"start"`
		End     time.Time `json:"end"`
		Status  string    `json:"status"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Sprintf("%s (event %s)", event.Type, event.ID)
	}

	var verb string
	switch event.Type {
	case events.BookingCreated:
		verb = "created"
	case events.BookingCancelled:
		verb = "cancelled"
	default:
		verb = "updated"
	}
	return fmt.Sprintf("Booking #%d %s: staff %d, %s %s–%s (%s)",
		payload.ID,
		verb,
		payload.StaffID,
		payload.Start.Format("02.01.2006"),
		payload.Start.Format("15:04"),
		payload.End.Format("15:04"),
		payload.Status,
	)
}
