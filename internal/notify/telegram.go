package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"parkhive/internal/domain"
	"parkhive/internal/events"
	"parkhive/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// UserSource resolves recipients to their Telegram chats.
type UserSource interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// TelegramNotifier pushes request lifecycle notifications to owners and
// requesters over Telegram. Users without a linked chat are skipped.
type TelegramNotifier struct {
	repo   UserSource
	sender domain.TelegramSender
	logger zerolog.Logger
}

func NewTelegramNotifier(repo UserSource, sender domain.TelegramSender, logger *zerolog.Logger) *TelegramNotifier {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "telegram_notifier").Logger()
	}
	return &TelegramNotifier{
		repo:   repo,
		sender: sender,
		logger: l,
	}
}

// Subscribe wires the notifier to the event bus.
func (n *TelegramNotifier) Subscribe(ctx context.Context, bus *events.EventBus) {
	if bus == nil {
		return
	}

	bus.Subscribe(events.EventRequestCreated, n.handler(ctx))
	bus.Subscribe(events.EventRequestApproved, n.handler(ctx))
	bus.Subscribe(events.EventRequestDenied, n.handler(ctx))
	bus.Subscribe(events.EventRequestEndRequested, n.handler(ctx))
	bus.Subscribe(events.EventRequestEnded, n.handler(ctx))
	bus.Subscribe(events.EventRequestPaid, n.handler(ctx))
}

func (n *TelegramNotifier) handler(ctx context.Context) events.EventHandler {
	return func(ev *events.Event) error {
		var payload events.RequestEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			n.logger.Error().Err(err).Str("event", ev.Type).Msg("decode payload")
			return nil
		}
		n.notify(ctx, ev.Type, payload)
		return nil
	}
}

func (n *TelegramNotifier) notify(ctx context.Context, eventType string, payload events.RequestEventPayload) {
	recipientID, message := n.compose(eventType, payload)
	if recipientID == 0 || message == "" {
		return
	}

	user, err := n.repo.GetUserByID(ctx, recipientID)
	if err != nil {
		n.logger.Error().Err(err).Int64("user_id", recipientID).Str("event", eventType).Msg("load recipient")
		return
	}
	if user.TelegramChatID == 0 {
		return
	}

	msg := tgbotapi.NewMessage(user.TelegramChatID, message)
	if _, err := n.sender.Send(msg); err != nil {
		n.logger.Error().Err(err).Int64("chat_id", user.TelegramChatID).Str("event", eventType).Msg("send notification")
	}
}

// compose picks the recipient and builds the message text for an event.
func (n *TelegramNotifier) compose(eventType string, p events.RequestEventPayload) (int64, string) {
	switch eventType {
	case events.EventRequestCreated:
		return p.OwnerID, fmt.Sprintf(`🆕 New parking request:

🅿️ Space: %s
👤 Requester: %d
🆔 Request ID: %d`, p.SpaceName, p.UserID, p.RequestID)
	case events.EventRequestApproved:
		return p.UserID, fmt.Sprintf(`✅ Your request #%d for %s was approved. Parking has started.`, p.RequestID, p.SpaceName)
	case events.EventRequestDenied:
		return p.UserID, fmt.Sprintf(`❌ Your request #%d for %s was declined.`, p.RequestID, p.SpaceName)
	case events.EventRequestEndRequested:
		return p.OwnerID, fmt.Sprintf(`🔚 End of parking requested:

🅿️ Space: %s
🆔 Request ID: %d

Please confirm the session end.`, p.SpaceName, p.RequestID)
	case events.EventRequestEnded:
		return p.UserID, fmt.Sprintf(`🧾 Parking session #%d at %s has ended.

💰 Amount due: %.0f`, p.RequestID, p.SpaceName, p.TotalAmount)
	case events.EventRequestPaid:
		return p.OwnerID, fmt.Sprintf(`💸 Request #%d at %s was paid: %.0f`, p.RequestID, p.SpaceName, p.TotalAmount)
	}
	return 0, ""
}
