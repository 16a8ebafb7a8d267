package notifier

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"FlightWatch/internal/model"
)

// SubscriberStore is the slice of the repository the notifier needs:
// who to deliver to, and how to register newcomers.
type SubscriberStore interface {
	UpsertSubscriber(chatID int64, chatTitle string) error
	Subscribers() ([]model.Subscriber, error)
}

// Notifier delivers alert messages to every registered Telegram chat.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	store   SubscriberStore
	limiter *rate.Limiter
	log     zerolog.Logger
}

// New connects to the Telegram Bot API. interval spaces consecutive
// sends so bursts of alerts stay under the API's flood limits.
func New(token string, store SubscriberStore, interval time.Duration, log zerolog.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	log.Info().Str("bot", bot.Self.UserName).Msg("telegram bot authorized")

	if interval <= 0 {
		interval = time.Second
	}
	return &Notifier{
		bot:     bot,
		store:   store,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		log:     log,
	}, nil
}

// Broadcast sends the messages, in order, to every subscriber. A
// failure for one chat is logged and does not stop delivery to the
// rest; only repository and context errors abort the broadcast.
func (n *Notifier) Broadcast(ctx context.Context, messages []string) error {
	if len(messages) == 0 {
		return nil
	}
	subs, err := n.store.Subscribers()
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}
	if len(subs) == 0 {
		n.log.Warn().Msg("no subscribers registered, dropping messages")
		return nil
	}

	for _, msg := range messages {
		for _, sub := range subs {
			if err := n.limiter.Wait(ctx); err != nil {
				return err
			}
			if err := n.send(sub.ChatID, msg); err != nil {
				n.log.Error().Err(err).
					Int64("chat_id", sub.ChatID).
					Str("chat", sub.ChatTitle).
					Msg("telegram send failed")
			}
		}
	}
	n.log.Info().Int("messages", len(messages)).Int("subscribers", len(subs)).Msg("broadcast delivered")
	return nil
}

// BroadcastError tells subscribers a check failed and when the next
// attempt runs. Best effort; delivery failures are only logged.
func (n *Notifier) BroadcastError(ctx context.Context, stage string, cause error, nextRun time.Time) {
	if err := n.Broadcast(ctx, []string{FormatError(stage, cause, nextRun)}); err != nil {
		n.log.Error().Err(err).Msg("error broadcast failed")
	}
}

func (n *Notifier) send(chatID int64, text string) error {
	_, err := n.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
