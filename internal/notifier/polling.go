package notifier

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Commands are the callbacks the bot's chat commands invoke. Both may
// be nil, in which case the command reports itself unavailable.
type Commands struct {
	// LatestPrices returns the formatted /price reply.
	LatestPrices func() (string, error)
	// RunCheck kicks off an out-of-schedule check. It is called on the
	// polling goroutine and should return quickly.
	RunCheck func()
}

// Poll long-polls Telegram for chat commands until ctx is cancelled.
func (n *Notifier) Poll(ctx context.Context, cmds Commands) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := n.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			n.bot.StopReceivingUpdates()
			n.log.Info().Msg("telegram polling stopped")
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			n.handleCommand(update.Message, cmds)
		}
	}
}

func (n *Notifier) handleCommand(msg *tgbotapi.Message, cmds Commands) {
	chatID := msg.Chat.ID
	n.log.Info().Str("command", msg.Command()).Int64("chat_id", chatID).Msg("command received")

	var reply string
	switch msg.Command() {
	case "start":
		if err := n.store.UpsertSubscriber(chatID, chatTitle(msg.Chat)); err != nil {
			n.log.Error().Err(err).Int64("chat_id", chatID).Msg("subscriber registration failed")
			reply = "⚠️ Registration failed, please try again later."
			break
		}
		reply = "✈️ Subscribed! You will now receive flight price alerts.\n\n" + helpText
	case "price":
		if cmds.LatestPrices == nil {
			reply = "⚠️ Price lookup is not available right now."
			break
		}
		text, err := cmds.LatestPrices()
		if err != nil {
			n.log.Error().Err(err).Msg("price lookup failed")
			reply = "⚠️ Could not read the latest prices."
			break
		}
		reply = text
	case "check":
		if cmds.RunCheck == nil {
			reply = "⚠️ Manual checks are not available right now."
			break
		}
		reply = "🔍 Checking prices now, results follow shortly..."
		cmds.RunCheck()
	default:
		reply = helpText
	}

	if err := n.send(chatID, reply); err != nil {
		n.log.Error().Err(err).Int64("chat_id", chatID).Msg("command reply failed")
	}
}

func chatTitle(chat *tgbotapi.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	if chat.UserName != "" {
		return "@" + chat.UserName
	}
	return chat.FirstName
}

const helpText = "Commands:\n" +
	"/start — subscribe to price alerts\n" +
	"/price — latest observed prices\n" +
	"/check — run a price check now"
