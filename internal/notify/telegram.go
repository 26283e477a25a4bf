package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramNotifier pushes digests to a single Telegram chat.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier authenticates against the Bot API.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{api: api, chatID: chatID}, nil
}

// SendDigest delivers the rendered digest to the configured chat.
func (n *TelegramNotifier) SendDigest(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// LogNotifier writes digests to the application log. It is the fallback when
// no Telegram credentials are configured.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier wraps the given logger.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// SendDigest logs the digest at info level.
func (n *LogNotifier) SendDigest(text string) error {
	n.log.Info("review digest", zap.String("digest", text))
	return nil
}
