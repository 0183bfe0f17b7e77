package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// MessageSender is the slice of the Telegram API the sink needs.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink delivers notification texts to manager chats.
type TelegramSink struct {
	bot    MessageSender
	logger *zerolog.Logger
}

func NewTelegramSink(bot MessageSender, logger *zerolog.Logger) *TelegramSink {
	return &TelegramSink{bot: bot, logger: logger}
}

// NewBot creates the underlying Telegram client.
func NewBot(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

func (s *TelegramSink) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	s.logger.Debug().Int64("chat_id", chatID).Msg("notification delivered")
	return nil
}
