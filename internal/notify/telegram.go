// Package notify delivers pipeline notifications to external channels.
package notify

import (
	"context"
	"errors"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// requestTimeout bounds every Bot API call, including ones whose caller
// stopped waiting.
const requestTimeout = 15 * time.Second

var errMissingBotToken = errors.New("telegram bot token is empty")

// Sender delivers a plain-text message.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// TelegramSender posts messages to a single Telegram chat.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSender authorizes the bot token against the Telegram API.
func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	if token == "" {
		return nil, errMissingBotToken
	}
	return newTelegramSender(token, chatID, tgbotapi.APIEndpoint, requestTimeout)
}

func newTelegramSender(token string, chatID int64, endpoint string, timeout time.Duration) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

// Username returns the bot account name, for startup logs.
func (s *TelegramSender) Username() string {
	return s.bot.Self.UserName
}

// Send posts text to the configured chat. It returns once ctx is done even
// if the API call is still in flight.
func (s *TelegramSender) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.DisableWebPagePreview = true

	done := make(chan error, 1)
	go func() {
		_, err := s.bot.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
