package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"detailing-intake-bot/internal/usecase"
)

// botAPI is the part of *tgbotapi.BotAPI the adapter needs.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// SendObserver is told about every Telegram send.
type SendObserver interface {
	ObserveSend(err error)
}

type nopObserver struct{}

func (nopObserver) ObserveSend(error) {}

// Sender throttles outbound calls so broadcasts and bursts of lead cards stay
// under the Bot API flood limits.
type Sender struct {
	bot     botAPI
	limiter *rate.Limiter
	obs     SendObserver
}

func NewSender(bot botAPI, limiter *rate.Limiter, obs SendObserver) *Sender {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if obs == nil {
		obs = nopObserver{}
	}
	return &Sender{bot: bot, limiter: limiter, obs: obs}
}

func (s *Sender) send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return tgbotapi.Message{}, fmt.Errorf("telegram: throttle: %w", err)
	}
	m, err := s.bot.Send(c)
	s.obs.ObserveSend(err)
	if err != nil {
		return m, fmt.Errorf("telegram: send: %w", err)
	}
	return m, nil
}

func (s *Sender) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := s.send(ctx, tgbotapi.NewMessage(chatID, text))
	return err
}

func (s *Sender) SendPhoto(ctx context.Context, chatID int64, fileID string, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	_, err := s.send(ctx, photo)
	return err
}

// SendOutbound delivers one dialog message with its keyboard.
func (s *Sender) SendOutbound(ctx context.Context, o usecase.Outbound) error {
	msg := tgbotapi.NewMessage(o.ChatID, o.Text)
	switch {
	case o.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	case len(o.Choices) > 0 || o.RequestContact:
		msg.ReplyMarkup = replyKeyboard(o.Choices, o.RequestContact)
	}
	_, err := s.send(ctx, msg)
	return err
}

func (s *Sender) SendInline(ctx context.Context, chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(kb.InlineKeyboard) > 0 {
		msg.ReplyMarkup = kb
	}
	_, err := s.send(ctx, msg)
	return err
}

func (s *Sender) SendPNG(ctx context.Context, chatID int64, name string, data []byte) error {
	_, err := s.send(ctx, tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data}))
	return err
}

func (s *Sender) EditMarkup(ctx context.Context, chatID int64, messageID int, kb tgbotapi.InlineKeyboardMarkup) error {
	_, err := s.send(ctx, tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, kb))
	return err
}

// Answer acknowledges a callback so the client stops showing a spinner.
func (s *Sender) Answer(ctx context.Context, callbackID string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram: throttle: %w", err)
	}
	_, err := s.bot.Request(tgbotapi.NewCallback(callbackID, ""))
	s.obs.ObserveSend(err)
	if err != nil {
		return fmt.Errorf("telegram: answer callback: %w", err)
	}
	return nil
}

var _ usecase.BroadcastSender = (*Sender)(nil)
