package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// MessageSender часть *bot.Bot, которая нужна для отправки
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramForwarder дублирует уведомления в Telegram тем, кто привязал чат
type TelegramForwarder struct {
	sender  MessageSender
	baseURL string
}

// NewTelegramBot создаёт клиента Bot API без запроса getMe при старте
func NewTelegramBot(token string) (*bot.Bot, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return b, nil
}

func NewTelegramForwarder(sender MessageSender, baseURL string) *TelegramForwarder {
	return &TelegramForwarder{sender: sender, baseURL: strings.TrimRight(baseURL, "/")}
}

// Forward пользователи без telegram_chat_id пропускаются
func (f *TelegramForwarder) Forward(ctx context.Context, user *model.User, message, link string) error {
	if user.TelegramChatID == nil {
		return nil
	}

	text := message
	if link != "" && f.baseURL != "" {
		text += "\n" + f.baseURL + link
	}

	_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramChatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
