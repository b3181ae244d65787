package controller

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// BotController принимает команды в Telegram. Уведомления отправляются через notify,
// а бот нужен только для того, чтобы пользователь узнал свой chat id
type BotController struct {
	bot    *bot.Bot
	logger *zap.Logger
}

func NewBotController(botInstance *bot.Bot, logger *zap.Logger) *BotController {
	return &BotController{bot: botInstance, logger: logger}
}

// RegisterHandlers регистрирует обработчики команд и меню
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handleHelp)

	return c.setCommands(ctx)
}

func (c *BotController) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	c.logger.Info("Telegram /start", zap.Int64("chat_id", chatID))

	c.reply(ctx, b, chatID, startText(chatID))
}

func (c *BotController) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	c.reply(ctx, b, update.Message.Chat.ID, helpText)
}

func (c *BotController) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		c.logger.Warn("Failed to send telegram reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func startText(chatID int64) string {
	return fmt.Sprintf("Your chat id is %d.\n\n"+
		"Save it as telegramChatId in your profile to receive session notifications here.", chatID)
}

const helpText = "This bot forwards counseling notifications.\n\n" +
	"/start - show your chat id\n" +
	"/help - show this message"

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "Show chat id for notifications"},
		{Command: "help", Description: "Help"},
	}

	if _, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: commands}); err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting telegram bot")
	c.bot.Start(ctx)
	return nil
}
