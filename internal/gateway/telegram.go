package gateway

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramGateway struct {
	Bot     *tgbotapi.BotAPI
	Handler Handler
}

func NewTelegramGateway(token string, handler Handler) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	return &TelegramGateway{
		Bot:     bot,
		Handler: handler,
	}, nil
}

func (tg *TelegramGateway) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		log.Printf("[%s] %s", update.Message.From.UserName, update.Message.Text)

		ctx := context.Background()
		chatID := fmt.Sprintf("tg-%d", update.Message.Chat.ID)
		sender := update.Message.From.FirstName
		if sender == "" {
			sender = update.Message.From.UserName
		}

		stream, err := tg.Handler.Handle(ctx, chatID, sender, update.Message.Text)
		if err != nil {
			log.Printf("handler error for %s: %v", chatID, err)
			stream = "Sorry, something went wrong on my side. Please try again."
		}

		main, extras := RenderStream(stream)
		if main != "" {
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, main)
			tg.Bot.Send(msg)
		}
		for _, extra := range extras {
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, extra)
			tg.Bot.Send(msg)
		}
	}
	return nil
}

func (tg *TelegramGateway) Send(chatID string, text string) error {
	id := 0
	fmt.Sscanf(chatID, "tg-%d", &id)
	if id == 0 {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}

	msg := tgbotapi.NewMessage(int64(id), text)
	msg.ParseMode = "Markdown"
	_, err := tg.Bot.Send(msg)
	return err
}

func (tg *TelegramGateway) Stop() error {
	tg.Bot.StopReceivingUpdates()
	return nil
}
