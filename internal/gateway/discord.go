package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

type DiscordGateway struct {
	Session *discordgo.Session
	Handler Handler
}

func NewDiscordGateway(token string, handler Handler) (*DiscordGateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages

	return &DiscordGateway{
		Session: session,
		Handler: handler,
	}, nil
}

func (dg *DiscordGateway) Start() error {
	dg.Session.AddHandler(dg.onMessage)
	if err := dg.Session.Open(); err != nil {
		return err
	}
	log.Printf("Discord gateway connected as %s", dg.Session.State.User.Username)
	return nil
}

func (dg *DiscordGateway) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}

	chatID := "dc-" + m.ChannelID
	stream, err := dg.Handler.Handle(context.Background(), chatID, m.Author.Username, m.Content)
	if err != nil {
		log.Printf("handler error for %s: %v", chatID, err)
		stream = "Sorry, something went wrong on my side. Please try again."
	}

	main, extras := RenderStream(stream)
	if main != "" {
		s.ChannelMessageSend(m.ChannelID, main)
	}
	for _, extra := range extras {
		s.ChannelMessageSend(m.ChannelID, extra)
	}
}

func (dg *DiscordGateway) Send(chatID string, text string) error {
	channelID := strings.TrimPrefix(chatID, "dc-")
	if channelID == chatID {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}
	_, err := dg.Session.ChannelMessageSend(channelID, text)
	return err
}

func (dg *DiscordGateway) Stop() error {
	return dg.Session.Close()
}
