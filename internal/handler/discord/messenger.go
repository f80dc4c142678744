// Package discord adapts the chat gateway to the command usecases: it parses
// prefixed messages, acknowledges them and delivers results by direct message.
package discord

import (
	"bytes"
	"context"
	"fmt"

	"FinBot/internal/domain/models"

	"github.com/bwmarrin/discordgo"
)

// Messenger sends chat messages.
type Messenger interface {
	ChannelMessage(ctx context.Context, channelID, content string) error
	DirectMessage(ctx context.Context, userID, content string, files []models.Attachment) error
}

// NewSession creates a bot session that receives guild and direct messages
// with their content.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	return s, nil
}

// SessionMessenger sends messages through a discordgo session.
type SessionMessenger struct {
	s *discordgo.Session
}

func NewSessionMessenger(s *discordgo.Session) *SessionMessenger {
	return &SessionMessenger{s: s}
}

func (m *SessionMessenger) ChannelMessage(ctx context.Context, channelID, content string) error {
	if _, err := m.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send to channel %s: %w", channelID, err)
	}
	return nil
}

func (m *SessionMessenger) DirectMessage(ctx context.Context, userID, content string, files []models.Attachment) error {
	ch, err := m.s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm with %s: %w", userID, err)
	}
	msg := &discordgo.MessageSend{Content: content}
	for _, f := range files {
		msg.Files = append(msg.Files, &discordgo.File{
			Name:        f.Name,
			ContentType: f.ContentType,
			Reader:      bytes.NewReader(f.Data),
		})
	}
	if _, err := m.s.ChannelMessageSendComplex(ch.ID, msg, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send dm to %s: %w", userID, err)
	}
	return nil
}

var _ Messenger = (*SessionMessenger)(nil)
