package discord

import (
	"context"
	"strings"
	"time"

	"FinBot/internal/domain/models"
	"FinBot/internal/usecase"
	"FinBot/pkg/logger"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// Dispatcher runs accepted commands off the gateway goroutine.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd models.Command) error
}

// Message is an incoming chat message.
type Message struct {
	AuthorID   string
	AuthorName string
	Bot        bool
	ChannelID  string
	Content    string
}

// Handler turns prefixed chat messages into dispatched commands.
type Handler struct {
	router     *Router
	messenger  Messenger
	dispatcher Dispatcher
	log        *logger.Logger
	prefix     string
	timeout    time.Duration
	now        func() time.Time
}

func NewHandler(router *Router, messenger Messenger, dispatcher Dispatcher, log *logger.Logger, prefix string) *Handler {
	if prefix == "" {
		prefix = "?"
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		router:     router,
		messenger:  messenger,
		dispatcher: dispatcher,
		log:        log,
		prefix:     prefix,
		timeout:    10 * time.Second,
		now:        time.Now,
	}
}

// OnMessageCreate is registered with the discordgo session.
func (h *Handler) OnMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	h.Handle(ctx, Message{
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		Bot:        m.Author.Bot,
		ChannelID:  m.ChannelID,
		Content:    m.Content,
	})
}

// Handle parses one message. Unprefixed and bot messages are ignored.
func (h *Handler) Handle(ctx context.Context, msg Message) {
	if msg.Bot || !strings.HasPrefix(msg.Content, h.prefix) {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(msg.Content, h.prefix))
	if len(fields) == 0 {
		return
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	if name == "help" {
		h.send(ctx, msg.ChannelID, h.router.Help(h.prefix))
		return
	}
	ack, ok := h.router.Ack(name)
	if !ok {
		h.send(ctx, msg.ChannelID, usecase.UserMessage(usecase.ErrUnknownCommand))
		return
	}
	if err := h.router.Validate(ctx, name, args); err != nil {
		h.send(ctx, msg.ChannelID, usecase.UserMessage(err))
		return
	}

	cmd := models.Command{
		ID:          uuid.NewString(),
		Name:        name,
		Args:        args,
		UserID:      msg.AuthorID,
		Username:    msg.AuthorName,
		ChannelID:   msg.ChannelID,
		RequestedAt: h.now().UTC(),
	}
	if err := h.dispatcher.Dispatch(ctx, cmd); err != nil {
		h.log.Error("dispatch command failed",
			logger.String("command", name),
			logger.String("user", msg.AuthorID),
			logger.Error(err),
		)
		h.send(ctx, msg.ChannelID, usecase.UserMessage(err))
		return
	}
	h.send(ctx, msg.ChannelID, ack)
	h.log.Debug("command dispatched", logger.String("id", cmd.ID), logger.String("command", name), logger.Strings("args", args))
}

func (h *Handler) send(ctx context.Context, channelID, content string) {
	if err := h.messenger.ChannelMessage(ctx, channelID, content); err != nil {
		h.log.Warn("channel message failed", logger.String("channel", channelID), logger.Error(err))
	}
}
