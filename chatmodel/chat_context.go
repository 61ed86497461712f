package chatmodel

import (
	"context"
	"strconv"

	"github.com/effective-security/xdb/pkg/flake"
)

// ChatContext is the read-only execution context passed to a tool
// alongside its validated input.
// Tools may ignore it, and a nil ChatContext is valid.
type ChatContext interface {
	GetChatID() string
	// Bot returns the calling bot, or nil
	Bot() *Bot
	// Model returns the model selected for the chat, or empty string
	Model() string
	// AppData returns immutable app data
	AppData() any
}

type chatContext struct {
	chatID  string
	bot     *Bot
	model   string
	appData any
}

func (c *chatContext) GetChatID() string {
	return c.chatID
}

func (c *chatContext) Bot() *Bot {
	return c.bot
}

func (c *chatContext) Model() string {
	return c.model
}

func (c *chatContext) AppData() any {
	return c.appData
}

// NewChatContext returns ChatContext,
// if chatID is empty, a new one is generated.
func NewChatContext(chatID string, bot *Bot, model string, appData any) ChatContext {
	if bot != nil {
		// copy, so the caller can not change it after the fact
		cp := *bot
		bot = &cp
	}
	if chatID == "" {
		chatID = NewChatID()
	}
	return &chatContext{
		chatID:  chatID,
		bot:     bot,
		model:   model,
		appData: appData,
	}
}

type contextKey int

const (
	keyContext contextKey = iota
)

// WithChatContext returns a new context with ChatContext value
func WithChatContext(ctx context.Context, chatCtx ChatContext) context.Context {
	return context.WithValue(ctx, keyContext, chatCtx)
}

// GetChatContext retrieves the ChatContext from the context
func GetChatContext(ctx context.Context) ChatContext {
	if v, ok := ctx.Value(keyContext).(ChatContext); ok {
		return v
	}
	return nil
}

// GetChatID retrieves the chat ID from the provided context.
// If the context does not contain a ChatContext, it returns an empty string.
func GetChatID(ctx context.Context) string {
	if v, ok := ctx.Value(keyContext).(ChatContext); ok {
		return v.GetChatID()
	}
	return ""
}

// ChatID returns the chat ID of c, or empty string for nil c.
func ChatID(c ChatContext) string {
	if c == nil {
		return ""
	}
	return c.GetChatID()
}

// BotID returns the bot ID of c, or empty string when not available.
func BotID(c ChatContext) string {
	if c == nil || c.Bot() == nil {
		return ""
	}
	return c.Bot().ID
}

// NewChatID generates a new chat ID using the flake ID generator.
func NewChatID() string {
	return strconv.FormatUint(flake.DefaultIDGenerator.NextID(), 10)
}
