package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/markjakearzadon/confticket-gobackend/internal/services"
)

// API is the subset of the bot client used here.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetMe() (tgbotapi.User, error)
}

type Registrar interface {
	Register(ctx context.Context, phone, identity string) error
}

// defaultPollSeconds is the long-poll window when the HTTP client is unbounded.
const defaultPollSeconds = 60

type Bot struct {
	api         API
	log         *zap.Logger
	pollSeconds int
}

// New authorizes the bot against the public Bot API. Every API call, uploads
// included, is bounded by timeout.
func New(token string, timeout time.Duration, log *zap.Logger) (*Bot, error) {
	return NewWithEndpoint(token, tgbotapi.APIEndpoint, timeout, log)
}

func NewWithEndpoint(token, endpoint string, timeout time.Duration, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to start telegram bot: %w", err)
	}
	log.Info("Telegram bot authorized", zap.String("username", api.Self.UserName))
	bot := NewWithAPI(api, log)
	// The server holds a long poll open; it must return before the client gives up.
	bot.pollSeconds = max(1, int((timeout / 2).Seconds()))
	return bot, nil
}

func NewWithAPI(api API, log *zap.Logger) *Bot {
	return &Bot{api: api, log: log, pollSeconds: defaultPollSeconds}
}

// SendPhoto sends image with an HTML caption to the chat id in recipient.
// A user who blocked the bot yields services.ErrRecipientBlocked.
func (b *Bot) SendPhoto(ctx context.Context, recipient string, image []byte, caption string) error {
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", recipient, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "ticket.png", Bytes: image})
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML

	if _, err := b.api.Send(photo); err != nil {
		if isBlocked(err) {
			return fmt.Errorf("%w: %v", services.ErrRecipientBlocked, err)
		}
		return err
	}
	return nil
}

// Ping checks that the bot token is still accepted.
func (b *Bot) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.api.GetMe(); err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	return nil
}

func isBlocked(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "bot was blocked") || strings.Contains(msg, "user is deactivated")
}

// ListenContacts registers every contact a user shares with the bot until ctx
// is done.
func (b *Bot) ListenContacts(ctx context.Context, registrar Registrar) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollSeconds
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, registrar, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, registrar Registrar, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Contact == nil || msg.Contact.PhoneNumber == "" || msg.Chat == nil {
		return
	}

	chatID := msg.Chat.ID
	// A forwarded contact card carries someone else's number.
	if msg.From == nil || msg.Contact.UserID != msg.From.ID {
		b.log.Warn("Ignoring contact not owned by sender", zap.Int64("chat_id", chatID))
		reply := tgbotapi.NewMessage(chatID, "⚠️ Please share your own number using the button below.")
		if _, err := b.api.Send(reply); err != nil {
			b.log.Warn("Failed to reject shared contact", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		return
	}

	if err := registrar.Register(ctx, msg.Contact.PhoneNumber, strconv.FormatInt(chatID, 10)); err != nil {
		b.log.Error("Failed to register shared contact", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	name := msg.Chat.FirstName
	if name == "" {
		name = "there"
	}
	reply := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"👋 Hi %s!\n✅ Your number %s is linked. Your tickets will arrive here.",
		name, services.NormalizePhone(msg.Contact.PhoneNumber),
	))
	if _, err := b.api.Send(reply); err != nil {
		b.log.Warn("Failed to confirm registration", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
