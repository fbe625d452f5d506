// Package telegram connects a Telegram bot to the assistant. Every chat is
// one conversation session keyed by its chat id.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/shvkateryna/internship/plugin/ai/timeout"
	"github.com/shvkateryna/internship/server/internal/observability"
	"github.com/shvkateryna/internship/server/middleware"
)

const (
	// WelcomeText answers /start.
	WelcomeText = "Привіт, я Тася! 👋\n\n" +
		"Я можу:\n" +
		"• Перекладати текст з англійської на українську, якщо ти чітко напишеш, що потрібен переклад.\n" +
		"• Відповідати на питання про Катерину.\n\n" +
		"Спробуй написати мені будь-що! 😉"

	// TextOnlyReply answers messages without text (stickers, photos, voice).
	TextOnlyReply = "Поки що я розумію лише текстові повідомлення."

	// ErrorReply is sent when the turn produced no reply at all.
	ErrorReply = "Вибач, сталася помилка. Спробуй, будь ласка, ще раз трохи пізніше."
)

// Asker answers one conversational turn.
type Asker interface {
	Ask(ctx context.Context, input, sessionID string) (string, error)
}

// Config holds configuration for the gateway.
type Config struct {
	// Token is the bot token from @BotFather (required).
	Token string

	// WebhookURL switches from long polling to webhooks when set.
	WebhookURL string

	// ChatRate is the sustained number of messages per second accepted per chat.
	ChatRate float64

	// ChatBurst is the per-chat burst.
	ChatBurst int

	// SendAttempts is how many times sendMessage is tried on 429/5xx.
	SendAttempts int

	// RetryDelay is the first backoff delay; it doubles after each attempt.
	RetryDelay time.Duration

	// Logger is an optional slog.Logger instance.
	Logger *slog.Logger
}

// Validate checks the configuration and applies defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("telegram: token is required")
	}
	if c.ChatRate <= 0 {
		c.ChatRate = 1
	}
	if c.ChatBurst <= 0 {
		c.ChatBurst = 5
	}
	if c.SendAttempts <= 0 {
		c.SendAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 800 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// Gateway turns Telegram updates into assistant turns and sends the replies back.
type Gateway struct {
	config  Config
	client  BotClient
	asker   Asker
	limiter *middleware.RateLimiter
	logger  *slog.Logger
}

// NewGateway creates the bot and the gateway around it.
func NewGateway(config Config, asker Asker) (*Gateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	g := newGateway(config, asker, nil)

	b, err := bot.New(config.Token,
		bot.WithSkipGetMe(),
		bot.WithDefaultHandler(func(ctx context.Context, _ *bot.Bot, update *models.Update) {
			g.HandleUpdate(ctx, update)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	g.client = &realBotClient{bot: b}
	return g, nil
}

// newGateway wires a gateway around an existing client. config must be validated.
func newGateway(config Config, asker Asker, client BotClient) *Gateway {
	return &Gateway{
		config:  config,
		client:  client,
		asker:   asker,
		limiter: middleware.NewRateLimiter(config.ChatRate, config.ChatBurst),
		logger:  config.Logger.With("adapter", "telegram"),
	}
}

// Client returns the underlying bot client.
func (g *Gateway) Client() BotClient {
	return g.client
}

// Run receives updates until ctx is done. In webhook mode the caller mounts
// Client().WebhookHandler() on its HTTP server.
func (g *Gateway) Run(ctx context.Context) error {
	go g.limiter.RunSweeper(ctx, middleware.DefaultSweepInterval, middleware.DefaultIdleTimeout)

	if g.config.WebhookURL == "" {
		g.logger.Info("starting long polling mode")
		g.client.Start(ctx)
		return nil
	}

	g.logger.Info("starting webhook mode", "url", g.config.WebhookURL)
	if _, err := g.client.SetWebhook(ctx, &bot.SetWebhookParams{URL: g.config.WebhookURL}); err != nil {
		return fmt.Errorf("telegram: set webhook: %w", err)
	}
	g.client.StartWebhook(ctx)
	return nil
}

// HandleUpdate answers one update. Updates without a new message are
// ignored, edits included: the original text is already in the history.
func (g *Gateway) HandleUpdate(ctx context.Context, update *models.Update) {
	if update == nil {
		return
	}
	if update.EditedMessage != nil {
		g.logger.Debug("ignoring edited message", slog.Int64("chat_id", update.EditedMessage.Chat.ID))
		return
	}
	msg := update.Message
	if msg == nil {
		return
	}

	chatID := msg.Chat.ID
	sessionID := strconv.FormatInt(chatID, 10)
	rc := observability.NewRequestContext(g.logger, "telegram")
	rc.SessionID = sessionID
	ctx = observability.WithRequestContext(ctx, rc)

	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		g.reply(ctx, chatID, WelcomeText)
		return
	case text == "":
		g.reply(ctx, chatID, TextOnlyReply)
		return
	}

	if err := g.limiter.Wait(ctx, sessionID); err != nil {
		rc.Warn("rate limit wait cancelled", slog.String("error", err.Error()))
		return
	}

	askCtx, cancel := context.WithTimeout(ctx, timeout.AskTimeout)
	defer cancel()
	reply, err := g.asker.Ask(askCtx, text, sessionID)
	if err != nil {
		rc.Error("ask failed", err, slog.Int(observability.LogFieldMessageLen, len(text)))
		if reply == "" {
			reply = ErrorReply
		}
	}
	g.reply(ctx, chatID, reply)
	rc.Debug("update answered", slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
}

func (g *Gateway) reply(ctx context.Context, chatID int64, text string) {
	if err := g.send(ctx, chatID, text); err != nil {
		observability.FromContextOrNew(ctx, "telegram").Error("failed to send message", err,
			slog.Int64("chat_id", chatID))
	}
}

// send calls sendMessage, retrying rate limits and server errors with
// exponential backoff. Telegram's retry_after wins when it is longer.
func (g *Gateway) send(ctx context.Context, chatID int64, text string) error {
	params := &bot.SendMessageParams{ChatID: chatID, Text: text}
	delay := g.config.RetryDelay

	var err error
	for attempt := 1; attempt <= g.config.SendAttempts; attempt++ {
		if _, err = g.client.SendMessage(ctx, params); err == nil {
			return nil
		}
		if !isRetryable(err) || attempt == g.config.SendAttempts {
			break
		}

		wait := delay
		var tooMany *bot.TooManyRequestsError
		if errors.As(err, &tooMany) {
			if after := time.Duration(tooMany.RetryAfter) * time.Second; after > wait {
				wait = after
			}
		}
		g.logger.Warn("sendMessage failed, retrying",
			"chat_id", chatID,
			"attempt", attempt,
			"wait", wait,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
	}
	return err
}

// isRetryable reports 429 and server-side failures. Client errors and a
// cancelled context are final.
func isRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, bot.ErrorForbidden),
		errors.Is(err, bot.ErrorBadRequest),
		errors.Is(err, bot.ErrorUnauthorized),
		errors.Is(err, bot.ErrorNotFound):
		return false
	default:
		return true
	}
}
