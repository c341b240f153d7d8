// Package telegram is the messaging transport: it receives user commands via
// long polling and sends notifications back through the same bot client.
package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/agentkyo/jadlog-bot/internal/core/domain"
	"github.com/agentkyo/jadlog-bot/internal/core/ports"
)

const (
	cmdStart    = "start"
	cmdRegister = "rastrear"
	cmdRefresh  = "atualizar"

	msgGreeting     = "Olá! Digite /rastrear <código de rastreio> para registrar seu pacote."
	msgSaved        = "Dados salvos com sucesso!"
	msgSaveFailed   = "Não foi possível obter os dados de rastreamento para salvar."
	msgInvalidCode  = "Código de rastreio inválido."
	msgRegisterHint = "Use: /rastrear <código de rastreio>"
	msgNoPackages   = "Você precisa cadastrar um pacote primeiro."
)

type Bot struct {
	api     *tgbotapi.BotAPI
	service ports.RefreshService
	log     zerolog.Logger
}

// Connect authenticates against the Telegram Bot API with the given token.
// The returned client is shared by the command router and the notifier.
func Connect(token string, log zerolog.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Info().Str("username", api.Self.UserName).Msg("authenticated with telegram")
	return api, nil
}

// NewBot wraps an authenticated client with the inbound command router.
func NewBot(api *tgbotapi.BotAPI, service ports.RefreshService, log zerolog.Logger) *Bot {
	return &Bot{api: api, service: service, log: log}
}

// Run consumes updates until ctx is cancelled. Each command is handled in
// its own goroutine, mirroring how the messaging framework dispatches
// short-lived per-command tasks.
func (b *Bot) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.From == nil || !update.Message.IsCommand() {
				continue
			}
			go b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	log := b.log.With().Int64("user_id", userID).Str("command", msg.Command()).Logger()
	log.Info().Msg("command received")

	switch msg.Command() {
	case cmdStart:
		b.reply(msg, msgGreeting)

	case cmdRegister:
		code := firstToken(msg.CommandArguments())
		if code == "" {
			b.reply(msg, msgRegisterHint)
			return
		}
		b.handleRegister(ctx, msg, userID, code, log)

	case cmdRefresh:
		b.handleRefresh(ctx, msg, userID, log)
	}
}

func (b *Bot) handleRegister(ctx context.Context, msg *tgbotapi.Message, userID int64, code string, log zerolog.Logger) {
	err := b.service.Register(ctx, userID, code)
	switch {
	case err == nil:
		b.reply(msg, msgSaved)
	case errors.Is(err, domain.ErrInvalidTrackingCode):
		b.reply(msg, msgInvalidCode)
	default:
		log.Error().Err(err).Str("tracking_code", code).Msg("registration failed")
		b.reply(msg, msgSaveFailed)
	}
}

func (b *Bot) handleRefresh(ctx context.Context, msg *tgbotapi.Message, userID int64, log zerolog.Logger) {
	err := b.service.RefreshUser(ctx, userID)
	switch {
	case err == nil:
		// Per-package replies already went out through the notifier.
	case errors.Is(err, domain.ErrNoPackages):
		b.reply(msg, msgNoPackages)
	default:
		log.Error().Err(err).Msg("on-demand refresh failed")
	}
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	if _, err := b.api.Send(out); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to send reply")
	}
}

// firstToken returns the first whitespace-delimited token of s.
func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
