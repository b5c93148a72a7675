// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package promote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"designforge/internal/logging"
	"designforge/internal/models"
)

// maxCaptionBytes is Telegram's limit for photo captions.
const maxCaptionBytes = 1024

// PostedMarker records that a design was posted. *store.DesignStore
// satisfies it.
type PostedMarker interface {
	MarkPostedTelegram(ctx context.Context, id uuid.UUID) error
}

// TelegramOptions configures a Telegram promoter.
type TelegramOptions struct {
	Token   string
	ChatID  int64
	SiteURL string
	// Endpoint overrides tgbotapi.APIEndpoint (format "…/bot%s/%s").
	Endpoint   string
	HTTPClient *http.Client
	Marker     PostedMarker
	Logger     *slog.Logger
}

// Telegram posts the screenshot with a short caption to a chat or channel.
type Telegram struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	siteURL string
	marker  PostedMarker
	logger  *slog.Logger
}

// NewTelegram connects to the bot API (one getMe call) and returns a
// promoter posting to opts.ChatID.
func NewTelegram(opts TelegramOptions) (*Telegram, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if opts.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Endpoint == "" {
		opts.Endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, opts.Endpoint, opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Telegram{
		bot:     bot,
		chatID:  opts.ChatID,
		siteURL: opts.SiteURL,
		marker:  opts.Marker,
		logger:  logger,
	}, nil
}

// Name identifies the promoter in logs.
func (t *Telegram) Name() string {
	return "telegram"
}

// Promote sends the screenshot and marks the design as posted.
func (t *Telegram) Promote(ctx context.Context, d *models.Design, png []byte) error {
	if len(png) == 0 {
		return errors.New("telegram: empty screenshot")
	}

	photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FileBytes{
		Name:  d.Slug + ".png",
		Bytes: png,
	})
	photo.Caption = Caption(d, t.siteURL)

	msg, err := t.bot.Send(photo)
	if err != nil {
		return fmt.Errorf("telegram send photo: %w", err)
	}
	t.logger.Info("design posted to telegram", "slug", d.Slug, "message_id", msg.MessageID)

	if t.marker != nil {
		if err := t.marker.MarkPostedTelegram(ctx, d.ID); err != nil {
			return fmt.Errorf("telegram mark posted: %w", err)
		}
	}
	d.PostedTelegram = true
	return nil
}

// Caption builds the post text: title, category, description and a link to
// the design page, cut to Telegram's caption limit on a rune boundary.
func Caption(d *models.Design, siteURL string) string {
	var b strings.Builder
	b.WriteString(d.Title)
	if d.Category != "" {
		b.WriteString(" · ")
		b.WriteString(d.Category)
	}
	link := DesignURL(siteURL, d.Slug)

	var desc string
	if d.Description != "" {
		desc = "\n\n" + d.Description
	}
	var tail string
	if link != "" {
		tail = "\n\n" + link
	}

	// The link survives truncation; the description gives way first.
	room := maxCaptionBytes - b.Len() - len(tail)
	if room > 0 {
		b.WriteString(truncateBytes(desc, room))
	}
	b.WriteString(tail)
	return truncateBytes(b.String(), maxCaptionBytes)
}

func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
