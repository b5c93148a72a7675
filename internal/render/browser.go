// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render screenshots generated designs in headless Chrome. One
// Browser is started per batch and every Capture runs in its own tab, which
// is closed on every exit path.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"designforge/internal/logging"
)

// ErrRender is returned when neither the cropped capture nor the
// whole-page fallback produced an image.
var ErrRender = errors.New("render: capture failed")

// Viewport and crop geometry, in CSS pixels.
const (
	ViewportWidth  = 1400
	ViewportHeight = 900
	DeviceScale    = 1.15

	MinHeight = 900
	MaxHeight = 6000
	Padding   = 50
)

// Defaults for the timed steps of a capture.
const (
	DefaultLoadTimeout = 15 * time.Second
	DefaultSettle      = 3 * time.Second
	DefaultResizeWait  = 200 * time.Millisecond
)

// Options configures a Browser.
type Options struct {
	ExecPath  string // empty lets chromedp find Chrome
	NoSandbox bool   // required when running as root in containers

	LoadTimeout time.Duration
	Settle      time.Duration // zero means DefaultSettle, negative skips the wait
	ResizeWait  time.Duration

	Logger *slog.Logger
}

// Browser is a running headless Chrome shared by every capture in a batch.
type Browser struct {
	ctx           context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	opts          Options
	logger        *slog.Logger
}

// Start launches Chrome. The browser lives until Close is called or ctx
// is cancelled.
func Start(ctx context.Context, opts Options) (*Browser, error) {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	if opts.Settle < 0 {
		opts.Settle = 0
	} else if opts.Settle == 0 {
		opts.Settle = DefaultSettle
	}
	if opts.ResizeWait <= 0 {
		opts.ResizeWait = DefaultResizeWait
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(ViewportWidth, ViewportHeight),
		chromedp.Flag("hide-scrollbars", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			opts.Logger.Debug("chromedp", "message", fmt.Sprintf(format, args...))
		}),
	)

	// The first Run on a fresh context launches the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	opts.Logger.Info("browser started", "exec_path", opts.ExecPath)
	return &Browser{
		ctx:           browserCtx,
		allocCancel:   allocCancel,
		browserCancel: browserCancel,
		opts:          opts,
		logger:        opts.Logger,
	}, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (b *Browser) Close() error {
	if b == nil || b.browserCancel == nil {
		return nil
	}
	err := chromedp.Cancel(b.ctx)
	b.browserCancel()
	b.allocCancel()
	b.browserCancel = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close browser: %w", err)
	}
	b.logger.Info("browser closed")
	return nil
}

// ClampHeight returns the viewport height used to capture content that
// measured measured CSS pixels: the measurement clamped to
// [MinHeight, MaxHeight] plus Padding.
func ClampHeight(measured float64) int {
	h := int(measured + 0.5)
	if h < MinHeight {
		h = MinHeight
	}
	if h > MaxHeight {
		h = MaxHeight
	}
	return h + Padding
}
