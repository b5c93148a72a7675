// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// neutralizeJS strips full-viewport sizing inside the capture anchor so the
// measured height reflects the content, and zeroes root margins.
const neutralizeJS = `(() => {
  const root = document.getElementById('capture-box') || document.body;
  const banned = ['min-h-screen', 'h-screen', 'min-h-[100vh]', 'h-[100vh]'];
  for (const el of [root, ...root.querySelectorAll('*')]) {
    banned.forEach(c => el.classList.remove(c));
    if (el.style) {
      if ((el.style.minHeight || '').includes('100vh')) el.style.minHeight = 'auto';
      if ((el.style.height || '').includes('100vh')) el.style.height = 'auto';
    }
  }
  for (const el of [document.documentElement, document.body]) {
    el.style.margin = '0';
    el.style.padding = '0';
  }
  return true;
})()`

// measureJS reports the anchor's content height (body when absent).
const measureJS = `(() => {
  const anchor = document.getElementById('capture-box');
  const el = anchor || document.body;
  const rect = el.getBoundingClientRect();
  return {
    found: !!anchor,
    top: rect.top + window.scrollY,
    height: el.scrollHeight || rect.height || 0,
  };
})()`

type measurement struct {
	Found  bool    `json:"found"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Capture loads doc in a new tab and returns a PNG of the capture anchor
// cropped to its content height (see ClampHeight). When the cropped capture
// fails, a whole-page screenshot is returned instead; ErrRender means both
// failed.
func (b *Browser) Capture(ctx context.Context, doc string) ([]byte, error) {
	tabCtx, closeTab := chromedp.NewContext(b.ctx)
	defer closeTab()
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	png, err := b.cropped(tabCtx, doc)
	if err == nil {
		return png, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	b.logger.Warn("cropped capture failed, falling back to full page", "error", err)
	var full []byte
	if ferr := chromedp.Run(tabCtx, chromedp.FullScreenshot(&full, 100)); ferr != nil || len(full) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrRender, errors.Join(err, ferr))
	}
	return full, nil
}

func (b *Browser) cropped(tabCtx context.Context, doc string) ([]byte, error) {
	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(ViewportWidth, ViewportHeight, chromedp.EmulateScale(DeviceScale)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}

	b.waitForLoad(tabCtx)

	var (
		ok bool
		m  measurement
	)
	actions := []chromedp.Action{}
	if b.opts.Settle > 0 {
		actions = append(actions, chromedp.Sleep(b.opts.Settle))
	}
	actions = append(actions,
		chromedp.Evaluate(neutralizeJS, &ok),
		chromedp.Evaluate(measureJS, &m),
	)
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return nil, fmt.Errorf("measure: %w", err)
	}

	height := ClampHeight(m.Height)
	b.logger.Debug("capture measured", "anchor", m.Found, "measured", m.Height, "height", height)

	var png []byte
	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(ViewportWidth, int64(height), chromedp.EmulateScale(DeviceScale)),
		chromedp.Sleep(b.opts.ResizeWait),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			png, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatPng).
				WithCaptureBeyondViewport(true).
				WithClip(&page.Viewport{
					X:      0,
					Y:      m.Top,
					Width:  ViewportWidth,
					Height: float64(height),
					// Undo the device scale so the PNG is measured in CSS pixels.
					Scale: 1 / DeviceScale,
				}).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	if len(png) == 0 {
		return nil, errors.New("screenshot: empty image")
	}
	return png, nil
}

// waitForLoad polls document.readyState for up to LoadTimeout. A timeout is
// logged and otherwise ignored.
func (b *Browser) waitForLoad(tabCtx context.Context) {
	waitCtx, cancel := context.WithTimeout(tabCtx, b.opts.LoadTimeout)
	defer cancel()

	var ready bool
	start := time.Now()
	err := chromedp.Run(waitCtx, chromedp.Poll(`document.readyState === "complete"`, &ready,
		chromedp.WithPollingInterval(100*time.Millisecond)))
	if err != nil {
		b.logger.Warn("page load did not complete, capturing anyway",
			"waited", time.Since(start).Round(time.Millisecond).String(), "error", err)
	}
}
