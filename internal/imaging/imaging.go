// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging produces WebP preview thumbnails of design screenshots
// using libvips. A screenshot is scaled to the thumbnail width and its top
// is cropped to a card-shaped 4:3 frame, which is what listing pages show.
package imaging

import (
	"fmt"
	"log/slog"

	"github.com/davidbyttow/govips/v2/vips"
)

// DefaultQuality is the WebP quality used for thumbnails.
const DefaultQuality = 80

// ProcessedImage holds one generated image ready for upload.
type ProcessedImage struct {
	Width       int    // Actual output width
	Height      int    // Actual output height
	Data        []byte // WebP-encoded image bytes
	ContentType string // Always "image/webp"
}

// Startup initialises the libvips library. Call once at application start.
// concurrency controls the number of libvips worker threads (0 = auto).
func Startup(concurrency int) {
	cfg := &vips.Config{
		ConcurrencyLevel: concurrency,
		MaxCacheSize:     100,
		MaxCacheMem:      50 * 1024 * 1024, // 50 MB
	}
	vips.LoggingSettings(nil, vips.LogLevelWarning)
	vips.Startup(cfg)
	slog.Info("libvips started", "version", vips.Version)
}

// Shutdown releases libvips resources. Call at application shutdown.
func Shutdown() {
	vips.Shutdown()
}

// Thumbnail scales a screenshot to width pixels (never upscaling) and keeps
// the top width*3/4 pixels. Images shorter than that are kept whole.
func Thumbnail(original []byte, width, quality int) (*ProcessedImage, error) {
	if width <= 0 {
		return nil, fmt.Errorf("imaging: invalid thumbnail width %d", width)
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	probe, err := vips.NewImageFromBuffer(original)
	if err != nil {
		return nil, fmt.Errorf("imaging: probe failed: %w", err)
	}
	origWidth := probe.Width()
	probe.Close()

	if origWidth < width {
		width = origWidth
	}

	img, err := vips.NewThumbnailFromBuffer(original, width, 0, vips.InterestingNone)
	if err != nil {
		return nil, fmt.Errorf("imaging: thumbnail (%dpx): %w", width, err)
	}
	defer img.Close()

	if frame := img.Width() * 3 / 4; img.Height() > frame {
		if err := img.ExtractArea(0, 0, img.Width(), frame); err != nil {
			return nil, fmt.Errorf("imaging: crop: %w", err)
		}
	}

	params := vips.NewWebpExportParams()
	params.Quality = quality
	params.Lossless = false
	params.StripMetadata = true

	buf, meta, err := img.ExportWebp(params)
	if err != nil {
		return nil, fmt.Errorf("imaging: export: %w", err)
	}

	return &ProcessedImage{
		Width:       meta.Width,
		Height:      meta.Height,
		Data:        buf,
		ContentType: "image/webp",
	}, nil
}
