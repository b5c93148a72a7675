// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pipeline runs a batch of design generations. Each iteration
// samples a recipe (or serves a claimed user request), asks the model for a
// design, validates it, renders it while checking its structure for novelty,
// uploads the screenshot and stores the row. Iterations run one at a time;
// only the render and the novelty check overlap.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"designforge/internal/ai"
	"designforge/internal/logging"
	"designforge/internal/models"
	"designforge/internal/novelty"
	"designforge/internal/payload"
	"designforge/internal/promote"
	"designforge/internal/queue"
	"designforge/internal/ratelimit"
	"designforge/internal/recipe"
	"designforge/internal/storage"
)

// DefaultDelay is the pause between iterations.
const DefaultDelay = 2 * time.Second

// Sampler draws the recipe for an iteration.
type Sampler interface {
	Sample(ctx context.Context, categoryHint string) models.Recipe
}

// Model returns the model's reply as a JSON object.
type Model interface {
	GenerateJSON(ctx context.Context, systemPrompt, prompt string) (json.RawMessage, error)
}

// Renderer screenshots a complete HTML document.
type Renderer interface {
	Capture(ctx context.Context, doc string) ([]byte, error)
}

// Guard accepts structurally new designs and rejects repeats.
type Guard interface {
	Check(doc string) (string, error)
	Forget(hash string)
}

// Storage uploads screenshots. *storage.Client satisfies it.
type Storage interface {
	ObjectKey(now time.Time, category string) string
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Thumbnailer turns a PNG screenshot into a WebP thumbnail.
type Thumbnailer func(png []byte) ([]byte, error)

// DesignStore persists designs. *store.DesignStore satisfies it.
type DesignStore interface {
	Create(ctx context.Context, d *models.Design) (*models.Design, error)
}

// Queue hands out user requests. *queue.Queue satisfies it.
type Queue interface {
	Claim(ctx context.Context) (*models.DesignRequest, error)
	Attach(d *models.Design, req *models.DesignRequest)
	Release(ctx context.Context, req *models.DesignRequest) error
}

// Deps are the collaborators of a Pipeline. Queue, Thumbnail and Promoters
// are optional.
type Deps struct {
	Sampler   Sampler
	Model     Model
	Renderer  Renderer
	Guard     Guard
	Storage   Storage
	Thumbnail Thumbnailer
	Designs   DesignStore
	Queue     Queue
	Promoters []promote.Promoter
}

// Options configures a batch.
type Options struct {
	Count  int           // iterations to run; values below 1 mean 1
	Delay  time.Duration // pause between iterations; negative disables
	Logger *slog.Logger
	Now    func() time.Time
	Sleep  func(ctx context.Context, d time.Duration) error
}

// Summary aggregates the outcome of a batch.
type Summary struct {
	Attempted     int
	Succeeded     int
	Failed        int
	Rejected      int      // novelty rejections, also counted in Failed
	Slugs         []string // slugs of stored designs, in order
	QuotaExceeded bool     // the batch stopped on the daily model quota
	QueueEmpty    bool     // the batch stopped because no request was pending
	Interrupted   bool     // the batch stopped because ctx was cancelled
}

// Pipeline runs design batches.
type Pipeline struct {
	deps   Deps
	count  int
	delay  time.Duration
	logger *slog.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a Pipeline.
func New(deps Deps, opts Options) *Pipeline {
	if opts.Count < 1 {
		opts.Count = 1
	}
	if opts.Delay == 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Pipeline{
		deps:   deps,
		count:  opts.Count,
		delay:  opts.Delay,
		logger: opts.Logger,
		now:    opts.Now,
		sleep:  opts.Sleep,
	}
}

// Run executes the batch. Individual iteration failures are counted, not
// returned; the batch stops early on quota exhaustion, an empty queue in
// requests-only mode, or cancellation of ctx.
func (p *Pipeline) Run(ctx context.Context) Summary {
	var sum Summary
	start := p.now()
	p.logger.Info("batch started", "count", p.count)

	for i := 0; i < p.count; i++ {
		if ctx.Err() != nil {
			sum.Interrupted = true
			break
		}
		if i > 0 && p.delay > 0 {
			if err := p.sleep(ctx, p.delay); err != nil {
				sum.Interrupted = true
				break
			}
		}

		log := p.logger.With("iteration", i+1, "of", p.count)
		d, err := p.iterate(ctx, log)
		if errors.Is(err, queue.ErrEmpty) {
			log.Info("request queue is empty, stopping batch")
			sum.QueueEmpty = true
			break
		}

		sum.Attempted++
		switch {
		case err == nil:
			sum.Succeeded++
			sum.Slugs = append(sum.Slugs, d.Slug)
		case errors.Is(err, novelty.ErrDuplicate):
			sum.Failed++
			sum.Rejected++
			log.Info("design rejected as structural duplicate", "error", err)
		case isQuota(err):
			sum.Failed++
			sum.QuotaExceeded = true
			log.Error("model quota exhausted, aborting remaining iterations", "error", err)
		case ctx.Err() != nil:
			sum.Failed++
			sum.Interrupted = true
			log.Warn("iteration abandoned", "error", err)
		default:
			sum.Failed++
			log.Error("iteration failed", "error", err)
		}
		if sum.QuotaExceeded || sum.Interrupted {
			break
		}
	}

	p.logger.Info("batch finished",
		"attempted", sum.Attempted,
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
		"rejected", sum.Rejected,
		"quota_exceeded", sum.QuotaExceeded,
		"queue_empty", sum.QueueEmpty,
		"interrupted", sum.Interrupted,
		"duration", p.now().Sub(start).Round(time.Millisecond),
	)
	return sum
}

func isQuota(err error) bool {
	return errors.Is(err, ratelimit.ErrQuotaExceeded) || errors.Is(err, ai.ErrQuotaExceeded)
}

// iterate runs one generation. A claimed request is released when the
// iteration fails before its design is stored, novelty rejections included,
// so that no request is left in progress without a design. The exception is
// a cancelled ctx, in which case the request stays in progress.
func (p *Pipeline) iterate(ctx context.Context, log *slog.Logger) (*models.Design, error) {
	var req *models.DesignRequest
	if p.deps.Queue != nil {
		var err error
		req, err = p.deps.Queue.Claim(ctx)
		if err != nil {
			return nil, err
		}
		if req != nil {
			log = log.With("request_id", req.ID)
		}
	}

	d, png, err := p.generate(ctx, req, log)
	if err != nil {
		if req != nil && ctx.Err() == nil {
			if relErr := p.deps.Queue.Release(ctx, req); relErr != nil {
				log.Error("failed to release design request", "error", relErr)
			}
		}
		return nil, err
	}

	p.promote(context.WithoutCancel(ctx), d, png, log)
	return d, nil
}

// generate produces and stores one design. It returns the stored row and
// the full screenshot.
func (p *Pipeline) generate(ctx context.Context, req *models.DesignRequest, log *slog.Logger) (*models.Design, []byte, error) {
	r := p.deps.Sampler.Sample(ctx, req.CategoryHint())
	log = log.With("category", r.Category, "structure", r.Structure, "style", r.Style)
	log.Info("generating design")

	raw, err := p.deps.Model.GenerateJSON(ctx, recipe.SystemPrompt, recipe.Compose(r, req))
	if err != nil {
		return nil, nil, fmt.Errorf("call model: %w", err)
	}

	pl, err := payload.Normalize(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("validate payload: %w", err)
	}

	png, hash, err := p.renderAndCheck(ctx, pl.HTML)
	if err != nil {
		return nil, nil, err
	}

	stored := false
	defer func() {
		if !stored {
			p.deps.Guard.Forget(hash)
		}
	}()

	key := p.deps.Storage.ObjectKey(p.now(), r.Category)
	imageURL, err := p.deps.Storage.Upload(ctx, key, storage.ContentTypePNG, png)
	if err != nil {
		return nil, nil, fmt.Errorf("upload screenshot: %w", err)
	}

	d := &models.Design{
		Title:         pl.Title,
		Description:   pl.Description,
		Features:      pl.Features,
		Usage:         pl.Usage,
		Category:      r.Category,
		ImageURL:      imageURL,
		ThumbnailURL:  p.uploadThumbnail(ctx, key, png, log),
		HTMLCode:      pl.HTML,
		ReactCode:     pl.ReactCode,
		Colors:        pl.Colors,
		RecipeKey:     r.Key(),
		StructureHash: hash,
	}
	if p.deps.Queue != nil {
		p.deps.Queue.Attach(d, req)
	}

	if _, err := p.deps.Designs.Create(ctx, d); err != nil {
		return nil, nil, fmt.Errorf("store design (orphaned object %s): %w", key, err)
	}
	stored = true

	log.Info("design stored", "slug", d.Slug, "id", d.ID, "image_url", d.ImageURL)
	return d, png, nil
}

// renderAndCheck captures doc while fingerprinting it. A duplicate cancels
// the in-flight render; an accepted fingerprint is forgotten again if the
// render fails.
func (p *Pipeline) renderAndCheck(ctx context.Context, doc string) ([]byte, string, error) {
	var (
		png        []byte
		hash       string
		noveltyErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		png, err = p.deps.Renderer.Capture(gctx, doc)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		hash, noveltyErr = p.deps.Guard.Check(doc)
		if noveltyErr != nil {
			return fmt.Errorf("novelty check: %w", noveltyErr)
		}
		return nil
	})
	err := g.Wait()

	if noveltyErr != nil {
		return nil, "", fmt.Errorf("novelty check: %w", noveltyErr)
	}
	if err != nil {
		p.deps.Guard.Forget(hash)
		return nil, "", err
	}
	return png, hash, nil
}

// uploadThumbnail stores the optional WebP variant next to the screenshot.
// Failures are logged and yield no thumbnail.
func (p *Pipeline) uploadThumbnail(ctx context.Context, key string, png []byte, log *slog.Logger) *string {
	if p.deps.Thumbnail == nil {
		return nil
	}
	webp, err := p.deps.Thumbnail(png)
	if err != nil {
		log.Warn("thumbnail generation failed", "error", err)
		return nil
	}
	url, err := p.deps.Storage.Upload(ctx, storage.ThumbnailKey(key), storage.ContentTypeWebP, webp)
	if err != nil {
		log.Warn("thumbnail upload failed", "error", err)
		return nil
	}
	return &url
}

// promote runs every promoter; failures are logged and never undo the
// stored design.
func (p *Pipeline) promote(ctx context.Context, d *models.Design, png []byte, log *slog.Logger) {
	for _, pr := range p.deps.Promoters {
		if err := pr.Promote(ctx, d, png); err != nil {
			log.Warn("promotion failed", "promoter", pr.Name(), "slug", d.Slug, "error", err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
