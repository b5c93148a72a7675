// Package main is the entry point for the designforge batch generator.
// It loads configuration, connects to services, runs one batch of design
// generations and exits.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"designforge/internal/ai"
	"designforge/internal/cache"
	"designforge/internal/config"
	"designforge/internal/database"
	"designforge/internal/imaging"
	"designforge/internal/logging"
	"designforge/internal/novelty"
	"designforge/internal/pipeline"
	"designforge/internal/promote"
	"designforge/internal/queue"
	"designforge/internal/ratelimit"
	"designforge/internal/recipe"
	"designforge/internal/render"
	"designforge/internal/storage"
	"designforge/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	count := flag.IntP("count", "n", 3, "number of designs to generate")
	useRequests := flag.Bool("use-requests", false, "serve pending user requests first, then sample randomly")
	requestsOnly := flag.Bool("requests-only", false, "serve pending user requests only; stop when the queue is empty")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	flag.Parse()

	// A missing .env is fine; the environment may be set by the caller.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"provider", cfg.AIProvider,
		"rpm", cfg.AIRPM,
		"rpd", cfg.AIRPD,
	)

	// Stop launching iterations on SIGINT or SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		return 1
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		return 1
	}

	// Seed sample requests on request only (no-op if the queue has rows).
	if cfg.SeedRequests {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			return 1
		}
	}

	designStore := store.NewDesignStore(db)
	requestStore := store.NewRequestStore(db)

	// Persist the daily model quota in Valkey when configured, so separate
	// batch runs on the same day share one budget.
	var counter ratelimit.DailyCounter
	if cfg.HasValkey() {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			return 1
		}
		defer valkeyClient.Close()
		counter = cache.NewQuotaCounter(valkeyClient, cache.DefaultQuotaTTL)
		slog.Info("valkey quota counter enabled", "host", cfg.ValkeyHost)
	} else {
		slog.Warn("valkey not configured, daily quota is tracked in memory only")
	}

	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3Folder, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		return 1
	}
	slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", storageClient.Bucket())

	var thumbnail pipeline.Thumbnailer
	if cfg.ThumbnailWidth > 0 {
		imaging.Startup(0)
		defer imaging.Shutdown()
		width := cfg.ThumbnailWidth
		thumbnail = func(png []byte) ([]byte, error) {
			img, err := imaging.Thumbnail(png, width, imaging.DefaultQuality)
			if err != nil {
				return nil, err
			}
			return img.Data, nil
		}
	}

	// Initialize the AI provider registry with all configured providers.
	aiRegistry := ai.NewRegistry(cfg.AIProvider, map[string]ai.ProviderConfig{
		"openai":  {APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL},
		"gemini":  {APIKey: cfg.GeminiKey, Model: cfg.GeminiModel, BaseURL: cfg.GeminiBaseURL},
		"claude":  {APIKey: cfg.ClaudeKey, Model: cfg.ClaudeModel, BaseURL: cfg.ClaudeBaseURL},
		"mistral": {APIKey: cfg.MistralKey, Model: cfg.MistralModel, BaseURL: cfg.MistralBaseURL},
	})
	slog.Info("ai providers initialized",
		"active", aiRegistry.ActiveName(),
		"available", aiRegistry.Available(),
	)

	limiter := ratelimit.New(ratelimit.Options{
		RPM:     cfg.AIRPM,
		RPD:     cfg.AIRPD,
		Counter: counter,
		Logger:  logger,
	})
	model := ai.NewClient(aiRegistry, limiter, ai.ClientOptions{
		MaxAttempts: cfg.MaxRetryAttempts,
		Logger:      logger,
	})

	catalog := recipe.DefaultCatalog()
	if cfg.RecipeCatalog != "" {
		catalog, err = recipe.LoadCatalog(cfg.RecipeCatalog)
		if err != nil {
			slog.Error("failed to load recipe catalog", "path", cfg.RecipeCatalog, "error", err)
			return 1
		}
		slog.Info("recipe catalog loaded", "path", cfg.RecipeCatalog)
	}
	sampler := recipe.NewSampler(catalog, designStore, recipe.SamplerOptions{Logger: logger})

	stored, err := designStore.Count(ctx)
	if err != nil {
		slog.Error("failed to count stored designs", "error", err)
		return 1
	}
	slog.Info("design library", "stored", stored)

	guard := novelty.NewGuard(logger)
	if err := guard.Seed(ctx, designStore); err != nil {
		slog.Error("failed to seed novelty guard", "error", err)
		return 1
	}

	mode := queue.ModeOff
	switch {
	case *requestsOnly:
		mode = queue.ModeOnly
	case *useRequests:
		mode = queue.ModePrefer
	}
	var requestQueue pipeline.Queue
	if mode != queue.ModeOff {
		pending, err := requestStore.CountPending(ctx)
		if err != nil {
			slog.Error("failed to count pending requests", "error", err)
			return 1
		}
		slog.Info("request queue enabled", "mode", mode.String(), "pending", pending)
		requestQueue = queue.New(requestStore, mode, logger)
	}

	var promoters []promote.Promoter
	if cfg.RequestNotifyURL != "" {
		webhook, err := promote.NewWebhook(promote.WebhookOptions{
			URL:     cfg.RequestNotifyURL,
			Secret:  cfg.RequestNotifySecret,
			SiteURL: cfg.SiteURL,
			Logger:  logger,
		})
		if err != nil {
			slog.Error("failed to initialize request webhook", "error", err)
			return 1
		}
		promoters = append(promoters, webhook)
	}
	if cfg.HasTelegram() {
		tg, err := promote.NewTelegram(promote.TelegramOptions{
			Token:   cfg.TelegramToken,
			ChatID:  cfg.TelegramChatID,
			SiteURL: cfg.SiteURL,
			Marker:  designStore,
			Logger:  logger,
		})
		if err != nil {
			// Promotion is optional; the batch still runs.
			slog.Warn("telegram promotion disabled", "error", err)
		} else {
			promoters = append(promoters, tg)
		}
	}

	// One browser for the whole batch.
	browser, err := render.Start(ctx, render.Options{
		ExecPath:  cfg.ChromePath,
		NoSandbox: os.Geteuid() == 0,
		Logger:    logger,
	})
	if err != nil {
		slog.Error("failed to start browser", "error", err)
		return 1
	}
	defer browser.Close()

	// BATCH_DELAY_SECONDS=0 disables the pause.
	delay := cfg.BatchDelay
	if delay == 0 {
		delay = -1
	}

	p := pipeline.New(pipeline.Deps{
		Sampler:   sampler,
		Model:     model,
		Renderer:  browser,
		Guard:     guard,
		Storage:   storageClient,
		Thumbnail: thumbnail,
		Designs:   designStore,
		Queue:     requestQueue,
		Promoters: promoters,
	}, pipeline.Options{
		Count:  *count,
		Delay:  delay,
		Logger: logger,
	})

	sum := p.Run(ctx)
	if sum.Interrupted {
		slog.Info("batch interrupted by signal")
	}
	slog.Info("daily model quota", "remaining", limiter.Remaining(), "rpd", cfg.AIRPD)
	return 0
}
