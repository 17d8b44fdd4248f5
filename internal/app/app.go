// Package app wires configuration into a ready engine for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tatianab/survival-run/internal/config"
	"github.com/tatianab/survival-run/internal/engine"
	"github.com/tatianab/survival-run/internal/game"
	"github.com/tatianab/survival-run/internal/llm"
	"github.com/tatianab/survival-run/internal/logging"
	"github.com/tatianab/survival-run/internal/metrics"
	"github.com/tatianab/survival-run/internal/storage"
)

const configDefaultModel = "gemini-2.5-flash-lite"

// Fallback models when TEXT_MODEL was left at its Gemini default.
var providerModels = map[string]string{
	llm.ProviderOpenAI: "gpt-4o-mini",
	llm.ProviderOllama: "llama3.1",
}

// App holds the process-wide collaborators.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Engine  *engine.Engine
	Metrics *metrics.Recorder

	pusher  *metrics.Pusher
	closers []io.Closer
}

// TextModel resolves the model name for the configured provider.
func TextModel(cfg *config.Config) string {
	if cfg.TextModel == configDefaultModel {
		if m, ok := providerModels[cfg.TextProvider]; ok {
			return m
		}
	}
	return cfg.TextModel
}

// New builds logger, catalog, model clients, store, metrics and engine from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if dir := filepath.Dir(cfg.LogFile); cfg.LogFile != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding, OutputPath: cfg.LogFile})
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.NewRecorder()}

	catalog, err := game.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	genreID := cfg.GenreID
	if _, ok := catalog.Genre(genreID); genreID != "" && !ok {
		logger.Warn("GENRE_ID is not in the catalog; ignoring it", zap.String("genre_id", genreID))
		genreID = ""
	}

	model := TextModel(cfg)
	narrator, err := llm.NewNarrativeClient(ctx, llm.Settings{
		Provider:      cfg.TextProvider,
		Model:         model,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OllamaURL:     cfg.OllamaURL,
		Timeout:       cfg.RequestTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("narrative client: %w", err)
	}
	if c, ok := narrator.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	var images llm.ImageClient
	switch {
	case !cfg.SceneImages:
	case cfg.OpenAIAPIKey == "":
		logger.Warn("SCENE_IMAGES is on but OPENAI_API_KEY is not set; scene images disabled")
	default:
		images = llm.NewOpenAIImages(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ImageModel, cfg.RequestTimeout)
	}

	store, err := storage.Open(cfg.StoreBackend, cfg.SaveDir, cfg.SQLitePath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.closers = append(a.closers, store)

	a.pusher = metrics.NewPusher(cfg.MetricsPushURL, a.Metrics, logger)
	a.Engine = engine.NewEngine(narrator, images, store, logger, a.Metrics, engine.Options{
		Catalog:     catalog,
		StartStats:  cfg.StartStats(),
		MaxTurns:    cfg.MaxTurns,
		GenreMode:   cfg.GenreMode,
		GenreID:     genreID,
		Language:    cfg.NarrationLanguage,
		SceneImages: images != nil,
		Provider:    cfg.TextProvider,
	})

	logger.Info("game ready",
		zap.String("provider", cfg.TextProvider),
		zap.String("model", model),
		zap.Bool("configured", narrator != nil),
		zap.Bool("scene_images", images != nil),
		zap.String("store", cfg.StoreBackend),
		zap.String("genre_mode", string(cfg.GenreMode)))
	return a, nil
}

// Close pushes final metrics and releases clients and the store.
func (a *App) Close() error {
	var errs []error
	if err := a.pusher.Push(); err != nil {
		errs = append(errs, err)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}
