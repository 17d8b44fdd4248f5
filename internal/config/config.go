package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/tatianab/survival-run/internal/models"
)

// Config holds the application configuration.
type Config struct {
	TextProvider   string        `envconfig:"TEXT_PROVIDER" default:"gemini"`
	GeminiAPIKey   string        `envconfig:"GEMINI_API_KEY"`
	OpenAIAPIKey   string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL  string        `envconfig:"OPENAI_BASE_URL"`
	OllamaURL      string        `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	TextModel      string        `envconfig:"TEXT_MODEL" default:"gemini-2.5-flash-lite"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"90s"`

	ImageModel  string `envconfig:"IMAGE_MODEL" default:"dall-e-3"`
	SceneImages bool   `envconfig:"SCENE_IMAGES" default:"false"`

	NarrationLanguage string           `envconfig:"NARRATION_LANGUAGE" default:"Korean"`
	GenreMode         models.GenreMode `envconfig:"GENRE_MODE" default:"random-run"`
	GenreID           string           `envconfig:"GENRE_ID"`
	CatalogFile       string           `envconfig:"CATALOG_FILE"`
	MaxTurns          int              `envconfig:"MAX_TURNS" default:"5"`
	StartHP           int              `envconfig:"START_HP" default:"100"`
	StartATK          int              `envconfig:"START_ATK" default:"10"`
	StartMP           int              `envconfig:"START_MP" default:"10"`

	StoreBackend string `envconfig:"STORE_BACKEND" default:"file"`
	SaveDir      string `envconfig:"SAVE_DIR" default:".saves"`
	SQLitePath   string `envconfig:"SQLITE_PATH" default:".saves/game.db"`

	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding    string `envconfig:"LOG_ENCODING" default:"json"`
	LogFile        string `envconfig:"LOG_FILE" default:"game.log"`
	MetricsPushURL string `envconfig:"METRICS_PUSH_URL"`
	PDFFontPath    string `envconfig:"PDF_FONT_PATH"`
}

// LoadConfig loads the configuration from the environment, after merging in a
// .env file from the working directory when one exists. A missing API key is
// not an error here; the engine reports it when a run is started.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	cfg.TextProvider = strings.ToLower(strings.TrimSpace(cfg.TextProvider))
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the game cannot run with.
func (c *Config) Validate() error {
	switch c.TextProvider {
	case "gemini", "openai", "ollama":
	default:
		return fmt.Errorf("TEXT_PROVIDER must be gemini, openai or ollama, got %q", c.TextProvider)
	}
	switch c.StoreBackend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("STORE_BACKEND must be file or sqlite, got %q", c.StoreBackend)
	}
	if !c.GenreMode.Valid() {
		return fmt.Errorf("GENRE_MODE must be fixed, random-run or rotate-turn, got %q", c.GenreMode)
	}
	if c.MaxTurns < 1 {
		return fmt.Errorf("MAX_TURNS must be at least 1, got %d", c.MaxTurns)
	}
	if c.StartHP < 1 {
		return fmt.Errorf("START_HP must be at least 1, got %d", c.StartHP)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// StartStats are the stats a fresh run begins with.
func (c *Config) StartStats() models.Stats {
	return models.Stats{HP: c.StartHP, ATK: c.StartATK, MP: c.StartMP}
}
