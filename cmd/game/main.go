package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tatianab/survival-run/internal/app"
	"github.com/tatianab/survival-run/internal/config"
	"github.com/tatianab/survival-run/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Printf("Error creating game: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := tui.Run(a.Engine, tui.Options{ExportDir: cfg.SaveDir, FontPath: cfg.PDFFontPath, Logger: a.Logger}); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
