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
	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return tui.Run(a.Engine, tui.Options{ExportDir: cfg.SaveDir, FontPath: cfg.PDFFontPath, Logger: a.Logger})
}
