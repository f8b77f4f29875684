package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stockdash/internal/config"
	"stockdash/internal/dashboard"
	"stockdash/internal/tui"
	"stockdash/internal/util"
	"stockdash/pkg/stockdash"
)

func main() {
	apiURL := flag.String("api", "", "stocks API base URL (overrides config)")
	flag.Parse()

	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.Client.BaseURL = *apiURL
	}

	// The terminal belongs to the UI, so logs always go to a file.
	logPath := cfg.Logging.File
	if logPath == "" {
		logPath = fmt.Sprintf("/tmp/stockdash-%s.log", time.Now().Format("2006-01-02"))
	}
	logger, logCloser := util.NewFileLogger(logPath, cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups)
	defer logCloser.Close()
	util.SetDefault(logger)

	client := stockdash.NewClient(cfg.Client.BaseURL,
		stockdash.WithTimeout(cfg.Client.Timeout),
		stockdash.WithLogger(logger),
	)
	coord := dashboard.New(client, logger, dashboard.WithPageLimit(cfg.Client.PageLimit))
	defer coord.Close()

	logger.Info("starting dashboard", "api", client.BaseURL(), "pageLimit", cfg.Client.PageLimit)

	p := tea.NewProgram(tui.New(coord, logger, "Stock Dashboard"), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("tui error", "error", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
