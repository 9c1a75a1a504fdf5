package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/atomicstack/castaway/internal/app"
	"github.com/atomicstack/castaway/internal/config"
	"github.com/atomicstack/castaway/internal/logging"
	"github.com/atomicstack/castaway/internal/logging/events"
)

func main() {
	cfg := config.MustLoad()
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	logging.Configure(cfg.Logging.FilePath)
	logging.SetTraceEnabled(cfg.Logging.Trace)

	events.App.Start(startupTracePayload(cfg, os.Stdout.Fd()))

	if err := app.Run(cfg); err != nil {
		logging.Error(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// startupTracePayload records where the library lives, how the workers are
// sized and what terminal the UI is about to take over.
func startupTracePayload(cfg config.Config, fd uintptr) map[string]interface{} {
	return map[string]interface{}{
		"argv":         cfg.Args,
		"flags":        cfg.Flags,
		"db":           cfg.Storage.DBPath,
		"downloadDir":  cfg.Storage.DownloadDir,
		"player":       cfg.Player,
		"maxDownloads": cfg.Workers.MaxDownloads,
		"maxSyncs":     cfg.Workers.MaxSyncs,
		"httpTimeout":  cfg.Workers.HTTPTimeout.String(),
		"autoPick":     cfg.UI.AutoPick,
		"terminal":     probeTerminal(fd),
	}
}

type terminalInfo struct {
	Interactive bool   `json:"interactive"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Error       string `json:"error,omitempty"`
}

func probeTerminal(fd uintptr) terminalInfo {
	if !term.IsTerminal(int(fd)) {
		return terminalInfo{}
	}
	info := terminalInfo{Interactive: true}
	width, height, err := term.GetSize(int(fd))
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Width, info.Height = width, height
	return info
}
