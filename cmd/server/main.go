package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robtot/skeleton-go/pkg/config"
	"github.com/robtot/skeleton-go/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize Logger
	lg := logger.New(os.Stdout, cfg.LogLevel)

	// 3. Start Server
	srv := NewServer(cfg, lg)
	if err := srv.Start(); err != nil {
		lg.Error("%s", err)
		os.Exit(1)
	}

	// 4. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-srv.Err():
		if err != nil {
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	err = srv.Stop(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}
