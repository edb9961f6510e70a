package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/gommon/log"
	"github.com/radhian/ledger-reconciliation/config"
	"github.com/radhian/ledger-reconciliation/controllers"
)

func main() {
	configPath := flag.String("config", os.Getenv("RECON_CONFIG"), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	app := controllers.App{}
	if err := app.Initialize(cfg); err != nil {
		log.Fatalf("failed to initialize app: %v", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunServer(ctx); err != nil {
		log.Errorf("server exited: %v", err)
		app.Close()
		os.Exit(1)
	}
}
