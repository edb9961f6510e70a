package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/radhian/ledger-reconciliation/config"
	"github.com/radhian/ledger-reconciliation/controllers"
	"github.com/radhian/ledger-reconciliation/handler"
)

type CronWorkerConfig struct {
	Interval time.Duration
	Workers  int
}

type App struct {
	Config  *config.Config
	Handler *handler.ReconciliationHandler
	closeDB func()
}

func (a *App) startCronWorker(ctx context.Context, cfg CronWorkerConfig) {
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			log.Infof("spawn [Worker %d]", workerID)
			controllers.RunJanitor(ctx, a.Handler, cfg.Interval, workerID)
		}(i + 1)
	}
	wg.Wait()
}

func (a *App) Initialize(cfg *config.Config) error {
	uc, conn, err := controllers.BuildUsecase(cfg)
	if err != nil {
		return err
	}

	a.Config = cfg
	a.Handler = handler.NewReconciliationHandler(uc, 0)
	a.closeDB = func() {
		if conn != nil {
			conn.Close()
		}
	}
	return nil
}

func (a *App) RunServer(ctx context.Context) {
	a.startCronWorker(ctx, CronWorkerConfig{
		Workers:  a.Config.Cron.Workers,
		Interval: a.Config.Cron.Interval(),
	})
}

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

	app := App{}
	if err := app.Initialize(cfg); err != nil {
		log.Fatalf("failed to initialize app: %v", err)
	}
	defer app.closeDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.RunServer(ctx)
}
