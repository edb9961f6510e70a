package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/jinzhu/gorm"
	"github.com/labstack/gommon/log"
	"github.com/radhian/ledger-reconciliation/config"
	"github.com/radhian/ledger-reconciliation/handler"
	"github.com/radhian/ledger-reconciliation/infra/db"
	"github.com/radhian/ledger-reconciliation/infra/db/dao"
	"github.com/radhian/ledger-reconciliation/infra/locker"
	"github.com/radhian/ledger-reconciliation/infra/progress"
	"github.com/radhian/ledger-reconciliation/infra/storage"
	"github.com/radhian/ledger-reconciliation/middlewares"
	reconciliationUsecase "github.com/radhian/ledger-reconciliation/usecase/reconciliation"
	"golang.org/x/sync/errgroup"
)

type App struct {
	Config  *config.Config
	DB      *gorm.DB
	Router  *mux.Router
	Usecase reconciliationUsecase.ReconciliationUsecase
	Handler *handler.ReconciliationHandler
}

// BuildUsecase wires the engine with the progress store named in cfg. The
// returned DB is nil for the memory store.
func BuildUsecase(cfg *config.Config) (reconciliationUsecase.ReconciliationUsecase, *gorm.DB, error) {
	staging, err := storage.NewStaging(cfg.Storage.Dir)
	if err != nil {
		return nil, nil, err
	}

	var (
		store progress.Store
		conn  *gorm.DB
	)
	switch cfg.Progress.Store {
	case "memory", "":
		store = progress.NewMemoryStore()
	case "postgres":
		conn, err = db.Open(cfg.Progress.DB)
		if err != nil {
			return nil, nil, err
		}
		store = progress.NewDBStore(dao.NewDaoMethod(conn))
	default:
		return nil, nil, fmt.Errorf("unknown progress store %q", cfg.Progress.Store)
	}

	uc := reconciliationUsecase.NewReconciliationUsecase(
		progress.NewTracker(store),
		locker.New(),
		staging,
		reconciliationUsecase.OptionsFromConfig(cfg),
	)
	return uc, conn, nil
}

func (a *App) Initialize(cfg *config.Config) error {
	uc, conn, err := BuildUsecase(cfg)
	if err != nil {
		return err
	}

	a.Config = cfg
	a.DB = conn
	a.Usecase = uc
	a.Handler = handler.NewReconciliationHandler(uc, cfg.Server.MaxUploadMB<<20)

	a.Router = mux.NewRouter().StrictSlash(true)
	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router.Use(middlewares.RequestLoggerMiddleware)
	a.Router.Use(middlewares.SetContentTypeMiddleware)
	RegisterReconciliationRoutes(a.Router, a.Handler)
}

// HTTPHandler is the router behind CORS, so preflight requests never reach
// the routes.
func (a *App) HTTPHandler() http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   a.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	})(a.Router)
}

// RunServer serves HTTP and runs the janitor until ctx is done, then drains
// in-flight jobs.
func (a *App) RunServer(ctx context.Context) error {
	srvCfg := a.Config.Server
	srv := &http.Server{
		Addr:         ":" + srvCfg.Port,
		Handler:      a.HTTPHandler(),
		ReadTimeout:  time.Duration(srvCfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(srvCfg.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("[HTTP] Server starting on port %v", srvCfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		RunJanitor(gctx, a.Handler, a.Config.Cron.Interval(), 0)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Infof("[HTTP] Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(srvCfg.ShutdownTimeoutSec)*time.Second)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if waitErr := a.Usecase.Wait(shutdownCtx); waitErr != nil {
			log.Warnf("[HTTP] Jobs still running at shutdown: %v", waitErr)
		}
		return err
	})
	return g.Wait()
}

func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.Warnf("[DB] Failed to close database: %v", err)
		}
	}
}

// RunJanitor runs a housekeeping pass every interval until ctx is done.
func RunJanitor(ctx context.Context, h *handler.ReconciliationHandler, interval time.Duration, workerID int) {
	if interval <= 0 {
		log.Warnf("[Janitor %d] disabled: interval %s", workerID, interval)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := h.ReconciliationHousekeeping(ctx)
			switch {
			case err == nil:
				log.Infof("[Janitor %d] success", workerID)
			case handler.IsNothingToClean(err):
				log.Debugf("[Janitor %d] %s", workerID, err)
			default:
				log.Errorf("[Janitor %d] error: %s", workerID, err)
			}
		}
	}
}
