package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/trezcool/apsas/apps/api/echo"
	"github.com/trezcool/apsas/core"
	"github.com/trezcool/apsas/core/bundle"
	"github.com/trezcool/apsas/core/dashboard"
	"github.com/trezcool/apsas/core/session"
	"github.com/trezcool/apsas/services/apsas"
	"github.com/trezcool/apsas/services/cache"
	"github.com/trezcool/apsas/services/export/docx"
	"github.com/trezcool/apsas/services/export/xlsx"
	logsvc "github.com/trezcool/apsas/services/logger"
	"github.com/trezcool/apsas/storage/database"
	inmemdb "github.com/trezcool/apsas/storage/database/inmem"
	"github.com/trezcool/apsas/storage/database/sqlxrepos"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up session storage
	sessionRepo, closeDB, err := setUpSessionRepository(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = closeDB(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	validate, translator := core.NewValidator()

	upstream := cache.NewSource(
		apsas.NewClient(conf.APSAS, &http.Client{}, logger.With(map[string]interface{}{"component": "apsas", "baseURL": conf.APSAS.BaseURL})),
		cache.New(conf.Cache.TTL),
	)
	dashSvc := dashboard.NewService(upstream, validate)
	sessionSvc := session.NewService(sessionRepo, validate)
	bundler := bundle.NewBuilder(upstream, docx.NewRenderer(), logger.With(map[string]interface{}{"component": "bundle"}), bundle.Options{
		Concurrency:     conf.Bundle.Concurrency,
		DownloadTimeout: conf.Bundle.DownloadTimeout,
	})

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			Translator:   translator,
			DashboardSvc: dashSvc,
			SessionSvc:   sessionSvc,
			Bundler:      bundler,
			Exporter:     xlsx.NewWriter(),
			Cache:        upstream.Cache(),
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpSessionRepository stores sessions in Postgres when the database is enabled, in memory otherwise.
func setUpSessionRepository(conf *core.Config) (session.Repository, func() error, error) {
	if !conf.Database.Enabled {
		return inmemdb.NewSessionRepository(inmemdb.Open()), func() error { return nil }, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, err
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return sqlxrepos.NewSessionRepository(db), db.Close, nil
}
