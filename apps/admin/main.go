package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/trezcool/apsas/core"
	"github.com/trezcool/apsas/core/bundle"
	"github.com/trezcool/apsas/core/dashboard"
	"github.com/trezcool/apsas/core/session"
	"github.com/trezcool/apsas/services/apsas"
	"github.com/trezcool/apsas/services/cache"
	emailsvc "github.com/trezcool/apsas/services/email"
	"github.com/trezcool/apsas/services/export/docx"
	"github.com/trezcool/apsas/services/export/xlsx"
	logsvc "github.com/trezcool/apsas/services/logger"
	boltdb "github.com/trezcool/apsas/storage/bolt"
	"github.com/trezcool/apsas/storage/database"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up local state
	state, err := boltdb.Open(conf.State.Path)
	if err != nil {
		logger.Fatal("opening local state", err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, os.Stdout, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	validate, _ := core.NewValidator()
	upstream := cache.NewSource(
		apsas.NewClient(conf.APSAS, &http.Client{}, logger.With(map[string]interface{}{"component": "apsas", "baseURL": conf.APSAS.BaseURL})),
		cache.New(conf.Cache.TTL),
	)

	cli := commandLine{
		conf:      conf,
		dashboard: dashboard.NewService(upstream, validate),
		bundler: bundle.NewBuilder(upstream, docx.NewRenderer(), logger.With(map[string]interface{}{"component": "bundle"}), bundle.Options{
			Concurrency:     conf.Bundle.Concurrency,
			DownloadTimeout: conf.Bundle.DownloadTimeout,
		}),
		exporter: xlsx.NewWriter(),
		sessions: session.NewService(boltdb.NewSessionRepository(state), validate),
		mailer:   mailSvc,
		out:      os.Stdout,
		now:      time.Now,
	}

	// the database is only needed by migrations
	if len(os.Args) > 1 && os.Args[1] == "migrate" && conf.Database.Enabled {
		if err = database.CreateIfNotExist(conf); err != nil {
			logger.Fatal("creating database", err)
		}
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal("opening database", err)
		}
		defer db.Close()
		cli.db = db.DB
	}

	err = cli.run(os.Args)
	if cerr := state.Close(); cerr != nil {
		logger.Error("closing local state", cerr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("admin: "+err.Error(), err)
		}
		os.Exit(1)
	}
}
