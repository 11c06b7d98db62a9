package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/Rach840/survey-frontend-sub000/app"
	"github.com/Rach840/survey-frontend-sub000/config"
	"github.com/Rach840/survey-frontend-sub000/database"
	"github.com/Rach840/survey-frontend-sub000/form"
	"github.com/Rach840/survey-frontend-sub000/httpx"
	"github.com/Rach840/survey-frontend-sub000/log"
	"github.com/Rach840/survey-frontend-sub000/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	app := app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
		Drafts:       form.NewDraftStore(db),
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
