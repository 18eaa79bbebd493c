// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"net/http"
	"time"

	"pdbmirror/internal/api/admin"
	"pdbmirror/internal/api/mirror"
	"pdbmirror/internal/config"
	"pdbmirror/internal/db"
	"pdbmirror/internal/logging"
	"pdbmirror/internal/object"
	"pdbmirror/internal/router"
	"pdbmirror/internal/scheduler"
	"pdbmirror/internal/syncer"
	"pdbmirror/internal/upstream"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogFile)
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		zap.L().Fatal("database connection failed", zap.Error(err))
	}
	store := object.NewGormStore(pg)

	client := upstream.NewClient(upstream.Config{
		SnapshotBaseURL: cfg.SnapshotBaseURL,
		LiveBaseURL:     cfg.LiveBaseURL,
		UserAgent:       cfg.UserAgent,
		Timeout:         cfg.UpstreamTimeout,
		RetryAttempts:   cfg.RetryAttempts,
		RetryDelay:      cfg.RetryDelay,
		RetryMaxDelay:   cfg.RetryMaxDelay,
	})

	engine := syncer.New(store, client, cfg.SyncPageSize)

	go scheduler.New(engine, cfg.SyncInterval).Run(context.Background())

	handler := router.New(
		mirror.NewHandler(store, cfg.QueryLimit),
		admin.NewHandler(engine),
		cfg.SyncSecret,
	)

	srv := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        handler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	zap.L().Info("listening", zap.String("addr", cfg.ListenAddr))
	if err := srv.ListenAndServe(); err != nil {
		zap.L().Fatal("http server exited", zap.Error(err))
	}
}
