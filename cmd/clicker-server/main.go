// Package main is the entry point for the Brain Clicker game server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/brainclicker/internal/domain/catalog"
	"github.com/MRamiBalles/brainclicker/internal/engine"
	"github.com/MRamiBalles/brainclicker/internal/events"
	"github.com/MRamiBalles/brainclicker/internal/infra/storage"
	"github.com/MRamiBalles/brainclicker/internal/network"
	"github.com/MRamiBalles/brainclicker/internal/platform/clock"
	"github.com/MRamiBalles/brainclicker/internal/platform/config"
	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
	"github.com/MRamiBalles/brainclicker/internal/platform/metrics"
)

func main() {
	appLogger := logger.NewLogger()
	if err := run(appLogger); err != nil {
		appLogger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(appLogger *logger.Logger) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	appLogger.Info("configuration loaded", "addr", cfg.ListenAddr, "journal", cfg.JournalPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()

	var persister events.Persister
	if cfg.JournalPath != "" {
		appLogger.Info("opening SQLite journal", "path", cfg.JournalPath)
		db, err := storage.OpenSQLite(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer db.Close()
		persister = storage.NewSQLiteJournalRepository(db)
	}
	journal := events.NewJournal(cfg.JournalCapacity, persister, appLogger.With("component", "journal"))
	journal.SetRecorder(collector)

	appLogger.Info("bootstrapping store and engine subsystems")
	store := engine.NewStore(catalog.Default().InitialState(),
		engine.WithJournal(journal),
		engine.WithRecorder(collector),
		engine.WithLogger(appLogger),
		engine.WithHooks(engine.DefaultHooks(appLogger)...),
	)
	clk := clock.RealClock{}
	sched := engine.NewScheduler(clk, cfg.SchedulerResolution, appLogger.With("component", "scheduler"))
	sched.SetRecorder(collector)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gameEngine := engine.NewEngine(cfg, store, sched, clk, rand.New(rand.NewSource(seed)), appLogger)

	hub := network.NewHub(gameEngine, network.HubOptions{
		BroadcastBuffer:      cfg.BroadcastBuffer,
		ClientSendBuffer:     cfg.ClientSendBuffer,
		MaxMessagesPerSecond: cfg.MaxMessagesPerSecond,
	}, collector, appLogger.With("component", "hub"))
	unsubscribe := store.Subscribe(func(engine.Change) { hub.MarkDirty() })
	defer unsubscribe()
	cancelCues := gameEngine.SubscribeCues(hub.BroadcastCue)
	defer cancelCues()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	network.NewAPIHandler(gameEngine, journal, appLogger).RegisterRoutes(mux)
	mux.HandleFunc("/api/metrics", metrics.Handler(collector))
	mux.HandleFunc("/metrics", metrics.PrometheusHandler(collector))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return engine.WithStore(ctx, store)
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return journal.Run(gctx) })
	g.Go(func() error { return gameEngine.Run(gctx) })
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		appLogger.Info("HTTP API & WS server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	st := store.GetState()
	appLogger.Info("final state", "points", st.Points, "level", st.Level, "rebirths", st.Rebirths, "journal_entries", journal.Len())
	return err
}
