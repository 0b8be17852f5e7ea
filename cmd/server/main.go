package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/lib/pq"

	"tychoorderbook/internal/api"
	"tychoorderbook/internal/chainrpc"
	"tychoorderbook/internal/config"
	"tychoorderbook/internal/eventhub"
	"tychoorderbook/internal/feed"
	"tychoorderbook/internal/optimizer"
	"tychoorderbook/internal/orderbook"
	"tychoorderbook/internal/planner"
	"tychoorderbook/internal/repository"
	"tychoorderbook/internal/state"
	"tychoorderbook/internal/streamproc"
	"tychoorderbook/internal/valuation"
	"tychoorderbook/pkg/crypto"
	"tychoorderbook/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logging.Must(cfg.Logging)
	defer log.Sync()

	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	log.Info("connected to database")

	encryptionKey := []byte(cfg.Security.EncryptionKey)
	pairRepo := repository.NewWatchedPairRepository(db)
	auditRepo := repository.NewBuildAuditRepository(db)
	credentials := repository.NewCredentialStore(db, encryptionKey)
	if stored, err := credentials.List(); err != nil {
		log.Warn("failed to list stored credentials", zap.Error(err))
	} else {
		log.Info("credential store ready", zap.Int("stored_credentials", len(stored)))
	}

	var operatorTokenHash string
	if cfg.Security.OperatorToken != "" {
		operatorTokenHash, err = crypto.HashPassword(cfg.Security.OperatorToken)
		if err != nil {
			log.Fatal("failed to hash operator token", zap.Error(err))
		}
	} else {
		log.Warn("OPERATOR_TOKEN not set; mutating pair endpoints will reject every request")
	}

	store := state.New()

	rpcClient := chainrpc.New(cfg.Chain.RPCURL, cfg.Chain.RPCTimeout, cfg.Chain.RPCRateLimit, cfg.Chain.RPCBurst)
	router := valuation.New(cfg.Chain.ReferenceToken, 4)

	plannerCfg := planner.Config{
		Count:           cfg.Optimizer.StepCount,
		StartMultiplier: cfg.Optimizer.StepStartMultiplier,
		EndMultiplier:   cfg.Optimizer.StepEndMultiplier,
		MinDeltaPct:     cfg.Optimizer.StepMinDeltaPct,
	}
	optimizerCfg := optimizer.Config{
		MaxIterations:       cfg.Optimizer.MaxIterations,
		ReallocationDivisor: cfg.Optimizer.ReallocationDivisor,
		ConvergenceEpsilon:  cfg.Optimizer.ConvergenceEpsilon,
	}
	builder := orderbook.New(store, router, rpcClient, plannerCfg, optimizerCfg, cfg.Optimizer.BestBidAskBps, log)

	updates := make(chan streamproc.BlockUpdate, cfg.Feed.EventBufferSize)
	source := feed.NewStaticSource(nil, nil, 0)
	producer := feed.New(feed.Config{
		PollInterval: cfg.Feed.PollInterval,
		MinTVLUSD:    cfg.Feed.MinTVLUSD,
		MaxTVLUSD:    cfg.Feed.MaxTVLUSD,
	}, source, updates, log)

	processor := streamproc.New(store, updates, cfg.Feed.EventBufferSize, log)

	hub := eventhub.NewHub(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run()
	go producer.Run(ctx)
	go processor.Run(ctx)
	go func() {
		for ev := range processor.Events() {
			hub.BroadcastEvent(string(ev.Kind), ev.BlockHeight, ev.Err)
		}
	}()

	deps := &api.Dependencies{
		Builder:           builder,
		Router:            router,
		Store:             store,
		Pairs:             pairRepo,
		Audits:            auditRepo,
		Hub:               hub,
		OperatorTokenHash: operatorTokenHash,
		Log:               log,
	}
	handler := api.SetupRoutes(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", zap.String("addr", server.Addr))
		var serveErr error
		if cfg.Server.UseHTTPS {
			serveErr = server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			serveErr = server.ListenAndServe()
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(serveErr))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := sql.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
