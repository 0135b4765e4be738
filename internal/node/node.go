// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/blinklabs-io/credmint/api"
	"github.com/blinklabs-io/credmint/batch"
	"github.com/blinklabs-io/credmint/blockfrost"
	"github.com/blinklabs-io/credmint/database"
	"github.com/blinklabs-io/credmint/event"
	"github.com/blinklabs-io/credmint/internal/config"
	"github.com/blinklabs-io/credmint/mint"
	"github.com/blinklabs-io/credmint/render"
	"github.com/blinklabs-io/credmint/resolver"
	"github.com/blinklabs-io/credmint/txbuilder"
	"github.com/blinklabs-io/credmint/upload"
)

// Node holds the wired services behind the HTTP API
type Node struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *database.Database
	api      *api.Server
	eventBus *event.EventBus
}

// New builds every service from cfg. Metrics are registered with reg
// when it is not nil
func New(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	reg prometheus.Registerer,
) (*Node, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	bfOpts := []blockfrost.ClientOptionFunc{
		blockfrost.WithNetwork(cfg.Network),
		blockfrost.WithProjectId(cfg.Blockfrost.ProjectId),
		blockfrost.WithTimeout(cfg.Blockfrost.Timeout),
		blockfrost.WithLogger(logger),
	}
	if cfg.Blockfrost.BaseURL != "" {
		bfOpts = append(bfOpts, blockfrost.WithBaseURL(cfg.Blockfrost.BaseURL))
	}
	bfClient, err := blockfrost.New(bfOpts...)
	if err != nil {
		return nil, fmt.Errorf("blockfrost client: %w", err)
	}
	ledger := blockfrost.NewLedgerAdapter(bfClient)
	eventBus := event.NewEventBus(reg, logger)
	assembler := newAssembler(cfg, ledger, logger)
	renderer, err := newRenderer(cfg, logger)
	if err != nil {
		eventBus.Stop()
		return nil, err
	}
	uploader, err := newUploader(ctx, cfg, logger)
	if err != nil {
		eventBus.Stop()
		return nil, err
	}
	orchestrator := batch.New(
		renderer,
		uploader,
		batch.WithAssembler(assembler),
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithItemTimeout(cfg.Batch.ItemTimeout),
		batch.WithImageURLPrefix(cfg.Api.ImageURLPrefix),
		batch.WithLogger(logger),
		batch.WithPromRegistry(reg),
		batch.WithEventBus(eventBus),
	)
	db, err := database.New(
		database.WithDriver(cfg.Database.Driver),
		database.WithDataDir(cfg.Database.DataDir),
		database.WithDsn(cfg.Database.Dsn),
		database.WithLogger(logger),
	)
	if err != nil {
		eventBus.Stop()
		return nil, fmt.Errorf("database: %w", err)
	}
	assetResolver := resolver.New(
		ledger,
		resolver.WithCourseStore(db),
		resolver.WithLogger(logger),
	)
	server := api.New(
		api.WithListenAddress(
			fmt.Sprintf("%s:%d", cfg.Api.ListenAddress, cfg.Api.ListenPort),
		),
		api.WithMinter(orchestrator),
		api.WithResolver(assetResolver),
		api.WithCertificateStore(db),
		api.WithCourseStore(db),
		api.WithImageURLPrefix(cfg.Api.ImageURLPrefix),
		api.WithLogger(logger),
		api.WithPromRegistry(reg),
		api.WithEventBus(eventBus),
	)
	n := &Node{
		cfg:      cfg,
		logger:   logger.With("component", "node"),
		db:       db,
		api:      server,
		eventBus: eventBus,
	}
	n.subscribeAudit()
	return n, nil
}

// subscribeAudit logs every mint lifecycle event
func (n *Node) subscribeAudit() {
	auditLogger := n.logger.With("audit", true)
	for _, eventType := range []event.EventType{
		event.CertificateProcessedEventType,
		event.MintAssembledEventType,
		event.CertificatesSavedEventType,
	} {
		n.eventBus.SubscribeFunc(eventType, func(evt event.Event) {
			auditLogger.Info(
				string(evt.Type),
				"data", evt.Data,
				"timestamp", evt.Timestamp,
			)
		})
	}
}

// useLedgerParams reports whether protocol parameters and the chain tip
// come from Blockfrost
func useLedgerParams(cfg *config.Config) bool {
	if cfg.Blockfrost.StaticParams {
		return false
	}
	return cfg.Blockfrost.ProjectId != "" || cfg.Blockfrost.BaseURL != ""
}

func newAssembler(
	cfg *config.Config,
	ledger *blockfrost.LedgerAdapter,
	logger *slog.Logger,
) *mint.Assembler {
	var params txbuilder.ProtocolParamsProvider = txbuilder.StaticParams(
		cfg.ProtocolParams,
	)
	opts := []mint.AssemblerOptionFunc{
		mint.WithLogger(logger),
	}
	if useLedgerParams(cfg) {
		params = ledger
		if cfg.Mint.TtlOffset > 0 {
			opts = append(opts, mint.WithTipProvider(ledger, cfg.Mint.TtlOffset))
		}
	}
	opts = append(
		opts,
		mint.WithBuilder(
			txbuilder.New(
				txbuilder.WithProtocolParams(params),
				txbuilder.WithLogger(logger),
			),
		),
	)
	return mint.NewAssembler(opts...)
}

func newRenderer(cfg *config.Config, logger *slog.Logger) (batch.Renderer, error) {
	switch cfg.Render.Mode {
	case "remote":
		return render.NewRemote(
			cfg.Render.URL,
			render.WithRemoteTimeout(cfg.Render.Timeout),
			render.WithRemoteLogger(logger),
		)
	case "local", "":
		return render.NewLocal(), nil
	default:
		return nil, fmt.Errorf("unknown render mode: %s", cfg.Render.Mode)
	}
}

func newUploader(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (batch.Uploader, error) {
	switch cfg.Upload.Mode {
	case "s3":
		return upload.NewS3(
			ctx,
			upload.WithBucket(cfg.Upload.S3Bucket),
			upload.WithPrefix(cfg.Upload.S3Prefix),
			upload.WithRegion(cfg.Upload.S3Region),
			upload.WithEndpoint(cfg.Upload.S3Endpoint),
			upload.WithS3Logger(logger),
		)
	case "pinata", "":
		opts := []upload.PinataOptionFunc{
			upload.WithPinataLogger(logger),
		}
		if cfg.Upload.PinataURL != "" {
			opts = append(opts, upload.WithPinataURL(cfg.Upload.PinataURL))
		}
		return upload.NewPinata(cfg.Upload.PinataJWT, opts...)
	default:
		return nil, fmt.Errorf("unknown upload mode: %s", cfg.Upload.Mode)
	}
}

// Handler returns the API handler
func (n *Node) Handler() http.Handler {
	return n.api.Handler()
}

// Close stops the event bus and releases the database
func (n *Node) Close() error {
	n.eventBus.Stop()
	return n.db.Close()
}

// Run serves the API and metrics listeners until ctx is done or a
// listener fails
func (n *Node) Run(ctx context.Context) error {
	if err := n.db.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	g, gctx := errgroup.WithContext(ctx)
	if err := n.api.Start(gctx); err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsAddr := fmt.Sprintf(
		"%s:%d",
		n.cfg.Metrics.ListenAddress,
		n.cfg.Metrics.ListenPort,
	)
	metricsServer := &http.Server{
		Addr:              metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	n.logger.Info("serving prometheus metrics on " + metricsAddr)
	g.Go(func() error {
		err := metricsServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics listener: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		n.logger.Info("shutting down")
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			n.cfg.ShutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			n.logger.Error("metrics server shutdown error", "error", err)
		}
		if err := n.api.Stop(shutdownCtx); err != nil {
			n.logger.Error("API server shutdown error", "error", err)
		}
		return nil
	})
	return g.Wait()
}

// Run builds a node from cfg and serves until SIGINT or SIGTERM
func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg.Redacted()), "component", "node")
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()
	n, err := New(signalCtx, cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer func() {
		if err := n.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}()
	if err := n.Run(signalCtx); err != nil {
		logger.Error("node error", "error", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
