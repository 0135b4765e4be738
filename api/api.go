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

// Package api serves the certificate minting HTTP API
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/credmint/batch"
	"github.com/blinklabs-io/credmint/database"
	"github.com/blinklabs-io/credmint/database/models"
	"github.com/blinklabs-io/credmint/event"
	"github.com/blinklabs-io/credmint/resolver"
)

const (
	DefaultListenAddress  = ":8080"
	DefaultImageURLPrefix = "ipfs://"
	maxRequestBodyBytes   = 4 << 20
)

// Minter mints single certificates and batches
type Minter interface {
	MintOne(ctx context.Context, req batch.SingleRequest) (*batch.Result, error)
	MintBatch(ctx context.Context, req batch.Request) (*batch.Result, error)
}

// AssetResolver reconstructs minted certificates from the ledger
type AssetResolver interface {
	ResolveByTx(ctx context.Context, txHash string) (*resolver.OnChainAsset, error)
	ResolveByPolicyAndTx(
		ctx context.Context,
		policyId string,
		txHash string,
	) (*resolver.OnChainAsset, error)
}

// CertificateStore persists certificate records
type CertificateStore interface {
	SaveCertificate(ctx context.Context, cert *models.Certificate) error
	SaveCertificates(ctx context.Context, certs []models.Certificate) error
	GetCertificateByTx(ctx context.Context, txHash string) (*models.Certificate, error)
	GetCertificate(
		ctx context.Context,
		userId string,
		courseId string,
	) (*models.Certificate, error)
	ListCertificates(
		ctx context.Context,
		userId string,
		opts database.ListOptions,
	) ([]models.Certificate, int64, error)
	UpdateCertificatePolicy(
		ctx context.Context,
		certificateId string,
		policyId string,
	) (*models.Certificate, error)
}

// CourseStore looks up courses
type CourseStore interface {
	GetCourse(ctx context.Context, courseId string) (*models.Course, error)
}

// Server is the HTTP API server
type Server struct {
	minter        Minter
	resolver      AssetResolver
	certificates  CertificateStore
	courses       CourseStore
	eventBus      *event.EventBus
	logger        *slog.Logger
	promRegistry  prometheus.Registerer
	metrics       *apiMetrics
	httpServer    *http.Server
	listenAddress string
	imagePrefix   string
	mu            sync.Mutex
}

type ServerOptionFunc func(*Server)

func WithListenAddress(address string) ServerOptionFunc {
	return func(s *Server) {
		s.listenAddress = address
	}
}

func WithMinter(minter Minter) ServerOptionFunc {
	return func(s *Server) {
		s.minter = minter
	}
}

func WithResolver(resolver AssetResolver) ServerOptionFunc {
	return func(s *Server) {
		s.resolver = resolver
	}
}

func WithCertificateStore(store CertificateStore) ServerOptionFunc {
	return func(s *Server) {
		s.certificates = store
	}
}

func WithCourseStore(store CourseStore) ServerOptionFunc {
	return func(s *Server) {
		s.courses = store
	}
}

// WithImageURLPrefix sets the prefix joined with an upload reference to
// form a certificate URL
func WithImageURLPrefix(prefix string) ServerOptionFunc {
	return func(s *Server) {
		s.imagePrefix = prefix
	}
}

func WithLogger(logger *slog.Logger) ServerOptionFunc {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithEventBus specifies the bus notified of saved certificates
func WithEventBus(eventBus *event.EventBus) ServerOptionFunc {
	return func(s *Server) {
		s.eventBus = eventBus
	}
}

func WithPromRegistry(reg prometheus.Registerer) ServerOptionFunc {
	return func(s *Server) {
		s.promRegistry = reg
	}
}

// New creates an API server. Routes whose backing service was not
// configured answer 503
func New(opts ...ServerOptionFunc) *Server {
	s := &Server{
		listenAddress: DefaultListenAddress,
		imagePrefix:   DefaultImageURLPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s.logger = s.logger.With("component", "api")
	s.metrics = initAPIMetrics(s.promRegistry)
	return s
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, "GET /health", s.handleHealth)
	s.handle(mux, "POST /api/v1/nft/mint", s.handleMint)
	s.handle(mux, "POST /api/v1/nft/batch-mint", s.handleBatchMint)
	s.handle(mux, "GET /api/v1/nft/by-tx/{txHash}", s.handleResolveByTx)
	s.handle(
		mux,
		"GET /api/v1/nft/by-policy/{policyId}/{txHash}",
		s.handleResolveByPolicy,
	)
	s.handle(
		mux,
		"GET /api/v1/nft/by-course/{courseId}",
		s.handleResolveByCourse,
	)
	s.handle(mux, "POST /api/v1/certificates", s.handleSaveCertificates)
	s.handle(
		mux,
		"POST /api/v1/certificates/update",
		s.handleUpdateCertificate,
	)
	s.handle(
		mux,
		"GET /api/v1/certificates/by-tx/{txHash}",
		s.handleCertificateByTx,
	)
	s.handle(mux, "GET /api/v1/certificates/{userId}", s.handleListCertificates)
	s.handle(
		mux,
		"GET /api/v1/certificates/{userId}/{courseId}",
		s.handleGetCertificate,
	)
	return mux
}

// Start starts the HTTP server in a background goroutine. The server is
// shut down when ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              s.listenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	s.httpServer = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	s.logger.Info("API listener started on " + ln.Addr().String())

	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Debug("shutting down API server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}
