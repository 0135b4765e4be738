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

package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/blinklabs-io/credmint/asset"
	"github.com/blinklabs-io/credmint/event"
	"github.com/blinklabs-io/credmint/mint"
	"github.com/blinklabs-io/credmint/txbuilder"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

const (
	DefaultWorkers = 4
	// DateLayout is the certificate issue date format
	DateLayout = "1/2/2006"

	DefaultImageURLPrefix = "ipfs://"
)

var ErrNoAssembler = errors.New("no mint assembler configured")

// Renderer produces the certificate image
type Renderer interface {
	Render(
		ctx context.Context,
		studentName string,
		educatorName string,
		courseTitle string,
		date string,
	) ([]byte, error)
}

// Uploader stores an image and returns its content reference
type Uploader interface {
	Upload(ctx context.Context, data []byte) (string, error)
}

// Assembler builds the mint transaction for the processed items
type Assembler interface {
	AssembleMint(
		ctx context.Context,
		inputs []txbuilder.Input,
		collateral []txbuilder.Input,
		recipient string,
		items []mint.BatchItem,
	) (*mint.UnsignedMintTransaction, error)
}

// Orchestrator renders, uploads and encodes certificate requests
// concurrently, then mints the survivors in one transaction
type Orchestrator struct {
	renderer    Renderer
	uploader    Uploader
	assembler   Assembler
	logger      *slog.Logger
	workers     int
	itemTimeout time.Duration
	now         func() time.Time
	imagePrefix string
	metrics     *batchMetrics
	eventBus    *event.EventBus
}

type OrchestratorOptionFunc func(*Orchestrator)

// WithAssembler specifies the mint transaction assembler
func WithAssembler(assembler Assembler) OrchestratorOptionFunc {
	return func(o *Orchestrator) {
		o.assembler = assembler
	}
}

// WithWorkers bounds the number of requests processed at once
func WithWorkers(workers int) OrchestratorOptionFunc {
	return func(o *Orchestrator) {
		o.workers = workers
	}
}

// WithItemTimeout bounds the render and upload time of a single request
func WithItemTimeout(timeout time.Duration) OrchestratorOptionFunc {
	return func(o *Orchestrator) {
		o.itemTimeout = timeout
	}
}

// WithClock specifies the source of the mint time
func WithClock(now func() time.Time) OrchestratorOptionFunc {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithImageURLPrefix specifies the prefix turning an upload reference into
// an image URL
func WithImageURLPrefix(prefix string) OrchestratorOptionFunc {
	return func(o *Orchestrator) {
		o.imagePrefix = prefix
	}
}

// WithEventBus specifies the bus receiving item and mint events
func WithEventBus(eventBus *event.EventBus) OrchestratorOptionFunc {
	return func(o *Orchestrator) {
		o.eventBus = eventBus
	}
}

// WithLogger specifies the logger
func WithLogger(logger *slog.Logger) OrchestratorOptionFunc {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithPromRegistry specifies the Prometheus registerer for batch metrics
func WithPromRegistry(reg prometheus.Registerer) OrchestratorOptionFunc {
	return func(o *Orchestrator) {
		o.metrics = initBatchMetrics(reg)
	}
}

func New(
	renderer Renderer,
	uploader Uploader,
	opts ...OrchestratorOptionFunc,
) *Orchestrator {
	o := &Orchestrator{
		renderer: renderer,
		uploader: uploader,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	o.logger = o.logger.With("component", "batch")
	if o.workers <= 0 {
		o.workers = DefaultWorkers
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.imagePrefix == "" {
		o.imagePrefix = DefaultImageURLPrefix
	}
	if o.metrics == nil {
		o.metrics = initBatchMetrics(nil)
	}
	return o
}

// accumulator collects the outcome of one batch call
type accumulator struct {
	mu     sync.Mutex
	items  []mint.BatchItem
	failed int
}

func (a *accumulator) add(item mint.BatchItem) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append(a.items, item)
}

func (a *accumulator) fail() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failed++
}

// result returns the succeeded items in submission order
func (a *accumulator) result() ([]mint.BatchItem, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ret := append([]mint.BatchItem(nil), a.items...)
	sort.Slice(ret, func(i, j int) bool { return ret[i].Index < ret[j].Index })
	return ret, a.failed
}

// ProcessBatch validates, renders, uploads and encodes each request
// independently. Failed requests are logged and counted, never retried, and
// never abort the batch. Succeeded items keep their submission order.
//
// Every item shares the batch mint time, offset by its position in seconds,
// so names stay distinct within one transaction. Separate calls for the same
// course within the same second can still produce the same asset name.
func (o *Orchestrator) ProcessBatch(
	ctx context.Context,
	requests []asset.CertificateRequest,
) ([]mint.BatchItem, int, error) {
	batchId := uuid.New().String()
	logger := o.logger.With("batch_id", batchId)
	at := o.now()
	o.metrics.batches.Inc()
	o.metrics.batchSize.Observe(float64(len(requests)))
	logger.Info("processing certificate batch", "requests", len(requests))

	acc := &accumulator{}
	p := pool.New().WithMaxGoroutines(o.workers)
	for idx, req := range requests {
		p.Go(func() {
			start := time.Now()
			var item mint.BatchItem
			var err error
			if recovered := panics.Try(func() {
				item, err = o.processItem(ctx, idx, req, at)
			}); recovered != nil {
				err = recovered.AsError()
			}
			o.metrics.itemDuration.Observe(time.Since(start).Seconds())
			o.publishItem(idx, req, item, err)
			if err != nil {
				o.metrics.items.WithLabelValues("failure").Inc()
				logger.Warn(
					"skipping certificate request",
					"index", idx,
					"student_id", req.StudentId,
					"course_id", req.CourseId,
					"error", err,
				)
				acc.fail()
				return
			}
			o.metrics.items.WithLabelValues("success").Inc()
			acc.add(item)
		})
	}
	p.Wait()

	items, failed := acc.result()
	logger.Info(
		"processed certificate batch",
		"succeeded", len(items),
		"failed", failed,
	)
	if len(items) == 0 {
		return nil, failed, &NoValidRequestsError{Total: len(requests)}
	}
	return items, failed, nil
}

func (o *Orchestrator) publishItem(
	idx int,
	req asset.CertificateRequest,
	item mint.BatchItem,
	err error,
) {
	if o.eventBus == nil {
		return
	}
	evt := event.CertificateProcessedEvent{
		Index:     idx,
		StudentId: req.StudentId,
		CourseId:  req.CourseId,
	}
	if err != nil {
		evt.Error = err.Error()
	} else {
		evt.AssetName = item.Identity.Name
		evt.ImageRef = item.UploadRef
	}
	o.eventBus.PublishAsync(
		event.CertificateProcessedEventType,
		event.NewEvent(event.CertificateProcessedEventType, evt),
	)
}

func (o *Orchestrator) processItem(
	ctx context.Context,
	idx int,
	req asset.CertificateRequest,
	at time.Time,
) (mint.BatchItem, error) {
	if err := req.Validate(); err != nil {
		return mint.BatchItem{}, err
	}
	if o.itemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.itemTimeout)
		defer cancel()
	}
	image, err := o.renderer.Render(
		ctx,
		req.StudentName,
		req.EducatorName,
		req.CourseTitle,
		at.Format(DateLayout),
	)
	if err != nil {
		return mint.BatchItem{}, asset.NewExternalServiceError("renderer", err)
	}
	ref, err := o.uploader.Upload(ctx, image)
	if err != nil {
		return mint.BatchItem{}, asset.NewExternalServiceError("upload", err)
	}
	if ref == "" {
		return mint.BatchItem{}, asset.NewExternalServiceError(
			"upload",
			errors.New("empty content reference"),
		)
	}
	// Only the name takes the per-item offset
	if req.CreatedAt.IsZero() {
		req.CreatedAt = at
	}
	id, meta, err := asset.Encode(req, at.Add(time.Duration(idx)*time.Second))
	if err != nil {
		return mint.BatchItem{}, err
	}
	return mint.BatchItem{
		Index:     idx,
		Request:   req,
		Identity:  id,
		Metadata:  meta.WithImage(ref),
		UploadRef: ref,
	}, nil
}

// Request is a batch mint submission
type Request struct {
	Inputs     []txbuilder.Input
	Collateral []txbuilder.Input
	Recipient  string
	Requests   []asset.CertificateRequest
}

// ProcessedCertificate is a minted certificate ready to be recorded
type ProcessedCertificate struct {
	StudentId    string `json:"studentId"`
	StudentName  string `json:"studentName"`
	CourseId     string `json:"courseId"`
	CourseTitle  string `json:"courseTitle"`
	AssetName    string `json:"assetName"`
	AssetNameHex string `json:"assetNameHex"`
	Unit         string `json:"unit"`
	Fingerprint  string `json:"fingerprint"`
	IpfsHash     string `json:"ipfsHash"`
	ImageUrl     string `json:"imageUrl"`
}

// Result is the outcome of a batch mint
type Result struct {
	UnsignedTx            string                 `json:"unsignedTx"`
	TxHash                string                 `json:"txHash"`
	Fee                   uint64                 `json:"fee"`
	PolicyId              string                 `json:"policyId"`
	Failed                int                    `json:"failedCount"`
	ProcessedCertificates []ProcessedCertificate `json:"processedCertificates"`
}

// SingleRequest is a mint submission for one certificate. A non-empty
// UploadRef names an image that was already uploaded, skipping rendering
type SingleRequest struct {
	Inputs     []txbuilder.Input
	Collateral []txbuilder.Input
	Recipient  string
	Request    asset.CertificateRequest
	UploadRef  string
}

func (o *Orchestrator) checkMint(
	inputs []txbuilder.Input,
	collateral []txbuilder.Input,
	recipient string,
) error {
	if o.assembler == nil {
		return ErrNoAssembler
	}
	if len(inputs) == 0 {
		return &mint.InsufficientInputsError{Kind: "spendable"}
	}
	if len(collateral) == 0 {
		return &mint.InsufficientInputsError{Kind: "collateral"}
	}
	if recipient == "" {
		return asset.ValidationError{Field: "educatorAddress"}
	}
	return nil
}

// withCreator defaults the educator address to the minting address, which
// also controls the policy
func withCreator(
	req asset.CertificateRequest,
	recipient string,
) asset.CertificateRequest {
	if req.EducatorAddress == "" {
		req.EducatorAddress = recipient
	}
	return req
}

// MintBatch processes the requests and assembles one transaction minting
// every succeeded certificate
func (o *Orchestrator) MintBatch(ctx context.Context, req Request) (*Result, error) {
	if err := o.checkMint(req.Inputs, req.Collateral, req.Recipient); err != nil {
		return nil, err
	}
	requests := make([]asset.CertificateRequest, len(req.Requests))
	for idx, certReq := range req.Requests {
		requests[idx] = withCreator(certReq, req.Recipient)
	}
	items, failed, err := o.ProcessBatch(ctx, requests)
	if err != nil {
		return nil, err
	}
	return o.assemble(ctx, req.Inputs, req.Collateral, req.Recipient, items, failed)
}

// MintOne mints a single certificate. The item's own error is returned
// rather than being counted as a batch failure
func (o *Orchestrator) MintOne(ctx context.Context, req SingleRequest) (*Result, error) {
	if err := o.checkMint(req.Inputs, req.Collateral, req.Recipient); err != nil {
		return nil, err
	}
	req.Request = withCreator(req.Request, req.Recipient)
	at := o.now()
	var item mint.BatchItem
	if req.UploadRef != "" {
		if err := req.Request.Validate(); err != nil {
			return nil, err
		}
		id, meta, err := asset.Encode(req.Request, at)
		if err != nil {
			return nil, err
		}
		item = mint.BatchItem{
			Request:   req.Request,
			Identity:  id,
			Metadata:  meta.WithImage(req.UploadRef),
			UploadRef: req.UploadRef,
		}
	} else {
		var err error
		item, err = o.processItem(ctx, 0, req.Request, at)
		if err != nil {
			return nil, err
		}
	}
	return o.assemble(
		ctx,
		req.Inputs,
		req.Collateral,
		req.Recipient,
		[]mint.BatchItem{item},
		0,
	)
}

func (o *Orchestrator) assemble(
	ctx context.Context,
	inputs []txbuilder.Input,
	collateral []txbuilder.Input,
	recipient string,
	items []mint.BatchItem,
	failed int,
) (*Result, error) {
	tx, err := o.assembler.AssembleMint(
		ctx,
		inputs,
		collateral,
		recipient,
		items,
	)
	if err != nil {
		return nil, fmt.Errorf("mint of %d certificates: %w", len(items), err)
	}
	ret := &Result{
		UnsignedTx:            tx.CborHex,
		TxHash:                tx.TxHash,
		Fee:                   tx.Fee,
		PolicyId:              tx.PolicyId,
		Failed:                failed,
		ProcessedCertificates: make([]ProcessedCertificate, 0, len(items)),
	}
	for idx, item := range items {
		cert := ProcessedCertificate{
			StudentId:    item.Request.StudentId,
			StudentName:  item.Request.StudentName,
			CourseId:     item.Request.CourseId,
			CourseTitle:  item.Request.CourseTitle,
			AssetName:    item.Identity.Name,
			AssetNameHex: item.Identity.NameHex,
			IpfsHash:     item.UploadRef,
			ImageUrl:     o.imagePrefix + item.UploadRef,
		}
		if idx < len(tx.Assets) {
			cert.Unit = tx.Assets[idx].Unit
			cert.Fingerprint = tx.Assets[idx].Fingerprint
		}
		ret.ProcessedCertificates = append(ret.ProcessedCertificates, cert)
	}
	if o.eventBus != nil {
		o.eventBus.PublishAsync(
			event.MintAssembledEventType,
			event.NewEvent(
				event.MintAssembledEventType,
				event.MintAssembledEvent{
					TxHash:    ret.TxHash,
					PolicyId:  ret.PolicyId,
					Fee:       ret.Fee,
					Assets:    len(items),
					Failed:    failed,
					Recipient: recipient,
				},
			),
		)
	}
	return ret, nil
}
