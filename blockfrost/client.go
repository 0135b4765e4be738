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

package blockfrost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultNetwork = "preprod"
	DefaultTimeout = 30 * time.Second
)

// ErrNotFound is returned when the Blockfrost API answers with 404
var ErrNotFound = errors.New("blockfrost: not found")

// APIError is returned for any other non-2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf(
		"blockfrost: HTTP %d: %s",
		e.StatusCode,
		e.Message,
	)
}

// NetworkURL returns the Blockfrost API base URL for a named network
func NetworkURL(network string) (string, error) {
	switch network {
	case "mainnet", "preprod", "preview":
		return "https://cardano-" + network + ".blockfrost.io/api/v0", nil
	default:
		return "", fmt.Errorf("unknown network: %s", network)
	}
}

// Client is a Blockfrost REST API client
type Client struct {
	client     *resty.Client
	logger     *slog.Logger
	httpClient *http.Client
	projectId  string
	baseUrl    string
	network    string
	timeout    time.Duration
}

type ClientOptionFunc func(*Client)

// WithProjectId sets the project_id header sent with every request
func WithProjectId(projectId string) ClientOptionFunc {
	return func(c *Client) {
		c.projectId = projectId
	}
}

// WithBaseURL overrides the base URL derived from the network
func WithBaseURL(baseUrl string) ClientOptionFunc {
	return func(c *Client) {
		c.baseUrl = baseUrl
	}
}

// WithNetwork selects mainnet, preprod, or preview
func WithNetwork(network string) ClientOptionFunc {
	return func(c *Client) {
		c.network = network
	}
}

func WithTimeout(timeout time.Duration) ClientOptionFunc {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOptionFunc {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Blockfrost client
func New(opts ...ClientOptionFunc) (*Client, error) {
	c := &Client{
		network: DefaultNetwork,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	c.logger = c.logger.With("component", "blockfrost")
	if c.baseUrl == "" {
		baseUrl, err := NetworkURL(c.network)
		if err != nil {
			return nil, err
		}
		c.baseUrl = baseUrl
	}
	if c.httpClient != nil {
		c.client = resty.NewWithClient(c.httpClient)
	} else {
		c.client = resty.New()
	}
	c.client.SetBaseURL(c.baseUrl).
		SetTimeout(c.timeout).
		SetHeader("Accept", "application/json")
	if c.projectId != "" {
		c.client.SetHeader("project_id", c.projectId)
	}
	return c, nil
}

// BaseURL returns the API base URL in use
func (c *Client) BaseURL() string {
	return c.baseUrl
}

func (c *Client) get(
	ctx context.Context,
	path string,
	result any,
) error {
	var errResp ErrorResponse
	res, err := c.client.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&errResp).
		Get(path)
	if err != nil {
		return fmt.Errorf("blockfrost request %s: %w", path, err)
	}
	if res.IsSuccess() {
		return nil
	}
	c.logger.Debug(
		"blockfrost request failed",
		"path", path,
		"status", res.StatusCode(),
	)
	if res.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	msg := errResp.Message
	if msg == "" {
		msg = res.Status()
	}
	return &APIError{
		StatusCode: res.StatusCode(),
		Message:    msg,
	}
}

// GetTx fetches a transaction by hash
func (c *Client) GetTx(
	ctx context.Context,
	txHash string,
) (*TxResponse, error) {
	var ret TxResponse
	if err := c.get(ctx, "/txs/"+txHash, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// GetTxUtxos fetches the inputs and outputs of a transaction
func (c *Client) GetTxUtxos(
	ctx context.Context,
	txHash string,
) (*TxUtxosResponse, error) {
	var ret TxUtxosResponse
	if err := c.get(ctx, "/txs/"+txHash+"/utxos", &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// GetTxMetadataCbor fetches the metadata of a transaction with each
// label as CBOR hex
func (c *Client) GetTxMetadataCbor(
	ctx context.Context,
	txHash string,
) ([]TxMetadataCborResponse, error) {
	var ret []TxMetadataCborResponse
	if err := c.get(ctx, "/txs/"+txHash+"/metadata/cbor", &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// GetAssetById fetches an asset by its unit (policy id + asset name hex)
func (c *Client) GetAssetById(
	ctx context.Context,
	unit string,
) (*AssetResponse, error) {
	var ret AssetResponse
	if err := c.get(ctx, "/assets/"+unit, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// LatestBlock fetches the chain tip
func (c *Client) LatestBlock(ctx context.Context) (*BlockResponse, error) {
	var ret BlockResponse
	if err := c.get(ctx, "/blocks/latest", &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// LatestParams fetches the protocol parameters of the current epoch
func (c *Client) LatestParams(
	ctx context.Context,
) (*ProtocolParamsResponse, error) {
	var ret ProtocolParamsResponse
	if err := c.get(ctx, "/epochs/latest/parameters", &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}
