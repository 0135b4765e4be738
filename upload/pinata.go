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

// Package upload stores rendered certificate images and returns a
// reference usable in token metadata
package upload

import (
	"bytes"
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
	DefaultPinataURL     = "https://api.pinata.cloud"
	DefaultPinataTimeout = 60 * time.Second
	pinFilePath          = "/pinning/pinFileToIPFS"
)

// ErrEmptyReference is returned when the pinning service reports success
// without a content hash
var ErrEmptyReference = errors.New("upload returned an empty reference")

type pinataResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

type pinataError struct {
	Error any `json:"error"`
}

// Pinata pins files to IPFS through the Pinata API
type Pinata struct {
	client     *resty.Client
	logger     *slog.Logger
	httpClient *http.Client
	jwt        string
	baseUrl    string
	fileName   string
	timeout    time.Duration
}

type PinataOptionFunc func(*Pinata)

// WithPinataURL overrides the Pinata API base URL
func WithPinataURL(baseUrl string) PinataOptionFunc {
	return func(p *Pinata) {
		p.baseUrl = baseUrl
	}
}

// WithFileName sets the file name sent with each upload
func WithFileName(fileName string) PinataOptionFunc {
	return func(p *Pinata) {
		p.fileName = fileName
	}
}

func WithPinataTimeout(timeout time.Duration) PinataOptionFunc {
	return func(p *Pinata) {
		p.timeout = timeout
	}
}

// WithPinataHTTPClient sets the underlying HTTP client
func WithPinataHTTPClient(httpClient *http.Client) PinataOptionFunc {
	return func(p *Pinata) {
		p.httpClient = httpClient
	}
}

func WithPinataLogger(logger *slog.Logger) PinataOptionFunc {
	return func(p *Pinata) {
		p.logger = logger
	}
}

// NewPinata creates a Pinata uploader authenticating with a JWT
func NewPinata(jwt string, opts ...PinataOptionFunc) (*Pinata, error) {
	if jwt == "" {
		return nil, errors.New("pinata JWT must be set")
	}
	p := &Pinata{
		jwt:      jwt,
		baseUrl:  DefaultPinataURL,
		fileName: "certificate.png",
		timeout:  DefaultPinataTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	p.logger = p.logger.With("component", "upload")
	if p.httpClient != nil {
		p.client = resty.NewWithClient(p.httpClient)
	} else {
		p.client = resty.New()
	}
	p.client.SetBaseURL(p.baseUrl).
		SetTimeout(p.timeout).
		SetAuthToken(p.jwt)
	return p, nil
}

// Upload pins data and returns its IPFS content hash
func (p *Pinata) Upload(ctx context.Context, data []byte) (string, error) {
	var result pinataResponse
	var errResult pinataError
	res, err := p.client.R().
		SetContext(ctx).
		SetFileReader("file", p.fileName, bytes.NewReader(data)).
		SetResult(&result).
		SetError(&errResult).
		Post(pinFilePath)
	if err != nil {
		return "", fmt.Errorf("pinata upload: %w", err)
	}
	if !res.IsSuccess() {
		return "", fmt.Errorf(
			"pinata upload: HTTP %d: %v",
			res.StatusCode(),
			errResult.Error,
		)
	}
	if result.IpfsHash == "" {
		return "", ErrEmptyReference
	}
	p.logger.Info(
		fmt.Sprintf(
			"pinned %s (%d bytes)",
			result.IpfsHash,
			result.PinSize,
		),
	)
	return result.IpfsHash, nil
}
