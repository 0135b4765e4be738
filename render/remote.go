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

// Package render produces certificate images for minting
package render

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

const DefaultRemoteTimeout = 60 * time.Second

// ErrEmptyImage is returned when the rendering service answers with no body
var ErrEmptyImage = errors.New("renderer returned an empty image")

// RemoteRequest is the JSON body sent to the rendering service
type RemoteRequest struct {
	StudentName  string `json:"studentName"`
	EducatorName string `json:"educatorName"`
	CourseTitle  string `json:"courseTitle"`
	Date         string `json:"date"`
}

// Remote renders certificates through an HTTP image-generation service
type Remote struct {
	client     *resty.Client
	logger     *slog.Logger
	httpClient *http.Client
	url        string
	timeout    time.Duration
}

type RemoteOptionFunc func(*Remote)

func WithRemoteTimeout(timeout time.Duration) RemoteOptionFunc {
	return func(r *Remote) {
		r.timeout = timeout
	}
}

// WithRemoteHTTPClient sets the underlying HTTP client
func WithRemoteHTTPClient(httpClient *http.Client) RemoteOptionFunc {
	return func(r *Remote) {
		r.httpClient = httpClient
	}
}

func WithRemoteLogger(logger *slog.Logger) RemoteOptionFunc {
	return func(r *Remote) {
		r.logger = logger
	}
}

// NewRemote creates a renderer posting to url
func NewRemote(url string, opts ...RemoteOptionFunc) (*Remote, error) {
	if url == "" {
		return nil, errors.New("remote renderer URL must be set")
	}
	r := &Remote{
		url:     url,
		timeout: DefaultRemoteTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	r.logger = r.logger.With("component", "render")
	if r.httpClient != nil {
		r.client = resty.NewWithClient(r.httpClient)
	} else {
		r.client = resty.New()
	}
	r.client.SetTimeout(r.timeout)
	return r, nil
}

func (r *Remote) Render(
	ctx context.Context,
	studentName string,
	educatorName string,
	courseTitle string,
	date string,
) ([]byte, error) {
	res, err := r.client.R().
		SetContext(ctx).
		SetHeader("Accept", "image/png").
		SetBody(RemoteRequest{
			StudentName:  studentName,
			EducatorName: educatorName,
			CourseTitle:  courseTitle,
			Date:         date,
		}).
		Post(r.url)
	if err != nil {
		return nil, fmt.Errorf("render request: %w", err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf(
			"render request: HTTP %d: %s",
			res.StatusCode(),
			res.String(),
		)
	}
	body := res.Body()
	if len(body) == 0 {
		return nil, ErrEmptyImage
	}
	r.logger.Debug(
		"rendered certificate",
		"student", studentName,
		"bytes", len(body),
	)
	return body, nil
}
