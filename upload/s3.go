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

package upload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const DefaultS3Timeout = 60 * time.Second

// S3API is the subset of the S3 client used by the uploader
type S3API interface {
	PutObject(
		ctx context.Context,
		params *s3.PutObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.PutObjectOutput, error)
}

// S3 stores certificate images in an S3 bucket keyed by content hash
type S3 struct {
	client   S3API
	logger   *slog.Logger
	bucket   string
	prefix   string
	region   string
	endpoint string
	timeout  time.Duration
}

type S3OptionFunc func(*S3)

// WithBucket specifies the S3 bucket name
func WithBucket(bucket string) S3OptionFunc {
	return func(u *S3) {
		u.bucket = bucket
	}
}

// WithPrefix specifies the S3 object key prefix
func WithPrefix(prefix string) S3OptionFunc {
	return func(u *S3) {
		u.prefix = strings.Trim(prefix, "/")
	}
}

// WithRegion specifies the AWS region
func WithRegion(region string) S3OptionFunc {
	return func(u *S3) {
		u.region = region
	}
}

// WithEndpoint specifies a custom S3 endpoint, such as a local minio
func WithEndpoint(endpoint string) S3OptionFunc {
	return func(u *S3) {
		u.endpoint = endpoint
	}
}

// WithS3Timeout specifies the timeout for AWS config loading and uploads
func WithS3Timeout(timeout time.Duration) S3OptionFunc {
	return func(u *S3) {
		u.timeout = timeout
	}
}

// WithS3Client supplies a ready S3 client instead of loading AWS config
func WithS3Client(client S3API) S3OptionFunc {
	return func(u *S3) {
		u.client = client
	}
}

func WithS3Logger(logger *slog.Logger) S3OptionFunc {
	return func(u *S3) {
		u.logger = logger
	}
}

// NewS3 creates an S3 uploader, loading the default AWS config unless a
// client was supplied
func NewS3(ctx context.Context, opts ...S3OptionFunc) (*S3, error) {
	u := &S3{
		timeout: DefaultS3Timeout,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.bucket == "" {
		return nil, errors.New("s3 upload: bucket not set")
	}
	if u.logger == nil {
		u.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	u.logger = u.logger.With("component", "upload")
	if u.client != nil {
		return u, nil
	}
	cfgCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	awsCfg, err := config.LoadDefaultConfig(cfgCtx)
	if err != nil {
		return nil, fmt.Errorf("s3 upload: load default AWS config: %w", err)
	}
	if u.region != "" {
		awsCfg.Region = u.region
	}
	u.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if u.endpoint != "" {
			o.BaseEndpoint = aws.String(u.endpoint)
			o.UsePathStyle = true
		}
	})
	return u, nil
}

// Key returns the object key for data. The hash is cut to 16 bytes so
// short prefixes keep the key within a metadata string.
func (u *S3) Key(data []byte) string {
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:16]) + ".png"
	if u.prefix != "" {
		key = u.prefix + "/" + key
	}
	return key
}

// Upload stores data and returns its object key
func (u *S3) Upload(ctx context.Context, data []byte) (string, error) {
	key := u.Key(data)
	putCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	_, err := u.client.PutObject(putCtx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		u.logger.Error(
			fmt.Sprintf("s3 put %q failed: %v", key, err),
		)
		return "", fmt.Errorf("s3 upload: %w", err)
	}
	u.logger.Info(fmt.Sprintf("s3 put %q ok (%d bytes)", key, len(data)))
	return key, nil
}
