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
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPinataURL = "http://pinata.test"
	testIpfsHash  = "bafkreib2xwfm4bz7mhbjnsmkhacpmvojgd7bpxdfmvmvvq2xaw3scv6mde"
)

var testImage = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}

func newTestPinata(t *testing.T) (*Pinata, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	p, err := NewPinata(
		"test-jwt",
		WithPinataURL(testPinataURL),
		WithPinataHTTPClient(&http.Client{Transport: transport}),
	)
	require.NoError(t, err)
	return p, transport
}

func TestPinataUpload(t *testing.T) {
	p, transport := newTestPinata(t)
	transport.RegisterResponder(
		"POST",
		testPinataURL+"/pinning/pinFileToIPFS",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer test-jwt", req.Header.Get("Authorization"))
			file, header, err := req.FormFile("file")
			if err != nil {
				return httpmock.NewStringResponse(400, err.Error()), nil
			}
			defer file.Close()
			assert.Equal(t, "certificate.png", header.Filename)
			data, _ := io.ReadAll(file)
			assert.Equal(t, testImage, data)
			return httpmock.NewJsonResponse(200, map[string]any{
				"IpfsHash":  testIpfsHash,
				"PinSize":   len(data),
				"Timestamp": "2024-01-15T00:00:00Z",
			})
		},
	)
	ref, err := p.Upload(context.Background(), testImage)
	require.NoError(t, err)
	assert.Equal(t, testIpfsHash, ref)
}

func TestPinataErrors(t *testing.T) {
	_, err := NewPinata("")
	assert.Error(t, err)

	p, transport := newTestPinata(t)
	transport.RegisterResponder(
		"POST",
		testPinataURL+"/pinning/pinFileToIPFS",
		httpmock.NewJsonResponderOrPanic(401, map[string]any{
			"error": "Invalid authentication",
		}),
	)
	_, err = p.Upload(context.Background(), testImage)
	assert.ErrorContains(t, err, "HTTP 401")

	transport.RegisterResponder(
		"POST",
		testPinataURL+"/pinning/pinFileToIPFS",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{}),
	)
	_, err = p.Upload(context.Background(), testImage)
	assert.ErrorIs(t, err, ErrEmptyReference)
}

type mockS3 struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (m *mockS3) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.inputs = append(m.inputs, params)
	m.bodies = append(m.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Upload(t *testing.T) {
	client := &mockS3{}
	u, err := NewS3(
		context.Background(),
		WithBucket("certs"),
		WithPrefix("/images/"),
		WithS3Client(client),
	)
	require.NoError(t, err)
	key, err := u.Upload(context.Background(), testImage)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "images/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Len(t, key, len("images/")+32+len(".png"))
	assert.LessOrEqual(t, len(key), 64)
	assert.Equal(t, u.Key(testImage), key)

	require.Len(t, client.inputs, 1)
	assert.Equal(t, "certs", *client.inputs[0].Bucket)
	assert.Equal(t, key, *client.inputs[0].Key)
	assert.Equal(t, "image/png", *client.inputs[0].ContentType)
	assert.Equal(t, testImage, client.bodies[0])

	// Same content maps to the same key
	key2, err := u.Upload(context.Background(), testImage)
	require.NoError(t, err)
	assert.Equal(t, key, key2)
}

func TestS3Errors(t *testing.T) {
	_, err := NewS3(context.Background(), WithS3Client(&mockS3{}))
	assert.Error(t, err)

	u, err := NewS3(
		context.Background(),
		WithBucket("certs"),
		WithS3Client(&mockS3{err: errors.New("access denied")}),
	)
	require.NoError(t, err)
	_, err = u.Upload(context.Background(), testImage)
	assert.ErrorContains(t, err, "access denied")
}
