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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/credmint/asset"
	"github.com/blinklabs-io/credmint/batch"
	"github.com/blinklabs-io/credmint/database"
	"github.com/blinklabs-io/credmint/database/models"
	"github.com/blinklabs-io/credmint/event"
	"github.com/blinklabs-io/credmint/mint"
	"github.com/blinklabs-io/credmint/resolver"
)

const (
	testTxHash   = "8f3c2b1a9d7e6f5a4b3c2d1e0f9a8b7c6d5e4f3a2b1c0d9e8f7a6b5c4d3e2f1a"
	testPolicyId = "7eae28af2208be856f7a119668ae52a49b73725e326dc16579dcc373"
	testUtxos    = `[{"input":{"txHash":"` + testTxHash + `","outputIndex":0},` +
		`"output":{"address":"addr_test1qz","amount":[{"unit":"lovelace","quantity":"10000000"}]}}]`
)

type mockMinter struct {
	single *batch.SingleRequest
	batch  *batch.Request
	err    error
}

func (m *mockMinter) MintOne(
	_ context.Context,
	req batch.SingleRequest,
) (*batch.Result, error) {
	m.single = &req
	if m.err != nil {
		return nil, m.err
	}
	return &batch.Result{
		UnsignedTx: "84a0",
		TxHash:     testTxHash,
		PolicyId:   testPolicyId,
		ProcessedCertificates: []batch.ProcessedCertificate{
			{StudentName: req.Request.StudentName, AssetName: "Cabcds44we8"},
		},
	}, nil
}

func (m *mockMinter) MintBatch(
	_ context.Context,
	req batch.Request,
) (*batch.Result, error) {
	m.batch = &req
	if m.err != nil {
		return nil, m.err
	}
	return &batch.Result{
		UnsignedTx: "84a0",
		PolicyId:   testPolicyId,
		Failed:     1,
	}, nil
}

type mockResolver struct {
	policyId string
	txHash   string
	err      error
}

func (m *mockResolver) ResolveByTx(
	_ context.Context,
	txHash string,
) (*resolver.OnChainAsset, error) {
	return m.ResolveByPolicyAndTx(context.Background(), "", txHash)
}

func (m *mockResolver) ResolveByPolicyAndTx(
	_ context.Context,
	policyId string,
	txHash string,
) (*resolver.OnChainAsset, error) {
	m.policyId = policyId
	m.txHash = txHash
	if m.err != nil {
		return nil, m.err
	}
	return &resolver.OnChainAsset{
		PolicyId:        testPolicyId,
		AssetName:       "4361626364733434776538",
		MintTransaction: resolver.MintTransaction{TxHash: txHash},
	}, nil
}

type mockStore struct {
	saved []models.Certificate
	certs map[string]models.Certificate
	opts  database.ListOptions
	err   error
}

func (m *mockStore) SaveCertificate(_ context.Context, cert *models.Certificate) error {
	if m.err != nil {
		return m.err
	}
	cert.ID = "cert-1"
	m.saved = append(m.saved, *cert)
	return nil
}

func (m *mockStore) SaveCertificates(_ context.Context, certs []models.Certificate) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, certs...)
	return nil
}

func (m *mockStore) GetCertificateByTx(
	_ context.Context,
	txHash string,
) (*models.Certificate, error) {
	if cert, ok := m.certs[txHash]; ok {
		return &cert, nil
	}
	return nil, database.ErrCertificateNotFound
}

func (m *mockStore) GetCertificate(
	_ context.Context,
	userId string,
	courseId string,
) (*models.Certificate, error) {
	if cert, ok := m.certs[userId+"/"+courseId]; ok {
		return &cert, nil
	}
	return nil, database.ErrCertificateNotFound
}

func (m *mockStore) ListCertificates(
	_ context.Context,
	userId string,
	opts database.ListOptions,
) ([]models.Certificate, int64, error) {
	m.opts = opts
	if userId != "alice" {
		return nil, 0, nil
	}
	return []models.Certificate{{ID: "c1", UserID: "alice"}}, 41, nil
}

func (m *mockStore) UpdateCertificatePolicy(
	_ context.Context,
	certificateId string,
	policyId string,
) (*models.Certificate, error) {
	if m.err != nil {
		return nil, m.err
	}
	cert, ok := m.certs[certificateId]
	if !ok {
		return nil, database.ErrCertificateNotFound
	}
	cert.PolicyId = policyId
	m.certs[certificateId] = cert
	return &cert, nil
}

type mockCourses map[string]models.Course

func (m mockCourses) GetCourse(
	_ context.Context,
	courseId string,
) (*models.Course, error) {
	if course, ok := m[courseId]; ok {
		return &course, nil
	}
	return nil, database.ErrCourseNotFound
}

func doRequest(
	t *testing.T,
	s *Server,
	method string,
	path string,
	body string,
) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var ret ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ret))
	return ret
}

func TestStartStop(t *testing.T) {
	s := New(WithListenAddress("127.0.0.1:0"))
	require.NoError(t, s.Start(t.Context()))
	assert.Error(t, s.Start(t.Context()))
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	s.mu.Lock()
	assert.Nil(t, s.httpServer)
	s.mu.Unlock()
	require.NoError(t, s.Stop(stopCtx))
}

func TestHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(WithPromRegistry(reg))
	rec := doRequest(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"is_healthy":true}`, rec.Body.String())
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(s.metrics.requests.WithLabelValues("GET /health", "200")),
		0,
	)
}

func TestUnconfiguredServices(t *testing.T) {
	s := New()
	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/nft/mint"},
		{http.MethodPost, "/api/v1/nft/batch-mint"},
		{http.MethodGet, "/api/v1/nft/by-tx/" + testTxHash},
		{http.MethodGet, "/api/v1/certificates/alice"},
	} {
		rec := doRequest(t, s, tc.method, tc.path, "{}")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, tc.path)
	}
}

func TestMint(t *testing.T) {
	minter := &mockMinter{}
	s := New(WithMinter(minter))
	// UTxOs arrive as a JSON string
	utxosString, err := json.Marshal(testUtxos)
	require.NoError(t, err)
	body := `{"utxos":` + string(utxosString) + `,"collateral":` + testUtxos +
		`,"userAddress":"addr_test1qz","ipfsHash":"bafy",` +
		`"courseData":{"studentName":"Alice","courseId":"abcd","courseTitle":"Intro"}}`
	rec := doRequest(t, s, http.MethodPost, "/api/v1/nft/mint", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NotNil(t, minter.single)
	assert.Equal(t, "addr_test1qz", minter.single.Recipient)
	assert.Equal(t, "bafy", minter.single.UploadRef)
	assert.Equal(t, "Alice", minter.single.Request.StudentName)
	require.Len(t, minter.single.Inputs, 1)
	assert.Equal(t, uint64(10000000), minter.single.Inputs[0].Lovelace)
	require.Len(t, minter.single.Collateral, 1)

	var result batch.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "84a0", result.UnsignedTx)
	assert.Equal(t, testPolicyId, result.PolicyId)
}

func TestMintBadRequests(t *testing.T) {
	s := New(WithMinter(&mockMinter{}))
	testDefs := []struct {
		body          string
		expectedField string
	}{
		{body: `not json`, expectedField: "body"},
		{body: `{"collateral":` + testUtxos + `}`, expectedField: "utxos"},
		{body: `{"utxos":` + testUtxos + `}`, expectedField: "collateral"},
		{body: `{"utxos":"[{", "collateral":` + testUtxos + `}`, expectedField: "utxos"},
	}
	for _, testDef := range testDefs {
		rec := doRequest(t, s, http.MethodPost, "/api/v1/nft/mint", testDef.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, testDef.body)
		assert.Contains(t, decodeError(t, rec).Message, testDef.expectedField)
	}
}

func TestBatchMint(t *testing.T) {
	minter := &mockMinter{}
	s := New(WithMinter(minter))
	body := `{"utxos":` + testUtxos + `,"collateral":` + testUtxos +
		`,"educatorAddress":"addr_test1qedu","certificateRequests":[` +
		`{"studentId":"s1","courseData":{"studentName":"Alice","courseId":"abcd","courseTitle":"Intro"}},` +
		`{"courseData":{"studentName":"Bob","studentId":"s2","courseId":"abcd","courseTitle":"Intro"}}]}`
	rec := doRequest(t, s, http.MethodPost, "/api/v1/nft/batch-mint", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, minter.batch)
	assert.Equal(t, "addr_test1qedu", minter.batch.Recipient)
	require.Len(t, minter.batch.Requests, 2)
	assert.Equal(t, "s1", minter.batch.Requests[0].StudentId)
	assert.Equal(t, "s2", minter.batch.Requests[1].StudentId)
	assert.Contains(t, rec.Body.String(), `"failedCount":1`)

	rec = doRequest(
		t,
		s,
		http.MethodPost,
		"/api/v1/nft/batch-mint",
		`{"utxos":`+testUtxos+`,"collateral":`+testUtxos+`}`,
	)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMintErrorStatus(t *testing.T) {
	testDefs := []struct {
		err            error
		expectedStatus int
	}{
		{err: &batch.NoValidRequestsError{Total: 3}, expectedStatus: http.StatusBadRequest},
		{err: &mint.InsufficientInputsError{Kind: "collateral"}, expectedStatus: http.StatusBadRequest},
		{err: asset.ValidationError{Field: "educatorAddress"}, expectedStatus: http.StatusBadRequest},
		{
			err:            &mint.AssemblyError{Err: errors.New("bad script")},
			expectedStatus: http.StatusBadGateway,
		},
		{
			err:            asset.NewExternalServiceError("renderer", errors.New("down")),
			expectedStatus: http.StatusBadGateway,
		},
		{err: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
	}
	body := `{"utxos":` + testUtxos + `,"collateral":` + testUtxos +
		`,"userAddress":"addr_test1qz","courseData":{"studentName":"Alice"}}`
	for _, testDef := range testDefs {
		s := New(WithMinter(&mockMinter{err: testDef.err}))
		rec := doRequest(t, s, http.MethodPost, "/api/v1/nft/mint", body)
		assert.Equal(t, testDef.expectedStatus, rec.Code, testDef.err.Error())
		errResp := decodeError(t, rec)
		assert.Equal(t, testDef.expectedStatus, errResp.StatusCode)
		assert.Equal(t, http.StatusText(testDef.expectedStatus), errResp.Error)
	}
}

func TestResolve(t *testing.T) {
	res := &mockResolver{}
	s := New(WithResolver(res))
	rec := doRequest(t, s, http.MethodGet, "/api/v1/nft/by-tx/"+testTxHash, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var onChain resolver.OnChainAsset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &onChain))
	assert.Equal(t, testTxHash, onChain.MintTransaction.TxHash)

	rec = doRequest(
		t,
		s,
		http.MethodGet,
		"/api/v1/nft/by-policy/"+testPolicyId+"/"+testTxHash,
		"",
	)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testPolicyId, res.policyId)

	res.err = &resolver.AssetNotFoundError{TxHash: testTxHash}
	rec = doRequest(t, s, http.MethodGet, "/api/v1/nft/by-tx/"+testTxHash, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveCertificates(t *testing.T) {
	store := &mockStore{}
	s := New(WithCertificateStore(store))

	rec := doRequest(
		t,
		s,
		http.MethodPost,
		"/api/v1/certificates",
		`{"userId":"alice","courseId":"c1","mintUserId":"edu1","ipfsHash":"bafy1","transactionHash":"`+testTxHash+`"}`,
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, store.saved, 1)
	assert.Equal(t, "ipfs://bafy1", store.saved[0].CertificateUrl)
	assert.Equal(t, "edu1", store.saved[0].IssuedBy)
	assert.Contains(t, rec.Body.String(), `"id":"cert-1"`)

	rec = doRequest(
		t,
		s,
		http.MethodPost,
		"/api/v1/certificates",
		`{"certificates":[{"userId":"bob","courseId":"c1","ipfsHash":"bafy2"},`+
			`{"userId":"carol","courseId":"c1","ipfsHash":"bafy3","assetName":"Cabc"}]}`,
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, store.saved, 3)
	assert.Equal(t, "Cabc", store.saved[2].AssetName)

	rec = doRequest(
		t,
		s,
		http.MethodPost,
		"/api/v1/certificates",
		`{"certificates":[{"userId":"bob","courseId":"c1"}]}`,
	)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "certificates[0].ipfsHash")

	store.err = errors.New("disk full")
	rec = doRequest(
		t,
		s,
		http.MethodPost,
		"/api/v1/certificates",
		`{"userId":"alice","courseId":"c1","ipfsHash":"bafy1"}`,
	)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetCertificates(t *testing.T) {
	store := &mockStore{
		certs: map[string]models.Certificate{
			testTxHash: {ID: "c1", TransactionHash: testTxHash},
			"alice/c1": {ID: "c2", UserID: "alice", CourseID: "c1"},
		},
	}
	s := New(WithCertificateStore(store))

	rec := doRequest(t, s, http.MethodGet, "/api/v1/certificates/by-tx/"+testTxHash, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"c1"`)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/certificates/by-tx/ffff", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/certificates/alice/c1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"c2"`)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/certificates/alice/c9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/certificates/alice?count=10&page=2&order=desc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, database.ListOptions{Count: 10, Page: 2, Descending: true}, store.opts)
	assert.Equal(t, "41", rec.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "5", rec.Header().Get("X-Pagination-Page-Total"))
	var list CertificateListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, int64(41), list.Total)
	require.Len(t, list.Certificates, 1)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/certificates/nobody", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"certificates":[],"total":0}`, rec.Body.String())

	rec = doRequest(t, s, http.MethodGet, "/api/v1/certificates/alice?order=sideways", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveCertificatesEvent(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, savedCh := eb.Subscribe(event.CertificatesSavedEventType)
	s := New(WithCertificateStore(&mockStore{}), WithEventBus(eb))

	rec := doRequest(
		t,
		s,
		http.MethodPost,
		"/api/v1/certificates",
		`{"transactionHash":"`+testTxHash+`","certificates":[{"userId":"bob","courseId":"c1","ipfsHash":"bafy2","transactionHash":"`+testTxHash+`"},`+
			`{"userId":"carol","courseId":"c1","ipfsHash":"bafy3","transactionHash":"`+testTxHash+`"}]}`,
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	select {
	case evt := <-savedCh:
		data, ok := evt.Data.(event.CertificatesSavedEvent)
		require.True(t, ok)
		assert.Equal(t, testTxHash, data.TxHash)
		assert.Equal(t, 2, data.Count)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for saved event")
	}
}

func TestResolveByCourse(t *testing.T) {
	res := &mockResolver{}
	courses := mockCourses{
		"course-minted":  {ID: "course-minted", TxHash: testTxHash},
		"course-pending": {ID: "course-pending"},
	}
	s := New(WithResolver(res), WithCourseStore(courses))

	rec := doRequest(t, s, http.MethodGet, "/api/v1/nft/by-course/course-minted", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var onChain resolver.OnChainAsset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &onChain))
	assert.Equal(t, testTxHash, onChain.MintTransaction.TxHash)
	assert.Equal(t, testTxHash, res.txHash)
	assert.Empty(t, res.policyId)

	res.txHash = ""
	rec = doRequest(t, s, http.MethodGet, "/api/v1/nft/by-course/course-pending", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrCourseNotMinted.Error(), decodeError(t, rec).Message)
	assert.Empty(t, res.txHash)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/nft/by-course/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Without a course store the route is unavailable
	rec = doRequest(
		t,
		New(WithResolver(res)),
		http.MethodGet,
		"/api/v1/nft/by-course/course-minted",
		"",
	)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUpdateCertificate(t *testing.T) {
	store := &mockStore{
		certs: map[string]models.Certificate{
			"cert-1": {ID: "cert-1", UserID: "alice", CourseID: "c1"},
		},
	}
	s := New(WithCertificateStore(store))

	rec := doRequest(
		t,
		s,
		http.MethodPost,
		"/api/v1/certificates/update",
		`{"certificateId":"cert-1","policyId":"`+testPolicyId+`"}`,
	)
	require.Equal(t, http.StatusOK, rec.Code)
	var cert models.Certificate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cert))
	assert.Equal(t, "cert-1", cert.ID)
	assert.Equal(t, testPolicyId, cert.PolicyId)
	assert.Equal(t, testPolicyId, store.certs["cert-1"].PolicyId)

	testDefs := []struct {
		body   string
		status int
	}{
		{`{"policyId":"` + testPolicyId + `"}`, http.StatusBadRequest},
		{`{"certificateId":"cert-1"}`, http.StatusBadRequest},
		{`{"certificateId":"cert-1","policyId":"abcd"}`, http.StatusBadRequest},
		{`{"certificateId":"cert-1","policyId":"` + strings.Repeat("zz", 28) + `"}`, http.StatusBadRequest},
		{`{"certificateId":"cert-9","policyId":"` + testPolicyId + `"}`, http.StatusNotFound},
	}
	for _, testDef := range testDefs {
		rec = doRequest(t, s, http.MethodPost, "/api/v1/certificates/update", testDef.body)
		assert.Equal(t, testDef.status, rec.Code, testDef.body)
	}
}
