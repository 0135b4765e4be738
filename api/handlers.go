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
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/blinklabs-io/credmint/asset"
	"github.com/blinklabs-io/credmint/batch"
	"github.com/blinklabs-io/credmint/database/models"
	"github.com/blinklabs-io/credmint/event"
	"github.com/blinklabs-io/credmint/mint"
	"github.com/blinklabs-io/credmint/txbuilder"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// MintRequest is the body of POST /api/v1/nft/mint. UTxO lists may be
// sent as JSON arrays or as JSON-encoded strings
type MintRequest struct {
	Utxos       json.RawMessage          `json:"utxos"`
	Collateral  json.RawMessage          `json:"collateral"`
	UserAddress string                   `json:"userAddress"`
	CourseData  asset.CertificateRequest `json:"courseData"`
	IpfsHash    string                   `json:"ipfsHash,omitempty"`
}

// BatchCertificateRequest is one entry of a batch mint
type BatchCertificateRequest struct {
	CourseData asset.CertificateRequest `json:"courseData"`
	StudentId  string                   `json:"studentId"`
}

// BatchMintRequest is the body of POST /api/v1/nft/batch-mint
type BatchMintRequest struct {
	Utxos               json.RawMessage           `json:"utxos"`
	Collateral          json.RawMessage           `json:"collateral"`
	EducatorAddress     string                    `json:"educatorAddress"`
	CertificateRequests []BatchCertificateRequest `json:"certificateRequests"`
}

// CertificateInput is a certificate record to save
type CertificateInput struct {
	UserId          string `json:"userId"`
	CourseId        string `json:"courseId"`
	MintUserId      string `json:"mintUserId"`
	TransactionHash string `json:"transactionHash"`
	IpfsHash        string `json:"ipfsHash"`
	PolicyId        string `json:"policyId"`
	AssetName       string `json:"assetName"`
}

// SaveCertificatesRequest is the body of POST /api/v1/certificates. It
// holds either a single record or a list under "certificates"
type SaveCertificatesRequest struct {
	CertificateInput
	Certificates []CertificateInput `json:"certificates,omitempty"`
}

// UpdateCertificateRequest is the body of POST /api/v1/certificates/update
type UpdateCertificateRequest struct {
	CertificateId string `json:"certificateId"`
	PolicyId      string `json:"policyId"`
}

// CertificateListResponse is a page of certificate records
type CertificateListResponse struct {
	Certificates []models.Certificate `json:"certificates"`
	Total        int64                `json:"total"`
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return asset.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

// parseUTxOField accepts a UTxO list as a JSON array or a string
// containing one
func parseUTxOField(field string, raw json.RawMessage) ([]txbuilder.Input, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, asset.ValidationError{Field: field}
	}
	if raw[0] == '"' {
		var tmp string
		if err := json.Unmarshal(raw, &tmp); err != nil {
			return nil, asset.ValidationError{Field: field, Reason: err.Error()}
		}
		raw = []byte(tmp)
	}
	ret, err := mint.ParseUTxOs(raw)
	if err != nil {
		var vErr asset.ValidationError
		if errors.As(err, &vErr) && vErr.Field == "utxos" {
			vErr.Field = field
			return nil, vErr
		}
		return nil, err
	}
	return ret, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{IsHealthy: true})
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	if s.minter == nil {
		writeError(w, http.StatusServiceUnavailable, "minting is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	var req MintRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	inputs, err := parseUTxOField("utxos", req.Utxos)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	collateral, err := parseUTxOField("collateral", req.Collateral)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	result, err := s.minter.MintOne(r.Context(), batch.SingleRequest{
		Inputs:     inputs,
		Collateral: collateral,
		Recipient:  req.UserAddress,
		Request:    req.CourseData,
		UploadRef:  req.IpfsHash,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBatchMint(w http.ResponseWriter, r *http.Request) {
	if s.minter == nil {
		writeError(w, http.StatusServiceUnavailable, "minting is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	var req BatchMintRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if len(req.CertificateRequests) == 0 {
		s.writeServiceError(w, r, asset.ValidationError{Field: "certificateRequests"})
		return
	}
	inputs, err := parseUTxOField("utxos", req.Utxos)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	collateral, err := parseUTxOField("collateral", req.Collateral)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	requests := make([]asset.CertificateRequest, 0, len(req.CertificateRequests))
	for _, item := range req.CertificateRequests {
		tmpReq := item.CourseData
		if tmpReq.StudentId == "" {
			tmpReq.StudentId = item.StudentId
		}
		requests = append(requests, tmpReq)
	}
	result, err := s.minter.MintBatch(r.Context(), batch.Request{
		Inputs:     inputs,
		Collateral: collateral,
		Recipient:  req.EducatorAddress,
		Requests:   requests,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleResolveByTx(w http.ResponseWriter, r *http.Request) {
	if s.resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger queries are not configured")
		return
	}
	ret, err := s.resolver.ResolveByTx(r.Context(), r.PathValue("txHash"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ret)
}

// handleResolveByCourse resolves the certificate asset minted for a course
func (s *Server) handleResolveByCourse(w http.ResponseWriter, r *http.Request) {
	if s.resolver == nil || s.courses == nil {
		writeError(w, http.StatusServiceUnavailable, "course lookups are not configured")
		return
	}
	course, err := s.courses.GetCourse(r.Context(), r.PathValue("courseId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if course.TxHash == "" {
		s.writeServiceError(w, r, ErrCourseNotMinted)
		return
	}
	ret, err := s.resolver.ResolveByTx(r.Context(), course.TxHash)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleResolveByPolicy(w http.ResponseWriter, r *http.Request) {
	if s.resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger queries are not configured")
		return
	}
	ret, err := s.resolver.ResolveByPolicyAndTx(
		r.Context(),
		r.PathValue("policyId"),
		r.PathValue("txHash"),
	)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) certificateFromInput(
	idx int,
	input CertificateInput,
) (models.Certificate, error) {
	field := func(name string) string {
		if idx < 0 {
			return name
		}
		return fmt.Sprintf("certificates[%d].%s", idx, name)
	}
	switch {
	case input.UserId == "":
		return models.Certificate{}, asset.ValidationError{Field: field("userId")}
	case input.CourseId == "":
		return models.Certificate{}, asset.ValidationError{Field: field("courseId")}
	case input.IpfsHash == "":
		return models.Certificate{}, asset.ValidationError{Field: field("ipfsHash")}
	}
	return models.Certificate{
		UserID:          input.UserId,
		CourseID:        input.CourseId,
		CertificateUrl:  s.imagePrefix + input.IpfsHash,
		TransactionHash: input.TransactionHash,
		PolicyId:        input.PolicyId,
		AssetName:       input.AssetName,
		IssuedBy:        input.MintUserId,
	}, nil
}

func (s *Server) handleSaveCertificates(w http.ResponseWriter, r *http.Request) {
	if s.certificates == nil {
		writeError(w, http.StatusServiceUnavailable, "certificate storage is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	var req SaveCertificatesRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if len(req.Certificates) == 0 {
		cert, err := s.certificateFromInput(-1, req.CertificateInput)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if err := s.certificates.SaveCertificate(r.Context(), &cert); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.publishSaved(cert.TransactionHash, 1)
		writeJSON(w, http.StatusCreated, cert)
		return
	}
	certs := make([]models.Certificate, 0, len(req.Certificates))
	for idx, input := range req.Certificates {
		cert, err := s.certificateFromInput(idx, input)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		certs = append(certs, cert)
	}
	if err := s.certificates.SaveCertificates(r.Context(), certs); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.publishSaved(certs[0].TransactionHash, len(certs))
	writeJSON(w, http.StatusCreated, certs)
}

func (s *Server) publishSaved(txHash string, count int) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.PublishAsync(
		event.CertificatesSavedEventType,
		event.NewEvent(
			event.CertificatesSavedEventType,
			event.CertificatesSavedEvent{TxHash: txHash, Count: count},
		),
	)
}

func (s *Server) handleCertificateByTx(w http.ResponseWriter, r *http.Request) {
	if s.certificates == nil {
		writeError(w, http.StatusServiceUnavailable, "certificate storage is not configured")
		return
	}
	cert, err := s.certificates.GetCertificateByTx(r.Context(), r.PathValue("txHash"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cert)
}

func (s *Server) handleListCertificates(w http.ResponseWriter, r *http.Request) {
	if s.certificates == nil {
		writeError(w, http.StatusServiceUnavailable, "certificate storage is not configured")
		return
	}
	page, err := ParsePage(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	certs, total, err := s.certificates.ListCertificates(
		r.Context(),
		r.PathValue("userId"),
		page.ListOptions(),
	)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if certs == nil {
		certs = []models.Certificate{}
	}
	SetPageHeaders(w, total, page)
	writeJSON(w, http.StatusOK, CertificateListResponse{
		Certificates: certs,
		Total:        total,
	})
}

func (s *Server) handleGetCertificate(w http.ResponseWriter, r *http.Request) {
	if s.certificates == nil {
		writeError(w, http.StatusServiceUnavailable, "certificate storage is not configured")
		return
	}
	cert, err := s.certificates.GetCertificate(
		r.Context(),
		r.PathValue("userId"),
		r.PathValue("courseId"),
	)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cert)
}

func (s *Server) handleUpdateCertificate(w http.ResponseWriter, r *http.Request) {
	if s.certificates == nil {
		writeError(w, http.StatusServiceUnavailable, "certificate storage is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	var req UpdateCertificateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if req.CertificateId == "" {
		s.writeServiceError(w, r, asset.ValidationError{Field: "certificateId"})
		return
	}
	if req.PolicyId == "" {
		s.writeServiceError(w, r, asset.ValidationError{Field: "policyId"})
		return
	}
	if _, err := hex.DecodeString(req.PolicyId); err != nil ||
		len(req.PolicyId) != asset.PolicyIdHexLength {
		s.writeServiceError(w, r, asset.ValidationError{
			Field:  "policyId",
			Reason: fmt.Sprintf("must be %d hex characters", asset.PolicyIdHexLength),
		})
		return
	}
	cert, err := s.certificates.UpdateCertificatePolicy(
		r.Context(),
		req.CertificateId,
		req.PolicyId,
	)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cert)
}
