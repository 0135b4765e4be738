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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blinklabs-io/credmint/asset"
	"github.com/blinklabs-io/credmint/batch"
	"github.com/blinklabs-io/credmint/database"
	"github.com/blinklabs-io/credmint/mint"
	"github.com/blinklabs-io/credmint/resolver"
	"github.com/blinklabs-io/credmint/txbuilder"
)

// ErrCourseNotMinted is returned when a course has no mint transaction
var ErrCourseNotMinted = errors.New("course has no mint transaction")

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// statusForError maps a service error to an HTTP status code
func statusForError(err error) int {
	var noneErr *batch.NoValidRequestsError
	var inputsErr *mint.InsufficientInputsError
	var notFoundErr *resolver.AssetNotFoundError
	var svcErr *asset.ExternalServiceError
	var asmErr *mint.AssemblyError
	switch {
	case asset.IsValidationError(err),
		errors.As(err, &noneErr),
		errors.As(err, &inputsErr),
		errors.Is(err, mint.ErrNoItems),
		errors.Is(err, txbuilder.ErrInsufficientFunds),
		errors.Is(err, ErrInvalidPagination):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr),
		errors.Is(err, database.ErrCertificateNotFound),
		errors.Is(err, database.ErrCourseNotFound),
		errors.Is(err, ErrCourseNotMinted):
		return http.StatusNotFound
	case errors.As(err, &svcErr), errors.As(err, &asmErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeServiceError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(
			"request failed",
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}
