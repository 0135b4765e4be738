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

package asset

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed required input
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid request: %s is required", e.Field)
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// ExternalServiceError wraps a failure returned by a collaborating service
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s service failed: %s", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// NewExternalServiceError wraps err unless it is nil or already wrapped
func NewExternalServiceError(service string, err error) error {
	if err == nil {
		return nil
	}
	var svcErr *ExternalServiceError
	if errors.As(err, &svcErr) {
		return err
	}
	return &ExternalServiceError{Service: service, Err: err}
}

// IsValidationError reports whether err is or wraps a ValidationError
func IsValidationError(err error) bool {
	var vErr ValidationError
	return errors.As(err, &vErr)
}
