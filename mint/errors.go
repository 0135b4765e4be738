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

package mint

import (
	"errors"
	"fmt"
)

var ErrNoItems = errors.New("no assets to mint")

// InsufficientInputsError is returned when the spendable or collateral
// input set is empty
type InsufficientInputsError struct {
	Kind string
}

func (e *InsufficientInputsError) Error() string {
	return fmt.Sprintf("no %s inputs supplied", e.Kind)
}

// AssemblyError wraps a failure to build the mint transaction
type AssemblyError struct {
	Err error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble mint transaction: %s", e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}
