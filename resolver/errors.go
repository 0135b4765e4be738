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

package resolver

import "fmt"

// AssetNotFoundError is returned when no output of the transaction holds a
// matching native asset
type AssetNotFoundError struct {
	TxHash   string
	PolicyId string
	Err      error
}

func (e *AssetNotFoundError) Error() string {
	msg := "no minted asset found in outputs of transaction " + e.TxHash
	if e.PolicyId != "" {
		msg += " for policy " + e.PolicyId
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

func (e *AssetNotFoundError) Unwrap() error {
	return e.Err
}
