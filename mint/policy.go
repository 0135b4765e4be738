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
	"fmt"

	"github.com/blinklabs-io/credmint/txbuilder"
)

// Policy is a single signature minting policy
type Policy struct {
	Script   txbuilder.PubKeyScript
	PolicyId string
}

// PolicyFromAddress derives the minting policy controlled by the payment
// key of the given address
func PolicyFromAddress(address string) (Policy, error) {
	script, err := txbuilder.NewPubKeyScriptFromAddress(address)
	if err != nil {
		return Policy{}, err
	}
	policyId, err := script.PolicyId()
	if err != nil {
		return Policy{}, fmt.Errorf("policy id: %w", err)
	}
	return Policy{
		Script:   script,
		PolicyId: policyId.String(),
	}, nil
}
