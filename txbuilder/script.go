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

package txbuilder

import (
	"fmt"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
)

const nativeScriptTypePubKey = 0

// PubKeyScript is a native script satisfied by a signature from one key
type PubKeyScript struct {
	KeyHash lcommon.Blake2b224
}

// NewPubKeyScriptFromAddress builds a single signature script for the
// payment key of an address
func NewPubKeyScriptFromAddress(address string) (PubKeyScript, error) {
	addr, err := lcommon.NewAddress(address)
	if err != nil {
		return PubKeyScript{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	keyHash := addr.PaymentKeyHash()
	if keyHash == lcommon.NewBlake2b224(nil) {
		return PubKeyScript{}, fmt.Errorf(
			"%w: %s has no payment key hash",
			ErrInvalidAddress,
			address,
		)
	}
	return PubKeyScript{KeyHash: keyHash}, nil
}

// Cbor returns the script serialized as [0, keyhash]
func (s PubKeyScript) Cbor() ([]byte, error) {
	return encMode.Marshal([]any{nativeScriptTypePubKey, s.KeyHash.Bytes()})
}

// PolicyId is the script hash: Blake2b-224 over the native script tag (0x00)
// followed by the script CBOR
func (s PubKeyScript) PolicyId() (lcommon.Blake2b224, error) {
	scriptCbor, err := s.Cbor()
	if err != nil {
		return lcommon.Blake2b224{}, err
	}
	return lcommon.Blake2b224Hash(
		append([]byte{nativeScriptTypePubKey}, scriptCbor...),
	), nil
}
