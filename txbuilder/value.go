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
	"encoding/hex"
	"fmt"
	"sort"

	fxcbor "github.com/fxamacker/cbor/v2"
)

// value is an amount of lovelace plus native assets keyed by hex policy id
// and hex asset name
type value struct {
	coin   uint64
	assets map[string]map[string]uint64
}

func newValue(coin uint64, assets []Asset) (value, error) {
	v := value{coin: coin}
	for _, a := range assets {
		if err := v.addAsset(a.PolicyId, a.NameHex, a.Quantity); err != nil {
			return value{}, err
		}
	}
	return v, nil
}

func (v *value) addAsset(policyId string, nameHex string, qty uint64) error {
	if qty == 0 {
		return nil
	}
	if len(policyId) != 56 {
		return fmt.Errorf("%w: policy id %q", ErrInvalidAsset, policyId)
	}
	if _, err := hex.DecodeString(policyId); err != nil {
		return fmt.Errorf("%w: policy id %q", ErrInvalidAsset, policyId)
	}
	if name, err := hex.DecodeString(nameHex); err != nil || len(name) > 32 {
		return fmt.Errorf("%w: asset name %q", ErrInvalidAsset, nameHex)
	}
	if v.assets == nil {
		v.assets = make(map[string]map[string]uint64)
	}
	if v.assets[policyId] == nil {
		v.assets[policyId] = make(map[string]uint64)
	}
	v.assets[policyId][nameHex] += qty
	return nil
}

func (v *value) add(other value) {
	v.coin += other.coin
	for policyId, names := range other.assets {
		for name, qty := range names {
			// Values were checked when they were built
			_ = v.addAsset(policyId, name, qty)
		}
	}
}

// sub returns v - other, failing when any component would go negative
func (v value) sub(other value) (value, error) {
	if other.coin > v.coin {
		return value{}, fmt.Errorf(
			"%w: need %d lovelace, have %d",
			ErrInsufficientFunds,
			other.coin,
			v.coin,
		)
	}
	ret := value{coin: v.coin - other.coin}
	for policyId, names := range v.assets {
		for name, qty := range names {
			_ = ret.addAsset(policyId, name, qty)
		}
	}
	for policyId, names := range other.assets {
		for name, qty := range names {
			have := ret.assets[policyId][name]
			if qty > have {
				return value{}, fmt.Errorf(
					"%w: need %d of %s%s, have %d",
					ErrInsufficientFunds,
					qty,
					policyId,
					name,
					have,
				)
			}
			if qty == have {
				delete(ret.assets[policyId], name)
				if len(ret.assets[policyId]) == 0 {
					delete(ret.assets, policyId)
				}
				continue
			}
			ret.assets[policyId][name] = have - qty
		}
	}
	return ret, nil
}

func (v value) isZero() bool {
	return v.coin == 0 && len(v.assets) == 0
}

// cborValue returns the ledger value form: a bare coin, or
// [coin, {policy: {name: quantity}}]
func (v value) cborValue() any {
	if len(v.assets) == 0 {
		return v.coin
	}
	return []any{v.coin, multiAsset(v.assets)}
}

func multiAsset[T uint64 | int64](
	assets map[string]map[string]T,
) map[fxcbor.ByteString]map[fxcbor.ByteString]T {
	ret := make(map[fxcbor.ByteString]map[fxcbor.ByteString]T, len(assets))
	for policyId, names := range assets {
		// Hex was validated when the asset was added
		policyBytes, _ := hex.DecodeString(policyId)
		tmp := make(map[fxcbor.ByteString]T, len(names))
		for name, qty := range names {
			nameBytes, _ := hex.DecodeString(name)
			tmp[fxcbor.ByteString(nameBytes)] = qty
		}
		ret[fxcbor.ByteString(policyBytes)] = tmp
	}
	return ret
}

func sortedInputs(inputs []Input) []Input {
	ret := append([]Input(nil), inputs...)
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].TxHash != ret[j].TxHash {
			return ret[i].TxHash < ret[j].TxHash
		}
		return ret[i].Index < ret[j].Index
	})
	return ret
}
