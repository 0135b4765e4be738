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
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/blinklabs-io/credmint/asset"
	"github.com/blinklabs-io/credmint/txbuilder"
)

type walletUTxO struct {
	Input struct {
		TxHash      string `json:"txHash"`
		OutputIndex uint32 `json:"outputIndex"`
	} `json:"input"`
	Output struct {
		Address string `json:"address"`
		Amount  []struct {
			Unit     string `json:"unit"`
			Quantity string `json:"quantity"`
		} `json:"amount"`
	} `json:"output"`
}

// ParseUTxOs decodes wallet UTxOs in the Mesh JSON form
// ({input: {txHash, outputIndex}, output: {address, amount: [{unit, quantity}]}})
func ParseUTxOs(data []byte) ([]txbuilder.Input, error) {
	var tmp []walletUTxO
	if err := json.Unmarshal(data, &tmp); err != nil {
		return nil, asset.ValidationError{Field: "utxos", Reason: err.Error()}
	}
	ret := make([]txbuilder.Input, 0, len(tmp))
	for idx, utxo := range tmp {
		if utxo.Input.TxHash == "" {
			return nil, asset.ValidationError{
				Field:  fmt.Sprintf("utxos[%d].input.txHash", idx),
				Reason: "missing",
			}
		}
		in := txbuilder.Input{
			TxHash:  utxo.Input.TxHash,
			Index:   utxo.Input.OutputIndex,
			Address: utxo.Output.Address,
		}
		for _, amount := range utxo.Output.Amount {
			qty, err := strconv.ParseUint(amount.Quantity, 10, 64)
			if err != nil {
				return nil, asset.ValidationError{
					Field:  fmt.Sprintf("utxos[%d].output.amount", idx),
					Reason: fmt.Sprintf("invalid quantity %q", amount.Quantity),
				}
			}
			if amount.Unit == asset.LovelaceUnit {
				in.Lovelace += qty
				continue
			}
			policyId, nameHex, err := asset.SplitUnit(amount.Unit)
			if err != nil {
				return nil, asset.ValidationError{
					Field:  fmt.Sprintf("utxos[%d].output.amount", idx),
					Reason: fmt.Sprintf("invalid unit %q", amount.Unit),
				}
			}
			in.Assets = append(in.Assets, txbuilder.Asset{
				PolicyId: policyId,
				NameHex:  nameHex,
				Quantity: qty,
			})
		}
		ret = append(ret, in)
	}
	return ret, nil
}
