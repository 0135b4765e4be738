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

package blockfrost

import "encoding/json"

// Amount is a quantity of lovelace or a native asset unit.
type Amount struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

// BlockResponse represents a Blockfrost block object.
type BlockResponse struct {
	Time          int64  `json:"time"`
	Height        uint64 `json:"height"`
	Hash          string `json:"hash"`
	Slot          uint64 `json:"slot"`
	Epoch         uint64 `json:"epoch"`
	EpochSlot     uint64 `json:"epoch_slot"`
	SlotLeader    string `json:"slot_leader"`
	Size          uint64 `json:"size"`
	TxCount       int    `json:"tx_count"`
	PreviousBlock string `json:"previous_block"`
	Confirmations uint64 `json:"confirmations"`
}

// ProtocolParamsResponse represents the Blockfrost protocol
// parameters needed to balance a transaction.
type ProtocolParamsResponse struct {
	Epoch            uint64  `json:"epoch"`
	MinFeeA          uint64  `json:"min_fee_a"`
	MinFeeB          uint64  `json:"min_fee_b"`
	MaxTxSize        uint64  `json:"max_tx_size"`
	KeyDeposit       string  `json:"key_deposit"`
	ProtocolMajorVer int     `json:"protocol_major_ver"`
	ProtocolMinorVer int     `json:"protocol_minor_ver"`
	CoinsPerUtxoSize *string `json:"coins_per_utxo_size"`
}

// TxResponse represents a Blockfrost transaction object.
type TxResponse struct {
	Hash                 string   `json:"hash"`
	Block                string   `json:"block"`
	BlockHeight          uint64   `json:"block_height"`
	BlockTime            int64    `json:"block_time"`
	Slot                 uint64   `json:"slot"`
	Index                int      `json:"index"`
	OutputAmount         []Amount `json:"output_amount"`
	Fees                 string   `json:"fees"`
	Size                 int      `json:"size"`
	AssetMintOrBurnCount int      `json:"asset_mint_or_burn_count"`
	ValidContract        bool     `json:"valid_contract"`
}

// TxUtxo is an input or output in a TxUtxosResponse.
type TxUtxo struct {
	Address     string   `json:"address"`
	Amount      []Amount `json:"amount"`
	OutputIndex uint32   `json:"output_index"`
	TxHash      string   `json:"tx_hash,omitempty"`
	Collateral  bool     `json:"collateral,omitempty"`
}

// TxUtxosResponse represents the inputs and outputs of a
// transaction.
type TxUtxosResponse struct {
	Hash    string   `json:"hash"`
	Inputs  []TxUtxo `json:"inputs"`
	Outputs []TxUtxo `json:"outputs"`
}

// TxMetadataCborResponse is one label of transaction
// metadata as CBOR hex.
type TxMetadataCborResponse struct {
	Label    string `json:"label"`
	Metadata string `json:"metadata"`
}

// AssetResponse represents a Blockfrost asset object.
type AssetResponse struct {
	Asset                   string          `json:"asset"`
	PolicyId                string          `json:"policy_id"`
	AssetName               *string         `json:"asset_name"`
	Fingerprint             string          `json:"fingerprint"`
	Quantity                string          `json:"quantity"`
	InitialMintTxHash       string          `json:"initial_mint_tx_hash"`
	MintOrBurnCount         int             `json:"mint_or_burn_count"`
	OnchainMetadata         map[string]any  `json:"onchain_metadata"`
	OnchainMetadataStandard *string         `json:"onchain_metadata_standard"`
	Metadata                json.RawMessage `json:"metadata"`
}

// ErrorResponse represents a Blockfrost error response.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}
