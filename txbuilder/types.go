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
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoInputs          = errors.New("no spendable inputs")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTxTooLarge        = errors.New("transaction exceeds maximum size")
	ErrInvalidAddress    = errors.New("invalid address")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidAsset      = errors.New("invalid asset")
)

// Asset is a quantity of a native asset
type Asset struct {
	PolicyId string `json:"policyId"`
	NameHex  string `json:"assetName"`
	Quantity uint64 `json:"quantity"`
}

// Input is a spendable UTxO offered by the caller's wallet
type Input struct {
	TxHash   string  `json:"txHash"`
	Index    uint32  `json:"outputIndex"`
	Address  string  `json:"address"`
	Lovelace uint64  `json:"lovelace"`
	Assets   []Asset `json:"assets,omitempty"`
}

func (i Input) String() string {
	return fmt.Sprintf("%s#%d", i.TxHash, i.Index)
}

// Output is a transaction output. A Lovelace amount below the minimum UTxO
// value is raised to that minimum.
type Output struct {
	Address  string
	Lovelace uint64
	Assets   []Asset
}

// MintAsset is an asset minted under the request's script policy
type MintAsset struct {
	NameHex  string
	Quantity int64
}

// MintRequest describes an unsigned minting transaction
type MintRequest struct {
	Inputs        []Input
	Collateral    []Input
	ChangeAddress string
	Outputs       []Output
	Script        PubKeyScript
	Mint          []MintAsset
	// Metadata maps labels to documents and is attached as auxiliary data
	Metadata map[uint64]any
	// Ttl is the last valid slot. Zero leaves the transaction unbounded.
	Ttl uint64
}

// Result is an assembled unsigned transaction
type Result struct {
	Cbor    []byte `json:"-"`
	CborHex string `json:"cborHex"`
	TxHash  string `json:"txHash"`
	Fee     uint64 `json:"fee"`
	Size    int    `json:"size"`
}

// ProtocolParams are the protocol parameters needed to balance a transaction
type ProtocolParams struct {
	MinFeeA          uint64 `yaml:"minFeeA"          envconfig:"MIN_FEE_A"`
	MinFeeB          uint64 `yaml:"minFeeB"          envconfig:"MIN_FEE_B"`
	CoinsPerUtxoByte uint64 `yaml:"coinsPerUtxoByte" envconfig:"COINS_PER_UTXO_BYTE"`
	MaxTxSize        uint64 `yaml:"maxTxSize"        envconfig:"MAX_TX_SIZE"`
}

// DefaultProtocolParams are the current mainnet values
var DefaultProtocolParams = ProtocolParams{
	MinFeeA:          44,
	MinFeeB:          155381,
	CoinsPerUtxoByte: 4310,
	MaxTxSize:        16384,
}

// ProtocolParamsProvider returns the protocol parameters in effect
type ProtocolParamsProvider interface {
	ProtocolParams(ctx context.Context) (ProtocolParams, error)
}

// StaticParams is a ProtocolParamsProvider returning fixed values
type StaticParams ProtocolParams

func (s StaticParams) ProtocolParams(context.Context) (ProtocolParams, error) {
	return ProtocolParams(s), nil
}
