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
	"context"
	"io"
	"log/slog"

	"github.com/blinklabs-io/credmint/asset"
	"github.com/blinklabs-io/credmint/txbuilder"
)

// BatchItem is a certificate request that has been encoded and whose image
// has been uploaded
type BatchItem struct {
	Index     int                       `json:"index"`
	Request   asset.CertificateRequest  `json:"request"`
	Identity  asset.AssetIdentity       `json:"identity"`
	Metadata  asset.CertificateMetadata `json:"metadata"`
	UploadRef string                    `json:"ipfsHash"`
}

// MintedAsset identifies one asset minted by a transaction
type MintedAsset struct {
	Unit         string `json:"unit"`
	AssetName    string `json:"assetName"`
	AssetNameHex string `json:"assetNameHex"`
	Fingerprint  string `json:"fingerprint"`
}

// UnsignedMintTransaction is an assembled transaction awaiting the
// minter's signature
type UnsignedMintTransaction struct {
	CborHex  string        `json:"unsignedTx"`
	TxHash   string        `json:"txHash"`
	Fee      uint64        `json:"fee"`
	PolicyId string        `json:"policyId"`
	Assets   []MintedAsset `json:"assets"`
	// Items carry the metadata as minted, bound to the policy id
	Items []BatchItem `json:"-"`
}

// TxBuilder builds unsigned minting transactions
type TxBuilder interface {
	Build(ctx context.Context, req txbuilder.MintRequest) (*txbuilder.Result, error)
}

// TipProvider reports the slot of the chain tip, used to bound validity
type TipProvider interface {
	LatestSlot(ctx context.Context) (uint64, error)
}

// Assembler turns encoded certificates into a single unsigned mint
// transaction
type Assembler struct {
	builder   TxBuilder
	tip       TipProvider
	ttlOffset uint64
	logger    *slog.Logger
}

type AssemblerOptionFunc func(*Assembler)

// WithBuilder specifies the transaction builder
func WithBuilder(builder TxBuilder) AssemblerOptionFunc {
	return func(a *Assembler) {
		a.builder = builder
	}
}

// WithTipProvider enables a validity upper bound of tip slot + offset
func WithTipProvider(tip TipProvider, ttlOffset uint64) AssemblerOptionFunc {
	return func(a *Assembler) {
		a.tip = tip
		a.ttlOffset = ttlOffset
	}
}

// WithLogger specifies the logger
func WithLogger(logger *slog.Logger) AssemblerOptionFunc {
	return func(a *Assembler) {
		a.logger = logger
	}
}

func NewAssembler(opts ...AssemblerOptionFunc) *Assembler {
	a := &Assembler{}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	a.logger = a.logger.With("component", "mint")
	if a.builder == nil {
		a.builder = txbuilder.New(txbuilder.WithLogger(a.logger))
	}
	return a
}

// AssembleMint builds one transaction minting one asset per item to the
// recipient. The policy is a single signature script for the recipient's
// payment key. Either every item is minted or the call fails.
func (a *Assembler) AssembleMint(
	ctx context.Context,
	inputs []txbuilder.Input,
	collateral []txbuilder.Input,
	recipient string,
	items []BatchItem,
) (*UnsignedMintTransaction, error) {
	if len(inputs) == 0 {
		return nil, &InsufficientInputsError{Kind: "spendable"}
	}
	if len(collateral) == 0 {
		return nil, &InsufficientInputsError{Kind: "collateral"}
	}
	if len(items) == 0 {
		return nil, &AssemblyError{Err: ErrNoItems}
	}
	policy, err := PolicyFromAddress(recipient)
	if err != nil {
		return nil, &AssemblyError{Err: err}
	}

	ret := &UnsignedMintTransaction{
		PolicyId: policy.PolicyId,
		Assets:   make([]MintedAsset, 0, len(items)),
		Items:    make([]BatchItem, 0, len(items)),
	}
	byName := make(map[string]any, len(items))
	output := txbuilder.Output{Address: recipient}
	mints := make([]txbuilder.MintAsset, 0, len(items))
	for _, item := range items {
		item.Metadata = item.Metadata.WithPolicy(policy.PolicyId)
		byName[item.Identity.Name] = item.Metadata.Document()
		mints = append(mints, txbuilder.MintAsset{
			NameHex:  item.Identity.NameHex,
			Quantity: 1,
		})
		output.Assets = append(output.Assets, txbuilder.Asset{
			PolicyId: policy.PolicyId,
			NameHex:  item.Identity.NameHex,
			Quantity: 1,
		})
		fingerprint, err := asset.Fingerprint(policy.PolicyId, item.Identity.NameHex)
		if err != nil {
			return nil, &AssemblyError{Err: err}
		}
		ret.Assets = append(ret.Assets, MintedAsset{
			Unit:         asset.Unit(policy.PolicyId, item.Identity.NameHex),
			AssetName:    item.Identity.Name,
			AssetNameHex: item.Identity.NameHex,
			Fingerprint:  fingerprint,
		})
		ret.Items = append(ret.Items, item)
	}

	req := txbuilder.MintRequest{
		Inputs:        inputs,
		Collateral:    collateral,
		ChangeAddress: recipient,
		Outputs:       []txbuilder.Output{output},
		Script:        policy.Script,
		Mint:          mints,
		Metadata: map[uint64]any{
			asset.MetadataLabel: map[string]any{
				policy.PolicyId: byName,
			},
		},
	}
	if a.tip != nil {
		slot, err := a.tip.LatestSlot(ctx)
		if err != nil {
			return nil, &AssemblyError{
				Err: asset.NewExternalServiceError("ledger query", err),
			}
		}
		req.Ttl = slot + a.ttlOffset
	}
	res, err := a.builder.Build(ctx, req)
	if err != nil {
		return nil, &AssemblyError{Err: err}
	}
	ret.CborHex = res.CborHex
	ret.TxHash = res.TxHash
	ret.Fee = res.Fee
	a.logger.Info(
		"assembled mint transaction",
		"tx_hash", ret.TxHash,
		"policy_id", ret.PolicyId,
		"assets", len(ret.Assets),
		"fee", ret.Fee,
	)
	return ret, nil
}
