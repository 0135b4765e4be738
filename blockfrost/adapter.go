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

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/blinklabs-io/credmint/metadata"
	"github.com/blinklabs-io/credmint/resolver"
	"github.com/blinklabs-io/credmint/txbuilder"
)

// LedgerAdapter exposes a Client as the ledger query, protocol parameter
// and chain tip sources used by the resolver and mint assembler
type LedgerAdapter struct {
	client *Client
}

// NewLedgerAdapter wraps a Client
func NewLedgerAdapter(client *Client) *LedgerAdapter {
	return &LedgerAdapter{client: client}
}

func translateError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %w", resolver.ErrNotFound, err)
	}
	return err
}

func (a *LedgerAdapter) GetTx(
	ctx context.Context,
	txHash string,
) (*resolver.TxInfo, error) {
	tx, err := a.client.GetTx(ctx, txHash)
	if err != nil {
		return nil, translateError(err)
	}
	return &resolver.TxInfo{
		Hash:        tx.Hash,
		BlockHash:   tx.Block,
		BlockHeight: tx.BlockHeight,
		BlockTime:   tx.BlockTime,
		Slot:        tx.Slot,
	}, nil
}

// GetTxMetadata fetches the CBOR metadata of a transaction and renders
// each label as JSON
func (a *LedgerAdapter) GetTxMetadata(
	ctx context.Context,
	txHash string,
) ([]resolver.TxMetadataEntry, error) {
	items, err := a.client.GetTxMetadataCbor(ctx, txHash)
	if err != nil {
		return nil, translateError(err)
	}
	ret := make([]resolver.TxMetadataEntry, 0, len(items))
	for _, item := range items {
		raw, err := hex.DecodeString(item.Metadata)
		if err != nil {
			return nil, fmt.Errorf(
				"decode metadata hex for label %s: %w",
				item.Label,
				err,
			)
		}
		entry, err := decodeLabel(item.Label, raw)
		if err != nil {
			return nil, err
		}
		ret = append(ret, entry)
	}
	return ret, nil
}

// decodeLabel accepts the label value either wrapped in a
// {label: value} map or bare
func decodeLabel(
	label string,
	raw []byte,
) (resolver.TxMetadataEntry, error) {
	num, err := strconv.ParseUint(label, 10, 64)
	if err != nil {
		return resolver.TxMetadataEntry{}, fmt.Errorf(
			"invalid metadata label %q: %w",
			label,
			err,
		)
	}
	value, err := metadata.DecodeLabel(raw, num)
	if err != nil {
		return resolver.TxMetadataEntry{}, err
	}
	jsonValue, err := metadata.JSON(value)
	if err != nil {
		return resolver.TxMetadataEntry{}, fmt.Errorf(
			"render metadata label %s: %w",
			label,
			err,
		)
	}
	return resolver.TxMetadataEntry{
		Label:        label,
		JsonMetadata: jsonValue,
	}, nil
}

func (a *LedgerAdapter) GetTxUtxos(
	ctx context.Context,
	txHash string,
) (*resolver.TxUtxos, error) {
	utxos, err := a.client.GetTxUtxos(ctx, txHash)
	if err != nil {
		return nil, translateError(err)
	}
	ret := &resolver.TxUtxos{
		Hash:    utxos.Hash,
		Outputs: make([]resolver.TxOutput, 0, len(utxos.Outputs)),
	}
	for _, output := range utxos.Outputs {
		tmpOutput := resolver.TxOutput{
			Address:     output.Address,
			OutputIndex: output.OutputIndex,
			Amount:      make([]resolver.Amount, 0, len(output.Amount)),
		}
		for _, amount := range output.Amount {
			tmpOutput.Amount = append(
				tmpOutput.Amount,
				resolver.Amount{
					Unit:     amount.Unit,
					Quantity: amount.Quantity,
				},
			)
		}
		ret.Outputs = append(ret.Outputs, tmpOutput)
	}
	return ret, nil
}

func (a *LedgerAdapter) GetAssetById(
	ctx context.Context,
	unit string,
) (*resolver.AssetInfo, error) {
	asset, err := a.client.GetAssetById(ctx, unit)
	if err != nil {
		return nil, translateError(err)
	}
	ret := &resolver.AssetInfo{
		Unit:              asset.Asset,
		PolicyId:          asset.PolicyId,
		Fingerprint:       asset.Fingerprint,
		Quantity:          asset.Quantity,
		InitialMintTxHash: asset.InitialMintTxHash,
		OnchainMetadata:   asset.OnchainMetadata,
	}
	if asset.AssetName != nil {
		ret.AssetName = *asset.AssetName
	}
	return ret, nil
}

// ProtocolParams returns the current epoch's fee and size parameters
func (a *LedgerAdapter) ProtocolParams(
	ctx context.Context,
) (txbuilder.ProtocolParams, error) {
	params, err := a.client.LatestParams(ctx)
	if err != nil {
		return txbuilder.ProtocolParams{}, err
	}
	ret := txbuilder.ProtocolParams{
		MinFeeA:   params.MinFeeA,
		MinFeeB:   params.MinFeeB,
		MaxTxSize: params.MaxTxSize,
	}
	if params.CoinsPerUtxoSize == nil {
		return ret, errors.New("protocol parameters missing coins_per_utxo_size")
	}
	coinsPerUtxoByte, err := strconv.ParseUint(*params.CoinsPerUtxoSize, 10, 64)
	if err != nil {
		return ret, fmt.Errorf("parse coins_per_utxo_size: %w", err)
	}
	ret.CoinsPerUtxoByte = coinsPerUtxoByte
	return ret, nil
}

// LatestSlot returns the slot of the latest block
func (a *LedgerAdapter) LatestSlot(ctx context.Context) (uint64, error) {
	block, err := a.client.LatestBlock(ctx)
	if err != nil {
		return 0, err
	}
	return block.Slot, nil
}
