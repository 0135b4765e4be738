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
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/credmint/metadata"
	"github.com/blinklabs-io/credmint/resolver"
)

const (
	testBaseUrl = "http://blockfrost.test/api/v0"
	testTxHash  = "8f3c2b1a9d7e6f5a4b3c2d1e0f9a8b7c6d5e4f3a2b1c0d9e8f7a6b5c4d3e2f1a"
	testUnit    = "7eae28af2208be856f7a119668ae52a49b73725e326dc16579dcc373" + "4361626364733434776538"
)

func newTestClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	c, err := New(
		WithBaseURL(testBaseUrl),
		WithProjectId("preprodTestProject"),
		WithHTTPClient(&http.Client{Transport: transport}),
	)
	require.NoError(t, err)
	return c, transport
}

func TestNetworkURL(t *testing.T) {
	u, err := NetworkURL("preview")
	require.NoError(t, err)
	assert.Equal(t, "https://cardano-preview.blockfrost.io/api/v0", u)
	_, err = NetworkURL("sanchonet")
	assert.Error(t, err)
	_, err = New(WithNetwork("sanchonet"))
	assert.Error(t, err)
	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, "https://cardano-preprod.blockfrost.io/api/v0", c.BaseURL())
}

func TestGetTx(t *testing.T) {
	c, transport := newTestClient(t)
	transport.RegisterResponder(
		"GET",
		testBaseUrl+"/txs/"+testTxHash,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "preprodTestProject", req.Header.Get("project_id"))
			return httpmock.NewJsonResponse(200, TxResponse{
				Hash:        testTxHash,
				Block:       "blockhash",
				BlockHeight: 123456,
				BlockTime:   1700000100,
				Slot:        98765,
			})
		},
	)
	a := NewLedgerAdapter(c)
	tx, err := a.GetTx(context.Background(), testTxHash)
	require.NoError(t, err)
	assert.Equal(t, testTxHash, tx.Hash)
	assert.Equal(t, "blockhash", tx.BlockHash)
	assert.Equal(t, uint64(123456), tx.BlockHeight)
	assert.Equal(t, int64(1700000100), tx.BlockTime)
	assert.Equal(t, uint64(98765), tx.Slot)
}

func TestErrors(t *testing.T) {
	c, transport := newTestClient(t)
	transport.RegisterResponder(
		"GET",
		testBaseUrl+"/txs/"+testTxHash,
		httpmock.NewJsonResponderOrPanic(404, ErrorResponse{
			StatusCode: 404,
			Error:      "Not Found",
			Message:    "The requested component has not been found.",
		}),
	)
	transport.RegisterResponder(
		"GET",
		testBaseUrl+"/assets/"+testUnit,
		httpmock.NewJsonResponderOrPanic(403, ErrorResponse{
			StatusCode: 403,
			Error:      "Forbidden",
			Message:    "Invalid project token.",
		}),
	)
	_, err := c.GetTx(context.Background(), testTxHash)
	assert.ErrorIs(t, err, ErrNotFound)

	a := NewLedgerAdapter(c)
	_, err = a.GetTx(context.Background(), testTxHash)
	assert.ErrorIs(t, err, resolver.ErrNotFound)

	_, err = a.GetAssetById(context.Background(), testUnit)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 403, apiErr.StatusCode)
	assert.Equal(t, "Invalid project token.", apiErr.Message)
	assert.NotErrorIs(t, err, resolver.ErrNotFound)
}

func TestGetTxMetadata(t *testing.T) {
	doc := map[string]any{
		"7eae28af2208be856f7a119668ae52a49b73725e326dc16579dcc373": map[string]any{
			"Cabcds44we8": map[string]any{
				"name":  "Intro to Plutus",
				"image": "bafkreib2x",
			},
		},
	}
	wrapped, err := metadata.Encode(metadata.Metadata{721: doc})
	require.NoError(t, err)
	bare, err := metadata.Encode(metadata.Metadata{674: "hello"})
	require.NoError(t, err)

	c, transport := newTestClient(t)
	transport.RegisterResponder(
		"GET",
		testBaseUrl+"/txs/"+testTxHash+"/metadata/cbor",
		httpmock.NewJsonResponderOrPanic(200, []TxMetadataCborResponse{
			{Label: "721", Metadata: hex.EncodeToString(wrapped)},
			// bare value: text string "hi"
			{Label: "1", Metadata: "626869"},
			{Label: "674", Metadata: hex.EncodeToString(bare)},
		}),
	)
	a := NewLedgerAdapter(c)
	entries, err := a.GetTxMetadata(context.Background(), testTxHash)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "721", entries[0].Label)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(entries[0].JsonMetadata, &decoded))
	assert.Equal(t, doc, decoded)

	assert.Equal(t, "1", entries[1].Label)
	assert.JSONEq(t, `"hi"`, string(entries[1].JsonMetadata))
	assert.JSONEq(t, `"hello"`, string(entries[2].JsonMetadata))
}

func TestGetTxMetadataBadHex(t *testing.T) {
	c, transport := newTestClient(t)
	transport.RegisterResponder(
		"GET",
		testBaseUrl+"/txs/"+testTxHash+"/metadata/cbor",
		httpmock.NewJsonResponderOrPanic(200, []TxMetadataCborResponse{
			{Label: "721", Metadata: "zz"},
		}),
	)
	_, err := NewLedgerAdapter(c).GetTxMetadata(context.Background(), testTxHash)
	assert.Error(t, err)
}

func TestGetTxUtxos(t *testing.T) {
	c, transport := newTestClient(t)
	transport.RegisterResponder(
		"GET",
		testBaseUrl+"/txs/"+testTxHash+"/utxos",
		httpmock.NewJsonResponderOrPanic(200, TxUtxosResponse{
			Hash: testTxHash,
			Outputs: []TxUtxo{
				{
					Address:     "addr_test1qz",
					OutputIndex: 0,
					Amount: []Amount{
						{Unit: "lovelace", Quantity: "1500000"},
						{Unit: testUnit, Quantity: "1"},
					},
				},
			},
		}),
	)
	utxos, err := NewLedgerAdapter(c).GetTxUtxos(context.Background(), testTxHash)
	require.NoError(t, err)
	require.Len(t, utxos.Outputs, 1)
	assert.Equal(t, "addr_test1qz", utxos.Outputs[0].Address)
	assert.Equal(
		t,
		[]resolver.Amount{
			{Unit: "lovelace", Quantity: "1500000"},
			{Unit: testUnit, Quantity: "1"},
		},
		utxos.Outputs[0].Amount,
	)
}

func TestGetAssetById(t *testing.T) {
	name := "4361626364733434776538"
	c, transport := newTestClient(t)
	transport.RegisterResponder(
		"GET",
		testBaseUrl+"/assets/"+testUnit,
		httpmock.NewJsonResponderOrPanic(200, AssetResponse{
			Asset:             testUnit,
			PolicyId:          testUnit[:56],
			AssetName:         &name,
			Fingerprint:       "asset1xyz",
			Quantity:          "1",
			InitialMintTxHash: testTxHash,
			OnchainMetadata: map[string]any{
				"name": "Intro to Plutus",
			},
		}),
	)
	info, err := NewLedgerAdapter(c).GetAssetById(context.Background(), testUnit)
	require.NoError(t, err)
	assert.Equal(t, testUnit[:56], info.PolicyId)
	assert.Equal(t, name, info.AssetName)
	assert.Equal(t, "asset1xyz", info.Fingerprint)
	assert.Equal(t, testTxHash, info.InitialMintTxHash)
	assert.Equal(t, "Intro to Plutus", info.OnchainMetadata["name"])
}

func TestProtocolParamsAndTip(t *testing.T) {
	coins := "4310"
	c, transport := newTestClient(t)
	transport.RegisterResponder(
		"GET",
		testBaseUrl+"/epochs/latest/parameters",
		httpmock.NewJsonResponderOrPanic(200, ProtocolParamsResponse{
			Epoch:            150,
			MinFeeA:          44,
			MinFeeB:          155381,
			MaxTxSize:        16384,
			CoinsPerUtxoSize: &coins,
		}),
	)
	transport.RegisterResponder(
		"GET",
		testBaseUrl+"/blocks/latest",
		httpmock.NewJsonResponderOrPanic(200, BlockResponse{
			Height: 2000000,
			Slot:   70000000,
		}),
	)
	a := NewLedgerAdapter(c)
	params, err := a.ProtocolParams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(44), params.MinFeeA)
	assert.Equal(t, uint64(155381), params.MinFeeB)
	assert.Equal(t, uint64(16384), params.MaxTxSize)
	assert.Equal(t, uint64(4310), params.CoinsPerUtxoByte)

	slot, err := a.LatestSlot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(70000000), slot)
}

func TestProtocolParamsMissingCoins(t *testing.T) {
	c, transport := newTestClient(t)
	transport.RegisterResponder(
		"GET",
		testBaseUrl+"/epochs/latest/parameters",
		httpmock.NewJsonResponderOrPanic(200, ProtocolParamsResponse{
			MinFeeA: 44,
		}),
	)
	_, err := NewLedgerAdapter(c).ProtocolParams(context.Background())
	assert.Error(t, err)
}
