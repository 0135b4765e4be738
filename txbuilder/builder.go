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
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/blinklabs-io/credmint/metadata"
	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	fxcbor "github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

const (
	// Transaction body keys
	bodyKeyInputs          = 0
	bodyKeyOutputs         = 1
	bodyKeyFee             = 2
	bodyKeyTtl             = 3
	bodyKeyAuxDataHash     = 7
	bodyKeyMint            = 9
	bodyKeyCollateral      = 13
	bodyKeyRequiredSigners = 14

	// Witness set keys
	witnessKeyVkey         = 0
	witnessKeyNativeScript = 1

	// Fixed per-output overhead used by the minimum UTxO calculation
	utxoEntryOverhead = 160

	maxFeeIterations = 10
)

var encMode fxcbor.EncMode

func init() {
	var err error
	encMode, err = fxcbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("txbuilder: CBOR encoding mode: %s", err))
	}
}

// Builder assembles balanced, unsigned Conway-era minting transactions
type Builder struct {
	params ProtocolParamsProvider
	logger *slog.Logger
}

type BuilderOptionFunc func(*Builder)

// WithProtocolParams specifies the protocol parameter source
func WithProtocolParams(params ProtocolParamsProvider) BuilderOptionFunc {
	return func(b *Builder) {
		b.params = params
	}
}

// WithLogger specifies the logger
func WithLogger(logger *slog.Logger) BuilderOptionFunc {
	return func(b *Builder) {
		b.logger = logger
	}
}

// New creates a Builder. Without a parameter source the current mainnet
// protocol parameters are used.
func New(opts ...BuilderOptionFunc) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	if b.params == nil {
		b.params = StaticParams(DefaultProtocolParams)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	b.logger = b.logger.With("component", "txbuilder")
	return b
}

type encodedOutput struct {
	addr []byte
	val  value
}

func (o encodedOutput) cborValue() any {
	return []any{o.addr, o.val.cborValue()}
}

// Build balances and serializes a minting transaction. All supplied inputs
// are spent; anything not sent to the requested outputs or paid as fee is
// returned to the change address.
func (b *Builder) Build(ctx context.Context, req MintRequest) (*Result, error) {
	if len(req.Inputs) == 0 {
		return nil, ErrNoInputs
	}
	pparams, err := b.params.ProtocolParams(ctx)
	if err != nil {
		return nil, fmt.Errorf("protocol parameters: %w", err)
	}
	policyId, err := req.Script.PolicyId()
	if err != nil {
		return nil, fmt.Errorf("policy id: %w", err)
	}
	scriptCbor, err := req.Script.Cbor()
	if err != nil {
		return nil, fmt.Errorf("encode script: %w", err)
	}
	changeAddr, err := addressBytes(req.ChangeAddress)
	if err != nil {
		return nil, err
	}
	inputs, err := encodeInputs(req.Inputs)
	if err != nil {
		return nil, err
	}
	collateral, err := encodeInputs(req.Collateral)
	if err != nil {
		return nil, err
	}

	// Total available: inputs plus freshly minted assets
	var available value
	for _, in := range req.Inputs {
		tmp, err := newValue(in.Lovelace, in.Assets)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", in, err)
		}
		available.add(tmp)
	}
	mint := make(map[string]map[string]int64)
	for _, m := range req.Mint {
		if m.Quantity <= 0 {
			return nil, fmt.Errorf("%w: mint quantity %d", ErrInvalidAsset, m.Quantity)
		}
		if err := available.addAsset(policyId.String(), m.NameHex, uint64(m.Quantity)); err != nil {
			return nil, err
		}
		if mint[policyId.String()] == nil {
			mint[policyId.String()] = make(map[string]int64)
		}
		if _, ok := mint[policyId.String()][m.NameHex]; ok {
			return nil, fmt.Errorf("%w: duplicate asset name %s", ErrInvalidAsset, m.NameHex)
		}
		mint[policyId.String()][m.NameHex] = m.Quantity
	}

	// Requested outputs, each raised to the minimum UTxO value
	outputs := make([]encodedOutput, 0, len(req.Outputs)+1)
	var spent value
	for _, out := range req.Outputs {
		addr, err := addressBytes(out.Address)
		if err != nil {
			return nil, err
		}
		val, err := newValue(out.Lovelace, out.Assets)
		if err != nil {
			return nil, fmt.Errorf("output to %s: %w", out.Address, err)
		}
		tmp := encodedOutput{addr: addr, val: val}
		minCoin, err := minUtxo(tmp, pparams)
		if err != nil {
			return nil, err
		}
		if tmp.val.coin < minCoin {
			tmp.val.coin = minCoin
		}
		spent.add(tmp.val)
		outputs = append(outputs, tmp)
	}

	var auxCbor []byte
	if len(req.Metadata) > 0 {
		auxCbor, err = metadata.Encode(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
	}

	body := map[uint64]any{
		bodyKeyInputs:          inputs,
		bodyKeyRequiredSigners: [][]byte{req.Script.KeyHash.Bytes()},
	}
	if len(mint) > 0 {
		body[bodyKeyMint] = multiAsset(mint)
	}
	if len(collateral) > 0 {
		body[bodyKeyCollateral] = collateral
	}
	if req.Ttl > 0 {
		body[bodyKeyTtl] = req.Ttl
	}
	if auxCbor != nil {
		auxHash := blake2b.Sum256(auxCbor)
		body[bodyKeyAuxDataHash] = auxHash[:]
	}
	witnesses := map[uint64]any{
		witnessKeyNativeScript: []fxcbor.RawMessage{scriptCbor},
	}

	// The fee depends on the size of the transaction, which depends on the
	// fee and change amounts, so iterate until the fee stops growing
	var fee uint64
	var bodyCbor []byte
	for range maxFeeIterations {
		body[bodyKeyFee] = fee
		finalOutputs, err := b.withChange(available, spent, fee, changeAddr, outputs, pparams)
		if err != nil {
			return nil, err
		}
		body[bodyKeyOutputs] = outputsCbor(finalOutputs)
		bodyCbor, err = encMode.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		txSize, err := estimateSize(bodyCbor, witnesses, auxCbor)
		if err != nil {
			return nil, err
		}
		newFee := pparams.MinFeeA*uint64(txSize) + pparams.MinFeeB
		if newFee <= fee {
			break
		}
		fee = newFee
	}
	if body[bodyKeyFee] != fee {
		return nil, errors.New("fee did not converge")
	}

	txCbor, err := assemble(bodyCbor, witnesses, auxCbor)
	if err != nil {
		return nil, err
	}
	if pparams.MaxTxSize > 0 && uint64(len(txCbor)) > pparams.MaxTxSize {
		return nil, fmt.Errorf(
			"%w: %d > %d bytes",
			ErrTxTooLarge,
			len(txCbor),
			pparams.MaxTxSize,
		)
	}
	txHash := blake2b.Sum256(bodyCbor)
	ret := &Result{
		Cbor:    txCbor,
		CborHex: hex.EncodeToString(txCbor),
		TxHash:  hex.EncodeToString(txHash[:]),
		Fee:     fee,
		Size:    len(txCbor),
	}
	b.logger.Debug(
		"built unsigned transaction",
		"tx_hash", ret.TxHash,
		"fee", ret.Fee,
		"size", ret.Size,
		"policy_id", policyId.String(),
		"inputs", len(req.Inputs),
	)
	return ret, nil
}

// withChange appends a change output holding everything not spent
func (b *Builder) withChange(
	available value,
	spent value,
	fee uint64,
	changeAddr []byte,
	outputs []encodedOutput,
	pparams ProtocolParams,
) ([]encodedOutput, error) {
	var need value
	need.add(spent)
	need.coin += fee
	change, err := available.sub(need)
	if err != nil {
		return nil, err
	}
	ret := append([]encodedOutput(nil), outputs...)
	if change.isZero() {
		return ret, nil
	}
	changeOut := encodedOutput{addr: changeAddr, val: change}
	minCoin, err := minUtxo(changeOut, pparams)
	if err != nil {
		return nil, err
	}
	if change.coin < minCoin {
		return nil, fmt.Errorf(
			"%w: change of %d lovelace is below the minimum UTxO value of %d",
			ErrInsufficientFunds,
			change.coin,
			minCoin,
		)
	}
	return append(ret, changeOut), nil
}

func outputsCbor(outputs []encodedOutput) []any {
	ret := make([]any, 0, len(outputs))
	for _, out := range outputs {
		ret = append(ret, out.cborValue())
	}
	return ret
}

func minUtxo(out encodedOutput, pparams ProtocolParams) (uint64, error) {
	// Size the output with a full-width coin so the result is an upper bound
	tmp := out
	tmp.val.coin = ^uint64(0)
	outCbor, err := encMode.Marshal(tmp.cborValue())
	if err != nil {
		return 0, fmt.Errorf("encode output: %w", err)
	}
	return (utxoEntryOverhead + uint64(len(outCbor))) * pparams.CoinsPerUtxoByte, nil
}

// estimateSize returns the size of the transaction once signed by one key
func estimateSize(
	bodyCbor []byte,
	witnesses map[uint64]any,
	auxCbor []byte,
) (int, error) {
	tmp := make(map[uint64]any, len(witnesses)+1)
	for k, v := range witnesses {
		tmp[k] = v
	}
	tmp[witnessKeyVkey] = []any{
		[]any{make([]byte, 32), make([]byte, 64)},
	}
	txCbor, err := assemble(bodyCbor, tmp, auxCbor)
	if err != nil {
		return 0, err
	}
	return len(txCbor), nil
}

func assemble(
	bodyCbor []byte,
	witnesses map[uint64]any,
	auxCbor []byte,
) ([]byte, error) {
	witnessCbor, err := encMode.Marshal(witnesses)
	if err != nil {
		return nil, fmt.Errorf("encode witness set: %w", err)
	}
	var aux any
	if auxCbor != nil {
		aux = cbor.RawMessage(auxCbor)
	}
	tx := []any{
		cbor.RawMessage(bodyCbor),
		cbor.RawMessage(witnessCbor),
		true,
		aux,
	}
	txCbor, err := cbor.Encode(tx)
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	return txCbor, nil
}

func encodeInputs(inputs []Input) ([]any, error) {
	ret := make([]any, 0, len(inputs))
	for _, in := range sortedInputs(inputs) {
		hash, err := hex.DecodeString(in.TxHash)
		if err != nil || len(hash) != 32 {
			return nil, fmt.Errorf("%w: transaction hash %q", ErrInvalidInput, in.TxHash)
		}
		ret = append(ret, []any{hash, in.Index})
	}
	return ret, nil
}

func addressBytes(address string) ([]byte, error) {
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	addr, err := lcommon.NewAddress(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	ret, err := addr.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return ret, nil
}
