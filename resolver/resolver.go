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

package resolver

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/credmint/asset"
)

const DefaultEnrichTimeout = 5 * time.Second

// Resolver reconstructs minted certificate assets from ledger state
type Resolver struct {
	ledger        LedgerQuery
	courses       CourseStore
	enrichTimeout time.Duration
	logger        *slog.Logger
}

type ResolverOptionFunc func(*Resolver)

// WithCourseStore enables educator enrichment
func WithCourseStore(courses CourseStore) ResolverOptionFunc {
	return func(r *Resolver) {
		r.courses = courses
	}
}

// WithEnrichTimeout bounds the educator enrichment lookup
func WithEnrichTimeout(timeout time.Duration) ResolverOptionFunc {
	return func(r *Resolver) {
		r.enrichTimeout = timeout
	}
}

// WithLogger specifies the logger
func WithLogger(logger *slog.Logger) ResolverOptionFunc {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func New(ledger LedgerQuery, opts ...ResolverOptionFunc) *Resolver {
	r := &Resolver{
		ledger: ledger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	r.logger = r.logger.With("component", "resolver")
	if r.enrichTimeout <= 0 {
		r.enrichTimeout = DefaultEnrichTimeout
	}
	return r
}

// ResolveByTx returns the first native asset found in the outputs of the
// transaction
func (r *Resolver) ResolveByTx(
	ctx context.Context,
	txHash string,
) (*OnChainAsset, error) {
	return r.resolve(ctx, txHash, "")
}

// ResolveByPolicyAndTx returns the first native asset under the policy found
// in the outputs of the transaction
func (r *Resolver) ResolveByPolicyAndTx(
	ctx context.Context,
	policyId string,
	txHash string,
) (*OnChainAsset, error) {
	if !isHex(policyId, asset.PolicyIdHexLength) {
		return nil, asset.ValidationError{
			Field:  "policyId",
			Reason: "must be 56 hex characters",
		}
	}
	return r.resolve(ctx, txHash, strings.ToLower(policyId))
}

func (r *Resolver) resolve(
	ctx context.Context,
	txHash string,
	policyId string,
) (*OnChainAsset, error) {
	if !isHex(txHash, 64) {
		return nil, asset.ValidationError{
			Field:  "txHash",
			Reason: "must be 64 hex characters",
		}
	}
	txHash = strings.ToLower(txHash)
	tx, err := r.ledger.GetTx(ctx, txHash)
	if err != nil {
		return nil, r.ledgerError(txHash, policyId, err)
	}
	txMetadata, err := r.ledger.GetTxMetadata(ctx, txHash)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, r.ledgerError(txHash, policyId, err)
	}
	utxos, err := r.ledger.GetTxUtxos(ctx, txHash)
	if err != nil {
		return nil, r.ledgerError(txHash, policyId, err)
	}
	unit := findUnit(utxos.Outputs, policyId)
	if unit == "" {
		return nil, &AssetNotFoundError{TxHash: txHash, PolicyId: policyId}
	}
	unitPolicy, nameHex, err := asset.SplitUnit(unit)
	if err != nil {
		return nil, asset.NewExternalServiceError("ledger query", err)
	}
	info, err := r.ledger.GetAssetById(ctx, unit)
	if err != nil {
		return nil, r.ledgerError(txHash, policyId, err)
	}

	ret := &OnChainAsset{
		PolicyId:   unitPolicy,
		AssetName:  nameHex,
		Unit:       unit,
		TxMetadata: txMetadata,
		MintTransaction: MintTransaction{
			TxHash:      txHash,
			BlockHeight: tx.BlockHeight,
			BlockTime:   tx.BlockTime,
		},
	}
	ret.Fingerprint = info.Fingerprint
	if ret.Fingerprint == "" {
		ret.Fingerprint, _ = asset.Fingerprint(unitPolicy, nameHex)
	}
	// Metadata is passed through as stored on chain, in whatever shape
	ret.Metadata = info.OnchainMetadata
	if ret.Metadata == nil {
		ret.Metadata = metadataFromTx(txMetadata, unitPolicy, nameHex)
	}
	ret.IsCIP721 = isCIP721(ret.Metadata, unitPolicy)
	ret.ReadableAssetName = asset.ReadableName(nameHex)
	if name, ok := ret.Metadata["name"].(string); ok && name != "" {
		ret.ReadableAssetName = name
		ret.CourseTitle = name
	}

	educator, err := r.enrich(ctx, ret)
	if err != nil {
		r.logger.Warn(
			"educator enrichment failed",
			"tx_hash", txHash,
			"unit", unit,
			"error", err,
		)
	}
	ret.Educator = educator
	return ret, nil
}

// enrich looks up educator statistics for the course named in the asset
// metadata. Its errors never affect the resolved asset.
func (r *Resolver) enrich(
	ctx context.Context,
	a *OnChainAsset,
) (*EducatorStats, error) {
	if r.courses == nil {
		return nil, nil
	}
	courseId := courseIdFromMetadata(a.Metadata, a.PolicyId, a.AssetName)
	if courseId == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.enrichTimeout)
	defer cancel()
	return r.courses.EducatorStatsByCourse(ctx, courseId)
}

func (r *Resolver) ledgerError(txHash, policyId string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return &AssetNotFoundError{TxHash: txHash, PolicyId: policyId, Err: err}
	}
	return asset.NewExternalServiceError("ledger query", err)
}

// findUnit returns the first non-lovelace unit across outputs, restricted
// to the policy when one is given
func findUnit(outputs []TxOutput, policyId string) string {
	for _, out := range outputs {
		for _, amount := range out.Amount {
			if amount.Unit == asset.LovelaceUnit {
				continue
			}
			if policyId != "" && !strings.HasPrefix(amount.Unit, policyId) {
				continue
			}
			return amount.Unit
		}
	}
	return ""
}

// isCIP721 reports whether the metadata carries the nested
// 721 -> policy id -> asset form for the policy
func isCIP721(md map[string]any, policyId string) bool {
	nested, ok := md["721"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = nested[policyId].(map[string]any)
	return ok
}

func metadataFromTx(
	entries []TxMetadataEntry,
	policyId string,
	nameHex string,
) map[string]any {
	for _, entry := range entries {
		if entry.Label != strconv.Itoa(asset.MetadataLabel) {
			continue
		}
		var doc map[string]map[string]map[string]any
		if err := json.Unmarshal(entry.JsonMetadata, &doc); err != nil {
			return nil
		}
		byName := doc[policyId]
		if md, ok := byName[asset.ReadableName(nameHex)]; ok {
			return md
		}
		if md, ok := byName[nameHex]; ok {
			return md
		}
	}
	return nil
}

func courseIdFromMetadata(
	md map[string]any,
	policyId string,
	nameHex string,
) string {
	if props, ok := md["properties"].(map[string]any); ok {
		for _, key := range []string{"courseId", "course_id", "id"} {
			if v := stringValue(props[key]); v != "" {
				return v
			}
		}
	}
	if v := stringValue(md["course_id"]); v != "" {
		return v
	}
	nested, _ := md["721"].(map[string]any)
	byName, _ := nested[policyId].(map[string]any)
	for _, key := range []string{asset.ReadableName(nameHex), nameHex} {
		if attrs, ok := byName[key].(map[string]any); ok {
			if v := stringValue(attrs["courseId"]); v != "" {
				return v
			}
		}
	}
	return ""
}

func stringValue(v any) string {
	switch tmp := v.(type) {
	case string:
		return tmp
	case float64:
		return strconv.FormatFloat(tmp, 'f', -1, 64)
	default:
		return ""
	}
}

func isHex(s string, length int) bool {
	if len(s) != length {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
