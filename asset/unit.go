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

package asset

import (
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
)

// LovelaceUnit is the unit string used for the base currency
const LovelaceUnit = "lovelace"

var ErrInvalidUnit = errors.New("invalid asset unit")

// Unit joins a policy id and a hex asset name into an asset unit
func Unit(policyId string, assetNameHex string) string {
	return policyId + assetNameHex
}

// SplitUnit splits an asset unit into its policy id (first 56 hex
// characters) and hex asset name (the remainder)
func SplitUnit(unit string) (string, string, error) {
	if len(unit) < PolicyIdHexLength {
		return "", "", ErrInvalidUnit
	}
	if _, err := hex.DecodeString(unit); err != nil {
		return "", "", ErrInvalidUnit
	}
	return strings.ToLower(unit[:PolicyIdHexLength]),
		strings.ToLower(unit[PolicyIdHexLength:]),
		nil
}

// Fingerprint returns the CIP-14 asset fingerprint for a policy id and hex
// asset name
func Fingerprint(policyId string, assetNameHex string) (string, error) {
	policyBytes, err := hex.DecodeString(policyId)
	if err != nil {
		return "", err
	}
	nameBytes, err := hex.DecodeString(assetNameHex)
	if err != nil {
		return "", err
	}
	return lcommon.NewAssetFingerprint(policyBytes, nameBytes).String(), nil
}

// ReadableName decodes a hex asset name to text, or returns the hex string
// when the name is not printable UTF-8
func ReadableName(assetNameHex string) string {
	raw, err := hex.DecodeString(assetNameHex)
	if err != nil || !utf8.Valid(raw) {
		return assetNameHex
	}
	for _, r := range string(raw) {
		if !unicode.IsPrint(r) {
			return assetNameHex
		}
	}
	return string(raw)
}
