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

package metadata

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"

	fxcbor "github.com/fxamacker/cbor/v2"
)

// MaxValueLength is the ledger limit for text and byte string metadata values
const MaxValueLength = 64

var (
	ErrValueTooLong    = errors.New("metadata value exceeds 64 bytes")
	ErrUnsupportedType = errors.New("unsupported metadata value type")
)

var encMode fxcbor.EncMode

func init() {
	var err error
	encMode, err = fxcbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("metadata: CBOR encoding mode: %s", err))
	}
}

// Metadata maps transaction metadata labels to their documents
type Metadata map[uint64]any

// Labels returns the metadata labels in ascending order
func (m Metadata) Labels() []uint64 {
	ret := make([]uint64, 0, len(m))
	for label := range m {
		ret = append(ret, label)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

// Encode serializes metadata to deterministic CBOR after checking every
// value against the ledger metadatum rules
func Encode(md Metadata) ([]byte, error) {
	tmp := make(map[uint64]any, len(md))
	for label, value := range md {
		norm, err := normalize(value)
		if err != nil {
			return nil, fmt.Errorf("metadata label %d: %w", label, err)
		}
		tmp[label] = norm
	}
	return encMode.Marshal(tmp)
}

func normalize(value any) (any, error) {
	switch v := value.(type) {
	case string:
		if len(v) > MaxValueLength {
			return nil, fmt.Errorf("%w: %q", ErrValueTooLong, v)
		}
		return v, nil
	case []byte:
		if len(v) > MaxValueLength {
			return nil, ErrValueTooLong
		}
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	case float64:
		// JSON decoded documents carry numbers as float64
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-integer number %v", ErrUnsupportedType, v)
		}
		return int64(v), nil
	case *big.Int:
		if v == nil {
			return int64(0), nil
		}
		return v, nil
	case []any:
		ret := make([]any, 0, len(v))
		for _, item := range v {
			tmp, err := normalize(item)
			if err != nil {
				return nil, err
			}
			ret = append(ret, tmp)
		}
		return ret, nil
	case []string:
		ret := make([]any, 0, len(v))
		for _, item := range v {
			tmp, err := normalize(item)
			if err != nil {
				return nil, err
			}
			ret = append(ret, tmp)
		}
		return ret, nil
	case map[string]any:
		ret := make(map[string]any, len(v))
		for key, item := range v {
			if len(key) > MaxValueLength {
				return nil, fmt.Errorf("%w: key %q", ErrValueTooLong, key)
			}
			tmp, err := normalize(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			ret[key] = tmp
		}
		return ret, nil
	case map[uint64]any:
		ret := make(map[uint64]any, len(v))
		for key, item := range v {
			tmp, err := normalize(item)
			if err != nil {
				return nil, fmt.Errorf("%d: %w", key, err)
			}
			ret[key] = tmp
		}
		return ret, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, value)
	}
}
