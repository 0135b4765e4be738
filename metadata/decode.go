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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"

	fxcbor "github.com/fxamacker/cbor/v2"
)

var decMode fxcbor.DecMode

func init() {
	var err error
	decMode, err = fxcbor.DecOptions{
		BigIntDec: fxcbor.BigIntDecodePointer,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("metadata: CBOR decoding mode: %s", err))
	}
}

// Decode parses transaction metadata CBOR back into the value shapes Encode
// accepts. Integers come back as int64, or as a decimal string when they do
// not fit. Map keys are always strings.
func Decode(data []byte) (Metadata, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw any
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	labelMap, ok := raw.(map[any]any)
	if !ok {
		return nil, fmt.Errorf("decode metadata: expected label map, got %T", raw)
	}
	ret := make(Metadata, len(labelMap))
	for key, value := range labelMap {
		label, err := toLabel(key)
		if err != nil {
			return nil, err
		}
		tmp, err := fromCbor(value)
		if err != nil {
			return nil, fmt.Errorf("metadata label %d: %w", label, err)
		}
		ret[label] = tmp
	}
	return ret, nil
}

// DecodeLabel returns the value for label. The input is either a full label
// map containing it or the bare value.
func DecodeLabel(data []byte, label uint64) (any, error) {
	if md, err := Decode(data); err == nil {
		if value, ok := md[label]; ok {
			return value, nil
		}
	}
	var raw any
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode metadata label %d: %w", label, err)
	}
	return fromCbor(raw)
}

// JSON renders a decoded value with byte strings as hex
func JSON(value any) (json.RawMessage, error) {
	return json.Marshal(jsonSafe(value))
}

func toLabel(key any) (uint64, error) {
	switch k := key.(type) {
	case uint64:
		return k, nil
	case int64:
		if k >= 0 {
			return uint64(k), nil
		}
	}
	return 0, fmt.Errorf("invalid metadata label: %v", key)
}

func fromCbor(value any) (any, error) {
	switch v := value.(type) {
	case string, []byte, int64:
		return v, nil
	case uint64:
		if v > math.MaxInt64 {
			return strconv.FormatUint(v, 10), nil
		}
		return int64(v), nil
	case *big.Int:
		if v.IsInt64() {
			return v.Int64(), nil
		}
		return v.String(), nil
	case []any:
		ret := make([]any, 0, len(v))
		for _, item := range v {
			tmp, err := fromCbor(item)
			if err != nil {
				return nil, err
			}
			ret = append(ret, tmp)
		}
		return ret, nil
	case map[any]any:
		ret := make(map[string]any, len(v))
		for key, item := range v {
			name, err := keyString(key)
			if err != nil {
				return nil, err
			}
			tmp, err := fromCbor(item)
			if err != nil {
				return nil, err
			}
			ret[name] = tmp
		}
		return ret, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, value)
	}
}

func keyString(key any) (string, error) {
	switch k := key.(type) {
	case string:
		return k, nil
	case fxcbor.ByteString:
		return hex.EncodeToString(k.Bytes()), nil
	case uint64:
		return strconv.FormatUint(k, 10), nil
	case int64:
		return strconv.FormatInt(k, 10), nil
	case *big.Int:
		return k.String(), nil
	default:
		return "", fmt.Errorf("%w: map key %T", ErrUnsupportedType, key)
	}
}

func jsonSafe(value any) any {
	switch v := value.(type) {
	case []byte:
		return hex.EncodeToString(v)
	case []any:
		ret := make([]any, len(v))
		for i, item := range v {
			ret[i] = jsonSafe(item)
		}
		return ret
	case map[string]any:
		ret := make(map[string]any, len(v))
		for key, item := range v {
			ret[key] = jsonSafe(item)
		}
		return ret
	default:
		return v
	}
}
