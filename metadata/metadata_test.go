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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	md := Metadata{
		721: map[string]any{
			"policy": map[string]any{
				"Cabcd": map[string]any{
					"name":  "Intro",
					"price": int64(100),
					"tags":  []any{"a", 2},
				},
			},
		},
		674: map[string]any{"msg": []string{"hello"}},
	}
	data, err := Encode(md)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []uint64{674, 721}, decoded.Labels())
	assert.Equal(t, map[string]any{"msg": []any{"hello"}}, decoded[674])
	assert.Equal(
		t,
		map[string]any{
			"policy": map[string]any{
				"Cabcd": map[string]any{
					"name":  "Intro",
					"price": int64(100),
					"tags":  []any{"a", int64(2)},
				},
			},
		},
		decoded[721],
	)

	// Decoded values encode back to the same bytes
	again, err := Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestDecodeLabel(t *testing.T) {
	wrapped, err := Encode(Metadata{674: "hello", 1: int64(-5)})
	require.NoError(t, err)
	value, err := DecodeLabel(wrapped, 674)
	require.NoError(t, err)
	assert.Equal(t, "hello", value)
	value, err = DecodeLabel(wrapped, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), value)

	// Bare text string "hi"
	value, err = DecodeLabel([]byte{0x62, 0x68, 0x69}, 674)
	require.NoError(t, err)
	assert.Equal(t, "hi", value)

	_, err = DecodeLabel([]byte{0xff}, 674)
	assert.Error(t, err)
}

func TestDecodeKeysAndLargeInts(t *testing.T) {
	// {1: {h'cafe': 18446744073709551615, 7: "x"}}
	data := []byte{
		0xa1, 0x01, 0xa2,
		0x42, 0xca, 0xfe,
		0x1b, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0x07, 0x61, 0x78,
	}
	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(
		t,
		map[string]any{"cafe": "18446744073709551615", "7": "x"},
		decoded[1],
	)
}

func TestJSON(t *testing.T) {
	out, err := JSON(map[string]any{
		"hash": []byte{0xde, 0xad},
		"list": []any{int64(1), []byte{0x01}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"hash":"dead","list":[1,"01"]}`, string(out))
}

func TestEncodeIsDeterministic(t *testing.T) {
	md := Metadata{
		721: map[string]any{"b": "2", "a": "1", "c": "3", "d": "4"},
	}
	first, err := Encode(md)
	require.NoError(t, err)
	for range 10 {
		again, err := Encode(md)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEncodeRejectsInvalidValues(t *testing.T) {
	_, err := Encode(Metadata{1: strings.Repeat("x", 65)})
	require.ErrorIs(t, err, ErrValueTooLong)

	_, err = Encode(Metadata{1: map[string]any{"ok": 1.5}})
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Encode(Metadata{1: struct{}{}})
	require.ErrorIs(t, err, ErrUnsupportedType)

	// Exactly 64 bytes is allowed
	_, err = Encode(Metadata{1: strings.Repeat("x", 64)})
	require.NoError(t, err)
}

func TestDecodeInvalid(t *testing.T) {
	decoded, err := Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, decoded)

	// CBOR text string, not a map
	_, err = Decode([]byte{0x61, 0x61})
	assert.Error(t, err)
}
