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
	"strings"
	"testing"

	"github.com/blinklabs-io/credmint/asset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUTxOs(t *testing.T) {
	policyId := strings.Repeat("ab", 28)
	data := []byte(`[
		{
			"input": {"txHash": "` + strings.Repeat("aa", 32) + `", "outputIndex": 2},
			"output": {
				"address": "addr_test1xyz",
				"amount": [
					{"unit": "lovelace", "quantity": "5000000"},
					{"unit": "` + policyId + `4e4654", "quantity": "1"}
				]
			}
		}
	]`)
	inputs, err := ParseUTxOs(data)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, uint32(2), inputs[0].Index)
	assert.Equal(t, uint64(5000000), inputs[0].Lovelace)
	require.Len(t, inputs[0].Assets, 1)
	assert.Equal(t, policyId, inputs[0].Assets[0].PolicyId)
	assert.Equal(t, "4e4654", inputs[0].Assets[0].NameHex)
}

func TestParseUTxOsInvalid(t *testing.T) {
	testDefs := []string{
		`not json`,
		`[{"input": {"outputIndex": 0}, "output": {}}]`,
		`[{"input": {"txHash": "aa"}, "output": {"amount": [{"unit": "lovelace", "quantity": "x"}]}}]`,
		`[{"input": {"txHash": "aa"}, "output": {"amount": [{"unit": "abc", "quantity": "1"}]}}]`,
	}
	for _, data := range testDefs {
		_, err := ParseUTxOs([]byte(data))
		require.Error(t, err)
		assert.True(t, asset.IsValidationError(err), data)
	}
}
