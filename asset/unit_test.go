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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitUnit(t *testing.T) {
	policyId := strings.Repeat("1f", 28)
	policy, name, err := SplitUnit(policyId + "4361626364")
	require.NoError(t, err)
	assert.Equal(t, policyId, policy)
	assert.Equal(t, "4361626364", name)
	assert.Equal(t, policyId+"4361626364", Unit(policy, name))

	policy, name, err = SplitUnit(policyId)
	require.NoError(t, err)
	assert.Equal(t, policyId, policy)
	assert.Empty(t, name)

	_, _, err = SplitUnit("lovelace")
	assert.ErrorIs(t, err, ErrInvalidUnit)
	_, _, err = SplitUnit(strings.Repeat("z", 60))
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

func TestFingerprint(t *testing.T) {
	fp, err := Fingerprint(
		"7eae28af2208be856f7a119668ae52a49b73725e326dc16579dcc373",
		"",
	)
	require.NoError(t, err)
	assert.Equal(t, "asset1rjklcrnsdzqp65wjgrg55sy9723kw09mlgvlc3", fp)

	_, err = Fingerprint("zz", "")
	assert.Error(t, err)
}

func TestReadableName(t *testing.T) {
	assert.Equal(t, "Cabcds44we8", ReadableName("4361626364733434776538"))
	assert.Equal(t, "00ff", ReadableName("00ff"))
	assert.Equal(t, "nothex", ReadableName("nothex"))
}
