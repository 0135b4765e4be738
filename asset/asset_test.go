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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "addr_test1qz2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzer3jcu5d8ps7zex2k2xt3uqxgjqnnj83ws8lhrn648jjxtwq2ytjqp"

func testRequest() CertificateRequest {
	return CertificateRequest{
		StudentName:     "Alice",
		StudentId:       "student-1",
		CourseId:        "abcd1234",
		CourseTitle:     "Intro",
		EducatorName:    "Bob",
		EducatorAddress: testAddress,
		CreatedAt:       time.Unix(1690000000, 0),
		Price:           100,
		Discount:        10,
	}
}

func TestEncodeAssetName(t *testing.T) {
	at := time.Unix(1700000000, 0)
	id, _, err := Encode(testRequest(), at)
	require.NoError(t, err)
	assert.Equal(t, "Cabcds44we8", id.Name)
	assert.Equal(t, "4361626364733434776538", id.NameHex)
	assert.True(t, strings.HasPrefix(id.Name, "Cabcd"))
}

func TestEncodeIsDeterministicWithinSecond(t *testing.T) {
	at := time.Unix(1700000000, 0)
	id1, meta1, err := Encode(testRequest(), at)
	require.NoError(t, err)
	id2, meta2, err := Encode(
		testRequest(),
		at.Add(900*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Equal(t, meta1, meta2)

	// A different second yields a different name
	id3, _, err := Encode(testRequest(), at.Add(time.Second))
	require.NoError(t, err)
	assert.NotEqual(t, id1.Name, id3.Name)
}

func TestEncodeAssetNameLength(t *testing.T) {
	courseIds := []string{
		"a",
		"abcd",
		"abcdefghijklmnopqrstuvwxyz0123456789",
		"ééééééé",
		strings.Repeat("x", 500),
	}
	times := []time.Time{
		time.Unix(0, 0),
		time.Unix(1700000000, 0),
		time.Unix(1<<62, 0),
	}
	for _, courseId := range courseIds {
		for _, at := range times {
			req := testRequest()
			req.CourseId = courseId
			id, _, err := Encode(req, at)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(id.Name), MaxAssetNameLength)
			assert.True(t, strings.HasPrefix(id.Name, "C"))
		}
	}
}

func TestEncodeTruncatesMetadata(t *testing.T) {
	req := testRequest()
	req.CourseTitle = strings.Repeat("T", 200)
	req.CourseId = strings.Repeat("c", 40)
	_, meta, err := Encode(req, time.Unix(1700000000, 0))
	require.NoError(t, err)
	assert.Len(t, meta.Simple.Name, MaxMetadataStringLength)
	assert.Len(t, meta.CIP721.Attributes.Name, MaxMetadataStringLength)
	assert.Len(t, meta.CIP721.Attributes.CourseTitle, MaxMetadataStringLength)
	assert.Len(t, meta.Simple.Properties.Id, MaxCourseIdLength)
	assert.Len(t, meta.CIP721.Attributes.CourseId, MaxCourseIdLength)
}

func TestEncodeMetadataFields(t *testing.T) {
	at := time.Unix(1700000000, 0)
	id, meta, err := Encode(testRequest(), at)
	require.NoError(t, err)
	assert.Equal(t, "Intro", meta.Simple.Name)
	assert.Equal(t, PlaceholderImage, meta.Simple.Image)
	assert.Equal(t, DefaultMediaType, meta.Simple.MediaType)
	assert.Equal(t, testAddress[:8]+"..."+testAddress[len(testAddress)-8:], meta.Simple.Properties.Creator)
	assert.Equal(t, int64(1690000000), meta.Simple.Properties.Created)
	assert.Equal(t, int64(100), meta.Simple.Properties.Price)
	assert.Equal(t, int64(10), meta.Simple.Properties.Discount)
	assert.Equal(t, id.Name, meta.CIP721.AssetName)
	assert.Empty(t, meta.CIP721.PolicyId)

	// Zero creation time falls back to the mint time
	req := testRequest()
	req.CreatedAt = time.Time{}
	_, meta, err = Encode(req, at)
	require.NoError(t, err)
	assert.Equal(t, at.Unix(), meta.Simple.Properties.Created)
}

func TestEncodeValidation(t *testing.T) {
	testDefs := []struct {
		field  string
		mutate func(*CertificateRequest)
	}{
		{"studentName", func(r *CertificateRequest) { r.StudentName = "" }},
		{"courseId", func(r *CertificateRequest) { r.CourseId = "" }},
		{"courseTitle", func(r *CertificateRequest) { r.CourseTitle = "" }},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.field, func(t *testing.T) {
			req := testRequest()
			testDef.mutate(&req)
			_, _, err := Encode(req, time.Now())
			require.Error(t, err)
			var vErr ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, testDef.field, vErr.Field)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "abcde", Truncate("abcdefgh", 5))
	// Multi-byte characters are never split
	assert.Equal(t, "é", Truncate("éé", 3))
	assert.Equal(t, "", Truncate("é", 1))
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "", ShortAddress(""))
	assert.Equal(t, "short", ShortAddress("short"))
	assert.Equal(
		t,
		testAddress[:8]+"..."+testAddress[len(testAddress)-8:],
		ShortAddress(testAddress),
	)
	assert.Len(t, ShortAddress(testAddress), 19)
}

func TestMetadataWithPolicyAndImage(t *testing.T) {
	_, meta, err := Encode(testRequest(), time.Unix(1700000000, 0))
	require.NoError(t, err)
	policyId := strings.Repeat("ab", 28)
	bound := meta.WithPolicy(policyId).WithImage("QmHash")
	assert.Equal(t, policyId, bound.CIP721.PolicyId)
	assert.Equal(t, "QmHash", bound.Simple.Image)
	assert.Equal(t, "QmHash", bound.CIP721.Attributes.Image)
	// Original is unchanged
	assert.Equal(t, PlaceholderImage, meta.Simple.Image)

	doc := bound.Document()
	assert.Equal(t, "Intro", doc["name"])
	nested, ok := doc["721"].(map[string]any)
	require.True(t, ok)
	byName, ok := nested[policyId].(map[string]any)
	require.True(t, ok)
	attrs, ok := byName[meta.CIP721.AssetName].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "abcd1234", attrs["courseId"])
	assert.Equal(t, "QmHash", attrs["image"])
}
