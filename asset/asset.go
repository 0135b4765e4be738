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
	"strconv"
	"time"
	"unicode/utf8"
)

const (
	// MaxAssetNameLength is the asset name budget in characters
	MaxAssetNameLength = 16
	// MaxMetadataStringLength is the ledger limit for a metadata text value
	MaxMetadataStringLength = 64
	// MaxCourseIdLength is the length of the course id kept in metadata properties
	MaxCourseIdLength = 16
	// PolicyIdHexLength is the hex length of a policy id (28 bytes)
	PolicyIdHexLength = 56
	// MetadataLabel is the transaction metadata label for NFT metadata
	MetadataLabel = 721

	// PlaceholderImage is used until an upload reference is known
	PlaceholderImage = "bafkreib2xqvtrkgzsivinihbasxl5qghmswa3x7pjy4kzllkgs7pra6mde"
	DefaultMediaType = "image/png"

	assetNamePrefix      = "C"
	courseIdFragmentLen  = 4
	creatorDisplayAffix  = 8
	creatorDisplaySep    = "..."
	timestampNumericBase = 36
)

// CertificateRequest describes a single course completion to be certified
type CertificateRequest struct {
	StudentName     string    `json:"studentName"`
	StudentId       string    `json:"studentId"`
	CourseId        string    `json:"courseId"`
	CourseTitle     string    `json:"courseTitle"`
	EducatorName    string    `json:"educatorName"`
	EducatorAddress string    `json:"educatorAddress"`
	CreatedAt       time.Time `json:"createdAt"`
	Price           int64     `json:"price"`
	Discount        int64     `json:"discount"`
}

// Validate checks that the fields needed to encode a certificate are present
func (r CertificateRequest) Validate() error {
	switch {
	case r.StudentName == "":
		return ValidationError{Field: "studentName"}
	case r.CourseId == "":
		return ValidationError{Field: "courseId"}
	case r.CourseTitle == "":
		return ValidationError{Field: "courseTitle"}
	}
	return nil
}

// AssetIdentity is the asset name and its hex encoding as used on the ledger
type AssetIdentity struct {
	Name    string `json:"assetName"`
	NameHex string `json:"assetNameHex"`
}

// Encode derives the asset identity and metadata for a certificate minted at
// the given time. The result depends only on the request and the second of
// the mint time: two requests for the same course id prefix encoded within
// the same second produce the same asset name.
func Encode(
	req CertificateRequest,
	at time.Time,
) (AssetIdentity, CertificateMetadata, error) {
	if err := req.Validate(); err != nil {
		return AssetIdentity{}, CertificateMetadata{}, err
	}
	id := NewAssetIdentity(req.CourseId, at)
	created := req.CreatedAt
	if created.IsZero() {
		created = at
	}
	creator := ShortAddress(req.EducatorAddress)
	title := Truncate(req.CourseTitle, MaxMetadataStringLength)
	courseId := Truncate(req.CourseId, MaxCourseIdLength)
	meta := CertificateMetadata{
		Simple: SimpleMetadata{
			Name:      title,
			Image:     PlaceholderImage,
			MediaType: DefaultMediaType,
			Properties: Properties{
				Id:       courseId,
				Creator:  creator,
				Created:  created.Unix(),
				Price:    req.Price,
				Discount: req.Discount,
			},
		},
		CIP721: CIP721Metadata{
			AssetName: id.Name,
			Attributes: CIP721Attributes{
				Name:        title,
				Image:       PlaceholderImage,
				MediaType:   DefaultMediaType,
				CourseId:    courseId,
				CourseTitle: title,
				Creator:     creator,
				Price:       req.Price,
				Discount:    req.Discount,
			},
		},
	}
	return id, meta, nil
}

// NewAssetIdentity builds "C" + first 4 characters of the course id + the
// base-36 unix time in seconds, cut to MaxAssetNameLength
func NewAssetIdentity(courseId string, at time.Time) AssetIdentity {
	name := assetNamePrefix +
		prefixRunes(courseId, courseIdFragmentLen) +
		strconv.FormatInt(at.Unix(), timestampNumericBase)
	name = Truncate(name, MaxAssetNameLength)
	return AssetIdentity{
		Name:    name,
		NameHex: hex.EncodeToString([]byte(name)),
	}
}

// ShortAddress returns the first and last 8 characters of an address joined
// by an ellipsis
func ShortAddress(addr string) string {
	if len(addr) <= 2*creatorDisplayAffix+len(creatorDisplaySep) {
		return addr
	}
	return addr[:creatorDisplayAffix] +
		creatorDisplaySep +
		addr[len(addr)-creatorDisplayAffix:]
}

// Truncate cuts s to at most maxLen bytes without splitting a UTF-8 sequence.
// It never fails: values over the limit would make the transaction invalid.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func prefixRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
