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

// Properties is the properties block of the wallet-facing metadata
type Properties struct {
	Id       string `json:"id"`
	Creator  string `json:"creator"`
	Created  int64  `json:"created"`
	Price    int64  `json:"price"`
	Discount int64  `json:"discount"`
}

// SimpleMetadata is the flat metadata shape read by wallets that do not
// understand the nested CIP-25 layout
type SimpleMetadata struct {
	Name       string     `json:"name"`
	Image      string     `json:"image"`
	MediaType  string     `json:"mediaType"`
	Properties Properties `json:"properties"`
}

// CIP721Attributes are the per-asset attributes in the nested metadata block
type CIP721Attributes struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	MediaType   string `json:"mediaType"`
	CourseId    string `json:"courseId"`
	CourseTitle string `json:"courseTitle"`
	Creator     string `json:"creator"`
	Price       int64  `json:"price"`
	Discount    int64  `json:"discount"`
}

// CIP721Metadata is the nested policy -> asset name -> attributes form.
// PolicyId is empty until the minting policy is known.
type CIP721Metadata struct {
	PolicyId   string           `json:"policyId"`
	AssetName  string           `json:"assetName"`
	Attributes CIP721Attributes `json:"attributes"`
}

// Nested returns the metadata keyed by policy id and asset name
func (m CIP721Metadata) Nested() map[string]any {
	return map[string]any{
		m.PolicyId: map[string]any{
			m.AssetName: m.Attributes.document(),
		},
	}
}

func (a CIP721Attributes) document() map[string]any {
	return map[string]any{
		"name":        a.Name,
		"image":       a.Image,
		"mediaType":   a.MediaType,
		"courseId":    a.CourseId,
		"courseTitle": a.CourseTitle,
		"creator":     a.Creator,
		"price":       a.Price,
		"discount":    a.Discount,
	}
}

// CertificateMetadata carries both metadata shapes for one asset so that
// naive and standards-aware viewers display the same certificate
type CertificateMetadata struct {
	Simple SimpleMetadata `json:"simple"`
	CIP721 CIP721Metadata `json:"cip721"`
}

// WithPolicy returns a copy of the metadata bound to the given policy id
func (m CertificateMetadata) WithPolicy(policyId string) CertificateMetadata {
	m.CIP721.PolicyId = policyId
	return m
}

// WithImage returns a copy of the metadata with the image reference replaced
// in both shapes
func (m CertificateMetadata) WithImage(ref string) CertificateMetadata {
	ref = Truncate(ref, MaxMetadataStringLength)
	m.Simple.Image = ref
	m.CIP721.Attributes.Image = ref
	return m
}

// Document returns the asset-level metadata document placed under
// label 721 -> policy id -> asset name
func (m CertificateMetadata) Document() map[string]any {
	return map[string]any{
		"name":      m.Simple.Name,
		"image":     m.Simple.Image,
		"mediaType": m.Simple.MediaType,
		"properties": map[string]any{
			"id":       m.Simple.Properties.Id,
			"creator":  m.Simple.Properties.Creator,
			"created":  m.Simple.Properties.Created,
			"price":    m.Simple.Properties.Price,
			"discount": m.Simple.Properties.Discount,
		},
		"721": m.CIP721.Nested(),
	}
}
