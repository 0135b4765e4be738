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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/credmint/asset"
	"github.com/blinklabs-io/credmint/metadata"
	"github.com/blinklabs-io/credmint/mint"
)

type encodeFlags struct {
	request  asset.CertificateRequest
	image    string
	policyId string
	at       string
}

type encodeOutput struct {
	AssetName    string         `json:"assetName"`
	AssetNameHex string         `json:"assetNameHex"`
	PolicyId     string         `json:"policyId,omitempty"`
	Metadata     map[string]any `json:"metadata"`
	MetadataCbor string         `json:"metadataCbor,omitempty"`
}

// encodeRun prints the asset identity and label 721 metadata for one
// certificate without touching the network
func encodeRun(out io.Writer, flags encodeFlags, now time.Time) error {
	at := now
	if flags.at != "" {
		parsed, err := time.Parse(time.RFC3339, flags.at)
		if err != nil {
			return fmt.Errorf("invalid --at value: %w", err)
		}
		at = parsed
	}
	id, meta, err := asset.Encode(flags.request, at)
	if err != nil {
		return err
	}
	if flags.image != "" {
		meta = meta.WithImage(flags.image)
	}
	policyId := flags.policyId
	if policyId == "" && flags.request.EducatorAddress != "" {
		policy, err := mint.PolicyFromAddress(flags.request.EducatorAddress)
		if err != nil {
			return err
		}
		policyId = policy.PolicyId
	}
	result := encodeOutput{
		AssetName:    id.Name,
		AssetNameHex: id.NameHex,
		PolicyId:     policyId,
		Metadata:     meta.Document(),
	}
	if policyId != "" {
		meta = meta.WithPolicy(policyId)
		cborData, err := metadata.Encode(
			metadata.Metadata{
				asset.MetadataLabel: map[string]any{
					policyId: map[string]any{
						id.Name: meta.Document(),
					},
				},
			},
		)
		if err != nil {
			return err
		}
		result.Metadata = meta.Document()
		result.MetadataCbor = fmt.Sprintf("%x", cborData)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func encodeCommand() *cobra.Command {
	flags := encodeFlags{}
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Print the asset name and metadata for a certificate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return encodeRun(cmd.OutOrStdout(), flags, time.Now())
		},
	}
	cmd.Flags().StringVar(&flags.request.StudentName, "student", "", "student name")
	cmd.Flags().StringVar(&flags.request.StudentId, "student-id", "", "student id")
	cmd.Flags().StringVar(&flags.request.CourseId, "course-id", "", "course id")
	cmd.Flags().StringVar(&flags.request.CourseTitle, "course-title", "", "course title")
	cmd.Flags().StringVar(&flags.request.EducatorName, "educator", "", "educator name")
	cmd.Flags().StringVar(&flags.request.EducatorAddress, "educator-address", "", "educator wallet address")
	cmd.Flags().Int64Var(&flags.request.Price, "price", 0, "course price")
	cmd.Flags().Int64Var(&flags.request.Discount, "discount", 0, "course discount")
	cmd.Flags().StringVar(&flags.image, "image", "", "uploaded image reference")
	cmd.Flags().StringVar(&flags.policyId, "policy-id", "", "policy id, derived from --educator-address when empty")
	cmd.Flags().StringVar(&flags.at, "at", "", "mint time in RFC3339 format, defaults to now")
	return cmd
}
