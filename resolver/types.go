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

package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by a LedgerQuery when the ledger has no record
// of the requested object
var ErrNotFound = errors.New("not found")

// LedgerQuery is the read-only ledger indexing service used to resolve
// minted assets
type LedgerQuery interface {
	GetTx(ctx context.Context, txHash string) (*TxInfo, error)
	GetTxMetadata(ctx context.Context, txHash string) ([]TxMetadataEntry, error)
	GetTxUtxos(ctx context.Context, txHash string) (*TxUtxos, error)
	GetAssetById(ctx context.Context, unit string) (*AssetInfo, error)
}

// CourseStore provides educator statistics for a course
type CourseStore interface {
	EducatorStatsByCourse(ctx context.Context, courseId string) (*EducatorStats, error)
}

// TxInfo holds the transaction data needed to describe a mint
type TxInfo struct {
	Hash        string
	BlockHash   string
	BlockHeight uint64
	BlockTime   int64
	Slot        uint64
}

// Amount is a quantity of a unit in a transaction output
type Amount struct {
	Unit     string
	Quantity string
}

// TxOutput is a transaction output
type TxOutput struct {
	Address     string
	OutputIndex uint32
	Amount      []Amount
}

// TxUtxos holds the outputs of a transaction
type TxUtxos struct {
	Hash    string
	Outputs []TxOutput
}

// TxMetadataEntry is one label of transaction metadata rendered as JSON
type TxMetadataEntry struct {
	Label        string          `json:"label"`
	JsonMetadata json.RawMessage `json:"json_metadata"`
}

// AssetInfo holds asset details and the metadata attached at mint
type AssetInfo struct {
	Unit              string
	PolicyId          string
	AssetName         string
	Fingerprint       string
	Quantity          string
	InitialMintTxHash string
	OnchainMetadata   map[string]any
}

// CourseRate summarizes ratings and enrollment for one course
type CourseRate struct {
	CourseId      string    `json:"courseId"`
	CourseTitle   string    `json:"courseTitle"`
	TotalVotes    int       `json:"totalVotes"`
	AvgRate       float64   `json:"avgRate"`
	EnrolledCount int       `json:"enrolledCount"`
	Price         int64     `json:"price"`
	Discount      int64     `json:"discount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EducatorStats aggregates an educator's courses
type EducatorStats struct {
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	WalletAddress string       `json:"walletAddress"`
	TotalStudents int          `json:"totalStudents"`
	TotalCourses  int          `json:"totalCourses"`
	Bio           string       `json:"bio"`
	JoinDate      time.Time    `json:"joinDate"`
	LastActive    time.Time    `json:"lastActive"`
	CourseRates   []CourseRate `json:"courseRates"`
}

// MintTransaction locates the minting transaction on chain
type MintTransaction struct {
	TxHash      string `json:"txHash"`
	BlockHeight uint64 `json:"block"`
	BlockTime   int64  `json:"timestamp"`
}

// OnChainAsset is an asset reconstructed from ledger data
type OnChainAsset struct {
	PolicyId          string            `json:"policyId"`
	AssetName         string            `json:"assetName"`
	ReadableAssetName string            `json:"readableAssetName"`
	Unit              string            `json:"unit"`
	Fingerprint       string            `json:"fingerprint"`
	CourseTitle       string            `json:"courseTitle,omitempty"`
	Metadata          map[string]any    `json:"metadata"`
	IsCIP721          bool              `json:"isCip721"`
	TxMetadata        []TxMetadataEntry `json:"txMetadata,omitempty"`
	MintTransaction   MintTransaction   `json:"mintTransaction"`
	Educator          *EducatorStats    `json:"educator,omitempty"`
}
