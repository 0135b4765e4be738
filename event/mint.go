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

package event

const (
	CertificateProcessedEventType EventType = "certificate.processed"
	MintAssembledEventType        EventType = "mint.assembled"
	CertificatesSavedEventType    EventType = "certificates.saved"
)

// CertificateProcessedEvent reports the outcome of one batch item
type CertificateProcessedEvent struct {
	Index     int
	StudentId string
	CourseId  string
	AssetName string
	ImageRef  string
	// Error is empty when the item succeeded
	Error string
}

// MintAssembledEvent is published once an unsigned mint transaction is built
type MintAssembledEvent struct {
	TxHash    string
	PolicyId  string
	Fee       uint64
	Assets    int
	Failed    int
	Recipient string
}

// CertificatesSavedEvent is published after certificate records are stored
type CertificatesSavedEvent struct {
	TxHash string
	Count  int
}
