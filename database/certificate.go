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

package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blinklabs-io/credmint/database/models"
)

// PendingTransaction marks a certificate whose mint has not been submitted
const PendingTransaction = "pending"

// ListOptions selects a page of results
type ListOptions struct {
	Count      int
	Page       int
	Descending bool
}

func prepareCertificate(cert *models.Certificate) {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.TransactionHash == "" {
		cert.TransactionHash = PendingTransaction
	}
}

// SaveCertificate stores a certificate record, assigning an id if unset
func (d *Database) SaveCertificate(
	ctx context.Context,
	cert *models.Certificate,
) error {
	prepareCertificate(cert)
	return d.db.WithContext(ctx).Create(cert).Error
}

// SaveCertificates stores certificate records from a batch mint in a
// single transaction
func (d *Database) SaveCertificates(
	ctx context.Context,
	certs []models.Certificate,
) error {
	if len(certs) == 0 {
		return nil
	}
	for i := range certs {
		prepareCertificate(&certs[i])
	}
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(certs, 100).Error
	})
}

// GetCertificateByTx returns the first certificate minted in txHash
func (d *Database) GetCertificateByTx(
	ctx context.Context,
	txHash string,
) (*models.Certificate, error) {
	var ret models.Certificate
	result := d.db.WithContext(ctx).
		Where("transaction_hash = ?", txHash).
		Order("created_at asc").
		First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}

// UpdateCertificatePolicy sets the minting policy of a stored certificate
// and returns the updated record
func (d *Database) UpdateCertificatePolicy(
	ctx context.Context,
	certificateId string,
	policyId string,
) (*models.Certificate, error) {
	var ret models.Certificate
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Certificate{}).
			Where("id = ?", certificateId).
			Update("policy_id", policyId)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCertificateNotFound
		}
		return tx.Where("id = ?", certificateId).First(&ret).Error
	})
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// GetCertificate returns the newest certificate for a user and course
func (d *Database) GetCertificate(
	ctx context.Context,
	userId string,
	courseId string,
) (*models.Certificate, error) {
	var ret models.Certificate
	result := d.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userId, courseId).
		Order("created_at desc").
		First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}

// ListCertificates returns a page of a user's certificates ordered by
// creation time and the total number of certificates the user holds
func (d *Database) ListCertificates(
	ctx context.Context,
	userId string,
	opts ListOptions,
) ([]models.Certificate, int64, error) {
	if opts.Count < 1 {
		opts.Count = 100
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	db := d.db.WithContext(ctx).
		Model(&models.Certificate{}).
		Where("user_id = ?", userId).
		Session(&gorm.Session{})
	var total int64
	if result := db.Count(&total); result.Error != nil {
		return nil, 0, result.Error
	}
	order := "created_at asc, id asc"
	if opts.Descending {
		order = "created_at desc, id desc"
	}
	var ret []models.Certificate
	result := db.Order(order).
		Limit(opts.Count).
		Offset((opts.Page - 1) * opts.Count).
		Find(&ret)
	if result.Error != nil {
		return nil, 0, result.Error
	}
	return ret, total, nil
}
