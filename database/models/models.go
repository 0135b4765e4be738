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

package models

import "time"

// Educator is a course author
type Educator struct {
	ID            string `gorm:"primaryKey;size:64"`
	Name          string
	Email         string
	WalletAddress string
	Bio           string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Educator) TableName() string {
	return "educator"
}

// Course is a published course owned by an educator. TxHash is the mint
// transaction of the course's certificate asset, once known.
type Course struct {
	ID             string `gorm:"primaryKey;size:64"`
	EducatorID     string `gorm:"index;size:64"`
	Title          string
	Price          int64
	Discount       int64
	CreatorAddress string
	TxHash         string `gorm:"size:64"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Course) TableName() string {
	return "course"
}

// CourseRating is a single 1-5 rating left by a student
type CourseRating struct {
	ID       uint   `gorm:"primarykey"`
	CourseID string `gorm:"uniqueIndex:uniq_course_rating;size:64"`
	UserID   string `gorm:"uniqueIndex:uniq_course_rating;size:64"`
	Rating   int
}

func (CourseRating) TableName() string {
	return "course_rating"
}

// Enrollment records a student enrolled in a course
type Enrollment struct {
	ID        uint   `gorm:"primarykey"`
	CourseID  string `gorm:"uniqueIndex:uniq_enrollment;size:64"`
	UserID    string `gorm:"uniqueIndex:uniq_enrollment;size:64"`
	CreatedAt time.Time
}

func (Enrollment) TableName() string {
	return "enrollment"
}

// Certificate is the off-chain record of an issued certificate
type Certificate struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	UserID          string    `gorm:"index:idx_cert_user_course;size:64" json:"userId"`
	CourseID        string    `gorm:"index:idx_cert_user_course;size:64" json:"courseId"`
	CertificateUrl  string    `json:"certificateUrl"`
	TransactionHash string    `gorm:"index;size:64" json:"transactionHash"`
	PolicyId        string    `gorm:"size:56" json:"policyId"`
	AssetName       string    `gorm:"size:64" json:"assetName"`
	IssuedBy        string    `gorm:"size:64" json:"issuedBy"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (Certificate) TableName() string {
	return "certificate"
}

// MigrateModels lists the models with tables created at startup
var MigrateModels = []any{
	&Educator{},
	&Course{},
	&CourseRating{},
	&Enrollment{},
	&Certificate{},
}
