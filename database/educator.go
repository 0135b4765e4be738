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
	"fmt"
	"math"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blinklabs-io/credmint/asset"
	"github.com/blinklabs-io/credmint/database/models"
	"github.com/blinklabs-io/credmint/resolver"
)

// SaveEducator creates or updates an educator
func (d *Database) SaveEducator(
	ctx context.Context,
	educator *models.Educator,
) error {
	return d.db.WithContext(ctx).Save(educator).Error
}

// SaveCourse creates or updates a course
func (d *Database) SaveCourse(
	ctx context.Context,
	course *models.Course,
) error {
	return d.db.WithContext(ctx).Save(course).Error
}

// AddEnrollment enrolls a user in a course. Repeat enrollments are ignored
func (d *Database) AddEnrollment(
	ctx context.Context,
	courseId string,
	userId string,
) error {
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Enrollment{CourseID: courseId, UserID: userId}).
		Error
}

// AddRating records a user's rating of a course, replacing an earlier one
func (d *Database) AddRating(
	ctx context.Context,
	courseId string,
	userId string,
	rating int,
) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating out of range: %d", rating)
	}
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "course_id"},
				{Name: "user_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"rating"}),
		}).
		Create(&models.CourseRating{
			CourseID: courseId,
			UserID:   userId,
			Rating:   rating,
		}).
		Error
}

// GetCourse returns a course by its full or metadata-truncated id
func (d *Database) GetCourse(
	ctx context.Context,
	courseId string,
) (*models.Course, error) {
	return d.findCourse(ctx, courseId)
}

// findCourse looks up a course by id. Ids read back from token metadata
// may have been cut to the metadata course id length, so a full-length
// truncated id falls back to a prefix match
func (d *Database) findCourse(
	ctx context.Context,
	courseId string,
) (*models.Course, error) {
	var course models.Course
	result := d.db.WithContext(ctx).
		Where("id = ?", courseId).
		First(&course)
	if result.Error == nil {
		return &course, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}
	if len(courseId) != asset.MaxCourseIdLength {
		return nil, ErrCourseNotFound
	}
	result = d.db.WithContext(ctx).
		Where("id LIKE ?", courseId+"%").
		Order("created_at asc").
		First(&course)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, result.Error
	}
	return &course, nil
}

type courseRatingAgg struct {
	CourseID string
	Votes    int
	Total    int64
}

type courseEnrollmentAgg struct {
	CourseID string
	Count    int
}

// EducatorStatsByCourse aggregates the courses, ratings and students of
// the educator owning courseId
func (d *Database) EducatorStatsByCourse(
	ctx context.Context,
	courseId string,
) (*resolver.EducatorStats, error) {
	course, err := d.findCourse(ctx, courseId)
	if err != nil {
		return nil, err
	}
	db := d.db.WithContext(ctx)
	var educator models.Educator
	if result := db.Where("id = ?", course.EducatorID).First(&educator); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf(
				"%w: no educator for course %s",
				ErrCourseNotFound,
				course.ID,
			)
		}
		return nil, result.Error
	}
	var courses []models.Course
	if result := db.Where("educator_id = ?", educator.ID).
		Order("created_at asc").
		Find(&courses); result.Error != nil {
		return nil, result.Error
	}
	courseIds := make([]string, 0, len(courses))
	for _, tmpCourse := range courses {
		courseIds = append(courseIds, tmpCourse.ID)
	}
	var ratings []courseRatingAgg
	if result := db.Model(&models.CourseRating{}).
		Select("course_id, count(*) as votes, sum(rating) as total").
		Where("course_id IN ?", courseIds).
		Group("course_id").
		Scan(&ratings); result.Error != nil {
		return nil, result.Error
	}
	var enrollments []courseEnrollmentAgg
	if result := db.Model(&models.Enrollment{}).
		Select("course_id, count(*) as count").
		Where("course_id IN ?", courseIds).
		Group("course_id").
		Scan(&enrollments); result.Error != nil {
		return nil, result.Error
	}
	var totalStudents int64
	if result := db.Model(&models.Enrollment{}).
		Distinct("user_id").
		Where("course_id IN ?", courseIds).
		Count(&totalStudents); result.Error != nil {
		return nil, result.Error
	}
	ratingsByCourse := make(map[string]courseRatingAgg, len(ratings))
	for _, rating := range ratings {
		ratingsByCourse[rating.CourseID] = rating
	}
	enrolledByCourse := make(map[string]int, len(enrollments))
	for _, enrollment := range enrollments {
		enrolledByCourse[enrollment.CourseID] = enrollment.Count
	}
	ret := &resolver.EducatorStats{
		Name:          educator.Name,
		Email:         educator.Email,
		WalletAddress: educator.WalletAddress,
		TotalStudents: int(totalStudents),
		TotalCourses:  len(courses),
		Bio:           educator.Bio,
		JoinDate:      educator.CreatedAt,
		LastActive:    educator.UpdatedAt,
		CourseRates:   make([]resolver.CourseRate, 0, len(courses)),
	}
	for _, tmpCourse := range courses {
		rating := ratingsByCourse[tmpCourse.ID]
		ret.CourseRates = append(
			ret.CourseRates,
			resolver.CourseRate{
				CourseId:      tmpCourse.ID,
				CourseTitle:   tmpCourse.Title,
				TotalVotes:    rating.Votes,
				AvgRate:       averageRate(rating.Total, rating.Votes),
				EnrolledCount: enrolledByCourse[tmpCourse.ID],
				Price:         tmpCourse.Price,
				Discount:      tmpCourse.Discount,
				CreatedAt:     tmpCourse.CreatedAt,
			},
		)
	}
	return ret, nil
}

// averageRate rounds to two decimal places
func averageRate(total int64, votes int) float64 {
	if votes == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(votes)*100) / 100
}
