package models

import (
	"time"

	"gorm.io/datatypes"
)

// CourseProgress tracks which lectures a user has completed in a course.
// At most one row per (user, course), created lazily on the first
// completion. Whether the course as a whole is completed is derived at
// read time against the current lecture count, never stored.
type CourseProgress struct {
	UserID           string                      `gorm:"primaryKey" json:"userId"`
	CourseID         string                      `gorm:"primaryKey" json:"courseId"`
	LectureCompleted datatypes.JSONSlice[string] `json:"lectureCompleted"`
	CreatedAt        time.Time                   `json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

// HasLecture reports whether the lecture is already in the completed set.
func (p *CourseProgress) HasLecture(lectureID string) bool {
	for _, id := range p.LectureCompleted {
		if id == lectureID {
			return true
		}
	}
	return false
}
