package models

import "time"

type Course struct {
	ID          string  `gorm:"primaryKey" json:"id"`
	Title       string  `gorm:"not null" json:"courseTitle"`
	Description string  `json:"courseDescription"`
	Thumbnail   string  `json:"courseThumbnail"`
	Price       float64 `gorm:"not null" json:"coursePrice"`
	Discount    float64 `gorm:"check:discount >= 0 AND discount <= 100" json:"discount"`
	IsPublished bool    `gorm:"default:false" json:"isPublished"`
	EducatorID  string  `gorm:"index;not null" json:"educatorId"`

	Educator *User          `gorm:"foreignKey:EducatorID" json:"educator,omitempty"`
	Chapters []Chapter      `json:"courseContent"`
	Ratings  []CourseRating `json:"courseRatings"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Chapter struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	CourseID      string    `gorm:"index;not null" json:"-"`
	Title         string    `gorm:"not null" json:"chapterTitle"`
	SequenceOrder int       `json:"chapterOrder"`
	Lectures      []Lecture `json:"chapterContent"`
}

// Lecture is the smallest trackable content unit. URL is the content
// locator and is blanked on public reads unless IsPreviewFree is set.
type Lecture struct {
	ID            string `gorm:"primaryKey" json:"id"`
	ChapterID     string `gorm:"index;not null" json:"-"`
	Title         string `gorm:"not null" json:"lectureTitle"`
	Duration      int    `json:"lectureDuration"`
	URL           string `json:"lectureUrl"`
	IsPreviewFree bool   `json:"isPreviewFree"`
	SequenceOrder int    `json:"lectureOrder"`
}

// CourseRating holds one rating per (course, user); a second submission
// from the same user overwrites the row instead of adding another.
type CourseRating struct {
	CourseID string `gorm:"primaryKey" json:"courseId"`
	UserID   string `gorm:"primaryKey" json:"userId"`
	Rating   int    `gorm:"check:rating >= 1 AND rating <= 5" json:"rating"`
}

// AverageRating is the displayed course rating: floor of the mean, 0 when
// the course has no ratings yet. Always derived at read time.
func AverageRating(ratings []CourseRating) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	return sum / len(ratings)
}
