package models

import "time"

// User mirrors an identity-provider account. Rows are created, patched and
// removed only by provider lifecycle webhooks, never by application flows.
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"not null" json:"name"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Enrollment links a user to a course. The composite key makes the link
// duplicate-proof under webhook redelivery.
type Enrollment struct {
	UserID    string    `gorm:"primaryKey" json:"userId"`
	CourseID  string    `gorm:"primaryKey" json:"courseId"`
	CreatedAt time.Time `json:"createdAt"`
}
