package models

import "time"

const (
	PurchasePending   = "pending"
	PurchaseCompleted = "completed"
	PurchaseFailed    = "failed"
)

// Purchase records one checkout attempt. Amount is fixed at creation and
// never recomputed; status moves from pending to exactly one terminal
// state. A purchase abandoned at the payment page stays pending forever.
type Purchase struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index;not null" json:"userId"`
	CourseID  string    `gorm:"index;not null" json:"courseId"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Status    string    `gorm:"default:pending" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
