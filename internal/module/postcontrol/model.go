package postcontrol

import (
	"errors"
	"time"
)

var (
	ErrPhotoNotFound = errors.New("postcontrol photo not found")
	// ErrAlreadyResolved means the photo was accepted or declined
	// before and cannot be re-resolved.
	ErrAlreadyResolved = errors.New("postcontrol photo already resolved")
)

// Resolution is the review verdict on a photo.
type Resolution string

const (
	ResolutionPending  Resolution = "pending"
	ResolutionAccepted Resolution = "accepted"
	ResolutionDeclined Resolution = "declined"
)

// Photo is one postcontrol shot a courier took at handover. Photos
// start pending and get accepted or declined by a reviewer.
type Photo struct {
	ID         int64      `json:"id" gorm:"primaryKey"`
	OrderID    int64      `json:"order_id" gorm:"not null;index"`
	CourierID  *int64     `json:"courier_id,omitempty"`
	StorageKey string     `json:"-" gorm:"size:255;not null;uniqueIndex"`
	FileName   string     `json:"file_name" gorm:"size:255"`
	Size       int64      `json:"size"`
	Resolution Resolution `json:"resolution" gorm:"size:20;not null;default:pending"`
	ResolvedBy *int64     `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	Comment    *string    `json:"comment,omitempty" gorm:"size:255"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName returns the database table name.
func (Photo) TableName() string {
	return "postcontrol_photos"
}
