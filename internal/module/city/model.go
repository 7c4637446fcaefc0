package city

import (
	"time"
)

// City represents a city a partner operates in. Orders are bound to a
// city, and all history timestamps are recorded in its timezone.
type City struct {
	ID       int64  `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"not null"`
	Timezone string `json:"timezone" gorm:"not null;default:UTC"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (City) TableName() string {
	return "cities"
}

// Localtime converts t into the city's timezone. Falls back to t as-is
// when the timezone name cannot be resolved.
func (c *City) Localtime(t time.Time) time.Time {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return t
	}
	return t.In(loc)
}
