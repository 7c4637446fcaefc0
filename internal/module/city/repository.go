package city

import (
	"context"
	"errors"

	"github.com/dostavo/server/internal/shared/database"
	"gorm.io/gorm"
)

// ErrCityNotFound is returned when a city does not exist.
var ErrCityNotFound = errors.New("city not found")

// Repository defines the interface for city data access.
type Repository interface {
	GetCity(ctx context.Context, id int64) (*City, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new city repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetCity(ctx context.Context, id int64) (*City, error) {
	var c City
	err := database.FromContext(ctx, r.db).First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCityNotFound
		}
		return nil, err
	}
	return &c, nil
}
