package status

import (
	"context"
	"errors"

	"github.com/dostavo/server/internal/shared/database"
	"gorm.io/gorm"
)

// ErrStatusNotFound is returned when a status is absent from the catalogue.
var ErrStatusNotFound = errors.New("status not found")

// Repository defines the interface for status catalogue access.
type Repository interface {
	GetStatus(ctx context.Context, id int64) (*Status, error)
	GetStatusByCode(ctx context.Context, code string) (*Status, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new status repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetStatus(ctx context.Context, id int64) (*Status, error) {
	var s Status
	err := database.FromContext(ctx, r.db).First(&s, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatusNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) GetStatusByCode(ctx context.Context, code string) (*Status, error) {
	var s Status
	err := database.FromContext(ctx, r.db).First(&s, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatusNotFound
		}
		return nil, err
	}
	return &s, nil
}
