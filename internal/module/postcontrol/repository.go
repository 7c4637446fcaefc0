package postcontrol

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dostavo/server/internal/shared/database"
)

// Repository defines postcontrol photo data access.
type Repository interface {
	CreatePhoto(ctx context.Context, photo *Photo) error
	GetPhoto(ctx context.Context, id int64) (*Photo, error)
	ListPhotosByOrder(ctx context.Context, orderID int64) ([]Photo, error)
	UpdatePhoto(ctx context.Context, photo *Photo) error
	DeletePhotosByOrder(ctx context.Context, orderID int64) ([]Photo, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed postcontrol repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreatePhoto(ctx context.Context, photo *Photo) error {
	return database.FromContext(ctx, r.db).Create(photo).Error
}

func (r *gormRepository) GetPhoto(ctx context.Context, id int64) (*Photo, error) {
	var p Photo
	err := database.FromContext(ctx, r.db).First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) ListPhotosByOrder(ctx context.Context, orderID int64) ([]Photo, error) {
	var photos []Photo
	err := database.FromContext(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at").
		Find(&photos).Error
	return photos, err
}

func (r *gormRepository) UpdatePhoto(ctx context.Context, photo *Photo) error {
	return database.FromContext(ctx, r.db).Save(photo).Error
}

func (r *gormRepository) DeletePhotosByOrder(ctx context.Context, orderID int64) ([]Photo, error) {
	photos, err := r.ListPhotosByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, nil
	}
	err = database.FromContext(ctx, r.db).
		Where("order_id = ?", orderID).
		Delete(&Photo{}).Error
	return photos, err
}
