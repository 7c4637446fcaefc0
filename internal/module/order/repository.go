package order

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dostavo/server/internal/shared/database"
)

// Repository defines order data access.
type Repository interface {
	GetOrder(ctx context.Context, id int64) (*Order, error)
	// GetOrderForUpdate loads the order under a row lock so concurrent
	// transitions on the same order serialize.
	GetOrderForUpdate(ctx context.Context, id int64) (*Order, error)
	UpdateOrder(ctx context.Context, order *Order) error

	GetProductByOrderID(ctx context.Context, orderID int64) (*Product, error)
	UpdateProduct(ctx context.Context, product *Product) error

	GetCourier(ctx context.Context, id int64) (*Courier, error)

	GetGeolocation(ctx context.Context, orderID int64) (*Geolocation, error)
	SaveGeolocation(ctx context.Context, geo *Geolocation) error

	DeleteSMSPostControls(ctx context.Context, orderID int64) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed order repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := database.FromContext(ctx, r.db).First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *gormRepository) GetOrderForUpdate(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := database.FromContext(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *gormRepository) UpdateOrder(ctx context.Context, order *Order) error {
	return database.FromContext(ctx, r.db).Save(order).Error
}

func (r *gormRepository) GetProductByOrderID(ctx context.Context, orderID int64) (*Product, error) {
	var p Product
	err := database.FromContext(ctx, r.db).
		Where("order_id = ?", orderID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) UpdateProduct(ctx context.Context, product *Product) error {
	return database.FromContext(ctx, r.db).Save(product).Error
}

func (r *gormRepository) GetCourier(ctx context.Context, id int64) (*Courier, error) {
	var c Courier
	err := database.FromContext(ctx, r.db).First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourierNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *gormRepository) GetGeolocation(ctx context.Context, orderID int64) (*Geolocation, error) {
	var g Geolocation
	err := database.FromContext(ctx, r.db).
		Where("order_id = ?", orderID).
		First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGeolocationNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *gormRepository) SaveGeolocation(ctx context.Context, geo *Geolocation) error {
	return database.FromContext(ctx, r.db).Save(geo).Error
}

func (r *gormRepository) DeleteSMSPostControls(ctx context.Context, orderID int64) error {
	return database.FromContext(ctx, r.db).
		Where("order_id = ?", orderID).
		Delete(&SMSPostControl{}).Error
}
