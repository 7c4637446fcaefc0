package deliverygraph

import (
	"context"
	"errors"

	"github.com/dostavo/server/internal/shared/database"
	"gorm.io/gorm"
)

// ErrGraphNotFound is returned when a delivery graph does not exist.
var ErrGraphNotFound = errors.New("delivery graph not found")

// Repository defines the interface for delivery graph data access.
// Lookups are partner-scoped with a global-default fallback: a graph
// either belongs to the partner or has no partner at all.
type Repository interface {
	GetGraph(ctx context.Context, id int64, partnerID int64) (*DeliveryGraph, error)
	ListGraphs(ctx context.Context, partnerID int64) ([]*DeliveryGraph, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new delivery graph repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetGraph(ctx context.Context, id int64, partnerID int64) (*DeliveryGraph, error) {
	var g DeliveryGraph
	err := database.FromContext(ctx, r.db).
		Where("id = ?", id).
		Where("partner_id IS NULL OR partner_id = ?", partnerID).
		First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGraphNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *repository) ListGraphs(ctx context.Context, partnerID int64) ([]*DeliveryGraph, error) {
	var graphs []*DeliveryGraph
	err := database.FromContext(ctx, r.db).
		Where("partner_id IS NULL OR partner_id = ?", partnerID).
		Order("id").
		Find(&graphs).Error
	return graphs, err
}
