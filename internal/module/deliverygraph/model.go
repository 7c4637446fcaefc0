package deliverygraph

import (
	"time"

	"gorm.io/datatypes"
)

// DeliveryGraph is the persisted graph definition. The Graph column
// holds the JSON node list; it is parsed into a domain Graph at
// order-load time and never mutated during order execution.
type DeliveryGraph struct {
	ID        int64          `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"size:128;not null"`
	Slug      *string        `json:"slug,omitempty" gorm:"size:80"`
	Graph     datatypes.JSON `json:"graph" gorm:"not null"`
	PartnerID *int64         `json:"partner_id,omitempty" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (DeliveryGraph) TableName() string {
	return "delivery_graphs"
}

// Parsed parses the stored definition into a domain Graph.
func (g *DeliveryGraph) Parsed() (*Graph, error) {
	return Parse(g.Graph)
}
