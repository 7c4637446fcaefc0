package history

import (
	"time"

	"gorm.io/datatypes"
)

// InitiatorType identifies who triggered a mutating action.
type InitiatorType string

const (
	InitiatorUser    InitiatorType = "user"
	InitiatorPartner InitiatorType = "partner"
	InitiatorSystem  InitiatorType = "system"
	InitiatorImport  InitiatorType = "import"
)

// ModelName discriminates which entity an audit entry is about.
type ModelName string

const (
	ModelOrder         ModelName = "order"
	ModelOrderChain    ModelName = "order_chain"
	ModelShipmentPoint ModelName = "shipment_point"
	ModelPostControl   ModelName = "postcontrol"
)

// Entry is one append-only audit record. Entries are never updated or
// deleted; one entry per mutating action across the whole system.
type Entry struct {
	ID            int64             `json:"id" gorm:"primaryKey"`
	InitiatorID   *int64            `json:"initiator_id,omitempty"`
	InitiatorType InitiatorType     `json:"initiator_type" gorm:"size:20;not null;default:user"`
	InitiatorRole string            `json:"initiator_role,omitempty" gorm:"size:30"`
	RequestMethod string            `json:"request_method" gorm:"size:10"`
	ModelType     ModelName         `json:"model_type" gorm:"size:50;not null;index"`
	ModelID       int64             `json:"model_id" gorm:"index"`
	ActionData    datatypes.JSONMap `json:"action_data,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// TableName returns the database table name.
func (Entry) TableName() string {
	return "history"
}

// OrderStatus is one row of the per-order status history stream. For
// any (order, status) pair at most one row exists; repeatable statuses
// rely on this to record only their first arrival.
type OrderStatus struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	OrderID   int64     `json:"order_id" gorm:"not null;uniqueIndex:idx_order_status"`
	StatusID  int64     `json:"status_id" gorm:"not null;uniqueIndex:idx_order_status"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (OrderStatus) TableName() string {
	return "order_statuses"
}
