package order

import (
	"time"

	"gorm.io/datatypes"
)

// DeliveryStatus is the free-form delivery outcome sub-document, kept
// separate from the graph status. It represents terminal outcomes such
// as cancelled or postponed.
type DeliveryStatus struct {
	Status   *string    `json:"status"`
	Datetime *time.Time `json:"datetime"`
	Reason   *string    `json:"reason"`
	Comment  *string    `json:"comment"`
}

// Known delivery outcome values.
const (
	DeliveryOutcomeCancelled      = "cancelled"
	DeliveryOutcomePostponed      = "postponed"
	DeliveryOutcomeTransferToCDEK = "transfer_to_cdek"
)

// CourierServiceCDEK marks an order handed over to the CDEK courier
// service for last-mile delivery.
const CourierServiceCDEK = "cdek"

// Order is the subject of the delivery-graph state machine.
type Order struct {
	ID              int64  `json:"id" gorm:"primaryKey"`
	PartnerID       int64  `json:"partner_id" gorm:"not null;index"`
	PartnerOrderID  string `json:"partner_order_id" gorm:"size:100;index"`
	CourierID       *int64 `json:"courier_id,omitempty" gorm:"index"`
	CityID          *int64 `json:"city_id,omitempty"`
	DeliveryGraphID int64  `json:"delivery_graph_id" gorm:"not null"`
	CurrentStatusID int64  `json:"current_status_id" gorm:"not null;index"`

	ReceiverName        string `json:"receiver_name" gorm:"size:255"`
	ReceiverPhoneNumber string `json:"receiver_phone_number" gorm:"size:20"`
	ReceiverIIN         string `json:"receiver_iin" gorm:"size:12"`
	DeliveryAddress     string `json:"delivery_address" gorm:"size:255"`

	// CourierService and TrackNumber are set when the order leaves the
	// partner's own couriers for an external delivery service.
	CourierService string `json:"courier_service" gorm:"size:30"`
	TrackNumber    string `json:"track_number" gorm:"size:64"`

	DeliveryStatus datatypes.JSONType[DeliveryStatus] `json:"delivery_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Order) TableName() string {
	return "orders"
}

// ResetDeliveryStatus clears the delivery outcome sub-document.
func (o *Order) ResetDeliveryStatus() {
	o.DeliveryStatus = datatypes.NewJSONType(DeliveryStatus{})
}

// SetDeliveryStatus records a delivery outcome.
func (o *Order) SetDeliveryStatus(outcome string, at time.Time, reason, comment *string) {
	o.DeliveryStatus = datatypes.NewJSONType(DeliveryStatus{
		Status:   &outcome,
		Datetime: &at,
		Reason:   reason,
		Comment:  comment,
	})
}

// ProductType discriminates what an order delivers.
type ProductType string

const (
	ProductTypeCard        ProductType = "card"
	ProductTypePOSTerminal ProductType = "pos_terminal"
)

// POS terminal registration lifecycle values stored under the
// registration_status product attribute.
const (
	RegistrationUnset        = ""
	RegistrationStarted      = "STARTED"
	RegistrationCompleted    = "COMPLETED"
	RegistrationCanceled     = "CANCELED"
	RegistrationTimeoutError = "TIMEOUT_ERROR"
)

// Product attribute keys the transition handlers read and write.
const (
	AttrRegistrationStatus = "registration_status"
	AttrBusinessKey        = "business_key"
	AttrModel              = "model"
	AttrSerialNumber       = "serial_number"
	AttrInventoryNumber    = "inventory_number"
	AttrSum                = "sum"
)

// Product is the deliverable attached to an order. Attributes is an
// open JSON bag handlers stash process state in.
type Product struct {
	ID         int64             `json:"id" gorm:"primaryKey"`
	OrderID    int64             `json:"order_id" gorm:"not null;uniqueIndex"`
	Type       ProductType       `json:"type" gorm:"size:30;not null"`
	Attributes datatypes.JSONMap `json:"attributes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Product) TableName() string {
	return "products"
}

// Attribute returns a string attribute value, or "" when absent.
func (p *Product) Attribute(key string) string {
	if p.Attributes == nil {
		return ""
	}
	if v, ok := p.Attributes[key].(string); ok {
		return v
	}
	return ""
}

// SetAttribute writes one attribute value.
func (p *Product) SetAttribute(key string, value any) {
	if p.Attributes == nil {
		p.Attributes = datatypes.JSONMap{}
	}
	p.Attributes[key] = value
}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geolocation records where the courier stood at OTP milestones.
type Geolocation struct {
	ID            int64                         `json:"id" gorm:"primaryKey"`
	OrderID       int64                         `json:"order_id" gorm:"not null;uniqueIndex"`
	CourierID     int64                         `json:"courier_id" gorm:"not null"`
	AtClientPoint *datatypes.JSONType[GeoPoint] `json:"at_client_point,omitempty"`
	CodeSentPoint *datatypes.JSONType[GeoPoint] `json:"code_sent_point,omitempty"`
	CreatedAt     time.Time                     `json:"created_at"`
}

// TableName returns the database table name.
func (Geolocation) TableName() string {
	return "order_geolocations"
}

// SMSPostControl is one OTP row of the SMS postcontrol stream. Wiped
// when an order is reset to the start of its graph.
type SMSPostControl struct {
	ID         int64      `json:"id" gorm:"primaryKey"`
	OrderID    int64      `json:"order_id" gorm:"not null;index"`
	OTP        int16      `json:"otp" gorm:"not null"`
	TryCount   int16      `json:"try_count" gorm:"default:0"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName returns the database table name.
func (SMSPostControl) TableName() string {
	return "order_sms_postcontrols"
}

// Courier is the minimal courier projection the handlers need.
type Courier struct {
	ID       int64  `json:"id" gorm:"primaryKey"`
	FullName string `json:"full_name" gorm:"size:255"`
}

// TableName returns the database table name.
func (Courier) TableName() string {
	return "couriers"
}

// Actor identifies who requested a transition.
type Actor struct {
	ID   *int64
	Type string // user, partner, system
	Role string
}
