package order

import (
	"time"
)

// TransitionStatusRequest names the status an order should move to.
// The rest of the body is forwarded to the status handler untouched.
type TransitionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CourierResponse represents the assigned courier in API responses.
type CourierResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID                  int64            `json:"id"`
	PartnerID           int64            `json:"partner_id"`
	PartnerOrderID      string           `json:"partner_order_id"`
	CourierID           *int64           `json:"courier_id,omitempty"`
	Courier             *CourierResponse `json:"courier,omitempty"`
	CityID              *int64           `json:"city_id,omitempty"`
	DeliveryGraphID     int64            `json:"delivery_graph_id"`
	CurrentStatusID     int64            `json:"current_status_id"`
	ReceiverName        string           `json:"receiver_name"`
	ReceiverPhoneNumber string           `json:"receiver_phone_number"`
	DeliveryAddress     string           `json:"delivery_address"`
	CourierService      string           `json:"courier_service,omitempty"`
	TrackNumber         string           `json:"track_number,omitempty"`
	DeliveryStatus      DeliveryStatus   `json:"delivery_status"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// CourierToResponse converts a courier to its API representation.
func CourierToResponse(c *Courier) *CourierResponse {
	return &CourierResponse{
		ID:       c.ID,
		FullName: c.FullName,
	}
}

// OrderToResponse converts an order to its API representation.
func OrderToResponse(o *Order) *OrderResponse {
	return &OrderResponse{
		ID:                  o.ID,
		PartnerID:           o.PartnerID,
		PartnerOrderID:      o.PartnerOrderID,
		CourierID:           o.CourierID,
		CityID:              o.CityID,
		DeliveryGraphID:     o.DeliveryGraphID,
		CurrentStatusID:     o.CurrentStatusID,
		ReceiverName:        o.ReceiverName,
		ReceiverPhoneNumber: o.ReceiverPhoneNumber,
		DeliveryAddress:     o.DeliveryAddress,
		CourierService:      o.CourierService,
		TrackNumber:         o.TrackNumber,
		DeliveryStatus:      o.DeliveryStatus.Data(),
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}
