package order

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dostavo/server/internal/module/deliverygraph"
	"github.com/dostavo/server/internal/module/status"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	service *Service
}

// NewHandler creates a new order handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers order routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id/status", h.TransitionStatus)
	}
}

// GetOrder returns one order.
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_order_id"})
		return
	}

	o, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		handleOrderError(c, err)
		return
	}

	resp := OrderToResponse(o)
	if o.CourierID != nil {
		courier, err := h.service.GetCourier(c.Request.Context(), *o.CourierID)
		if err != nil {
			handleOrderError(c, err)
			return
		}
		if courier != nil {
			resp.Courier = CourierToResponse(courier)
		}
	}

	c.JSON(http.StatusOK, gin.H{"order": resp})
}

// TransitionStatus moves an order to a new delivery-graph status. The
// body names the target status; any extra fields are forwarded to the
// status handler.
func (h *Handler) TransitionStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_order_id"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	var req TransitionStatusRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status_required"})
		return
	}

	o, err := h.service.TransitionOrderStatus(c.Request.Context(), id, req.Status, actorFromRequest(c), body)
	if err != nil {
		handleOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": OrderToResponse(o)})
}

// actorFromRequest reads the initiator identity the gateway puts on
// the request. Absent headers mean a system-initiated transition.
func actorFromRequest(c *gin.Context) Actor {
	actor := Actor{Type: "system"}
	if t := c.GetHeader("X-Actor-Type"); t != "" {
		actor.Type = t
	}
	if r := c.GetHeader("X-Actor-Role"); r != "" {
		actor.Role = r
	}
	if raw := c.GetHeader("X-Actor-ID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			actor.ID = &id
		}
	}
	return actor
}

func handleOrderError(c *gin.Context, err error) {
	var (
		illegal    *IllegalTransitionError
		unknown    *UnknownStatusError
		handlerErr *HandlerExecutionError
		parseErr   *deliverygraph.ParseError
	)

	switch {
	case errors.Is(err, ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
	case errors.Is(err, status.ErrStatusNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "status_not_found"})
	case errors.Is(err, deliverygraph.ErrGraphNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "delivery_graph_not_found"})
	case errors.As(err, &illegal):
		c.JSON(http.StatusConflict, gin.H{"error": "illegal_status_transition", "detail": illegal.Error()})
	case errors.As(err, &unknown):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_status", "detail": unknown.Error()})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delivery_graph_invalid"})
	case errors.As(err, &handlerErr):
		handleHandlerError(c, handlerErr)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func handleHandlerError(c *gin.Context, err *HandlerExecutionError) {
	var (
		notAllowed *NotAllowedError
		validation *ValidationError
	)
	switch {
	case errors.Is(err, ErrWrongOTPCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "wrong_otp_code"})
	case errors.Is(err, ErrAdapterUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "adapter_unavailable"})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload", "detail": validation.Error()})
	case errors.As(err, &notAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "transition_not_allowed", "detail": notAllowed.Reason})
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "status_handler_failed", "detail": err.Err.Error()})
	}
}
