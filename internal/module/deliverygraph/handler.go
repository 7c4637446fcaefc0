package deliverygraph

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for delivery graphs.
type Handler struct {
	repo    Repository
	service *Service
}

// NewHandler creates a new delivery graph handler.
func NewHandler(repo Repository, service *Service) *Handler {
	return &Handler{repo: repo, service: service}
}

// RegisterRoutes registers delivery graph routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	graphs := r.Group("/delivery-graphs")
	{
		graphs.GET("", h.ListGraphs)
		graphs.GET("/:id", h.GetGraph)
	}
}

// ListGraphs returns the graphs visible to a partner: its own plus the
// global defaults.
func (h *Handler) ListGraphs(c *gin.Context) {
	partnerID, err := strconv.ParseInt(c.Query("partner_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "partner_id_required"})
		return
	}

	graphs, err := h.repo.ListGraphs(c.Request.Context(), partnerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"delivery_graphs": graphs})
}

// GetGraph returns one graph with its parsed step list.
func (h *Handler) GetGraph(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_graph_id"})
		return
	}
	partnerID, err := strconv.ParseInt(c.Query("partner_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "partner_id_required"})
		return
	}

	graph, err := h.service.LoadGraph(c.Request.Context(), id, partnerID)
	if err != nil {
		var parseErr *ParseError
		switch {
		case errors.Is(err, ErrGraphNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "delivery_graph_not_found"})
		case errors.As(err, &parseErr):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delivery_graph_invalid"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "steps": graph.Nodes()})
}
