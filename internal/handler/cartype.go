package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

// CarTypeHandler serves the pricing catalog.
type CarTypeHandler struct {
	catalogService *service.CatalogService
}

// NewCarTypeHandler creates a new CarTypeHandler.
func NewCarTypeHandler(catalogService *service.CatalogService) *CarTypeHandler {
	return &CarTypeHandler{catalogService: catalogService}
}

// CarTypeRequest is the HTTP request body for replacing a class's rates.
type CarTypeRequest struct {
	PerKm  float64 `json:"per_km"`
	PerMin float64 `json:"per_min"`
	Image  string  `json:"image,omitempty"`
}

// CarTypeResponse is the HTTP representation of a catalog entry.
type CarTypeResponse struct {
	Comfort string  `json:"comfort"`
	PerKm   float64 `json:"per_km"`
	PerMin  float64 `json:"per_min"`
	Image   string  `json:"image,omitempty"`
}

func carTypeResponse(ct *domain.CarType) CarTypeResponse {
	return CarTypeResponse{
		Comfort: string(ct.Comfort),
		PerKm:   ct.PerKm,
		PerMin:  ct.PerMin,
		Image:   ct.Image,
	}
}

// List handles GET /v1/car-types
func (h *CarTypeHandler) List(c *gin.Context) {
	carTypes, err := h.catalogService.ListCarTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]CarTypeResponse, 0, len(carTypes))
	for _, ct := range carTypes {
		out = append(out, carTypeResponse(ct))
	}
	respondJSON(c, http.StatusOK, out)
}

// Upsert handles PUT /v1/car-types/:comfort
func (h *CarTypeHandler) Upsert(c *gin.Context) {
	var req CarTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidBody(err))
		return
	}

	ct, err := h.catalogService.UpsertCarType(c.Request.Context(), domain.CarType{
		Comfort: domain.ComfortClass(c.Param("comfort")),
		PerKm:   req.PerKm,
		PerMin:  req.PerMin,
		Image:   req.Image,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, carTypeResponse(ct))
}
