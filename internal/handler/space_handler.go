package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parkingmate/service-parking/internal/application"
	"github.com/parkingmate/service-parking/internal/common/auth"
	"github.com/parkingmate/service-parking/internal/common/domain"
	"github.com/parkingmate/service-parking/internal/common/middleware"
	"github.com/parkingmate/service-parking/internal/common/response"
	"github.com/parkingmate/service-parking/internal/domain/space"
)

// localTimeLayout is accepted for query times without an offset; they are read as UTC.
const localTimeLayout = "2006-01-02T15:04:05"

// SpaceHandler handles HTTP requests for parking spaces.
type SpaceHandler struct {
	spaces   *application.SpaceService
	bookings *application.BookingService
}

// NewSpaceHandler creates a new SpaceHandler.
func NewSpaceHandler(spaces *application.SpaceService, bookings *application.BookingService) *SpaceHandler {
	return &SpaceHandler{spaces: spaces, bookings: bookings}
}

// RegisterRoutes registers parking space routes. Reads are public.
func (h *SpaceHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	spaces := r.Group("/api/v1/spaces")
	{
		spaces.GET("", h.ListSpaces)
		spaces.GET("/nearby", h.SearchNearby)
		spaces.GET("/my", authMW, h.ListMySpaces)
		spaces.GET("/:id", h.GetSpace)
		spaces.GET("/:id/available-slots", h.AvailableSlots)
		spaces.POST("", authMW, h.CreateSpace)
		spaces.PUT("/:id", authMW, h.UpdateSpace)
		spaces.DELETE("/:id", authMW, h.DeleteSpace)
	}
}

// CreateSpace handles POST /api/v1/spaces.
func (h *SpaceHandler) CreateSpace(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req application.SpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.spaces.CreateSpace(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetSpace handles GET /api/v1/spaces/:id.
func (h *SpaceHandler) GetSpace(c *gin.Context) {
	id, ok := pathID(c, "parking space")
	if !ok {
		return
	}

	result, err := h.spaces.GetSpace(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListSpaces handles GET /api/v1/spaces?address=&sortBy=&page=&size=.
func (h *SpaceHandler) ListSpaces(c *gin.Context) {
	page, size, err := parsePagination(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	sort, err := space.ParseSortOrder(c.Query("sortBy"), space.SortLatest)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.spaces.ListSpaces(c.Request.Context(), c.Query("address"), sort, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result)
}

// SearchNearby handles GET /api/v1/spaces/nearby?lat=&lon=&radiusKm=&sortBy=&page=&size=.
func (h *SpaceHandler) SearchNearby(c *gin.Context) {
	page, size, err := parsePagination(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	lat, err := optionalFloat(c, "lat")
	if err != nil {
		response.Error(c, err)
		return
	}
	lon, err := optionalFloat(c, "lon")
	if err != nil {
		response.Error(c, err)
		return
	}
	radius, err := optionalFloat(c, "radiusKm")
	if err != nil {
		response.Error(c, err)
		return
	}
	sort, err := space.ParseSortOrder(c.Query("sortBy"), space.SortDistance)
	if err != nil {
		response.Error(c, err)
		return
	}

	req := application.LocationSearchRequest{
		Latitude:  lat,
		Longitude: lon,
		Sort:      sort,
		Page:      page,
		Size:      size,
	}
	if radius != nil {
		req.RadiusKm = *radius
	}

	result, err := h.spaces.SearchByLocation(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result)
}

// ListMySpaces handles GET /api/v1/spaces/my.
func (h *SpaceHandler) ListMySpaces(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	result, err := h.spaces.ListMySpaces(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AvailableSlots handles GET /api/v1/spaces/:id/available-slots?start=&end=&slotDurationHours=.
func (h *SpaceHandler) AvailableSlots(c *gin.Context) {
	id, ok := pathID(c, "parking space")
	if !ok {
		return
	}
	start, err := parseQueryTime(c, "start")
	if err != nil {
		response.Error(c, err)
		return
	}
	end, err := parseQueryTime(c, "end")
	if err != nil {
		response.Error(c, err)
		return
	}
	hours, err := strconv.Atoi(c.DefaultQuery("slotDurationHours", "1"))
	if err != nil {
		response.BadRequest(c, "slotDurationHours must be an integer")
		return
	}

	result, err := h.bookings.GetAvailableSlots(c.Request.Context(), id, start, end, hours)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateSpace handles PUT /api/v1/spaces/:id.
func (h *SpaceHandler) UpdateSpace(c *gin.Context) {
	id, ok := pathID(c, "parking space")
	if !ok {
		return
	}
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req application.SpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.spaces.UpdateSpace(c.Request.Context(), identity, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteSpace handles DELETE /api/v1/spaces/:id.
func (h *SpaceHandler) DeleteSpace(c *gin.Context) {
	id, ok := pathID(c, "parking space")
	if !ok {
		return
	}
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	if err := h.spaces.DeleteSpace(c.Request.Context(), identity, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "parking space deleted"})
}

func parseQueryTime(c *gin.Context, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, domain.NewValidationError(key + " is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(localTimeLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, domain.NewValidationError(key + " must be an ISO-8601 date-time")
	}
	return t, nil
}
