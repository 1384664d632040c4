package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parkingmate/service-parking/internal/common/domain"
	"github.com/parkingmate/service-parking/internal/common/middleware"
	"github.com/parkingmate/service-parking/internal/common/response"
)

// requireIdentity returns the caller identity or writes 401.
func requireIdentity(c *gin.Context) (string, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
	}
	return identity, ok
}

// pathID parses the :id path parameter or writes 400.
func pathID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination reads 0-based page and size. Size falls back to 10 and is capped at 100.
func parsePagination(c *gin.Context) (int, int, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		return 0, 0, domain.NewValidationError("page must be a non-negative integer")
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(domain.DefaultPageSize)))
	if err != nil {
		return 0, 0, domain.NewValidationError("size must be an integer")
	}
	page, size = domain.NormalizePagination(page, size)
	return page, size, nil
}

// optionalFloat parses an optional float query parameter.
func optionalFloat(c *gin.Context, key string) (*float64, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domain.NewValidationError(key + " must be a number")
	}
	return &v, nil
}
