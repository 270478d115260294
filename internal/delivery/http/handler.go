package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pharmalens/backend/internal/domain"
	"github.com/pharmalens/backend/internal/infrastructure/xlsx"
	"github.com/pharmalens/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog      *usecase.CatalogService
	observations *usecase.ObservationService
	imports      *usecase.ImportService
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog *usecase.CatalogService, observations *usecase.ObservationService, imports *usecase.ImportService) *Handler {
	return &Handler{
		catalog:      catalog,
		observations: observations,
		imports:      imports,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pharmalens-backend",
		"version": "1.0.0",
	})
}

// ListProducts handles GET /api/v1/products
func (h *Handler) ListProducts(c *gin.Context) {
	page, err := queryInt(c, "page", 0)
	if err != nil {
		respondError(c, err)
		return
	}
	perPage, err := queryInt(c, "per_page", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.catalog.Search(c.Request.Context(), usecase.ListQuery{
		Query:   c.Query("q"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetProduct handles GET /api/v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	product, err := h.catalog.Product(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// GroupStats handles GET /api/v1/stats/groups/:field
func (h *Handler) GroupStats(c *gin.Context) {
	field, err := domain.ParseField(c.Param("field"))
	if err != nil {
		respondError(c, err)
		return
	}
	topN, err := queryInt(c, "top_n", h.catalog.DefaultTopN())
	if err != nil {
		respondError(c, err)
		return
	}

	groups, err := h.catalog.Groups(c.Request.Context(), field, topN)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"field":  field,
		"topN":   topN,
		"groups": groups,
	})
}

// PriceStats handles GET /api/v1/stats/prices
func (h *Handler) PriceStats(c *gin.Context) {
	top, err := queryInt(c, "top", 0)
	if err != nil {
		respondError(c, err)
		return
	}
	bins, err := queryInt(c, "bins", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	opts := usecase.PriceStatsOptions{Top: top, Bins: bins}
	if groupBy := c.Query("group_by"); groupBy != "" {
		field, err := domain.ParseField(groupBy)
		if err != nil {
			respondError(c, err)
			return
		}
		opts.GroupBy = field
	}

	stats, err := h.catalog.PriceStatistics(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListObservations handles GET /api/v1/observations
func (h *Handler) ListObservations(c *gin.Context) {
	list, err := h.observations.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"observations": list})
}

// CreateObservation handles POST /api/v1/observations
func (h *Handler) CreateObservation(c *gin.Context) {
	var input domain.ObservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	obs, err := h.observations.Append(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, obs)
}

// DeleteObservation handles DELETE /api/v1/observations/:id
func (h *Handler) DeleteObservation(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.observations.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportProducts handles POST /api/v1/import with a multipart "file"
func (h *Handler) ImportProducts(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	headerRow, err := formInt(c, "header_row", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	f, err := file.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	result, err := xlsx.ReadProducts(f, xlsx.ReadOptions{Sheet: c.PostForm("sheet"), HeaderRow: headerRow})
	if err != nil {
		respondError(c, err)
		return
	}

	n, err := h.imports.Import(c.Request.Context(), result.Products)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"sheet":    result.Sheet,
		"imported": n,
		"skipped":  result.Skipped,
		"errors":   result.Errors,
	})
}

// respondError maps domain errors to status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrObservationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParam(key, raw)
	}
	return v, nil
}

func formInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.PostForm(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParam(key, raw)
	}
	return v, nil
}

func pathID(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidParam("id", raw)
	}
	return id, nil
}

func invalidParam(key, value string) error {
	return fmt.Errorf("%w: %s=%q", domain.ErrInvalidRequest, key, value)
}
