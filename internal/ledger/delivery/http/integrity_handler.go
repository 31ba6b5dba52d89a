package http

import (
	"net/http"
	"strconv"

	"golang-portfolio-ledger/internal/ledger/service"
	"golang-portfolio-ledger/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// IntegrityHandler handles HTTP requests for ledger verification.
type IntegrityHandler struct {
	integrityService service.IntegrityService
	portfolioID      string
	logger           *logger.Logger
}

// NewIntegrityHandler creates a new IntegrityHandler.
func NewIntegrityHandler(integrityService service.IntegrityService, portfolioID string, logger *logger.Logger) *IntegrityHandler {
	return &IntegrityHandler{integrityService: integrityService, portfolioID: portfolioID, logger: logger}
}

// RegisterRoutes registers the integrity routes to the Echo group.
func (h *IntegrityHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/integrity", h.CheckIntegrity)
	g.GET("/integrity/history", h.GetHistory)
}

// CheckIntegrity godoc
// @Summary Verify the ledger
// @Description Replay the hash chain from GENESIS and record the outcome. A broken chain is reported with status FAILED.
// @Tags integrity
// @Produce  json
// @Success 200 {object} dto.IntegrityResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /portfolio/integrity [get]
func (h *IntegrityHandler) CheckIntegrity(c echo.Context) error {
	result, err := h.integrityService.CheckIntegrity(c.Request().Context(), h.portfolioID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to verify ledger")
	}
	return c.JSON(http.StatusOK, result)
}

// GetHistory godoc
// @Summary Integrity check history
// @Description Most recent verification runs, newest first
// @Tags integrity
// @Produce  json
// @Param   limit  query   int  false  "Maximum number of runs (default 20, max 100)"
// @Success 200 {array} dto.IntegrityResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /portfolio/integrity/history [get]
func (h *IntegrityHandler) GetHistory(c echo.Context) error {
	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		limit = min(n, maxHistoryLimit)
	}

	checks, err := h.integrityService.ListChecks(c.Request().Context(), h.portfolioID, limit)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get integrity history")
	}
	return c.JSON(http.StatusOK, checks)
}
