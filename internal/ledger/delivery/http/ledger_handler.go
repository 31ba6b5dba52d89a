package http

import (
	"net/http"
	"strconv"

	"golang-portfolio-ledger/internal/ledger/service"
	"golang-portfolio-ledger/pkg/logger"

	"github.com/labstack/echo/v4"
)

const maxLedgerPageSize = 1000

// LedgerHandler serves the raw ledger entries.
type LedgerHandler struct {
	auditService service.AuditService
	portfolioID  string
	pageSize     int
	logger       *logger.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(auditService service.AuditService, portfolioID string, pageSize int, logger *logger.Logger) *LedgerHandler {
	if pageSize <= 0 || pageSize > maxLedgerPageSize {
		pageSize = 100
	}
	return &LedgerHandler{auditService: auditService, portfolioID: portfolioID, pageSize: pageSize, logger: logger}
}

// RegisterRoutes registers the ledger routes to the Echo group.
func (h *LedgerHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/ledger", h.GetLedger)
}

// GetLedger godoc
// @Summary List ledger entries
// @Description One page of ledger entries in sequence order. Pass next_after as after to fetch the next page.
// @Tags ledger
// @Produce  json
// @Param   after  query   int  false  "Return entries with a greater sequence (default 0)"
// @Param   limit  query   int  false  "Page size (max 1000)"
// @Success 200 {object} dto.LedgerPageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /portfolio/ledger [get]
func (h *LedgerHandler) GetLedger(c echo.Context) error {
	after := int64(0)
	if raw := c.QueryParam("after"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid after"})
		}
		after = n
	}

	limit := h.pageSize
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		limit = min(n, maxLedgerPageSize)
	}

	page, err := h.auditService.GetPage(c.Request().Context(), h.portfolioID, after, limit)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get ledger")
	}
	return c.JSON(http.StatusOK, page)
}
