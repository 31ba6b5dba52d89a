package http

import (
	"net/http"

	"golang-portfolio-ledger/internal/ledger/dto"
	"golang-portfolio-ledger/internal/ledger/service"
	"golang-portfolio-ledger/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HoldingHandler handles HTTP requests for the holdings of one portfolio.
type HoldingHandler struct {
	portfolioService service.PortfolioService
	portfolioID      string
	mutationLimit    echo.MiddlewareFunc
	logger           *logger.Logger
}

// NewHoldingHandler creates a new HoldingHandler. mutationLimit guards the
// endpoints that append to the ledger and may be nil.
func NewHoldingHandler(portfolioService service.PortfolioService, portfolioID string, mutationLimit echo.MiddlewareFunc, logger *logger.Logger) *HoldingHandler {
	return &HoldingHandler{
		portfolioService: portfolioService,
		portfolioID:      portfolioID,
		mutationLimit:    mutationLimit,
		logger:           logger,
	}
}

// RegisterRoutes registers the holding routes to the Echo group.
func (h *HoldingHandler) RegisterRoutes(g *echo.Group) {
	var mw []echo.MiddlewareFunc
	if h.mutationLimit != nil {
		mw = append(mw, h.mutationLimit)
	}

	g.POST("/holdings", h.AddHolding, mw...)
	g.DELETE("/holdings/:ticker", h.RemoveHolding, mw...)
	g.GET("/holdings", h.GetHoldings)
	g.GET("/holdings/:ticker", h.GetHolding)
	g.GET("/summary", h.GetSummary)
}

// AddHolding godoc
// @Summary Add to a holding
// @Description Buy quantity units of a ticker at price. The average cost is blended and a ledger entry is appended.
// @Tags holdings
// @Accept  json
// @Produce  json
// @Param   holding  body    dto.AddHoldingRequest   true    "Holding to add"
// @Success 201 {object} dto.MutationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /portfolio/holdings [post]
func (h *HoldingHandler) AddHolding(c echo.Context) error {
	var req dto.AddHoldingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	resp, err := h.portfolioService.AddHolding(c.Request().Context(), h.portfolioID, req.Ticker, req.Quantity, req.Price)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to add holding")
	}
	return c.JSON(http.StatusCreated, resp)
}

// RemoveHolding godoc
// @Summary Remove from a holding
// @Description Sell quantity units of a ticker. The position is deleted when nothing is left.
// @Tags holdings
// @Accept  json
// @Produce  json
// @Param   ticker   path    string                     true    "Ticker"
// @Param   holding  body    dto.RemoveHoldingRequest   true    "Quantity to remove"
// @Success 200 {object} dto.MutationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /portfolio/holdings/{ticker} [delete]
func (h *HoldingHandler) RemoveHolding(c echo.Context) error {
	var req dto.RemoveHoldingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	resp, err := h.portfolioService.RemoveHolding(c.Request().Context(), h.portfolioID, c.Param("ticker"), req.Quantity)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to remove holding")
	}
	return c.JSON(http.StatusOK, resp)
}

// GetHoldings godoc
// @Summary List holdings
// @Description Every position valued at its latest price
// @Tags holdings
// @Produce  json
// @Success 200 {array} dto.HoldingResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /portfolio/holdings [get]
func (h *HoldingHandler) GetHoldings(c echo.Context) error {
	holdings, err := h.portfolioService.GetHoldings(c.Request().Context(), h.portfolioID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get holdings")
	}
	return c.JSON(http.StatusOK, holdings)
}

// GetHolding godoc
// @Summary Get a holding
// @Description A single position valued at its latest price
// @Tags holdings
// @Produce  json
// @Param   ticker  path    string  true    "Ticker"
// @Success 200 {object} dto.HoldingResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /portfolio/holdings/{ticker} [get]
func (h *HoldingHandler) GetHolding(c echo.Context) error {
	holding, err := h.portfolioService.GetHolding(c.Request().Context(), h.portfolioID, c.Param("ticker"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get holding")
	}
	return c.JSON(http.StatusOK, holding)
}

// GetSummary godoc
// @Summary Portfolio summary
// @Description Totals, gain and top holding of the portfolio
// @Tags holdings
// @Produce  json
// @Success 200 {object} dto.SummaryResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /portfolio/summary [get]
func (h *HoldingHandler) GetSummary(c echo.Context) error {
	summary, err := h.portfolioService.GetSummary(c.Request().Context(), h.portfolioID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get summary")
	}
	return c.JSON(http.StatusOK, summary)
}
