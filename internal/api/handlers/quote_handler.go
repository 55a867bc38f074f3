package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"sourcing-system/internal/api/middleware"
	"sourcing-system/internal/domain"
	"sourcing-system/internal/services"
	"sourcing-system/pkg/logger"
)

type QuoteHandler struct {
	quotes *services.QuoteCoordinator
	log    logger.Logger
}

func NewQuoteHandler(quotes *services.QuoteCoordinator, log logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		quotes: quotes,
		log:    log,
	}
}

func (h *QuoteHandler) Register(g *echo.Group) {
	g.POST("/quote", h.CreateQuote)
	g.GET("/quote", h.ListQuotes)
	g.GET("/quote/:id", h.GetQuote)
	g.PUT("/quote/:id", h.UpdateQuote)
	g.DELETE("/quote/:id", h.DeleteQuote)
}

type createQuoteRequest struct {
	RfqID         string             `json:"rfq_id"`
	VendorID      string             `json:"vendor_id"`
	VendorName    string             `json:"vendor_name"`
	Items         []domain.QuoteItem `json:"items"`
	TotalAmount   float64            `json:"total_amount"`
	DeliveryDate  *time.Time         `json:"delivery_date"`
	ValidUntil    *time.Time         `json:"valid_until"`
	PaymentTerms  string             `json:"payment_terms"`
	ShippingTerms string             `json:"shipping_terms"`
	Status        domain.QuoteStatus `json:"status"`
}

type updateQuoteRequest struct {
	Items         *[]domain.QuoteItem `json:"items"`
	TotalAmount   *float64            `json:"total_amount"`
	DeliveryDate  *time.Time          `json:"delivery_date"`
	ValidUntil    *time.Time          `json:"valid_until"`
	PaymentTerms  *string             `json:"payment_terms"`
	ShippingTerms *string             `json:"shipping_terms"`
	Status        *domain.QuoteStatus `json:"status"`
}

func (h *QuoteHandler) CreateQuote(c echo.Context) error {
	caller, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing caller identity"})
	}

	var req createQuoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if req.RfqID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "rfq_id is required"})
	}

	quote, err := h.quotes.CreateQuote(c.Request().Context(), services.CreateQuoteInput{
		RfqID:         req.RfqID,
		VendorID:      req.VendorID,
		VendorName:    req.VendorName,
		Items:         req.Items,
		TotalAmount:   req.TotalAmount,
		DeliveryDate:  req.DeliveryDate,
		ValidUntil:    req.ValidUntil,
		PaymentTerms:  req.PaymentTerms,
		ShippingTerms: req.ShippingTerms,
		Status:        req.Status,
	}, caller)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, quote)
}

func (h *QuoteHandler) ListQuotes(c echo.Context) error {
	caller, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing caller identity"})
	}

	filter := domain.QuoteFilter{
		RfqID:  c.QueryParam("rfq_id"),
		Status: domain.QuoteStatus(c.QueryParam("status")),
	}
	page, limit := pagination(c)

	quotes, total, err := h.quotes.ListQuotes(c.Request().Context(), filter, domain.Page{Offset: (page - 1) * limit, Limit: limit}, caller)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, listResponse{Data: quotes, Total: total, Page: page, Limit: limit})
}

func (h *QuoteHandler) GetQuote(c echo.Context) error {
	quote, err := h.quotes.GetQuoteByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, quote)
}

func (h *QuoteHandler) UpdateQuote(c echo.Context) error {
	caller, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing caller identity"})
	}

	var req updateQuoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	quote, err := h.quotes.UpdateQuote(c.Request().Context(), c.Param("id"), services.UpdateQuoteInput{
		Items:         req.Items,
		TotalAmount:   req.TotalAmount,
		DeliveryDate:  req.DeliveryDate,
		ValidUntil:    req.ValidUntil,
		PaymentTerms:  req.PaymentTerms,
		ShippingTerms: req.ShippingTerms,
		Status:        req.Status,
	}, caller)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, quote)
}

func (h *QuoteHandler) DeleteQuote(c echo.Context) error {
	caller, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing caller identity"})
	}

	if err := h.quotes.DeleteQuote(c.Request().Context(), c.Param("id"), caller); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
