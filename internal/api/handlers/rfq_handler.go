package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"sourcing-system/internal/api/middleware"
	"sourcing-system/internal/domain"
	"sourcing-system/internal/services"
	"sourcing-system/pkg/logger"
)

type RfqHandler struct {
	rfqs   *services.RfqCoordinator
	quotes *services.QuoteCoordinator
	log    logger.Logger
}

func NewRfqHandler(rfqs *services.RfqCoordinator, quotes *services.QuoteCoordinator, log logger.Logger) *RfqHandler {
	return &RfqHandler{
		rfqs:   rfqs,
		quotes: quotes,
		log:    log,
	}
}

func (h *RfqHandler) Register(g *echo.Group) {
	g.POST("/rfq", h.CreateRfq)
	g.GET("/rfq", h.ListRfqs)
	g.GET("/rfq/:id", h.GetRfq)
	g.PUT("/rfq/:id", h.UpdateRfq)
	g.DELETE("/rfq/:id", h.DeleteRfq)
	g.POST("/rfq/:id/vendors", h.InviteVendors)
	g.PUT("/rfq/:id/vendors/:vendorId", h.UpdateVendorStatus)
	g.GET("/rfq/:id/quotes", h.ListRfqQuotes)
}

type vendorInviteRequest struct {
	VendorID   string `json:"vendor_id"`
	VendorName string `json:"vendor_name"`
}

type createRfqRequest struct {
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	BuyerID         string                `json:"buyer_id"`
	BuyerName       string                `json:"buyer_name"`
	Items           []domain.RfqItem      `json:"items"`
	DeliveryAddress string                `json:"delivery_address"`
	DeliveryDate    *time.Time            `json:"delivery_date"`
	TargetPrice     *float64              `json:"target_price"`
	Status          domain.RfqStatus      `json:"status"`
	ExpiryDate      *time.Time            `json:"expiry_date"`
	InvitedVendors  []vendorInviteRequest `json:"invited_vendors"`
}

type updateRfqRequest struct {
	Title           *string           `json:"title"`
	Description     *string           `json:"description"`
	Items           *[]domain.RfqItem `json:"items"`
	DeliveryAddress *string           `json:"delivery_address"`
	DeliveryDate    *time.Time        `json:"delivery_date"`
	TargetPrice     *float64          `json:"target_price"`
	Status          *domain.RfqStatus `json:"status"`
	ExpiryDate      *time.Time        `json:"expiry_date"`
}

func (h *RfqHandler) CreateRfq(c echo.Context) error {
	caller, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing caller identity"})
	}

	var req createRfqRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	input := services.CreateRfqInput{
		Title:           req.Title,
		Description:     req.Description,
		BuyerID:         req.BuyerID,
		BuyerName:       req.BuyerName,
		Items:           req.Items,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    req.DeliveryDate,
		TargetPrice:     req.TargetPrice,
		Status:          req.Status,
		ExpiryDate:      req.ExpiryDate,
	}
	for _, invite := range req.InvitedVendors {
		input.InvitedVendors = append(input.InvitedVendors, services.VendorInvite{
			VendorID:   invite.VendorID,
			VendorName: invite.VendorName,
		})
	}

	rfq, err := h.rfqs.CreateRfq(c.Request().Context(), input, caller)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, rfq)
}

func (h *RfqHandler) ListRfqs(c echo.Context) error {
	caller, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing caller identity"})
	}

	filter := domain.RfqFilter{
		Status: domain.RfqStatus(c.QueryParam("status")),
	}
	page, limit := pagination(c)

	rfqs, total, err := h.rfqs.ListRfqs(c.Request().Context(), filter, domain.Page{Offset: (page - 1) * limit, Limit: limit}, caller)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, listResponse{Data: rfqs, Total: total, Page: page, Limit: limit})
}

func (h *RfqHandler) GetRfq(c echo.Context) error {
	rfq, err := h.rfqs.GetRfqByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, rfq)
}

func (h *RfqHandler) UpdateRfq(c echo.Context) error {
	caller, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing caller identity"})
	}

	var req updateRfqRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	rfq, err := h.rfqs.UpdateRfq(c.Request().Context(), c.Param("id"), services.UpdateRfqInput{
		Title:           req.Title,
		Description:     req.Description,
		Items:           req.Items,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    req.DeliveryDate,
		TargetPrice:     req.TargetPrice,
		Status:          req.Status,
		ExpiryDate:      req.ExpiryDate,
	}, caller)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, rfq)
}

func (h *RfqHandler) DeleteRfq(c echo.Context) error {
	caller, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing caller identity"})
	}

	if err := h.rfqs.DeleteRfq(c.Request().Context(), c.Param("id"), caller); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type inviteVendorsRequest struct {
	Vendors []vendorInviteRequest `json:"vendors"`
}

func (h *RfqHandler) InviteVendors(c echo.Context) error {
	caller, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing caller identity"})
	}

	var req inviteVendorsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if len(req.Vendors) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No vendors to invite"})
	}

	invites := make([]services.VendorInvite, 0, len(req.Vendors))
	for _, invite := range req.Vendors {
		invites = append(invites, services.VendorInvite{
			VendorID:   invite.VendorID,
			VendorName: invite.VendorName,
		})
	}

	rfq, err := h.rfqs.InviteVendors(c.Request().Context(), c.Param("id"), invites, caller)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, rfq)
}

type updateVendorStatusRequest struct {
	Status domain.VendorStatus `json:"status"`
}

func (h *RfqHandler) UpdateVendorStatus(c echo.Context) error {
	caller, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing caller identity"})
	}

	var req updateVendorStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	rfq, err := h.rfqs.UpdateVendorStatus(c.Request().Context(), c.Param("id"), c.Param("vendorId"), req.Status, caller)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, rfq)
}

func (h *RfqHandler) ListRfqQuotes(c echo.Context) error {
	caller, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing caller identity"})
	}

	quotes, err := h.quotes.ListQuotesForRfq(c.Request().Context(), c.Param("id"), caller)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": quotes})
}

func pagination(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 20
	}
	return page, limit
}
