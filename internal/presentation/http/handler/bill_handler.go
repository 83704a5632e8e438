package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/checkoutpos/billing-api/internal/application/service"
	"github.com/checkoutpos/billing-api/internal/presentation/http/dto/request"
	"github.com/checkoutpos/billing-api/internal/presentation/http/dto/response"
	"github.com/checkoutpos/billing-api/pkg/change"
	"github.com/checkoutpos/billing-api/pkg/email"
	"github.com/checkoutpos/billing-api/pkg/pagination"
)

// BillHandler handles billing-related HTTP requests
type BillHandler struct {
	billingService *service.BillingService
}

// NewBillHandler creates a new bill handler
func NewBillHandler(billingService *service.BillingService) *BillHandler {
	return &BillHandler{billingService: billingService}
}

// Create handles creating a bill from a cart and tendered payment
func (h *BillHandler) Create(c *gin.Context) {
	var req request.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	items := make([]service.CartLineInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CartLineInput{
			ProductCode: item.ProductCode,
			Quantity:    item.Quantity,
		})
	}

	var ledger change.Ledger
	if len(req.Denominations) > 0 {
		ledger = make(change.Ledger, len(req.Denominations))
		for _, d := range req.Denominations {
			ledger[d.Value] += d.Count
		}
	}

	result, err := h.billingService.CreateBill(c.Request.Context(), &service.CreateBillInput{
		CustomerEmail: req.CustomerEmail,
		Items:         items,
		PaidAmount:    req.PaidAmount,
		Denominations: ledger,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Bill created successfully", result)
}

// Get handles retrieving a bill with its items and change breakdown
func (h *BillHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Bill not found")
		return
	}

	details, err := h.billingService.GetBillDetails(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill retrieved successfully", details)
}

// Preview renders the bill's invoice as HTML, the same markup the
// customer receives by email.
func (h *BillHandler) Preview(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Bill not found")
		return
	}

	details, err := h.billingService.GetBillDetails(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	customerEmail := ""
	if details.Bill.Customer != nil {
		customerEmail = details.Bill.Customer.Email
	}

	html, err := email.RenderInvoice(h.billingService.InvoiceData(details, customerEmail))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Data(200, "text/html; charset=utf-8", []byte(html))
}

// List handles listing a customer's bills by email, newest first
func (h *BillHandler) List(c *gin.Context) {
	customerEmail := c.Query("email")
	if customerEmail == "" {
		response.BadRequest(c, "Query parameter 'email' is required")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))

	params := &pagination.PaginationParams{
		Page:    page,
		PerPage: perPage,
	}
	params.Validate()

	result, err := h.billingService.ListBillsByEmail(c.Request.Context(), customerEmail, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Bills retrieved successfully", result)
}
