package service

import (
	"context"
	"errors"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/checkoutpos/billing-api/internal/domain/entity"
	"github.com/checkoutpos/billing-api/internal/domain/repository"
	"github.com/checkoutpos/billing-api/pkg/apperror"
	"github.com/checkoutpos/billing-api/pkg/change"
	"github.com/checkoutpos/billing-api/pkg/email"
	"github.com/checkoutpos/billing-api/pkg/money"
	"github.com/checkoutpos/billing-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// InvoiceMailer is the slice of the email service the billing flow needs.
type InvoiceMailer interface {
	Configured() bool
	SendInvoice(toEmail string, data email.InvoiceData) error
}

// BillingService computes and commits sales and reconstructs persisted
// bills. The arithmetic lives in pure helpers; every side effect goes
// through the injected repositories.
type BillingService struct {
	billRepo      repository.BillRepository
	productRepo   repository.ProductRepository
	customerRepo  repository.CustomerRepository
	denomRepo     repository.DenominationRepository
	mailer        InvoiceMailer
	commitRetries int
}

// NewBillingService creates a new billing service. mailer may be nil when
// invoice delivery is disabled.
func NewBillingService(
	billRepo repository.BillRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	denomRepo repository.DenominationRepository,
	mailer InvoiceMailer,
	commitRetries int,
) *BillingService {
	if commitRetries < 1 {
		commitRetries = 1
	}
	return &BillingService{
		billRepo:      billRepo,
		productRepo:   productRepo,
		customerRepo:  customerRepo,
		denomRepo:     denomRepo,
		mailer:        mailer,
		commitRetries: commitRetries,
	}
}

// CartLineInput is one product/quantity pairing in a sale request.
type CartLineInput struct {
	ProductCode string
	Quantity    int
}

// CreateBillInput represents the create bill input. Denominations, when
// supplied, is the drawer state for this one transaction; when empty the
// persisted drawer is used and decremented on commit.
type CreateBillInput struct {
	CustomerEmail string
	Items         []CartLineInput
	PaidAmount    decimal.Decimal
	Denominations change.Ledger
}

// ComputedLineItem is one validated, priced cart line. Immutable once
// computed; it carries the product snapshot that will be persisted.
type ComputedLineItem struct {
	ProductID    uuid.UUID
	ProductCode  string
	ProductName  string
	Quantity     int
	UnitPrice    money.Money
	TaxRate      int64 // basis points
	LineSubtotal money.Money
	LineTax      money.Money
}

// ComputeLineItem validates a requested quantity against the product's
// stock and prices the line. Pure: no stock is mutated here - decrements
// happen only inside the atomic commit, so a failure on line three of a
// cart leaves lines one and two untouched.
func ComputeLineItem(product *entity.Product, quantity int) (ComputedLineItem, error) {
	if quantity <= 0 {
		return ComputedLineItem{}, apperror.NewBadRequestError("Quantity must be a positive integer")
	}
	if quantity > product.AvailableStocks {
		return ComputedLineItem{}, apperror.NewInsufficientStockError(product.Code)
	}

	subtotal := money.FromMinor(product.UnitPrice).MulInt(int64(quantity))
	tax := subtotal.MulPercent(product.TaxRate)

	return ComputedLineItem{
		ProductID:    product.ID,
		ProductCode:  product.Code,
		ProductName:  product.Name,
		Quantity:     quantity,
		UnitPrice:    money.FromMinor(product.UnitPrice),
		TaxRate:      product.TaxRate,
		LineSubtotal: subtotal,
		LineTax:      tax,
	}, nil
}

// CreateBillResult is the outcome of a committed sale.
type CreateBillResult struct {
	Bill               *entity.Bill      `json:"bill"`
	ChangeDistribution change.Allocation `json:"change_distribution"`
	Remainder          money.Money       `json:"remainder_unreturned"`
}

// CreateBill computes the sale and commits it atomically. A transaction
// conflict re-runs the whole computation - stock and drawer are read
// fresh each attempt - a bounded number of times before the sale fails
// as out of stock.
func (s *BillingService) CreateBill(ctx context.Context, input *CreateBillInput) (*CreateBillResult, error) {
	if len(input.Items) == 0 {
		return nil, apperror.NewBadRequestError("Cart must contain at least one item")
	}

	paid := money.FromDecimal(input.PaidAmount)
	if paid.IsNegative() {
		return nil, apperror.ErrInvalidPayment
	}

	var customer *entity.Customer
	if input.CustomerEmail != "" {
		var err error
		customer, err = s.customerRepo.FindOrCreateByEmail(ctx, input.CustomerEmail)
		if err != nil {
			return nil, err
		}
	}

	var result *CreateBillResult
	var err error
	for attempt := 0; attempt < s.commitRetries; attempt++ {
		result, err = s.attemptSale(ctx, customer, input, paid)
		if !errors.Is(err, repository.ErrTxConflict) {
			break
		}
	}
	if errors.Is(err, repository.ErrTxConflict) {
		// Re-validated every attempt and still conflicting: the stock or
		// drawer supply is effectively gone.
		return nil, apperror.NewConflictError("Insufficient stock to complete the sale")
	}
	if err != nil {
		return nil, err
	}

	if customer != nil && s.mailer != nil {
		go s.emailInvoice(customer.Email, result)
	}

	return result, nil
}

// attemptSale runs one full compute-and-commit pass against a fresh read
// of stock and drawer state.
func (s *BillingService) attemptSale(ctx context.Context, customer *entity.Customer, input *CreateBillInput, paid money.Money) (*CreateBillResult, error) {
	codes := make([]string, 0, len(input.Items))
	seen := make(map[string]bool, len(input.Items))
	for _, line := range input.Items {
		if !seen[line.ProductCode] {
			seen[line.ProductCode] = true
			codes = append(codes, line.ProductCode)
		}
	}

	products, err := s.productRepo.GetByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]*entity.Product, len(products))
	for i := range products {
		byCode[products[i].Code] = &products[i]
	}

	var subtotal, totalTax money.Money
	lines := make([]ComputedLineItem, 0, len(input.Items))
	for _, cartLine := range input.Items {
		product, exists := byCode[cartLine.ProductCode]
		if !exists {
			return nil, apperror.NewProductNotFoundError(cartLine.ProductCode)
		}
		line, err := ComputeLineItem(product, cartLine.Quantity)
		if err != nil {
			return nil, err
		}
		subtotal = subtotal.Add(line.LineSubtotal)
		totalTax = totalTax.Add(line.LineTax)
		lines = append(lines, line)
	}

	grandTotal := subtotal.Add(totalTax)
	owed := money.Max(paid.Sub(grandTotal), money.Zero)

	ledger := input.Denominations
	drawerBacked := false
	if len(ledger) == 0 {
		ledger, err = s.denomRepo.Ledger(ctx)
		if err != nil {
			return nil, err
		}
		drawerBacked = true
	}

	allocation, remainder := change.Allocate(owed, ledger)
	changeGiven := owed.Sub(remainder)

	blob, err := change.Encode(allocation)
	if err != nil {
		return nil, err
	}

	bill := &entity.Bill{
		Subtotal:        subtotal.Minor(),
		TotalTax:        totalTax.Minor(),
		GrandTotal:      grandTotal.Minor(),
		PaidAmount:      paid.Minor(),
		ChangeGiven:     changeGiven.Minor(),
		ChangeBreakdown: blob,
	}
	if customer != nil {
		bill.CustomerID = &customer.ID
	}

	items := make([]entity.BillItem, 0, len(lines))
	decrements := make([]repository.StockDecrement, 0, len(lines))
	for _, line := range lines {
		items = append(items, entity.BillItem{
			ProductID:   line.ProductID,
			ProductCode: line.ProductCode,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.Minor(),
			TaxRate:     line.TaxRate,
			LineTotal:   line.LineSubtotal.Minor(),
		})
		decrements = append(decrements, repository.StockDecrement{
			ProductID: line.ProductID,
			Code:      line.ProductCode,
			Quantity:  line.Quantity,
		})
	}
	bill.Items = items

	var drawerTake change.Allocation
	if drawerBacked {
		drawerTake = allocation
	}

	if err := s.billRepo.CreateAtomic(ctx, bill, decrements, drawerTake); err != nil {
		return nil, err
	}

	return &CreateBillResult{
		Bill:               bill,
		ChangeDistribution: allocation,
		Remainder:          remainder,
	}, nil
}

// BillItemView is one persisted line as rendered to callers. Tax is
// recomputed from the snapshot fields rather than read from a stored
// column.
type BillItemView struct {
	ProductCode string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	Quantity    int         `json:"quantity"`
	UnitPrice   money.Money `json:"unit_price"`
	TaxRate     string      `json:"tax_percentage"`
	Tax         money.Money `json:"tax"`
	LineTotal   money.Money `json:"line_total"`
}

// BillDetails is the external-facing reconstruction of a persisted bill.
type BillDetails struct {
	Bill               *entity.Bill      `json:"bill"`
	Items              []BillItemView    `json:"items"`
	ChangeDistribution change.Allocation `json:"change_distribution"`
	Remainder          money.Money       `json:"remainder_unreturned"`
}

// GetBillDetails reconstructs a bill from storage. A missing or corrupt
// change breakdown degrades to a zero table over the standard
// denomination set instead of failing the read.
func (s *BillingService) GetBillDetails(ctx context.Context, id uuid.UUID) (*BillDetails, error) {
	bill, err := s.billRepo.GetWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}

	items := make([]BillItemView, 0, len(bill.Items))
	for _, item := range bill.Items {
		lineTotal := money.FromMinor(item.LineTotal)
		items = append(items, BillItemView{
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   money.FromMinor(item.UnitPrice),
			TaxRate:     money.BasisPointsDecimal(item.TaxRate).StringFixed(2),
			Tax:         lineTotal.MulPercent(item.TaxRate),
			LineTotal:   lineTotal,
		})
	}

	allocation := change.Decode(bill.ChangeBreakdown)
	remainder := bill.OwedChange().Sub(money.FromMinor(bill.ChangeGiven))

	return &BillDetails{
		Bill:               bill,
		Items:              items,
		ChangeDistribution: allocation,
		Remainder:          remainder,
	}, nil
}

// ListBillsByEmail returns a customer's purchase history, newest first.
// An unknown email yields an empty page, not an error.
func (s *BillingService) ListBillsByEmail(ctx context.Context, customerEmail string, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.Bill], error) {
	customer, err := s.customerRepo.GetByEmail(ctx, customerEmail)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		params.Validate()
		return pagination.NewPaginatedResult([]entity.Bill{}, pagination.NewPagination(params.Page, params.PerPage, 0)), nil
	}

	bills, total, err := s.billRepo.ListByCustomer(ctx, customer.ID, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(bills, pag), nil
}

// InvoiceData assembles the formatted view the invoice template and
// mailer consume.
func (s *BillingService) InvoiceData(details *BillDetails, customerEmail string) email.InvoiceData {
	lines := make([]email.InvoiceLine, 0, len(details.Items))
	for _, item := range details.Items {
		lines = append(lines, email.InvoiceLine{
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
			TaxRate:     item.TaxRate,
			Tax:         item.Tax.String(),
			LineTotal:   item.LineTotal.String(),
		})
	}

	denoms := make([]email.InvoiceDenomination, 0, len(details.ChangeDistribution))
	for value, count := range details.ChangeDistribution {
		denoms = append(denoms, email.InvoiceDenomination{Value: value, Count: count})
	}
	sort.Slice(denoms, func(i, j int) bool { return denoms[i].Value > denoms[j].Value })

	remainder := ""
	if !details.Remainder.IsZero() {
		remainder = details.Remainder.String()
	}

	bill := details.Bill
	return email.InvoiceData{
		BillID:        bill.ID.String(),
		CustomerEmail: customerEmail,
		CreatedAt:     bill.CreatedAt,
		Items:         lines,
		Subtotal:      money.FromMinor(bill.Subtotal).String(),
		TotalTax:      money.FromMinor(bill.TotalTax).String(),
		GrandTotal:    money.FromMinor(bill.GrandTotal).String(),
		PaidAmount:    money.FromMinor(bill.PaidAmount).String(),
		ChangeGiven:   money.FromMinor(bill.ChangeGiven).String(),
		Remainder:     remainder,
		Change:        denoms,
	}
}

// emailInvoice delivers the invoice in the background. Delivery problems
// are logged, never surfaced to the sale.
func (s *BillingService) emailInvoice(customerEmail string, result *CreateBillResult) {
	if !s.mailer.Configured() {
		log.Printf("SMTP not configured, skipping invoice for bill %s to %s", result.Bill.ID, customerEmail)
		return
	}

	items := make([]BillItemView, 0, len(result.Bill.Items))
	for _, item := range result.Bill.Items {
		lineTotal := money.FromMinor(item.LineTotal)
		items = append(items, BillItemView{
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   money.FromMinor(item.UnitPrice),
			TaxRate:     money.BasisPointsDecimal(item.TaxRate).StringFixed(2),
			Tax:         lineTotal.MulPercent(item.TaxRate),
			LineTotal:   lineTotal,
		})
	}
	details := &BillDetails{
		Bill:               result.Bill,
		Items:              items,
		ChangeDistribution: result.ChangeDistribution,
		Remainder:          result.Remainder,
	}

	if err := s.mailer.SendInvoice(customerEmail, s.InvoiceData(details, customerEmail)); err != nil {
		log.Printf("Warning: failed to send invoice for bill %s to %s: %v", result.Bill.ID, customerEmail, err)
	}
}
