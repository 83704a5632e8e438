package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/checkoutpos/billing-api/internal/domain/entity"
	"github.com/checkoutpos/billing-api/internal/domain/repository"
	"github.com/checkoutpos/billing-api/pkg/apperror"
	"github.com/checkoutpos/billing-api/pkg/change"
	"github.com/checkoutpos/billing-api/pkg/money"
	"github.com/checkoutpos/billing-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory stand-in for the persistence layer. Its
// CreateAtomic mirrors the real repository's contract: conditional
// decrements, all-or-nothing, serialized by a mutex.
type fakeStore struct {
	mu        sync.Mutex
	products  map[string]*entity.Product
	customers map[string]*entity.Customer
	bills     map[uuid.UUID]*entity.Bill
	drawer    map[int64]int

	// conflictsLeft fails that many CreateAtomic calls with ErrTxConflict
	// before letting one through.
	conflictsLeft int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:  make(map[string]*entity.Product),
		customers: make(map[string]*entity.Customer),
		bills:     make(map[uuid.UUID]*entity.Bill),
		drawer:    make(map[int64]int),
	}
}

func (f *fakeStore) addProduct(code, name string, priceMinor, taxBps int64, stock int) {
	f.products[code] = &entity.Product{
		ID:              uuid.New(),
		Code:            code,
		Name:            name,
		UnitPrice:       priceMinor,
		TaxRate:         taxBps,
		AvailableStocks: stock,
	}
}

type fakeProductRepo struct{ s *fakeStore }

func (r *fakeProductRepo) Create(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	product.ID = uuid.New()
	r.s.products[product.Code] = product
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) GetByCode(_ context.Context, code string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[code]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetByCodes(_ context.Context, codes []string) ([]entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entity.Product, 0, len(codes))
	for _, code := range codes {
		if p, ok := r.s.products[code]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) List(_ context.Context, _ *pagination.PaginationParams, _ string) ([]entity.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

type fakeCustomerRepo struct{ s *fakeStore }

func (r *fakeCustomerRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.customers {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCustomerRepo) GetByEmail(_ context.Context, email string) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[email]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCustomerRepo) FindOrCreateByEmail(_ context.Context, email string) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.customers[email]; ok {
		cp := *c
		return &cp, nil
	}
	c := &entity.Customer{ID: uuid.New(), Email: email}
	r.s.customers[email] = c
	cp := *c
	return &cp, nil
}

type fakeBillRepo struct{ s *fakeStore }

func (r *fakeBillRepo) CreateAtomic(_ context.Context, bill *entity.Bill, decrements []repository.StockDecrement, drawerTake change.Allocation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.conflictsLeft > 0 {
		r.s.conflictsLeft--
		return repository.ErrTxConflict
	}

	// Validate everything before touching anything.
	for _, d := range decrements {
		var target *entity.Product
		for _, p := range r.s.products {
			if p.ID == d.ProductID {
				target = p
				break
			}
		}
		if target == nil || target.AvailableStocks < d.Quantity {
			code := d.Code
			if target != nil {
				code = target.Code
			}
			return apperror.NewInsufficientStockError(code)
		}
	}
	for value, count := range drawerTake {
		if count > 0 && r.s.drawer[value] < count {
			return repository.ErrTxConflict
		}
	}

	for _, d := range decrements {
		for _, p := range r.s.products {
			if p.ID == d.ProductID {
				p.AvailableStocks -= d.Quantity
			}
		}
	}
	for value, count := range drawerTake {
		if count > 0 {
			r.s.drawer[value] -= count
		}
	}

	bill.ID = uuid.New()
	cp := *bill
	r.s.bills[bill.ID] = &cp
	return nil
}

func (r *fakeBillRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Bill, error) {
	return r.GetWithItems(context.Background(), id)
}

func (r *fakeBillRepo) GetWithItems(_ context.Context, id uuid.UUID) (*entity.Bill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bills[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBillRepo) ListByCustomer(_ context.Context, customerID uuid.UUID, _ *pagination.PaginationParams) ([]entity.Bill, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.Bill{}
	for _, b := range r.s.bills {
		if b.CustomerID != nil && *b.CustomerID == customerID {
			out = append(out, *b)
		}
	}
	return out, int64(len(out)), nil
}

type fakeDenomRepo struct{ s *fakeStore }

func (r *fakeDenomRepo) List(_ context.Context) ([]entity.Denomination, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entity.Denomination, 0, len(r.s.drawer))
	for value, count := range r.s.drawer {
		out = append(out, entity.Denomination{Value: value, AvailableCount: count})
	}
	return out, nil
}

func (r *fakeDenomRepo) Ledger(_ context.Context) (change.Ledger, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ledger := make(change.Ledger, len(r.s.drawer))
	for value, count := range r.s.drawer {
		ledger[value] = count
	}
	return ledger, nil
}

func (r *fakeDenomRepo) Replace(_ context.Context, counts map[int64]int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.drawer = make(map[int64]int, len(counts))
	for value, count := range counts {
		r.s.drawer[value] = count
	}
	return nil
}

func newBillingService(s *fakeStore, retries int) *BillingService {
	return NewBillingService(
		&fakeBillRepo{s},
		&fakeProductRepo{s},
		&fakeCustomerRepo{s},
		&fakeDenomRepo{s},
		nil,
		retries,
	)
}

func TestCreateBillEndToEnd(t *testing.T) {
	s := newFakeStore()
	s.addProduct("P001", "Pencil", 1200, 500, 100)  // 12.00 @ 5%
	s.addProduct("P002", "Notebook", 4500, 1200, 50) // 45.00 @ 12%

	svc := newBillingService(s, 3)

	// 3 pencils: 36.00 + 1.80 tax; totals 36.00 / 1.80 / 37.80.
	result, err := svc.CreateBill(context.Background(), &CreateBillInput{
		CustomerEmail: "jo@example.com",
		Items:         []CartLineInput{{ProductCode: "P001", Quantity: 3}},
		PaidAmount:    decimal.RequireFromString("50.00"),
		Denominations: change.Ledger{20: 5, 10: 5, 5: 5, 2: 5, 1: 5},
	})
	require.NoError(t, err)

	bill := result.Bill
	assert.Equal(t, int64(3600), bill.Subtotal)
	assert.Equal(t, int64(180), bill.TotalTax)
	assert.Equal(t, int64(3780), bill.GrandTotal)
	assert.Equal(t, int64(5000), bill.PaidAmount)

	// Owed 12.20: 10 + 2 = 12.00 given, 0.20 unrepresentable.
	assert.Equal(t, int64(1200), bill.ChangeGiven)
	assert.Equal(t, money.FromMinor(20), result.Remainder)
	assert.Equal(t, 1, result.ChangeDistribution[10])
	assert.Equal(t, 1, result.ChangeDistribution[2])

	// Conservation: change_given + remainder == max(0, paid - grand).
	owed := bill.OwedChange()
	assert.Equal(t, owed, money.FromMinor(bill.ChangeGiven).Add(result.Remainder))

	// Stock decremented exactly once.
	assert.Equal(t, 97, s.products["P001"].AvailableStocks)

	// Line item snapshot persisted.
	require.Len(t, bill.Items, 1)
	item := bill.Items[0]
	assert.Equal(t, "P001", item.ProductCode)
	assert.Equal(t, "Pencil", item.ProductName)
	assert.Equal(t, int64(1200), item.UnitPrice)
	assert.Equal(t, int64(500), item.TaxRate)
	assert.Equal(t, int64(3600), item.LineTotal)
}

func TestCreateBillExactChange(t *testing.T) {
	s := newFakeStore()
	s.addProduct("P001", "Pencil", 1200, 500, 100)

	svc := newBillingService(s, 3)

	// Grand total 37.80, paid 50.80 -> owed 13.00, fully representable.
	result, err := svc.CreateBill(context.Background(), &CreateBillInput{
		CustomerEmail: "jo@example.com",
		Items:         []CartLineInput{{ProductCode: "P001", Quantity: 3}},
		PaidAmount:    decimal.RequireFromString("50.80"),
		Denominations: change.Ledger{10: 5, 2: 5, 1: 5},
	})
	require.NoError(t, err)

	assert.True(t, result.Remainder.IsZero())
	assert.Equal(t, int64(1300), result.Bill.ChangeGiven)
	assert.Equal(t, 1, result.ChangeDistribution[10])
	assert.Equal(t, 1, result.ChangeDistribution[2])
	assert.Equal(t, 1, result.ChangeDistribution[1])
}

func TestCreateBillExactPaymentNoChange(t *testing.T) {
	s := newFakeStore()
	s.addProduct("P001", "Pencil", 1200, 500, 100)

	svc := newBillingService(s, 3)

	result, err := svc.CreateBill(context.Background(), &CreateBillInput{
		CustomerEmail: "jo@example.com",
		Items:         []CartLineInput{{ProductCode: "P001", Quantity: 3}},
		PaidAmount:    decimal.RequireFromString("37.80"),
		Denominations: change.Ledger{10: 5, 1: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.Bill.ChangeGiven)
	assert.True(t, result.Remainder.IsZero())
	for _, count := range result.ChangeDistribution {
		assert.Zero(t, count)
	}
}

func TestCreateBillProductNotFound(t *testing.T) {
	s := newFakeStore()
	svc := newBillingService(s, 3)

	_, err := svc.CreateBill(context.Background(), &CreateBillInput{
		CustomerEmail: "jo@example.com",
		Items:         []CartLineInput{{ProductCode: "NOPE", Quantity: 1}},
		PaidAmount:    decimal.RequireFromString("10.00"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.Contains(t, err.Error(), "NOPE")
}

func TestCreateBillNegativePayment(t *testing.T) {
	s := newFakeStore()
	s.addProduct("P001", "Pencil", 1200, 500, 100)
	svc := newBillingService(s, 3)

	_, err := svc.CreateBill(context.Background(), &CreateBillInput{
		CustomerEmail: "jo@example.com",
		Items:         []CartLineInput{{ProductCode: "P001", Quantity: 1}},
		PaidAmount:    decimal.RequireFromString("-0.01"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrInvalidPayment)
}

func TestCreateBillInsufficientStock(t *testing.T) {
	s := newFakeStore()
	s.addProduct("P001", "Pencil", 1200, 500, 2)
	svc := newBillingService(s, 3)

	_, err := svc.CreateBill(context.Background(), &CreateBillInput{
		CustomerEmail: "jo@example.com",
		Items:         []CartLineInput{{ProductCode: "P001", Quantity: 3}},
		PaidAmount:    decimal.RequireFromString("100.00"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// Nothing was decremented.
	assert.Equal(t, 2, s.products["P001"].AvailableStocks)
}

func TestCreateBillStockBoundary(t *testing.T) {
	s := newFakeStore()
	s.addProduct("P001", "Pencil", 1200, 500, 5)
	svc := newBillingService(s, 3)

	// Buying exactly the available stock succeeds and drains it to zero.
	_, err := svc.CreateBill(context.Background(), &CreateBillInput{
		CustomerEmail: "jo@example.com",
		Items:         []CartLineInput{{ProductCode: "P001", Quantity: 5}},
		PaidAmount:    decimal.RequireFromString("100.00"),
		Denominations: change.Ledger{1: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, s.products["P001"].AvailableStocks)

	// One more unit is a conflict, stock untouched.
	_, err = svc.CreateBill(context.Background(), &CreateBillInput{
		CustomerEmail: "jo@example.com",
		Items:         []CartLineInput{{ProductCode: "P001", Quantity: 1}},
		PaidAmount:    decimal.RequireFromString("100.00"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, 0, s.products["P001"].AvailableStocks)
}

func TestCreateBillZeroQuantity(t *testing.T) {
	s := newFakeStore()
	s.addProduct("P001", "Pencil", 1200, 500, 100)
	svc := newBillingService(s, 3)

	_, err := svc.CreateBill(context.Background(), &CreateBillInput{
		CustomerEmail: "jo@example.com",
		Items:         []CartLineInput{{ProductCode: "P001", Quantity: 0}},
		PaidAmount:    decimal.RequireFromString("10.00"),
	})
	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, 400, appErr.Code)
}

func TestCreateBillRetriesOnConflict(t *testing.T) {
	s := newFakeStore()
	s.addProduct("P001", "Pencil", 1200, 500, 100)
	s.conflictsLeft = 2

	svc := newBillingService(s, 3)

	result, err := svc.CreateBill(context.Background(), &CreateBillInput{
		CustomerEmail: "jo@example.com",
		Items:         []CartLineInput{{ProductCode: "P001", Quantity: 1}},
		PaidAmount:    decimal.RequireFromString("15.00"),
		Denominations: change.Ledger{1: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 99, s.products["P001"].AvailableStocks)
	assert.Equal(t, int64(1260), result.Bill.GrandTotal)
}

func TestCreateBillConflictRetriesExhausted(t *testing.T) {
	s := newFakeStore()
	s.addProduct("P001", "Pencil", 1200, 500, 100)
	s.conflictsLeft = 10

	svc := newBillingService(s, 3)

	_, err := svc.CreateBill(context.Background(), &CreateBillInput{
		CustomerEmail: "jo@example.com",
		Items:         []CartLineInput{{ProductCode: "P001", Quantity: 1}},
		PaidAmount:    decimal.RequireFromString("15.00"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, 100, s.products["P001"].AvailableStocks)
}

func TestCreateBillDrawerBackedLedger(t *testing.T) {
	s := newFakeStore()
	s.addProduct("P001", "Pencil", 1200, 500, 100)
	s.drawer = map[int64]int{10: 2, 2: 2, 1: 2}

	svc := newBillingService(s, 3)

	// Grand 12.60, paid 25.60 -> owed 13.00 = 10 + 2 + 1.
	result, err := svc.CreateBill(context.Background(), &CreateBillInput{
		CustomerEmail: "jo@example.com",
		Items:         []CartLineInput{{ProductCode: "P001", Quantity: 1}},
		PaidAmount:    decimal.RequireFromString("25.60"),
	})
	require.NoError(t, err)
	assert.True(t, result.Remainder.IsZero())

	// Drawer decremented inside the same commit.
	assert.Equal(t, 1, s.drawer[10])
	assert.Equal(t, 1, s.drawer[2])
	assert.Equal(t, 1, s.drawer[1])
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	const stock = 7
	const workers = 20

	s := newFakeStore()
	s.addProduct("P001", "Pencil", 1200, 500, stock)
	svc := newBillingService(s, 3)

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateBill(context.Background(), &CreateBillInput{
				CustomerEmail: "jo@example.com",
				Items:         []CartLineInput{{ProductCode: "P001", Quantity: 1}},
				PaidAmount:    decimal.RequireFromString("15.00"),
				Denominations: change.Ledger{1: 10},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperror.IsInsufficientStock(err), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, stock, succeeded)
	assert.Equal(t, 0, s.products["P001"].AvailableStocks)
}

func TestGetBillDetails(t *testing.T) {
	s := newFakeStore()
	s.addProduct("P001", "Pencil", 1200, 500, 100)
	svc := newBillingService(s, 3)

	created, err := svc.CreateBill(context.Background(), &CreateBillInput{
		CustomerEmail: "jo@example.com",
		Items:         []CartLineInput{{ProductCode: "P001", Quantity: 3}},
		PaidAmount:    decimal.RequireFromString("50.80"),
		Denominations: change.Ledger{10: 5, 2: 5, 1: 5},
	})
	require.NoError(t, err)

	details, err := svc.GetBillDetails(context.Background(), created.Bill.ID)
	require.NoError(t, err)

	require.Len(t, details.Items, 1)
	item := details.Items[0]
	assert.Equal(t, "P001", item.ProductCode)
	assert.Equal(t, "5.00", item.TaxRate)
	// Tax recomputed from the snapshot: 36.00 * 5% = 1.80.
	assert.Equal(t, money.FromMinor(180), item.Tax)
	assert.Equal(t, money.FromMinor(3600), item.LineTotal)

	assert.Equal(t, 1, details.ChangeDistribution[10])
	assert.Equal(t, 1, details.ChangeDistribution[2])
	assert.Equal(t, 1, details.ChangeDistribution[1])
	assert.True(t, details.Remainder.IsZero())
}

func TestGetBillDetailsNotFound(t *testing.T) {
	s := newFakeStore()
	svc := newBillingService(s, 3)

	_, err := svc.GetBillDetails(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestGetBillDetailsCorruptBreakdownDegrades(t *testing.T) {
	s := newFakeStore()
	svc := newBillingService(s, 3)

	id := uuid.New()
	s.bills[id] = &entity.Bill{
		ID:              id,
		Subtotal:        1000,
		GrandTotal:      1000,
		PaidAmount:      1000,
		ChangeBreakdown: "{not json",
	}

	details, err := svc.GetBillDetails(context.Background(), id)
	require.NoError(t, err)

	// Full zero table over the standard set.
	assert.Len(t, details.ChangeDistribution, len(change.Standard))
	for _, d := range change.Standard {
		count, present := details.ChangeDistribution[d]
		assert.True(t, present)
		assert.Zero(t, count)
	}
}

func TestListBillsByEmail(t *testing.T) {
	s := newFakeStore()
	s.addProduct("P001", "Pencil", 1200, 500, 100)
	svc := newBillingService(s, 3)

	for i := 0; i < 2; i++ {
		_, err := svc.CreateBill(context.Background(), &CreateBillInput{
			CustomerEmail: "jo@example.com",
			Items:         []CartLineInput{{ProductCode: "P001", Quantity: 1}},
			PaidAmount:    decimal.RequireFromString("12.60"),
			Denominations: change.Ledger{1: 10},
		})
		require.NoError(t, err)
	}

	params := pagination.DefaultPagination()
	result, err := svc.ListBillsByEmail(context.Background(), "jo@example.com", params)
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, int64(2), result.Pagination.Total)

	// An unknown email is an empty page, not an error.
	empty, err := svc.ListBillsByEmail(context.Background(), "nobody@example.com", pagination.DefaultPagination())
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}

func TestComputeLineItemTaxRounding(t *testing.T) {
	product := &entity.Product{
		ID:              uuid.New(),
		Code:            "P003",
		Name:            "Eraser",
		UnitPrice:       333, // 3.33
		TaxRate:         750, // 7.5%
		AvailableStocks: 10,
	}

	line, err := ComputeLineItem(product, 3)
	require.NoError(t, err)

	// 9.99 * 7.5% = 0.74925 -> 0.75, ties and fractions away from zero.
	assert.Equal(t, money.FromMinor(999), line.LineSubtotal)
	assert.Equal(t, money.FromMinor(75), line.LineTax)
}
