package order

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkabwela/shopline-backend/internal/modules/auth"
	"github.com/tkabwela/shopline-backend/internal/modules/cart"
	"github.com/tkabwela/shopline-backend/internal/modules/catalog"
)

// fakeCatalog implements catalog.Repository and catalog.StockLedger with the
// same conditional-decrement semantics the postgres store guarantees: the
// stock check and the write happen under one lock, so concurrent decrements
// can never oversell.
type fakeCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]*catalog.Product

	// failDecrement forces DecrementStock to fail for a product even when
	// validation saw enough stock, simulating a concurrent depletion.
	failDecrement map[uuid.UUID]bool
}

func newFakeCatalog(products ...*catalog.Product) *fakeCatalog {
	f := &fakeCatalog{
		products:      make(map[uuid.UUID]*catalog.Product),
		failDecrement: make(map[uuid.UUID]bool),
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeCatalog) Create(ctx context.Context, p *catalog.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
	return nil
}

func (f *fakeCatalog) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, catalog.ErrProductNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[uid]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCatalog) List(ctx context.Context, filter catalog.ListFilter) ([]*catalog.Product, error) {
	return nil, nil
}

func (f *fakeCatalog) Update(ctx context.Context, p *catalog.Product) error { return nil }
func (f *fakeCatalog) Delete(ctx context.Context, id string) error          { return nil }

func (f *fakeCatalog) DecrementStock(ctx context.Context, productID string, qty int) error {
	uid, err := uuid.Parse(productID)
	if err != nil {
		return catalog.ErrProductNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[uid]
	if !ok {
		return catalog.ErrProductNotFound
	}
	if f.failDecrement[uid] || p.Stock < qty {
		return &catalog.InsufficientStockError{ProductID: uid, Requested: qty, Available: p.Stock}
	}
	if p.Status != catalog.StatusActive {
		return &catalog.ProductUnavailableError{ProductID: uid}
	}
	p.Stock -= qty
	p.Status = catalog.DeriveStatus(p.Status, p.Stock)
	return nil
}

func (f *fakeCatalog) RestoreStock(ctx context.Context, productID string, qty int) error {
	uid, err := uuid.Parse(productID)
	if err != nil {
		return catalog.ErrProductNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[uid]
	if !ok {
		return catalog.ErrProductNotFound
	}
	p.Stock += qty
	p.Status = catalog.DeriveStatus(p.Status, p.Stock)
	return nil
}

func (f *fakeCatalog) stock(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

type fakeCartRepo struct {
	mu    sync.Mutex
	carts map[string]*cart.Cart

	clearErr error
	cleared  []string
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[string]*cart.Cart)}
}

func (f *fakeCartRepo) GetByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[userID]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	return c, nil
}

func (f *fakeCartRepo) Create(ctx context.Context, c *cart.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[c.UserID.String()] = c
	return nil
}

func (f *fakeCartRepo) Save(ctx context.Context, c *cart.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[c.UserID.String()] = c
	return nil
}

func (f *fakeCartRepo) Clear(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	if c, ok := f.carts[userID]; ok {
		c.Items = nil
		c.Recalculate()
	}
	f.cleared = append(f.cleared, userID)
	return nil
}

// fakeOrderRepo mirrors the guarded status update of the postgres repo: the
// prior-status check and the write are one critical section.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*Order

	createErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*Order)}
}

func (f *fakeOrderRepo) Create(ctx context.Context, o *Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.orders[o.ID.String()] = o
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	cp.Items = append([]*OrderItem(nil), o.Items...)
	cp.StatusHistory = append([]*StatusEntry(nil), o.StatusHistory...)
	return &cp, nil
}

func (f *fakeOrderRepo) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Order
	for _, o := range f.orders {
		if o.UserID.String() == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) List(ctx context.Context, status string) ([]*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Order
	for _, o := range f.orders {
		if status == "" || string(o.Status) == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id string, from, to OrderStatus, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if o.Status != from {
		return ErrStatusConflict
	}
	o.Status = to
	o.StatusHistory = append(o.StatusHistory, &StatusEntry{Status: to, Note: note})
	return nil
}

func (f *fakeOrderRepo) SetPaymentStatus(ctx context.Context, id string, status PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.PaymentStatus = status
	return nil
}

func (f *fakeOrderRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activeProduct(price float64, stock int) *catalog.Product {
	return &catalog.Product{
		ID:     uuid.New(),
		Name:   "widget",
		Price:  price,
		Stock:  stock,
		Status: catalog.StatusActive,
	}
}

func cartWith(userID uuid.UUID, lines ...*cart.CartItem) *cart.Cart {
	c := &cart.Cart{ID: uuid.New(), UserID: userID, Items: lines}
	c.Recalculate()
	return c
}

func line(p *catalog.Product, qty int) *cart.CartItem {
	return &cart.CartItem{
		ID:        uuid.New(),
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  qty,
		UnitPrice: p.Price,
	}
}

func validRequest() PlaceOrderRequest {
	return PlaceOrderRequest{
		ShippingAddress: ShippingAddress{Line1: "12 Market St", City: "Lusaka", Country: "Zambia"},
		PaymentMethod:   MethodCOD,
	}
}

func owner(id uuid.UUID) auth.Caller {
	return auth.Caller{UserID: id.String(), Role: auth.RoleCustomer}
}

var admin = auth.Caller{UserID: uuid.New().String(), Role: auth.RoleAdmin}

// ── placement ────────────────────────────────────────────────────────────────

func TestPlaceOrder_Success(t *testing.T) {
	userID := uuid.New()
	p := activeProduct(100, 5)
	products := newFakeCatalog(p)
	carts := newFakeCartRepo()
	carts.carts[userID.String()] = cartWith(userID, line(p, 2))
	orders := newFakeOrderRepo()

	svc := NewService(orders, carts, products, products, nil, testLogger())
	o, err := svc.PlaceOrder(context.Background(), userID.String(), validRequest())
	require.NoError(t, err)

	require.Len(t, o.Items, 1)
	assert.Equal(t, p.ID, o.Items[0].ProductID)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, 100.0, o.Items[0].UnitPrice)
	assert.Equal(t, 200.0, o.Items[0].LineSubtotal)

	assert.Equal(t, StatusPlaced, o.Status)
	require.Len(t, o.StatusHistory, 1)
	assert.Equal(t, StatusPlaced, o.StatusHistory[0].Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)

	assert.Equal(t, 200.0, o.Subtotal)
	assert.Equal(t, flatShippingCharge, o.ShippingCharges)
	assert.Equal(t, 32.0, o.Tax)
	assert.Equal(t, 281.0, o.Total)

	assert.Equal(t, 3, products.stock(p.ID))
	assert.Empty(t, carts.carts[userID.String()].Items)
	assert.Equal(t, 1, orders.count())
}

func TestPlaceOrder_FreeShippingAboveThreshold(t *testing.T) {
	userID := uuid.New()
	p := activeProduct(300, 10)
	products := newFakeCatalog(p)
	carts := newFakeCartRepo()
	carts.carts[userID.String()] = cartWith(userID, line(p, 2))
	orders := newFakeOrderRepo()

	svc := NewService(orders, carts, products, products, nil, testLogger())
	o, err := svc.PlaceOrder(context.Background(), userID.String(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 600.0, o.Subtotal)
	assert.Equal(t, 0.0, o.ShippingCharges)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	userID := uuid.New()
	products := newFakeCatalog()
	carts := newFakeCartRepo()
	orders := newFakeOrderRepo()
	svc := NewService(orders, carts, products, products, nil, testLogger())

	_, err := svc.PlaceOrder(context.Background(), userID.String(), validRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)

	carts.carts[userID.String()] = cartWith(userID)
	_, err = svc.PlaceOrder(context.Background(), userID.String(), validRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, orders.count())
}

func TestPlaceOrder_FailsFastBeforeMutating(t *testing.T) {
	userID := uuid.New()
	inStock := activeProduct(100, 5)
	scarce := activeProduct(50, 1)
	products := newFakeCatalog(inStock, scarce)
	carts := newFakeCartRepo()
	carts.carts[userID.String()] = cartWith(userID, line(inStock, 2), line(scarce, 2))
	orders := newFakeOrderRepo()

	svc := NewService(orders, carts, products, products, nil, testLogger())
	_, err := svc.PlaceOrder(context.Background(), userID.String(), validRequest())

	var stockErr *catalog.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, scarce.ID, stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)

	// validation failed before any decrement, so nothing moved
	assert.Equal(t, 5, products.stock(inStock.ID))
	assert.Equal(t, 1, products.stock(scarce.ID))
	assert.Equal(t, 0, orders.count())
	assert.Len(t, carts.carts[userID.String()].Items, 2)
}

func TestPlaceOrder_InactiveProductRejected(t *testing.T) {
	userID := uuid.New()
	p := activeProduct(100, 5)
	p.Status = catalog.StatusInactive
	products := newFakeCatalog(p)
	carts := newFakeCartRepo()
	carts.carts[userID.String()] = cartWith(userID, line(p, 1))
	orders := newFakeOrderRepo()

	svc := NewService(orders, carts, products, products, nil, testLogger())
	_, err := svc.PlaceOrder(context.Background(), userID.String(), validRequest())

	var unavailErr *catalog.ProductUnavailableError
	require.ErrorAs(t, err, &unavailErr)
	assert.Equal(t, p.ID, unavailErr.ProductID)
	assert.Equal(t, 0, orders.count())
}

func TestPlaceOrder_RollsBackDecrementsOnPartialFailure(t *testing.T) {
	userID := uuid.New()
	first := activeProduct(100, 5)
	second := activeProduct(50, 5)
	products := newFakeCatalog(first, second)
	products.failDecrement[second.ID] = true
	carts := newFakeCartRepo()
	carts.carts[userID.String()] = cartWith(userID, line(first, 2), line(second, 1))
	orders := newFakeOrderRepo()

	svc := NewService(orders, carts, products, products, nil, testLogger())
	_, err := svc.PlaceOrder(context.Background(), userID.String(), validRequest())

	var stockErr *catalog.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	// the decrement that had succeeded was compensated
	assert.Equal(t, 5, products.stock(first.ID))
	assert.Equal(t, 5, products.stock(second.ID))
	assert.Equal(t, 0, orders.count())
	assert.Len(t, carts.carts[userID.String()].Items, 2)
}

func TestPlaceOrder_RollsBackWhenPersistFails(t *testing.T) {
	userID := uuid.New()
	p := activeProduct(100, 5)
	products := newFakeCatalog(p)
	carts := newFakeCartRepo()
	carts.carts[userID.String()] = cartWith(userID, line(p, 3))
	orders := newFakeOrderRepo()
	orders.createErr = errors.New("connection reset")

	svc := NewService(orders, carts, products, products, nil, testLogger())
	_, err := svc.PlaceOrder(context.Background(), userID.String(), validRequest())
	require.Error(t, err)

	assert.Equal(t, 5, products.stock(p.ID))
	assert.Equal(t, 0, orders.count())
	assert.Len(t, carts.carts[userID.String()].Items, 1)
}

func TestPlaceOrder_ConcurrentCheckoutsCannotOversell(t *testing.T) {
	p := activeProduct(100, 3)
	products := newFakeCatalog(p)
	carts := newFakeCartRepo()
	orders := newFakeOrderRepo()

	userA, userB := uuid.New(), uuid.New()
	carts.carts[userA.String()] = cartWith(userA, line(p, 2))
	carts.carts[userB.String()] = cartWith(userB, line(p, 2))

	svc := NewService(orders, carts, products, products, nil, testLogger())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []uuid.UUID{userA, userB} {
		wg.Add(1)
		go func(i int, uid uuid.UUID) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(context.Background(), uid.String(), validRequest())
		}(i, uid)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			var stockErr *catalog.InsufficientStockError
			assert.ErrorAs(t, err, &stockErr)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, products.stock(p.ID))
	assert.Equal(t, 1, orders.count())
}

func TestPlaceOrder_CartClearFailureStillReturnsOrder(t *testing.T) {
	userID := uuid.New()
	p := activeProduct(100, 5)
	products := newFakeCatalog(p)
	carts := newFakeCartRepo()
	carts.carts[userID.String()] = cartWith(userID, line(p, 1))
	carts.clearErr = errors.New("timeout")
	orders := newFakeOrderRepo()

	svc := NewService(orders, carts, products, products, nil, testLogger())
	o, err := svc.PlaceOrder(context.Background(), userID.String(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, orders.count())
	assert.Equal(t, StatusPlaced, o.Status)
}

// ── state machine ────────────────────────────────────────────────────────────

func seedOrder(t *testing.T, orders *fakeOrderRepo, products *fakeCatalog, status OrderStatus, lines ...*OrderItem) *Order {
	t.Helper()
	userID := uuid.New()
	if len(lines) == 0 {
		p := activeProduct(100, 5)
		require.NoError(t, products.Create(context.Background(), p))
		lines = []*OrderItem{{ID: uuid.New(), ProductID: p.ID, Name: p.Name, Quantity: 1, UnitPrice: p.Price}}
	}
	o := &Order{
		ID:            uuid.New(),
		OrderNumber:   generateOrderNumber(),
		UserID:        userID,
		Status:        status,
		PaymentMethod: MethodCOD,
		PaymentStatus: PaymentPending,
		Items:         lines,
		StatusHistory: []*StatusEntry{{Status: status}},
	}
	o.RecalculateTotals()
	require.NoError(t, orders.Create(context.Background(), o))
	return o
}

func TestUpdateStatus_TransitionTable(t *testing.T) {
	all := []OrderStatus{StatusPlaced, StatusConfirmed, StatusPacked, StatusShipped, StatusDelivered, StatusCancelled}
	allowed := map[OrderStatus][]OrderStatus{
		StatusPlaced:    {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusPacked, StatusCancelled},
		StatusPacked:    {StatusShipped, StatusCancelled},
		StatusShipped:   {StatusDelivered},
		StatusDelivered: {},
		StatusCancelled: {},
	}

	for _, from := range all {
		for _, to := range all {
			legal := false
			for _, next := range allowed[from] {
				if next == to {
					legal = true
				}
			}
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				products := newFakeCatalog()
				orders := newFakeOrderRepo()
				carts := newFakeCartRepo()
				svc := NewService(orders, carts, products, products, nil, testLogger())
				o := seedOrder(t, orders, products, from)

				updated, err := svc.UpdateStatus(context.Background(), o.ID.String(), admin,
					UpdateStatusRequest{Status: string(to)})
				if legal {
					require.NoError(t, err)
					assert.Equal(t, to, updated.Status)
					// history grew and its last entry matches the new status
					stored, err := orders.GetByID(context.Background(), o.ID.String())
					require.NoError(t, err)
					require.Len(t, stored.StatusHistory, 2)
					assert.Equal(t, to, stored.StatusHistory[1].Status)
				} else {
					var transitionErr *InvalidTransitionError
					require.ErrorAs(t, err, &transitionErr)
					assert.Equal(t, from, transitionErr.From)
					assert.Equal(t, to, transitionErr.To)
					// state unchanged
					stored, err := orders.GetByID(context.Background(), o.ID.String())
					require.NoError(t, err)
					assert.Equal(t, from, stored.Status)
					assert.Len(t, stored.StatusHistory, 1)
				}
			})
		}
	}
}

func TestUpdateStatus_CrossUserRequiresAdmin(t *testing.T) {
	products := newFakeCatalog()
	orders := newFakeOrderRepo()
	svc := NewService(orders, newFakeCartRepo(), products, products, nil, testLogger())
	o := seedOrder(t, orders, products, StatusPlaced)

	stranger := auth.Caller{UserID: uuid.New().String(), Role: auth.RoleCustomer}
	_, err := svc.UpdateStatus(context.Background(), o.ID.String(), stranger,
		UpdateStatusRequest{Status: string(StatusConfirmed)})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateStatus(context.Background(), o.ID.String(), admin,
		UpdateStatusRequest{Status: string(StatusConfirmed)})
	assert.NoError(t, err)
}

func TestUpdateStatus_ConcurrentTransitionsHaveOneWinner(t *testing.T) {
	products := newFakeCatalog()
	orders := newFakeOrderRepo()
	svc := NewService(orders, newFakeCartRepo(), products, products, nil, testLogger())
	o := seedOrder(t, orders, products, StatusPlaced)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.UpdateStatus(context.Background(), o.ID.String(), admin,
				UpdateStatusRequest{Status: string(StatusConfirmed)})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	stored, err := orders.GetByID(context.Background(), o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, stored.Status)
	assert.Len(t, stored.StatusHistory, 2)
}

func TestUpdateStatus_DeliveredCompletesCODPayment(t *testing.T) {
	products := newFakeCatalog()
	orders := newFakeOrderRepo()
	svc := NewService(orders, newFakeCartRepo(), products, products, nil, testLogger())
	o := seedOrder(t, orders, products, StatusShipped)

	updated, err := svc.UpdateStatus(context.Background(), o.ID.String(), admin,
		UpdateStatusRequest{Status: string(StatusDelivered)})
	require.NoError(t, err)
	assert.Equal(t, PaymentCompleted, updated.PaymentStatus)
}

// ── cancellation ─────────────────────────────────────────────────────────────

func TestCancelOrder_RestoresStockExactlyOnce(t *testing.T) {
	p1 := activeProduct(100, 0)
	p1.Status = catalog.StatusOutOfStock
	p2 := activeProduct(50, 4)
	products := newFakeCatalog(p1, p2)
	orders := newFakeOrderRepo()
	svc := NewService(orders, newFakeCartRepo(), products, products, nil, testLogger())

	o := seedOrder(t, orders, products, StatusConfirmed,
		&OrderItem{ID: uuid.New(), ProductID: p1.ID, Quantity: 2, UnitPrice: 100},
		&OrderItem{ID: uuid.New(), ProductID: p2.ID, Quantity: 1, UnitPrice: 50})

	cancelled, err := svc.CancelOrder(context.Background(), o.ID.String(), owner(o.UserID), "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, 2, products.stock(p1.ID))
	assert.Equal(t, 1, products.stock(p2.ID))

	// depletion-driven out_of_stock flips back to active on restore
	got, err := products.GetByID(context.Background(), p1.ID.String())
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusActive, got.Status)

	// a second cancel hits a terminal state and must not double-restore
	_, err = svc.CancelOrder(context.Background(), o.ID.String(), owner(o.UserID), "again")
	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, 2, products.stock(p1.ID))
	assert.Equal(t, 1, products.stock(p2.ID))
}

func TestCancelOrder_RejectedAfterShipping(t *testing.T) {
	for _, status := range []OrderStatus{StatusShipped, StatusDelivered} {
		products := newFakeCatalog()
		orders := newFakeOrderRepo()
		svc := NewService(orders, newFakeCartRepo(), products, products, nil, testLogger())
		o := seedOrder(t, orders, products, status)

		_, err := svc.CancelOrder(context.Background(), o.ID.String(), owner(o.UserID), "")
		var transitionErr *InvalidTransitionError
		assert.ErrorAs(t, err, &transitionErr, "status %s", status)
	}
}

func TestCancelOrder_OwnershipEnforced(t *testing.T) {
	products := newFakeCatalog()
	orders := newFakeOrderRepo()
	svc := NewService(orders, newFakeCartRepo(), products, products, nil, testLogger())
	o := seedOrder(t, orders, products, StatusPlaced)

	stranger := auth.Caller{UserID: uuid.New().String(), Role: auth.RoleCustomer}
	_, err := svc.CancelOrder(context.Background(), o.ID.String(), stranger, "")
	assert.ErrorIs(t, err, ErrForbidden)

	// an admin may cancel on behalf of the customer
	_, err = svc.CancelOrder(context.Background(), o.ID.String(), admin, "support request")
	assert.NoError(t, err)
}

func TestGetOrder_OwnershipEnforced(t *testing.T) {
	products := newFakeCatalog()
	orders := newFakeOrderRepo()
	svc := NewService(orders, newFakeCartRepo(), products, products, nil, testLogger())
	o := seedOrder(t, orders, products, StatusPlaced)

	_, err := svc.GetOrder(context.Background(), o.ID.String(), owner(o.UserID))
	assert.NoError(t, err)

	stranger := auth.Caller{UserID: uuid.New().String(), Role: auth.RoleCustomer}
	_, err = svc.GetOrder(context.Background(), o.ID.String(), stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetOrder(context.Background(), o.ID.String(), admin)
	assert.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), uuid.New().String(), admin)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
