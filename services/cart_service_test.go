package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"cart-server/models"
	"cart-server/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProductRepo struct {
	m        sync.RWMutex
	products map[uuid.UUID]*models.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*models.Product)}
}

func (m *mockProductRepo) Create(_ context.Context, product *models.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (m *mockProductRepo) List(_ context.Context) ([]models.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	list := []models.Product{}
	for _, p := range m.products {
		list = append(list, *p)
	}
	return list, nil
}

func (m *mockProductRepo) Update(_ context.Context, product *models.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

type cartState struct {
	cart  *models.Cart
	items []*models.CartItem
}

type mockCartRepo struct {
	m        sync.Mutex
	carts    map[uuid.UUID]*cartState
	products *mockProductRepo
}

func newMockCartRepo(products *mockProductRepo) *mockCartRepo {
	return &mockCartRepo{
		carts:    make(map[uuid.UUID]*cartState),
		products: products,
	}
}

func (m *mockCartRepo) CreateCart(context.Context) (*models.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	cart := &models.Cart{
		ID:         uuid.New(),
		TotalPrice: decimal.Zero,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	m.carts[cart.ID] = &cartState{cart: cart}
	copied := *cart
	return &copied, nil
}

func (m *mockCartRepo) GetCart(_ context.Context, id uuid.UUID) (*models.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	state, ok := m.carts[id]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	copied := *state.cart
	return &copied, nil
}

func (m *mockCartRepo) AddItem(_ context.Context, cartID, productID uuid.UUID, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	state, ok := m.carts[cartID]
	if !ok {
		return repository.ErrCartNotFound
	}
	for _, item := range state.items {
		if item.ProductID == productID {
			item.Quantity += quantity
			m.recalculateTotal(state)
			return nil
		}
	}
	state.items = append(state.items, &models.CartItem{
		ID:        uuid.New(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	})
	m.recalculateTotal(state)
	return nil
}

func (m *mockCartRepo) RemoveItem(_ context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	m.m.Lock()
	defer m.m.Unlock()
	state, ok := m.carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	for i, item := range state.items {
		if item.ProductID == productID {
			state.items = append(state.items[:i], state.items[i+1:]...)
			m.recalculateTotal(state)
			return item, nil
		}
	}
	return nil, repository.ErrItemNotFound
}

func (m *mockCartRepo) GetLines(_ context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	m.m.Lock()
	defer m.m.Unlock()
	state, ok := m.carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	lines := []models.CartLine{}
	for _, item := range state.items {
		product := m.products.products[item.ProductID]
		lines = append(lines, models.CartLine{
			ProductID:   item.ProductID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    item.Quantity,
		})
	}
	return lines, nil
}

func (m *mockCartRepo) TouchInteraction(_ context.Context, cartID uuid.UUID, at time.Time) error {
	m.m.Lock()
	defer m.m.Unlock()
	state, ok := m.carts[cartID]
	if !ok {
		return repository.ErrCartNotFound
	}
	state.cart.LastInteractionAt = &at
	return nil
}

func (m *mockCartRepo) MarkAbandoned(_ context.Context, idleSince time.Time) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var marked int64
	for _, state := range m.carts {
		last := state.cart.LastInteractionAt
		if !state.cart.Abandoned && last != nil && !last.After(idleSince) {
			state.cart.Abandoned = true
			marked++
		}
	}
	return marked, nil
}

func (m *mockCartRepo) ListRemovableAbandoned(_ context.Context, abandonedSince time.Time) ([]uuid.UUID, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var ids []uuid.UUID
	for id, state := range m.carts {
		last := state.cart.LastInteractionAt
		if state.cart.Abandoned && last != nil && !last.After(abandonedSince) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockCartRepo) DeleteCart(_ context.Context, id uuid.UUID) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.carts[id]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.carts, id)
	return nil
}

func (m *mockCartRepo) recalculateTotal(state *cartState) {
	total := decimal.Zero
	for _, item := range state.items {
		product := m.products.products[item.ProductID]
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	state.cart.TotalPrice = total
}

var _ repository.ProductRepository = (*mockProductRepo)(nil)
var _ repository.CartRepository = (*mockCartRepo)(nil)

func newTestService(t *testing.T) (*CartService, *mockCartRepo, *mockProductRepo) {
	t.Helper()
	productRepo := newMockProductRepo()
	cartRepo := newMockCartRepo(productRepo)
	return NewCartService(cartRepo, productRepo), cartRepo, productRepo
}

func createProduct(t *testing.T, repo *mockProductRepo, name string, price float64) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:    uuid.New(),
		Name:  name,
		Price: decimal.NewFromFloat(price),
	}
	require.NoError(t, repo.Create(context.Background(), product))
	return product
}

func TestAddItemNewProduct(t *testing.T) {
	svc, _, productRepo := newTestService(t)
	ctx := context.Background()
	product := createProduct(t, productRepo, "Test Product", 10.0)

	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)

	summary, err := svc.AddItem(ctx, cart.ID, product, 2)
	require.NoError(t, err)

	require.Len(t, summary.Products, 1)
	assert.Equal(t, product.ID, summary.Products[0].ID)
	assert.Equal(t, "Test Product", summary.Products[0].Name)
	assert.Equal(t, 2, summary.Products[0].Quantity)
	assert.Equal(t, 10.0, summary.Products[0].UnitPrice)
	assert.Equal(t, 20.0, summary.Products[0].TotalPrice)
	assert.Equal(t, 20.0, summary.TotalPrice)
}

func TestAddItemIncrementsExistingItem(t *testing.T) {
	svc, _, productRepo := newTestService(t)
	ctx := context.Background()
	product := createProduct(t, productRepo, "Test Product", 10.0)

	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, cart.ID, product, 1)
	require.NoError(t, err)
	summary, err := svc.AddItem(ctx, cart.ID, product, 3)
	require.NoError(t, err)

	require.Len(t, summary.Products, 1)
	assert.Equal(t, 4, summary.Products[0].Quantity)
	assert.Equal(t, 40.0, summary.TotalPrice)
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	svc, cartRepo, productRepo := newTestService(t)
	ctx := context.Background()
	product := createProduct(t, productRepo, "Test Product", 10.0)

	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)

	for _, quantity := range []int{0, -1} {
		_, err := svc.AddItem(ctx, cart.ID, product, quantity)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}

	// The cart was never mutated
	summary, err := svc.GetSummary(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, summary.Products)
	assert.Equal(t, 0.0, summary.TotalPrice)

	stored, err := cartRepo.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastInteractionAt)
}

func TestAddItemTouchesCart(t *testing.T) {
	svc, cartRepo, productRepo := newTestService(t)
	ctx := context.Background()
	product := createProduct(t, productRepo, "Test Product", 10.0)

	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)
	assert.Nil(t, cart.LastInteractionAt)

	_, err = svc.AddItem(ctx, cart.ID, product, 1)
	require.NoError(t, err)

	stored, err := cartRepo.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastInteractionAt)
	assert.WithinDuration(t, time.Now(), *stored.LastInteractionAt, time.Second)
}

func TestRemoveItemUpdatesTotal(t *testing.T) {
	svc, _, productRepo := newTestService(t)
	ctx := context.Background()
	productA := createProduct(t, productRepo, "Product A", 10.0)
	productB := createProduct(t, productRepo, "Product B", 5.0)

	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, cart.ID, productA, 2)
	require.NoError(t, err)
	summary, err := svc.AddItem(ctx, cart.ID, productB, 1)
	require.NoError(t, err)
	assert.Equal(t, 25.0, summary.TotalPrice)

	summary, err = svc.RemoveItem(ctx, cart.ID, productA)
	require.NoError(t, err)
	require.Len(t, summary.Products, 1)
	assert.Equal(t, productB.ID, summary.Products[0].ID)
	assert.Equal(t, 5.0, summary.TotalPrice)
}

func TestRemoveOnlyItemEmptiesCart(t *testing.T) {
	svc, _, productRepo := newTestService(t)
	ctx := context.Background()
	product := createProduct(t, productRepo, "Test Product", 5.0)

	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cart.ID, product, 2)
	require.NoError(t, err)

	summary, err := svc.RemoveItem(ctx, cart.ID, product)
	require.NoError(t, err)
	assert.Empty(t, summary.Products)
	assert.Equal(t, 0.0, summary.TotalPrice)
}

func TestRemoveItemNotInCart(t *testing.T) {
	svc, _, productRepo := newTestService(t)
	ctx := context.Background()
	product := createProduct(t, productRepo, "Test Product", 10.0)
	other := createProduct(t, productRepo, "Other Product", 5.0)

	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cart.ID, product, 2)
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, cart.ID, other)
	assert.ErrorIs(t, err, repository.ErrItemNotFound)

	// Cart state is unchanged
	summary, err := svc.GetSummary(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, summary.Products, 1)
	assert.Equal(t, 20.0, summary.TotalPrice)
}

func TestGetSummaryIsPureRead(t *testing.T) {
	svc, cartRepo, productRepo := newTestService(t)
	ctx := context.Background()
	product := createProduct(t, productRepo, "Test Product", 15.0)

	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cart.ID, product, 3)
	require.NoError(t, err)

	before, err := cartRepo.GetCart(ctx, cart.ID)
	require.NoError(t, err)

	summary, err := svc.GetSummary(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 45.0, summary.TotalPrice)

	after, err := cartRepo.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, before.LastInteractionAt, after.LastInteractionAt)
}

func TestGetSummaryUnknownCart(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetSummary(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrCartNotFound)
}
