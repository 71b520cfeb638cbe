package service

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Bbachelard/Option/internal/domain"
	"github.com/Bbachelard/Option/internal/event"
	"github.com/Bbachelard/Option/internal/repository"
	pkgkafka "github.com/Bbachelard/Option/pkg/kafka"
)

// --- Mock ProductOptionRepository ---

type mockOptionRepo struct {
	mock.Mock
}

func (m *mockOptionRepo) Attach(ctx context.Context, productID, optionID, source string) (*domain.ProductOption, error) {
	args := m.Called(ctx, productID, optionID, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductOption), args.Error(1)
}

func (m *mockOptionRepo) GetByID(ctx context.Context, id string) (*domain.ProductOption, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductOption), args.Error(1)
}

func (m *mockOptionRepo) GetByProductAndOption(ctx context.Context, productID, optionID string) (*domain.ProductOption, error) {
	args := m.Called(ctx, productID, optionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductOption), args.Error(1)
}

func (m *mockOptionRepo) ListByProduct(ctx context.Context, productID string) ([]domain.ProductOption, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductOption), args.Error(1)
}

func (m *mockOptionRepo) UpsertPrice(ctx context.Context, productID, optionID string, price, promoPrice *int64) (*domain.ProductOption, error) {
	args := m.Called(ctx, productID, optionID, price, promoPrice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductOption), args.Error(1)
}

func (m *mockOptionRepo) Detach(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOptionRepo) DeleteByProduct(ctx context.Context, productID string) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOptionRepo) DeleteByOption(ctx context.Context, optionID string) (int64, error) {
	args := m.Called(ctx, optionID)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock ProductRepository ---

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepo) GetDefaultPrice(ctx context.Context, productID string) (*domain.ProductPrice, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductPrice), args.Error(1)
}

func (m *mockProductRepo) ListOptionRows(ctx context.Context, filter repository.OptionFilter) ([]domain.OptionListRow, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.OptionListRow), args.Int(1), args.Error(2)
}

func (m *mockProductRepo) Update(ctx context.Context, product *domain.Product) (int64, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockProductRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock CategoryRepository ---

type mockCategoryRepo struct {
	mock.Mock
}

func (m *mockCategoryRepo) Create(ctx context.Context, category *domain.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *mockCategoryRepo) GetByTitle(ctx context.Context, title, locale string) (*domain.Category, error) {
	args := m.Called(ctx, title, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

// --- Mock SettingRepository ---

type mockSettingRepo struct {
	mock.Mock
}

func (m *mockSettingRepo) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockSettingRepo) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// --- Mock CartItemRepository ---

type mockCartItemRepo struct {
	mock.Mock
}

func (m *mockCartItemRepo) GetByID(ctx context.Context, id string) (*domain.CartItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartItem), args.Error(1)
}

func (m *mockCartItemRepo) UpdatePrices(ctx context.Context, id string, price, promoPrice int64) error {
	args := m.Called(ctx, id, price, promoPrice)
	return args.Error(0)
}

// --- Mock OptionSelectionRepository ---

type mockSelectionRepo struct {
	mock.Mock
}

func (m *mockSelectionRepo) Upsert(ctx context.Context, sel *domain.OptionSelection) (*domain.OptionSelection, error) {
	args := m.Called(ctx, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OptionSelection), args.Error(1)
}

func (m *mockSelectionRepo) ListByCartItem(ctx context.Context, cartItemID string) ([]domain.OptionSelection, error) {
	args := m.Called(ctx, cartItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OptionSelection), args.Error(1)
}

func (m *mockSelectionRepo) CountByProductOption(ctx context.Context, productOptionID string) (int, error) {
	args := m.Called(ctx, productOptionID)
	return args.Int(0), args.Error(1)
}

func (m *mockSelectionRepo) DeleteByCartItem(ctx context.Context, cartItemID string) (int64, error) {
	args := m.Called(ctx, cartItemID)
	return args.Get(0).(int64), args.Error(1)
}

// --- In-memory AvailableOptionsCache ---

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]domain.Product
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]domain.Product)}
}

func (c *fakeCache) Get(ctx context.Context, productID string) ([]domain.Product, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	options, ok := c.entries[productID]
	return options, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, productID string, options []domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[productID] = options
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, productID)
	return nil
}

// --- Test helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestProducer returns a producer pointed at an unreachable broker.
// Services log and tolerate publish failures, so tests run without Kafka.
func newTestProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func strPtr(s string) *string { return &s }
func int64Ptr(n int64) *int64 { return &n }
