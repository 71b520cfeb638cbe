package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Bbachelard/Option/internal/domain"
	"github.com/Bbachelard/Option/internal/event"
	"github.com/Bbachelard/Option/internal/hook"
	"github.com/Bbachelard/Option/internal/pricing"
	"github.com/Bbachelard/Option/internal/repository"
	"github.com/Bbachelard/Option/internal/service"
	"github.com/Bbachelard/Option/internal/tax"
	apperrors "github.com/Bbachelard/Option/pkg/errors"
	"github.com/Bbachelard/Option/pkg/health"
	"github.com/Bbachelard/Option/pkg/httputil"
	pkgkafka "github.com/Bbachelard/Option/pkg/kafka"
	"github.com/Bbachelard/Option/pkg/middleware"
)

// =============================================================================
// Mock repositories
// =============================================================================

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

type fakeOptionsCache struct {
	mu      sync.Mutex
	entries map[string][]domain.Product
}

func newFakeOptionsCache() *fakeOptionsCache {
	return &fakeOptionsCache{entries: make(map[string][]domain.Product)}
}

func (c *fakeOptionsCache) Get(ctx context.Context, productID string) ([]domain.Product, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	options, ok := c.entries[productID]
	return options, ok, nil
}

func (c *fakeOptionsCache) Set(ctx context.Context, productID string, options []domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[productID] = options
	return nil
}

func (c *fakeOptionsCache) Invalidate(ctx context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, productID)
	return nil
}

// =============================================================================
// Test helpers
// =============================================================================

const (
	testProductID  = "550e8400-e29b-41d4-a716-446655440001"
	testOptionID   = "550e8400-e29b-41d4-a716-446655440002"
	testAssocID    = "550e8400-e29b-41d4-a716-446655440003"
	testCartItemID = "550e8400-e29b-41d4-a716-446655440004"
	testCategoryID = "550e8400-e29b-41d4-a716-446655440005"
)

type handlerTestMocks struct {
	options    *mockOptionRepo
	products   *mockProductRepo
	categories *mockCategoryRepo
	settings   *mockSettingRepo
	cartItems  *mockCartItemRepo
	selections *mockSelectionRepo
	cache      *fakeOptionsCache
}

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func handlerTestProducer() *event.Producer {
	logger := handlerTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

// newTestRouter builds the full router over real services, with every
// repository mocked and taxes fixed to zero.
func newTestRouter(t *testing.T) (http.Handler, *handlerTestMocks) {
	t.Helper()

	m := &handlerTestMocks{
		options:    new(mockOptionRepo),
		products:   new(mockProductRepo),
		categories: new(mockCategoryRepo),
		settings:   new(mockSettingRepo),
		cartItems:  new(mockCartItemRepo),
		selections: new(mockSelectionRepo),
		cache:      newFakeOptionsCache(),
	}

	logger := handlerTestLogger()
	producer := handlerTestProducer()
	hooks := hook.NewRegistry()

	optionSvc := service.NewOptionService(
		m.options,
		m.products,
		m.categories,
		m.settings,
		m.cache,
		hooks,
		service.NewRepositoryLifecycle(m.products),
		service.NewSelectionInUseChecker(m.selections),
		producer,
		logger,
	)

	cartOptionSvc := service.NewCartOptionService(
		m.cartItems,
		m.options,
		m.products,
		m.selections,
		pricing.NewOptionPricer(m.products, tax.NewLoader(&tax.StaticRateProvider{TaxRate: 0})),
		tax.NewLoader(&tax.StaticRateProvider{TaxRate: 0}),
		&tax.StaticEngine{Country: domain.Country{ID: "country-fr", Code: "FR"}},
		hooks,
		producer,
		logger,
	)

	router := NewRouter(optionSvc, cartOptionSvc, health.NewHandler(), logger, middleware.DefaultCORSConfig())
	return router, m
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func sampleOptionProduct() *domain.Product {
	now := time.Now().UTC()
	return &domain.Product{
		ID:        testOptionID,
		Ref:       "OPT-WARRANTY",
		Title:     "Extended warranty",
		IsOnline:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func sampleOwnerProduct() *domain.Product {
	now := time.Now().UTC()
	return &domain.Product{
		ID:        testProductID,
		Ref:       "PROD-CHAIR",
		Title:     "Office chair",
		IsOnline:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func sampleAssociation() *domain.ProductOption {
	now := time.Now().UTC()
	return &domain.ProductOption{
		ID:        testAssocID,
		ProductID: testProductID,
		OptionID:  testOptionID,
		Source:    domain.SourceAddedByProduct,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func int64Ref(n int64) *int64 { return &n }

// =============================================================================
// GET /api/v1/products/{productId}/options - ListAvailableOptions
// =============================================================================

func TestListAvailableOptions_Success(t *testing.T) {
	router, m := newTestRouter(t)

	m.products.On("GetByID", mock.Anything, testProductID).Return(sampleOwnerProduct(), nil)
	m.options.On("ListByProduct", mock.Anything, testProductID).
		Return([]domain.ProductOption{*sampleAssociation()}, nil)
	m.products.On("ListByIDs", mock.Anything, []string{testOptionID}).
		Return([]domain.Product{*sampleOptionProduct()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+testProductID+"/options", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	var options []domain.Product
	raw, _ := json.Marshal(resp.Data)
	require.NoError(t, json.Unmarshal(raw, &options))
	require.Len(t, options, 1)
	assert.Equal(t, testOptionID, options[0].ID)
	m.options.AssertExpectations(t)
}

func TestListAvailableOptions_InvalidProductUUID(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/not-a-uuid/options", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

func TestListAvailableOptions_InvalidOptionFilter(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+testProductID+"/options?option_id=nope", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

func TestListAvailableOptions_ProductNotFound(t *testing.T) {
	router, m := newTestRouter(t)

	m.products.On("GetByID", mock.Anything, testProductID).
		Return(nil, apperrors.NotFound("product", testProductID))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+testProductID+"/options", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

// =============================================================================
// POST /api/v1/products/{productId}/options - AttachOption
// =============================================================================

func TestAttachOption_Success(t *testing.T) {
	router, m := newTestRouter(t)

	m.products.On("GetByID", mock.Anything, testProductID).Return(sampleOwnerProduct(), nil)
	m.products.On("GetByID", mock.Anything, testOptionID).Return(sampleOptionProduct(), nil)
	m.options.On("Attach", mock.Anything, testProductID, testOptionID, domain.SourceAddedByProduct).
		Return(sampleAssociation(), nil)

	b, _ := json.Marshal(AttachOptionRequest{OptionID: testOptionID})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+testProductID+"/options", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
	m.options.AssertExpectations(t)
}

func TestAttachOption_ExplicitSource(t *testing.T) {
	router, m := newTestRouter(t)

	m.products.On("GetByID", mock.Anything, testProductID).Return(sampleOwnerProduct(), nil)
	m.products.On("GetByID", mock.Anything, testOptionID).Return(sampleOptionProduct(), nil)
	m.options.On("Attach", mock.Anything, testProductID, testOptionID, domain.SourceAddedByOption).
		Return(sampleAssociation(), nil)

	b, _ := json.Marshal(AttachOptionRequest{OptionID: testOptionID, Source: domain.SourceAddedByOption})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+testProductID+"/options", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	m.options.AssertExpectations(t)
}

func TestAttachOption_ValidationError(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+testProductID+"/options", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestAttachOption_InvalidJSON(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+testProductID+"/options", bytes.NewReader([]byte(`{bad`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "invalid request body")
}

func TestAttachOption_SelfAttach(t *testing.T) {
	router, _ := newTestRouter(t)

	b, _ := json.Marshal(AttachOptionRequest{OptionID: testProductID})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+testProductID+"/options", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

// =============================================================================
// DELETE /api/v1/products/{productId}/options/{associationId} - DetachOption
// =============================================================================

func TestDetachOption_Success(t *testing.T) {
	router, m := newTestRouter(t)

	m.options.On("GetByID", mock.Anything, testAssocID).Return(sampleAssociation(), nil)
	m.selections.On("CountByProductOption", mock.Anything, testAssocID).Return(0, nil)
	m.options.On("Detach", mock.Anything, testAssocID).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+testProductID+"/options/"+testAssocID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	m.options.AssertExpectations(t)
}

func TestDetachOption_InUse(t *testing.T) {
	router, m := newTestRouter(t)

	m.options.On("GetByID", mock.Anything, testAssocID).Return(sampleAssociation(), nil)
	m.selections.On("CountByProductOption", mock.Anything, testAssocID).Return(3, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+testProductID+"/options/"+testAssocID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ASSOCIATION_IN_USE", resp.Error.Code)
	m.options.AssertNotCalled(t, "Detach", mock.Anything, mock.Anything)
}

func TestDetachOption_Forced(t *testing.T) {
	router, m := newTestRouter(t)

	m.options.On("GetByID", mock.Anything, testAssocID).Return(sampleAssociation(), nil)
	m.options.On("Detach", mock.Anything, testAssocID).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+testProductID+"/options/"+testAssocID+"?force=true", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	m.selections.AssertNotCalled(t, "CountByProductOption", mock.Anything, mock.Anything)
	m.options.AssertExpectations(t)
}

func TestDetachOption_InvalidForce(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+testProductID+"/options/"+testAssocID+"?force=banana", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

// =============================================================================
// PUT /api/v1/products/{productId}/options/{optionId}/price - UpsertOptionPrice
// =============================================================================

func TestUpsertOptionPrice_Success(t *testing.T) {
	router, m := newTestRouter(t)

	assoc := sampleAssociation()
	assoc.Price = int64Ref(1500)
	m.options.On("UpsertPrice", mock.Anything, testProductID, testOptionID, int64Ref(1500), (*int64)(nil)).
		Return(assoc, nil)

	b, _ := json.Marshal(UpsertOptionPriceRequest{Price: int64Ref(1500)})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/"+testProductID+"/options/"+testOptionID+"/price", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	m.options.AssertExpectations(t)
}

func TestUpsertOptionPrice_NegativePrice(t *testing.T) {
	router, _ := newTestRouter(t)

	b, _ := json.Marshal(UpsertOptionPriceRequest{Price: int64Ref(-5)})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/"+testProductID+"/options/"+testOptionID+"/price", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

// =============================================================================
// GET /api/v1/options - ListOptions
// =============================================================================

func TestListOptions_Success(t *testing.T) {
	router, m := newTestRouter(t)

	rows := []domain.OptionListRow{
		{ID: testOptionID, Title: "Extended warranty", Ref: "OPT-WARRANTY", Price: 900, IsOnline: true},
	}
	m.products.On("ListOptionRows", mock.Anything, mock.MatchedBy(func(f repository.OptionFilter) bool {
		return f.Page == 1 && f.PerPage == 20
	})).Return(rows, 1, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/options", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var paginated httputil.PaginatedResponse[domain.OptionListRow]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&paginated))
	assert.Equal(t, 1, paginated.TotalCount)
	require.Len(t, paginated.Data, 1)
	assert.Equal(t, "OPT-WARRANTY", paginated.Data[0].Ref)
	m.products.AssertExpectations(t)
}

func TestListOptions_SearchFilter(t *testing.T) {
	router, m := newTestRouter(t)

	m.products.On("ListOptionRows", mock.Anything, mock.MatchedBy(func(f repository.OptionFilter) bool {
		return f.Search != nil && *f.Search == "warranty"
	})).Return([]domain.OptionListRow{}, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/options?search=warranty", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	m.products.AssertExpectations(t)
}

func TestListOptions_InvalidPage(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/options?page=abc", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

// =============================================================================
// GET /api/v1/options/columns - ListColumns
// =============================================================================

func TestListColumns_PublicHidesStorageNames(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/options/columns", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)

	var columns []domain.ColumnDefinition
	raw, _ := json.Marshal(resp.Data)
	require.NoError(t, json.Unmarshal(raw, &columns))
	require.Len(t, columns, 5)
	for _, col := range columns {
		assert.Empty(t, col.ORMName)
	}
}

func TestListColumns_AdminIncludesStorageNames(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/options/columns?admin=true", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)

	var columns []domain.ColumnDefinition
	raw, _ := json.Marshal(resp.Data)
	require.NoError(t, json.Unmarshal(raw, &columns))
	require.Len(t, columns, 5)
	assert.Equal(t, "products.title", columns[1].ORMName)
}

// =============================================================================
// GET /api/v1/options/category - GetOptionCategory
// =============================================================================

func TestGetOptionCategory_Configured(t *testing.T) {
	router, m := newTestRouter(t)

	category := &domain.Category{ID: testCategoryID, Title: "Options", Locale: "en_US"}
	m.settings.On("Get", mock.Anything, "option_category_id").Return(testCategoryID, nil)
	m.categories.On("GetByID", mock.Anything, testCategoryID).Return(category, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/options/category", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	m.categories.AssertExpectations(t)
}

func TestGetOptionCategory_CreatesWhenMissing(t *testing.T) {
	router, m := newTestRouter(t)

	m.settings.On("Get", mock.Anything, "option_category_id").Return("", apperrors.ErrNotFound)
	m.categories.On("GetByTitle", mock.Anything, "Options", "fr_FR").Return(nil, apperrors.ErrNotFound)
	m.categories.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Category) bool {
		return c.Title == "Options" && c.Locale == "fr_FR" && !c.IsVisible
	})).Return(nil)
	m.settings.On("Set", mock.Anything, "option_category_id", mock.AnythingOfType("string")).Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/options/category?locale=fr_FR", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	m.categories.AssertExpectations(t)
	m.settings.AssertExpectations(t)
}

// =============================================================================
// POST /api/v1/options - CreateOption
// =============================================================================

func TestCreateOption_Success(t *testing.T) {
	router, m := newTestRouter(t)

	category := &domain.Category{ID: testCategoryID, Title: "Options", Locale: "en_US"}
	m.settings.On("Get", mock.Anything, "option_category_id").Return(testCategoryID, nil)
	m.categories.On("GetByID", mock.Anything, testCategoryID).Return(category, nil)
	m.products.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.Ref == "OPT-GIFTWRAP" && p.Title == "Gift wrapping"
	})).Return(nil)

	b, _ := json.Marshal(CreateOptionRequest{Ref: "OPT-GIFTWRAP", Title: "Gift wrapping", IsOnline: true})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/options", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
	m.products.AssertExpectations(t)
}

func TestCreateOption_ValidationError(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/options", bytes.NewReader([]byte(`{"ref": "OPT-1"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestCreateOption_DuplicateRef(t *testing.T) {
	router, m := newTestRouter(t)

	category := &domain.Category{ID: testCategoryID, Title: "Options", Locale: "en_US"}
	m.settings.On("Get", mock.Anything, "option_category_id").Return(testCategoryID, nil)
	m.categories.On("GetByID", mock.Anything, testCategoryID).Return(category, nil)
	m.products.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.AlreadyExists("product", "ref", "OPT-GIFTWRAP"))

	b, _ := json.Marshal(CreateOptionRequest{Ref: "OPT-GIFTWRAP", Title: "Gift wrapping"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/options", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ALREADY_EXISTS", resp.Error.Code)
}

// =============================================================================
// PUT /api/v1/options/{id} - UpdateOption
// =============================================================================

func TestUpdateOption_Success(t *testing.T) {
	router, m := newTestRouter(t)

	m.products.On("GetByID", mock.Anything, testOptionID).Return(sampleOptionProduct(), nil)
	m.products.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.Title == "Premium warranty"
	})).Return(int64(1), nil)

	title := "Premium warranty"
	b, _ := json.Marshal(UpdateOptionRequest{Title: &title})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/options/"+testOptionID, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	m.products.AssertExpectations(t)
}

func TestUpdateOption_NoneAffected(t *testing.T) {
	router, m := newTestRouter(t)

	m.products.On("GetByID", mock.Anything, testOptionID).Return(sampleOptionProduct(), nil)
	m.products.On("Update", mock.Anything, mock.Anything).Return(int64(0), nil)

	title := "Premium warranty"
	b, _ := json.Marshal(UpdateOptionRequest{Title: &title})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/options/"+testOptionID, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NO_PRODUCT_UPDATED", resp.Error.Code)
}

func TestUpdateOption_NotFound(t *testing.T) {
	router, m := newTestRouter(t)

	m.products.On("GetByID", mock.Anything, testOptionID).
		Return(nil, apperrors.NotFound("product", testOptionID))

	title := "Premium warranty"
	b, _ := json.Marshal(UpdateOptionRequest{Title: &title})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/options/"+testOptionID, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

// =============================================================================
// DELETE /api/v1/options/{id} - DeleteOption
// =============================================================================

func TestDeleteOption_Success(t *testing.T) {
	router, m := newTestRouter(t)

	m.products.On("Delete", mock.Anything, testOptionID).Return(nil)
	m.options.On("DeleteByOption", mock.Anything, testOptionID).Return(int64(2), nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/options/"+testOptionID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	m.options.AssertExpectations(t)
}

func TestDeleteOption_InvalidUUID(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/options/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

// =============================================================================
// Router plumbing
// =============================================================================

func TestRouter_HealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnsupportedMediaType(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/options", bytes.NewReader([]byte(`title=x`)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
