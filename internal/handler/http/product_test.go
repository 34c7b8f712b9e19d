package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reviewdesk/reviewdesk/internal/domain"
	"github.com/reviewdesk/reviewdesk/internal/service"
)

// =============================================================================
// Mock ProductRepository
// =============================================================================

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) RecordImport(ctx context.Context, platform, productID, name string, n int, at time.Time) error {
	args := m.Called(ctx, platform, productID, name, n, at)
	return args.Error(0)
}

func (m *mockProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func productRouter(repo *mockProductRepo) *chi.Mux {
	svc := service.NewProductService(repo, reviewTestLogger())
	handler := NewProductHandler(svc, reviewTestLogger())

	r := chi.NewRouter()
	r.Get("/api/v1/products", handler.ListProducts)
	return r
}

// =============================================================================
// GET /api/v1/products - ListProducts
// =============================================================================

func TestListProducts_Success(t *testing.T) {
	repo := new(mockProductRepo)
	router := productRouter(repo)

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	repo.On("List", mock.Anything).Return([]domain.Product{
		{ID: "p-1", Platform: domain.MarketplaceAmazon, ProductID: "B00EXAMPLE", ProductName: "Wireless Earbuds", ReviewCount: 12, LastImported: now},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []domain.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Wireless Earbuds", body.Data[0].ProductName)
	assert.Equal(t, 12, body.Data[0].ReviewCount)
}

func TestListProducts_EmptyCatalog(t *testing.T) {
	repo := new(mockProductRepo)
	router := productRouter(repo)

	repo.On("List", mock.Anything).Return([]domain.Product{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestListProducts_RepositoryError(t *testing.T) {
	repo := new(mockProductRepo)
	router := productRouter(repo)

	repo.On("List", mock.Anything).Return(nil, errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
