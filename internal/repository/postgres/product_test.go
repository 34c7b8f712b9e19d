package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewdesk/reviewdesk/internal/domain"
)

func TestProductRecordImport_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectExec("INSERT INTO products").
		WithArgs(pgxmock.AnyArg(), domain.MarketplaceAmazon, "B00EXAMPLE", "Widget Pro", 3, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.RecordImport(context.Background(), domain.MarketplaceAmazon, "B00EXAMPLE", "Widget Pro", 3, now)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRecordImport_DBError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectExec("INSERT INTO products").
		WithArgs(pgxmock.AnyArg(), domain.MarketplaceShopify, "SKU-1", "", 1, now).
		WillReturnError(errors.New("deadlock detected"))

	err := repo.RecordImport(context.Background(), domain.MarketplaceShopify, "SKU-1", "", 1, now)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert product")
}

func TestProductList_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	cols := []string{"id", "platform", "product_id", "product_name", "review_count", "last_imported"}
	mock.ExpectQuery("SELECT .+ FROM products").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("p-1", domain.MarketplaceAmazon, "B00EXAMPLE", "Widget", 12, now).
			AddRow("p-2", domain.MarketplaceShopify, "SKU-1", "", 3, now))

	products, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "B00EXAMPLE", products[0].ProductID)
	assert.Equal(t, 12, products[0].ReviewCount)
}

func TestProductList_Empty(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	cols := []string{"id", "platform", "product_id", "product_name", "review_count", "last_imported"}
	mock.ExpectQuery("SELECT .+ FROM products").
		WillReturnRows(pgxmock.NewRows(cols))

	products, err := repo.List(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}
