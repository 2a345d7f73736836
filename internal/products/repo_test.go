package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendora-dev/vendora-backend/pkg/db/models"
	pkgerrors "github.com/vendora-dev/vendora-backend/pkg/errors"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL,
  image_path TEXT,
  stock INTEGER NOT NULL DEFAULT 0,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

func TestCreateAndFind(t *testing.T) {
	t.Parallel()

	repo := NewRepository(setupProductsTestDB(t))
	ctx := context.Background()

	product := &models.Product{Name: "widget", Price: decimal.RequireFromString("49.99")}
	require.NoError(t, repo.Create(ctx, product))
	require.NotEqual(t, uuid.Nil, product.ID)

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "widget", found.Name)
	assert.True(t, found.Price.Equal(product.Price))
}

func TestFindByIDNotFound(t *testing.T) {
	t.Parallel()

	repo := NewRepository(setupProductsTestDB(t))
	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListOrdering(t *testing.T) {
	t.Parallel()

	repo := NewRepository(setupProductsTestDB(t))
	ctx := context.Background()

	for _, p := range []struct {
		name string
		sort int
	}{
		{"zeta", 1},
		{"alpha", 2},
	} {
		err := repo.Create(ctx, &models.Product{
			Name:      p.name,
			Price:     decimal.RequireFromString("10.00"),
			SortOrder: p.sort,
		})
		require.NoError(t, err)
	}

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "zeta", listed[0].Name, "sort order wins over name")
}
