package coupons

import (
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendora-dev/vendora-backend/pkg/config"
	pkgerrors "github.com/vendora-dev/vendora-backend/pkg/errors"
	"github.com/vendora-dev/vendora-backend/pkg/logger"
)

func setupCouponsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:coupons_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS discount_coupons (
  id TEXT PRIMARY KEY,
  user_id INTEGER NOT NULL,
  code TEXT NOT NULL UNIQUE,
  discount_percent INTEGER NOT NULL,
  source TEXT NOT NULL,
  is_used INTEGER NOT NULL DEFAULT 0,
  expires_at DATETIME NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

func newCouponsService(t *testing.T, conn *gorm.DB) *service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "coupons-test", Output: io.Discard})
	cfg := config.ShopConfig{CouponTTLDays: 30}
	return NewService(NewRepository(conn), cfg, logg).(*service)
}

func TestCreateGeneratesWellFormedCode(t *testing.T) {
	t.Parallel()

	svc := newCouponsService(t, setupCouponsTestDB(t))
	ctx := context.Background()

	coupon, err := svc.Create(ctx, 42, 15, "loyalty")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{10}$`), coupon.Code)
	assert.Equal(t, 15, coupon.DiscountPercent)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), coupon.ExpiresAt, time.Minute)
}

func TestCreateRejectsBadPercent(t *testing.T) {
	t.Parallel()

	svc := newCouponsService(t, setupCouponsTestDB(t))
	for _, percent := range []int{0, -5, 101} {
		_, err := svc.Create(context.Background(), 42, percent, "promo")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	}
}

func TestValidateReasons(t *testing.T) {
	t.Parallel()

	conn := setupCouponsTestDB(t)
	svc := newCouponsService(t, conn)
	ctx := context.Background()

	coupon, err := svc.Create(ctx, 42, 10, "promo")
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		got, err := svc.Validate(ctx, coupon.Code, 42)
		require.NoError(t, err)
		assert.Equal(t, coupon.ID, got.ID)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.Validate(ctx, "NOSUCHCODE", 42)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	})

	t.Run("foreign owner", func(t *testing.T) {
		_, err := svc.Validate(ctx, coupon.Code, 43)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})

	t.Run("used", func(t *testing.T) {
		used, err := svc.Create(ctx, 42, 10, "promo")
		require.NoError(t, err)
		ok, err := svc.repo.MarkUsed(ctx, used.ID)
		require.NoError(t, err)
		require.True(t, ok)

		_, err = svc.Validate(ctx, used.Code, 42)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := svc.Create(ctx, 42, 10, "promo")
		require.NoError(t, err)
		err = conn.Exec("UPDATE discount_coupons SET expires_at = ? WHERE id = ?",
			time.Now().Add(-time.Hour), expired.ID.String()).Error
		require.NoError(t, err)

		_, err = svc.Validate(ctx, expired.Code, 42)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})
}

func TestMarkUsedIsSingleShot(t *testing.T) {
	t.Parallel()

	conn := setupCouponsTestDB(t)
	svc := newCouponsService(t, conn)
	ctx := context.Background()

	coupon, err := svc.Create(ctx, 42, 10, "promo")
	require.NoError(t, err)

	ok, err := svc.repo.MarkUsed(ctx, coupon.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.repo.MarkUsed(ctx, coupon.ID)
	require.NoError(t, err)
	assert.False(t, ok, "a second consume attempt loses")
}

func TestListAvailableFiltersUsedAndExpired(t *testing.T) {
	t.Parallel()

	conn := setupCouponsTestDB(t)
	svc := newCouponsService(t, conn)
	ctx := context.Background()

	keep, err := svc.Create(ctx, 42, 10, "promo")
	require.NoError(t, err)

	used, err := svc.Create(ctx, 42, 10, "promo")
	require.NoError(t, err)
	_, err = svc.repo.MarkUsed(ctx, used.ID)
	require.NoError(t, err)

	expired, err := svc.Create(ctx, 42, 10, "promo")
	require.NoError(t, err)
	err = conn.Exec("UPDATE discount_coupons SET expires_at = ? WHERE id = ?",
		time.Now().Add(-time.Hour), expired.ID.String()).Error
	require.NoError(t, err)

	_, err = svc.Create(ctx, 77, 10, "promo")
	require.NoError(t, err)

	available, err := svc.ListAvailable(ctx, 42)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, keep.ID, available[0].ID)
}

func TestExpireSweep(t *testing.T) {
	t.Parallel()

	conn := setupCouponsTestDB(t)
	svc := newCouponsService(t, conn)
	ctx := context.Background()

	_, err := svc.Create(ctx, 42, 10, "promo")
	require.NoError(t, err)

	stale, err := svc.Create(ctx, 42, 10, "promo")
	require.NoError(t, err)
	err = conn.Exec("UPDATE discount_coupons SET expires_at = ? WHERE id = ?",
		time.Now().Add(-time.Hour), stale.ID.String()).Error
	require.NoError(t, err)

	removed, err := svc.ExpireSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var count int64
	require.NoError(t, conn.Table("discount_coupons").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
