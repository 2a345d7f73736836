package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora-dev/vendora-backend/pkg/config"
	pkgerrors "github.com/vendora-dev/vendora-backend/pkg/errors"
)

func priceLine(price string, qty int) Line {
	return Line{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func TestComputeTotalNoDiscount(t *testing.T) {
	t.Parallel()

	breakdown := ComputeTotal([]Line{
		priceLine("49.99", 2),
		priceLine("10.00", 1),
	}, 0)

	assert.Equal(t, "109.98", breakdown.SubtotalDisplay())
	assert.Equal(t, "0.00", breakdown.DiscountDisplay())
	assert.Equal(t, "109.98", breakdown.TotalDisplay())
}

func TestComputeTotalWithDiscount(t *testing.T) {
	t.Parallel()

	breakdown := ComputeTotal([]Line{priceLine("100.00", 1)}, 15)

	assert.Equal(t, "15.00", breakdown.DiscountDisplay())
	assert.Equal(t, "85.00", breakdown.TotalDisplay())
}

func TestComputeTotalRoundsOnlyAtDisplay(t *testing.T) {
	t.Parallel()

	// 33.33 * 10% = 3.333: full precision internally, cents at the edge.
	breakdown := ComputeTotal([]Line{priceLine("33.33", 1)}, 10)

	assert.Equal(t, "3.333", breakdown.DiscountAmount.String())
	assert.Equal(t, "3.33", breakdown.DiscountDisplay())
	assert.Equal(t, "29.997", breakdown.Total.String())
	assert.Equal(t, "30.00", breakdown.TotalDisplay())
}

func TestComputeTotalEmptyCart(t *testing.T) {
	t.Parallel()

	breakdown := ComputeTotal(nil, 50)
	assert.True(t, breakdown.Subtotal.IsZero())
	assert.True(t, breakdown.Total.IsZero())
}

func TestComputeTotalNegativePercentClamped(t *testing.T) {
	t.Parallel()

	breakdown := ComputeTotal([]Line{priceLine("50.00", 1)}, -10)
	assert.Equal(t, 0, breakdown.DiscountPercent)
	assert.Equal(t, "50.00", breakdown.TotalDisplay())
}

func TestCheckBounds(t *testing.T) {
	t.Parallel()

	cfg := config.ShopConfig{MinOrderTotal: 20, MaxOrderTotal: 1000}

	cases := []struct {
		name  string
		total string
		valid bool
	}{
		{"below minimum", "19.99", false},
		{"at minimum", "20.00", true},
		{"in range", "500.00", true},
		{"at maximum", "1000.00", true},
		{"above maximum", "1000.01", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			breakdown := ComputeTotal([]Line{priceLine(tc.total, 1)}, 0)
			err := CheckBounds(breakdown, cfg)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
			}
		})
	}
}

func TestCheckBoundsAppliesToDiscountedTotal(t *testing.T) {
	t.Parallel()

	cfg := config.ShopConfig{MinOrderTotal: 20, MaxOrderTotal: 1000}

	// 22 USDT with a 15% coupon lands below the minimum.
	breakdown := ComputeTotal([]Line{priceLine("22.00", 1)}, 15)
	err := CheckBounds(breakdown, cfg)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
