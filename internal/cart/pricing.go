package cart

import (
	"github.com/shopspring/decimal"

	"github.com/vendora-dev/vendora-backend/pkg/config"
	pkgerrors "github.com/vendora-dev/vendora-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// PriceBreakdown is the priced cart: the raw subtotal, the discount taken
// off it and the amount the buyer pays. Values carry full precision; use
// the *Display helpers for user-facing strings.
type PriceBreakdown struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent int             `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Total           decimal.Decimal `json:"total"`
}

// SubtotalDisplay renders the subtotal rounded to cents.
func (p PriceBreakdown) SubtotalDisplay() string {
	return p.Subtotal.StringFixed(2)
}

// DiscountDisplay renders the discount amount rounded to cents.
func (p PriceBreakdown) DiscountDisplay() string {
	return p.DiscountAmount.StringFixed(2)
}

// TotalDisplay renders the payable total rounded to cents.
func (p PriceBreakdown) TotalDisplay() string {
	return p.Total.StringFixed(2)
}

// ComputeTotal prices the cart under the given discount percent. Rounding
// happens only at display time, never in the arithmetic.
func ComputeTotal(lines []Line, discountPercent int) PriceBreakdown {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal())
	}

	if discountPercent < 0 {
		discountPercent = 0
	}
	discount := subtotal.
		Mul(decimal.NewFromInt(int64(discountPercent))).
		Div(oneHundred)

	return PriceBreakdown{
		Subtotal:        subtotal,
		DiscountPercent: discountPercent,
		DiscountAmount:  discount,
		Total:           subtotal.Sub(discount),
	}
}

// CheckBounds enforces the order total window as a checkout precondition.
// The payable total after discount is what gets checked.
func CheckBounds(breakdown PriceBreakdown, cfg config.ShopConfig) error {
	if breakdown.Total.LessThan(cfg.MinTotal()) {
		return pkgerrors.New(pkgerrors.CodeValidation, "order total is below the minimum").
			WithDetails(map[string]string{
				"total":   breakdown.TotalDisplay(),
				"minimum": cfg.MinTotal().StringFixed(2),
			})
	}
	if breakdown.Total.GreaterThan(cfg.MaxTotal()) {
		return pkgerrors.New(pkgerrors.CodeValidation, "order total is above the maximum").
			WithDetails(map[string]string{
				"total":   breakdown.TotalDisplay(),
				"maximum": cfg.MaxTotal().StringFixed(2),
			})
	}
	return nil
}
