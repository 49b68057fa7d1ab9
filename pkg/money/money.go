// Package money handles amounts in paise, the minor unit of INR.
// Arithmetic stays on int64 so line totals are exact; decimal is only
// used at the display boundary.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Paise is an amount in minor currency units.
type Paise int64

// FromRupees converts a whole-rupee amount to paise.
func FromRupees(rupees int64) Paise {
	return Paise(rupees * 100)
}

// Rupees returns the amount as a decimal rupee value.
func (p Paise) Rupees() decimal.Decimal {
	return decimal.New(int64(p), -2)
}

// Format renders the amount as a rupee string, e.g. "₹2499.00".
func (p Paise) Format() string {
	return fmt.Sprintf("₹%s", p.Rupees().StringFixed(2))
}

// Mul multiplies a unit price by a quantity.
func (p Paise) Mul(qty int) Paise {
	return p * Paise(qty)
}

// HandmadeMarkup applies the handmade pricing tier: 1.5x the base price,
// rounded half away from zero to the nearest paisa.
func HandmadeMarkup(base Paise) Paise {
	marked := decimal.New(int64(base), 0).Mul(decimal.NewFromFloat(1.5)).Round(0)
	return Paise(marked.IntPart())
}
