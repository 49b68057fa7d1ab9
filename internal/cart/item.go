package cart

import (
	"github.com/nawaweeb/storefront/pkg/money"
)

// Item is one cart line. Title, image, size and price are display
// snapshots captured when the item was added; they are never re-read
// from the catalog.
type Item struct {
	ProductID  string      `json:"productId"`
	VariantID  string      `json:"variantId,omitempty"`
	Title      string      `json:"title"`
	Image      string      `json:"image"`
	Size       string      `json:"size"`
	Price      money.Paise `json:"price"`
	Qty        int         `json:"qty"`
	IsHandmade bool        `json:"isHandmade"`
	MaxStock   int         `json:"maxStock,omitempty"`
}

// Key is the merge identity of a line. Lines with the same product and
// variant but different pricing tiers stay separate entries.
type Key struct {
	ProductID  string
	VariantID  string
	IsHandmade bool
}

// Key returns the item's merge identity.
func (i Item) Key() Key {
	return Key{ProductID: i.ProductID, VariantID: i.VariantID, IsHandmade: i.IsHandmade}
}

// LineTotal is the item's contribution to the subtotal.
func (i Item) LineTotal() money.Paise {
	return i.Price.Mul(i.Qty)
}

// StockCap returns the largest quantity the view allows for this line.
// Snapshots without stock data fall back to a cap of 10.
func (i Item) StockCap() int {
	if i.MaxStock > 0 {
		return i.MaxStock
	}
	return defaultStockCap
}

const defaultStockCap = 10

// MergeLine folds one line into lines: a matching identity sums
// quantities in place, anything else is appended. Insertion order of
// existing entries is preserved.
func MergeLine(lines []Item, line Item) []Item {
	for idx := range lines {
		if lines[idx].Key() == line.Key() {
			lines[idx].Qty += line.Qty
			return lines
		}
	}
	return append(lines, line)
}

// MergeCarts folds every line of addition into base, summing quantities
// on identity collisions. base is not mutated.
func MergeCarts(base, addition []Item) []Item {
	merged := make([]Item, len(base))
	copy(merged, base)
	for _, line := range addition {
		merged = MergeLine(merged, line)
	}
	return merged
}

// Subtotal is the exact integer sum of line totals.
func Subtotal(lines []Item) money.Paise {
	var total money.Paise
	for _, line := range lines {
		total += line.LineTotal()
	}
	return total
}

func findIndex(lines []Item, key Key) int {
	for idx := range lines {
		if lines[idx].Key() == key {
			return idx
		}
	}
	return -1
}

func cloneLines(lines []Item) []Item {
	out := make([]Item, len(lines))
	copy(out, lines)
	return out
}
