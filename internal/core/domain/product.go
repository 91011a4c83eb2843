package domain

import "github.com/shopspring/decimal"

type Product struct {
	SKU            string
	Name           string
	Tagline        string
	Description    string
	Price          decimal.Decimal
	CompareAtPrice decimal.Decimal
	Currency       string
	ReviewCount    int
	Sizes          []Size
}

// DiscountPercent is the whole-number markdown from CompareAtPrice to Price,
// rounded half up. It is zero when there is no markdown.
func (p Product) DiscountPercent() int64 {
	if p.CompareAtPrice.IsZero() || !p.Price.LessThan(p.CompareAtPrice) {
		return 0
	}
	off := p.CompareAtPrice.Sub(p.Price).Div(p.CompareAtPrice).Mul(decimal.NewFromInt(100))
	return off.Round(0).IntPart()
}

// Hoodie is the single item the storefront sells.
var Hoodie = Product{
	SKU:     "cit-hoodie",
	Name:    "CIT HOODIE",
	Tagline: "Oversized Fit Hoodie",
	Description: "Engineered for the digital nomad. High-density cotton blend with reinforced stitching. " +
		"Features hidden pockets for secure storage and a relaxed fit for maximum mobility. Limited run.",
	Price:          decimal.NewFromInt(180),
	CompareAtPrice: decimal.NewFromInt(250),
	Currency:       "DH",
	ReviewCount:    289,
	Sizes:          Sizes,
}
