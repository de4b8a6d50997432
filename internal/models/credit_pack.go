// ===============================
// internal/models/credit_pack.go
// ===============================

package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CreditPack is a purchasable bundle of credits at a fixed INR price.
type CreditPack struct {
	ID          int             `json:"id"`
	Credits     int             `json:"credits"`
	AmountINR   decimal.Decimal `json:"amountInr"`
	Description string          `json:"description"`
}

// CreditPackCatalog is the static pack catalog. It is built once at startup
// and passed to the payment service; it is never mutated at runtime —
// changing packs is a deployment action.
type CreditPackCatalog struct {
	packs map[int]CreditPack
}

// NewCreditPackCatalog builds a catalog from the given packs.
func NewCreditPackCatalog(packs ...CreditPack) *CreditPackCatalog {
	m := make(map[int]CreditPack, len(packs))
	for _, p := range packs {
		m[p.ID] = p
	}
	return &CreditPackCatalog{packs: m}
}

// DefaultCreditPackCatalog returns the standard pack lineup.
func DefaultCreditPackCatalog() *CreditPackCatalog {
	return NewCreditPackCatalog(
		CreditPack{ID: 1, Credits: 10, AmountINR: decimal.NewFromInt(100), Description: "10 Credits Pack"},
		CreditPack{ID: 2, Credits: 25, AmountINR: decimal.NewFromInt(225), Description: "25 Credits Pack"},
		CreditPack{ID: 3, Credits: 50, AmountINR: decimal.NewFromInt(400), Description: "50 Credits Pack"},
		CreditPack{ID: 4, Credits: 100, AmountINR: decimal.NewFromInt(750), Description: "100 Credits Pack"},
	)
}

// Lookup returns the pack with the given ID.
func (c *CreditPackCatalog) Lookup(packID int) (CreditPack, bool) {
	pack, ok := c.packs[packID]
	return pack, ok
}

// List returns all packs ordered by ID.
func (c *CreditPackCatalog) List() []CreditPack {
	packs := make([]CreditPack, 0, len(c.packs))
	for _, p := range c.packs {
		packs = append(packs, p)
	}
	sort.Slice(packs, func(i, j int) bool { return packs[i].ID < packs[j].ID })
	return packs
}
