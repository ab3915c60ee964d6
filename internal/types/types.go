// README: Shared identifiers and the money value object used across modules.
package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID is an opaque entity identifier. All cross-module references (order →
// customer, bid → order, ...) are carried as IDs and resolved through the
// owning module's store, never as in-memory object graphs.
type ID string

// NewID returns a fresh identifier for a newly created entity.
func NewID() ID {
	return ID(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// Money is an amount in integer cents. Keeping balances and prices in cents
// avoids float drift in discount and debit arithmetic.
type Money int64

// FromDollars converts a dollar amount (as received on the wire) to cents,
// rounding half away from zero.
func FromDollars(d float64) Money {
	if d < 0 {
		return Money(d*100 - 0.5)
	}
	return Money(d*100 + 0.5)
}

// Dollars renders the amount as a float for JSON responses.
func (m Money) Dollars() float64 {
	return float64(m) / 100
}

// String renders the amount as a dollar figure for error messages and logs.
func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s$%d.%02d", sign, m/100, m%100)
}

// Percent returns p percent of m, rounded half up to the nearest cent.
func (m Money) Percent(p int64) Money {
	return Money((int64(m)*p + 50) / 100)
}
