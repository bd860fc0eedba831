package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Table is a fixed conversion table between platform currencies and the
// gateway's settlement currency. It is loaded once from config; the same
// table version always produces the same result, so settlements can be
// re-derived during reconciliation and audit.
type Table struct {
	Version    string
	Settlement string
	// rates maps a currency code to the settlement-currency value of one
	// unit of that currency.
	rates map[string]decimal.Decimal
}

// gateway amounts are expressed in the minor unit (cents), two places.
const settlementPlaces = 2

func NewTable(version, settlement string, rates map[string]decimal.Decimal) (*Table, error) {
	if settlement == "" {
		return nil, fmt.Errorf("settlement currency is required")
	}
	normalized := make(map[string]decimal.Decimal, len(rates)+1)
	for code, rate := range rates {
		if rate.Sign() <= 0 {
			return nil, fmt.Errorf("rate for %s must be positive, got %s", code, rate.String())
		}
		normalized[strings.ToUpper(code)] = rate
	}
	normalized[strings.ToUpper(settlement)] = decimal.NewFromInt(1)

	return &Table{
		Version:    version,
		Settlement: strings.ToUpper(settlement),
		rates:      normalized,
	}, nil
}

// ParseRates parses "LKR:0.0033,INR:0.012" style config values.
func ParseRates(raw string) (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal)
	if strings.TrimSpace(raw) == "" {
		return rates, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid rate pair %q", pair)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", parts[0], err)
		}
		rates[strings.ToUpper(strings.TrimSpace(parts[0]))] = rate
	}
	return rates, nil
}

// ToSettlement converts a local-currency amount to the gateway settlement
// currency, rounded half-up to the gateway minor unit.
func (t *Table) ToSettlement(amount decimal.Decimal, from string) (decimal.Decimal, string, error) {
	rate, ok := t.rates[strings.ToUpper(from)]
	if !ok {
		return decimal.Zero, "", fmt.Errorf("no rate for currency %s (table %s)", from, t.Version)
	}
	// decimal.Round is half away from zero; amounts here are non-negative,
	// so this is round-half-up.
	return amount.Mul(rate).Round(settlementPlaces), t.Settlement, nil
}

// FromSettlement converts a settlement-currency amount back to a local
// currency. Local amounts keep their natural precision; no rounding.
func (t *Table) FromSettlement(amount decimal.Decimal, to string) (decimal.Decimal, error) {
	rate, ok := t.rates[strings.ToUpper(to)]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate for currency %s (table %s)", to, t.Version)
	}
	return amount.Div(rate), nil
}

// Supports reports whether the table can convert the given currency.
func (t *Table) Supports(code string) bool {
	_, ok := t.rates[strings.ToUpper(code)]
	return ok
}

// MinorUnits returns a settlement amount in the gateway's smallest unit
// (e.g. cents), as gateways charge in integer minor units.
func MinorUnits(settlementAmount decimal.Decimal) int64 {
	return settlementAmount.Shift(settlementPlaces).Round(0).IntPart()
}

// FromMinorUnits converts gateway minor units back to a settlement amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-settlementPlaces)
}
