package currency

import (
	"testing"

	"github.com/shopspring/decimal"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable("2026-01", "USD", map[string]decimal.Decimal{
		"LKR": decimal.RequireFromString("0.0033"),
		"INR": decimal.RequireFromString("0.012"),
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func TestToSettlement(t *testing.T) {
	table := testTable(t)

	tests := []struct {
		name   string
		amount string
		from   string
		want   string
	}{
		{"whole amount", "1000", "LKR", "3.3"},
		{"rounds half up", "1050", "LKR", "3.47"}, // 3.465 -> 3.47
		{"settlement currency is identity", "12.34", "USD", "12.34"},
		{"case insensitive", "1000", "lkr", "3.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cur, err := table.ToSettlement(decimal.RequireFromString(tt.amount), tt.from)
			if err != nil {
				t.Fatalf("ToSettlement: %v", err)
			}
			if cur != "USD" {
				t.Errorf("settlement currency = %s, want USD", cur)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ToSettlement(%s %s) = %s, want %s", tt.amount, tt.from, got.String(), tt.want)
			}
		})
	}
}

func TestToSettlementUnknownCurrency(t *testing.T) {
	table := testTable(t)
	if _, _, err := table.ToSettlement(decimal.NewFromInt(10), "EUR"); err == nil {
		t.Fatal("expected error for unknown currency")
	}
}

func TestToSettlementDeterministic(t *testing.T) {
	table := testTable(t)
	amount := decimal.RequireFromString("12345.67")

	first, _, err := table.ToSettlement(amount, "LKR")
	if err != nil {
		t.Fatalf("ToSettlement: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _, _ := table.ToSettlement(amount, "LKR")
		if !again.Equal(first) {
			t.Fatalf("conversion not deterministic: %s vs %s", again, first)
		}
	}
}

func TestFromSettlementKeepsPrecision(t *testing.T) {
	table := testTable(t)

	got, err := table.FromSettlement(decimal.RequireFromString("3.30"), "LKR")
	if err != nil {
		t.Fatalf("FromSettlement: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("FromSettlement = %s, want 1000", got.String())
	}
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"3.3", 330},
		{"0.01", 1},
		{"12.34", 1234},
		{"0", 0},
	}

	for _, tt := range tests {
		if got := MinorUnits(decimal.RequireFromString(tt.amount)); got != tt.want {
			t.Errorf("MinorUnits(%s) = %d, want %d", tt.amount, got, tt.want)
		}
	}

	if !FromMinorUnits(330).Equal(decimal.RequireFromString("3.3")) {
		t.Errorf("FromMinorUnits(330) = %s, want 3.3", FromMinorUnits(330))
	}
}

func TestNewTableRejectsBadRates(t *testing.T) {
	_, err := NewTable("v", "USD", map[string]decimal.Decimal{"LKR": decimal.Zero})
	if err == nil {
		t.Fatal("expected error for zero rate")
	}
}

func TestParseRates(t *testing.T) {
	rates, err := ParseRates("LKR:0.0033, inr:0.012")
	if err != nil {
		t.Fatalf("ParseRates: %v", err)
	}
	if len(rates) != 2 {
		t.Fatalf("got %d rates, want 2", len(rates))
	}
	if !rates["INR"].Equal(decimal.RequireFromString("0.012")) {
		t.Errorf("INR rate = %s", rates["INR"])
	}

	if _, err := ParseRates("LKR=0.0033"); err == nil {
		t.Error("expected error for malformed pair")
	}
}
