package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"}, // half rounds up
		{"1.004", "1.00"},
		{"1.015", "1.02"},
		{"-1.005", "-1.01"}, // half away from zero
		{"12", "12.00"},
		{"0.1", "0.10"},
	}
	for _, tt := range tests {
		got := Quantize(dec(tt.in))
		if got.StringFixed(2) != tt.want {
			t.Errorf("Quantize(%s) = %s, want %s", tt.in, got.StringFixed(2), tt.want)
		}
	}
}

func TestApplyPercent(t *testing.T) {
	tests := []struct {
		base    string
		percent string
		want    string
	}{
		{"40.00", "60", "24.00"},
		{"40.00", "40", "16.00"},
		{"16.00", "70", "11.20"},
		{"16.00", "30", "4.80"},
		{"16.00", "0", "0.00"},
		{"33.33", "33.33", "11.11"}, // 11.1088... rounds to 11.11
	}
	for _, tt := range tests {
		got := ApplyPercent(dec(tt.base), dec(tt.percent))
		if got.StringFixed(2) != tt.want {
			t.Errorf("ApplyPercent(%s, %s) = %s, want %s", tt.base, tt.percent, got.StringFixed(2), tt.want)
		}
	}
}

func TestDivideBy(t *testing.T) {
	got := DivideBy(dec("24.00"), 2)
	if got.StringFixed(2) != "12.00" {
		t.Errorf("DivideBy(24.00, 2) = %s, want 12.00", got.StringFixed(2))
	}
	got = DivideBy(dec("10.00"), 3)
	if got.StringFixed(2) != "3.33" {
		t.Errorf("DivideBy(10.00, 3) = %s, want 3.33", got.StringFixed(2))
	}
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("12,50")
	if err != nil {
		t.Fatalf("ParseAmount(12,50): %v", err)
	}
	if !d.Equal(dec("12.50")) {
		t.Errorf("ParseAmount(12,50) = %s, want 12.50", d)
	}

	if _, err := ParseAmount(""); err == nil {
		t.Error("ParseAmount(\"\") expected error")
	}
	if _, err := ParseAmount("abc"); err == nil {
		t.Error("ParseAmount(abc) expected error")
	}
}
