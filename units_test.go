package bookstore

import (
	"math/big"
	"testing"
)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in       string
		decimals int
		want     string
		wantErr  bool
	}{
		{in: "0.001", decimals: 18, want: "1000000000000000"},
		{in: "2", decimals: 18, want: "2000000000000000000"},
		{in: " 1.50 ", decimals: 6, want: "1500000"},
		{in: ".5", decimals: 1, want: "5"},
		{in: "3.", decimals: 2, want: "300"},
		{in: "", decimals: 18, want: "0"},
		{in: "0", decimals: 18, want: "0"},
		{in: "1.0000000", decimals: 2, want: "100"},
		{in: "0.001", decimals: 2, wantErr: true},
		{in: "abc", decimals: 18, wantErr: true},
		{in: "-1", decimals: 18, wantErr: true},
		{in: "1e18", decimals: 18, wantErr: true},
		{in: "1.2.3", decimals: 18, wantErr: true},
		{in: ".", decimals: 18, wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseUnits(tt.in, tt.decimals)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseUnits(%q, %d) = %s, want error", tt.in, tt.decimals, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseUnits(%q, %d) returned error: %v", tt.in, tt.decimals, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseUnits(%q, %d) = %s, want %s", tt.in, tt.decimals, got, tt.want)
		}
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		in       string
		decimals int
		want     string
	}{
		{in: "1000000000000000", decimals: 18, want: "0.001"},
		{in: "2000000000000000000", decimals: 18, want: "2"},
		{in: "1500000", decimals: 6, want: "1.5"},
		{in: "0", decimals: 18, want: "0"},
		{in: "-25", decimals: 1, want: "-2.5"},
		{in: "123", decimals: 0, want: "123"},
	}

	for _, tt := range tests {
		v, _ := new(big.Int).SetString(tt.in, 10)
		if got := FormatUnits(v, tt.decimals); got != tt.want {
			t.Errorf("FormatUnits(%s, %d) = %s, want %s", tt.in, tt.decimals, got, tt.want)
		}
	}

	if got := FormatUnits(nil, 18); got != "0" {
		t.Errorf("FormatUnits(nil) = %s, want 0", got)
	}
}

func TestUnitsRoundTrip(t *testing.T) {
	for _, s := range []string{"0.001", "2", "1234.5678", "0.000000000000000001"} {
		v, err := ParseUnits(s, 18)
		if err != nil {
			t.Fatalf("ParseUnits(%q): %v", s, err)
		}
		if got := FormatUnits(v, 18); got != s {
			t.Errorf("round trip of %q gave %q", s, got)
		}
	}
}
