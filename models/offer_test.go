package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func decs(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		out = append(out, dec(v))
	}
	return out
}

func TestNewOfferDerivedTotals(t *testing.T) {
	o, err := NewOffer("Mouse", dec("99.90"), decs("12.50", "0", "7.99"), 4.5, 120,
		"https://www.skapiec.pl/red/123/offer", "mousestore.pl")
	if err != nil {
		t.Fatalf("new offer: %v", err)
	}

	if o.SellerID != "123" {
		t.Fatalf("seller id = %q, want 123", o.SellerID)
	}
	if !o.MinTotal.Equal(dec("99.90")) {
		t.Fatalf("min total = %s, want 99.90", o.MinTotal)
	}
	if !o.MaxTotal.Equal(dec("112.40")) {
		t.Fatalf("max total = %s, want 112.40", o.MaxTotal)
	}
	if o.LineID != -1 {
		t.Fatalf("fresh offer should not be assigned to a line, got %d", o.LineID)
	}
}

func TestNewOfferRejectsInvalidListings(t *testing.T) {
	if _, err := NewOffer("Mouse", dec("10"), nil, 0, 0,
		"https://www.skapiec.pl/red/123/offer", "store"); err == nil {
		t.Fatalf("offer without delivery options must be rejected")
	}

	if _, err := NewOffer("Mouse", dec("10"), decs("5"), 0, 0,
		"https://www.skapiec.pl/offer/123", "store"); err == nil {
		t.Fatalf("offer without a seller id in its link must be rejected")
	}
}

func TestSellerIDFromLink(t *testing.T) {
	tests := []struct {
		link    string
		want    string
		wantErr bool
	}{
		{link: "https://www.skapiec.pl/red/866987/comp", want: "866987"},
		{link: "site/cat/200/red/1/x", want: "1"},
		{link: "https://www.skapiec.pl/site/cat/200", wantErr: true},
		{link: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := SellerIDFromLink(tt.link)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("SellerIDFromLink(%q) expected error", tt.link)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("SellerIDFromLink(%q) = (%q, %v), want %q", tt.link, got, err, tt.want)
		}
	}
}
