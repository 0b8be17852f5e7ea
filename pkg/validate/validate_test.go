package validate

import (
	"strings"
	"testing"
)

func TestIsAddress(t *testing.T) {
	if !IsAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2") {
		t.Fatal("expected valid WETH address to pass")
	}
	if IsAddress("0x1234") {
		t.Fatal("expected short string to fail")
	}
	if IsAddress("not-an-address") {
		t.Fatal("expected non-hex string to fail")
	}
}

func TestPairTag(t *testing.T) {
	a := "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	b := "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	t0, t1, err := PairTag(a + "-" + b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if t0 != strings.ToLower(a) || t1 != strings.ToLower(b) {
		t.Fatalf("got %s/%s", t0, t1)
	}

	if _, _, err := PairTag("just-one-dash-extra-bad"); err == nil {
		t.Fatal("expected error for malformed tag")
	}
	if _, _, err := PairTag("notanaddress-alsonotanaddress"); err == nil {
		t.Fatal("expected error for non-address sides")
	}
}
