package commerce

import (
	"net/url"
	"strings"
	"testing"
)

func TestCheckoutPageURL_SingleSKU(t *testing.T) {
	svc := NewService("https://ecommerce.example.com/")
	got := svc.CheckoutPageURL("", "SKU-1")

	if !strings.HasPrefix(got, "https://ecommerce.example.com/basket/add/?") {
		t.Fatalf("unexpected URL: %q", got)
	}
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("generated URL does not parse: %v", err)
	}
	q := u.Query()
	if len(q["sku"]) != 1 || q["sku"][0] != "SKU-1" {
		t.Errorf("sku params = %v", q["sku"])
	}
	if q.Has("bundle") {
		t.Errorf("unexpected bundle param in %q", got)
	}
}

func TestCheckoutPageURL_ProgramBundle(t *testing.T) {
	svc := NewService("https://ecommerce.example.com")
	got := svc.CheckoutPageURL("abcd-1234", "SKU-1", "SKU-2")

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("generated URL does not parse: %v", err)
	}
	q := u.Query()
	if len(q["sku"]) != 2 {
		t.Errorf("sku params = %v, want 2 entries", q["sku"])
	}
	if q.Get("bundle") != "abcd-1234" {
		t.Errorf("bundle = %q", q.Get("bundle"))
	}
}

func TestCheckoutPageURL_NoSKUs(t *testing.T) {
	svc := NewService("https://ecommerce.example.com")
	if got := svc.CheckoutPageURL("abcd-1234"); got != "" {
		t.Errorf("CheckoutPageURL with no SKUs = %q, want empty", got)
	}
	if got := svc.CheckoutPageURL("", ""); got != "" {
		t.Errorf("CheckoutPageURL with only empty SKUs = %q, want empty", got)
	}
}
