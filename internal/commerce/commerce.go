// Package commerce builds checkout URLs against the ecommerce service.
package commerce

import (
	"net/url"
	"strings"
)

// Service generates checkout page URLs for course seats and program bundles.
type Service struct {
	// BaseURL is the ecommerce service root, e.g. "https://ecommerce.example.com".
	BaseURL string
}

// NewService creates a commerce service for the given ecommerce root URL.
func NewService(baseURL string) *Service {
	return &Service{BaseURL: strings.TrimRight(baseURL, "/")}
}

// CheckoutPageURL returns the basket URL that adds the given SKUs.
// When bundleUUID is non-empty the basket is tagged as a program bundle so
// program discounts apply. Returns "" when there is nothing to purchase.
func (s *Service) CheckoutPageURL(bundleUUID string, skus ...string) string {
	if len(skus) == 0 {
		return ""
	}

	q := url.Values{}
	for _, sku := range skus {
		if sku != "" {
			q.Add("sku", sku)
		}
	}
	if len(q["sku"]) == 0 {
		return ""
	}
	if bundleUUID != "" {
		q.Set("bundle", bundleUUID)
	}

	return s.BaseURL + "/basket/add/?" + q.Encode()
}
