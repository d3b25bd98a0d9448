package igold

import (
	"fmt"
	"time"
)

type MetalType string

const (
	MetalGold   MetalType = "gold"
	MetalSilver MetalType = "silver"
)

type ProductType string

const (
	ProductBar     ProductType = "bar"
	ProductCoin    ProductType = "coin"
	ProductUnknown ProductType = "unknown"
)

// Attributes is the typed result of a full product-page extraction.
// Optional fields carry an explicit Ok flag instead of being probed for
// zero values.
type Attributes struct {
	Name        string
	Url         string
	MetalType   MetalType
	ProductType ProductType

	WeightG        OptFloat
	PurityPerMille OptFloat
	FineMetalG     OptFloat

	SellPrice OptFloat
	BuyPrice  OptFloat
}

type OptFloat struct {
	Value float64
	Ok    bool
}

func Some(v float64) OptFloat {
	return OptFloat{Value: v, Ok: true}
}

// CategoryPrice is the lightweight (url, sell, buy) triple read straight
// off a category listing page.
type CategoryPrice struct {
	Url       string
	SellPrice float64
	BuyPrice  float64
}

// Category pairs a listing path with a product-type hint used when a new
// product gets materialized from that listing.
type Category struct {
	Path string
	Hint ProductType
}

type FailedURL struct {
	Url    string
	Reason string
	Time   time.Time
}

// NetworkError covers timeouts, connection failures and 5xx/429 responses.
// These are transient and retried with backoff.
type NetworkError struct {
	Url    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: http %d", e.Url, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Url, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ClientError covers 4xx responses other than 429. These are treated as
// non-transient and never retried.
type ClientError struct {
	Url    string
	Status int
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("fetch %s: http %d (not retried)", e.Url, e.Status)
}

// ExtractionError means a page was fetched but a required field could not
// be read from it.
type ExtractionError struct {
	Url    string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.Url, e.Reason)
}
