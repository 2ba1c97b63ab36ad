package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Sentinel values a provider may return when a field cannot be read off the
// receipt. They are preserved verbatim in the stored result.
const (
	SentinelUnknown      = "unknown"
	SentinelNotAvailable = "not available"
)

var (
	ErrMalformedReceipt = errors.New("malformed receipt payload")

	receiptRequiredFields = []string{
		"receipt_number",
		"store_name",
		"store_address",
		"date_time",
		"total_amount",
		"total_discount",
		"total_tax",
		"items",
	}

	validUnits = map[string]bool{
		"pcs":                true,
		"kg":                 true,
		"lb":                 true,
		"g":                  true,
		SentinelUnknown:      true,
		SentinelNotAvailable: true,
	}
)

type (
	// ExtractedReceipt is the structured payload a vision provider returns
	// for one receipt image. It is validated at the provider boundary and
	// persisted as the image record's result once extraction finishes.
	ExtractedReceipt struct {
		ReceiptNumber string     `json:"receipt_number"`
		StoreName     string     `json:"store_name"`
		StoreAddress  string     `json:"store_address"`
		DateTime      string     `json:"date_time"`
		Currency      *string    `json:"currency"`
		TotalAmount   float64    `json:"total_amount"`
		TotalDiscount float64    `json:"total_discount"`
		TotalTax      float64    `json:"total_tax"`
		Items         []LineItem `json:"items"`
	}

	LineItem struct {
		Name     string       `json:"name"`
		Quantity ItemQuantity `json:"quantity"`
		Price    float64      `json:"price"`
		Discount *float64     `json:"discount,omitempty"`
	}

	ItemQuantity struct {
		Amount FlexAmount `json:"amount"`
		Unit   string     `json:"unit_of_measurement"`
	}

	// FlexAmount is a quantity amount that is either a number or the
	// "unknown" sentinel, depending on how legible the receipt was.
	FlexAmount struct {
		Value float64
		Known bool
	}
)

func (a FlexAmount) MarshalJSON() ([]byte, error) {
	if !a.Known {
		return json.Marshal(SentinelUnknown)
	}
	return json.Marshal(a.Value)
}

func (a *FlexAmount) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		v, convErr := strconv.ParseFloat(n.String(), 64)
		if convErr != nil {
			return fmt.Errorf("invalid quantity amount %q", n.String())
		}
		a.Value = v
		a.Known = true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("quantity amount must be a number or sentinel string")
	}
	if s != SentinelUnknown && s != SentinelNotAvailable {
		return fmt.Errorf("invalid quantity amount sentinel %q", s)
	}
	a.Known = false
	return nil
}

// ParseReceipt decodes raw model output into an ExtractedReceipt, rejecting
// payloads that are not JSON objects or that miss required top-level fields.
// Schema mismatches are provider failures; nothing malformed reaches storage.
func ParseReceipt(data []byte) (*ExtractedReceipt, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReceipt, err)
	}

	for _, field := range receiptRequiredFields {
		if _, ok := fields[field]; !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrMalformedReceipt, field)
		}
	}

	var receipt ExtractedReceipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReceipt, err)
	}

	for i, item := range receipt.Items {
		if !validUnits[item.Quantity.Unit] {
			return nil, fmt.Errorf("%w: item %d has invalid unit %q", ErrMalformedReceipt, i, item.Quantity.Unit)
		}
	}

	return &receipt, nil
}
