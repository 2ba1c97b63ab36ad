package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReceipt = `{
	"receipt_number": "A-1042",
	"store_name": "Lenta",
	"store_address": "Nevsky 12, St. Petersburg",
	"date_time": "2025-03-14 18:22",
	"currency": "RUB",
	"total_amount": 1250.50,
	"total_discount": 50.00,
	"total_tax": 0,
	"items": [
		{
			"name": "Milk 3.2%",
			"quantity": {"amount": 2, "unit_of_measurement": "pcs"},
			"price": 89.90
		},
		{
			"name": "Apples",
			"quantity": {"amount": 1.5, "unit_of_measurement": "kg"},
			"price": 120.00,
			"discount": 10.00
		}
	]
}`

func TestParseReceipt(t *testing.T) {
	receipt, err := ParseReceipt([]byte(sampleReceipt))
	require.NoError(t, err)

	assert.Equal(t, "A-1042", receipt.ReceiptNumber)
	assert.Equal(t, "Lenta", receipt.StoreName)
	assert.Equal(t, 1250.50, receipt.TotalAmount)
	require.NotNil(t, receipt.Currency)
	assert.Equal(t, "RUB", *receipt.Currency)

	require.Len(t, receipt.Items, 2)
	assert.Equal(t, "Milk 3.2%", receipt.Items[0].Name)
	assert.True(t, receipt.Items[0].Quantity.Amount.Known)
	assert.Equal(t, 2.0, receipt.Items[0].Quantity.Amount.Value)
	assert.Equal(t, "pcs", receipt.Items[0].Quantity.Unit)
	require.NotNil(t, receipt.Items[1].Discount)
	assert.Equal(t, 10.00, *receipt.Items[1].Discount)
}

func TestParseReceiptNullCurrency(t *testing.T) {
	payload := `{
		"receipt_number": "unknown",
		"store_name": "unknown",
		"store_address": "not available",
		"date_time": "unknown",
		"currency": null,
		"total_amount": 0,
		"total_discount": 0,
		"total_tax": 0,
		"items": []
	}`

	receipt, err := ParseReceipt([]byte(payload))
	require.NoError(t, err)
	assert.Nil(t, receipt.Currency)
	assert.Equal(t, SentinelUnknown, receipt.ReceiptNumber)
	assert.Empty(t, receipt.Items)
}

func TestParseReceiptMissingField(t *testing.T) {
	payload := `{
		"receipt_number": "1",
		"store_name": "Store",
		"store_address": "Somewhere",
		"date_time": "2025-01-01 10:00",
		"total_amount": 10,
		"total_discount": 0,
		"items": []
	}`

	_, err := ParseReceipt([]byte(payload))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedReceipt)
	assert.Contains(t, err.Error(), "total_tax")
}

func TestParseReceiptNotJSON(t *testing.T) {
	_, err := ParseReceipt([]byte("I could not read this receipt, sorry."))
	assert.ErrorIs(t, err, ErrMalformedReceipt)
}

func TestParseReceiptInvalidUnit(t *testing.T) {
	payload := `{
		"receipt_number": "1",
		"store_name": "Store",
		"store_address": "Somewhere",
		"date_time": "2025-01-01 10:00",
		"total_amount": 10,
		"total_discount": 0,
		"total_tax": 0,
		"items": [
			{"name": "Juice", "quantity": {"amount": 1, "unit_of_measurement": "liters"}, "price": 3.5}
		]
	}`

	_, err := ParseReceipt([]byte(payload))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedReceipt)
	assert.Contains(t, err.Error(), "liters")
}

func TestFlexAmountUnmarshal(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    FlexAmount
		wantErr bool
	}{
		{name: "integer", input: `3`, want: FlexAmount{Value: 3, Known: true}},
		{name: "fraction", input: `0.75`, want: FlexAmount{Value: 0.75, Known: true}},
		{name: "unknown sentinel", input: `"unknown"`, want: FlexAmount{}},
		{name: "not available sentinel", input: `"not available"`, want: FlexAmount{}},
		{name: "arbitrary string", input: `"a few"`, wantErr: true},
		{name: "object", input: `{}`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got FlexAmount
			err := json.Unmarshal([]byte(tc.input), &got)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFlexAmountMarshal(t *testing.T) {
	known, err := json.Marshal(FlexAmount{Value: 2.5, Known: true})
	require.NoError(t, err)
	assert.Equal(t, "2.5", string(known))

	unknown, err := json.Marshal(FlexAmount{})
	require.NoError(t, err)
	assert.Equal(t, `"unknown"`, string(unknown))
}
