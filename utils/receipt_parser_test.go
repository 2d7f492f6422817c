package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/expenso/expense-ocr/dto"
)

func TestAmountFromTotalKeyword(t *testing.T) {
	result := ParseReceiptText("GRAND TOTAL RS 1,234.50")

	if assert.NotNil(t, result.Amount) {
		assert.Equal(t, 1234.50, *result.Amount)
	}
}

func TestAmountFallbackBareDecimal(t *testing.T) {
	result := ParseReceiptText("1234.50")

	if assert.NotNil(t, result.Amount) {
		assert.Equal(t, 1234.50, *result.Amount)
	}
}

func TestAmountAbsent(t *testing.T) {
	result := ParseReceiptText("thank you, visit again")

	assert.Nil(t, result.Amount)
	assert.Empty(t, result.Error)
}

func TestVendorFromDomain(t *testing.T) {
	text := `Welcome to
		uniqlo.com
		TOTAL 999.00`

	result := ParseReceiptText(text)

	assert.Equal(t, "UNIQLO", result.Vendor)
}

func TestVendorFromBusinessSuffix(t *testing.T) {
	text := `*** RECEIPT ***
		SHARMA TRADING PVT LTD
		TOTAL 250.00`

	result := ParseReceiptText(text)

	assert.Equal(t, "SHARMA TRADING PVT LTD", result.Vendor)
}

func TestVendorFallbackFirstLine(t *testing.T) {
	text := `FRESH MART
		Milk 1L 45.00
		TOTAL 45.00`

	result := ParseReceiptText(text)

	assert.Equal(t, "FRESH MART", result.Vendor)
}

func TestVendorKeyNormalization(t *testing.T) {
	assert.Equal(t, "FRESH MART", VendorKey("  Fresh Mart "))
}

func TestItemsExcludeSummaryRows(t *testing.T) {
	text := `FRESH MART
		Milk 1L 45.00
		Bread 30.00
		SUBTOTAL 75.00
		TOTAL 75.00`

	result := ParseReceiptText(text)

	assert.Equal(t, []string{"Milk 1L", "Bread"}, result.Items)
	if assert.Len(t, result.LineItems, 2) {
		assert.Equal(t, dto.LineItem{Name: "Milk 1L", Price: 45.00}, result.LineItems[0])
		assert.Equal(t, dto.LineItem{Name: "Bread", Price: 30.00}, result.LineItems[1])
	}
}

func TestItemsKeepCommaGroupedPrices(t *testing.T) {
	text := `FANCY MART
		Fancy Item 1,234.50
		Plain Item 45.00
		TOTAL 1,279.50`

	result := ParseReceiptText(text)

	if assert.Len(t, result.LineItems, 2) {
		assert.Equal(t, dto.LineItem{Name: "Fancy Item", Price: 1234.50}, result.LineItems[0])
		assert.Equal(t, dto.LineItem{Name: "Plain Item", Price: 45.00}, result.LineItems[1])
	}
}

func TestItemsCappedAtFive(t *testing.T) {
	text := `BIG BAZAAR
		Item One 10.00
		Item Two 10.00
		Item Three 10.00
		Item Four 10.00
		Item Five 10.00
		Item Six 10.00`

	result := ParseReceiptText(text)

	assert.Len(t, result.Items, 5)
	assert.Len(t, result.LineItems, 5)
}

func TestPaymentModeCardFromPOSSignature(t *testing.T) {
	text := `HYPERMART
		TID: 001234
		VISA ****1234
		TOTAL 540.00`

	result := ParseReceiptText(text)

	assert.Equal(t, dto.PaymentModeCard, result.PaymentMode)
	assert.Contains(t, result.Description, "(VISA)")
}

func TestPaymentModeUPI(t *testing.T) {
	result := ParseReceiptText("PAID VIA GPAY")

	assert.Equal(t, dto.PaymentModeUPI, result.PaymentMode)
}

func TestPaymentModeCash(t *testing.T) {
	result := ParseReceiptText("TENDERED CASH 500.00")

	assert.Equal(t, dto.PaymentModeCash, result.PaymentMode)
}

func TestPaymentModeCardDominatesUPI(t *testing.T) {
	// POS slips often mention UPI-capable banks; the card signature wins.
	text := `AUTH CODE: 9921
		HDFC BANK UPI TERMINAL
		TOTAL 100.00`

	result := ParseReceiptText(text)

	assert.Equal(t, dto.PaymentModeCard, result.PaymentMode)
}

func TestGSTComponentsSummed(t *testing.T) {
	text := `CAFE ARABICA
		CGST 9.00
		SGST 9.00`

	result := ParseReceiptText(text)

	assert.Equal(t, 9.00, result.GSTDetails.CGST)
	assert.Equal(t, 9.00, result.GSTDetails.SGST)
	assert.Equal(t, 18.00, result.GSTDetails.TotalGST)
	assert.Equal(t, 18.00, result.TaxAmount)
	assert.Equal(t, "GST", result.TaxType)
}

func TestGSTDirectTotal(t *testing.T) {
	text := `CGST 12.00
		SGST 12.00
		TOTAL GST 24.00`

	result := ParseReceiptText(text)

	assert.Equal(t, 24.00, result.GSTDetails.TotalGST)
}

func TestGSTGenericTaxFallback(t *testing.T) {
	result := ParseReceiptText("TAX: 12.50")

	assert.Equal(t, 12.50, result.GSTDetails.TotalGST)
	assert.Equal(t, "GST", result.TaxType)
}

func TestGSTAbsent(t *testing.T) {
	result := ParseReceiptText("TOTAL 100.00")

	assert.Zero(t, result.GSTDetails.TotalGST)
	assert.Empty(t, result.TaxType)
}

func TestDateDayMonthName(t *testing.T) {
	result := ParseReceiptText("Invoice dated 27 Dec, 2025")

	if assert.NotNil(t, result.Date) {
		assert.Equal(t, time.Date(2025, time.December, 27, 0, 0, 0, 0, time.UTC), *result.Date)
	}
}

func TestDateSlashDayFirst(t *testing.T) {
	result := ParseReceiptText("Date: 27/12/25")

	if assert.NotNil(t, result.Date) {
		assert.Equal(t, time.Date(2025, time.December, 27, 0, 0, 0, 0, time.UTC), *result.Date)
	}
}

func TestDateISO(t *testing.T) {
	result := ParseReceiptText("Date: 2025-12-27")

	if assert.NotNil(t, result.Date) {
		assert.Equal(t, time.Date(2025, time.December, 27, 0, 0, 0, 0, time.UTC), *result.Date)
	}
}

func TestDateInvalidCalendarDiscarded(t *testing.T) {
	result := ParseReceiptText("Date: 31/02/2025")

	assert.Nil(t, result.Date)
	assert.Empty(t, result.Error)
}

func TestConfidenceScores(t *testing.T) {
	result := ParseReceiptText(`FRESH MART
		CGST 9.00
		SGST 9.00
		TOTAL 118.00`)

	assert.Equal(t, 0.9, result.ConfidenceScores["amount"])
	assert.Equal(t, 0.8, result.ConfidenceScores["vendor"])
	assert.Equal(t, 0.9, result.ConfidenceScores["gst"])
	assert.Equal(t, 0.3, result.ConfidenceScores["date"])
}

func TestRawTextBounded(t *testing.T) {
	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}

	result := ParseReceiptText(string(long))

	assert.LessOrEqual(t, len(result.RawText), 1000)
}

func TestExtractionIsIdempotent(t *testing.T) {
	text := `FRESH MART
		Milk 1L 45.00
		CGST 2.25
		SGST 2.25
		TOTAL 49.50
		27/12/2025
		PAID VIA GPAY`

	first := ParseReceiptText(text)
	second := ParseReceiptText(text)

	assert.Equal(t, first, second)
}
