package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/expenso/expense-ocr/dto"
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)

	// One transaction block: a date phrase, free text in between, and a
	// currency-marked amount, scanned non-greedily across the whole page.
	blockPattern = regexp.MustCompile(`(\d{1,2}\s[A-Za-z]{3,},?\s\d{4})\s+(.*?)\s*₹\s?([\d,]+(?:\.\d{0,2})?)`)

	// Vendor sub-patterns for common statement phrasings, tried in order.
	stmtVendorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Paid to\s+(.*?)(?:\s+UPI|$)`),
		regexp.MustCompile(`(?i)To\s+(.*?)(?:\s+UPI|$)`),
		regexp.MustCompile(`(?i)M/S\.\s+(.*?)(?:\s+UPI|$)`),
		regexp.MustCompile(`(?i)Transaction details\s+(.*?)(?:\s+UPI|$)`),
	}

	clockTimePattern      = regexp.MustCompile(`(?i)\d{1,2}:\d{2}\s?(?:AM|PM)`)
	fallbackAmountPattern = regexp.MustCompile(`(?:₹|INR)\s?([\d,]+(?:\.\d{0,2})?)`)

	stmtCardKeywords = []string{"CARD", "RUPAY", "VISA", "MASTERCARD", "DEBIT", "CREDIT"}
)

// Category keyword lists. The pass order is fixed: Food/Health, then Shopping,
// Transport, Coffee, Bills; first matching category wins.
var (
	foodKeywords = []string{
		"swiggy", "zomato", "restaurant", "food", "hotel", "pharmacy",
		"homoeo", "store", "mart", "kirana",
	}
	healthKeywords    = []string{"pharmacy", "homoeo", "clinic", "hospital"}
	shoppingKeywords  = []string{"amazon", "flipkart", "myntra", "shopping", "lifestyle", "mall"}
	transportKeywords = []string{"uber", "ola", "taxi", "fuel", "petrol", "transport", "metro"}
	coffeeKeywords    = []string{"starbucks", "cafe", "coffee", "chai", "tea"}
	billsKeywords     = []string{"jio", "recharge", "bill", "electricity", "water", "gas", "airtel"}
)

// ParseStatementPages segments multi-transaction statement page texts into
// per-transaction records. A page whose formatting defeats the block pattern
// falls back to a line-by-line currency scan so coverage is never zero. Rows
// whose date cannot be parsed default to now rather than being dropped.
func ParseStatementPages(pages []string, now time.Time) []dto.StatementTransaction {
	transactions := []dto.StatementTransaction{}

	for _, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}

		normalized := whitespacePattern.ReplaceAllString(page, " ")
		matches := blockPattern.FindAllStringSubmatch(normalized, -1)

		foundInPage := false
		for _, match := range matches {
			amount, err := strconv.ParseFloat(strings.ReplaceAll(match[3], ",", ""), 64)
			if err != nil {
				continue
			}
			foundInPage = true

			blockText := strings.TrimSpace(match[2])
			vendor := extractStatementVendor(blockText)

			transactions = append(transactions, dto.StatementTransaction{
				Amount:      amount,
				Date:        parseStatementDate(match[1], now),
				Vendor:      vendor,
				Description: vendor,
				Category:    categorize(vendor),
				PaymentMode: statementPaymentMode(blockText),
				Source:      "pdf",
			})
		}

		if !foundInPage {
			transactions = append(transactions, scanFallbackLines(page, now)...)
		}
	}

	return transactions
}

func extractStatementVendor(blockText string) string {
	for _, pattern := range stmtVendorPatterns {
		if matches := pattern.FindStringSubmatch(blockText); len(matches) > 1 {
			if vendor := strings.TrimSpace(matches[1]); vendor != "" {
				return vendor
			}
		}
	}

	// Fallback: leading chunk of the block with clock times stripped out
	vendor := strings.TrimSpace(clockTimePattern.ReplaceAllString(blockText, ""))
	if vendor == "" {
		return "Statement Item"
	}
	if runes := []rune(vendor); len(runes) > 50 {
		vendor = strings.TrimSpace(string(runes[:50]))
	}
	return vendor
}

// parseStatementDate expects "D Mon, YYYY" with the comma optional. A parse
// failure defaults the transaction date to the processing time.
func parseStatementDate(dateStr string, now time.Time) time.Time {
	clean := strings.TrimSpace(strings.ReplaceAll(dateStr, ",", ""))
	date, err := time.Parse("2 Jan 2006", clean)
	if err != nil {
		return now
	}
	return date
}

func categorize(description string) string {
	desc := strings.ToLower(description)

	switch {
	case containsAnyKeyword(desc, foodKeywords):
		if containsAnyKeyword(desc, healthKeywords) {
			return "Health"
		}
		return "Food"
	case containsAnyKeyword(desc, shoppingKeywords):
		return "Shopping"
	case containsAnyKeyword(desc, transportKeywords):
		return "Transport"
	case containsAnyKeyword(desc, coffeeKeywords):
		return "Coffee"
	case containsAnyKeyword(desc, billsKeywords):
		return "Bills"
	}
	return "Other"
}

// statementPaymentMode defaults to upi: statement extracts are assumed
// UPI-sourced unless card or cash markers say otherwise.
func statementPaymentMode(blockText string) dto.PaymentMode {
	upper := strings.ToUpper(blockText)
	for _, kw := range stmtCardKeywords {
		if strings.Contains(upper, kw) {
			return dto.PaymentModeCard
		}
	}
	if strings.Contains(upper, "CASH") {
		return dto.PaymentModeCash
	}
	return dto.PaymentModeUPI
}

// scanFallbackLines emits minimal transactions for any line carrying a
// currency marker and a positive number.
func scanFallbackLines(page string, now time.Time) []dto.StatementTransaction {
	var transactions []dto.StatementTransaction

	for _, line := range strings.Split(page, "\n") {
		if !strings.Contains(line, "₹") && !strings.Contains(line, "INR") {
			continue
		}
		matches := fallbackAmountPattern.FindStringSubmatch(line)
		if len(matches) < 2 {
			continue
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(matches[1], ",", ""), 64)
		if err != nil || amount <= 0 {
			continue
		}

		transactions = append(transactions, dto.StatementTransaction{
			Amount:      amount,
			Date:        now,
			Vendor:      "Unknown Vendor",
			Description: "Statement Transaction",
			Category:    "Other",
			PaymentMode: statementPaymentMode(line),
			Source:      "pdf",
		})
	}

	return transactions
}

func containsAnyKeyword(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
