package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/expenso/expense-ocr/dto"
)

const rawTextLimit = 1000

// Amount patterns in priority order. Explicit total keywords with a decimal
// amount first, then integer amounts, then POS terminal BASE/AUTH lines, then
// any bare decimal as a last resort.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:GRAND\s*TOTAL|FINAL\s*TOTAL|NET\s*AMOUNT|TOTAL\s*AMOUNT|TOTAL|SALE)\s*[:\-]?\s*(?:INR|RS\.?|₹|\$)?\s*([\d,]+\.\d{2})`),
	regexp.MustCompile(`(?i)(?:GRAND\s*TOTAL|FINAL\s*TOTAL|NET\s*AMOUNT|TOTAL\s*AMOUNT|TOTAL|SALE)\s*[:\-]?\s*(?:INR|RS\.?|₹|\$)?\s*([\d,]+)`),
	regexp.MustCompile(`(?i)(?:BASE|AUTH)\s*(?:AMT|AMOUNT)?\s*[:\-]?\s*(?:INR|RS\.?|₹|\$)?\s*([\d,]+(?:\.\d{2})?)`),
	regexp.MustCompile(`([\d,]+\.\d{2})`),
}

var (
	domainPattern      = regexp.MustCompile(`(?i)([a-z0-9-]+)\.(?:com|in|co|net|org|biz|shopping|store)`)
	vendorLabelPattern = regexp.MustCompile(`(?i)(?:MERCHANT|STORE|NAME)\s*:\s*(.+)`)

	businessSuffixes = []string{
		" INC", " LTD", " CORP", " PRIVATE", " STORE", " SHOP",
		" CAFE", " RESTAURANT", " PVT",
	}
)

var (
	priceSuffixPattern   = regexp.MustCompile(`([\d,]+\.\d{2})\s*$`)
	trailingPricePattern = regexp.MustCompile(`\s*(?:INR|RS\.?|₹|\$)?\s*[\d,]+\.\d{2}\s*$`)

	// Summary rows that must not be mistaken for purchased items.
	reservedItemLabels = []string{
		"TOTAL", "SUBTOTAL", "SUB-TOTAL", "TAX", "GST", "CGST", "SGST",
		"IGST", "CASH", "CARD", "CHANGE", "SALE", "BASE", "AUTH", "TIP",
		"BALANCE", "TENDER", "AMOUNT", "ROUND",
	}
)

var (
	posSignatureKeywords = []string{
		"AUTH CODE", "APPR CODE", "TID:", "TID :", "MID:", "MID :",
		"BATCH NO", "BATCH:", "CHIP", "SWIPE", "CONTACTLESS",
	}
	cardNetworks = []string{
		"VISA", "MASTERCARD", "MAESTRO", "RUPAY", "AMERICAN EXPRESS",
		"AMEX", "DINERS", "DISCOVER",
	}
	cardGenericKeywords = []string{"CARD", "DEBIT", "CREDIT"}
	upiKeywords         = []string{"UPI", "GPAY", "GOOGLE PAY", "PHONEPE", "PAYTM", "BHIM"}
)

var (
	cgstPattern = regexp.MustCompile(`(?i)CGST\s*(?:@?\s*[\d.]+\s*%)?\s*[:\-]?\s*(?:INR|RS\.?|₹)?\s*([\d,]+(?:\.\d{1,2})?)`)
	sgstPattern = regexp.MustCompile(`(?i)SGST\s*(?:@?\s*[\d.]+\s*%)?\s*[:\-]?\s*(?:INR|RS\.?|₹)?\s*([\d,]+(?:\.\d{1,2})?)`)
	igstPattern = regexp.MustCompile(`(?i)IGST\s*(?:@?\s*[\d.]+\s*%)?\s*[:\-]?\s*(?:INR|RS\.?|₹)?\s*([\d,]+(?:\.\d{1,2})?)`)

	// Word-bounded so the GST alternatives never match inside CGST/SGST/IGST.
	gstTotalPattern   = regexp.MustCompile(`(?i)\b(?:TOTAL\s*GST|GST\s*TOTAL|TOTAL\s*TAX|GST)\b\s*(?:@?\s*[\d.]+\s*%)?\s*[:\-]?\s*(?:INR|RS\.?|₹)?\s*([\d,]+(?:\.\d{1,2})?)`)
	genericTaxPattern = regexp.MustCompile(`(?i)\b(?:TAX|GST)\b\s*[:\-]?\s*(?:INR|RS\.?|₹)?\s*([\d,]+(?:\.\d{1,2})?)`)
)

var (
	dmyPattern          = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})\b`)
	isoPattern          = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	dayMonthNamePattern = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?,?\s+(\d{2,4})\b`)
)

var monthAbbrevs = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseReceiptText extracts structured expense data from raw receipt OCR text.
// It is a pure function of the text: each stage catches its own conversion
// issues and contributes an absent/zero field rather than failing the document.
func ParseReceiptText(text string) dto.ExtractionResult {
	lines := nonBlankLines(text)

	result := dto.ExtractionResult{
		Items:            []string{},
		LineItems:        []dto.LineItem{},
		PaymentMode:      dto.PaymentModeManual,
		ConfidenceScores: map[string]float64{},
		RawText:          truncate(text, rawTextLimit),
	}

	if amount, ok := extractAmount(text); ok {
		result.Amount = &amount
	}

	result.Vendor = extractVendor(lines)
	result.Items, result.LineItems = extractItems(lines)

	mode, network := extractPaymentMode(text)
	result.PaymentMode = mode

	result.Description = result.Vendor
	if result.Description == "" {
		result.Description = "Receipt Expense"
	}
	if network != "" {
		result.Description += " (" + network + ")"
	}

	result.GSTDetails = extractGST(text)
	result.TaxAmount = result.GSTDetails.TotalGST
	if result.GSTDetails.TotalGST > 0 {
		result.TaxType = "GST"
	}

	if date := extractDate(text); date != nil {
		result.Date = date
	}

	result.ConfidenceScores = buildConfidence(&result)
	return result
}

// VendorKey normalizes a vendor string into the key used to join extraction
// results with correction learning records.
func VendorKey(vendor string) string {
	return strings.ToUpper(strings.TrimSpace(vendor))
}

func extractAmount(text string) (float64, bool) {
	for _, pattern := range amountPatterns {
		matches := pattern.FindStringSubmatch(text)
		if len(matches) < 2 {
			continue
		}
		amountStr := strings.ReplaceAll(matches[1], ",", "")
		amount, err := strconv.ParseFloat(amountStr, 64)
		if err != nil {
			continue
		}
		return amount, true
	}
	return 0, false
}

func extractVendor(lines []string) string {
	// 1. Domain names/websites in the top lines (e.g. uniqlo.com)
	for _, line := range limitLines(lines, 10) {
		if matches := domainPattern.FindStringSubmatch(line); len(matches) > 1 {
			return strings.ToUpper(matches[1])
		}
	}

	// 2. Explicit merchant labels or business-entity suffixes
	for _, line := range limitLines(lines, 5) {
		if matches := vendorLabelPattern.FindStringSubmatch(line); len(matches) > 1 {
			if name := strings.TrimSpace(matches[1]); name != "" {
				return name
			}
		}
		upper := strings.ToUpper(line)
		for _, suffix := range businessSuffixes {
			if strings.Contains(upper, suffix) {
				return line
			}
		}
	}

	// 3. Fallback to the first non-blank line
	if len(lines) > 0 {
		return lines[0]
	}
	return ""
}

func extractItems(lines []string) ([]string, []dto.LineItem) {
	items := []string{}
	lineItems := []dto.LineItem{}

	for _, line := range lines {
		matches := priceSuffixPattern.FindStringSubmatch(line)
		if len(matches) < 2 {
			continue
		}
		price, err := strconv.ParseFloat(strings.ReplaceAll(matches[1], ",", ""), 64)
		if err != nil {
			continue
		}

		desc := strings.TrimSpace(trailingPricePattern.ReplaceAllString(line, ""))
		if len(desc) <= 2 {
			continue
		}
		if containsAnyFold(desc, reservedItemLabels) {
			continue
		}

		if len(items) < 5 {
			items = append(items, desc)
			lineItems = append(lineItems, dto.LineItem{Name: desc, Price: price})
		}
	}

	return items, lineItems
}

// extractPaymentMode classifies the payment mode and returns the matched card
// network, if any. Card signatures dominate UPI/cash: POS slips routinely carry
// incidental bank-name text that would otherwise misclassify them.
func extractPaymentMode(text string) (dto.PaymentMode, string) {
	upper := strings.ToUpper(text)

	isCard := false
	for _, kw := range posSignatureKeywords {
		if strings.Contains(upper, kw) {
			isCard = true
			break
		}
	}

	network := ""
	for _, n := range cardNetworks {
		if strings.Contains(upper, n) {
			network = n
			isCard = true
			break
		}
	}

	if !isCard {
		for _, kw := range cardGenericKeywords {
			if strings.Contains(upper, kw) {
				isCard = true
				break
			}
		}
	}
	if isCard {
		return dto.PaymentModeCard, network
	}

	for _, kw := range upiKeywords {
		if strings.Contains(upper, kw) {
			return dto.PaymentModeUPI, ""
		}
	}

	if strings.Contains(upper, "CASH") {
		return dto.PaymentModeCash, ""
	}

	return dto.PaymentModeManual, ""
}

func extractGST(text string) dto.GSTDetails {
	gst := dto.GSTDetails{
		CGST: matchTaxAmount(cgstPattern, text),
		SGST: matchTaxAmount(sgstPattern, text),
		IGST: matchTaxAmount(igstPattern, text),
	}

	gst.TotalGST = matchTaxAmount(gstTotalPattern, text)
	if sum := gst.CGST + gst.SGST + gst.IGST; sum > gst.TotalGST {
		gst.TotalGST = sum
	}

	// Last resort: a generic "TAX: amount" style line
	if gst.TotalGST == 0 {
		gst.TotalGST = matchTaxAmount(genericTaxPattern, text)
	}

	return gst
}

func matchTaxAmount(pattern *regexp.Regexp, text string) float64 {
	matches := pattern.FindStringSubmatch(text)
	if len(matches) < 2 {
		return 0
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(matches[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return amount
}

// extractDate tries the three supported format families in order. Slash/dash
// dates are always read day-first, even when the first component exceeds 12;
// such dates simply fail calendar validation and fall through.
func extractDate(text string) *time.Time {
	if matches := dmyPattern.FindStringSubmatch(text); len(matches) > 3 {
		day, _ := strconv.Atoi(matches[1])
		month, _ := strconv.Atoi(matches[2])
		year, _ := strconv.Atoi(matches[3])
		if date := buildDate(year, time.Month(month), day); date != nil {
			return date
		}
	}

	if matches := isoPattern.FindStringSubmatch(text); len(matches) > 3 {
		year, _ := strconv.Atoi(matches[1])
		month, _ := strconv.Atoi(matches[2])
		day, _ := strconv.Atoi(matches[3])
		if date := buildDate(year, time.Month(month), day); date != nil {
			return date
		}
	}

	if matches := dayMonthNamePattern.FindStringSubmatch(text); len(matches) > 3 {
		day, _ := strconv.Atoi(matches[1])
		month, ok := monthAbbrevs[strings.ToLower(matches[2])]
		year, _ := strconv.Atoi(matches[3])
		if ok {
			if date := buildDate(year, month, day); date != nil {
				return date
			}
		}
	}

	return nil
}

// buildDate validates the calendar date and normalizes two-digit years.
// Returns nil for impossible dates (e.g. 31 February).
func buildDate(year int, month time.Month, day int) *time.Time {
	if year < 100 {
		year += 2000
	}
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return nil
	}
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || date.Month() != month || date.Day() != day {
		return nil
	}
	return &date
}

func buildConfidence(result *dto.ExtractionResult) map[string]float64 {
	scores := map[string]float64{
		"amount":       0.2,
		"vendor":       0.3,
		"date":         0.3,
		"payment_mode": 0.5,
		"gst":          0.5,
	}

	if result.Amount != nil {
		scores["amount"] = 0.9
	}
	if result.Vendor != "" {
		scores["vendor"] = 0.8
	}
	if result.Date != nil {
		scores["date"] = 0.8
	}
	if result.PaymentMode != dto.PaymentModeManual {
		scores["payment_mode"] = 0.8
	}
	if result.GSTDetails.TotalGST > 0 {
		scores["gst"] = 0.9
	}

	return scores
}

func nonBlankLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func limitLines(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

func containsAnyFold(s string, keywords []string) bool {
	upper := strings.ToUpper(s)
	for _, kw := range keywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
