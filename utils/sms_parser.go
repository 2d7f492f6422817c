package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/expenso/expense-ocr/dto"
)

// Amount patterns for common Indian bank alert formats, first match wins.
var smsAmountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Rs|INR|₹)\.?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)spent\s*(?:Rs|INR|₹)\.?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)debited\s*by\s*(?:Rs|INR|₹)\.?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)credited\s*with\s*(?:Rs|INR|₹)\.?\s*([\d,]+\.?\d*)`),
}

var (
	smsCreditPattern   = regexp.MustCompile(`(?i)credited`)
	smsMerchantPattern = regexp.MustCompile(`(?i)at\s+([A-Z0-9\s*]+)(?:\s+on|\.)`)
	smsBankPattern     = regexp.MustCompile(`(?i)Bank\s+(\w+)`)
)

// ParseTransactionSMS extracts the amount, direction and merchant from a bank
// transaction SMS. It always returns a result; missing pieces get generic
// placeholders.
func ParseTransactionSMS(text string) dto.SMSResult {
	var amount *float64
	for _, pattern := range smsAmountPatterns {
		matches := pattern.FindStringSubmatch(text)
		if len(matches) < 2 {
			continue
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(matches[1], ",", ""), 64)
		if err != nil {
			continue
		}
		amount = &value
		break
	}

	isCredit := smsCreditPattern.MatchString(text)

	merchant := "SMS Transaction"
	if matches := smsMerchantPattern.FindStringSubmatch(text); len(matches) > 1 {
		merchant = strings.TrimSpace(matches[1])
	}

	bankName := "Bank"
	if matches := smsBankPattern.FindStringSubmatch(text); len(matches) > 1 {
		bankName = matches[1]
	}

	txType := "debit"
	if isCredit {
		txType = "credit"
	}

	return dto.SMSResult{
		Amount:      amount,
		Description: fmt.Sprintf("%s (%s)", merchant, bankName),
		IsCredit:    isCredit,
		Type:        txType,
	}
}
