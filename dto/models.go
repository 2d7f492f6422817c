package dto

import "time"

type PaymentMode string

const (
	PaymentModeManual PaymentMode = "manual"
	PaymentModeUPI    PaymentMode = "upi"
	PaymentModeCard   PaymentMode = "card"
	PaymentModeCash   PaymentMode = "cash"
)

// LineItem is a single purchased item parsed from a receipt.
type LineItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// GSTDetails is the indirect-tax breakdown of a receipt.
// TotalGST is never less than the sum of the components found directly.
type GSTDetails struct {
	CGST     float64 `json:"cgst"`
	SGST     float64 `json:"sgst"`
	IGST     float64 `json:"igst"`
	TotalGST float64 `json:"total_gst"`
}

// ExtractionResult is the canonical output of the receipt extraction pipeline.
// On total failure Error is set and every structured field is empty.
type ExtractionResult struct {
	Amount           *float64           `json:"amount"`
	Date             *time.Time         `json:"date"`
	Description      string             `json:"description"`
	Vendor           string             `json:"vendor"`
	Items            []string           `json:"items"`
	LineItems        []LineItem         `json:"line_items"`
	PaymentMode      PaymentMode        `json:"payment_mode"`
	TaxAmount        float64            `json:"tax_amount"`
	TaxType          string             `json:"tax_type,omitempty"`
	GSTDetails       GSTDetails         `json:"gst_details"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	RawText          string             `json:"raw_text"`
	Error            string             `json:"error,omitempty"`
}

// NewErrorResult builds the total-failure variant of ExtractionResult.
func NewErrorResult(msg string) ExtractionResult {
	return ExtractionResult{
		Items:            []string{},
		LineItems:        []LineItem{},
		PaymentMode:      PaymentModeManual,
		ConfidenceScores: map[string]float64{},
		Error:            msg,
	}
}

// StatementTransaction is one transaction row parsed out of a bank statement page.
type StatementTransaction struct {
	Amount      float64     `json:"amount"`
	Date        time.Time   `json:"date"`
	Vendor      string      `json:"vendor"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	PaymentMode PaymentMode `json:"payment_mode"`
	Source      string      `json:"source"`
}

// SMSResult is the output of parsing a single bank alert SMS.
type SMSResult struct {
	Amount      *float64 `json:"amount"`
	Description string   `json:"description"`
	IsCredit    bool     `json:"is_credit"`
	Type        string   `json:"type"`
}

// Discrepancy records one field where the extraction disagreed with the
// user-confirmed value.
type Discrepancy struct {
	Original  interface{} `json:"original"`
	Corrected interface{} `json:"corrected"`
}

// LearningRecord is one vendor-keyed correction entry. Records are append-only;
// the extraction engine never mutates or deletes them.
type LearningRecord struct {
	ID            string                 `json:"id"`
	Vendor        string                 `json:"vendor"`
	RawText       string                 `json:"raw_text"`
	Discrepancies map[string]Discrepancy `json:"discrepancies"`
	CreatedAt     time.Time              `json:"created_at"`
}
