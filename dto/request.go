package dto

import "errors"

// ParseReceiptRequest carries a base64-encoded receipt photo.
type ParseReceiptRequest struct {
	Image string `json:"image" binding:"required"`
}

// ParsePDFRequest carries a base64-encoded bank statement PDF.
type ParsePDFRequest struct {
	PDF string `json:"pdf" binding:"required"`
}

// ParseSMSRequest carries one bank alert message.
type ParseSMSRequest struct {
	Text string `json:"text" binding:"required"`
}

// ConfirmExpenseRequest is the user-confirmed expense submitted after review,
// together with the original extraction it was reviewed against. Discrepancies
// between the two feed the correction learning store.
type ConfirmExpenseRequest struct {
	Vendor          string            `json:"vendor"`
	Amount          *float64          `json:"amount"`
	GSTDetails      *GSTDetails       `json:"gst_details"`
	OriginalOCRData *ExtractionResult `json:"original_ocr_data"`
}

// Validate performs basic validation on the confirmation request.
func (r *ConfirmExpenseRequest) Validate() error {
	if r.OriginalOCRData == nil {
		return errors.New("original_ocr_data is required")
	}
	if r.Vendor == "" {
		return errors.New("vendor is required")
	}
	return nil
}
