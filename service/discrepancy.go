package service

import "github.com/expenso/expense-ocr/dto"

// DetectDiscrepancies compares an extraction result against the values the
// user finally confirmed and returns every field where they disagree. Amount
// and each GST component are compared; matching fields produce no entry.
func DetectDiscrepancies(original dto.ExtractionResult, confirmed dto.ConfirmExpenseRequest) map[string]dto.Discrepancy {
	discrepancies := map[string]dto.Discrepancy{}

	if confirmed.Amount != nil && !floatPtrEqual(original.Amount, confirmed.Amount) {
		discrepancies["amount"] = dto.Discrepancy{
			Original:  floatPtrValue(original.Amount),
			Corrected: *confirmed.Amount,
		}
	}

	if confirmed.GSTDetails != nil {
		orig := original.GSTDetails
		corrected := *confirmed.GSTDetails
		compareGST(discrepancies, "gst_details.cgst", orig.CGST, corrected.CGST)
		compareGST(discrepancies, "gst_details.sgst", orig.SGST, corrected.SGST)
		compareGST(discrepancies, "gst_details.igst", orig.IGST, corrected.IGST)
		compareGST(discrepancies, "gst_details.total_gst", orig.TotalGST, corrected.TotalGST)
	}

	return discrepancies
}

func compareGST(discrepancies map[string]dto.Discrepancy, field string, original, corrected float64) {
	if original != corrected {
		discrepancies[field] = dto.Discrepancy{Original: original, Corrected: corrected}
	}
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatPtrValue(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
