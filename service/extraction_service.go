package service

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"
	"time"

	"github.com/expenso/expense-ocr/dto"
	"github.com/expenso/expense-ocr/utils"
)

const (
	learningLookupLimit = 5

	// Below this much text across all pages a statement PDF is treated as
	// scanned and routed through page-image OCR instead.
	minStatementTextLen = 20
)

// Recognizer is the external OCR capability consumed by the pipeline.
// Recognize is not context-aware: cancellation is checked between stages, so
// a deadline cannot interrupt a recognition already in flight and the caller
// holds its pool slot until it returns.
type Recognizer interface {
	Recognize(img image.Image) (string, error)
}

// UPIQRDecoder detects a UPI payment QR on a receipt image, if present.
type UPIQRDecoder interface {
	DecodeUPI(img image.Image) (payee, vpa string, found bool)
}

// LearningStore is the correction log consulted (read-only, advisory) during
// extraction. Lookups may lower confidence scores but never feed values back
// into a result.
type LearningStore interface {
	Record(vendor, rawText string, discrepancies map[string]dto.Discrepancy, createdAt time.Time) error
	LookupRecent(vendor string, limit int) ([]dto.LearningRecord, error)
}

// ExtractionService orchestrates the document extraction pipeline. Normalize
// and OCR work is CPU-bound and slow, so it runs behind a bounded worker pool:
// callers over capacity wait for a slot but stay subject to their context
// deadline.
type ExtractionService struct {
	recognizer   Recognizer
	pdfProcessor PDFProcessor
	qrDecoder    UPIQRDecoder
	learning     LearningStore
	maxImageSide int
	sem          chan struct{}
}

func NewExtractionService(
	recognizer Recognizer,
	pdfProcessor PDFProcessor,
	qrDecoder UPIQRDecoder,
	learning LearningStore,
	maxImageSide int,
	concurrency int,
) *ExtractionService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ExtractionService{
		recognizer:   recognizer,
		pdfProcessor: pdfProcessor,
		qrDecoder:    qrDecoder,
		learning:     learning,
		maxImageSide: maxImageSide,
		sem:          make(chan struct{}, concurrency),
	}
}

// ParseReceipt runs the full receipt pipeline on a base64-encoded photo.
// It always returns a well-formed result: decode, recognition and timeout
// failures produce the error variant with all structured fields empty, while
// per-field parse issues only leave the affected field absent.
func (s *ExtractionService) ParseReceipt(ctx context.Context, imageBase64 string) dto.ExtractionResult {
	if err := s.acquire(ctx); err != nil {
		return dto.NewErrorResult(fmt.Sprintf("extraction aborted: %v", err))
	}
	defer s.release()

	img, err := DecodeBase64Image(imageBase64)
	if err != nil {
		return dto.NewErrorResult(err.Error())
	}

	normalized := NormalizeForOCR(img, s.maxImageSide)

	if err := ctx.Err(); err != nil {
		return dto.NewErrorResult(fmt.Sprintf("extraction aborted: %v", err))
	}

	text, err := s.recognizer.Recognize(normalized)
	if err != nil {
		return dto.NewErrorResult(fmt.Sprintf("%v: %v", dto.ErrRecognition, err))
	}

	result := utils.ParseReceiptText(text)

	// A UPI payment QR upgrades a manual classification; it never overrides
	// card/cash signals found in the text.
	if s.qrDecoder != nil && result.PaymentMode == dto.PaymentModeManual {
		if _, _, found := s.qrDecoder.DecodeUPI(normalized); found {
			result.PaymentMode = dto.PaymentModeUPI
			result.ConfidenceScores["payment_mode"] = 0.9
		}
	}

	s.applyLearningHints(&result)
	return result
}

// ParseStatement extracts transactions from a base64-encoded statement PDF.
// When the text layer is missing or negligible it falls back to extracting
// the page images and running them through OCR.
func (s *ExtractionService) ParseStatement(ctx context.Context, pdfBase64 string) ([]dto.StatementTransaction, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	raw, err := decodeBase64Payload(pdfBase64)
	if err != nil {
		return nil, err
	}

	pages, err := s.pdfProcessor.ExtractPageTexts(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrDecode, err)
	}

	if totalTextLen(pages) < minStatementTextLen {
		log.Println("statement has no usable text layer, attempting image-based OCR")
		if ocrPages := s.ocrStatementImages(ctx, raw); len(ocrPages) > 0 {
			pages = ocrPages
		}
	}

	return utils.ParseStatementPages(pages, time.Now()), nil
}

// ParseSMS parses a single bank alert message. Cheap enough to run inline.
func (s *ExtractionService) ParseSMS(text string) dto.SMSResult {
	return utils.ParseTransactionSMS(text)
}

// RecordCorrection diffs an extraction against the user-confirmed expense and
// appends any discrepancies to the learning store. Returns the detected
// discrepancies, which may be empty.
func (s *ExtractionService) RecordCorrection(req dto.ConfirmExpenseRequest) (map[string]dto.Discrepancy, error) {
	discrepancies := DetectDiscrepancies(*req.OriginalOCRData, req)
	if len(discrepancies) == 0 || s.learning == nil {
		return discrepancies, nil
	}

	err := s.learning.Record(utils.VendorKey(req.Vendor), req.OriginalOCRData.RawText, discrepancies, time.Now())
	if err != nil {
		return discrepancies, fmt.Errorf("recording correction: %w", err)
	}
	return discrepancies, nil
}

// RecentCorrections returns the most recent learning records for a vendor.
func (s *ExtractionService) RecentCorrections(vendor string, limit int) ([]dto.LearningRecord, error) {
	if s.learning == nil {
		return []dto.LearningRecord{}, nil
	}
	if limit <= 0 {
		limit = learningLookupLimit
	}
	return s.learning.LookupRecent(utils.VendorKey(vendor), limit)
}

// applyLearningHints consults the correction log for the extracted vendor and
// lowers the confidence of fields with a recorded history of corrections.
// Extracted values are never replaced. A missing or failing store leaves the
// result untouched.
func (s *ExtractionService) applyLearningHints(result *dto.ExtractionResult) {
	if s.learning == nil || result.Vendor == "" {
		return
	}

	records, err := s.learning.LookupRecent(utils.VendorKey(result.Vendor), learningLookupLimit)
	if err != nil {
		log.Printf("learning lookup failed for vendor %q: %v", result.Vendor, err)
		return
	}

	suspect := map[string]bool{}
	for _, record := range records {
		for field := range record.Discrepancies {
			if strings.HasPrefix(field, "gst_details") {
				suspect["gst"] = true
				continue
			}
			suspect[field] = true
		}
	}

	for field := range suspect {
		current, ok := result.ConfidenceScores[field]
		if !ok {
			continue
		}
		lowered := current * 0.5
		if lowered < 0.1 {
			lowered = 0.1
		}
		result.ConfidenceScores[field] = lowered
	}
}

func (s *ExtractionService) ocrStatementImages(ctx context.Context, pdfData []byte) []string {
	images, err := s.pdfProcessor.ExtractImages(pdfData)
	if err != nil {
		log.Printf("statement image extraction failed: %v", err)
		return nil
	}

	var pages []string
	for _, img := range images {
		if ctx.Err() != nil {
			break
		}
		text, err := s.recognizer.Recognize(NormalizeForOCR(img, s.maxImageSide))
		if err != nil {
			log.Printf("statement page OCR failed: %v", err)
			continue
		}
		pages = append(pages, text)
	}
	return pages
}

func (s *ExtractionService) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ExtractionService) release() {
	<-s.sem
}

func totalTextLen(pages []string) int {
	total := 0
	for _, page := range pages {
		total += len(strings.TrimSpace(page))
	}
	return total
}
