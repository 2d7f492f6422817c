package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenso/expense-ocr/dto"
)

type fakeRecognizer struct {
	text string
	err  error
}

func (f *fakeRecognizer) Recognize(_ image.Image) (string, error) {
	return f.text, f.err
}

type fakePDF struct {
	pages   []string
	images  []image.Image
	textErr error
}

func (f *fakePDF) ExtractPageTexts(_ []byte) ([]string, error) {
	return f.pages, f.textErr
}

func (f *fakePDF) ExtractImages(_ []byte) ([]image.Image, error) {
	return f.images, nil
}

type fakeQR struct {
	found bool
}

func (f *fakeQR) DecodeUPI(_ image.Image) (string, string, bool) {
	if !f.found {
		return "", "", false
	}
	return "Swiggy", "swiggy@ybl", true
}

type fakeLearning struct {
	records   []dto.LearningRecord
	lookupErr error

	recordedVendor string
	recorded       map[string]dto.Discrepancy
}

func (f *fakeLearning) Record(vendor, _ string, discrepancies map[string]dto.Discrepancy, _ time.Time) error {
	f.recordedVendor = vendor
	f.recorded = discrepancies
	return nil
}

func (f *fakeLearning) LookupRecent(_ string, _ int) ([]dto.LearningRecord, error) {
	return f.records, f.lookupErr
}

func testImageBase64(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 10))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newTestService(recognizer Recognizer, pdfProc PDFProcessor, qr UPIQRDecoder, learning LearningStore) *ExtractionService {
	return NewExtractionService(recognizer, pdfProc, qr, learning, 2000, 2)
}

const receiptFixture = "UNIQLO.COM\nTOTAL: 1234.50\nPAID VIA GPAY"

func TestParseReceiptSuccess(t *testing.T) {
	svc := newTestService(&fakeRecognizer{text: receiptFixture}, &fakePDF{}, nil, nil)

	result := svc.ParseReceipt(context.Background(), testImageBase64(t))

	require.Empty(t, result.Error)
	require.NotNil(t, result.Amount)
	assert.Equal(t, 1234.50, *result.Amount)
	assert.Equal(t, "UNIQLO", result.Vendor)
	assert.Equal(t, dto.PaymentModeUPI, result.PaymentMode)
}

func TestParseReceiptInvalidBase64(t *testing.T) {
	svc := newTestService(&fakeRecognizer{text: receiptFixture}, &fakePDF{}, nil, nil)

	result := svc.ParseReceipt(context.Background(), "!!! not an image !!!")

	assert.NotEmpty(t, result.Error)
	assert.Nil(t, result.Amount)
	assert.Empty(t, result.Vendor)
}

func TestParseReceiptRecognitionFailure(t *testing.T) {
	svc := newTestService(&fakeRecognizer{err: errors.New("engine crashed")}, &fakePDF{}, nil, nil)

	result := svc.ParseReceipt(context.Background(), testImageBase64(t))

	assert.Contains(t, result.Error, "text recognition failed")
	assert.Nil(t, result.Amount)
	assert.Empty(t, result.Items)
}

func TestParseReceiptCanceledContext(t *testing.T) {
	svc := newTestService(&fakeRecognizer{text: receiptFixture}, &fakePDF{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := svc.ParseReceipt(ctx, testImageBase64(t))

	assert.Contains(t, result.Error, "aborted")
}

func TestParseReceiptQRUpgradesManualMode(t *testing.T) {
	svc := newTestService(&fakeRecognizer{text: "CORNER SHOP\nTOTAL: 100.00"}, &fakePDF{}, &fakeQR{found: true}, nil)

	result := svc.ParseReceipt(context.Background(), testImageBase64(t))

	assert.Equal(t, dto.PaymentModeUPI, result.PaymentMode)
	assert.Equal(t, 0.9, result.ConfidenceScores["payment_mode"])
}

func TestParseReceiptQRDoesNotOverrideCard(t *testing.T) {
	svc := newTestService(&fakeRecognizer{text: "CORNER SHOP\nTID: 12345\nVISA\nTOTAL: 100.00"}, &fakePDF{}, &fakeQR{found: true}, nil)

	result := svc.ParseReceipt(context.Background(), testImageBase64(t))

	assert.Equal(t, dto.PaymentModeCard, result.PaymentMode)
}

func TestParseReceiptLearningLowersConfidence(t *testing.T) {
	learning := &fakeLearning{records: []dto.LearningRecord{{
		Vendor: "UNIQLO",
		Discrepancies: map[string]dto.Discrepancy{
			"amount": {Original: 1234.50, Corrected: 1250.0},
		},
	}}}
	svc := newTestService(&fakeRecognizer{text: receiptFixture}, &fakePDF{}, nil, learning)

	result := svc.ParseReceipt(context.Background(), testImageBase64(t))

	require.NotNil(t, result.Amount)
	assert.Equal(t, 1234.50, *result.Amount)
	assert.InDelta(t, 0.45, result.ConfidenceScores["amount"], 1e-9)
}

func TestParseReceiptLearningLookupFailureLeavesConfidence(t *testing.T) {
	learning := &fakeLearning{lookupErr: errors.New("db closed")}
	svc := newTestService(&fakeRecognizer{text: receiptFixture}, &fakePDF{}, nil, learning)

	result := svc.ParseReceipt(context.Background(), testImageBase64(t))

	assert.Empty(t, result.Error)
	assert.Equal(t, 0.9, result.ConfidenceScores["amount"])
}

func TestParseReceiptGSTHistoryLowersGSTConfidence(t *testing.T) {
	learning := &fakeLearning{records: []dto.LearningRecord{{
		Vendor: "UNIQLO",
		Discrepancies: map[string]dto.Discrepancy{
			"gst_details.cgst": {Original: 9.0, Corrected: 12.0},
		},
	}}}
	svc := newTestService(&fakeRecognizer{text: "UNIQLO.COM\nTOTAL: 118.00\nCGST: 9.00\nSGST: 9.00"}, &fakePDF{}, nil, learning)

	result := svc.ParseReceipt(context.Background(), testImageBase64(t))

	assert.InDelta(t, 0.45, result.ConfidenceScores["gst"], 1e-9)
}

const statementFixture = "27 Dec, 2025 Paid to Swiggy UPI ₹450.00"

func TestParseStatementTextLayer(t *testing.T) {
	pdfData := base64.StdEncoding.EncodeToString([]byte("%PDF-stub"))
	svc := newTestService(&fakeRecognizer{}, &fakePDF{pages: []string{statementFixture}}, nil, nil)

	transactions, err := svc.ParseStatement(context.Background(), pdfData)

	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "Swiggy", transactions[0].Vendor)
	assert.Equal(t, 450.0, transactions[0].Amount)
	assert.Equal(t, "Food", transactions[0].Category)
}

func TestParseStatementScannedFallback(t *testing.T) {
	pdfData := base64.StdEncoding.EncodeToString([]byte("%PDF-stub"))
	pdfProc := &fakePDF{
		pages:  []string{""},
		images: []image.Image{image.NewRGBA(image.Rect(0, 0, 10, 10))},
	}
	svc := newTestService(&fakeRecognizer{text: statementFixture}, pdfProc, nil, nil)

	transactions, err := svc.ParseStatement(context.Background(), pdfData)

	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "Swiggy", transactions[0].Vendor)
}

func TestParseStatementTextExtractionFailure(t *testing.T) {
	pdfData := base64.StdEncoding.EncodeToString([]byte("junk"))
	svc := newTestService(&fakeRecognizer{}, &fakePDF{textErr: errors.New("not a pdf")}, nil, nil)

	_, err := svc.ParseStatement(context.Background(), pdfData)

	assert.ErrorIs(t, err, dto.ErrDecode)
}

func TestParseSMS(t *testing.T) {
	svc := newTestService(&fakeRecognizer{}, &fakePDF{}, nil, nil)

	result := svc.ParseSMS("Rs. 450.00 debited from A/c XX1234 at SWIGGY on 27-12-25")

	require.NotNil(t, result.Amount)
	assert.Equal(t, 450.0, *result.Amount)
	assert.False(t, result.IsCredit)
}

func TestRecordCorrectionPersistsDiscrepancies(t *testing.T) {
	learning := &fakeLearning{}
	svc := newTestService(&fakeRecognizer{}, &fakePDF{}, nil, learning)
	amount := 120.0
	corrected := 150.0

	discrepancies, err := svc.RecordCorrection(dto.ConfirmExpenseRequest{
		Vendor:          "  swiggy ",
		Amount:          &corrected,
		OriginalOCRData: &dto.ExtractionResult{Amount: &amount},
	})

	require.NoError(t, err)
	assert.Len(t, discrepancies, 1)
	assert.Equal(t, "SWIGGY", learning.recordedVendor)
	assert.Contains(t, learning.recorded, "amount")
}

func TestRecordCorrectionNoDiscrepanciesSkipsStore(t *testing.T) {
	learning := &fakeLearning{}
	svc := newTestService(&fakeRecognizer{}, &fakePDF{}, nil, learning)
	amount := 120.0

	discrepancies, err := svc.RecordCorrection(dto.ConfirmExpenseRequest{
		Vendor:          "Swiggy",
		Amount:          &amount,
		OriginalOCRData: &dto.ExtractionResult{Amount: &amount},
	})

	require.NoError(t, err)
	assert.Empty(t, discrepancies)
	assert.Empty(t, learning.recordedVendor)
}

func TestRecentCorrectionsWithoutStore(t *testing.T) {
	svc := newTestService(&fakeRecognizer{}, &fakePDF{}, nil, nil)

	records, err := svc.RecentCorrections("Swiggy", 5)

	require.NoError(t, err)
	assert.Empty(t, records)
}
