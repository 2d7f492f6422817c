package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/expenso/expense-ocr/dto"
	"github.com/expenso/expense-ocr/service"
)

type ExpenseHandler struct {
	extractionService *service.ExtractionService
	timeout           time.Duration
}

func NewExpenseHandler(extractionService *service.ExtractionService, timeout time.Duration) *ExpenseHandler {
	return &ExpenseHandler{
		extractionService: extractionService,
		timeout:           timeout,
	}
}

// ParseReceipt handles POST /expenses/parse-receipt
func (h *ExpenseHandler) ParseReceipt(c *gin.Context) {
	var req dto.ParseReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "No image provided", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	// Extraction never surfaces a raw error: failures come back as the
	// error variant of the result.
	result := h.extractionService.ParseReceipt(ctx, req.Image)
	if result.Error != "" {
		log.Printf("receipt extraction failed: %s", result.Error)
	}
	c.JSON(http.StatusOK, result)
}

// ParsePDF handles POST /expenses/parse-pdf
func (h *ExpenseHandler) ParsePDF(c *gin.Context) {
	var req dto.ParsePDFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "No PDF data provided", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	transactions, err := h.extractionService.ParseStatement(ctx, req.PDF)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dto.ErrDecode) {
			status = http.StatusBadRequest
		}
		h.sendError(c, status, "Failed to parse statement", err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// ParseSMS handles POST /expenses/parse-sms
func (h *ExpenseHandler) ParseSMS(c *gin.Context) {
	var req dto.ParseSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "No SMS text provided", err)
		return
	}

	c.JSON(http.StatusOK, h.extractionService.ParseSMS(req.Text))
}

// Confirm handles POST /expenses/confirm. It captures the gap between what
// was extracted and what the user finally saved into the learning store.
func (h *ExpenseHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid confirmation payload", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	discrepancies, err := h.extractionService.RecordCorrection(req)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to record correction", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recorded":      len(discrepancies) > 0,
		"discrepancies": discrepancies,
	})
}

// GetCorrections handles GET /expenses/corrections/:vendor
func (h *ExpenseHandler) GetCorrections(c *gin.Context) {
	vendor := c.Param("vendor")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	records, err := h.extractionService.RecentCorrections(vendor, limit)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to load corrections", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// sendError sends a structured error response
func (h *ExpenseHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Printf("Error: %s - %v", message, err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "EXTRACTION_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}
