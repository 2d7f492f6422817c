package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/expenso/expense-ocr/client"
	"github.com/expenso/expense-ocr/config"
	"github.com/expenso/expense-ocr/handler"
	"github.com/expenso/expense-ocr/service"
	"github.com/expenso/expense-ocr/store"
)

func main() {
	cfg := config.LoadConfig()

	// Tesseract v5 reads the tessdata location from the environment
	os.Setenv("TESSDATA_PREFIX", cfg.TessdataPrefix)
	log.Println("TESSDATA_PREFIX set to:", cfg.TessdataPrefix)

	tesseractClient := client.NewTesseractClient(cfg.TessdataPrefix)
	defer tesseractClient.Close()

	qrClient := client.NewQRClient()
	pdfProcessor := service.NewPDFProcessor()

	// The learning store is advisory: a failure to open it degrades the
	// service to extraction-only instead of refusing to start.
	var learningStore service.LearningStore
	boltStore, err := store.NewBoltLearningStore(cfg.LearningDBPath)
	if err != nil {
		log.Printf("learning store unavailable, corrections disabled: %v", err)
	} else {
		learningStore = boltStore
		defer boltStore.Close()
	}

	extractionService := service.NewExtractionService(
		tesseractClient,
		pdfProcessor,
		qrClient,
		learningStore,
		cfg.MaxImageSide,
		cfg.ExtractConcurrency,
	)

	expenseHandler := handler.NewExpenseHandler(
		extractionService,
		time.Duration(cfg.ExtractTimeoutSecs)*time.Second,
	)

	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxFileSize

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Expense Document Extraction",
		})
	})

	api := router.Group("/api/v1")
	{
		expenses := api.Group("/expenses")
		{
			expenses.POST("/parse-receipt", expenseHandler.ParseReceipt)
			expenses.POST("/parse-pdf", expenseHandler.ParsePDF)
			expenses.POST("/parse-sms", expenseHandler.ParseSMS)
			expenses.POST("/confirm", expenseHandler.Confirm)
			expenses.GET("/corrections/:vendor", expenseHandler.GetCorrections)
		}
	}

	log.Printf("Starting Expense Document Extraction Service on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
