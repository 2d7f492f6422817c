package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"

	"github.com/expenso/expense-ocr/dto"
)

// NormalizeForOCR prepares a receipt photo for text recognition: grayscale,
// contrast and sharpness boosted to resemble a flatbed scan, and downscaled
// so the longest side does not exceed maxSide. Images already within the cap
// are never upscaled. Deterministic and side-effect-free.
func NormalizeForOCR(img image.Image, maxSide int) *image.NRGBA {
	normalized := imaging.Grayscale(img)
	normalized = imaging.AdjustContrast(normalized, 15)
	normalized = imaging.Sharpen(normalized, 1.0)

	bounds := normalized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if maxSide > 0 && (width > maxSide || height > maxSide) {
		if width >= height {
			normalized = imaging.Resize(normalized, maxSide, 0, imaging.Lanczos)
		} else {
			normalized = imaging.Resize(normalized, 0, maxSide, imaging.Lanczos)
		}
	}

	return normalized
}

// DecodeBase64Image decodes a base64-encoded image payload, tolerating a
// data-URL prefix. Failures are reported as decode errors so the pipeline can
// convert them to the error result variant.
func DecodeBase64Image(payload string) (image.Image, error) {
	raw, err := decodeBase64Payload(payload)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrDecode, err)
	}
	return img, nil
}

func decodeBase64Payload(payload string) ([]byte, error) {
	if idx := strings.Index(payload, ";base64,"); idx >= 0 {
		payload = payload[idx+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrDecode, err)
	}
	return raw, nil
}
