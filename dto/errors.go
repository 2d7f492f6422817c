package dto

import "errors"

// Pipeline-boundary errors. Per-field parse issues are swallowed inside the
// extraction stages; only these reach the caller as the error result variant.
var (
	ErrDecode      = errors.New("failed to decode document payload")
	ErrRecognition = errors.New("text recognition failed")
)

// ErrorResponse is the structured error body returned by the HTTP layer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
