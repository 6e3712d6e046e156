// Package models - error responses produced by the HTTP layer.
//
// The probe itself never fails a request; these bodies only come from the
// router and middleware (404, 405, 429, 500).
package models

import (
	"time"
)

type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// Standard HTTP Error Codes
const (
	ErrorCodeNotFound          = "NOT_FOUND"           // 404: Only / is routed
	ErrorCodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"  // 405: Only GET is routed
	ErrorCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED" // 429: Client exhausted its bucket
	ErrorCodeInternalError     = "INTERNAL_ERROR"      // 500: Recovered panic
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}
