package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorResponse(t *testing.T) {
	response := NewErrorResponse("Method not allowed", ErrorCodeMethodNotAllowed)

	assert.Equal(t, "error", response.Error)
	assert.Equal(t, "Method not allowed", response.Message)
	assert.Equal(t, ErrorCodeMethodNotAllowed, response.Code)
	assert.WithinDuration(t, time.Now(), response.Timestamp, time.Second)
}

func TestErrorResponse_JSONFields(t *testing.T) {
	data, err := json.Marshal(NewErrorResponse("Rate limit exceeded", ErrorCodeRateLimitExceeded))
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Len(t, fields, 4)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", fields["code"])
	assert.Contains(t, fields, "timestamp")
}

func TestErrorCodeConstants(t *testing.T) {
	for _, code := range []string{
		ErrorCodeNotFound,
		ErrorCodeMethodNotAllowed,
		ErrorCodeRateLimitExceeded,
		ErrorCodeInternalError,
	} {
		assert.Equal(t, strings.ToUpper(code), code)
	}
}
