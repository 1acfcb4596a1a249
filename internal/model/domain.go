package model

import (
	"encoding/json"
	"time"
)

// Request is one recorded execution.
type Request struct {
	ID                 int             `json:"id"`
	ExecutedAt         time.Time       `json:"executed_at"`
	RequestMethod      string          `json:"request_method"`
	RequestURL         string          `json:"request_url"`
	RequestHeaders     json.RawMessage `json:"request_headers"`
	ResponseStatusCode *int            `json:"response_status_code"`
	ResponseBody       *string         `json:"response_body"`
	ErrorMessage       *string         `json:"error_message"`
	DurationMs         int             `json:"duration_ms"`
}
