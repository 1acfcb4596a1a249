package model

import "time"

// Incoming request to execute on behalf of the caller.
type DTORequest struct {
	Method      string            `json:"method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS get post put patch delete head options"`
	URL         string            `json:"url" validate:"required,url"`
	Headers     map[string]string `json:"headers"`
	Query       map[string]any    `json:"query"`
	Body        any               `json:"body,omitempty"`
	Credentials string            `json:"credentials" validate:"omitempty,oneof=omit same-origin include"`
	Timeout     int               `json:"timeout" validate:"gte=0,lte=90000"` // 0 means default, max 90s
}

// Result of an execution as reported back to the caller.
type DTOResponse struct {
	Status    int           `json:"status"`
	Data      any           `json:"data"`
	Error     any           `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

type DTOValidateRequest struct {
	Values map[string]any      `json:"values"`
	Rules  map[string][]string `json:"rules" validate:"required"`
}

type DTOFieldState struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

type DTOValidateResponse struct {
	Valid  bool                     `json:"valid"`
	Fields map[string]DTOFieldState `json:"fields"`
}
