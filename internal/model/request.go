package model

import (
	"fmt"
	"net/http"
)

// Method is an HTTP verb.
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
	MethodDelete  Method = http.MethodDelete
	MethodHead    Method = http.MethodHead
	MethodOptions Method = http.MethodOptions
)

// Credentials controls whether cookies travel with a request.
type Credentials string

const (
	CredentialsOmit       Credentials = "omit"
	CredentialsSameOrigin Credentials = "same-origin"
	CredentialsInclude    Credentials = "include"
)

// RequestConfig describes one request. It is resolved to a plain snapshot at
// every execution.
type RequestConfig struct {
	URL         string
	Method      Method
	Headers     map[string]string
	Body        any
	Query       map[string]any
	Credentials Credentials
	// Immediate makes the controller execute once on construction.
	Immediate bool
}

// RequestOverride holds per-call overrides. Nil fields keep the base value;
// Headers and Query replace the base maps wholesale when set.
type RequestOverride struct {
	URL         *string
	Method      *Method
	Headers     map[string]string
	Body        any
	Query       map[string]any
	Credentials *Credentials
}

// Merge returns c with o applied on top, field by field.
func (c RequestConfig) Merge(o *RequestOverride) RequestConfig {
	merged := c
	if o != nil {
		if o.URL != nil {
			merged.URL = *o.URL
		}
		if o.Method != nil {
			merged.Method = *o.Method
		}
		if o.Headers != nil {
			merged.Headers = o.Headers
		}
		if o.Body != nil {
			merged.Body = o.Body
		}
		if o.Query != nil {
			merged.Query = o.Query
		}
		if o.Credentials != nil {
			merged.Credentials = *o.Credentials
		}
	}
	if merged.Method == "" {
		merged.Method = MethodGet
	}
	return merged
}

// Outcome is the snapshot returned by one execution.
type Outcome struct {
	Data   any
	Status int // 0 when no response was received
	Error  error
}

// HTTPError reports a response whose status is outside [200,300). Data holds
// the parsed response body.
type HTTPError struct {
	Status int
	Data   any
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d", e.Status)
}
