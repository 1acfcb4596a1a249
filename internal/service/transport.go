package service

import (
	"context"

	"github.com/suar-net/suar-reactive/internal/codec"
	"github.com/suar-net/suar-reactive/internal/model"
)

// Descriptor carries everything the transport needs besides the URL.
type Descriptor struct {
	Method      model.Method
	Headers     map[string]string
	Body        *codec.Body
	Credentials model.Credentials
}

// Response is a completed response with a buffered or bufferable body.
type Response interface {
	StatusCode() int
	Header(name string) string
	Body() ([]byte, error)
}

// Transport performs the network call. ctx is the cancellation token; an
// aborted call is reported as an error like any other failure.
type Transport interface {
	Do(ctx context.Context, url string, d Descriptor) (Response, error)
}

// TransportFunc adapts a plain function to Transport.
type TransportFunc func(ctx context.Context, url string, d Descriptor) (Response, error)

func (f TransportFunc) Do(ctx context.Context, url string, d Descriptor) (Response, error) {
	return f(ctx, url, d)
}
