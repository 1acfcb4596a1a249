package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"sync"
)

const (
	HeaderContentType   = "Content-Type"
	MIMEApplicationJSON = "application/json"
)

// Body is a wire-ready request body. ContentType is only set for multipart
// form data, where the boundary is chosen when the body is encoded.
type Body struct {
	Content     []byte
	ContentType string
}

// ErrFormDataClosed is returned when parts are added to a container that was
// already encoded.
var ErrFormDataClosed = errors.New("form data already encoded")

// FormData is a multipart/form-data container. It is sent as is: the first
// encoding closes the container and every later send reuses the same bytes.
type FormData struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	writer  *multipart.Writer
	content []byte
	err     error
	closed  bool
}

func NewFormData() *FormData {
	f := &FormData{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

// AddField appends a plain form field.
func (f *FormData) AddField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFormDataClosed
	}
	return f.writer.WriteField(name, value)
}

// AddFile appends a file part read from r.
func (f *FormData) AddFile(field, filename string, r io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFormDataClosed
	}
	part, err := f.writer.CreateFormFile(field, filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, r)
	return err
}

// ContentType returns the multipart content type including the boundary.
func (f *FormData) ContentType() string {
	return f.writer.FormDataContentType()
}

// Bytes returns the encoded body. The container is closed on the first call.
func (f *FormData) Bytes() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		f.err = f.writer.Close()
		f.content = bytes.Clone(f.buf.Bytes())
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.content, nil
}

// ResolveBody turns body into wire form. Falsy bodies produce no body. Form
// data, strings and byte slices pass through unchanged; anything else is JSON
// encoded and a JSON content type is added unless headers already carry one.
// The returned headers are a copy; the input map is never modified.
//
// An existing content type is found regardless of the header name's case, so
// "content-type" also suppresses the JSON default. A case-sensitive lookup
// would let net/http send two conflicting Content-Type values.
func ResolveBody(body any, headers map[string]string) (*Body, map[string]string, error) {
	out := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		out[k] = v
	}

	if isFalsy(body) {
		return nil, out, nil
	}

	switch b := body.(type) {
	case *FormData:
		content, err := b.Bytes()
		if err != nil {
			return nil, out, fmt.Errorf("encode form data: %w", err)
		}
		return &Body{Content: content, ContentType: b.ContentType()}, out, nil
	case string:
		return &Body{Content: []byte(b)}, out, nil
	case []byte:
		return &Body{Content: b}, out, nil
	case json.RawMessage:
		return &Body{Content: b}, out, nil
	}

	content, err := json.Marshal(body)
	if err != nil {
		return nil, out, fmt.Errorf("encode json body: %w", err)
	}
	if !HasHeader(out, HeaderContentType) {
		out[HeaderContentType] = MIMEApplicationJSON
	}
	return &Body{Content: content}, out, nil
}

// HasHeader reports whether headers contains name, ignoring case.
func HasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func isFalsy(v any) bool {
	if isNil(v) {
		return true
	}
	switch b := v.(type) {
	case string:
		return b == ""
	case bool:
		return !b
	case []byte:
		return len(b) == 0
	case json.RawMessage:
		return len(b) == 0
	case int:
		return b == 0
	case int64:
		return b == 0
	case float64:
		return b == 0
	}
	return false
}
