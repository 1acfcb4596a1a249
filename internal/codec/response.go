package codec

import (
	"encoding/json"
	"fmt"
	"mime"
	"strings"
)

// IsJSON reports whether contentType declares a JSON media type.
func IsJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	return mediaType == MIMEApplicationJSON || strings.HasSuffix(mediaType, "+json")
}

// ParseResponse decodes a buffered response body according to its declared
// content type: JSON types are decoded, everything else is returned as text.
// An empty JSON body decodes to nil.
func ParseResponse(contentType string, body []byte) (any, error) {
	if !IsJSON(contentType) {
		return string(body), nil
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode json response: %w", err)
	}
	return data, nil
}
