// Package codec turns request configuration into wire values: query strings,
// request bodies with their content type, and parsed response bodies.
package codec

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
)

// WithQuery appends the non-nil entries of query to rawURL. Values are
// formatted with their default string form. If rawURL already carries a query
// string the new parameters are joined with '&'.
func WithQuery(rawURL string, query map[string]any) string {
	params := url.Values{}
	for key, value := range query {
		if isNil(value) {
			continue
		}
		params.Set(key, fmt.Sprint(value))
	}
	if len(params) == 0 {
		return rawURL
	}

	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + params.Encode()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
