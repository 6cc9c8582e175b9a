package report

import (
	"encoding/base64"
	"strings"

	"github.com/leeaandrob/roascalc/internal/apperr"
)

// DataURIPrefix marks an inline, base64-encoded HTML document.
const DataURIPrefix = "data:text/html;charset=utf-8;base64,"

// EncodeDataURI wraps an HTML document in a self-describing data URI.
func EncodeDataURI(doc string) string {
	return DataURIPrefix + base64.StdEncoding.EncodeToString([]byte(doc))
}

// DecodeDataURI returns the HTML document carried by ref.
func DecodeDataURI(ref string) (string, error) {
	payload, ok := strings.CutPrefix(ref, DataURIPrefix)
	if !ok {
		return "", apperr.Validation("report reference is not an inline HTML document")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", apperr.Validation("report reference is not valid base64")
	}
	return string(raw), nil
}
