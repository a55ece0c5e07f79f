package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"mime"
	"net/http"
)

// CompareSecret reports whether provided equals expected without leaking
// timing. An empty expected secret never matches.
func CompareSecret(provided, expected string) bool {
	if expected == "" {
		return false
	}
	p := sha256.Sum256([]byte(provided))
	e := sha256.Sum256([]byte(expected))
	return subtle.ConstantTimeCompare(p[:], e[:]) == 1
}

// ValidateContentType ensures the request has one of the accepted content types
func ValidateContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	validTypes := map[string]bool{
		"application/json":                  true,
		"application/x-www-form-urlencoded": true,
		"multipart/form-data":               true,
	}
	return validTypes[mediaType]
}

// SanitizeHeaders removes credentials before headers are logged
func SanitizeHeaders(headers http.Header) http.Header {
	clean := headers.Clone()
	for _, header := range []string{"Authorization", "Cookie", "Set-Cookie", "X-CSRF-Token"} {
		clean.Del(header)
	}
	return clean
}
