package gateway

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is used when no server is configured or the configured
// one is unusable.
const DefaultBaseURL = "http://127.0.0.1:9000/api"

const apiSuffix = "/api"

// NormalizeBaseURL returns raw with exactly one trailing "/api" segment.
// Empty or unusable input (not an absolute http/https URL) yields
// DefaultBaseURL together with an ErrInvalidBaseURL error.
func NormalizeBaseURL(raw string) (string, error) {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	if s == "" {
		return DefaultBaseURL, fmt.Errorf("%w: empty", ErrInvalidBaseURL)
	}
	if !strings.HasSuffix(s, apiSuffix) {
		s += apiSuffix
	}

	u, err := url.Parse(s)
	if err != nil {
		return DefaultBaseURL, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return DefaultBaseURL, fmt.Errorf("%w: scheme must be http or https", ErrInvalidBaseURL)
	}
	if u.Host == "" {
		return DefaultBaseURL, fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return DefaultBaseURL, fmt.Errorf("%w: query and fragment not allowed", ErrInvalidBaseURL)
	}
	return s, nil
}
