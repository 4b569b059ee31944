// Package curl renders HTTP requests as reproducible curl commands.
package curl

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AuthHeader carries the caller-supplied auth token.
const AuthHeader = "x-auth-token"

const continuation = " \\\n  "

// Header is a single request header. Order is preserved on render.
type Header struct {
	Name  string
	Value string
}

// Command describes the request to reproduce.
type Command struct {
	URL     string
	Method  string
	Headers []Header
	Token   string
	Body    []byte
}

// DefaultHeaders returns the browser-style headers the marketplace front end
// sends, with origin and referer derived from siteURL and referer path.
func DefaultHeaders(siteURL, refererPath string) []Header {
	return []Header{
		{Name: "accept", Value: "*/*"},
		{Name: "accept-language", Value: "en-US,en;q=0.9"},
		{Name: "cache-control", Value: "no-cache"},
		{Name: "content-type", Value: "text/plain;charset=UTF-8"},
		{Name: "origin", Value: siteURL},
		{Name: "pragma", Value: "no-cache"},
		{Name: "referer", Value: siteURL + refererPath},
		{Name: "sec-fetch-dest", Value: "empty"},
		{Name: "sec-fetch-mode", Value: "cors"},
		{Name: "sec-fetch-site", Value: "same-origin"},
	}
}

// Render returns one shell command, split over lines with backslash
// continuations. The auth header is always last before the body so the token
// is easy to find and replace.
func Render(c Command) (string, error) {
	if c.URL == "" {
		return "", errors.New("curl: empty URL")
	}
	if _, err := url.ParseRequestURI(c.URL); err != nil {
		return "", fmt.Errorf("curl: invalid URL: %w", err)
	}

	method := strings.ToUpper(c.Method)
	if method == "" {
		method = http.MethodPost
	}

	parts := []string{"curl " + Quote(c.URL)}
	if method != http.MethodPost || len(c.Body) == 0 {
		parts = append(parts, "-X "+method)
	}
	for _, h := range c.Headers {
		if strings.EqualFold(h.Name, AuthHeader) {
			continue
		}
		parts = append(parts, "-H "+Quote(h.Name+": "+h.Value))
	}
	parts = append(parts, "-H "+Quote(AuthHeader+": "+c.Token))
	if len(c.Body) > 0 {
		parts = append(parts, "--data-raw "+Quote(string(c.Body)))
	}

	return strings.Join(parts, continuation), nil
}

// Quote wraps s in single quotes for POSIX shells, escaping embedded single
// quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
