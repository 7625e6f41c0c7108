// Package netx holds small net/http helpers shared by the HTTP gateway and
// the auth client.
package netx

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
)

// DefaultSnippetLimit bounds how much of an error response body is kept.
const DefaultSnippetLimit = 512

// IsTransportError reports whether err came from the network layer
// (dial failure, reset connection, client timeout) rather than from an HTTP
// response. Caller cancellation is not a transport failure.
func IsTransportError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// BodySnippet reads at most limit bytes of r for diagnostics.
func BodySnippet(r io.Reader, limit int64) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, limit))
	return strings.TrimSpace(string(b))
}

// JoinURL appends an absolute API path ("/api/login") to base, tolerating a
// trailing slash on base. Query strings in path are preserved.
func JoinURL(base, path string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.New("base url must be absolute: " + base)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	u.Path = u.Path + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}
