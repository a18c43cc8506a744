// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httphost

import (
	"io"
	"net/http"
	"strconv"
	"strings"
)

// TargetURL is the resolved location of an incoming request, relative to
// the base URI it matched.
type TargetURL struct {
	// Scheme is either "http" or "https".
	Scheme string

	// Host is the hostname without any port.
	Host string

	// Port is zero when the request used the default port for Scheme.
	Port int

	// BasePath is the path of the base URI the request matched.
	BasePath string

	// Path is the URL decoded request path relative to BasePath.
	Path string

	// RawQuery is the query string without the leading "?".
	RawQuery string

	// Fragment is the URL fragment without the leading "#".
	Fragment string
}

// String reassembles the target URL into an absolute URL string.
func (u *TargetURL) String() string {
	var sb strings.Builder
	sb.WriteString(u.Scheme)
	sb.WriteString("://")
	sb.WriteString(u.Host)
	if u.Port != 0 {
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(u.Port))
	}
	sb.WriteString(u.BasePath)
	sb.WriteString(u.Path)
	if u.RawQuery != "" {
		sb.WriteString("?")
		sb.WriteString(u.RawQuery)
	}
	if u.Fragment != "" {
		sb.WriteString("#")
		sb.WriteString(u.Fragment)
	}
	return sb.String()
}

// Request is the framework neutral representation of an incoming HTTP
// request. It is constructed fresh per accepted connection and owned
// exclusively by the host dispatcher for the lifetime of one request.
type Request struct {
	Method string

	URL *TargetURL

	Header http.Header

	// Body is bounded by ContentLength. It never reads past the declared
	// length of the request body.
	Body io.Reader

	// ContentLength is the parsed Content-Length header value. It is zero
	// when the header is absent or not a valid non-negative integer.
	ContentLength int64

	// RemoteAddr is the network address of the client, when available.
	RemoteAddr string

	// ClientCert is the raw DER encoded certificate offered by the client
	// during the TLS handshake. It is nil when no certificate was offered.
	ClientCert []byte
}
