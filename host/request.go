// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package host

import (
	"bufio"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/z5labs/httphost"
)

// translateRequest reads the wire level request off the connection and
// converts it into the framework neutral representation.
func (h *Host) translateRequest(ctx context.Context, conn net.Conn) (*httphost.Request, error) {
	if tlsConn, ok := conn.(*tls.Conn); ok {
		err := tlsConn.HandshakeContext(ctx)
		if err != nil {
			return nil, err
		}
	}

	httpReq, err := http.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		return nil, err
	}
	return h.normalize(httpReq, conn)
}

func (h *Host) normalize(httpReq *http.Request, conn net.Conn) (*httphost.Request, error) {
	scheme := "http"
	var clientCert []byte
	if tlsConn, ok := conn.(*tls.Conn); ok {
		scheme = "https"

		state := tlsConn.ConnectionState()
		if len(state.PeerCertificates) > 0 {
			clientCert = state.PeerCertificates[0].Raw
		}
	}

	target, err := h.resolveTarget(scheme, httpReq.Host, httpReq.URL)
	if err != nil {
		return nil, err
	}

	contentLength := parseContentLength(httpReq.Header.Get("Content-Length"))

	req := &httphost.Request{
		Method:        httpReq.Method,
		URL:           target,
		Header:        httpReq.Header,
		Body:          io.LimitReader(httpReq.Body, contentLength),
		ContentLength: contentLength,
		ClientCert:    clientCert,
	}
	if addr := conn.RemoteAddr(); addr != nil {
		req.RemoteAddr = addr.String()
	}
	return req, nil
}

// resolveTarget matches the incoming URL against the configured base
// URI set, first match in configured order wins. Matching is case
// insensitive on scheme, host and path prefix.
func (h *Host) resolveTarget(scheme, hostport string, u *url.URL) (*httphost.TargetURL, error) {
	reqHost, reqPort := splitHostPort(hostport, scheme)
	reqPath := u.EscapedPath()

	for _, base := range h.bases {
		if !strings.EqualFold(scheme, base.Scheme) {
			continue
		}

		baseHost, basePort := splitHostPort(base.Host, base.Scheme)
		if !strings.EqualFold(reqHost, baseHost) {
			continue
		}
		if reqPort != basePort {
			continue
		}

		bp := basePath(base)
		rel, ok := relativePath(reqPath, bp)
		if !ok {
			continue
		}

		decoded, err := url.PathUnescape(rel)
		if err != nil {
			return nil, err
		}

		port := 0
		if reqPort != defaultPort(scheme) {
			port, err = strconv.Atoi(reqPort)
			if err != nil {
				return nil, err
			}
		}

		return &httphost.TargetURL{
			Scheme:   strings.ToLower(scheme),
			Host:     strings.ToLower(reqHost),
			Port:     port,
			BasePath: bp,
			Path:     decoded,
			RawQuery: u.RawQuery,
			Fragment: u.Fragment,
		}, nil
	}

	return nil, NoMatchingBaseError{URL: strings.ToLower(scheme) + "://" + hostport + u.Path}
}

// relativePath reports whether reqPath is a case-insensitive extension
// of base and, if so, returns the remainder. The base carries no
// trailing slash so the remainder always starts with a slash, or is
// empty when the request targets the base itself.
func relativePath(reqPath, base string) (string, bool) {
	if base == "" {
		return reqPath, true
	}
	if len(reqPath) < len(base) {
		return "", false
	}
	if !strings.EqualFold(reqPath[:len(base)], base) {
		return "", false
	}

	rel := reqPath[len(base):]
	if rel != "" && rel[0] != '/' {
		return "", false
	}
	return rel, true
}

func splitHostPort(hostport, scheme string) (string, string) {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, defaultPort(scheme)
	}
	return host, port
}

// parseContentLength parses a Content-Length header value as a
// non-negative integer, defaulting to zero on absence or parse failure.
func parseContentLength(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
