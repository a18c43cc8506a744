// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httphost

import (
	"io"
	"net/http"
)

// Response is the framework neutral representation of an HTTP response
// produced by an [Engine]. It is consumed exactly once by the host, which
// invokes Body against the live output stream and then closes the stream.
type Response struct {
	StatusCode int

	Header http.Header

	// Cookies are appended to the response as one Set-Cookie header each.
	Cookies []*http.Cookie

	// ContentType, when non-empty, overrides any Content-Type in Header.
	ContentType string

	// Body writes the response body to the given output stream. A nil Body
	// means the response has no body. The host always closes the stream
	// after Body returns, even if it returns an error.
	Body func(io.Writer) error
}
