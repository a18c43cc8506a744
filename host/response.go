// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package host

import (
	"bufio"
	"fmt"
	"io"
	"net/http"

	"github.com/z5labs/httphost"
)

// writeResponse translates the framework neutral response back into
// wire level HTTP output. The status line and headers are flushed
// before the deferred content writer runs, so a failing writer leaves
// a partially written response on the wire. Closing the underlying
// stream is the callers responsibility and happens on every exit path.
func (h *Host) writeResponse(w io.Writer, resp *httphost.Response) error {
	bw := bufio.NewWriter(w)

	statusCode := resp.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	_, err := fmt.Fprintf(bw, "HTTP/1.1 %03d %s\r\n", statusCode, http.StatusText(statusCode))
	if err != nil {
		return err
	}

	header := make(http.Header, len(resp.Header)+2)
	for k, vs := range resp.Header {
		header[http.CanonicalHeaderKey(k)] = vs
	}
	for _, cookie := range resp.Cookies {
		header.Add("Set-Cookie", cookie.String())
	}
	if resp.ContentType != "" {
		header.Set("Content-Type", resp.ContentType)
	}
	// one request per connection, the body is delimited by EOF
	header.Set("Connection", "close")

	err = header.Write(bw)
	if err != nil {
		return err
	}
	_, err = io.WriteString(bw, "\r\n")
	if err != nil {
		return err
	}
	err = bw.Flush()
	if err != nil {
		return err
	}

	if resp.Body != nil {
		err = resp.Body(bw)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}
