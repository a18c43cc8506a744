// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package host

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/z5labs/httphost"

	"github.com/stretchr/testify/assert"
)

func TestHost_WriteResponse(t *testing.T) {
	t.Run("will write the full wire response", func(t *testing.T) {
		t.Run("if the normalized response carries headers cookies and a body", func(t *testing.T) {
			h := newLocalHost(t)

			var buf bytes.Buffer
			err := h.writeResponse(&buf, &httphost.Response{
				StatusCode: http.StatusCreated,
				Header: http.Header{
					"X-One": []string{"1"},
					"X-Two": []string{"2", "3"},
				},
				Cookies: []*http.Cookie{
					{Name: "a", Value: "1"},
					{Name: "b", Value: "2"},
				},
				ContentType: "application/json",
				Body: func(w io.Writer) error {
					_, err := io.WriteString(w, `{"hello":"world"}`)
					return err
				},
			})
			if !assert.Nil(t, err) {
				return
			}

			resp, err := http.ReadResponse(bufio.NewReader(&buf), nil)
			if !assert.Nil(t, err) {
				return
			}
			defer resp.Body.Close()

			if !assert.Equal(t, http.StatusCreated, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, "1", resp.Header.Get("X-One")) {
				return
			}
			if !assert.Equal(t, []string{"2", "3"}, resp.Header.Values("X-Two")) {
				return
			}
			if !assert.Equal(t, "application/json", resp.Header.Get("Content-Type")) {
				return
			}
			if !assert.Len(t, resp.Cookies(), 2) {
				return
			}

			b, err := io.ReadAll(resp.Body)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, `{"hello":"world"}`, string(b)) {
				return
			}
		})

		t.Run("if the normalized response has no body", func(t *testing.T) {
			h := newLocalHost(t)

			var buf bytes.Buffer
			err := h.writeResponse(&buf, &httphost.Response{
				StatusCode: http.StatusNoContent,
			})
			if !assert.Nil(t, err) {
				return
			}

			resp, err := http.ReadResponse(bufio.NewReader(&buf), nil)
			if !assert.Nil(t, err) {
				return
			}
			defer resp.Body.Close()

			if !assert.Equal(t, http.StatusNoContent, resp.StatusCode) {
				return
			}
		})

		t.Run("if the status code is unset it defaults to 200", func(t *testing.T) {
			h := newLocalHost(t)

			var buf bytes.Buffer
			err := h.writeResponse(&buf, &httphost.Response{})
			if !assert.Nil(t, err) {
				return
			}
			if !assert.True(t, strings.HasPrefix(buf.String(), "HTTP/1.1 200 OK\r\n")) {
				return
			}
		})
	})

	t.Run("will leave a partially written response", func(t *testing.T) {
		t.Run("if the content writer fails after the headers were flushed", func(t *testing.T) {
			h := newLocalHost(t)
			bodyErr := errors.New("body failed")

			var buf bytes.Buffer
			err := h.writeResponse(&buf, &httphost.Response{
				StatusCode: http.StatusOK,
				Body: func(_ io.Writer) error {
					return bodyErr
				},
			})
			if !assert.ErrorIs(t, err, bodyErr) {
				return
			}

			// status line and headers are already on the wire
			if !assert.True(t, strings.HasPrefix(buf.String(), "HTTP/1.1 200 OK\r\n")) {
				return
			}
		})
	})
}

func TestHost_Handle(t *testing.T) {
	t.Run("will close the output stream", func(t *testing.T) {
		t.Run("if the response is written successfully", func(t *testing.T) {
			h := newLocalHost(t)

			conn := newFakeConn("GET / HTTP/1.1\r\nHost: localhost:8080\r\n\r\n")

			err := h.handle(context.Background(), conn)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.True(t, conn.closed.Load()) {
				return
			}
		})

		t.Run("if the content writer fails", func(t *testing.T) {
			bodyErr := errors.New("body failed")
			rc := &respCtx{resp: &httphost.Response{
				Body: func(_ io.Writer) error {
					return bodyErr
				},
			}}
			engine := httphost.EngineFunc(func(_ context.Context, _ *httphost.Request) (httphost.ResponseContext, error) {
				return rc, nil
			})

			h, err := New(
				context.Background(),
				httphost.ProvideEngine(engine),
				[]string{"http://localhost:8080/"},
			)
			if !assert.Nil(t, err) {
				return
			}

			conn := newFakeConn("GET / HTTP/1.1\r\nHost: localhost:8080\r\n\r\n")

			err = h.handle(context.Background(), conn)
			if !assert.ErrorIs(t, err, bodyErr) {
				return
			}
			if !assert.True(t, conn.closed.Load()) {
				return
			}
		})

		t.Run("if the engine fails to handle the request", func(t *testing.T) {
			engineErr := errors.New("engine failed")
			engine := httphost.EngineFunc(func(_ context.Context, _ *httphost.Request) (httphost.ResponseContext, error) {
				return nil, engineErr
			})

			h, err := New(
				context.Background(),
				httphost.ProvideEngine(engine),
				[]string{"http://localhost:8080/"},
			)
			if !assert.Nil(t, err) {
				return
			}

			conn := newFakeConn("GET / HTTP/1.1\r\nHost: localhost:8080\r\n\r\n")

			err = h.handle(context.Background(), conn)
			if !assert.ErrorIs(t, err, engineErr) {
				return
			}
			if !assert.True(t, conn.closed.Load()) {
				return
			}

			// no response was written for the failed request
			if !assert.Empty(t, conn.out.String()) {
				return
			}
		})
	})

	t.Run("will release the engine response context", func(t *testing.T) {
		t.Run("if response translation succeeds", func(t *testing.T) {
			rc := &respCtx{resp: &httphost.Response{StatusCode: http.StatusOK}}
			engine := httphost.EngineFunc(func(_ context.Context, _ *httphost.Request) (httphost.ResponseContext, error) {
				return rc, nil
			})

			h, err := New(
				context.Background(),
				httphost.ProvideEngine(engine),
				[]string{"http://localhost:8080/"},
			)
			if !assert.Nil(t, err) {
				return
			}

			conn := newFakeConn("GET / HTTP/1.1\r\nHost: localhost:8080\r\n\r\n")

			err = h.handle(context.Background(), conn)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.True(t, rc.closed.Load()) {
				return
			}
		})

		t.Run("if response translation fails", func(t *testing.T) {
			rc := &respCtx{resp: &httphost.Response{
				Body: func(_ io.Writer) error {
					return errors.New("body failed")
				},
			}}
			engine := httphost.EngineFunc(func(_ context.Context, _ *httphost.Request) (httphost.ResponseContext, error) {
				return rc, nil
			})

			h, err := New(
				context.Background(),
				httphost.ProvideEngine(engine),
				[]string{"http://localhost:8080/"},
			)
			if !assert.Nil(t, err) {
				return
			}

			conn := newFakeConn("GET / HTTP/1.1\r\nHost: localhost:8080\r\n\r\n")

			err = h.handle(context.Background(), conn)
			if !assert.Error(t, err) {
				return
			}
			if !assert.True(t, rc.closed.Load()) {
				return
			}
		})
	})
}
