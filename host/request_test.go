// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package host

import (
	"context"
	"io"
	"net/url"
	"testing"

	"github.com/z5labs/httphost"

	"github.com/stretchr/testify/assert"
)

func TestParseContentLength(t *testing.T) {
	testCases := []struct {
		Name     string
		Value    string
		Expected int64
	}{
		{
			Name:     "absent header",
			Value:    "",
			Expected: 0,
		},
		{
			Name:     "non numeric value",
			Value:    "abc",
			Expected: 0,
		},
		{
			Name:     "negative value",
			Value:    "-5",
			Expected: 0,
		},
		{
			Name:     "valid value",
			Value:    "12345",
			Expected: 12345,
		},
		{
			Name:     "valid value with surrounding whitespace",
			Value:    " 42 ",
			Expected: 42,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			n := parseContentLength(testCase.Value)
			if !assert.Equal(t, testCase.Expected, n) {
				return
			}
		})
	}
}

func newHostWithBases(t *testing.T, bases ...string) *Host {
	h, err := New(
		context.Background(),
		httphost.ProvideEngine(respondWith(&httphost.Response{})),
		bases,
	)
	if !assert.Nil(t, err) {
		t.FailNow()
	}
	return h
}

func mustParseRef(t *testing.T, ref string) *url.URL {
	u, err := url.ParseRequestURI(ref)
	if !assert.Nil(t, err) {
		t.FailNow()
	}
	return u
}

func TestHost_ResolveTarget(t *testing.T) {
	t.Run("will resolve the matching base uri", func(t *testing.T) {
		t.Run("if the request path is a case-insensitive extension of it", func(t *testing.T) {
			h := newHostWithBases(t, "http://localhost:8080/App")

			target, err := h.resolveTarget("http", "LOCALHOST:8080", mustParseRef(t, "/app/USERS"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "/App", target.BasePath) {
				return
			}
			if !assert.Equal(t, "/USERS", target.Path) {
				return
			}
			if !assert.Equal(t, "localhost", target.Host) {
				return
			}
			if !assert.Equal(t, 8080, target.Port) {
				return
			}
		})

		t.Run("if multiple bases match the first in configured order wins", func(t *testing.T) {
			h := newHostWithBases(t,
				"http://localhost:8080/app",
				"http://localhost:8080/app/v2",
			)

			target, err := h.resolveTarget("http", "localhost:8080", mustParseRef(t, "/app/v2/items"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "/app", target.BasePath) {
				return
			}
			if !assert.Equal(t, "/v2/items", target.Path) {
				return
			}
		})

		t.Run("if the request targets the base itself", func(t *testing.T) {
			h := newHostWithBases(t, "http://localhost:8080/app")

			target, err := h.resolveTarget("http", "localhost:8080", mustParseRef(t, "/app"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "", target.Path) {
				return
			}
		})
	})

	t.Run("will omit the port", func(t *testing.T) {
		t.Run("if the request used the schemes default port", func(t *testing.T) {
			h := newHostWithBases(t, "http://example.com/")

			target, err := h.resolveTarget("http", "example.com", mustParseRef(t, "/users"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, 0, target.Port) {
				return
			}
			if !assert.Equal(t, "http://example.com/users", target.String()) {
				return
			}
		})
	})

	t.Run("will url decode the relative path", func(t *testing.T) {
		t.Run("if it contains percent encoded characters", func(t *testing.T) {
			h := newHostWithBases(t, "http://localhost:8080/app")

			target, err := h.resolveTarget("http", "localhost:8080", mustParseRef(t, "/app/hello%20world"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "/hello world", target.Path) {
				return
			}
		})
	})

	t.Run("will carry the query and fragment", func(t *testing.T) {
		t.Run("if the request uri contains them", func(t *testing.T) {
			h := newHostWithBases(t, "http://localhost:8080/")

			target, err := h.resolveTarget("http", "localhost:8080", mustParseRef(t, "/users?page=2&sort=name"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "page=2&sort=name", target.RawQuery) {
				return
			}
		})
	})

	t.Run("will return a NoMatchingBaseError", func(t *testing.T) {
		t.Run("if the request path extends no base uri", func(t *testing.T) {
			h := newHostWithBases(t, "http://localhost:8080/app")

			_, err := h.resolveTarget("http", "localhost:8080", mustParseRef(t, "/other"))

			var nerr NoMatchingBaseError
			if !assert.ErrorAs(t, err, &nerr) {
				return
			}
		})

		t.Run("if the request path only shares a string prefix with a base", func(t *testing.T) {
			h := newHostWithBases(t, "http://localhost:8080/app")

			_, err := h.resolveTarget("http", "localhost:8080", mustParseRef(t, "/application"))

			var nerr NoMatchingBaseError
			if !assert.ErrorAs(t, err, &nerr) {
				return
			}
		})

		t.Run("if the request host matches no base uri", func(t *testing.T) {
			h := newHostWithBases(t, "http://localhost:8080/")

			_, err := h.resolveTarget("http", "example.com:8080", mustParseRef(t, "/users"))

			var nerr NoMatchingBaseError
			if !assert.ErrorAs(t, err, &nerr) {
				return
			}
		})

		t.Run("if the request port matches no base uri", func(t *testing.T) {
			h := newHostWithBases(t, "http://localhost:8080/")

			_, err := h.resolveTarget("http", "localhost:9090", mustParseRef(t, "/users"))

			var nerr NoMatchingBaseError
			if !assert.ErrorAs(t, err, &nerr) {
				return
			}
		})
	})
}

func TestHost_TranslateRequest(t *testing.T) {
	t.Run("will produce a normalized request", func(t *testing.T) {
		t.Run("if the wire request matches a base uri", func(t *testing.T) {
			h := newHostWithBases(t, "http://localhost:8080/app")

			conn := newFakeConn("POST /app/items HTTP/1.1\r\nHost: localhost:8080\r\nContent-Length: 5\r\nX-Token: abc\r\n\r\nhello world")

			req, err := h.translateRequest(context.Background(), conn)
			if !assert.Nil(t, err) {
				return
			}

			if !assert.Equal(t, "POST", req.Method) {
				return
			}
			if !assert.Equal(t, "/items", req.URL.Path) {
				return
			}
			if !assert.Equal(t, "abc", req.Header.Get("X-Token")) {
				return
			}
			if !assert.Equal(t, int64(5), req.ContentLength) {
				return
			}
			if !assert.Equal(t, "10.0.0.1:54321", req.RemoteAddr) {
				return
			}
			if !assert.Nil(t, req.ClientCert) {
				return
			}

			// the body never reads past the declared content length
			b, err := io.ReadAll(req.Body)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello", string(b)) {
				return
			}
		})

		t.Run("if the request has no body", func(t *testing.T) {
			h := newHostWithBases(t, "http://localhost:8080/")

			conn := newFakeConn("GET /users HTTP/1.1\r\nHost: localhost:8080\r\n\r\n")

			req, err := h.translateRequest(context.Background(), conn)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, int64(0), req.ContentLength) {
				return
			}

			b, err := io.ReadAll(req.Body)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Empty(t, b) {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the wire request matches no base uri", func(t *testing.T) {
			h := newHostWithBases(t, "http://localhost:8080/app")

			conn := newFakeConn("GET /other HTTP/1.1\r\nHost: localhost:8080\r\n\r\n")

			_, err := h.translateRequest(context.Background(), conn)

			var nerr NoMatchingBaseError
			if !assert.ErrorAs(t, err, &nerr) {
				return
			}
		})

		t.Run("if the wire request is malformed", func(t *testing.T) {
			h := newHostWithBases(t, "http://localhost:8080/")

			conn := newFakeConn("not a http request\r\n\r\n")

			_, err := h.translateRequest(context.Background(), conn)
			if !assert.Error(t, err) {
				return
			}
		})
	})
}
