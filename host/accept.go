// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package host

import (
	"context"
	"errors"
	"net"

	"github.com/z5labs/httphost/internal/try"
	"github.com/z5labs/httphost/slogfield"

	"go.opentelemetry.io/otel"
)

// acceptLoop is the single acceptance point for one listener. Each
// accepted connection is processed as an independent goroutine so a
// slow handler never blocks new acceptances.
//
// Accept failures are reported through the error callback and the loop
// re-arms itself. If the listener itself is dead the callback fires a
// second time with the same error and the loop stops without further
// recovery.
func (h *Host) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			h.onError(err)
			if errors.Is(err, net.ErrClosed) {
				h.onError(err)
				return nil
			}
			continue
		}

		go h.serve(ctx, conn)
	}
}

func (h *Host) serve(ctx context.Context, conn net.Conn) {
	err := h.handle(ctx, conn)
	if err != nil {
		h.onError(err)
	}
}

// handle runs one connection through the full dispatch path: translate
// the request, invoke the engine, translate the response. The output
// stream and the engine produced response context are both released on
// every exit path, including panics.
func (h *Host) handle(ctx context.Context, conn net.Conn) (err error) {
	defer try.Recover(&err)
	defer try.Close(&err, conn)

	spanCtx, span := otel.Tracer("host").Start(ctx, "Host.handle")
	defer span.End()

	req, err := h.translateRequest(spanCtx, conn)
	if err != nil {
		return err
	}

	h.log.DebugContext(spanCtx, "dispatching request",
		slogfield.String("method", req.Method),
		slogfield.String("path", req.URL.Path),
	)

	respCtx, err := h.engine.Handle(spanCtx, req)
	if err != nil {
		return err
	}
	defer try.Close(&err, respCtx)

	return h.writeResponse(conn, respCtx.Response())
}
