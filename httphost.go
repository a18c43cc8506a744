// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httphost

import (
	"context"
)

// Engine represents anything which can handle a normalized HTTP request.
// The host invokes Handle exactly once per accepted connection.
type Engine interface {
	Handle(context.Context, *Request) (ResponseContext, error)
}

// EngineFunc is a functional implementation of the [Engine] interface.
type EngineFunc func(context.Context, *Request) (ResponseContext, error)

// Handle implements the [Engine] interface.
func (f EngineFunc) Handle(ctx context.Context, req *Request) (ResponseContext, error) {
	return f(ctx, req)
}

// ResponseContext is the disposable per request context produced by an
// [Engine]. The host guarantees Close is called after response translation
// regardless of whether translation succeeded.
type ResponseContext interface {
	Response() *Response
	Close() error
}

// EngineProvider represents anything which can bootstrap an [Engine].
// Init is invoked once, at host construction time, before Engine is called.
type EngineProvider interface {
	Init(context.Context) error
	Engine() Engine
}

type staticProvider struct {
	engine Engine
}

func (staticProvider) Init(_ context.Context) error {
	return nil
}

func (p staticProvider) Engine() Engine {
	return p.engine
}

// ProvideEngine wraps an already built [Engine] into an [EngineProvider]
// whose Init is a no-op.
func ProvideEngine(e Engine) EngineProvider {
	return staticProvider{engine: e}
}
