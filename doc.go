// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httphost defines the contracts between an in-process HTTP host
// and a pluggable request handling engine.
//
// The host accepts incoming HTTP connections, translates each one into a
// framework neutral [Request], hands it to an [Engine] and translates the
// resulting [Response] back into wire level HTTP output. Everything about
// how a request is actually handled, routing, views, middleware, lives
// behind the [Engine] interface and is of no concern to the host.
//
// The [github.com/z5labs/httphost/host] package provides the host itself.
package httphost
