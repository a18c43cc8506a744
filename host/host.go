// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package host provides an in-process HTTP host for a pluggable request handling engine.
package host

import (
	"context"
	"crypto/tls"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os/user"
	"strings"
	"sync"

	"github.com/z5labs/httphost"
	"github.com/z5labs/httphost/lifecycle"
	"github.com/z5labs/httphost/reserve"
	"github.com/z5labs/httphost/slogfield"

	"golang.org/x/sync/errgroup"
)

type options struct {
	rewriteLocalhost bool
	reserveOnDenied  bool
	onError          func(error)
	logHandler       slog.Handler
	tlsConfig        *tls.Config
	reserver         reserve.Reserver
	shutdownHooks    []lifecycle.Hook
}

// Option is a functional option for configuring a [Host].
type Option func(*options)

// RewriteLocalhost controls whether a bare, dotless hostname in a base URI,
// such as "localhost", is replaced with the wildcard bind pattern when
// computing bind prefixes. Dotted hostnames are never rewritten.
//
// Default is enabled.
func RewriteLocalhost(enabled bool) Option {
	return func(os *options) {
		os.rewriteLocalhost = enabled
	}
}

// ReserveOnAccessDenied controls whether a permission denied bind failure
// triggers an automatic namespace reservation for every prefix, followed
// by a single bind retry.
//
// Default is disabled.
func ReserveOnAccessDenied(enabled bool) Option {
	return func(os *options) {
		os.reserveOnDenied = enabled
	}
}

// OnError sets the callback invoked with any error not otherwise handled
// by the engine, such as accept failures and per request dispatch failures.
//
// Default logs the error at debug level through the host logger.
func OnError(f func(error)) Option {
	return func(os *options) {
		os.onError = f
	}
}

// LogHandler configures the slog.Handler the host logs through.
func LogHandler(h slog.Handler) Option {
	return func(os *options) {
		os.logHandler = h
	}
}

// TLSConfig configures TLS for https base URIs. Client certificate capture
// requires the config to request client certificates.
func TLSConfig(cfg *tls.Config) Option {
	return func(os *options) {
		os.tlsConfig = cfg
	}
}

// Reserver overrides the namespace reservation strategy used when
// [ReserveOnAccessDenied] is enabled.
//
// Default is [reserve.NewCommand].
func Reserver(r reserve.Reserver) Option {
	return func(os *options) {
		os.reserver = r
	}
}

// OnShutdown registers hooks which run after [Host.Stop] has halted
// the listeners.
func OnShutdown(hooks ...lifecycle.Hook) Option {
	return func(os *options) {
		os.shutdownHooks = append(os.shutdownHooks, hooks...)
	}
}

type noopLogHandler struct{}

func (noopLogHandler) Enabled(_ context.Context, _ slog.Level) bool  { return false }
func (noopLogHandler) Handle(_ context.Context, _ slog.Record) error { return nil }
func (h noopLogHandler) WithAttrs(_ []slog.Attr) slog.Handler        { return h }
func (h noopLogHandler) WithGroup(_ string) slog.Handler             { return h }

// Host bridges a request handling engine to the operating systems
// native HTTP listener. It owns the listener lifecycle, the accept
// loop and the translation between wire level HTTP and the framework
// neutral request and response representations.
type Host struct {
	engine   httphost.Engine
	bases    []*url.URL
	prefixes []prefix

	reserveOnDenied bool
	onError         func(error)
	log             *slog.Logger
	tlsConfig       *tls.Config
	reserver        reserve.Reserver
	shutdown        lifecycle.Hook

	listen func(network, addr string) (net.Listener, error)

	mu    sync.Mutex
	group *listenerGroup
}

// New returns a [Host] serving the given ordered set of absolute base URIs.
// The engine provider is initialized exactly once, before New returns. The
// base URI set is immutable once the host is constructed.
func New(ctx context.Context, provider httphost.EngineProvider, bases []string, opts ...Option) (*Host, error) {
	if provider == nil {
		return nil, errors.New("no engine provider given")
	}
	if len(bases) == 0 {
		return nil, errors.New("at least one base uri is required")
	}

	parsed := make([]*url.URL, 0, len(bases))
	for _, base := range bases {
		u, err := url.Parse(base)
		if err != nil {
			return nil, InvalidBaseError{Base: base, Cause: err}
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, InvalidBaseError{Base: base, Cause: errors.New("scheme must be http or https")}
		}
		if u.Host == "" {
			return nil, InvalidBaseError{Base: base, Cause: errors.New("missing host")}
		}
		parsed = append(parsed, u)
	}

	os := &options{
		rewriteLocalhost: true,
		logHandler:       noopLogHandler{},
		reserver:         reserve.NewCommand(),
	}
	for _, opt := range opts {
		opt(os)
	}

	err := provider.Init(ctx)
	if err != nil {
		return nil, EngineInitError{Cause: err}
	}
	engine := provider.Engine()
	if engine == nil {
		return nil, errors.New("engine provider returned a nil engine")
	}

	h := &Host{
		engine:          engine,
		bases:           parsed,
		prefixes:        computePrefixes(parsed, os.rewriteLocalhost),
		reserveOnDenied: os.reserveOnDenied,
		onError:         os.onError,
		log:             slog.New(os.logHandler),
		tlsConfig:       os.tlsConfig,
		reserver:        os.reserver,
		shutdown:        lifecycle.MultiHook(os.shutdownHooks...),
		listen:          net.Listen,
	}
	if h.onError == nil {
		h.onError = func(err error) {
			h.log.Debug("unhandled error", slogfield.Error(err))
		}
	}
	return h, nil
}

// Start binds a fresh listener to every computed prefix and begins
// accepting connections. A permission denied bind failure is retried
// once after reserving all prefixes, when [ReserveOnAccessDenied] is
// enabled. Any other bind failure propagates immediately.
func (h *Host) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.group != nil {
		return ErrAlreadyStarted
	}

	group, err := h.bind()
	if err != nil {
		if !errors.Is(err, fs.ErrPermission) {
			return err
		}

		username := currentUsername()
		if !h.reserveOnDenied {
			return ReservationRequiredError{
				Prefixes: prefixStrings(h.prefixes),
				User:     username,
			}
		}

		err = h.reservePrefixes(username)
		if err != nil {
			return err
		}

		group, err = h.bind()
		if err != nil {
			return StartError{Cause: err}
		}
	}

	h.group = group
	group.serve(h)

	h.log.Info("started host", slogfield.Strings("prefixes", prefixStrings(h.prefixes)))
	return nil
}

// Stop halts the active listeners and runs any registered shutdown
// hooks. There is no drain or grace period, in-flight requests may
// still be completing after Stop returns.
func (h *Host) Stop() error {
	h.mu.Lock()
	group := h.group
	h.group = nil
	h.mu.Unlock()

	if group == nil {
		return nil
	}

	h.log.Info("stopping host")
	err := group.close()

	hookErr := h.shutdown.Run(context.Background())

	h.log.Info("stopped host")
	return errors.Join(err, hookErr)
}

func (h *Host) bind() (*listenerGroup, error) {
	group := &listenerGroup{}

	bound := make(map[string]struct{}, len(h.prefixes))
	for _, p := range h.prefixes {
		addr := p.addr()
		if _, ok := bound[addr]; ok {
			continue
		}

		ln, err := h.listen("tcp", addr)
		if err != nil {
			group.closeListeners()
			return nil, err
		}
		if p.scheme == "https" {
			if h.tlsConfig == nil {
				_ = ln.Close()
				group.closeListeners()
				return nil, MissingTLSConfigError{Prefix: p.String()}
			}
			ln = tls.NewListener(ln, h.tlsConfig)
		}

		bound[addr] = struct{}{}
		group.listeners = append(group.listeners, ln)
	}
	return group, nil
}

func (h *Host) reservePrefixes(username string) error {
	for _, p := range h.prefixes {
		err := h.reserver.Reserve(context.Background(), p.String(), username)
		if err != nil {
			return ReservationError{Prefix: p.String(), Cause: err}
		}
	}
	return nil
}

func currentUsername() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.Username
}

// listenerGroup is the listener state of a single start attempt. It is
// replaced wholesale on every start, never reused, since a failed start
// invalidates the underlying listeners.
type listenerGroup struct {
	listeners []net.Listener
	cancel    context.CancelFunc
	eg        *errgroup.Group
}

func (g *listenerGroup) serve(h *Host) {
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel

	eg, egCtx := errgroup.WithContext(ctx)
	g.eg = eg
	for _, ln := range g.listeners {
		ln := ln
		eg.Go(func() error {
			return h.acceptLoop(egCtx, ln)
		})
	}
}

func (g *listenerGroup) close() error {
	if g.cancel != nil {
		g.cancel()
	}
	err := g.closeListeners()
	if g.eg != nil {
		err = errors.Join(err, g.eg.Wait())
	}
	return err
}

func (g *listenerGroup) closeListeners() error {
	errs := make([]error, 0, len(g.listeners))
	for _, ln := range g.listeners {
		cerr := ln.Close()
		if cerr != nil {
			errs = append(errs, cerr)
		}
	}
	g.listeners = nil
	return errors.Join(errs...)
}

// prefix is a single bind prefix computed from a base URI. An empty
// host means the wildcard bind pattern.
type prefix struct {
	scheme string
	host   string
	port   string
	path   string
}

func (p prefix) String() string {
	host := p.host
	if host == "" {
		host = "+"
	}
	return p.scheme + "://" + host + ":" + p.port + p.path + "/"
}

func (p prefix) addr() string {
	return net.JoinHostPort(p.host, p.port)
}

func computePrefixes(bases []*url.URL, rewriteLocalhost bool) []prefix {
	prefixes := make([]prefix, 0, len(bases))
	for _, base := range bases {
		hostname := base.Hostname()
		if rewriteLocalhost && !strings.Contains(hostname, ".") {
			hostname = ""
		}

		port := base.Port()
		if port == "" {
			port = defaultPort(base.Scheme)
		}

		prefixes = append(prefixes, prefix{
			scheme: strings.ToLower(base.Scheme),
			host:   hostname,
			port:   port,
			path:   basePath(base),
		})
	}
	return prefixes
}

func prefixStrings(prefixes []prefix) []string {
	ss := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		ss = append(ss, p.String())
	}
	return ss
}

func defaultPort(scheme string) string {
	if strings.EqualFold(scheme, "https") {
		return "443"
	}
	return "80"
}

// basePath normalizes a base URI path to have no trailing slash, so
// relative paths always carry the leading slash.
func basePath(u *url.URL) string {
	return strings.TrimSuffix(u.EscapedPath(), "/")
}
