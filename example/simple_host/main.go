// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/z5labs/httphost"
	"github.com/z5labs/httphost/config"
	"github.com/z5labs/httphost/host"
	"github.com/z5labs/httphost/otelslog"
	"github.com/z5labs/httphost/slogfield"
)

const defaultConfig = `host:
  bases:
    - http://localhost:8080/app
  reserve: false
`

type echoContext struct {
	resp *httphost.Response
}

func (c echoContext) Response() *httphost.Response {
	return c.resp
}

func (echoContext) Close() error {
	return nil
}

func echo(_ context.Context, req *httphost.Request) (httphost.ResponseContext, error) {
	msg := fmt.Sprintf("%s %s", req.Method, req.URL.Path)
	return echoContext{
		resp: &httphost.Response{
			StatusCode:  http.StatusOK,
			ContentType: "text/plain",
			Body: func(w io.Writer) error {
				_, err := io.WriteString(w, msg)
				return err
			},
		},
	}, nil
}

func main() {
	logHandler := otelslog.NewHandler(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{AddSource: true}))
	log := slog.New(logHandler)

	m, err := config.Read(
		config.FromYaml(strings.NewReader(defaultConfig)),
		config.FromEnv(),
	)
	if err != nil {
		log.Error("failed to read config", slogfield.Error(err))
		return
	}

	var cfg struct {
		Host struct {
			Bases   []string `config:"bases"`
			Reserve bool     `config:"reserve"`
		} `config:"host"`
	}
	err = m.Unmarshal(&cfg)
	if err != nil {
		log.Error("failed to unmarshal config", slogfield.Error(err))
		return
	}

	h, err := host.New(
		context.Background(),
		httphost.ProvideEngine(httphost.EngineFunc(echo)),
		cfg.Host.Bases,
		host.LogHandler(logHandler),
		host.ReserveOnAccessDenied(cfg.Host.Reserve),
		host.OnError(func(err error) {
			log.Error("unhandled error", slogfield.Error(err))
		}),
	)
	if err != nil {
		log.Error("failed to construct host", slogfield.Error(err))
		return
	}

	err = h.Start()
	if err != nil {
		log.Error("failed to start host", slogfield.Error(err))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-ctx.Done()

	err = h.Stop()
	if err != nil {
		log.Error("failed to stop host", slogfield.Error(err))
	}
}
