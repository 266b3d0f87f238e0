package xhttp

import (
	"reflect"
	"runtime"
	"slices"
	"time"

	"github.com/nimasrn/service-reminders/pkg/logger"
	"github.com/valyala/fasthttp"
)

type RequestHeader = fasthttp.RequestHeader
type ResponseHeader = fasthttp.ResponseHeader
type Server = fasthttp.Server

// ServerOption carries the fasthttp settings the services tune.
type ServerOption struct {
	Name string

	// idle keep-alive connections are closed after this, open files stay bounded
	IdleTimeout time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// CSV uploads arrive as multipart bodies, size this for the largest import
	MaxRequestBodySize int

	ReadBufferSize  int
	WriteBufferSize int
	Concurrency     int
	MaxConnsPerIP   int

	Logger logger.Logger
}

var DefaultServerOption = ServerOption{
	Name:               "service-reminders",
	IdleTimeout:        10 * time.Second,
	ReadTimeout:        30 * time.Second,
	WriteTimeout:       30 * time.Second,
	MaxRequestBodySize: 10 * 1024 * 1024,
	ReadBufferSize:     16 * 1024,
	WriteBufferSize:    16 * 1024,
	Concurrency:        10_000,
	MaxConnsPerIP:      1_000,
}

type Engine struct {
	*Router
	*Server
	middle []MiddlewareFunc
}

func newServer(options ServerOption) *fasthttp.Server {
	lg := options.Logger
	if lg == nil {
		lg = logger.GetLogger()
	}
	return &fasthttp.Server{
		Name:                  options.Name,
		IdleTimeout:           options.IdleTimeout,
		ReadTimeout:           options.ReadTimeout,
		WriteTimeout:          options.WriteTimeout,
		MaxRequestBodySize:    options.MaxRequestBodySize,
		ReadBufferSize:        options.ReadBufferSize,
		WriteBufferSize:       options.WriteBufferSize,
		Concurrency:           options.Concurrency,
		MaxConnsPerIP:         options.MaxConnsPerIP,
		TCPKeepalive:          true,
		CloseOnShutdown:       true,
		NoDefaultServerHeader: true,
		NoDefaultContentType:  true,
		Logger:                lg,
		ErrorHandler: func(ctx *RequestCtx, err error) {
			logger.Warn("[xhttp] request error", "error", err)
			ctx.Error(StatusText(StatusBadRequest), StatusBadRequest)
		},
	}
}

func NewServer(options ServerOption) *Engine {
	return &Engine{
		Server: newServer(options),
		Router: CreateDefaultRouter(),
	}
}

func CreateServer() *Engine {
	return NewServer(DefaultServerOption)
}

func (e *Engine) ListenAndServe(addr string) error {
	e.DoRouting()
	e.Server.Logger.Printf("[xhttp] server is listening on %s", addr)
	return e.Server.ListenAndServe(addr)
}

// DoRouting installs the router as the handler, wrapped by the middlewares
// in the order they were registered with Use.
func (e *Engine) DoRouting() {
	for method, route := range e.Router.List() {
		for _, r := range route {
			e.Server.Logger.Printf("[xhttp] method: %s, path: %s", method, r)
		}
	}

	handler := e.Router.Handler
	middle := slices.Clone(e.middle)
	slices.Reverse(middle)
	for i, m := range middle {
		handler = m(handler)
		e.Server.Logger.Printf("[xhttp] middleware %d registered - %s", i+1, runtime.FuncForPC(reflect.ValueOf(m).Pointer()).Name())
	}
	e.Server.Handler = handler
}

// Use appends a middleware; the first registered runs outermost.
func (e *Engine) Use(middleware MiddlewareFunc) {
	e.middle = append(e.middle, middleware)
}

func (e *Engine) Shutdown() {
	e.Server.Logger.Printf("[xhttp] server is shutting down")
	if err := e.Server.Shutdown(); err != nil {
		e.Server.Logger.Printf("[xhttp] error while shutting down: %v", err)
	}
}
