package xhttp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(func(ctx *RequestCtx) {
		seen = string(ctx.Request.Header.Peek(HeaderRequestID))
	})

	t.Run("generates an id", func(t *testing.T) {
		ctx := &fasthttp.RequestCtx{}
		h(ctx)
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, string(ctx.Response.Header.Peek(HeaderRequestID)))
	})

	t.Run("keeps the caller id", func(t *testing.T) {
		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.Set(HeaderRequestID, "abc")
		h(ctx)
		assert.Equal(t, "abc", seen)
		assert.Equal(t, "abc", string(ctx.Response.Header.Peek(HeaderRequestID)))
	})
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(ctx *RequestCtx) {
		panic("boom")
	})

	ctx := &fasthttp.RequestCtx{}
	assert.NotPanics(t, func() { h(ctx) })
	assert.Equal(t, StatusInternalServerError, ctx.Response.StatusCode())
}

func TestEngine_MiddlewareOrder(t *testing.T) {
	e := CreateServer()
	var order []string
	mark := func(name string) MiddlewareFunc {
		return func(next RequestHandler) RequestHandler {
			return func(ctx *RequestCtx) {
				order = append(order, name)
				next(ctx)
			}
		}
	}
	e.Use(mark("first"))
	e.Use(mark("second"))
	e.GET("/ping", func(ctx *RequestCtx) {
		order = append(order, "handler")
	})
	e.DoRouting()

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod("GET")
	ctx.Request.SetRequestURI("/ping")
	e.Server.Handler(ctx)

	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestNotFoundHandler(t *testing.T) {
	e := CreateServer()
	e.DoRouting()

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod("GET")
	ctx.Request.SetRequestURI("/missing")
	e.Server.Handler(ctx)

	assert.Equal(t, StatusNotFound, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Header.ContentType()), "application/json")
}

func TestMethodNotAllowedHandler(t *testing.T) {
	e := CreateServer()
	e.GET("/ping", func(ctx *RequestCtx) {})
	e.DoRouting()

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod("POST")
	ctx.Request.SetRequestURI("/ping")
	e.Server.Handler(ctx)

	assert.Equal(t, StatusMethodNotAllowed, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error":"Method Not Allowed"}`, string(ctx.Response.Body()))
}
