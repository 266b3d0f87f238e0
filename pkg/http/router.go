package xhttp

import (
	"github.com/fasthttp/router"
)

type Router = router.Router

// CreateDefaultRouter returns a router that answers unknown routes and wrong
// methods with a JSON error body, matching the API handlers.
func CreateDefaultRouter() *Router {
	r := router.New()
	r.RedirectFixedPath = true
	r.RedirectTrailingSlash = true
	r.SaveMatchedRoutePath = true
	r.HandleOPTIONS = false
	r.HandleMethodNotAllowed = true
	r.NotFound = NotFoundHandler
	r.MethodNotAllowed = MethodNotAllowedHandler
	return r
}

func NotFoundHandler(ctx *RequestCtx) {
	jsonError(ctx, StatusNotFound)
}

func MethodNotAllowedHandler(ctx *RequestCtx) {
	jsonError(ctx, StatusMethodNotAllowed)
}

func jsonError(ctx *RequestCtx, status int) {
	ctx.Response.Header.SetContentType("application/json; charset=utf-8")
	ctx.SetStatusCode(status)
	ctx.SetBodyString(`{"error":"` + StatusText(status) + `"}`)
}
