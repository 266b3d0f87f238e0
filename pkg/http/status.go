package xhttp

import "github.com/valyala/fasthttp"

const (
	StatusOK                    = fasthttp.StatusOK
	StatusCreated               = fasthttp.StatusCreated
	StatusBadRequest            = fasthttp.StatusBadRequest
	StatusUnauthorized          = fasthttp.StatusUnauthorized
	StatusNotFound              = fasthttp.StatusNotFound
	StatusMethodNotAllowed      = fasthttp.StatusMethodNotAllowed
	StatusConflict              = fasthttp.StatusConflict
	StatusRequestTimeout        = fasthttp.StatusRequestTimeout
	StatusRequestEntityTooLarge = fasthttp.StatusRequestEntityTooLarge
	StatusUnprocessableEntity   = fasthttp.StatusUnprocessableEntity
	StatusInternalServerError   = fasthttp.StatusInternalServerError
	StatusServiceUnavailable    = fasthttp.StatusServiceUnavailable
)

func StatusText(code int) string {
	return fasthttp.StatusMessage(code)
}
