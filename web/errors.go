package web

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jualearn/jualearn-web/core"
	"github.com/jualearn/jualearn-web/core/apiclient"
)

// httpErrorHandler maps client-layer failures to user-visible behavior:
// a terminal session failure redirects to the login entry point (the
// session is already cleared by then), a transport failure renders the
// offline-style error page, and anything else gets a plain error page.
func (s *server) httpErrorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	switch {
	case apiclient.IsUnauthenticated(err):
		_ = ctx.Redirect(http.StatusSeeOther, "/login")
		return
	case apiclient.IsNetworkError(err):
		s.opts.Logger.Warn("upstream API unreachable", err)
		_ = ctx.Render(http.StatusServiceUnavailable, "error", s.page(ctx, "Offline", nil, withError(
			"JuaLearn can't reach the server right now. Check your connection and try again.")))
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	if httpErr, ok := err.(*echo.HTTPError); ok {
		code = httpErr.Code
		if m, ok := httpErr.Message.(string); ok {
			msg = m
		}
	}
	if apiErr, ok := apiclient.AsAPIError(err); ok {
		code = apiErr.StatusCode
		msg = "The server rejected the request."
	}
	if code >= http.StatusInternalServerError {
		if bs, ok := ctx.Get(contextSessionKey).(*browserSession); ok {
			s.opts.Logger.Error("request failed", err, bs.Manager.Current())
		} else {
			s.opts.Logger.Error("request failed", err)
		}
		// shutting down...
		if core.IsShutdown(err) {
			s.signalShutdown()
		}
	}
	if s.opts.Conf.Debug {
		msg = err.Error()
	}
	_ = ctx.Render(code, "error", s.page(ctx, "Error", nil, withError(msg)))
}
