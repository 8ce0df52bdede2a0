package web

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jualearn/jualearn-web/core/session"
)

const contextSessionKey = "browserSession"

// browserSessionMiddleware resolves the browser session from the cookie,
// creating one (and setting the cookie) when absent or expired.
func (s *server) browserSessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var bs *browserSession
		if cookie, err := ctx.Cookie(s.opts.Conf.Session.CookieName); err == nil {
			bs, _ = s.registry.Lookup(cookie.Value)
		}
		if bs == nil {
			var err error
			if bs, err = s.registry.Register(); err != nil {
				return err
			}
			ctx.SetCookie(&http.Cookie{
				Name:     s.opts.Conf.Session.CookieName,
				Value:    bs.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx.Set(contextSessionKey, bs)
		return next(ctx)
	}
}

func getBrowserSession(ctx echo.Context) *browserSession {
	return ctx.Get(contextSessionKey).(*browserSession)
}

// roleGuard gates a route subtree on the session role. The predicate
// itself is pure (session.Allowed); deny becomes a redirect to the login
// entry point rather than a silent block. It is evaluated on every
// request, so a mid-session logout is reflected immediately.
func roleGuard(roles ...session.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess := getBrowserSession(ctx).Manager.Current()
			if !session.Allowed(sess, roles...) {
				return ctx.Redirect(http.StatusSeeOther, "/login")
			}
			return next(ctx)
		}
	}
}
