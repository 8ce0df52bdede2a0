package web

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jualearn/jualearn-web/core"
	"github.com/jualearn/jualearn-web/core/apiclient"
	"github.com/jualearn/jualearn-web/core/session"
)

// home routes a visitor to their role dashboard, or to login.
func (s *server) home(ctx echo.Context) error {
	sess := getBrowserSession(ctx).Manager.Current()
	return ctx.Redirect(http.StatusSeeOther, dashboardPath(sess))
}

func dashboardPath(sess session.Session) string {
	switch {
	case sess.IsStudent():
		return "/student"
	case sess.IsTeacher():
		return "/teacher"
	case sess.IsAdmin():
		return "/admin"
	default:
		return "/login"
	}
}

func (s *server) loginPage(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	if sess := bs.Manager.Current(); sess.Valid() {
		return ctx.Redirect(http.StatusSeeOther, dashboardPath(sess))
	}
	return ctx.Render(http.StatusOK, "login", s.page(ctx, "Log in", nil))
}

func (s *server) login(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	creds := apiclient.LoginRequest{
		Username: ctx.FormValue("username"),
		Password: ctx.FormValue("password"),
	}
	if err := creds.Validate(s.opts.Validate); err != nil {
		return ctx.Render(http.StatusBadRequest, "login",
			s.page(ctx, "Log in", nil, withFields(s.fieldErrors(err))))
	}

	sess, err := bs.Client.Login(ctx.Request().Context(), creds)
	if err != nil {
		if apiErr, ok := apiclient.AsAPIError(err); ok && apiErr.StatusCode == http.StatusUnauthorized {
			return ctx.Render(http.StatusUnauthorized, "login",
				s.page(ctx, "Log in", nil, withError("Invalid username or password.")))
		}
		return errors.Wrap(err, "logging in")
	}
	return ctx.Redirect(http.StatusSeeOther, dashboardPath(sess))
}

func (s *server) registerPage(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, "register", s.page(ctx, "Register", nil))
}

func (s *server) register(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	reg := apiclient.RegisterRequest{
		Role:            ctx.FormValue("role"),
		Username:        ctx.FormValue("username"),
		Email:           ctx.FormValue("email"),
		Password:        ctx.FormValue("password"),
		PasswordConfirm: ctx.FormValue("password_confirm"),
		FirstName:       ctx.FormValue("first_name"),
		LastName:        ctx.FormValue("last_name"),
	}
	if err := reg.Validate(s.opts.Validate); err != nil {
		return ctx.Render(http.StatusBadRequest, "register",
			s.page(ctx, "Register", nil, withFields(s.fieldErrors(err))))
	}

	var err error
	if reg.Role == string(session.RoleTeacher) {
		err = bs.Client.RegisterTeacher(ctx.Request().Context(), reg)
	} else {
		err = bs.Client.RegisterStudent(ctx.Request().Context(), reg)
	}
	if err != nil {
		if apiErr, ok := apiclient.AsAPIError(err); ok && apiErr.StatusCode == http.StatusBadRequest {
			fields := make(map[string]string)
			for _, fld := range apiclient.ValidationMessages(apiErr) {
				fields[fld.Field] = fld.Error
			}
			return ctx.Render(http.StatusBadRequest, "register",
				s.page(ctx, "Register", nil, withFields(fields)))
		}
		return errors.Wrap(err, "registering")
	}
	return ctx.Redirect(http.StatusSeeOther, "/login")
}

func (s *server) logout(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	bs.Client.Logout()
	s.registry.Revoke(bs.ID)
	return ctx.Redirect(http.StatusSeeOther, "/login")
}

// toggleTheme flips the persisted light/dark preference.
func (s *server) toggleTheme(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	theme := "light"
	if bs.Theme(s.opts.Conf.DefaultTheme) == "light" {
		theme = "dark"
	}
	if err := bs.Store.SaveTheme(theme); err != nil {
		return errors.Wrap(err, "saving theme")
	}
	ref := ctx.Request().Referer()
	if ref == "" {
		ref = "/"
	}
	return ctx.Redirect(http.StatusSeeOther, ref)
}

// fieldErrors translates validator errors into per-field messages.
func (s *server) fieldErrors(err error) map[string]string {
	fields := make(map[string]string)
	var vErrs validator.ValidationErrors
	var valErr *core.ValidationError
	switch {
	case errors.As(err, &vErrs):
		for _, vErr := range vErrs {
			fields[vErr.Field()] = vErr.Translate(s.opts.Translator)
		}
	case errors.As(err, &valErr):
		for _, fld := range valErr.Fields {
			fields[fld.Field] = fld.Error
		}
	default:
		fields[""] = err.Error()
	}
	return fields
}
