// Package web is the JuaLearn front-end: an echo server rendering
// role-scoped dashboards as a thin client over the remote REST API.
// Each browser gets its own session manager and authenticated client;
// all session correctness lives in core/session and core/apiclient.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/jualearn/jualearn-web/core"
	"github.com/jualearn/jualearn-web/core/session"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		registry *registry

		// closed by the error handler on an integrity error
		shutdown     chan struct{}
		shutdownOnce sync.Once
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) (Server, error) {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		registry: newRegistry(opts.Conf, opts.Logger),
		shutdown: make(chan struct{}),
	}
	if err := s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *server) setup() error {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.IsTest()) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	rdr, err := newRenderer()
	if err != nil {
		return err
	}
	s.app.Renderer = rdr
	s.app.HTTPErrorHandler = s.httpErrorHandler
	s.app.Debug = conf.Debug

	s.app.Use(s.browserSessionMiddleware)
	s.app.Static("/static", "web/static")

	// unauthenticated entry points
	s.app.GET("/", s.home)
	s.app.GET("/login", s.loginPage)
	s.app.POST("/login", s.login)
	s.app.GET("/register", s.registerPage)
	s.app.POST("/register", s.register)
	s.app.POST("/logout", s.logout)
	s.app.POST("/theme", s.toggleTheme)

	// authenticated pages; the role guard runs on every request
	st := s.app.Group("/student", roleGuard(session.RoleStudent))
	st.GET("", s.dashboard)
	st.GET("/subjects", s.subjects)
	st.GET("/assignments", s.assignments)
	st.GET("/quizzes", s.quizzes)
	st.GET("/enrollments", s.enrollments)
	st.POST("/enrollments", s.enroll)

	tc := s.app.Group("/teacher", roleGuard(session.RoleTeacher))
	tc.GET("", s.dashboard)
	tc.GET("/subjects", s.subjects)
	tc.POST("/subjects", s.createSubject)
	tc.GET("/lessons", s.lessons)
	tc.POST("/lessons", s.createLesson)
	tc.GET("/assignments", s.assignments)
	tc.POST("/assignments", s.createAssignment)
	tc.GET("/quizzes", s.quizzes)
	tc.POST("/quizzes", s.createQuiz)

	ad := s.app.Group("/admin", roleGuard(session.RoleAdmin))
	ad.GET("", s.dashboard)
	ad.GET("/users", s.users)
	ad.POST("/users/:id/delete", s.deleteUser)
	ad.GET("/subjects", s.subjects)
	ad.POST("/subjects", s.createSubject)
	ad.GET("/lessons", s.lessons)
	ad.POST("/lessons", s.createLesson)

	// any authenticated role
	au := s.app.Group("", roleGuard())
	au.GET("/search", s.search)
	au.GET("/profile", s.profile)
	au.POST("/profile", s.updateProfile)
	au.GET("/notifications", s.notifications)
	au.POST("/notifications/:id/read", s.readNotification)

	return nil
}

func (s *server) Start() error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.app.Start(s.opts.Conf.Server.Address) }()

	select {
	case err := <-errCh:
		return err
	case <-s.shutdown:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.app.Shutdown(ctx)
	}
}

// signalShutdown is called when a handler surfaces an integrity error;
// the server stops serving rather than limping along.
func (s *server) signalShutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdown) })
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// page assembles the template envelope for the current browser session.
func (s *server) page(ctx echo.Context, title string, data interface{}, opts ...func(*pageData)) pageData {
	pd := pageData{
		Title: title,
		Theme: s.opts.Conf.DefaultTheme,
		Data:  data,
	}
	if bs, ok := ctx.Get(contextSessionKey).(*browserSession); ok {
		pd.Session = bs.Manager.Current()
		pd.Theme = bs.Theme(s.opts.Conf.DefaultTheme)
	}
	for _, opt := range opts {
		opt(&pd)
	}
	return pd
}

func withError(msg string) func(*pageData) {
	return func(pd *pageData) { pd.Error = msg }
}

func withFields(fields map[string]string) func(*pageData) {
	return func(pd *pageData) { pd.Fields = fields }
}
