// Package fakeapi is an in-process stand-in for the remote JuaLearn REST
// API, used in development and by client tests. It issues real short-lived
// HS256 token pairs so the refresh-and-retry flow can be exercised end to
// end without the hosted backend.
package fakeapi

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jualearn/jualearn-web/core/apiclient"
	"github.com/jualearn/jualearn-web/core/session"
)

type Options struct {
	SecretKey     []byte
	AccessTTL     time.Duration // default 10m
	RefreshTTL    time.Duration // default 4h
	RotateRefresh bool          // also rotate the refresh token on refresh

	Now func() time.Time // mockable
}

type Server struct {
	app  *echo.Echo
	opts Options

	mu            sync.Mutex
	users         []account
	subjects      []apiclient.Subject
	lessons       []apiclient.Lesson
	assignments   []apiclient.Assignment
	quizzes       []apiclient.Quiz
	questions     []apiclient.QuizQuestion
	choices       []apiclient.QuizChoice
	enrollments   []apiclient.Enrollment
	notifications []apiclient.Notification
	nextID        int

	refreshCalls int
	hits         map[string]int
}

type account struct {
	apiclient.User
	PasswordHash []byte
}

type claims struct {
	jwt.StandardClaims
	TokenType string `json:"token_type"`
	Role      string `json:"role,omitempty"`
}

func NewServer(opts Options) *Server {
	if len(opts.SecretKey) == 0 {
		opts.SecretKey = []byte("fakeapi-secret")
	}
	if opts.AccessTTL == 0 {
		opts.AccessTTL = 10 * time.Minute
	}
	if opts.RefreshTTL == 0 {
		opts.RefreshTTL = 4 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		app:    echo.New(),
		opts:   opts,
		nextID: 1,
		hits:   make(map[string]int),
	}
	s.app.HideBanner = true
	s.app.Use(s.countHits)
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

// RefreshCalls reports how many times the refresh endpoint was hit.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// Hits reports how many requests reached the given method+path.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

func (s *Server) countHits(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		s.mu.Lock()
		s.hits[ctx.Request().Method+" "+ctx.Request().URL.Path]++
		s.mu.Unlock()
		return next(ctx)
	}
}

func (s *Server) routes() {
	s.app.POST("/token/", s.obtainTokens)
	s.app.POST("/token/refresh/", s.refreshTokens)
	s.app.POST("/register/student/", s.register(session.RoleStudent))
	s.app.POST("/register/teacher/", s.register(session.RoleTeacher))

	auth := s.app.Group("", s.requireAccessToken)
	auth.GET("/users/me/", s.profile)
	auth.PUT("/users/me/", s.updateProfile)
	auth.GET("/users/", s.listUsers)
	auth.GET("/users/:id/", s.getUser)
	auth.DELETE("/users/:id/", s.deleteUser)
	auth.GET("/search/", s.search)

	registerCollection(auth, "/subjects", s, &s.subjects)
	registerCollection(auth, "/lessons", s, &s.lessons)
	registerCollection(auth, "/assignments", s, &s.assignments)
	registerCollection(auth, "/quizzes", s, &s.quizzes)
	registerCollection(auth, "/quiz-questions", s, &s.questions)
	registerCollection(auth, "/quiz-choices", s, &s.choices)
	registerCollection(auth, "/enrollments", s, &s.enrollments)
	registerCollection(auth, "/notifications", s, &s.notifications)
}

// Auth

func (s *Server) obtainTokens(ctx echo.Context) error {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := ctx.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed credentials")
	}

	acct, ok := s.findUser(creds.Username)
	if !ok || acct.checkPassword(creds.Password) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no active account found with the given credentials")
	}

	access, refresh, err := s.mintPair(acct)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"access":    access,
		"refresh":   refresh,
		"role":      acct.Role,
		"firstName": acct.FirstName,
		"lastName":  acct.LastName,
	})
}

func (s *Server) refreshTokens(ctx echo.Context) error {
	s.mu.Lock()
	s.refreshCalls++
	s.mu.Unlock()

	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := ctx.Bind(&body); err != nil || body.Refresh == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh is required")
	}

	clms, err := s.parseToken(body.Refresh, "refresh")
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "token is invalid or expired")
	}
	acct, ok := s.findUser(clms.Subject)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "token is invalid or expired")
	}

	access, err := s.mint(acct, "access", s.opts.AccessTTL)
	if err != nil {
		return err
	}
	resp := echo.Map{"access": access}
	if s.opts.RotateRefresh {
		refresh, err := s.mint(acct, "refresh", s.opts.RefreshTTL)
		if err != nil {
			return err
		}
		resp["refresh"] = refresh
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (s *Server) register(role session.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var reg struct {
			Username  string `json:"username"`
			Email     string `json:"email"`
			Password  string `json:"password"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		}
		if err := ctx.Bind(&reg); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed registration")
		}
		if reg.Username == "" || reg.Password == "" {
			return ctx.JSON(http.StatusBadRequest, echo.Map{"username": "this field is required"})
		}
		if _, exists := s.findUser(reg.Username); exists {
			return ctx.JSON(http.StatusBadRequest, echo.Map{"username": "a user with that username already exists"})
		}

		usr, err := s.AddUser(apiclient.User{
			Username:  reg.Username,
			Email:     reg.Email,
			Role:      string(role),
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
		}, reg.Password)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusCreated, usr)
	}
}

func (s *Server) requireAccessToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		header := ctx.Request().Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
		}
		clms, err := s.parseToken(strings.TrimPrefix(header, "Bearer "), "access")
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "token is invalid or expired")
		}
		ctx.Set("username", clms.Subject)
		ctx.Set("role", clms.Role)
		return next(ctx)
	}
}

func (s *Server) mintPair(acct account) (access, refresh string, err error) {
	if access, err = s.mint(acct, "access", s.opts.AccessTTL); err != nil {
		return "", "", err
	}
	if refresh, err = s.mint(acct, "refresh", s.opts.RefreshTTL); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *Server) mint(acct account, tokenType string, ttl time.Duration) (string, error) {
	now := s.opts.Now()
	clms := &claims{
		StandardClaims: jwt.StandardClaims{
			// a unique jti keeps tokens minted within the same second distinct
			Id:        uuid.NewString(),
			Issuer:    "JuaLearn",
			Subject:   acct.Username,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
		TokenType: tokenType,
		Role:      acct.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, clms).SignedString(s.opts.SecretKey)
}

func (s *Server) parseToken(token, wantType string) (*claims, error) {
	clms := new(claims)
	parsed, err := jwt.ParseWithClaims(token, clms, func(*jwt.Token) (interface{}, error) {
		return s.opts.SecretKey, nil
	})
	if err != nil || !parsed.Valid || clms.TokenType != wantType {
		return nil, echo.ErrUnauthorized
	}
	if s.opts.Now().Unix() > clms.ExpiresAt {
		return nil, echo.ErrUnauthorized
	}
	return clms, nil
}

// Users

func (s *Server) profile(ctx echo.Context) error {
	acct, ok := s.findUser(ctx.Get("username").(string))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return ctx.JSON(http.StatusOK, acct.User)
}

func (s *Server) updateProfile(ctx echo.Context) error {
	var upd apiclient.User
	if err := ctx.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed profile")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	uname := ctx.Get("username").(string)
	for i := range s.users {
		if s.users[i].Username == uname {
			if upd.Email != "" {
				s.users[i].Email = upd.Email
			}
			if upd.FirstName != "" {
				s.users[i].FirstName = upd.FirstName
			}
			if upd.LastName != "" {
				s.users[i].LastName = upd.LastName
			}
			if upd.ProfilePicture != "" {
				s.users[i].ProfilePicture = upd.ProfilePicture
			}
			return ctx.JSON(http.StatusOK, s.users[i].User)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "not found")
}

func (s *Server) listUsers(ctx echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]apiclient.User, 0, len(s.users))
	for _, acct := range s.users {
		users = append(users, acct.User)
	}
	return ctx.JSON(http.StatusOK, users)
}

func (s *Server) getUser(ctx echo.Context) error {
	id, _ := strconv.Atoi(ctx.Param("id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.users {
		if acct.ID == id {
			return ctx.JSON(http.StatusOK, acct.User)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "not found")
}

func (s *Server) deleteUser(ctx echo.Context) error {
	if ctx.Get("role") != string(session.RoleAdmin) {
		return echo.NewHTTPError(http.StatusForbidden, "permission denied")
	}
	id, _ := strconv.Atoi(ctx.Param("id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return ctx.NoContent(http.StatusNoContent)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "not found")
}

func (s *Server) search(ctx echo.Context) error {
	q := strings.ToLower(ctx.QueryParam("q"))

	s.mu.Lock()
	defer s.mu.Unlock()
	res := apiclient.SearchResult{
		Subjects: []apiclient.Subject{},
		Lessons:  []apiclient.Lesson{},
		Quizzes:  []apiclient.Quiz{},
	}
	for _, sub := range s.subjects {
		if strings.Contains(strings.ToLower(sub.Name), q) {
			res.Subjects = append(res.Subjects, sub)
		}
	}
	for _, les := range s.lessons {
		if strings.Contains(strings.ToLower(les.Title), q) {
			res.Lessons = append(res.Lessons, les)
		}
	}
	for _, quiz := range s.quizzes {
		if strings.Contains(strings.ToLower(quiz.Title), q) {
			res.Quizzes = append(res.Quizzes, quiz)
		}
	}
	return ctx.JSON(http.StatusOK, res)
}
