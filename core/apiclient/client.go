// Package apiclient is the authenticated HTTP client for the remote
// JuaLearn REST API. Every outbound call passes through it: it attaches
// the current access token as a bearer credential and, on an authorization
// failure, performs a one-shot refresh-and-retry before giving up. Callers
// never see a recoverable authorization failure; only terminal ones
// propagate, as ErrUnauthenticated, after the session has been cleared.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/jualearn/jualearn-web/core"
	"github.com/jualearn/jualearn-web/core/session"
)

const refreshPath = "token/refresh/"

type (
	Client struct {
		base     *url.URL
		http     *http.Client
		sessions *session.Manager
		log      core.Logger
		cache    *offlineCache

		Subjects      *SubjectsService
		Lessons       *LessonsService
		Assignments   *AssignmentsService
		Quizzes       *QuizzesService
		QuizQuestions *QuizQuestionsService
		QuizChoices   *QuizChoicesService
		Enrollments   *EnrollmentsService
		Notifications *NotificationsService
		Users         *UsersService
	}

	// request is an immutable descriptor of one outbound call; the raw
	// body bytes allow a faithful resend after a refresh.
	request struct {
		method string
		path   string
		body   []byte

		// overrideToken bypasses the session token for this call only
		// (used to complete identity right after login).
		overrideToken string

		// anonymous suppresses the bearer header entirely
		// (login, register, refresh).
		anonymous bool
	}

	// attempt threads the retry state through the call chain explicitly.
	attempt int
)

const (
	attemptFirst attempt = iota
	attemptRetried
)

func NewClient(conf *core.Config, sessions *session.Manager, log core.Logger) (*Client, error) {
	base, err := url.Parse(conf.API.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing API base URL %q", conf.API.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	c := &Client{
		base:     base,
		http:     &http.Client{Timeout: conf.API.Timeout},
		sessions: sessions,
		log:      log,
		cache:    newOfflineCache(),
	}
	c.Subjects = &SubjectsService{c}
	c.Lessons = &LessonsService{c}
	c.Assignments = &AssignmentsService{c}
	c.Quizzes = &QuizzesService{c}
	c.QuizQuestions = &QuizQuestionsService{c}
	c.QuizChoices = &QuizChoicesService{c}
	c.Enrollments = &EnrollmentsService{c}
	c.Notifications = &NotificationsService{c}
	c.Users = &UsersService{c}
	return c, nil
}

// Sessions exposes the session manager this client writes through.
func (c *Client) Sessions() *session.Manager { return c.sessions }

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, request{method: http.MethodGet, path: path}, out)
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "encoding request body")
	}
	return c.do(ctx, request{method: http.MethodPost, path: path, body: body}, out)
}

func (c *Client) put(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "encoding request body")
	}
	return c.do(ctx, request{method: http.MethodPut, path: path, body: body}, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: path}, nil)
}

// do runs the request lifecycle: attach token, send, and on a 401 perform
// the one-shot refresh-and-retry. Successful GET responses feed the
// offline cache; a transport failure on a GET falls back to it.
func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	status, body, err := c.send(ctx, req, attemptFirst)
	if err != nil {
		if IsNetworkError(err) && req.method == http.MethodGet {
			if stale, ok := c.cache.lookup(req.path); ok {
				c.log.Warn("apiclient: network failure, serving cached response", req.path)
				return decode(stale, out)
			}
		}
		return err
	}

	switch {
	case status >= 200 && status < 300:
		if req.method == http.MethodGet {
			c.cache.store(req.path, body)
		}
		return decode(body, out)
	default:
		// non-auth errors propagate verbatim; this layer does not
		// interpret business errors
		return &APIError{StatusCode: status, Body: body}
	}
}

// send transmits the request once per attempt. On a 401 during the first
// attempt it marks the request retried, exchanges the refresh token for a
// new access token, and resends; a 401 on the retried attempt, or any
// refresh failure, is terminal: the session is cleared and
// ErrUnauthenticated propagates so in-flight callers can stop waiting.
func (c *Client) send(ctx context.Context, req request, att attempt) (int, []byte, error) {
	status, body, err := c.transmit(ctx, req)
	if err != nil {
		return 0, nil, err
	}

	if status != http.StatusUnauthorized {
		return status, body, nil
	}
	if att == attemptRetried {
		// second 401 after a refresh: retry exhausted
		return 0, nil, c.terminate(errors.Wrap(ErrUnauthenticated, "authorization retry exhausted"))
	}

	if err := c.refresh(ctx); err != nil {
		return 0, nil, err
	}
	return c.send(ctx, req, attemptRetried)
}

// transmit performs one HTTP round trip with no auth-failure handling.
func (c *Client) transmit(ctx context.Context, req request) (int, []byte, error) {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return 0, nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, nil, &NetworkError{Err: err}
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return 0, nil, &NetworkError{Err: err}
	}
	return resp.StatusCode, body, nil
}

// refresh exchanges the current refresh token for a new access token and
// installs the result via Session.UpdateTokens. Concurrent expiries are
// not coalesced: each failing request refreshes independently and the last
// response to resolve wins in the store, matching the observed behavior.
func (c *Client) refresh(ctx context.Context) error {
	refreshTok := c.sessions.Current().RefreshToken
	if refreshTok == "" {
		return c.terminate(errors.Wrap(ErrUnauthenticated, "no refresh token"))
	}

	body, err := json.Marshal(refreshRequest{Refresh: refreshTok})
	if err != nil {
		return errors.Wrap(err, "encoding refresh request")
	}
	// the refresh call authenticates by payload, not by bearer header
	status, respBody, err := c.transmit(ctx, request{method: http.MethodPost, path: refreshPath, body: body, anonymous: true})
	if err != nil {
		// any refresh failure is terminal, transport failures included
		return c.terminate(errors.Wrap(ErrUnauthenticated, err.Error()))
	}
	if status != http.StatusOK {
		// refresh token expired/invalid
		return c.terminate(errors.Wrapf(ErrUnauthenticated, "refresh rejected with status %d", status))
	}

	var tokens refreshResponse
	if err := json.Unmarshal(respBody, &tokens); err != nil || tokens.Access == "" {
		return c.terminate(errors.Wrap(ErrUnauthenticated, "unusable refresh response"))
	}
	if err := c.sessions.UpdateTokens(tokens.Access, tokens.Refresh); err != nil {
		return errors.Wrap(err, "installing refreshed tokens")
	}
	return nil
}

// terminate clears the session (idempotent; the logout hook handles the
// redirect exactly once per failure chain) and returns the terminal error.
func (c *Client) terminate(err error) error {
	c.sessions.Logout()
	return err
}

func (c *Client) build(ctx context.Context, req request) (*http.Request, error) {
	u, err := c.base.Parse(strings.TrimPrefix(req.path, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "resolving path %q", req.path)
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	// attach the current access token if present; some endpoints
	// (login, register, refresh) are called unauthenticated
	if !req.anonymous {
		tok := req.overrideToken
		if tok == "" {
			tok = c.sessions.Current().AccessToken
		}
		if tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return httpReq, nil
}

func decode(body []byte, out interface{}) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = body
		return nil
	}
	return errors.Wrap(json.Unmarshal(body, out), "decoding response body")
}
