package apiclient_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jualearn/jualearn-web/core"
	"github.com/jualearn/jualearn-web/core/apiclient"
	"github.com/jualearn/jualearn-web/core/session"
	logsvc "github.com/jualearn/jualearn-web/services/logger"
	"github.com/jualearn/jualearn-web/storage/localstore"
)

func testConfig(baseURL string) *core.Config {
	conf := &core.Config{Env: "TEST"}
	conf.API.BaseURL = baseURL
	return conf
}

func newTestClient(t *testing.T, baseURL string) (*apiclient.Client, *session.Manager, *localstore.InMemStore) {
	t.Helper()
	store := localstore.NewInMem()
	mgr := session.NewManager(store)
	client, err := apiclient.NewClient(testConfig(baseURL), mgr, logsvc.NewConsoleLogger(stdlog.New(io.Discard, "", 0)))
	require.NoError(t, err)
	return client, mgr, store
}

func loggedInSession() session.Session {
	return session.Session{
		UserID:       1,
		Username:     "amina",
		Email:        "amina@jualearn.test",
		Role:         session.RoleStudent,
		FirstName:    "Amina",
		AccessToken:  "A1",
		RefreshToken: "R1",
	}
}

// scriptedAPI is a hand-rolled upstream for protocol-level tests: it
// counts hits and lets each test pin the exact 401/refresh behavior.
type scriptedAPI struct {
	mu           sync.Mutex
	subjectHits  int
	refreshHits  int
	refreshBody  func(n int) (int, string) // n = 1-based refresh call number
	acceptTokens map[string]bool
}

func newScriptedAPI() *scriptedAPI {
	return &scriptedAPI{acceptTokens: make(map[string]bool)}
}

func (api *scriptedAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.refreshHits++
		n := api.refreshHits
		api.mu.Unlock()

		status, body := api.refreshBody(n)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
	mux.HandleFunc("GET /subjects/", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.subjectHits++
		ok := api.acceptTokens[r.Header.Get("Authorization")]
		api.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `[{"id":1,"name":"Mathematics","description":""}]`)
	})
	return mux
}

func (api *scriptedAPI) hits() (subjects, refreshes int) {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.subjectHits, api.refreshHits
}

// A request that gets 401 on both attempts issues exactly one refresh call
// and exactly two attempts of the original request, then fails terminally.
func Test_Client_singleRetry(t *testing.T) {
	api := newScriptedAPI()
	api.refreshBody = func(int) (int, string) { return http.StatusOK, `{"access":"A2"}` }
	// no token is ever accepted: the retried attempt fails too
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	client, mgr, store := newTestClient(t, srv.URL)
	require.NoError(t, mgr.Login(loggedInSession()))

	_, err := client.Subjects.List(context.Background())
	assert.True(t, apiclient.IsUnauthenticated(err))

	subjects, refreshes := api.hits()
	assert.Equal(t, 2, subjects, "the original request is attempted exactly twice")
	assert.Equal(t, 1, refreshes, "exactly one refresh call, never a second")

	// terminal: session cleared everywhere
	assert.False(t, mgr.LoggedIn())
	_, err = store.Load()
	assert.Error(t, err)
}

// A 401 followed by a successful refresh is invisible to the caller: the
// request is resent with the new token and its result is what propagates.
func Test_Client_refreshResumesTransparently(t *testing.T) {
	api := newScriptedAPI()
	api.acceptTokens["Bearer A2"] = true
	api.refreshBody = func(int) (int, string) { return http.StatusOK, `{"access":"A2","refresh":"R2"}` }
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	client, mgr, _ := newTestClient(t, srv.URL)
	require.NoError(t, mgr.Login(loggedInSession()))

	subjects, err := client.Subjects.List(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "Mathematics", subjects[0].Name)

	_, refreshes := api.hits()
	assert.Equal(t, 1, refreshes)

	// rotated pair installed, identity untouched
	curr := mgr.Current()
	assert.Equal(t, "A2", curr.AccessToken)
	assert.Equal(t, "R2", curr.RefreshToken)
	assert.Equal(t, "amina", curr.Username)
}

// Without rotation in the refresh response, the old refresh token is kept.
func Test_Client_refreshWithoutRotation(t *testing.T) {
	api := newScriptedAPI()
	api.acceptTokens["Bearer A2"] = true
	api.refreshBody = func(int) (int, string) { return http.StatusOK, `{"access":"A2"}` }
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	client, mgr, _ := newTestClient(t, srv.URL)
	require.NoError(t, mgr.Login(loggedInSession()))

	_, err := client.Subjects.List(context.Background())
	require.NoError(t, err)
	curr := mgr.Current()
	assert.Equal(t, "A2", curr.AccessToken)
	assert.Equal(t, "R1", curr.RefreshToken)
}

// A rejected refresh clears the session completely and the caller's call
// fails, so in-flight UI code can stop waiting.
func Test_Client_terminalCleanupOnRefreshFailure(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized} {
		t.Run(fmt.Sprintf("refresh status %d", status), func(t *testing.T) {
			api := newScriptedAPI()
			api.refreshBody = func(int) (int, string) { return status, `{"detail":"token is invalid or expired"}` }
			srv := httptest.NewServer(api.handler())
			defer srv.Close()

			client, mgr, store := newTestClient(t, srv.URL)
			require.NoError(t, mgr.Login(loggedInSession()))

			var hookCalls int
			mgr.SetLogoutHook(func() { hookCalls++ })

			_, err := client.Subjects.List(context.Background())
			assert.True(t, apiclient.IsUnauthenticated(err))
			assert.False(t, mgr.LoggedIn())
			assert.Equal(t, 1, hookCalls, "cleanup happens exactly once")

			_, err = store.Load()
			assert.Error(t, err, "no session residue in the store")
		})
	}
}

// A 401 with no refresh token at hand is immediately terminal; the refresh
// endpoint is never consulted.
func Test_Client_noRefreshTokenIsTerminal(t *testing.T) {
	api := newScriptedAPI()
	api.refreshBody = func(int) (int, string) { return http.StatusOK, `{"access":"A2"}` }
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	client, _, _ := newTestClient(t, srv.URL) // never logged in

	_, err := client.Subjects.List(context.Background())
	assert.True(t, apiclient.IsUnauthenticated(err))

	subjects, refreshes := api.hits()
	assert.Equal(t, 1, subjects)
	assert.Equal(t, 0, refreshes)
}

// Non-auth errors propagate verbatim with status and body.
func Test_Client_serverErrorsPropagate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"name":"subject with this name already exists"}`)
	}))
	defer srv.Close()

	client, mgr, _ := newTestClient(t, srv.URL)
	require.NoError(t, mgr.Login(loggedInSession()))

	_, err := client.Subjects.Create(context.Background(), apiclient.Subject{Name: "Mathematics"})
	apiErr, ok := apiclient.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, string(apiErr.Body), "already exists")
	assert.True(t, mgr.LoggedIn(), "business errors never touch the session")
}

// Two concurrent calls that both hit an expired token each run their own
// refresh; whichever response resolves last wins in the store. This is the
// documented non-deterministic outcome, not a crash.
func Test_Client_concurrentExpiryLastWriteWins(t *testing.T) {
	api := newScriptedAPI()
	api.acceptTokens["Bearer A2"] = true
	api.acceptTokens["Bearer A3"] = true
	api.refreshBody = func(n int) (int, string) {
		return http.StatusOK, fmt.Sprintf(`{"access":"A%d"}`, n+1)
	}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	client, mgr, store := newTestClient(t, srv.URL)
	require.NoError(t, mgr.Login(loggedInSession()))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Subjects.List(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	_, refreshes := api.hits()
	assert.LessOrEqual(t, refreshes, 2, "one refresh per failing request, no more")
	final := mgr.Current().AccessToken
	assert.Contains(t, []string{"A2", "A3"}, final)

	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, final, persisted.AccessToken, "store mirrors the in-memory winner")
}

// The network-first GET cache serves the last good response when the
// upstream becomes unreachable; writes never fall back.
func Test_Client_offlineFallback(t *testing.T) {
	api := newScriptedAPI()
	api.acceptTokens["Bearer A1"] = true
	srv := httptest.NewServer(api.handler())

	client, mgr, _ := newTestClient(t, srv.URL)
	require.NoError(t, mgr.Login(loggedInSession()))

	subjects, err := client.Subjects.List(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 1)

	srv.Close() // network goes away

	stale, err := client.Subjects.List(context.Background())
	require.NoError(t, err, "reads are served stale")
	assert.Equal(t, subjects, stale)

	_, err = client.Subjects.Create(context.Background(), apiclient.Subject{Name: "Chemistry"})
	assert.True(t, apiclient.IsNetworkError(err), "writes surface the transport failure")
}

func Test_Client_networkFailureWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // immediately unreachable

	client, mgr, _ := newTestClient(t, srv.URL)
	require.NoError(t, mgr.Login(loggedInSession()))

	_, err := client.Subjects.List(context.Background())
	assert.True(t, apiclient.IsNetworkError(err))
	assert.True(t, mgr.LoggedIn(), "transport failures are not terminal")
}

func Test_Client_decodesWireShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer A1", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/assignments/":
			_ = json.NewEncoder(w).Encode([]apiclient.Assignment{{
				ID:      3,
				Title:   "Essay on devolution",
				Subject: &apiclient.Subject{ID: 1, Name: "History"},
			}})
		case "/search/":
			assert.Equal(t, "algebra", r.URL.Query().Get("q"))
			_ = json.NewEncoder(w).Encode(apiclient.SearchResult{
				Subjects: []apiclient.Subject{{ID: 1, Name: "Mathematics"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, mgr, _ := newTestClient(t, srv.URL)
	require.NoError(t, mgr.Login(loggedInSession()))

	assignments, err := client.Assignments.List(context.Background())
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "Essay on devolution", assignments[0].Title)
	require.NotNil(t, assignments[0].Subject)
	assert.Equal(t, "History", assignments[0].Subject.Name)

	res, err := client.Search(context.Background(), "algebra")
	require.NoError(t, err)
	require.Len(t, res.Subjects, 1)
}
