package apiclient_test

import (
	"context"
	"io"
	stdlog "log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jualearn/jualearn-web/core"
	"github.com/jualearn/jualearn-web/core/apiclient"
	"github.com/jualearn/jualearn-web/core/session"
	"github.com/jualearn/jualearn-web/services/fakeapi"
	logsvc "github.com/jualearn/jualearn-web/services/logger"
	"github.com/jualearn/jualearn-web/storage/localstore"
)

// newFakeAPI runs a seeded stub upstream and returns a client wired to it.
func newFakeAPI(t *testing.T, opts fakeapi.Options) (*fakeapi.Server, *apiclient.Client, *session.Manager) {
	t.Helper()
	api := fakeapi.NewServer(opts)
	require.NoError(t, api.SeedDefaults())
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	mgr := session.NewManager(localstore.NewInMem())
	client, err := apiclient.NewClient(testConfig(srv.URL), mgr, logsvc.NewConsoleLogger(stdlog.New(io.Discard, "", 0)))
	require.NoError(t, err)
	return api, client, mgr
}

func Test_Client_login(t *testing.T) {
	_, client, mgr := newFakeAPI(t, fakeapi.Options{})
	ctx := context.Background()

	t.Run("bad credentials are not terminal", func(t *testing.T) {
		_, err := client.Login(ctx, apiclient.LoginRequest{Username: "kamau", Password: "nope"})
		apiErr, ok := apiclient.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.False(t, apiclient.IsUnauthenticated(err))
		assert.False(t, mgr.LoggedIn())
	})

	t.Run("successful login installs a complete session", func(t *testing.T) {
		sess, err := client.Login(ctx, apiclient.LoginRequest{Username: "kamau", Password: "teacherpass"})
		require.NoError(t, err)
		assert.Equal(t, session.RoleTeacher, sess.Role)
		assert.NotEmpty(t, sess.AccessToken)
		assert.NotEmpty(t, sess.RefreshToken)
		assert.NotEmpty(t, sess.Email, "identity completed from the profile endpoint")
		assert.True(t, mgr.LoggedIn())
	})

	t.Run("logout is local and idempotent", func(t *testing.T) {
		client.Logout()
		assert.False(t, mgr.LoggedIn())
		client.Logout()
	})
}

// End-to-end run of the expiry path against real JWTs: a stale access token
// triggers exactly one refresh and the original call completes.
func Test_Client_expiredTokenRefreshedEndToEnd(t *testing.T) {
	api, client, mgr := newFakeAPI(t, fakeapi.Options{RotateRefresh: true})
	ctx := context.Background()

	_, err := client.Login(ctx, apiclient.LoginRequest{Username: "amina", Password: "studentpass"})
	require.NoError(t, err)
	oldRefresh := mgr.Current().RefreshToken

	// simulate access expiry without touching the valid refresh token
	require.NoError(t, mgr.UpdateTokens("expired-access", ""))

	subjects, err := client.Subjects.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, subjects, "seeded subjects come back after the refresh")
	assert.Equal(t, 1, api.RefreshCalls())
	assert.Equal(t, 2, api.Hits(http.MethodGet, "/subjects/"))

	curr := mgr.Current()
	assert.NotEqual(t, "expired-access", curr.AccessToken)
	assert.NotEqual(t, oldRefresh, curr.RefreshToken, "rotation installs the new refresh token")
	assert.True(t, mgr.LoggedIn())
}

// A stale refresh token ends the session for good.
func Test_Client_staleRefreshTokenLogsOut(t *testing.T) {
	api, client, mgr := newFakeAPI(t, fakeapi.Options{})
	ctx := context.Background()

	_, err := client.Login(ctx, apiclient.LoginRequest{Username: "amina", Password: "studentpass"})
	require.NoError(t, err)
	require.NoError(t, mgr.UpdateTokens("expired-access", "garbage-refresh"))

	_, err = client.Subjects.List(ctx)
	assert.True(t, apiclient.IsUnauthenticated(err))
	assert.Equal(t, 1, api.RefreshCalls())
	assert.False(t, mgr.LoggedIn())
}

func Test_Client_register(t *testing.T) {
	_, client, mgr := newFakeAPI(t, fakeapi.Options{})
	ctx := context.Background()

	reg := apiclient.RegisterRequest{
		Username:        "njeri",
		Email:           "njeri@jualearn.test",
		Password:        "correct-horse-battery",
		PasswordConfirm: "correct-horse-battery",
		FirstName:       "Njeri",
	}
	require.NoError(t, client.RegisterStudent(ctx, reg))

	sess, err := client.Login(ctx, apiclient.LoginRequest{Username: "njeri", Password: "correct-horse-battery"})
	require.NoError(t, err)
	assert.Equal(t, session.RoleStudent, sess.Role)
	assert.True(t, mgr.LoggedIn())

	t.Run("duplicate username rejected with a field error", func(t *testing.T) {
		err := client.RegisterStudent(ctx, reg)
		apiErr, ok := apiclient.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

		flds := apiclient.ValidationMessages(apiErr)
		require.NotEmpty(t, flds)
		assert.Equal(t, "username", flds[0].Field)
	})
}

func Test_Client_profile(t *testing.T) {
	_, client, _ := newFakeAPI(t, fakeapi.Options{})
	ctx := context.Background()

	_, err := client.Login(ctx, apiclient.LoginRequest{Username: "wanjiru", Password: "adminpass"})
	require.NoError(t, err)

	usr, err := client.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "wanjiru", usr.Username)

	usr.FirstName = "Wanjiru"
	updated, err := client.UpdateProfile(ctx, usr)
	require.NoError(t, err)
	assert.Equal(t, "Wanjiru", updated.FirstName)
}

func Test_RegisterRequest_validate(t *testing.T) {
	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	core.InitValidators(validate, translator, session.RoleValidation)

	valid := apiclient.RegisterRequest{
		Username:        "Baraka ", // cleaned and lowered
		Email:           "baraka@jualearn.test",
		Password:        "a-long-enough-pwd",
		PasswordConfirm: "a-long-enough-pwd",
		FirstName:       "Baraka",
	}
	require.NoError(t, valid.Validate(validate))
	assert.Equal(t, "baraka", valid.Username)

	t.Run("password too similar to username", func(t *testing.T) {
		similar := valid
		similar.Username = "barakamwangi"
		similar.Password = "barakamwangi1"
		similar.PasswordConfirm = similar.Password

		err := similar.Validate(validate)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.NotEmpty(t, vErr.Fields)
		assert.Equal(t, "password", vErr.Fields[0].Field)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		bad := valid
		bad.Role = "wizard"
		assert.Error(t, bad.Validate(validate))

		ok := valid
		ok.Role = "teacher"
		assert.NoError(t, ok.Validate(validate))
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		mismatched := valid
		mismatched.PasswordConfirm = "something-else"
		assert.Error(t, mismatched.Validate(validate))
	})
}
