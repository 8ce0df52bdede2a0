package main

import (
	"bytes"
	"io"
	stdlog "log"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jualearn/jualearn-web/core"
	"github.com/jualearn/jualearn-web/core/apiclient"
	"github.com/jualearn/jualearn-web/core/session"
	"github.com/jualearn/jualearn-web/services/fakeapi"
	logsvc "github.com/jualearn/jualearn-web/services/logger"
	"github.com/jualearn/jualearn-web/storage/localstore"
)

func newTestCLI(t *testing.T) (*commandLine, *bytes.Buffer) {
	t.Helper()

	api := fakeapi.NewServer(fakeapi.Options{})
	require.NoError(t, api.SeedDefaults())
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	store, err := localstore.OpenSQLite(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	conf := &core.Config{Env: "TEST"}
	conf.API.BaseURL = srv.URL
	client, err := apiclient.NewClient(conf, session.NewManager(store), logsvc.NewConsoleLogger(stdlog.New(io.Discard, "", 0)))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &commandLine{client: client, out: out}, out
}

func Test_CLI_loginAndCommands(t *testing.T) {
	cli, out := newTestCLI(t)

	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte("studentpass"), nil }
	defer func() { readPasswordFunc = orig }()

	require.NoError(t, cli.run([]string{"jualearn", "login", "-username", "amina"}))
	assert.Contains(t, out.String(), "Signed in as Amina Odhiambo (student).")

	out.Reset()
	require.NoError(t, cli.run([]string{"jualearn", "whoami"}))
	assert.Contains(t, out.String(), "amina@jualearn.test")

	out.Reset()
	require.NoError(t, cli.run([]string{"jualearn", "subjects"}))
	assert.Contains(t, out.String(), "Mathematics")
	assert.Contains(t, out.String(), "Kiswahili")

	out.Reset()
	require.NoError(t, cli.run([]string{"jualearn", "notifications"}))
	assert.Contains(t, out.String(), "* Welcome to JuaLearn!")

	out.Reset()
	require.NoError(t, cli.run([]string{"jualearn", "logout"}))
	assert.Contains(t, out.String(), "Logged out.")

	out.Reset()
	require.NoError(t, cli.run([]string{"jualearn", "whoami"}))
	assert.Contains(t, out.String(), "Not signed in.")
}

func Test_CLI_badPassword(t *testing.T) {
	cli, _ := newTestCLI(t)

	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte("wrong"), nil }
	defer func() { readPasswordFunc = orig }()

	err := cli.run([]string{"jualearn", "login", "-username", "amina"})
	apiErr, ok := apiclient.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 401, apiErr.StatusCode)
}

func Test_CLI_usage(t *testing.T) {
	cli, out := newTestCLI(t)

	assert.Equal(t, errHelp, cli.run([]string{"jualearn"}))
	assert.Contains(t, out.String(), "Usage:")

	out.Reset()
	assert.Equal(t, errHelp, cli.run([]string{"jualearn", "bogus"}))
	assert.Contains(t, out.String(), "Usage:")
}
