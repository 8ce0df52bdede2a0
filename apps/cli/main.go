// The jualearn command is a terminal client for the JuaLearn API: log in
// once and the token pair is kept in the local store, refreshed
// transparently on use.
package main

import (
	stdlog "log"
	"os"

	"github.com/jualearn/jualearn-web/core"
	"github.com/jualearn/jualearn-web/core/apiclient"
	"github.com/jualearn/jualearn-web/core/session"
	logsvc "github.com/jualearn/jualearn-web/services/logger"
	"github.com/jualearn/jualearn-web/storage/localstore"
)

func main() {
	conf := core.NewConfig()
	std := stdlog.New(os.Stderr, "", 0)
	logger := logsvc.NewConsoleLogger(std)
	logger.Enable(conf.Debug)

	store, err := localstore.OpenSQLite(conf.StorePath)
	if err != nil {
		std.Fatalf("opening local store: %v", err)
	}
	defer store.Close()

	mgr := session.NewManager(store)
	mgr.SetLogoutHook(func() {
		std.Println("session expired; run `jualearn login` to sign in again")
	})

	client, err := apiclient.NewClient(conf, mgr, logger)
	if err != nil {
		std.Fatalf("building API client: %v", err)
	}

	cli := &commandLine{client: client, out: os.Stdout}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("error: %v", err)
		}
		os.Exit(1)
	}
}
