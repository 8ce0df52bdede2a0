package web

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jualearn/jualearn-web/core"
	"github.com/jualearn/jualearn-web/core/apiclient"
	"github.com/jualearn/jualearn-web/core/session"
	"github.com/jualearn/jualearn-web/storage/localstore"
)

// browserSession is the server-side state for one browser: its own
// session manager and API client, plus the theme preference. The store
// behind the manager is in-memory; the session cookie is what makes it
// survive page reloads.
type browserSession struct {
	ID      string
	Manager *session.Manager
	Client  *apiclient.Client
	Store   *localstore.InMemStore

	lastSeen time.Time
}

func (bs *browserSession) Theme(fallback string) string {
	if theme, err := bs.Store.LoadTheme(); err == nil && theme != "" {
		return theme
	}
	return fallback
}

// registry maps session cookie IDs to browser sessions. Entries idle past
// the cookie TTL are dropped lazily on access.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*browserSession

	conf *core.Config
	log  core.Logger
}

func newRegistry(conf *core.Config, log core.Logger) *registry {
	return &registry{
		sessions: make(map[string]*browserSession),
		conf:     conf,
		log:      log,
	}
}

// Lookup returns the browser session for id, if still live.
func (r *registry) Lookup(id string) (*browserSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bs, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if time.Since(bs.lastSeen) > r.conf.Session.CookieTTL {
		delete(r.sessions, id)
		return nil, false
	}
	bs.lastSeen = time.Now()
	return bs, true
}

// Register creates a fresh browser session with its own manager + client.
func (r *registry) Register() (*browserSession, error) {
	store := localstore.NewInMem()
	mgr := session.NewManager(store)
	client, err := apiclient.NewClient(r.conf, mgr, r.log)
	if err != nil {
		return nil, errors.Wrap(err, "building API client")
	}

	bs := &browserSession{
		ID:       uuid.NewString(),
		Manager:  mgr,
		Client:   client,
		Store:    store,
		lastSeen: time.Now(),
	}
	mgr.SetLogoutHook(func() {
		r.log.Info("session ended, redirecting to login", map[string]interface{}{"browser": bs.ID})
	})

	r.mu.Lock()
	r.sessions[bs.ID] = bs
	r.sweepLocked()
	r.mu.Unlock()
	return bs, nil
}

// Revoke drops a browser session entirely (explicit logout).
func (r *registry) Revoke(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// sweepLocked evicts idle sessions; callers hold r.mu.
func (r *registry) sweepLocked() {
	for id, bs := range r.sessions {
		if time.Since(bs.lastSeen) > r.conf.Session.CookieTTL {
			delete(r.sessions, id)
		}
	}
}
