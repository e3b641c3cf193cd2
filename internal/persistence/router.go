package persistence

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/circuit-timer/internal/workout"
)

// LocalSessionKey is the key unauthenticated sessions are stored under
const LocalSessionKey = "active-session"

// Authenticator reports the signed-in user, read each time a session is
// saved or loaded
type Authenticator interface {
	CurrentUser() (userID string, ok bool)
}

// StaticAuth is an Authenticator with a fixed user; an empty UserID means signed out
type StaticAuth struct {
	UserID string
}

func (a StaticAuth) CurrentUser() (string, bool) {
	return a.UserID, a.UserID != ""
}

// Router sends session records to the remote store for signed-in users and
// to the local store otherwise
type Router struct {
	auth   Authenticator
	remote KeyedStore
	local  KeyedStore
	logger *log.Logger

	warnOnce sync.Once
}

// NewRouter creates a Router. remote may be nil, in which case every record
// goes to local.
func NewRouter(auth Authenticator, remote, local KeyedStore, logger *log.Logger) *Router {
	if auth == nil {
		panic("Router: auth cannot be nil")
	}
	if local == nil {
		panic("Router: local store cannot be nil")
	}
	if logger == nil {
		panic("Router: logger cannot be nil")
	}
	return &Router{auth: auth, remote: remote, local: local, logger: logger}
}

// Save writes rec to the store chosen by the current authentication state
func (r *Router) Save(ctx context.Context, rec workout.Record) error {
	store, key, mode := r.route()
	return store.Set(ctx, key, rec, mode)
}

// Load reads the record from the store chosen by the current authentication state
func (r *Router) Load(ctx context.Context) (workout.Record, bool, error) {
	store, key, _ := r.route()
	return store.Get(ctx, key)
}

func (r *Router) route() (KeyedStore, string, MergeMode) {
	userID, ok := r.auth.CurrentUser()
	if !ok {
		return r.local, LocalSessionKey, MergeReplace
	}
	if r.remote == nil {
		r.warnOnce.Do(func() {
			r.logger.Printf("Router: user %s is signed in but no remote store is configured, using local", userID)
		})
		return r.local, LocalSessionKey, MergeReplace
	}
	return r.remote, userID, MergeShallow
}
