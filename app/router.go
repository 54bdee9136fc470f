package app

import (
	"fmt"
	"regexp"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
)

// isPath is the RegExp to ensure the routes make sense
var isPath = regexp.MustCompile(`^[a-zA-Z0-9_\-/]+$`).MatchString

// Router allows us to register many handlers with different paths and then
// direct each message to the proper handler.
//
// Minimal interface modeled after net/http.ServeMux
type Router struct {
	routes map[string]bounty.Handler
}

var _ bounty.Registry = (*Router)(nil)
var _ bounty.Handler = (*Router)(nil)
var _ bounty.Scoper = (*Router)(nil)

// NewRouter returns a new empty router instance.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]bounty.Handler, 16),
	}
}

// Handle adds a new Handler for the given message type. It panics if
// another handler was already registered for the same path.
func (r *Router) Handle(msg bounty.Msg, h bounty.Handler) {
	path := msg.Path()
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	r.routes[path] = h
}

// handler returns the registered handler for this path. If no path is
// found, returns a noSuchPath handler. Always returns a non-nil handler.
func (r *Router) handler(path string) bounty.Handler {
	if h, ok := r.routes[path]; ok {
		return h
	}
	return noSuchPathHandler(path)
}

// Check dispatches to the proper handler based on path.
func (r *Router) Check(ctx bounty.Context, store bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	return r.handler(msg.Path()).Check(ctx, store, tx)
}

// Deliver dispatches to the proper handler based on path.
func (r *Router) Deliver(ctx bounty.Context, store bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	return r.handler(msg.Path()).Deliver(ctx, store, tx)
}

// Scope returns the locks declared by the routed handler. A transaction
// that cannot be routed or whose handler does not declare a scope is
// unscoped (nil locks).
func (r *Router) Scope(ctx bounty.Context, db bounty.ReadOnlyKVStore, tx bounty.Tx) ([]bounty.Lock, error) {
	msg, err := tx.GetMsg()
	if err != nil || msg == nil {
		return nil, nil
	}
	s, ok := r.routes[msg.Path()].(bounty.Scoper)
	if !ok {
		return nil, nil
	}
	return s.Scope(ctx, db, tx)
}

type noSuchPathHandler string

func (path noSuchPathHandler) Check(bounty.Context, bounty.KVStore, bounty.Tx) (*bounty.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}

func (path noSuchPathHandler) Deliver(bounty.Context, bounty.KVStore, bounty.Tx) (*bounty.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}
