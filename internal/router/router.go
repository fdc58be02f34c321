package router

import (
	"fmt"
	"strings"
	"sync"

	"github.com/muurk/bankconnect/internal/logging"
	"github.com/muurk/bankconnect/internal/node"
)

// Route names
const (
	RouteConnect  = "connect"
	RouteOverview = "overview"
)

// ConnectPath is the start screen
const ConnectPath = "/connect"

// OverviewPath returns the overview path for a node
func OverviewPath(n node.Pather) string {
	return "/bank/" + node.FormatPathFromNode(n) + "/overview"
}

// Params are the values captured from a matched path
type Params struct {
	Address node.Address
}

// Listener is called after the current path changes
type Listener func(from, to string)

// Router is a history stack of paths
type Router struct {
	mu        sync.Mutex
	history   []string
	listeners []Listener
}

// New creates a router positioned at start
func New(start string) *Router {
	return &Router{history: []string{start}}
}

// Current returns the path on top of the history
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[len(r.history)-1]
}

// Depth returns the number of entries in the history
func (r *Router) Depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}

// Push navigates to path. Pushing the current path again does nothing.
func (r *Router) Push(path string) {
	r.mu.Lock()
	from := r.history[len(r.history)-1]
	if from == path {
		r.mu.Unlock()
		return
	}
	r.history = append(r.history, path)
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	logging.LogNavigation(from, path)
	for _, l := range listeners {
		l(from, path)
	}
}

// Replace swaps the whole history for a single path
func (r *Router) Replace(path string) {
	r.mu.Lock()
	from := r.history[len(r.history)-1]
	r.history = []string{path}
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	if from == path {
		return
	}
	logging.LogNavigation(from, path)
	for _, l := range listeners {
		l(from, path)
	}
}

// Back pops the current path. It reports false when already at the root.
func (r *Router) Back() bool {
	r.mu.Lock()
	if len(r.history) == 1 {
		r.mu.Unlock()
		return false
	}
	from := r.history[len(r.history)-1]
	r.history = r.history[:len(r.history)-1]
	to := r.history[len(r.history)-1]
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	logging.LogNavigation(from, to)
	for _, l := range listeners {
		l(from, to)
	}
	return true
}

// OnChange registers a listener for navigation
func (r *Router) OnChange(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Match resolves path to a route name and its parameters
func Match(path string) (string, Params, error) {
	if path == ConnectPath {
		return RouteConnect, Params{}, nil
	}

	trimmed := strings.Trim(path, "/")
	if strings.HasPrefix(trimmed, "bank/") && strings.HasSuffix(trimmed, "/overview") {
		inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "bank/"), "/overview")
		addr, err := node.ParsePath(inner)
		if err != nil {
			return "", Params{}, fmt.Errorf("invalid overview route: %w", err)
		}
		return RouteOverview, Params{Address: addr}, nil
	}

	return "", Params{}, fmt.Errorf("no route matches %q", path)
}
