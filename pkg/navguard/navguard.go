// Package navguard decides, before a navigation happens, whether the target
// route may be shown to the current session or where to send it instead.
package navguard

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/photosync/photosync/pkg/client"
)

const (
	LoginPath    = "/login"
	RegisterPath = "/register"
)

// ErrSuperseded is returned by Navigate when a newer navigation started
// before this one finished.
var ErrSuperseded = errors.New("navguard: navigation superseded")

// Route is the guard-relevant metadata of one path.
type Route struct {
	Path         string
	RequiresAuth bool
	// Role restricts the route to one role. Empty means any role.
	Role client.Role
	// GuestOnly routes bounce logged-in users to their dashboard.
	GuestOnly bool
	// Redirect, when set, always sends the navigation elsewhere.
	Redirect string
	// RoleHome sends logged-in users to their role's dashboard.
	RoleHome bool
}

// DefaultRoutes is the SPA's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Redirect: LoginPath},
		{Path: LoginPath, GuestOnly: true},
		{Path: RegisterPath, GuestOnly: true},
		{Path: "/dashboard", RequiresAuth: true, RoleHome: true},
		{Path: "/client/dashboard", RequiresAuth: true, Role: client.RoleClient},
		{Path: "/photographer/dashboard", RequiresAuth: true, Role: client.RolePhotographer},
		{Path: "/admin/dashboard", RequiresAuth: true, Role: client.RoleAdmin},
	}
}

// Decision is the outcome for one navigation. Redirect is empty when Allow.
type Decision struct {
	Allow    bool
	Redirect string
}

func allow() Decision { return Decision{Allow: true} }

func redirect(path string) Decision { return Decision{Redirect: path} }

func (d Decision) String() string {
	if d.Allow {
		return "allow"
	}
	return "redirect " + d.Redirect
}

// DashboardFor is the landing page of role.
func DashboardFor(role client.Role) string {
	return "/" + string(role) + "/dashboard"
}

// Decide applies the guard rules to route for the session in snap. It never
// blocks and has no side effects.
func Decide(route Route, snap client.Snapshot) Decision {
	if route.Redirect != "" {
		return redirect(route.Redirect)
	}

	loggedIn := snap.State == client.LoggedIn && snap.User != nil && snap.Role().Valid()

	if route.RequiresAuth && !loggedIn {
		return redirect(LoginPath)
	}
	if !loggedIn {
		return allow()
	}

	home := DashboardFor(snap.Role())
	switch {
	case route.GuestOnly, route.RoleHome:
		return redirect(home)
	case route.Role != "" && route.Role != snap.Role():
		return redirect(home)
	}
	return allow()
}

// Guard evaluates navigations against a route table and a live Session.
type Guard struct {
	routes  map[string]Route
	session *client.Session

	mu  sync.Mutex
	seq uint64
}

// New returns a Guard over routes; nil means DefaultRoutes.
func New(session *client.Session, routes []Route) *Guard {
	if routes == nil {
		routes = DefaultRoutes()
	}
	g := &Guard{routes: make(map[string]Route, len(routes)), session: session}
	for _, r := range routes {
		g.routes[normalize(r.Path)] = r
	}
	return g
}

// Lookup returns the route registered for path. Unknown paths get an
// unrestricted route so the app can render its own not-found page.
func (g *Guard) Lookup(path string) Route {
	path = normalize(path)
	if r, ok := g.routes[path]; ok {
		return r
	}
	return Route{Path: path}
}

// Navigate decides whether path may be shown. A session still Rehydrating is
// settled first. If another Navigate starts while this one waits, this one
// returns ErrSuperseded and the newer decision wins.
func (g *Guard) Navigate(ctx context.Context, path string) (Decision, error) {
	g.mu.Lock()
	g.seq++
	seq := g.seq
	g.mu.Unlock()

	if g.session.Snapshot().State == client.Rehydrating {
		// A stale result means a login or logout already settled the
		// session; the fresh snapshot below reflects it.
		if err := g.session.Rehydrate(ctx); err != nil && !errors.Is(err, client.ErrStale) {
			return Decision{}, err
		}
	}

	decision := Decide(g.Lookup(path), g.session.Snapshot())

	g.mu.Lock()
	defer g.mu.Unlock()
	if seq != g.seq {
		return Decision{}, ErrSuperseded
	}
	return decision, nil
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if trimmed := strings.TrimRight(path, "/"); trimmed != "" {
		path = trimmed
	} else {
		path = "/"
	}
	return path
}
