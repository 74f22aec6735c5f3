package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is where a Session sits in its lifecycle.
type State int

const (
	LoggedOut State = iota
	LoggingIn
	LoggedIn
	// Rehydrating holds a stored token whose user has not been fetched yet.
	Rehydrating
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case LoggingIn:
		return "logging_in"
	case LoggedIn:
		return "logged_in"
	case Rehydrating:
		return "rehydrating"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrStale is returned when a call's response arrived after a newer change to
// the session and was therefore discarded.
var ErrStale = errors.New("client: response superseded by a newer session change")

// Snapshot is an immutable view of a Session.
type Snapshot struct {
	State State
	Token string
	User  *User
	// Epoch increases with every change; a larger epoch is always newer.
	Epoch uint64
}

// Role is the logged-in user's role, or "" when there is none.
func (s Snapshot) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Session is the client-held mirror of {token, user}. The token survives
// restarts through its TokenStorage; the user is refetched by Rehydrate.
type Session struct {
	api   API
	store TokenStorage

	mu          sync.Mutex
	state       State
	token       string
	user        *User
	epoch       uint64
	rehydration *rehydration
	beforeLogin *restorePoint
	subs        map[int]func(Snapshot)
	nextSub     int

	notifyMu  sync.Mutex
	delivered uint64
}

type rehydration struct {
	done chan struct{}
	err  error
}

// restorePoint is the session a failed Login or Register returns to. Storage
// is only written on success, so it still matches this point.
type restorePoint struct {
	state State
	token string
	user  *User
}

// NewSession restores the session from store. A stored token starts the
// session in Rehydrating; otherwise it starts LoggedOut.
func NewSession(api API, store TokenStorage) (*Session, error) {
	token, err := store.Load()
	if err != nil {
		return nil, err
	}
	s := &Session{
		api:   api,
		store: store,
		state: LoggedOut,
		subs:  make(map[int]func(Snapshot)),
	}
	if token != "" {
		s.state = Rehydrating
		s.token = token
	}
	return s, nil
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe calls fn with every new snapshot, in epoch order, until the
// returned function is called. fn must not call back into the Session's
// mutating methods synchronously.
func (s *Session) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Login authenticates with creds and stores the issued token. On failure the
// session returns to where it was; on success a token it replaces is revoked
// on a best-effort basis.
func (s *Session) Login(ctx context.Context, creds Credentials) (*User, error) {
	return s.authenticate(ctx, func(ctx context.Context) (*AuthResponse, error) {
		return s.api.Login(ctx, creds)
	})
}

// Register creates an account and logs in with it.
func (s *Session) Register(ctx context.Context, reg Registration) (*User, error) {
	return s.authenticate(ctx, func(ctx context.Context) (*AuthResponse, error) {
		return s.api.Register(ctx, reg)
	})
}

func (s *Session) authenticate(ctx context.Context, call func(context.Context) (*AuthResponse, error)) (*User, error) {
	s.mu.Lock()
	prior := s.beforeLogin
	if prior == nil {
		prior = &restorePoint{state: s.state, token: s.token, user: s.user}
	}
	epoch := s.setLocked(LoggingIn, "", nil)
	s.beforeLogin = prior
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	res, err := call(ctx)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		if err == nil && res != nil {
			// Nobody will ever present this token; don't leave it live.
			_ = s.api.Logout(ctx, res.AccessToken)
		}
		return nil, ErrStale
	}
	if err == nil {
		if saveErr := s.store.Save(res.AccessToken); saveErr != nil {
			err = fmt.Errorf("persist token: %w", saveErr)
		}
	}
	if err != nil {
		s.setLocked(prior.state, prior.token, prior.user)
		snap = s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return nil, err
	}

	user := res.User
	s.setLocked(LoggedIn, res.AccessToken, &user)
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	if prior.token != "" && prior.token != res.AccessToken {
		_ = s.api.Logout(ctx, prior.token)
	}
	return snap.User, nil
}

// Rehydrate fetches the user for a stored token. It is a no-op unless the
// session is Rehydrating, and concurrent callers share one request.
//
// A 401 clears the session and its storage. Any other failure leaves the
// session Rehydrating so the call can be retried.
func (s *Session) Rehydrate(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.state != Rehydrating {
			s.mu.Unlock()
			return nil
		}
		r := s.rehydration
		if r == nil {
			return s.rehydrateLocked(ctx)
		}
		s.mu.Unlock()

		select {
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		// A superseded fetch says nothing about the current token.
		if !errors.Is(r.err, ErrStale) {
			return r.err
		}
	}
}

// rehydrateLocked runs the identity fetch. Called with s.mu held; returns
// with it released.
func (s *Session) rehydrateLocked(ctx context.Context) error {
	r := &rehydration{done: make(chan struct{})}
	s.rehydration = r
	epoch, token := s.epoch, s.token
	s.mu.Unlock()

	user, err := s.api.CurrentUser(ctx, token)

	s.mu.Lock()
	if s.rehydration == r {
		s.rehydration = nil
	}
	var snap *Snapshot
	switch {
	case s.epoch != epoch:
		r.err = ErrStale
	case err == nil:
		s.setLocked(LoggedIn, token, user)
		sn := s.snapshotLocked()
		snap = &sn
	case IsUnauthorized(err):
		s.setLocked(LoggedOut, "", nil)
		sn := s.snapshotLocked()
		snap = &sn
		if clearErr := s.store.Clear(); clearErr != nil {
			r.err = fmt.Errorf("clear token: %w", clearErr)
		}
	default:
		r.err = err
	}
	s.mu.Unlock()
	close(r.done)

	if snap != nil {
		s.notify(*snap)
	}
	return r.err
}

// Logout clears the session locally, then tells the server. The local clear
// always happens; a server failure is returned for logging only.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.setLocked(LoggedOut, "", nil)
	snap := s.snapshotLocked()
	clearErr := s.store.Clear()
	s.mu.Unlock()
	s.notify(snap)

	var errs []error
	if clearErr != nil {
		errs = append(errs, fmt.Errorf("clear token: %w", clearErr))
	}
	if token != "" {
		if err := s.api.Logout(ctx, token); err != nil {
			errs = append(errs, fmt.Errorf("server logout: %w", err))
		}
	}
	return errors.Join(errs...)
}

// setLocked moves to state and returns the new epoch. Callers hold s.mu.
func (s *Session) setLocked(state State, token string, user *User) uint64 {
	s.epoch++
	if state != LoggingIn {
		s.beforeLogin = nil
	}
	s.state = state
	s.token = token
	if user != nil {
		u := *user
		user = &u
	}
	s.user = user
	return s.epoch
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Token: s.token, Epoch: s.epoch}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// notify delivers snap to subscribers unless a newer snapshot already went out.
func (s *Session) notify(snap Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.Epoch <= s.delivered {
		return
	}
	s.delivered = snap.Epoch

	s.mu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

type sessionKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the Session stored by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok
}
