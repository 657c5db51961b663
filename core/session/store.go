package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// fixed persistence keys
const (
	sessionKey    = "shule.session"
	credentialKey = "shule.credential"
)

// ErrAuthenticationFailed covers rejected credentials and credentials that
// cannot be decoded. Transport errors from the Authenticator propagate to the
// caller unmodified; retry is a user-level action.
var ErrAuthenticationFailed = errors.New("authentication failed")

// GuardState is the route guard's view of the Store: a pure projection of
// (isLoading, isAuthenticated) with no state of its own.
type GuardState int

const (
	StateLoading GuardState = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s GuardState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return fmt.Sprintf("GuardState(%d)", int(s))
}

// Authenticator is the external auth collaborator consumed by the Store.
type Authenticator interface {
	Authenticate(ctx context.Context, email, pwd string) (user.User, error)
}

// Subscriber is notified with the new Session snapshot on every publish;
// nil means the session was destroyed.
type Subscriber func(*Session)

// Store holds the current authenticated identity and its bearer Credential.
// It is the single writer of Session state; all consumers read snapshots.
type Store struct {
	keeper core.Keeper
	auth   Authenticator
	logger core.Logger
	conf   *core.Config

	mu         sync.RWMutex
	loading    bool
	current    *Session
	credential string
	subs       map[int]Subscriber
	nextSubID  int

	initOnce sync.Once
}

func NewStore(keeper core.Keeper, auth Authenticator, logger core.Logger, conf *core.Config) *Store {
	return &Store{
		keeper:  keeper,
		auth:    auth,
		logger:  logger,
		conf:    conf,
		loading: true,
		subs:    make(map[int]Subscriber),
	}
}

// Initialize attempts to rehydrate a previously persisted Session + Credential
// pair. It always completes: corrupt or missing persisted data degrades to an
// empty session, never an error. The loading flag flips false exactly once,
// even if Initialize is called again.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		defer func() {
			s.mu.Lock()
			s.loading = false
			s.mu.Unlock()
		}()

		cred, err := s.keeper.Get(ctx, credentialKey)
		if err != nil {
			if errors.Cause(err) != core.ErrKeyNotFound {
				s.logger.Warn(fmt.Sprintf("loading persisted credential: %v", err))
			}
			return
		}

		sess, ok := s.loadPersistedSession(ctx, cred)
		if !ok {
			// unreadable persisted state; recover silently
			s.clearPersisted(ctx)
			return
		}

		s.mu.Lock()
		s.current = &sess
		s.credential = cred
		s.mu.Unlock()
	})
}

func (s *Store) loadPersistedSession(ctx context.Context, cred string) (Session, bool) {
	if raw, err := s.keeper.Get(ctx, sessionKey); err == nil {
		var sess Session
		if err = json.Unmarshal([]byte(raw), &sess); err == nil && sess.ID != "" {
			return sess, true
		}
		s.logger.Warn(fmt.Sprintf("corrupt persisted session, falling back to credential: %v", err))
	}

	// fall back to re-decoding the credential
	claims, err := DecodeCredential(cred, s.conf)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("corrupt persisted credential, degrading to empty session: %v", err))
		return Session{}, false
	}
	return newSessionFromClaims(claims), true
}

// Login delegates credential acquisition to the Authenticator, decodes the
// resulting Credential into a Session, persists both and publishes the new
// Session. Rejected credentials and undecodable credentials fail with
// ErrAuthenticationFailed; no partial state is persisted on failure.
func (s *Store) Login(ctx context.Context, email, pwd string) (Session, error) {
	usr, err := s.auth.Authenticate(ctx, email, pwd)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrInvalidCredentials, user.ErrAccountDeactivated:
			return Session{}, ErrAuthenticationFailed
		}
		return Session{}, err
	}

	cred, err := EncodeCredential(NewUserClaims(usr, s.conf), s.conf)
	if err != nil {
		return Session{}, err
	}
	claims, err := DecodeCredential(cred, s.conf)
	if err != nil {
		return Session{}, ErrAuthenticationFailed
	}
	sess := newSessionFromClaims(claims)

	if user.ResolvesByDefault(sess.Roles) {
		s.logger.Warn(fmt.Sprintf("user %s roles %v resolve to %s by default only", sess.ID, sess.Roles, user.RoleStudent))
	}

	s.persist(ctx, sess, cred)

	s.mu.Lock()
	s.current = &sess
	s.credential = cred
	s.mu.Unlock()

	s.publish(&sess)
	return sess, nil
}

// Logout destroys the Session: in-memory state and persisted state are
// cleared and nil is published. This is the only operation permitted to
// destroy a Session. Storage failures never propagate past the Store.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.credential = ""
	s.mu.Unlock()

	s.clearPersisted(ctx)
	s.publish(nil)
}

// Current returns a snapshot of the current Session, or nil.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	sess := *s.current
	return &sess
}

// Credential returns the current bearer credential, or "".
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// HasRole checks the current session's raw roles for a normalized role.
// An empty session has no roles.
func (s *Store) HasRole(role user.NormalizedRole) bool {
	sess := s.Current()
	if sess == nil {
		return false
	}
	return sess.HasRole(role)
}

// State projects the Store onto the route guard's state machine.
func (s *Store) State() GuardState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.loading:
		return StateLoading
	case s.current != nil:
		return StateAuthenticated
	}
	return StateUnauthenticated
}

// Subscribe registers a Subscriber and returns its unsubscribe function.
func (s *Store) Subscribe(sub Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = sub
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) publish(sess *Session) {
	s.mu.RLock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.RUnlock()

	for _, sub := range subs {
		var snapshot *Session
		if sess != nil {
			cp := *sess
			snapshot = &cp
		}
		sub(snapshot)
	}
}

func (s *Store) persist(ctx context.Context, sess Session, cred string) {
	raw, err := json.Marshal(sess)
	if err != nil {
		s.logger.Error(fmt.Sprintf("marshalling session: %v", err))
		return
	}
	if err = s.keeper.Set(ctx, credentialKey, cred); err != nil {
		s.logger.Error(fmt.Sprintf("persisting credential: %v", err))
		return
	}
	if err = s.keeper.Set(ctx, sessionKey, string(raw)); err != nil {
		s.logger.Error(fmt.Sprintf("persisting session: %v", err))
	}
}

func (s *Store) clearPersisted(ctx context.Context) {
	if err := s.keeper.Remove(ctx, sessionKey); err != nil {
		s.logger.Warn(fmt.Sprintf("clearing persisted session: %v", err))
	}
	if err := s.keeper.Remove(ctx, credentialKey); err != nil {
		s.logger.Warn(fmt.Sprintf("clearing persisted credential: %v", err))
	}
}
