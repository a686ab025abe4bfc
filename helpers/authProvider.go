package helpers

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBadCredentials = errors.New("password is incorrect")
	ErrSessionEnded   = errors.New("session has ended")
)

// Session is a signed-in admin. The admin page is built for one Session and
// stops serving it when the session ends.
type Session struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type SessionEndReason string

const (
	SessionSignedOut SessionEndReason = "signed_out"
	SessionExpired   SessionEndReason = "expired"
)

// SessionEvent reports a session starting or ending. Reason is empty for a
// sign-in.
type SessionEvent struct {
	Session Session
	Ended   bool
	Reason  SessionEndReason
}

// AuthProvider signs the single admin in and out. Tokens are stateless JWTs;
// signed-out token ids are remembered until they would have expired anyway.
type AuthProvider struct {
	secret       []byte
	passwordHash string
	ttl          time.Duration
	now          func() time.Time

	mu        sync.Mutex
	revoked   map[string]time.Time
	timers    map[string]*time.Timer
	listeners map[int]func(SessionEvent)
	nextID    int
}

func NewAuthProvider(secret, passwordHash string, ttl time.Duration) *AuthProvider {
	return &AuthProvider{
		secret:       []byte(secret),
		passwordHash: passwordHash,
		ttl:          ttl,
		now:          time.Now,
		revoked:      make(map[string]time.Time),
		timers:       make(map[string]*time.Timer),
		listeners:    make(map[int]func(SessionEvent)),
	}
}

func (p *AuthProvider) SignIn(password string) (Session, string, error) {
	if ok, _ := VerifyPassword(password, p.passwordHash); !ok {
		return Session{}, "", ErrBadCredentials
	}
	// claims carry whole seconds; keep the session identical to what a
	// token round trip yields
	issued := p.now().UTC().Truncate(time.Second)
	session := Session{
		ID:        uuid.NewString(),
		Role:      AdminRole,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(p.ttl),
	}
	token, err := GenerateToken(p.secret, session)
	if err != nil {
		return Session{}, "", err
	}
	p.track(session)
	p.emit(SessionEvent{Session: session})
	return session, token, nil
}

// CurrentSession returns the session a token belongs to, if it is still
// live.
func (p *AuthProvider) CurrentSession(token string) (Session, error) {
	claims, err := ValidateToken(p.secret, token, p.now())
	if err != nil {
		return Session{}, err
	}
	session := Session{
		ID:        claims.ID,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}

	p.mu.Lock()
	_, revoked := p.revoked[session.ID]
	p.mu.Unlock()
	if revoked {
		return Session{}, ErrSessionEnded
	}
	p.track(session)
	return session, nil
}

func (p *AuthProvider) SignOut(token string) error {
	session, err := p.CurrentSession(token)
	if err != nil {
		return err
	}
	now := p.now()

	p.mu.Lock()
	for id, exp := range p.revoked {
		if !now.Before(exp) {
			delete(p.revoked, id)
		}
	}
	p.revoked[session.ID] = session.ExpiresAt
	if t, ok := p.timers[session.ID]; ok {
		t.Stop()
		delete(p.timers, session.ID)
	}
	p.mu.Unlock()

	p.emit(SessionEvent{Session: session, Ended: true, Reason: SessionSignedOut})
	return nil
}

// OnSessionChange registers fn for sign-in, sign-out and expiry events and
// returns a function that removes it. fn runs on the goroutine that caused
// the event and must not block.
func (p *AuthProvider) OnSessionChange(fn func(SessionEvent)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// Close stops pending expiry timers.
func (p *AuthProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
}

// track arms an expiry event for a session the first time it is seen.
func (p *AuthProvider) track(session Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.timers[session.ID]; ok {
		return
	}
	p.timers[session.ID] = time.AfterFunc(session.ExpiresAt.Sub(p.now()), func() {
		p.mu.Lock()
		delete(p.timers, session.ID)
		p.mu.Unlock()
		p.emit(SessionEvent{Session: session, Ended: true, Reason: SessionExpired})
	})
}

func (p *AuthProvider) emit(ev SessionEvent) {
	p.mu.Lock()
	listeners := make([]func(SessionEvent), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}
